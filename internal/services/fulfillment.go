// Package services holds the business flows that sit between the
// transports (webhooks, bots) and the document store.
package services

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iaguu/axion-central-bot/internal/database"
	"github.com/iaguu/axion-central-bot/internal/models"
)

// RepPerPurchase is credited to the buyer on every fulfilled order.
const RepPerPurchase = 50

// Notifier delivers fulfillment messages to the buyer. The bots
// provide the real implementation; a nil Notifier is allowed.
type Notifier interface {
	Notify(userID, message string) error
}

type FulfillmentService struct {
	db       *database.Database
	notifier Notifier
}

func NewFulfillmentService(db *database.Database, notifier Notifier) *FulfillmentService {
	return &FulfillmentService{db: db, notifier: notifier}
}

// FulfillmentResult describes what happened to a single order.
type FulfillmentResult struct {
	Order     models.Order
	Delivered bool
	Item      string
	// AlreadySettled means the payment event was a replay and nothing
	// changed.
	AlreadySettled bool
}

// ConfirmPayment settles an order after the gateway reports it paid.
// Replayed events are absorbed: an order that is already paid or
// further along is returned untouched.
func (s *FulfillmentService) ConfirmPayment(orderID string) (FulfillmentResult, error) {
	order := s.db.Order(orderID)
	if order == nil {
		return FulfillmentResult{}, fmt.Errorf("fulfillment: unknown order %q", orderID)
	}
	if order.Status.Settled() {
		slog.Info("payment event replayed, order already settled", "order", orderID, "status", order.Status)
		return FulfillmentResult{Order: *order, AlreadySettled: true}, nil
	}

	// the patch is rejected inside the store transaction when another
	// replay settled the order between the check above and here
	paid := models.StatusPaid
	updated, err := s.db.UpdateOrder(orderID, models.OrderPatch{Status: &paid})
	if errors.Is(err, models.ErrInvalidTransition) {
		if current := s.db.Order(orderID); current != nil && current.Status.Settled() {
			slog.Info("payment event replayed, order already settled", "order", orderID, "status", current.Status)
			return FulfillmentResult{Order: *current, AlreadySettled: true}, nil
		}
		return FulfillmentResult{}, err
	}
	if err != nil {
		return FulfillmentResult{}, err
	}
	if updated == nil {
		return FulfillmentResult{}, fmt.Errorf("fulfillment: unknown order %q", orderID)
	}

	if _, err := s.db.AddRep(updated.UserID, RepPerPurchase); err != nil {
		slog.Error("rep credit failed", "order", orderID, "user", updated.UserID, "error", err)
	}

	product := s.db.ProductByID(updated.ProductID)
	if product != nil && product.Category == models.CategoryVIP {
		if _, err := s.db.ToggleVIP(updated.UserID); err != nil {
			slog.Error("vip grant failed", "order", orderID, "user", updated.UserID, "error", err)
		}
	}

	result, err := s.deliver(updated)
	if err != nil {
		return result, err
	}

	s.db.AddLog(fmt.Sprintf("order %s paid by %s (%.2f)", orderID, updated.UserID, updated.Amount))
	s.notify(result)
	return result, nil
}

// deliver pops one stock item if the product has any; otherwise the
// order parks as paid pending stock and a later Retry completes it.
func (s *FulfillmentService) deliver(order *models.Order) (FulfillmentResult, error) {
	item, ok, err := s.db.PopStock(order.ProductID)
	if err != nil {
		return FulfillmentResult{Order: *order}, err
	}

	var next models.OrderStatus
	patch := models.OrderPatch{}
	if ok {
		next = models.StatusDelivered
		stamp := time.Now().UTC().Format(time.RFC3339)
		patch.DeliveredAt = &stamp
	} else {
		if order.Status == models.StatusPaidPendingStock {
			// still parked, nothing to patch
			return FulfillmentResult{Order: *order}, nil
		}
		next = models.StatusPaidPendingStock
		slog.Warn("paid order waiting for stock", "order", order.ID, "product", order.ProductID)
	}
	patch.Status = &next

	updated, err := s.db.UpdateOrder(order.ID, patch)
	if err != nil {
		return FulfillmentResult{Order: *order}, err
	}
	if updated == nil {
		return FulfillmentResult{Order: *order}, fmt.Errorf("fulfillment: order %q vanished", order.ID)
	}
	return FulfillmentResult{Order: *updated, Delivered: ok, Item: item}, nil
}

// RetryPending walks orders parked on empty stock and delivers any
// that can now be filled. Returns the orders it delivered.
func (s *FulfillmentService) RetryPending() ([]FulfillmentResult, error) {
	var pending []models.Order
	for _, o := range s.db.Orders() {
		if o.Status == models.StatusPaidPendingStock {
			pending = append(pending, o)
		}
	}

	var done []FulfillmentResult
	for i := range pending {
		res, err := s.deliver(&pending[i])
		if err != nil {
			return done, err
		}
		if res.Delivered {
			s.db.AddLog(fmt.Sprintf("order %s delivered after restock", res.Order.ID))
			s.notify(res)
			done = append(done, res)
		}
	}
	return done, nil
}

// FailPayment marks an order as failed after a gateway rejection.
// Settled orders are never demoted.
func (s *FulfillmentService) FailPayment(orderID string) error {
	order := s.db.Order(orderID)
	if order == nil {
		return fmt.Errorf("fulfillment: unknown order %q", orderID)
	}
	if order.Status.Settled() {
		slog.Info("failure event ignored, order already settled", "order", orderID, "status", order.Status)
		return nil
	}
	failed := models.StatusPaymentFailed
	_, err := s.db.UpdateOrder(orderID, models.OrderPatch{Status: &failed})
	if errors.Is(err, models.ErrInvalidTransition) {
		slog.Info("failure event ignored, order already closed", "order", orderID)
		return nil
	}
	if err == nil {
		s.db.AddLog(fmt.Sprintf("order %s payment failed", orderID))
	}
	return err
}

func (s *FulfillmentService) notify(res FulfillmentResult) {
	if s.notifier == nil {
		return
	}
	var msg string
	if res.Delivered {
		msg = fmt.Sprintf("Pagamento confirmado! Sua entrega:\n\n%s", res.Item)
	} else {
		msg = "Pagamento confirmado! Seu item sera entregue assim que o estoque for reposto."
	}
	if err := s.notifier.Notify(res.Order.UserID, msg); err != nil {
		slog.Error("buyer notification failed", "order", res.Order.ID, "user", res.Order.UserID, "error", err)
	}
}
