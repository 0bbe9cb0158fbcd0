package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/iaguu/axion-central-bot/internal/database"
	"github.com/iaguu/axion-central-bot/internal/models"
	"github.com/iaguu/axion-central-bot/internal/payment"
)

var (
	ErrUnknownProduct = errors.New("unknown product")
	ErrOutOfStock     = errors.New("out of stock")
)

// Known coupon codes. The pending coupon on the user is applied to the
// next checkout and cleared.
var Coupons = map[string]models.Coupon{
	"AXION10": {Code: "AXION10", Type: "percent", Value: 10, Label: "10% off"},
	"AXION20": {Code: "AXION20", Type: "percent", Value: 20, Label: "20% off"},
	"VIP5":    {Code: "VIP5", Type: "amount", Value: 5, Label: "R$5 off"},
}

// Charger abstracts the PIX gateway so checkout can run against
// FluxoPay or AxionPay.
type Charger interface {
	CreateCharge(ctx context.Context, order models.Order, product models.Product) (payment.Charge, error)
}

type CheckoutService struct {
	db      *database.Database
	charger Charger
}

func NewCheckoutService(db *database.Database, charger Charger) *CheckoutService {
	return &CheckoutService{db: db, charger: charger}
}

func applyCoupon(price float64, c *models.Coupon) (amount, discount float64) {
	if c == nil {
		return price, 0
	}
	switch c.Type {
	case "percent":
		discount = price * c.Value / 100
	case "amount":
		discount = c.Value
	}
	if discount > price {
		discount = price
	}
	return price - discount, discount
}

// Start creates an order for the product, applies the buyer's pending
// coupon, opens a gateway charge and moves the order to pending
// payment. Products must have stock to start a purchase; delivery
// still tolerates the stock draining before the payment lands.
func (s *CheckoutService) Start(ctx context.Context, userID, productID string) (models.Order, error) {
	product := s.db.ProductByID(productID)
	if product == nil {
		return models.Order{}, ErrUnknownProduct
	}
	if len(product.Stock) == 0 {
		return models.Order{}, ErrOutOfStock
	}

	coupon := s.db.UserCoupon(userID)
	amount, discount := applyCoupon(product.Price, coupon)

	order := models.Order{
		UserID:         userID,
		ProductID:      productID,
		Amount:         amount,
		AmountOriginal: product.Price,
		Discount:       discount,
	}
	if coupon != nil {
		order.CouponCode = coupon.Code
	}

	created, err := s.db.AddOrder(order)
	if err != nil {
		return models.Order{}, err
	}

	charge, err := s.charger.CreateCharge(ctx, created, *product)
	if err != nil {
		failed := models.StatusPaymentFailed
		if _, uerr := s.db.UpdateOrder(created.ID, models.OrderPatch{Status: &failed}); uerr != nil {
			slog.Error("failed to mark order after gateway error", "order", created.ID, "error", uerr)
		}
		return created, fmt.Errorf("checkout: gateway charge: %w", err)
	}

	pending := models.StatusPendingPayment
	patch := models.OrderPatch{
		Status:    &pending,
		PaymentID: &charge.PaymentID,
	}
	if charge.PixCode != "" {
		patch.PixCode = &charge.PixCode
	}
	if charge.PaymentURL != "" {
		patch.PaymentURL = &charge.PaymentURL
	}
	updated, err := s.db.UpdateOrder(created.ID, patch)
	if err != nil {
		return created, err
	}

	if coupon != nil {
		if err := s.db.ClearUserCoupon(userID); err != nil {
			slog.Error("coupon clear failed", "user", userID, "error", err)
		}
	}
	s.db.AddLog(fmt.Sprintf("order %s created by %s for %s (%.2f)", updated.ID, userID, productID, amount))
	return *updated, nil
}

// Redeem stores a coupon on the user for their next purchase.
func (s *CheckoutService) Redeem(userID, code string) (models.Coupon, error) {
	coupon, ok := Coupons[code]
	if !ok {
		return models.Coupon{}, fmt.Errorf("checkout: unknown coupon %q", code)
	}
	if err := s.db.SetUserCoupon(userID, coupon); err != nil {
		return models.Coupon{}, err
	}
	return coupon, nil
}
