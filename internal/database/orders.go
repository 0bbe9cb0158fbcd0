package database

import (
	"errors"

	"github.com/google/uuid"

	"github.com/iaguu/axion-central-bot/internal/models"
)

// ErrDuplicateOrderID is returned when a caller-supplied order id is
// already taken.
var ErrDuplicateOrderID = errors.New("duplicate order id")

func findOrder(doc *models.Document, id string) *models.Order {
	for _, o := range doc.Orders {
		if o.ID == id {
			return o
		}
	}
	return nil
}

// AddOrder registers a purchase. An empty ID gets a generated one,
// an empty status defaults to created, and createdAt is stamped.
// A taken id fails with ErrDuplicateOrderID. Transactional.
func (db *Database) AddOrder(o models.Order) (models.Order, error) {
	var out models.Order
	err := db.Update(func(doc *models.Document) error {
		if o.ID == "" {
			o.ID = uuid.NewString()
		}
		if findOrder(doc, o.ID) != nil {
			return ErrDuplicateOrderID
		}
		if o.Status == "" {
			o.Status = models.StatusCreated
		}
		o.CreatedAt = nowStamp()
		doc.Orders = append(doc.Orders, &o)
		out = o
		return nil
	})
	return out, err
}

// Order returns a copy of the order or nil. Read-only snapshot.
func (db *Database) Order(id string) *models.Order {
	var out *models.Order
	db.View(func(doc *models.Document) {
		if o := findOrder(doc, id); o != nil {
			cp := *o
			out = &cp
		}
	})
	return out
}

// Orders lists every order. Read-only snapshot.
func (db *Database) Orders() []models.Order {
	var out []models.Order
	db.View(func(doc *models.Document) {
		for _, o := range doc.Orders {
			out = append(out, *o)
		}
	})
	return out
}

// OrdersByUser lists the user's orders in insertion order.
// Read-only snapshot.
func (db *Database) OrdersByUser(userID string) []models.Order {
	var out []models.Order
	db.View(func(doc *models.Document) {
		for _, o := range doc.Orders {
			if o.UserID == userID {
				out = append(out, *o)
			}
		}
	})
	return out
}

// OrderByPaymentID finds the order carrying the gateway payment id,
// or nil. Read-only snapshot.
func (db *Database) OrderByPaymentID(paymentID string) *models.Order {
	var out *models.Order
	db.View(func(doc *models.Document) {
		for _, o := range doc.Orders {
			if o.PaymentID != "" && o.PaymentID == paymentID {
				cp := *o
				out = &cp
				return
			}
		}
	})
	return out
}

// UpdateOrder merges a patch into the order and stamps updatedAt. It
// returns nil for an unknown id - callers must check. A status change
// that would move the order backward, or repeat the current status,
// fails with ErrInvalidTransition and persists nothing. Transactional.
func (db *Database) UpdateOrder(id string, patch models.OrderPatch) (*models.Order, error) {
	var out *models.Order
	err := db.Update(func(doc *models.Document) error {
		o := findOrder(doc, id)
		if o == nil {
			return nil
		}
		if patch.Status != nil && !o.Status.CanTransition(*patch.Status) {
			return models.ErrInvalidTransition
		}
		if patch.Status != nil {
			o.Status = *patch.Status
		}
		if patch.PaymentID != nil {
			o.PaymentID = *patch.PaymentID
		}
		if patch.PixCode != nil {
			o.PixCode = *patch.PixCode
		}
		if patch.PaymentURL != nil {
			o.PaymentURL = *patch.PaymentURL
		}
		if patch.DeliveredAt != nil {
			o.DeliveredAt = *patch.DeliveredAt
		}
		o.UpdatedAt = nowStamp()
		cp := *o
		out = &cp
		return nil
	})
	return out, err
}
