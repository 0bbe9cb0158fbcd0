package models

import "errors"

// OrderStatus is a state in the order lifecycle.
type OrderStatus string

const (
	StatusCreated          OrderStatus = "created"
	StatusPendingPayment   OrderStatus = "pending_payment"
	StatusPaid             OrderStatus = "paid"
	StatusPaidPendingStock OrderStatus = "paid_pending_stock"
	StatusDelivered        OrderStatus = "delivered"
	StatusPaymentFailed    OrderStatus = "payment_failed"
	StatusCancelled        OrderStatus = "cancelled"
	StatusRefunded         OrderStatus = "refunded"
)

// ErrInvalidTransition is returned when a patch would move an order
// backward through the lifecycle.
var ErrInvalidTransition = errors.New("invalid order status transition")

var orderTransitions = map[OrderStatus][]OrderStatus{
	StatusCreated:          {StatusPendingPayment, StatusPaid, StatusPaymentFailed, StatusCancelled},
	StatusPendingPayment:   {StatusPaid, StatusPaymentFailed, StatusCancelled},
	StatusPaid:             {StatusDelivered, StatusPaidPendingStock, StatusRefunded, StatusCancelled},
	StatusPaidPendingStock: {StatusDelivered, StatusRefunded, StatusCancelled},
	StatusDelivered:        {StatusRefunded},
}

// CanTransition reports whether moving from s to next is allowed.
// Terminal states (payment_failed, cancelled, refunded) have no exits.
// Repeating the current status is rejected too, so a status patch
// doubles as a compare-and-swap under concurrent writers.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Settled reports whether payment for the order has already been
// honored; webhook retries for settled orders are acknowledged
// without reprocessing.
func (s OrderStatus) Settled() bool {
	switch s {
	case StatusPaid, StatusPaidPendingStock, StatusDelivered:
		return true
	}
	return false
}

// Terminal reports whether the order can change no further.
func (s OrderStatus) Terminal() bool {
	switch s {
	case StatusPaymentFailed, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// Order is one purchase. ID is unique and immutable once created.
// Created/updated/delivered stamps are RFC 3339 strings.
type Order struct {
	ID             string      `json:"id"`
	UserID         string      `json:"userId"`
	ProductID      string      `json:"productId"`
	Status         OrderStatus `json:"status"`
	Amount         float64     `json:"amount"`
	AmountOriginal float64     `json:"amountOriginal,omitempty"`
	Discount       float64     `json:"discount,omitempty"`
	CouponCode     string      `json:"couponCode,omitempty"`
	PaymentID      string      `json:"paymentId,omitempty"`
	PixCode        string      `json:"pix_code,omitempty"`
	PaymentURL     string      `json:"payment_url,omitempty"`
	CreatedAt      string      `json:"createdAt"`
	UpdatedAt      string      `json:"updatedAt,omitempty"`
	DeliveredAt    string      `json:"deliveredAt,omitempty"`
}

// OrderPatch is a partial update merged into an existing order.
// Nil fields are left untouched.
type OrderPatch struct {
	Status      *OrderStatus
	PaymentID   *string
	PixCode     *string
	PaymentURL  *string
	DeliveredAt *string
}
