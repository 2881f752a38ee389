package model

import "time"

// OrderStatus describes fulfillment lifecycle.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusExpired   OrderStatus = "expired"
)

// CanTransition reports whether the lifecycle allows moving from s to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return next == OrderStatusPaid || next == OrderStatusExpired
	case OrderStatusPaid:
		return next == OrderStatusDelivered
	default:
		return false
	}
}

// Terminal reports whether no further transition is possible.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusExpired
}

// Order describes a purchase of one card by a buyer account.
type Order struct {
	ID         string
	AccountID  string
	ProductID  string
	Amount     int64
	SessionRef string
	Status     OrderStatus
	CardID     *string
	CreatedAt  time.Time
	PaidAt     *time.Time
	ExpiredAt  *time.Time
	UpdatedAt  time.Time
}

// NewOrder carries the fields required to create a pending order.
type NewOrder struct {
	ID         string
	AccountID  string
	ProductID  string
	Amount     int64
	SessionRef string
}

// TransitionFields are written together with a status change.
type TransitionFields struct {
	CardID    *string
	PaidAt    *time.Time
	ExpiredAt *time.Time
	At        time.Time
}
