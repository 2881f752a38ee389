package model

import "time"

// Card is a single-use code sold to fulfill exactly one order.
type Card struct {
	ID        string
	ProductID string
	Code      string
	Used      bool
	OrderID   *string
	UsedAt    *time.Time
	CreatedAt time.Time
}

// MultiBound lists the cards simultaneously bound to one order.
type MultiBound struct {
	OrderID string
	Status  OrderStatus
	Cards   []Card
}
