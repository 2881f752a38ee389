package dto

import "time"

// PurchaseRequest describes a buyer's purchase payload.
type PurchaseRequest struct {
	AccountID string `json:"account_id" binding:"required"`
	ProductID string `json:"product_id" binding:"required"`
}

// PurchaseResponse carries the pending order and where to pay for it.
type PurchaseResponse struct {
	OrderID    string `json:"order_id"`
	PaymentURL string `json:"payment_url"`
	Amount     int64  `json:"amount"`
}

// OrderResponse describes an order history entry.
type OrderResponse struct {
	OrderID   string     `json:"order_id"`
	ProductID string     `json:"product_id"`
	Status    string     `json:"status"`
	Amount    int64      `json:"amount"`
	CreatedAt time.Time  `json:"created_at"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
}

// ErrorResponse is the body of every user-facing failure.
type ErrorResponse struct {
	Error string `json:"error"`
}
