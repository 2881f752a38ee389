package errors

import "errors"

var (
	ErrAlreadyExists       = errors.New("already exists")
	ErrNotFound            = errors.New("not found")
	ErrInvalidOrder        = errors.New("invalid order")
	ErrOutOfStock          = errors.New("out of stock")
	ErrConflictingState    = errors.New("conflicting order state")
	ErrSuspendedAccount    = errors.New("account temporarily restricted")
	ErrProductUnavailable  = errors.New("product unavailable")
	ErrPaymentUnavailable  = errors.New("payment gateway unavailable")
	ErrDeliveryFailed      = errors.New("delivery failed")
	ErrInvalidPaymentEvent = errors.New("invalid payment event")
)
