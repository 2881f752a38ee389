package usecase

import (
	"context"

	"github.com/polkiloo/cardshop/internal/domain/model"
)

// PaymentGateway opens checkout sessions at the payment provider.
type PaymentGateway interface {
	CreateSession(ctx context.Context, req model.CheckoutRequest) (*model.CheckoutSession, error)
}

// Deliverer hands card codes and account notices to buyers.
type Deliverer interface {
	Deliver(ctx context.Context, req model.DeliveryRequest) error
	NotifySuspension(ctx context.Context, notice model.SuspensionNotice) error
}

// Metrics records engine events.
type Metrics interface {
	OrderCreated(productID string)
	CardClaimed(productID string)
	OutOfStock(productID string)
	OrderExpired(reason string)
	AccountSuspended()
	PaymentEvent(outcome model.Outcome)
	DeliveryFailed()
	ReconcileRepair(kind string, n int)
}

// NopMetrics discards all events.
type NopMetrics struct{}

func (NopMetrics) OrderCreated(string)         {}
func (NopMetrics) CardClaimed(string)          {}
func (NopMetrics) OutOfStock(string)           {}
func (NopMetrics) OrderExpired(string)         {}
func (NopMetrics) AccountSuspended()           {}
func (NopMetrics) PaymentEvent(model.Outcome)  {}
func (NopMetrics) DeliveryFailed()             {}
func (NopMetrics) ReconcileRepair(string, int) {}

// Expiration reasons reported to Metrics.
const (
	ExpiredByTimeout    = "timeout"
	ExpiredBySuspension = "suspension"
)
