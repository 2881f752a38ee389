package test

import (
	"context"
	"sync"

	"github.com/polkiloo/cardshop/internal/domain/model"
)

// GatewayStub opens checkout sessions without a payment provider.
type GatewayStub struct {
	CreateFn func(context.Context, model.CheckoutRequest) (*model.CheckoutSession, error)

	mu       sync.Mutex
	Requests []model.CheckoutRequest
}

// CreateSession records the request and returns a session keyed by the order id.
func (s *GatewayStub) CreateSession(ctx context.Context, req model.CheckoutRequest) (*model.CheckoutSession, error) {
	s.mu.Lock()
	s.Requests = append(s.Requests, req)
	s.mu.Unlock()
	if s.CreateFn != nil {
		return s.CreateFn(ctx, req)
	}
	return &model.CheckoutSession{Ref: "sess-" + req.OrderID, URL: "https://pay.test/" + req.OrderID}, nil
}

// DelivererStub records deliveries and notices.
type DelivererStub struct {
	Err       error
	NoticeErr error

	mu         sync.Mutex
	deliveries []model.DeliveryRequest
	notices    []model.SuspensionNotice
}

// Deliver records the request and returns Err.
func (s *DelivererStub) Deliver(ctx context.Context, req model.DeliveryRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliveries = append(s.deliveries, req)
	return s.Err
}

// NotifySuspension records the notice and returns NoticeErr.
func (s *DelivererStub) NotifySuspension(ctx context.Context, notice model.SuspensionNotice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, notice)
	return s.NoticeErr
}

// Deliveries returns recorded delivery requests.
func (s *DelivererStub) Deliveries() []model.DeliveryRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.DeliveryRequest(nil), s.deliveries...)
}

// Notices returns recorded suspension notices.
func (s *DelivererStub) Notices() []model.SuspensionNotice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.SuspensionNotice(nil), s.notices...)
}

// MetricsRecorder counts metric events by name.
type MetricsRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (m *MetricsRecorder) add(name string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = make(map[string]int)
	}
	m.counts[name] += n
}

// Count returns how many times the named event was recorded.
func (m *MetricsRecorder) Count(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[name]
}

func (m *MetricsRecorder) OrderCreated(string)             { m.add("order_created", 1) }
func (m *MetricsRecorder) CardClaimed(string)              { m.add("card_claimed", 1) }
func (m *MetricsRecorder) OutOfStock(string)               { m.add("out_of_stock", 1) }
func (m *MetricsRecorder) OrderExpired(r string)           { m.add("expired_"+r, 1) }
func (m *MetricsRecorder) AccountSuspended()               { m.add("suspended", 1) }
func (m *MetricsRecorder) DeliveryFailed()                 { m.add("delivery_failed", 1) }
func (m *MetricsRecorder) ReconcileRepair(k string, n int) { m.add("repair_"+k, n) }

// PaymentEvent records the outcome as "payment_<outcome>".
func (m *MetricsRecorder) PaymentEvent(o model.Outcome) { m.add("payment_"+string(o), 1) }
