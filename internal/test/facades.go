package test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/polkiloo/cardshop/internal/domain/model"
)

// ShopFacadeStub provides controllable behaviour for HTTP handlers.
type ShopFacadeStub struct {
	PurchaseFn      func(context.Context, string, string) (*model.Order, string, error)
	AccountOrdersFn func(context.Context, string) ([]model.Order, error)
	VerifyFn        func([]byte, string) error
	HandlePaymentFn func(context.Context, model.PaymentEvent) (model.Outcome, error)
	AuthenticateFn  func(string) error
	ReconcileFn     func(context.Context) (model.ReconcileReport, error)
	CleanupFn       func(context.Context) (int, error)
	FulfillFn       func(context.Context, string) (model.Outcome, error)
	UnbanFn         func(context.Context, string) (bool, error)
	StatsFn         func(context.Context) (model.Stats, error)

	mu     sync.Mutex
	Events []model.PaymentEvent
}

// Purchase returns a pending order with a sandbox payment URL by default.
func (s *ShopFacadeStub) Purchase(ctx context.Context, accountID, productID string) (*model.Order, string, error) {
	if s.PurchaseFn != nil {
		return s.PurchaseFn(ctx, accountID, productID)
	}
	order := &model.Order{ID: "order-1", AccountID: accountID, ProductID: productID, Amount: 1000, Status: model.OrderStatusPending}
	return order, "https://pay.test/order-1", nil
}

func (s *ShopFacadeStub) AccountOrders(ctx context.Context, accountID string) ([]model.Order, error) {
	if s.AccountOrdersFn != nil {
		return s.AccountOrdersFn(ctx, accountID)
	}
	return nil, nil
}

// VerifyWebhook accepts every payload unless overridden.
func (s *ShopFacadeStub) VerifyWebhook(payload []byte, header string) error {
	if s.VerifyFn != nil {
		return s.VerifyFn(payload, header)
	}
	return nil
}

// HandlePayment records the event and reports delivery by default.
func (s *ShopFacadeStub) HandlePayment(ctx context.Context, event model.PaymentEvent) (model.Outcome, error) {
	s.mu.Lock()
	s.Events = append(s.Events, event)
	s.mu.Unlock()
	if s.HandlePaymentFn != nil {
		return s.HandlePaymentFn(ctx, event)
	}
	return model.OutcomeDelivered, nil
}

func (s *ShopFacadeStub) AuthenticateOperator(token string) error {
	if s.AuthenticateFn != nil {
		return s.AuthenticateFn(token)
	}
	return nil
}

func (s *ShopFacadeStub) Reconcile(ctx context.Context) (model.ReconcileReport, error) {
	if s.ReconcileFn != nil {
		return s.ReconcileFn(ctx)
	}
	return model.ReconcileReport{}, nil
}

func (s *ShopFacadeStub) Cleanup(ctx context.Context) (int, error) {
	if s.CleanupFn != nil {
		return s.CleanupFn(ctx)
	}
	return 0, nil
}

func (s *ShopFacadeStub) Fulfill(ctx context.Context, orderID string) (model.Outcome, error) {
	if s.FulfillFn != nil {
		return s.FulfillFn(ctx, orderID)
	}
	return model.OutcomeResent, nil
}

func (s *ShopFacadeStub) Unban(ctx context.Context, accountID string) (bool, error) {
	if s.UnbanFn != nil {
		return s.UnbanFn(ctx, accountID)
	}
	return true, nil
}

func (s *ShopFacadeStub) Stats(ctx context.Context) (model.Stats, error) {
	if s.StatsFn != nil {
		return s.StatsFn(ctx)
	}
	return model.Stats{Orders: map[model.OrderStatus]int64{}}, nil
}

// WorkerFacadeStub mimics worker interactions with the shop facade.
type WorkerFacadeStub struct {
	Batches        [][]model.Order
	StaleFn        func(context.Context, int) ([]model.Order, error)
	ExpireFn       func(context.Context, model.Order) (bool, error)
	ReconcileFn    func(context.Context) (model.ReconcileReport, error)
	Expired        []string
	Limits         []int
	mu             sync.Mutex
	staleCallCount int32
	reconcileCalls int32
}

// Lock exposes internal mutex for external synchronization.
func (s *WorkerFacadeStub) Lock() { s.mu.Lock() }

// Unlock releases previously acquired lock.
func (s *WorkerFacadeStub) Unlock() { s.mu.Unlock() }

// StaleOrders returns batches from configured queue.
func (s *WorkerFacadeStub) StaleOrders(ctx context.Context, limit int) ([]model.Order, error) {
	s.mu.Lock()
	s.Limits = append(s.Limits, limit)
	s.mu.Unlock()
	if s.StaleFn != nil {
		return s.StaleFn(ctx, limit)
	}
	call := atomic.AddInt32(&s.staleCallCount, 1)
	if int(call) <= len(s.Batches) {
		return s.Batches[call-1], nil
	}
	time.Sleep(10 * time.Millisecond)
	return nil, nil
}

// StaleCalls reports how many times StaleOrders was invoked.
func (s *WorkerFacadeStub) StaleCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Limits)
}

// ExpireOrder records expiry requests.
func (s *WorkerFacadeStub) ExpireOrder(ctx context.Context, order model.Order) (bool, error) {
	if s.ExpireFn != nil {
		return s.ExpireFn(ctx, order)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Expired = append(s.Expired, order.ID)
	return true, nil
}

// Reconcile counts invocations.
func (s *WorkerFacadeStub) Reconcile(ctx context.Context) (model.ReconcileReport, error) {
	atomic.AddInt32(&s.reconcileCalls, 1)
	if s.ReconcileFn != nil {
		return s.ReconcileFn(ctx)
	}
	return model.ReconcileReport{}, nil
}

// ReconcileCalls reports how many reconciliation passes ran.
func (s *WorkerFacadeStub) ReconcileCalls() int {
	return int(atomic.LoadInt32(&s.reconcileCalls))
}
