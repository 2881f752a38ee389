package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/polkiloo/cardshop/internal/clock"
	"github.com/polkiloo/cardshop/internal/domain/model"
	"github.com/polkiloo/cardshop/internal/domain/repository"
	"github.com/polkiloo/cardshop/internal/test"
)

var testStart = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

const testProduct = "p1"

type engine struct {
	store     *test.MemoryStore
	clock     *clock.Manual
	deliverer *test.DelivererStub
	gateway   *test.GatewayStub
	metrics   *test.MetricsRecorder
	logger    *slog.Logger

	orders     *OrderStateMachine
	allocator  *CardAllocator
	payments   *PaymentProcessor
	monitor    *AbuseMonitor
	reclaimer  *Reclaimer
	reconciler *Reconciler
	purchases  *PurchaseUseCase
	stats      *InventoryStats
}

func newEngine(t *testing.T) *engine {
	t.Helper()

	e := &engine{
		store:     test.NewMemoryStore(),
		clock:     clock.NewManual(testStart),
		deliverer: &test.DelivererStub{},
		gateway:   &test.GatewayStub{},
		metrics:   &test.MetricsRecorder{},
		logger:    slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	e.store.AddProduct(model.Product{ID: testProduct, Name: "Gift card", Price: 1000, Active: true})
	e.wire(e.store.Orders())
	return e
}

// wire builds the use cases on top of orders so tests can wrap the repository.
func (e *engine) wire(orders repository.OrderRepository) {
	e.orders = NewOrderStateMachine(orders, e.clock)
	e.allocator = NewCardAllocator(e.store.Cards(), e.clock, e.metrics)
	e.payments = NewPaymentProcessor(e.orders, e.allocator, e.store.Products(), e.deliverer, e.clock, e.metrics, e.logger)
	e.monitor = NewAbuseMonitor(e.orders, e.store.Suspensions(), e.deliverer, DefaultAbusePolicy, e.clock, e.metrics, e.logger)
	e.reclaimer = NewReclaimer(e.orders, e.allocator, DefaultPendingTimeout, e.clock, e.metrics, e.logger)
	e.reconciler = NewReconciler(orders, e.store.Cards(), e.clock, e.metrics, e.logger)
	e.purchases = NewPurchaseUseCase(e.orders, e.allocator, e.monitor, e.store.Products(), e.gateway, e.metrics, e.logger)
	e.stats = NewInventoryStats(orders, e.store.Cards())
}

func (e *engine) addCards(productID string, n int) {
	for i := 0; i < n; i++ {
		e.store.AddCard(model.Card{
			ID:        fmt.Sprintf("card-%d", i+1),
			ProductID: productID,
			Code:      fmt.Sprintf("CODE-%d", i+1),
			CreatedAt: testStart.Add(time.Duration(i) * time.Second),
		})
	}
}

func (e *engine) pending(t *testing.T, id, account string) *model.Order {
	t.Helper()
	order, err := e.orders.CreatePending(context.Background(), model.NewOrder{
		ID:         id,
		AccountID:  account,
		ProductID:  testProduct,
		Amount:     1000,
		SessionRef: "sess-" + id,
	})
	if err != nil {
		t.Fatalf("create pending order: %v", err)
	}
	return order
}

func (e *engine) order(t *testing.T, id string) model.Order {
	t.Helper()
	o, ok := e.store.Order(id)
	if !ok {
		t.Fatalf("order %s not found", id)
	}
	return o
}

func completed(sessionRef, orderID string) model.PaymentEvent {
	return model.PaymentEvent{
		ID:         "evt-" + orderID,
		Type:       model.EventCheckoutCompleted,
		SessionRef: sessionRef,
		Metadata:   map[string]string{model.MetadataOrderID: orderID, model.MetadataAccountID: "acc"},
	}
}

func strPtr(s string) *string { return &s }
