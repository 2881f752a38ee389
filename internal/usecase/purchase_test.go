package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	domainErrors "github.com/polkiloo/cardshop/internal/domain/errors"
	"github.com/polkiloo/cardshop/internal/domain/model"
)

func TestPurchase(t *testing.T) {
	e := newEngine(t)
	e.addCards(testProduct, 1)
	e.purchases.newID = func() string { return "order-1" }

	res, err := e.purchases.Purchase(context.Background(), " acc ", testProduct)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.PaymentURL != "https://pay.test/order-1" {
		t.Fatalf("unexpected payment url %q", res.PaymentURL)
	}

	order := e.order(t, "order-1")
	if order.Status != model.OrderStatusPending || order.SessionRef != "sess-order-1" ||
		order.AccountID != "acc" || order.Amount != 1000 {
		t.Fatalf("unexpected order: %+v", order)
	}

	if len(e.gateway.Requests) != 1 {
		t.Fatalf("expected one checkout session, got %d", len(e.gateway.Requests))
	}
	want := model.CheckoutRequest{OrderID: "order-1", AccountID: "acc", ProductName: "Gift card", Amount: 1000}
	if e.gateway.Requests[0] != want {
		t.Fatalf("unexpected checkout request: %+v", e.gateway.Requests[0])
	}
	if e.store.Claims != 0 {
		t.Fatal("purchase must not claim a card")
	}
	if e.metrics.Count("order_created") != 1 {
		t.Fatal("order metric not recorded")
	}
}

func TestPurchaseRefusals(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid input", func(t *testing.T) {
		e := newEngine(t)
		if _, err := e.purchases.Purchase(ctx, "", testProduct); !errors.Is(err, domainErrors.ErrInvalidOrder) {
			t.Fatalf("expected invalid order, got %v", err)
		}
		if _, err := e.purchases.Purchase(ctx, "acc", " "); !errors.Is(err, domainErrors.ErrInvalidOrder) {
			t.Fatalf("expected invalid order, got %v", err)
		}
	})

	t.Run("suspended", func(t *testing.T) {
		e := newEngine(t)
		e.addCards(testProduct, 1)
		e.store.PutSuspension(model.Suspension{AccountID: "acc", SuspendedUntil: testStart.Add(time.Hour)})
		if _, err := e.purchases.Purchase(ctx, "acc", testProduct); !errors.Is(err, domainErrors.ErrSuspendedAccount) {
			t.Fatalf("expected suspended account, got %v", err)
		}
		if len(e.gateway.Requests) != 0 {
			t.Fatal("gateway must not be called")
		}
	})

	t.Run("unknown product", func(t *testing.T) {
		e := newEngine(t)
		if _, err := e.purchases.Purchase(ctx, "acc", "nope"); !errors.Is(err, domainErrors.ErrProductUnavailable) {
			t.Fatalf("expected product unavailable, got %v", err)
		}
	})

	t.Run("inactive product", func(t *testing.T) {
		e := newEngine(t)
		e.store.AddProduct(model.Product{ID: "old", Name: "Old", Price: 10, Active: false})
		if _, err := e.purchases.Purchase(ctx, "acc", "old"); !errors.Is(err, domainErrors.ErrProductUnavailable) {
			t.Fatalf("expected product unavailable, got %v", err)
		}
	})

	t.Run("out of stock", func(t *testing.T) {
		e := newEngine(t)
		if _, err := e.purchases.Purchase(ctx, "acc", testProduct); !errors.Is(err, domainErrors.ErrOutOfStock) {
			t.Fatalf("expected out of stock, got %v", err)
		}
		if len(e.gateway.Requests) != 0 || len(e.store.AllOrders()) != 0 {
			t.Fatal("nothing must be created")
		}
	})

	t.Run("gateway failure", func(t *testing.T) {
		e := newEngine(t)
		e.addCards(testProduct, 1)
		e.gateway.CreateFn = func(context.Context, model.CheckoutRequest) (*model.CheckoutSession, error) {
			return nil, errors.New("timeout")
		}
		if _, err := e.purchases.Purchase(ctx, "acc", testProduct); !errors.Is(err, domainErrors.ErrPaymentUnavailable) {
			t.Fatalf("expected payment unavailable, got %v", err)
		}
		if len(e.store.AllOrders()) != 0 {
			t.Fatal("no order must be persisted without a session")
		}
	})

	t.Run("store failure", func(t *testing.T) {
		e := newEngine(t)
		e.addCards(testProduct, 1)
		e.store.SetErr("Create", errors.New("db down"))
		if _, err := e.purchases.Purchase(ctx, "acc", testProduct); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestInventoryStats(t *testing.T) {
	e := newEngine(t)
	e.addCards(testProduct, 3)
	ctx := context.Background()

	e.pending(t, "o1", "acc")
	e.pending(t, "o2", "acc")
	if _, err := e.payments.HandleEvent(ctx, completed("sess-o1", "o1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stats, err := e.stats.Snapshot(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.CardsTotal != 3 || stats.CardsUsed != 1 || stats.CardsAvailable() != 2 {
		t.Fatalf("unexpected card counts: %+v", stats)
	}
	if stats.Orders[model.OrderStatusDelivered] != 1 || stats.Orders[model.OrderStatusPending] != 1 {
		t.Fatalf("unexpected order counts: %+v", stats.Orders)
	}

	e.store.SetErr("Counts", errors.New("db down"))
	if _, err := e.stats.Snapshot(ctx); err == nil {
		t.Fatal("expected error")
	}
}
