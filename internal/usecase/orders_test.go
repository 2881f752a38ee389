package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	domainErrors "github.com/polkiloo/cardshop/internal/domain/errors"
	"github.com/polkiloo/cardshop/internal/domain/model"
)

func TestCreatePendingValidation(t *testing.T) {
	e := newEngine(t)

	valid := model.NewOrder{ID: "o1", AccountID: "acc", ProductID: testProduct, Amount: 1000, SessionRef: "sess-o1"}
	cases := map[string]func(*model.NewOrder){
		"missing id":      func(o *model.NewOrder) { o.ID = "" },
		"blank account":   func(o *model.NewOrder) { o.AccountID = "  " },
		"missing product": func(o *model.NewOrder) { o.ProductID = "" },
		"missing session": func(o *model.NewOrder) { o.SessionRef = "" },
		"zero amount":     func(o *model.NewOrder) { o.Amount = 0 },
		"negative amount": func(o *model.NewOrder) { o.Amount = -5 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := valid
			mutate(&in)
			if _, err := e.orders.CreatePending(context.Background(), in); !errors.Is(err, domainErrors.ErrInvalidOrder) {
				t.Fatalf("expected invalid order, got %v", err)
			}
		})
	}

	if len(e.store.AllOrders()) != 0 {
		t.Fatal("invalid requests must not be stored")
	}
}

func TestCreatePending(t *testing.T) {
	e := newEngine(t)

	order := e.pending(t, "o1", "acc")
	if order.Status != model.OrderStatusPending || !order.CreatedAt.Equal(testStart) || order.CardID != nil {
		t.Fatalf("unexpected order: %+v", order)
	}

	_, err := e.orders.CreatePending(context.Background(), model.NewOrder{
		ID: "o1", AccountID: "acc", ProductID: testProduct, Amount: 1000, SessionRef: "sess-o1",
	})
	if !errors.Is(err, domainErrors.ErrAlreadyExists) {
		t.Fatalf("expected already exists, got %v", err)
	}
}

func TestTransitionLifecycle(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	e.pending(t, "o1", "acc")

	if _, err := e.orders.Transition(ctx, "o1", model.OrderStatusPending, model.OrderStatusDelivered,
		model.TransitionFields{CardID: strPtr("c1")}); !errors.Is(err, domainErrors.ErrConflictingState) {
		t.Fatalf("pending -> delivered must be refused, got %v", err)
	}
	if _, err := e.orders.Transition(ctx, "o1", model.OrderStatusExpired, model.OrderStatusPending,
		model.TransitionFields{}); !errors.Is(err, domainErrors.ErrConflictingState) {
		t.Fatalf("expired is terminal, got %v", err)
	}

	e.clock.Advance(time.Minute)
	paid, err := e.orders.Transition(ctx, "o1", model.OrderStatusPending, model.OrderStatusPaid,
		model.TransitionFields{CardID: strPtr("ignored")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if paid.Status != model.OrderStatusPaid || paid.PaidAt == nil || !paid.PaidAt.Equal(testStart.Add(time.Minute)) {
		t.Fatalf("unexpected paid order: %+v", paid)
	}
	if paid.CardID != nil {
		t.Fatal("card reference must only be set on delivery")
	}

	if _, err := e.orders.Transition(ctx, "o1", model.OrderStatusPaid, model.OrderStatusDelivered,
		model.TransitionFields{}); !errors.Is(err, domainErrors.ErrInvalidOrder) {
		t.Fatalf("delivery without card must be refused, got %v", err)
	}

	if _, err := e.orders.Transition(ctx, "o1", model.OrderStatusPending, model.OrderStatusExpired,
		model.TransitionFields{}); !errors.Is(err, domainErrors.ErrConflictingState) {
		t.Fatalf("stale precondition must conflict, got %v", err)
	}

	delivered, err := e.orders.Transition(ctx, "o1", model.OrderStatusPaid, model.OrderStatusDelivered,
		model.TransitionFields{CardID: strPtr("c1")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if delivered.CardID == nil || *delivered.CardID != "c1" {
		t.Fatalf("unexpected delivered order: %+v", delivered)
	}

	if _, err := e.orders.Transition(ctx, "missing", model.OrderStatusPending, model.OrderStatusPaid,
		model.TransitionFields{}); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTransitionExpireSetsTimestamp(t *testing.T) {
	e := newEngine(t)
	e.pending(t, "o1", "acc")

	at := testStart.Add(40 * time.Minute)
	expired, err := e.orders.Transition(context.Background(), "o1", model.OrderStatusPending, model.OrderStatusExpired,
		model.TransitionFields{At: at})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expired.ExpiredAt == nil || !expired.ExpiredAt.Equal(at) || !expired.UpdatedAt.Equal(at) {
		t.Fatalf("unexpected expired order: %+v", expired)
	}
}

func TestListByAccount(t *testing.T) {
	e := newEngine(t)
	for _, id := range []string{"o1", "o2", "o3"} {
		e.pending(t, id, "acc")
		e.clock.Advance(time.Minute)
	}
	e.pending(t, "other", "acc2")

	orders, err := e.orders.ListByAccount(context.Background(), "acc", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orders) != 2 || orders[0].ID != "o3" || orders[1].ID != "o2" {
		t.Fatalf("expected latest two orders, got %+v", orders)
	}
}
