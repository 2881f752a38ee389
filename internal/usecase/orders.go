package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/polkiloo/cardshop/internal/clock"
	domainErrors "github.com/polkiloo/cardshop/internal/domain/errors"
	"github.com/polkiloo/cardshop/internal/domain/model"
	"github.com/polkiloo/cardshop/internal/domain/repository"
)

// OrderStateMachine owns order creation and status transitions.
// It never talks to the gateway or the allocator.
type OrderStateMachine struct {
	orders repository.OrderRepository
	clock  clock.Clock
}

// NewOrderStateMachine constructs OrderStateMachine.
func NewOrderStateMachine(orders repository.OrderRepository, clk clock.Clock) *OrderStateMachine {
	return &OrderStateMachine{orders: orders, clock: clk}
}

// CreatePending persists a new pending order bound to a payment session.
func (m *OrderStateMachine) CreatePending(ctx context.Context, in model.NewOrder) (*model.Order, error) {
	if strings.TrimSpace(in.ID) == "" ||
		strings.TrimSpace(in.AccountID) == "" ||
		strings.TrimSpace(in.ProductID) == "" ||
		strings.TrimSpace(in.SessionRef) == "" ||
		in.Amount <= 0 {
		return nil, domainErrors.ErrInvalidOrder
	}
	return m.orders.Create(ctx, in, m.clock.Now())
}

// Transition moves an order from one status to another with a conditional write.
func (m *OrderStateMachine) Transition(ctx context.Context, id string, from, to model.OrderStatus, fields model.TransitionFields) (*model.Order, error) {
	if !from.CanTransition(to) {
		return nil, fmt.Errorf("%w: %s -> %s", domainErrors.ErrConflictingState, from, to)
	}

	// The card reference is set on delivery and nowhere else.
	if to == model.OrderStatusDelivered && fields.CardID == nil {
		return nil, fmt.Errorf("%w: delivery requires a card", domainErrors.ErrInvalidOrder)
	}
	if to != model.OrderStatusDelivered {
		fields.CardID = nil
	}

	now := m.clock.Now()
	if fields.At.IsZero() {
		fields.At = now
	}
	if to == model.OrderStatusPaid && fields.PaidAt == nil {
		fields.PaidAt = &fields.At
	}
	if to == model.OrderStatusExpired && fields.ExpiredAt == nil {
		fields.ExpiredAt = &fields.At
	}

	return m.orders.Transition(ctx, id, from, to, fields)
}

// Get returns an order by id.
func (m *OrderStateMachine) Get(ctx context.Context, id string) (*model.Order, error) {
	return m.orders.GetByID(ctx, id)
}

// GetBySessionRef returns the order opened for a payment session.
func (m *OrderStateMachine) GetBySessionRef(ctx context.Context, ref string) (*model.Order, error) {
	return m.orders.GetBySessionRef(ctx, ref)
}

// ListByAccount returns the latest orders of an account.
func (m *OrderStateMachine) ListByAccount(ctx context.Context, accountID string, limit int) ([]model.Order, error) {
	return m.orders.ListByAccount(ctx, accountID, limit)
}

// ListPendingSince returns pending orders of an account created at or after since.
func (m *OrderStateMachine) ListPendingSince(ctx context.Context, accountID string, since time.Time) ([]model.Order, error) {
	return m.orders.ListPendingSince(ctx, accountID, since)
}

// ListStalePending returns pending orders created before the cutoff, oldest first.
func (m *OrderStateMachine) ListStalePending(ctx context.Context, before time.Time, limit int) ([]model.Order, error) {
	return m.orders.ListStalePending(ctx, before, limit)
}
