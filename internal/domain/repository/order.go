package repository

import (
	"context"
	"time"

	"github.com/polkiloo/cardshop/internal/domain/model"
)

// OrderRepository describes persistence operations with orders.
// Every mutating method is a conditional write against the stored status.
type OrderRepository interface {
	Create(ctx context.Context, order model.NewOrder, at time.Time) (*model.Order, error)
	GetByID(ctx context.Context, id string) (*model.Order, error)
	GetBySessionRef(ctx context.Context, ref string) (*model.Order, error)
	ListByAccount(ctx context.Context, accountID string, limit int) ([]model.Order, error)
	ListPendingSince(ctx context.Context, accountID string, since time.Time) ([]model.Order, error)
	ListStalePending(ctx context.Context, before time.Time, limit int) ([]model.Order, error)
	// Transition applies from -> to only if the order is currently in from.
	// It returns ErrConflictingState when the stored status differs and ErrNotFound when no order exists.
	Transition(ctx context.Context, id string, from, to model.OrderStatus, fields model.TransitionFields) (*model.Order, error)
	// ClearExpiredCards drops card references held by expired orders and returns how many were cleared.
	ClearExpiredCards(ctx context.Context, at time.Time) (int64, error)
	// RepointCard sets the card reference of a delivered order.
	RepointCard(ctx context.Context, id, cardID string, at time.Time) (bool, error)
	CountByStatus(ctx context.Context) (map[model.OrderStatus]int64, error)
}
