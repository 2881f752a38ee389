package repository

import (
	"context"
	"time"

	"github.com/polkiloo/cardshop/internal/domain/model"
)

// CardRepository describes persistence operations with cards.
type CardRepository interface {
	// Claim atomically marks one unused card of the product as used by orderID.
	// It returns ErrOutOfStock when no unused card is left.
	Claim(ctx context.Context, productID, orderID string, at time.Time) (*model.Card, error)
	// Release resets a card bound to orderID (nil matches orphaned cards) back to unused.
	// The boolean reports whether a row changed.
	Release(ctx context.Context, cardID string, orderID *string) (bool, error)
	GetByID(ctx context.Context, id string) (*model.Card, error)
	ListByOrder(ctx context.Context, orderID string) ([]model.Card, error)
	CountUnused(ctx context.Context, productID string) (int64, error)
	ListOrphaned(ctx context.Context) ([]model.Card, error)
	ListBoundToExpired(ctx context.Context) ([]model.Card, error)
	ListMultiplyBound(ctx context.Context) ([]model.MultiBound, error)
	Counts(ctx context.Context) (total int64, used int64, err error)
}
