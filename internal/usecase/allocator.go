package usecase

import (
	"context"
	"errors"

	"github.com/polkiloo/cardshop/internal/clock"
	domainErrors "github.com/polkiloo/cardshop/internal/domain/errors"
	"github.com/polkiloo/cardshop/internal/domain/model"
	"github.com/polkiloo/cardshop/internal/domain/repository"
)

// CardAllocator claims and releases cards. Both operations are single conditional writes.
type CardAllocator struct {
	cards   repository.CardRepository
	clock   clock.Clock
	metrics Metrics
}

// NewCardAllocator constructs CardAllocator.
func NewCardAllocator(cards repository.CardRepository, clk clock.Clock, metrics Metrics) *CardAllocator {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &CardAllocator{cards: cards, clock: clk, metrics: metrics}
}

// Claim binds one unused card of the product to the order.
func (a *CardAllocator) Claim(ctx context.Context, productID, orderID string) (*model.Card, error) {
	card, err := a.cards.Claim(ctx, productID, orderID, a.clock.Now())
	if err != nil {
		if errors.Is(err, domainErrors.ErrOutOfStock) {
			a.metrics.OutOfStock(productID)
		}
		return nil, err
	}
	a.metrics.CardClaimed(productID)
	return card, nil
}

// Release returns a card bound to orderID to the pool. A nil orderID matches orphaned cards.
// Releasing a card that is not bound that way is a no-op.
func (a *CardAllocator) Release(ctx context.Context, cardID string, orderID *string) (bool, error) {
	return a.cards.Release(ctx, cardID, orderID)
}

// Stock returns the number of unused cards of the product.
func (a *CardAllocator) Stock(ctx context.Context, productID string) (int64, error) {
	return a.cards.CountUnused(ctx, productID)
}

// BoundTo returns the cards bound to an order, earliest first.
func (a *CardAllocator) BoundTo(ctx context.Context, orderID string) ([]model.Card, error) {
	return a.cards.ListByOrder(ctx, orderID)
}

// Card returns a card by id.
func (a *CardAllocator) Card(ctx context.Context, id string) (*model.Card, error) {
	return a.cards.GetByID(ctx, id)
}
