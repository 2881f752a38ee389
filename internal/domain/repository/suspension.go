package repository

import (
	"context"
	"time"

	"github.com/polkiloo/cardshop/internal/domain/model"
)

// SuspensionRepository stores account suspension records.
type SuspensionRepository interface {
	Get(ctx context.Context, accountID string) (*model.Suspension, error)
	// Upsert creates the record or refreshes it, incrementing the suspension count.
	Upsert(ctx context.Context, accountID, reason string, until, at time.Time) (*model.Suspension, error)
	// DeleteExpired removes the record only if it is no longer active at now.
	DeleteExpired(ctx context.Context, accountID string, now time.Time) (bool, error)
	Delete(ctx context.Context, accountID string) (bool, error)
}
