package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/polkiloo/cardshop/internal/clock"
	domainErrors "github.com/polkiloo/cardshop/internal/domain/errors"
	"github.com/polkiloo/cardshop/internal/domain/model"
)

// DefaultPendingTimeout is how long an order may stay unpaid.
const DefaultPendingTimeout = 30 * time.Minute

// Reclaimer expires pending orders that outlived the payment timeout and
// returns any card they still hold to the pool.
type Reclaimer struct {
	orders    *OrderStateMachine
	allocator *CardAllocator
	timeout   time.Duration
	clock     clock.Clock
	metrics   Metrics
	logger    *slog.Logger
}

// NewReclaimer constructs Reclaimer.
func NewReclaimer(
	orders *OrderStateMachine,
	allocator *CardAllocator,
	timeout time.Duration,
	clk clock.Clock,
	metrics Metrics,
	logger *slog.Logger,
) *Reclaimer {
	if timeout <= 0 {
		timeout = DefaultPendingTimeout
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &Reclaimer{
		orders:    orders,
		allocator: allocator,
		timeout:   timeout,
		clock:     clk,
		metrics:   metrics,
		logger:    logger,
	}
}

// StaleOrders lists pending orders created before now minus the timeout.
func (r *Reclaimer) StaleOrders(ctx context.Context, limit int) ([]model.Order, error) {
	return r.orders.ListStalePending(ctx, r.clock.Now().Add(-r.timeout), limit)
}

// Expire moves one stale order to expired. It reports false when the order
// was paid or expired in the meantime.
func (r *Reclaimer) Expire(ctx context.Context, order model.Order) (bool, error) {
	_, err := r.orders.Transition(ctx, order.ID, model.OrderStatusPending, model.OrderStatusExpired, model.TransitionFields{})
	if err != nil {
		if errors.Is(err, domainErrors.ErrConflictingState) || errors.Is(err, domainErrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	r.metrics.OrderExpired(ExpiredByTimeout)
	r.logger.Info("pending order expired", slog.String("order", order.ID), slog.String("account", order.AccountID))

	// A pending order only holds a card after a crash between claim and transition.
	bound, err := r.allocator.BoundTo(ctx, order.ID)
	if err != nil {
		r.logger.Warn("list cards of expired order failed", slog.String("order", order.ID), slog.String("error", err.Error()))
		return true, nil
	}
	orderID := order.ID
	for _, c := range bound {
		if _, err := r.allocator.Release(ctx, c.ID, &orderID); err != nil {
			r.logger.Warn("release card of expired order failed",
				slog.String("order", order.ID),
				slog.String("card", c.ID),
				slog.String("error", err.Error()))
		}
	}
	return true, nil
}

// ExpireStale runs one sequential reclamation batch and returns how many orders were expired.
func (r *Reclaimer) ExpireStale(ctx context.Context, limit int) (int, error) {
	stale, err := r.StaleOrders(ctx, limit)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, o := range stale {
		if err := ctx.Err(); err != nil {
			return expired, err
		}
		ok, err := r.Expire(ctx, o)
		if err != nil {
			r.logger.Error("expire stale order failed", slog.String("order", o.ID), slog.String("error", err.Error()))
			continue
		}
		if ok {
			expired++
		}
	}
	return expired, nil
}
