package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/polkiloo/cardshop/internal/domain/model"
)

// ReclaimFacade exposes the subset of application functionality required by the reclaimer.
type ReclaimFacade interface {
	StaleOrders(ctx context.Context, limit int) ([]model.Order, error)
	ExpireOrder(ctx context.Context, order model.Order) (bool, error)
}

// Reclaimer periodically expires abandoned pending orders using a worker pool.
type Reclaimer struct {
	facade    ReclaimFacade
	interval  time.Duration
	batchSize int
	workers   int
	logger    *slog.Logger

	jobs   chan model.Order
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewReclaimer constructs the reclamation scheduler.
func NewReclaimer(facade ReclaimFacade, interval time.Duration, batchSize, workers int, logger *slog.Logger) *Reclaimer {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Reclaimer{
		facade:    facade,
		interval:  interval,
		batchSize: batchSize,
		workers:   workers,
		logger:    logger,
		jobs:      make(chan model.Order, batchSize),
	}
}

// Start launches background processing. The first pass runs immediately.
func (r *Reclaimer) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker(runCtx)
	}

	r.wg.Add(1)
	go r.dispatch(runCtx)
}

// Stop waits for all workers to finish.
func (r *Reclaimer) Stop() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *Reclaimer) dispatch(ctx context.Context) {
	defer r.wg.Done()
	defer close(r.jobs)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.fetchAndDispatch(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.fetchAndDispatch(ctx)
		}
	}
}

func (r *Reclaimer) fetchAndDispatch(ctx context.Context) {
	orders, err := r.facade.StaleOrders(ctx, r.batchSize)
	if err != nil {
		r.logger.Error("fetch stale orders failed", slog.String("error", err.Error()))
		return
	}
	if len(orders) > 0 {
		r.logger.Info("reclaiming stale orders", slog.Int("count", len(orders)))
	}
	for _, order := range orders {
		select {
		case <-ctx.Done():
			return
		case r.jobs <- order:
		}
	}
}

func (r *Reclaimer) worker(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case order, ok := <-r.jobs:
			if !ok {
				return
			}
			r.handleOrder(ctx, order)
		}
	}
}

func (r *Reclaimer) handleOrder(ctx context.Context, order model.Order) {
	expired, err := r.facade.ExpireOrder(ctx, order)
	if err != nil {
		r.logger.Error("expire order failed", slog.String("order_id", order.ID), slog.String("error", err.Error()))
		return
	}
	if !expired {
		r.logger.Debug("order left pending state before expiry", slog.String("order_id", order.ID))
	}
}
