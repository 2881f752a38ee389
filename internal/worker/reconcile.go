package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/polkiloo/cardshop/internal/domain/model"
)

// ReconcileFacade runs one reconciliation pass.
type ReconcileFacade interface {
	Reconcile(ctx context.Context) (model.ReconcileReport, error)
}

// ReconcileLoop runs reconciliation on a fixed interval.
type ReconcileLoop struct {
	facade   ReconcileFacade
	interval time.Duration
	logger   *slog.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewReconcileLoop returns a loop that runs a reconciliation pass every interval.
func NewReconcileLoop(facade ReconcileFacade, interval time.Duration, logger *slog.Logger) *ReconcileLoop {
	return &ReconcileLoop{facade: facade, interval: interval, logger: logger}
}

// Start launches the loop. A non-positive interval leaves it disabled.
func (l *ReconcileLoop) Start(ctx context.Context) {
	if l.interval <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel

	l.wg.Add(1)
	go l.run(runCtx)
}

// Stop cancels the loop and waits for an in-flight pass to finish. It is safe
// to call more than once and before Start.
func (l *ReconcileLoop) Stop() {
	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.mu.Unlock()

	l.wg.Wait()
}

func (l *ReconcileLoop) run(ctx context.Context) {
	defer l.wg.Done()
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, err := l.facade.Reconcile(ctx)
			if err != nil {
				l.logger.Error("scheduled reconciliation failed", slog.String("error", err.Error()))
				continue
			}
			if report.Total() > 0 {
				l.logger.Warn("scheduled reconciliation repaired inconsistencies", slog.Int("repairs", report.Total()))
			}
		}
	}
}
