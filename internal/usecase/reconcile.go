package usecase

import (
	"context"
	"log/slog"

	"github.com/polkiloo/cardshop/internal/clock"
	"github.com/polkiloo/cardshop/internal/domain/model"
	"github.com/polkiloo/cardshop/internal/domain/repository"
)

// Repair kinds reported to Metrics.
const (
	RepairReleasedFromExpired = "released_from_expired"
	RepairClearedExpired      = "cleared_expired_orders"
	RepairResetOrphans        = "reset_orphans"
	RepairReleasedExtras      = "released_extras"
	RepairRepointed           = "repointed"
)

// Reconciler restores card and order consistency after partial failures.
// Running it twice in a row changes nothing the second time.
type Reconciler struct {
	orders  repository.OrderRepository
	cards   repository.CardRepository
	clock   clock.Clock
	metrics Metrics
	logger  *slog.Logger
}

// NewReconciler constructs Reconciler.
func NewReconciler(orders repository.OrderRepository, cards repository.CardRepository, clk clock.Clock, metrics Metrics, logger *slog.Logger) *Reconciler {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &Reconciler{orders: orders, cards: cards, clock: clk, metrics: metrics, logger: logger}
}

// Run performs one reconciliation pass.
func (r *Reconciler) Run(ctx context.Context) (model.ReconcileReport, error) {
	var report model.ReconcileReport

	bound, err := r.cards.ListBoundToExpired(ctx)
	if err != nil {
		return report, err
	}
	for _, c := range bound {
		ok, err := r.cards.Release(ctx, c.ID, c.OrderID)
		if err != nil {
			return report, err
		}
		if ok {
			report.ReleasedFromExpired++
		}
	}

	cleared, err := r.orders.ClearExpiredCards(ctx, r.clock.Now())
	if err != nil {
		return report, err
	}
	report.ClearedExpiredOrders = int(cleared)

	orphans, err := r.cards.ListOrphaned(ctx)
	if err != nil {
		return report, err
	}
	for _, c := range orphans {
		ok, err := r.cards.Release(ctx, c.ID, nil)
		if err != nil {
			return report, err
		}
		if ok {
			report.ResetOrphans++
		}
	}

	groups, err := r.cards.ListMultiplyBound(ctx)
	if err != nil {
		return report, err
	}
	for _, g := range groups {
		if err := r.collapse(ctx, g, &report); err != nil {
			return report, err
		}
	}

	r.record(report)
	return report, nil
}

// collapse keeps the earliest card of an order and releases the rest.
func (r *Reconciler) collapse(ctx context.Context, g model.MultiBound, report *model.ReconcileReport) error {
	if len(g.Cards) < 2 {
		return nil
	}
	keep := g.Cards[0]
	orderID := g.OrderID
	for _, extra := range g.Cards[1:] {
		ok, err := r.cards.Release(ctx, extra.ID, &orderID)
		if err != nil {
			return err
		}
		if ok {
			report.ReleasedExtras++
		}
	}

	if g.Status != model.OrderStatusDelivered {
		return nil
	}
	ok, err := r.orders.RepointCard(ctx, orderID, keep.ID, r.clock.Now())
	if err != nil {
		return err
	}
	if ok {
		report.Repointed++
	}
	return nil
}

func (r *Reconciler) record(report model.ReconcileReport) {
	r.metrics.ReconcileRepair(RepairReleasedFromExpired, report.ReleasedFromExpired)
	r.metrics.ReconcileRepair(RepairClearedExpired, report.ClearedExpiredOrders)
	r.metrics.ReconcileRepair(RepairResetOrphans, report.ResetOrphans)
	r.metrics.ReconcileRepair(RepairReleasedExtras, report.ReleasedExtras)
	r.metrics.ReconcileRepair(RepairRepointed, report.Repointed)

	r.logger.Info("reconciliation finished",
		slog.Int("released_from_expired", report.ReleasedFromExpired),
		slog.Int("cleared_expired_orders", report.ClearedExpiredOrders),
		slog.Int("reset_orphans", report.ResetOrphans),
		slog.Int("released_extras", report.ReleasedExtras),
		slog.Int("repointed", report.Repointed))
}
