package usecase

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/cardshop/internal/clock"
	"github.com/polkiloo/cardshop/internal/config"
	"github.com/polkiloo/cardshop/internal/domain/repository"
)

// Module provides the fulfillment engine to the fx container.
var Module = fx.Provide(
	NewOrderStateMachine,
	NewCardAllocator,
	NewPaymentProcessor,
	newAbuseMonitor,
	newReclaimer,
	NewReconciler,
	NewPurchaseUseCase,
	NewInventoryStats,
)

type monitorParams struct {
	fx.In

	Orders      *OrderStateMachine
	Suspensions repository.SuspensionRepository
	Deliverer   Deliverer
	Config      *config.Config
	Clock       clock.Clock
	Metrics     Metrics
	Logger      *slog.Logger
}

func newAbuseMonitor(p monitorParams) *AbuseMonitor {
	policy := AbusePolicy{
		Window:    p.Config.SuspensionWindow,
		Threshold: p.Config.SuspensionThreshold,
		Duration:  p.Config.SuspensionDuration,
	}
	return NewAbuseMonitor(p.Orders, p.Suspensions, p.Deliverer, policy, p.Clock, p.Metrics, p.Logger)
}

type reclaimerParams struct {
	fx.In

	Orders    *OrderStateMachine
	Allocator *CardAllocator
	Config    *config.Config
	Clock     clock.Clock
	Metrics   Metrics
	Logger    *slog.Logger
}

func newReclaimer(p reclaimerParams) *Reclaimer {
	return NewReclaimer(p.Orders, p.Allocator, p.Config.PendingOrderTimeout, p.Clock, p.Metrics, p.Logger)
}
