package app

import (
	"context"

	"github.com/polkiloo/cardshop/internal/config"
	"github.com/polkiloo/cardshop/internal/domain/model"
	"github.com/polkiloo/cardshop/internal/pkg/auth"
	"github.com/polkiloo/cardshop/internal/usecase"
)

// accountOrdersLimit bounds the order history returned to buyers.
const accountOrdersLimit = 5

// ShopFacade exposes engine operations to the HTTP layer, the workers and the CLI.
type ShopFacade struct {
	purchases  *usecase.PurchaseUseCase
	orders     *usecase.OrderStateMachine
	payments   *usecase.PaymentProcessor
	monitor    *usecase.AbuseMonitor
	reclaimer  *usecase.Reclaimer
	reconciler *usecase.Reconciler
	stats      *usecase.InventoryStats
	verifier   auth.Verifier
	operators  *auth.OperatorAuthenticator
	batchSize  int
}

func NewShopFacade(
	purchases *usecase.PurchaseUseCase,
	orders *usecase.OrderStateMachine,
	payments *usecase.PaymentProcessor,
	monitor *usecase.AbuseMonitor,
	reclaimer *usecase.Reclaimer,
	reconciler *usecase.Reconciler,
	stats *usecase.InventoryStats,
	verifier auth.Verifier,
	operators *auth.OperatorAuthenticator,
	cfg *config.Config,
) *ShopFacade {
	return &ShopFacade{
		purchases:  purchases,
		orders:     orders,
		payments:   payments,
		monitor:    monitor,
		reclaimer:  reclaimer,
		reconciler: reconciler,
		stats:      stats,
		verifier:   verifier,
		operators:  operators,
		batchSize:  cfg.CleanupBatchSize,
	}
}

func (f *ShopFacade) Purchase(ctx context.Context, accountID, productID string) (*model.Order, string, error) {
	res, err := f.purchases.Purchase(ctx, accountID, productID)
	if err != nil {
		return nil, "", err
	}
	return res.Order, res.PaymentURL, nil
}

func (f *ShopFacade) AccountOrders(ctx context.Context, accountID string) ([]model.Order, error) {
	return f.orders.ListByAccount(ctx, accountID, accountOrdersLimit)
}

func (f *ShopFacade) VerifyWebhook(payload []byte, header string) error {
	return f.verifier.Verify(payload, header)
}

func (f *ShopFacade) HandlePayment(ctx context.Context, event model.PaymentEvent) (model.Outcome, error) {
	res, err := f.payments.HandleEvent(ctx, event)
	return res.Outcome, err
}

func (f *ShopFacade) AuthenticateOperator(token string) error {
	return f.operators.Authenticate(token)
}

func (f *ShopFacade) Reconcile(ctx context.Context) (model.ReconcileReport, error) {
	return f.reconciler.Run(ctx)
}

// Cleanup runs one reclamation pass synchronously.
func (f *ShopFacade) Cleanup(ctx context.Context) (int, error) {
	return f.reclaimer.ExpireStale(ctx, f.batchSize)
}

func (f *ShopFacade) Fulfill(ctx context.Context, orderID string) (model.Outcome, error) {
	res, err := f.payments.Fulfill(ctx, orderID)
	return res.Outcome, err
}

func (f *ShopFacade) Unban(ctx context.Context, accountID string) (bool, error) {
	return f.monitor.Unban(ctx, accountID)
}

func (f *ShopFacade) Stats(ctx context.Context) (model.Stats, error) {
	return f.stats.Snapshot(ctx)
}

func (f *ShopFacade) StaleOrders(ctx context.Context, limit int) ([]model.Order, error) {
	return f.reclaimer.StaleOrders(ctx, limit)
}

func (f *ShopFacade) ExpireOrder(ctx context.Context, order model.Order) (bool, error) {
	return f.reclaimer.Expire(ctx, order)
}
