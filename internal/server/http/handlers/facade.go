package handlers

import (
	"context"

	"github.com/polkiloo/cardshop/internal/domain/model"
)

// PurchaseFacade describes buyer-facing operations.
type PurchaseFacade interface {
	Purchase(ctx context.Context, accountID, productID string) (*model.Order, string, error)
	AccountOrders(ctx context.Context, accountID string) ([]model.Order, error)
}

// PaymentFacade accepts gateway notifications.
type PaymentFacade interface {
	VerifyWebhook(payload []byte, header string) error
	HandlePayment(ctx context.Context, event model.PaymentEvent) (model.Outcome, error)
}

// AdminFacade provides operator maintenance operations.
type AdminFacade interface {
	AuthenticateOperator(token string) error
	Reconcile(ctx context.Context) (model.ReconcileReport, error)
	Cleanup(ctx context.Context) (int, error)
	Fulfill(ctx context.Context, orderID string) (model.Outcome, error)
	Unban(ctx context.Context, accountID string) (bool, error)
	Stats(ctx context.Context) (model.Stats, error)
}

// ShopFacade aggregates the full set of operations used across handlers.
type ShopFacade interface {
	PurchaseFacade
	PaymentFacade
	AdminFacade
}
