package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/cardshop/internal/domain/errors"
	"github.com/polkiloo/cardshop/internal/domain/model"
	"github.com/polkiloo/cardshop/internal/domain/repository"
)

// PurchaseResult is a created order together with the URL the buyer pays at.
type PurchaseResult struct {
	Order      *model.Order
	PaymentURL string
}

// PurchaseUseCase opens pending orders for buyers.
type PurchaseUseCase struct {
	orders    *OrderStateMachine
	allocator *CardAllocator
	monitor   *AbuseMonitor
	products  repository.ProductRepository
	gateway   PaymentGateway
	metrics   Metrics
	logger    *slog.Logger
	newID     func() string
}

// NewPurchaseUseCase constructs PurchaseUseCase.
func NewPurchaseUseCase(
	orders *OrderStateMachine,
	allocator *CardAllocator,
	monitor *AbuseMonitor,
	products repository.ProductRepository,
	gateway PaymentGateway,
	metrics Metrics,
	logger *slog.Logger,
) *PurchaseUseCase {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &PurchaseUseCase{
		orders:    orders,
		allocator: allocator,
		monitor:   monitor,
		products:  products,
		gateway:   gateway,
		metrics:   metrics,
		logger:    logger,
		newID:     uuid.NewString,
	}
}

// Purchase checks the account and stock, opens a checkout session and records a
// pending order for it. Nothing is stored when the gateway refuses the session.
func (uc *PurchaseUseCase) Purchase(ctx context.Context, accountID, productID string) (*PurchaseResult, error) {
	accountID = strings.TrimSpace(accountID)
	productID = strings.TrimSpace(productID)
	if accountID == "" || productID == "" {
		return nil, domainErrors.ErrInvalidOrder
	}

	if _, suspended, err := uc.monitor.IsSuspended(ctx, accountID); err != nil {
		return nil, err
	} else if suspended {
		return nil, domainErrors.ErrSuspendedAccount
	}

	product, err := uc.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, domainErrors.ErrProductUnavailable
		}
		return nil, err
	}
	if !product.Active {
		return nil, domainErrors.ErrProductUnavailable
	}

	stock, err := uc.allocator.Stock(ctx, productID)
	if err != nil {
		return nil, err
	}
	if stock == 0 {
		uc.metrics.OutOfStock(productID)
		return nil, domainErrors.ErrOutOfStock
	}

	if suspended, err := uc.monitor.CheckVelocity(ctx, accountID); err != nil {
		return nil, err
	} else if suspended {
		return nil, domainErrors.ErrSuspendedAccount
	}

	orderID := uc.newID()
	session, err := uc.gateway.CreateSession(ctx, model.CheckoutRequest{
		OrderID:     orderID,
		AccountID:   accountID,
		ProductName: product.Name,
		Amount:      product.Price,
	})
	if err != nil {
		uc.logger.Error("checkout session failed",
			slog.String("account", accountID),
			slog.String("product", productID),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", domainErrors.ErrPaymentUnavailable, err)
	}

	order, err := uc.orders.CreatePending(ctx, model.NewOrder{
		ID:         orderID,
		AccountID:  accountID,
		ProductID:  productID,
		Amount:     product.Price,
		SessionRef: session.Ref,
	})
	if err != nil {
		return nil, err
	}
	uc.metrics.OrderCreated(productID)
	uc.logger.Info("order created",
		slog.String("order", order.ID),
		slog.String("account", accountID),
		slog.String("product", productID))

	if suspended, err := uc.monitor.CheckVelocity(ctx, accountID); err != nil {
		uc.logger.Warn("velocity check after order creation failed", slog.String("account", accountID), slog.String("error", err.Error()))
	} else if suspended {
		return nil, domainErrors.ErrSuspendedAccount
	}

	return &PurchaseResult{Order: order, PaymentURL: session.URL}, nil
}

// InventoryStats reports card and order counts to operators.
type InventoryStats struct {
	orders repository.OrderRepository
	cards  repository.CardRepository
}

// NewInventoryStats constructs InventoryStats.
func NewInventoryStats(orders repository.OrderRepository, cards repository.CardRepository) *InventoryStats {
	return &InventoryStats{orders: orders, cards: cards}
}

// Snapshot returns current counts.
func (s *InventoryStats) Snapshot(ctx context.Context) (model.Stats, error) {
	total, used, err := s.cards.Counts(ctx)
	if err != nil {
		return model.Stats{}, err
	}
	byStatus, err := s.orders.CountByStatus(ctx)
	if err != nil {
		return model.Stats{}, err
	}
	return model.Stats{CardsTotal: total, CardsUsed: used, Orders: byStatus}, nil
}
