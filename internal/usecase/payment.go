package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/polkiloo/cardshop/internal/clock"
	domainErrors "github.com/polkiloo/cardshop/internal/domain/errors"
	"github.com/polkiloo/cardshop/internal/domain/model"
	"github.com/polkiloo/cardshop/internal/domain/repository"
)

// maxSettleAttempts bounds re-checks after a lost conditional write.
const maxSettleAttempts = 3

// PaymentResult describes how a payment event or fulfilment request ended.
type PaymentResult struct {
	Outcome model.Outcome
	Order   *model.Order
	Card    *model.Card
}

// PaymentProcessor turns payment confirmations into exactly one delivered card per order.
// It is safe to run concurrently for the same order.
type PaymentProcessor struct {
	orders    *OrderStateMachine
	allocator *CardAllocator
	products  repository.ProductRepository
	deliverer Deliverer
	clock     clock.Clock
	metrics   Metrics
	logger    *slog.Logger
}

// NewPaymentProcessor constructs PaymentProcessor.
func NewPaymentProcessor(
	orders *OrderStateMachine,
	allocator *CardAllocator,
	products repository.ProductRepository,
	deliverer Deliverer,
	clk clock.Clock,
	metrics Metrics,
	logger *slog.Logger,
) *PaymentProcessor {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &PaymentProcessor{
		orders:    orders,
		allocator: allocator,
		products:  products,
		deliverer: deliverer,
		clock:     clk,
		metrics:   metrics,
		logger:    logger,
	}
}

// HandleEvent processes one payment notification. Duplicate, late and unknown
// notifications are acknowledged without error. ErrOutOfStock is returned with
// the order left paid.
func (p *PaymentProcessor) HandleEvent(ctx context.Context, event model.PaymentEvent) (PaymentResult, error) {
	if event.Type != model.EventCheckoutCompleted {
		p.logger.Debug("payment event ignored", slog.String("type", event.Type))
		p.metrics.PaymentEvent(model.OutcomeIgnored)
		return PaymentResult{Outcome: model.OutcomeIgnored}, nil
	}

	order, err := p.resolve(ctx, event)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			p.logger.Warn("payment event for unknown order",
				slog.String("session", event.SessionRef),
				slog.String("order", event.OrderID()))
			p.metrics.PaymentEvent(model.OutcomeNotFound)
			return PaymentResult{Outcome: model.OutcomeNotFound}, nil
		}
		return PaymentResult{}, err
	}

	result, err := p.settle(ctx, order)
	if result.Outcome != "" {
		p.metrics.PaymentEvent(result.Outcome)
	}
	return result, err
}

// Fulfill completes or resends delivery for an order an operator points at.
// Delivered orders get their card resent; paid orders are finished.
func (p *PaymentProcessor) Fulfill(ctx context.Context, orderID string) (PaymentResult, error) {
	order, err := p.orders.Get(ctx, orderID)
	if err != nil {
		return PaymentResult{}, err
	}

	for attempt := 0; attempt < maxSettleAttempts; attempt++ {
		switch order.Status {
		case model.OrderStatusDelivered:
			return p.resend(ctx, order)
		case model.OrderStatusPaid:
		default:
			return PaymentResult{Order: order}, fmt.Errorf("%w: order is %s", domainErrors.ErrConflictingState, order.Status)
		}

		bound, err := p.allocator.BoundTo(ctx, order.ID)
		if err != nil {
			return PaymentResult{Order: order}, err
		}
		if len(bound) == 0 {
			return p.allocateAndDeliver(ctx, order)
		}

		card := bound[0]
		delivered, err := p.orders.Transition(ctx, order.ID, model.OrderStatusPaid, model.OrderStatusDelivered,
			model.TransitionFields{CardID: &card.ID})
		if err == nil {
			return p.deliver(ctx, delivered, &card, model.OutcomeDelivered), nil
		}
		if !errors.Is(err, domainErrors.ErrConflictingState) {
			return PaymentResult{Order: order}, err
		}
		if order, err = p.orders.Get(ctx, orderID); err != nil {
			return PaymentResult{}, err
		}
	}
	return PaymentResult{Order: order}, domainErrors.ErrConflictingState
}

func (p *PaymentProcessor) resolve(ctx context.Context, event model.PaymentEvent) (*model.Order, error) {
	if event.SessionRef == "" && event.OrderID() == "" {
		return nil, domainErrors.ErrInvalidPaymentEvent
	}
	if event.SessionRef != "" {
		order, err := p.orders.GetBySessionRef(ctx, event.SessionRef)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, domainErrors.ErrNotFound) || event.OrderID() == "" {
			return nil, err
		}
	}
	return p.orders.Get(ctx, event.OrderID())
}

func (p *PaymentProcessor) settle(ctx context.Context, order *model.Order) (PaymentResult, error) {
	for attempt := 0; attempt < maxSettleAttempts; attempt++ {
		switch order.Status {
		case model.OrderStatusPaid, model.OrderStatusDelivered:
			p.logger.Info("duplicate payment notification", slog.String("order", order.ID), slog.String("status", string(order.Status)))
			return PaymentResult{Outcome: model.OutcomeDuplicate, Order: order}, nil
		case model.OrderStatusExpired:
			p.logger.Warn("payment received for expired order, refund required",
				slog.String("order", order.ID),
				slog.String("account", order.AccountID))
			return PaymentResult{Outcome: model.OutcomeLatePayment, Order: order}, nil
		}

		bound, err := p.allocator.BoundTo(ctx, order.ID)
		if err != nil {
			return PaymentResult{Order: order}, err
		}
		if len(bound) > 0 {
			return p.repair(ctx, order, bound[0])
		}

		paid, err := p.orders.Transition(ctx, order.ID, model.OrderStatusPending, model.OrderStatusPaid, model.TransitionFields{})
		if err == nil {
			return p.allocateAndDeliver(ctx, paid)
		}
		if !errors.Is(err, domainErrors.ErrConflictingState) {
			return PaymentResult{Order: order}, err
		}
		if order, err = p.orders.Get(ctx, order.ID); err != nil {
			return PaymentResult{}, err
		}
	}
	return PaymentResult{Outcome: model.OutcomeDuplicate, Order: order}, nil
}

// repair finishes a pending order that already holds a card without delivering it again.
func (p *PaymentProcessor) repair(ctx context.Context, order *model.Order, card model.Card) (PaymentResult, error) {
	paid, err := p.orders.Transition(ctx, order.ID, model.OrderStatusPending, model.OrderStatusPaid, model.TransitionFields{})
	if err != nil {
		if errors.Is(err, domainErrors.ErrConflictingState) {
			return p.reloadAsDuplicate(ctx, order.ID)
		}
		return PaymentResult{Order: order}, err
	}

	delivered, err := p.orders.Transition(ctx, paid.ID, model.OrderStatusPaid, model.OrderStatusDelivered,
		model.TransitionFields{CardID: &card.ID})
	if err != nil {
		if errors.Is(err, domainErrors.ErrConflictingState) {
			return p.reloadAsDuplicate(ctx, order.ID)
		}
		return PaymentResult{Order: paid}, err
	}

	p.logger.Warn("order repaired with previously bound card, resend may be required",
		slog.String("order", delivered.ID),
		slog.String("card", card.ID))
	return PaymentResult{Outcome: model.OutcomeRepaired, Order: delivered, Card: &card}, nil
}

func (p *PaymentProcessor) allocateAndDeliver(ctx context.Context, order *model.Order) (PaymentResult, error) {
	card, err := p.allocator.Claim(ctx, order.ProductID, order.ID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrOutOfStock) {
			p.logger.Error("out of stock for paid order",
				slog.String("order", order.ID),
				slog.String("product", order.ProductID))
			return PaymentResult{Outcome: model.OutcomeOutOfStock, Order: order}, err
		}
		return PaymentResult{Order: order}, err
	}

	delivered, err := p.orders.Transition(ctx, order.ID, model.OrderStatusPaid, model.OrderStatusDelivered,
		model.TransitionFields{CardID: &card.ID})
	if err != nil {
		if !errors.Is(err, domainErrors.ErrConflictingState) {
			// Outcome of the write is unknown; the card stays bound to the paid order.
			return PaymentResult{Order: order, Card: card}, err
		}
		current, getErr := p.orders.Get(ctx, order.ID)
		if getErr != nil {
			return PaymentResult{Order: order, Card: card}, getErr
		}
		// A concurrent fulfilment may have delivered this very card.
		if current.CardID != nil && *current.CardID == card.ID {
			return PaymentResult{Outcome: model.OutcomeDuplicate, Order: current}, nil
		}
		if _, relErr := p.allocator.Release(ctx, card.ID, &order.ID); relErr != nil {
			p.logger.Error("release card after lost transition failed",
				slog.String("order", order.ID),
				slog.String("card", card.ID),
				slog.String("error", relErr.Error()))
		}
		return PaymentResult{Outcome: model.OutcomeDuplicate, Order: current}, nil
	}

	return p.deliver(ctx, delivered, card, model.OutcomeDelivered), nil
}

func (p *PaymentProcessor) resend(ctx context.Context, order *model.Order) (PaymentResult, error) {
	if order.CardID == nil {
		return PaymentResult{Order: order}, fmt.Errorf("%w: delivered order has no card", domainErrors.ErrConflictingState)
	}
	card, err := p.allocator.Card(ctx, *order.CardID)
	if err != nil {
		return PaymentResult{Order: order}, err
	}
	return p.deliver(ctx, order, card, model.OutcomeResent), nil
}

func (p *PaymentProcessor) deliver(ctx context.Context, order *model.Order, card *model.Card, outcome model.Outcome) PaymentResult {
	req := model.DeliveryRequest{
		AccountID: order.AccountID,
		OrderID:   order.ID,
		CardCode:  card.Code,
	}
	if product, err := p.products.GetByID(ctx, order.ProductID); err == nil {
		req.ProductName = product.Name
	}

	if err := p.deliverer.Deliver(ctx, req); err != nil {
		p.metrics.DeliveryFailed()
		p.logger.Error("card delivery failed",
			slog.String("order", order.ID),
			slog.String("account", order.AccountID),
			slog.String("error", err.Error()))
		return PaymentResult{Outcome: model.OutcomeDeliveryFailed, Order: order, Card: card}
	}

	p.logger.Info("card delivered", slog.String("order", order.ID), slog.String("account", order.AccountID))
	return PaymentResult{Outcome: outcome, Order: order, Card: card}
}

func (p *PaymentProcessor) reloadAsDuplicate(ctx context.Context, orderID string) (PaymentResult, error) {
	order, err := p.orders.Get(ctx, orderID)
	if err != nil {
		return PaymentResult{}, err
	}
	return PaymentResult{Outcome: model.OutcomeDuplicate, Order: order}, nil
}
