package delivery

import (
	"context"
	"log/slog"

	"github.com/polkiloo/cardshop/internal/domain/model"
)

// LogDeliverer writes deliveries to the application log. Used in development.
type LogDeliverer struct {
	logger *slog.Logger
}

func NewLogDeliverer(logger *slog.Logger) *LogDeliverer {
	return &LogDeliverer{logger: logger}
}

func (d *LogDeliverer) Deliver(_ context.Context, req model.DeliveryRequest) error {
	d.logger.Info("card delivered",
		slog.String("account_id", req.AccountID),
		slog.String("order_id", req.OrderID),
		slog.String("product", req.ProductName),
		slog.String("card_code", req.CardCode),
	)
	return nil
}

func (d *LogDeliverer) NotifySuspension(_ context.Context, n model.SuspensionNotice) error {
	d.logger.Warn("account suspension notice",
		slog.String("account_id", n.AccountID),
		slog.String("reason", n.Reason),
		slog.String("suspended_until", n.SuspendedUntil),
	)
	return nil
}

func (d *LogDeliverer) Close() error { return nil }
