package delivery

import (
	"context"
	"fmt"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/cardshop/internal/config"
	"github.com/polkiloo/cardshop/internal/usecase"
)

// Module exposes the configured deliverer to fx graph.
var Module = fx.Provide(newDeliverer)

type closingDeliverer interface {
	usecase.Deliverer
	Close() error
}

type delivererParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
}

func newDeliverer(p delivererParams) (usecase.Deliverer, error) {
	d, err := build(p.Config, p.Logger)
	if err != nil {
		return nil, err
	}
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return d.Close()
		},
	})
	return d, nil
}

func build(cfg *config.Config, logger *slog.Logger) (closingDeliverer, error) {
	switch cfg.DeliveryTransport {
	case config.DeliveryKafka:
		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	case config.DeliveryAMQP:
		return NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPQueue, logger)
	case config.DeliveryLog, "":
		return NewLogDeliverer(logger), nil
	default:
		return nil, fmt.Errorf("unknown delivery transport %q", cfg.DeliveryTransport)
	}
}
