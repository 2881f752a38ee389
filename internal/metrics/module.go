package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/polkiloo/cardshop/internal/usecase"
)

// Module provides the prometheus registry and the engine collector.
var Module = fx.Options(
	fx.Provide(
		NewRegistry,
		func(reg *prometheus.Registry) prometheus.Registerer { return reg },
		fx.Annotate(New, fx.As(new(usecase.Metrics))),
	),
)
