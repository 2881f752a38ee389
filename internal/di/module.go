package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/cardshop/internal/adapter/delivery"
	"github.com/polkiloo/cardshop/internal/adapter/gateway"
	"github.com/polkiloo/cardshop/internal/app"
	"github.com/polkiloo/cardshop/internal/clock"
	"github.com/polkiloo/cardshop/internal/config"
	"github.com/polkiloo/cardshop/internal/logger"
	"github.com/polkiloo/cardshop/internal/metrics"
	"github.com/polkiloo/cardshop/internal/pkg/auth"
	"github.com/polkiloo/cardshop/internal/server/http/handlers"
	"github.com/polkiloo/cardshop/internal/server/http/router"
	"github.com/polkiloo/cardshop/internal/storage/postgres"
	"github.com/polkiloo/cardshop/internal/usecase"
)

// Module composes the engine graph shared by the server and the operator CLI.
// The server passes app.ServerModule in opts.
func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		clock.Module,
		metrics.Module,
		auth.Module,
		postgres.Module,
		gateway.Module,
		delivery.Module,
		usecase.Module,
		app.Module,
		fx.Provide(func(f *app.ShopFacade) handlers.ShopFacade { return f }),
		router.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
