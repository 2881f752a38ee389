package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/fx"

	"github.com/polkiloo/cardshop/internal/app"
	"github.com/polkiloo/cardshop/internal/config"
	"github.com/polkiloo/cardshop/internal/di"
	"github.com/polkiloo/cardshop/internal/domain/model"
	"github.com/polkiloo/cardshop/internal/logger"
)

// operatorFacade is the subset of the shop facade the CLI drives.
type operatorFacade interface {
	Reconcile(ctx context.Context) (model.ReconcileReport, error)
	Cleanup(ctx context.Context) (int, error)
	Fulfill(ctx context.Context, orderID string) (model.Outcome, error)
	Unban(ctx context.Context, accountID string) (bool, error)
	Stats(ctx context.Context) (model.Stats, error)
}

// facadeOpener builds a facade from cfg. The returned func releases its resources.
type facadeOpener func(ctx context.Context, cfg *config.Config) (operatorFacade, func(), error)

// openFacade starts the engine graph without the HTTP server or background workers.
// Logs go to stderr so stdout carries only the JSON result.
func openFacade(ctx context.Context, cfg *config.Config) (operatorFacade, func(), error) {
	var facade *app.ShopFacade
	application := fx.New(
		fx.NopLogger,
		fx.Provide(func() context.Context { return ctx }),
		di.Module(
			fx.Replace(cfg),
			fx.Replace(logger.NewWithWriter(os.Stderr, cfg.LogLevel)),
		),
		fx.Populate(&facade),
	)
	if err := application.Start(ctx); err != nil {
		return nil, nil, fmt.Errorf("start engine: %w", err)
	}
	return facade, func() { _ = application.Stop(context.Background()) }, nil
}
