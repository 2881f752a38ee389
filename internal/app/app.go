package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polkiloo/cardshop/internal/config"
	"github.com/polkiloo/cardshop/internal/worker"
)

// Module wires the facade and its consumers used by both binaries.
var Module = fx.Options(
	fx.Provide(NewShopFacade),
)

// ServerModule adds the HTTP server, the background workers and their lifecycle hooks.
var ServerModule = fx.Options(
	fx.Provide(
		newHTTPServer,
		newReclaimer,
		newReconcileLoop,
	),
	fx.Invoke(registerLifecycle),
)

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

func newHTTPServer(p serverParams) *http.Server {
	return &http.Server{
		Addr:    p.Config.RunAddress,
		Handler: p.Router,
	}
}

type workerParams struct {
	fx.In

	Facade *ShopFacade
	Config *config.Config
	Logger *slog.Logger
}

func newReclaimer(p workerParams) *worker.Reclaimer {
	return worker.NewReclaimer(
		p.Facade,
		p.Config.CleanupInterval,
		p.Config.CleanupBatchSize,
		p.Config.WorkerPoolSize,
		p.Logger,
	)
}

func newReconcileLoop(p workerParams) *worker.ReconcileLoop {
	return worker.NewReconcileLoop(p.Facade, p.Config.ReconcileInterval, p.Logger)
}

type lifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *slog.Logger
	Server     *http.Server
	Reclaimer  *worker.Reclaimer
	Reconcile  *worker.ReconcileLoop
	Config     *config.Config
}

func registerLifecycle(p lifecycleParams) {
	var cancel context.CancelFunc
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			p.Logger.Info("starting cardshop",
				slog.String("addr", p.Server.Addr),
				slog.Duration("cleanup_interval", p.Config.CleanupInterval),
				slog.Duration("reconcile_interval", p.Config.ReconcileInterval),
			)
			var runCtx context.Context
			runCtx, cancel = context.WithCancel(context.Background())
			p.Reclaimer.Start(runCtx)
			p.Reconcile.Start(runCtx)
			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", slog.String("error", err.Error()))
					_ = p.Shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			p.Reclaimer.Stop()
			p.Reconcile.Stop()

			shutdownCtx := ctx
			stop := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, stop = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer stop()

			if err := p.Server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			p.Logger.Info("cardshop stopped")
			return nil
		},
	})
}
