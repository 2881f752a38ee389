package router

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/polkiloo/cardshop/internal/config"
	"github.com/polkiloo/cardshop/internal/metrics"
	"github.com/polkiloo/cardshop/internal/server/http/handlers"
	"github.com/polkiloo/cardshop/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.ShopFacade, cfg *config.Config, reg *prometheus.Registry, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))
	engine.SetHTMLTemplate(handlers.Pages)

	purchaseHandler := handlers.NewPurchaseHandler(facade, logger)
	webhookHandler := handlers.NewWebhookHandler(facade, logger)
	adminHandler := handlers.NewAdminHandler(facade, logger)
	pageHandler := handlers.NewPageHandler(facade, logger)

	engine.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	engine.GET("/metrics", gin.WrapH(metrics.Handler(reg)))
	engine.GET("/success", pageHandler.Success)
	engine.GET("/cancel", pageHandler.Cancel)
	if cfg.GatewayMode == config.GatewayModeSandbox {
		engine.GET("/test-payment", pageHandler.TestPayment)
		engine.POST("/test-payment/complete", pageHandler.CompleteTestPayment)
	}

	api := engine.Group("/api")
	api.POST("/purchases", purchaseHandler.Create)
	api.GET("/accounts/:account/orders", purchaseHandler.AccountOrders)
	api.POST("/webhooks/payments", webhookHandler.Receive)

	admin := api.Group("/admin")
	admin.Use(middleware.OperatorRequired(facade))
	admin.POST("/reconcile", adminHandler.Reconcile)
	admin.POST("/cleanup", adminHandler.Cleanup)
	admin.POST("/orders/:id/fulfill", adminHandler.Fulfill)
	admin.DELETE("/suspensions/:account", adminHandler.Unban)
	admin.GET("/stats", adminHandler.Stats)

	return engine
}
