package gateway

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/cardshop/internal/config"
	"github.com/polkiloo/cardshop/internal/usecase"
)

// Module exposes the payment gateway implementation to fx graph.
var Module = fx.Provide(newGateway)

type gatewayParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newGateway(p gatewayParams) (usecase.PaymentGateway, error) {
	if p.Config.GatewayMode == config.GatewayModeSandbox {
		p.Logger.Warn("payment gateway runs in sandbox mode")
		return NewSandboxClient(p.Config.PublicURL, p.Logger)
	}
	return NewHTTPClient(p.Config.GatewayURL, p.Config.GatewaySecretKey, p.Config.Currency, p.Config.PublicURL, p.Logger)
}
