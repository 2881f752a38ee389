package auth

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/cardshop/internal/clock"
	"github.com/polkiloo/cardshop/internal/config"
)

// Module provides webhook and operator authentication via fx.
var Module = fx.Options(
	fx.Provide(newTokenHasher),
	fx.Provide(newOperatorAuthenticator),
	fx.Provide(newVerifier),
)

func newTokenHasher() TokenHasher {
	return NewBcryptHasher(0)
}

type operatorParams struct {
	fx.In

	Config *config.Config
	Hasher TokenHasher
}

func newOperatorAuthenticator(p operatorParams) *OperatorAuthenticator {
	return NewOperatorAuthenticator(p.Config.AdminTokenHash, p.Hasher)
}

type verifierParams struct {
	fx.In

	Config *config.Config
	Clock  clock.Clock
	Logger *slog.Logger
}

func newVerifier(p verifierParams) Verifier {
	if p.Config.WebhookSecret == "" && !p.Config.Production() {
		p.Logger.Warn("webhook signature verification disabled")
		return InsecureVerifier{}
	}
	return NewSignatureVerifier(p.Config.WebhookSecret, Options{Tolerance: p.Config.WebhookTolerance, Now: p.Clock.Now})
}
