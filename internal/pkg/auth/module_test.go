package auth

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/polkiloo/cardshop/internal/clock"
	"github.com/polkiloo/cardshop/internal/config"
)

func TestNewTokenHasher(t *testing.T) {
	hasher := newTokenHasher()
	bcryptHasher, ok := hasher.(*BcryptHasher)
	if !ok {
		t.Fatalf("expected *BcryptHasher, got %T", hasher)
	}
	if bcryptHasher.cost != bcrypt.DefaultCost {
		t.Fatalf("unexpected cost: %d", bcryptHasher.cost)
	}
}

func TestNewOperatorAuthenticator(t *testing.T) {
	a := newOperatorAuthenticator(operatorParams{Config: &config.Config{AdminTokenHash: "$2a$hash"}, Hasher: NewBcryptHasher(0)})
	if !a.Enabled() || a.hash != "$2a$hash" {
		t.Fatalf("unexpected authenticator: %+v", a)
	}
}

func TestNewVerifier(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	clk := clock.NewManual(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))

	v := newVerifier(verifierParams{Config: &config.Config{WebhookSecret: "whsec", WebhookTolerance: time.Minute}, Clock: clk, Logger: logger})
	sv, ok := v.(*SignatureVerifier)
	if !ok {
		t.Fatalf("expected *SignatureVerifier, got %T", v)
	}
	if string(sv.secret) != "whsec" || sv.tolerance != time.Minute || !sv.now().Equal(clk.Now()) {
		t.Fatalf("unexpected verifier: %+v", sv)
	}

	if _, ok := newVerifier(verifierParams{Config: &config.Config{}, Clock: clk, Logger: logger}).(InsecureVerifier); !ok {
		t.Fatal("expected insecure verifier outside production without secret")
	}
	if _, ok := newVerifier(verifierParams{Config: &config.Config{Environment: "production"}, Clock: clk, Logger: logger}).(*SignatureVerifier); !ok {
		t.Fatal("production must always verify signatures")
	}
}
