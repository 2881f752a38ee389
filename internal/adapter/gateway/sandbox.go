package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	nanoid "github.com/jaevor/go-nanoid"

	"github.com/polkiloo/cardshop/internal/domain/model"
)

const sandboxRefPrefix = "test_session_"

// SandboxClient fabricates sessions that point at the local test payment page.
type SandboxClient struct {
	publicURL string
	newRef    func() string
	logger    *slog.Logger
}

// NewSandboxClient creates a sandbox gateway.
func NewSandboxClient(publicURL string, logger *slog.Logger) (*SandboxClient, error) {
	gen, err := nanoid.Standard(15)
	if err != nil {
		return nil, fmt.Errorf("init session id generator: %w", err)
	}
	return &SandboxClient{
		publicURL: strings.TrimRight(publicURL, "/"),
		newRef:    gen,
		logger:    logger,
	}, nil
}

// CreateSession returns a session whose payment URL is served by this service.
func (c *SandboxClient) CreateSession(_ context.Context, in model.CheckoutRequest) (*model.CheckoutSession, error) {
	ref := sandboxRefPrefix + c.newRef()
	q := url.Values{}
	q.Set("session_id", ref)
	q.Set("order_id", in.OrderID)

	c.logger.Info("sandbox checkout session created", slog.String("order_id", in.OrderID), slog.String("session_ref", ref))
	return &model.CheckoutSession{Ref: ref, URL: c.publicURL + "/test-payment?" + q.Encode()}, nil
}
