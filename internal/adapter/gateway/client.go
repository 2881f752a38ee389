package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/polkiloo/cardshop/internal/domain/model"
)

// ErrEmptySession indicates the gateway answered without a session reference or URL.
var ErrEmptySession = errors.New("gateway returned empty session")

// TooManyRequestsError represents rate limiting signal from the payment gateway.
type TooManyRequestsError struct {
	RetryAfter time.Duration
}

func (e TooManyRequestsError) Error() string {
	return fmt.Sprintf("too many requests, retry after %s", e.RetryAfter)
}

// HTTPClient opens hosted checkout sessions through the gateway REST API.
type HTTPClient struct {
	baseURL    *url.URL
	secretKey  string
	currency   string
	publicURL  string
	httpClient *http.Client
	logger     *slog.Logger
}

// response mirrors the JSON payload of a created session.
type response struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// NewHTTPClient creates a gateway client with default timeout.
func NewHTTPClient(baseURL, secretKey, currency, publicURL string, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse gateway url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("gateway url must be absolute")
	}
	return &HTTPClient{
		baseURL:   parsed,
		secretKey: secretKey,
		currency:  strings.ToLower(currency),
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    logger,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// CreateSession registers a single-item payment session for the order.
func (c *HTTPClient) CreateSession(ctx context.Context, in model.CheckoutRequest) (*model.CheckoutSession, error) {
	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, "/v1/checkout/sessions")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), strings.NewReader(c.form(in).Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Idempotency-Key", in.OrderID)
	if c.secretKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.secretKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		var data response
		if err := json.Unmarshal(body, &data); err != nil {
			return nil, err
		}
		if data.ID == "" || data.URL == "" {
			return nil, ErrEmptySession
		}
		return &model.CheckoutSession{Ref: data.ID, URL: data.URL}, nil
	case http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, TooManyRequestsError{RetryAfter: retryAfter}
	default:
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error("checkout session request failed",
			slog.String("order_id", in.OrderID),
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(body)),
		)
		return nil, fmt.Errorf("gateway error: %s", resp.Status)
	}
}

func (c *HTTPClient) form(in model.CheckoutRequest) url.Values {
	v := url.Values{}
	v.Set("mode", "payment")
	v.Set("payment_method_types[0]", "card")
	v.Set("line_items[0][quantity]", "1")
	v.Set("line_items[0][price_data][currency]", c.currency)
	v.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(in.Amount, 10))
	v.Set("line_items[0][price_data][product_data][name]", in.ProductName)
	v.Set("metadata["+model.MetadataAccountID+"]", in.AccountID)
	v.Set("metadata["+model.MetadataOrderID+"]", in.OrderID)
	v.Set("success_url", c.publicURL+"/success?session_id={CHECKOUT_SESSION_ID}")
	v.Set("cancel_url", c.publicURL+"/cancel")
	return v
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 5 * time.Second
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}
	return 5 * time.Second
}
