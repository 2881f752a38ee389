package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/polkiloo/cardshop/internal/domain/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

var checkout = model.CheckoutRequest{OrderID: "order-1", AccountID: "acc-7", ProductName: "Gift card", Amount: 1999}

func TestNewHTTPClientValidatesURL(t *testing.T) {
	if _, err := NewHTTPClient("://bad-url", "", "cny", "", testLogger()); err == nil {
		t.Fatal("expected error for invalid url")
	}
	if _, err := NewHTTPClient("/relative", "", "cny", "", testLogger()); err == nil {
		t.Fatal("expected error for relative url")
	}
}

func TestCreateSessionSendsCheckoutForm(t *testing.T) {
	var (
		gotPath string
		gotAuth string
		gotKey  string
		form    url.Values
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("Idempotency-Key")
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		form = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"cs_123","url":"https://pay.example/cs_123"}`)
	}))
	defer srv.Close()

	client, err := NewHTTPClient(srv.URL, "sk_test", "CNY", "https://shop.example/", testLogger())
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	session, err := client.CreateSession(context.Background(), checkout)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.Ref != "cs_123" || session.URL != "https://pay.example/cs_123" {
		t.Fatalf("unexpected session: %+v", session)
	}
	if gotPath != "/v1/checkout/sessions" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer sk_test" || gotKey != "order-1" {
		t.Fatalf("unexpected headers: auth=%q key=%q", gotAuth, gotKey)
	}

	want := map[string]string{
		"mode":                                          "payment",
		"line_items[0][quantity]":                       "1",
		"line_items[0][price_data][currency]":           "cny",
		"line_items[0][price_data][unit_amount]":        "1999",
		"line_items[0][price_data][product_data][name]": "Gift card",
		"metadata[userId]":                              "acc-7",
		"metadata[orderId]":                             "order-1",
		"success_url":                                   "https://shop.example/success?session_id={CHECKOUT_SESSION_ID}",
		"cancel_url":                                    "https://shop.example/cancel",
	}
	for key, value := range want {
		if got := form.Get(key); got != value {
			t.Fatalf("form field %s: expected %q, got %q", key, value, got)
		}
	}
}

func TestCreateSessionHandlesErrorStatuses(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		header     http.Header
		body       string
		check      func(t *testing.T, err error)
	}{
		{
			name:       "too many requests",
			statusCode: http.StatusTooManyRequests,
			header:     http.Header{"Retry-After": []string{"7"}},
			check: func(t *testing.T, err error) {
				var tm TooManyRequestsError
				if !errors.As(err, &tm) || tm.RetryAfter != 7*time.Second {
					t.Fatalf("expected TooManyRequestsError, got %v", err)
				}
			},
		},
		{
			name:       "server error",
			statusCode: http.StatusBadGateway,
			body:       "upstream down",
			check: func(t *testing.T, err error) {
				if err == nil || !strings.Contains(err.Error(), "502") {
					t.Fatalf("expected gateway error, got %v", err)
				}
			},
		},
		{
			name:       "empty session",
			statusCode: http.StatusOK,
			body:       `{"id":""}`,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrEmptySession) {
					t.Fatalf("expected ErrEmptySession, got %v", err)
				}
			},
		},
		{
			name:       "malformed body",
			statusCode: http.StatusOK,
			body:       `{`,
			check: func(t *testing.T, err error) {
				if err == nil {
					t.Fatal("expected decode error")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				for key, values := range tt.header {
					for _, v := range values {
						w.Header().Add(key, v)
					}
				}
				w.WriteHeader(tt.statusCode)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			client, err := NewHTTPClient(srv.URL, "", "cny", "http://localhost", testLogger())
			if err != nil {
				t.Fatalf("failed to create client: %v", err)
			}
			_, err = client.CreateSession(context.Background(), checkout)
			tt.check(t, err)
		})
	}
}

func TestCreateSessionTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	client, err := NewHTTPClient(base, "", "cny", "", testLogger())
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	if _, err := client.CreateSession(context.Background(), checkout); err == nil {
		t.Fatal("expected transport error")
	}
}

func TestParseRetryAfter(t *testing.T) {
	if got := parseRetryAfter(""); got != 5*time.Second {
		t.Fatalf("expected default, got %v", got)
	}
	if got := parseRetryAfter("3"); got != 3*time.Second {
		t.Fatalf("expected 3s, got %v", got)
	}
	if got := parseRetryAfter("soon"); got != 5*time.Second {
		t.Fatalf("expected default for garbage, got %v", got)
	}
	future := time.Now().Add(time.Minute).UTC().Format(http.TimeFormat)
	if got := parseRetryAfter(future); got <= 0 || got > time.Minute {
		t.Fatalf("unexpected duration for http date: %v", got)
	}
}
