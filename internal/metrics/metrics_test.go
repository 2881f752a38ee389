package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/fx"

	"github.com/polkiloo/cardshop/internal/domain/model"
	"github.com/polkiloo/cardshop/internal/usecase"
)

func TestCollectorCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.OrderCreated("p1")
	c.OrderCreated("p1")
	c.CardClaimed("p1")
	c.OutOfStock("p2")
	c.OrderExpired(usecase.ExpiredByTimeout)
	c.AccountSuspended()
	c.PaymentEvent(model.OutcomeDuplicate)
	c.DeliveryFailed()
	c.ReconcileRepair(usecase.RepairResetOrphans, 3)
	c.ReconcileRepair(usecase.RepairRepointed, 0)

	if got := testutil.ToFloat64(c.ordersCreated.WithLabelValues("p1")); got != 2 {
		t.Fatalf("expected 2 created orders, got %v", got)
	}
	if got := testutil.ToFloat64(c.outOfStock.WithLabelValues("p2")); got != 1 {
		t.Fatalf("expected 1 out of stock, got %v", got)
	}
	if got := testutil.ToFloat64(c.paymentEvents.WithLabelValues("duplicate")); got != 1 {
		t.Fatalf("expected 1 duplicate event, got %v", got)
	}
	if got := testutil.ToFloat64(c.reconcileRepairs.WithLabelValues("reset_orphans")); got != 3 {
		t.Fatalf("expected 3 repairs, got %v", got)
	}
	if got := testutil.ToFloat64(c.suspensions); got != 1 {
		t.Fatalf("expected 1 suspension, got %v", got)
	}
	if n := testutil.CollectAndCount(c.reconcileRepairs); n != 2 {
		t.Fatalf("expected two repair series, got %d", n)
	}
}

func TestHandlerServesRegistry(t *testing.T) {
	reg := NewRegistry()
	c := New(reg)
	c.CardClaimed("p1")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `cardshop_cards_claimed_total{product="p1"} 1`) {
		t.Fatalf("engine counter missing from output:\n%s", body)
	}
	if !strings.Contains(body, "go_goroutines") {
		t.Fatal("runtime collector missing from output")
	}
}

func TestModuleProvidesMetrics(t *testing.T) {
	var (
		m   usecase.Metrics
		reg *prometheus.Registry
	)
	app := fx.New(
		Module,
		fx.Populate(&m, &reg),
		fx.NopLogger,
	)
	if err := app.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := m.(*Collector); !ok {
		t.Fatalf("expected collector, got %T", m)
	}
	if reg == nil {
		t.Fatal("registry not provided")
	}
}
