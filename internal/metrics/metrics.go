package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/polkiloo/cardshop/internal/domain/model"
	"github.com/polkiloo/cardshop/internal/usecase"
)

const namespace = "cardshop"

// Collector exposes engine counters to prometheus.
type Collector struct {
	ordersCreated    *prometheus.CounterVec
	cardsClaimed     *prometheus.CounterVec
	outOfStock       *prometheus.CounterVec
	ordersExpired    *prometheus.CounterVec
	suspensions      prometheus.Counter
	paymentEvents    *prometheus.CounterVec
	deliveryFailures prometheus.Counter
	reconcileRepairs *prometheus.CounterVec
}

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// New registers engine counters in reg.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		ordersCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Pending orders opened per product.",
		}, []string{"product"}),
		cardsClaimed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cards_claimed_total",
			Help:      "Cards bound to orders per product.",
		}, []string{"product"}),
		outOfStock: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "out_of_stock_total",
			Help:      "Claims or purchases refused for lack of unused cards.",
		}, []string{"product"}),
		ordersExpired: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_expired_total",
			Help:      "Orders moved to expired, by reason.",
		}, []string{"reason"}),
		suspensions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "account_suspensions_total",
			Help:      "Accounts suspended for unpaid order velocity.",
		}),
		paymentEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_events_total",
			Help:      "Payment notifications handled, by outcome.",
		}, []string{"outcome"}),
		deliveryFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_failures_total",
			Help:      "Card deliveries the channel refused.",
		}),
		reconcileRepairs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_repairs_total",
			Help:      "Records repaired by reconciliation, by kind.",
		}, []string{"kind"}),
	}
}

func (c *Collector) OrderCreated(productID string) {
	c.ordersCreated.WithLabelValues(productID).Inc()
}

func (c *Collector) CardClaimed(productID string) {
	c.cardsClaimed.WithLabelValues(productID).Inc()
}

func (c *Collector) OutOfStock(productID string) {
	c.outOfStock.WithLabelValues(productID).Inc()
}

func (c *Collector) OrderExpired(reason string) {
	c.ordersExpired.WithLabelValues(reason).Inc()
}

func (c *Collector) AccountSuspended() {
	c.suspensions.Inc()
}

func (c *Collector) PaymentEvent(outcome model.Outcome) {
	c.paymentEvents.WithLabelValues(string(outcome)).Inc()
}

func (c *Collector) DeliveryFailed() {
	c.deliveryFailures.Inc()
}

// ReconcileRepair adds n repairs of kind. Zero counts still create the series.
func (c *Collector) ReconcileRepair(kind string, n int) {
	c.reconcileRepairs.WithLabelValues(kind).Add(float64(n))
}

// Handler serves the registry in the prometheus text format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

var _ usecase.Metrics = (*Collector)(nil)
