package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Checkout outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
)

// Relay results.
const (
	RelayProcessed = "processed"
	RelayRetried   = "retried"
	RelayDead      = "dead"
)

// Metrics records storefront client activity.
type Metrics struct {
	requestDuration *prometheus.HistogramVec
	checkouts       *prometheus.CounterVec
	stockDeferred   prometheus.Counter
	relayResults    *prometheus.CounterVec
}

// New registers the storefront metrics on the provided registerer.
// A nil registerer yields a Metrics whose methods are no-ops.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_api_request_duration_seconds",
		Help:    "Duration of backend API requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_checkouts_total",
		Help: "Checkout attempts by outcome.",
	}, []string{"outcome"})
	stockDeferred := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storefront_stock_adjustments_deferred_total",
		Help: "Stock decrements that failed inline and were handed to the outbox.",
	})
	relayResults := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_relay_entries_total",
		Help: "Outbox entries handled by the relay by result.",
	}, []string{"result"})
	reg.MustRegister(requestDuration, checkouts, stockDeferred, relayResults)
	return &Metrics{
		requestDuration: requestDuration,
		checkouts:       checkouts,
		stockDeferred:   stockDeferred,
		relayResults:    relayResults,
	}
}

// ObserveRequest records one backend round trip. status 0 means a transport failure.
func (m *Metrics) ObserveRequest(method string, status int, duration time.Duration) {
	if m == nil || m.requestDuration == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.requestDuration.WithLabelValues(method, label).Observe(duration.Seconds())
}

// IncCheckout counts a checkout attempt with the given outcome.
func (m *Metrics) IncCheckout(outcome string) {
	if m == nil || m.checkouts == nil {
		return
	}
	m.checkouts.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncStockDeferred counts a stock decrement handed to the outbox.
func (m *Metrics) IncStockDeferred() {
	if m == nil || m.stockDeferred == nil {
		return
	}
	m.stockDeferred.Inc()
}

// IncRelay counts an outbox entry handled by the relay.
func (m *Metrics) IncRelay(result string) {
	if m == nil || m.relayResults == nil {
		return
	}
	m.relayResults.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
