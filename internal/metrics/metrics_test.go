package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_CountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.IncCheckout(OutcomeCompleted)
	m.IncCheckout(OutcomeCompleted)
	m.IncCheckout(OutcomeFailed)
	m.IncStockDeferred()
	m.IncRelay(RelayProcessed)
	m.IncRelay("")
	m.ObserveRequest("POST", 201, 120*time.Millisecond)
	m.ObserveRequest("GET", 0, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.checkouts.WithLabelValues(OutcomeCompleted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.checkouts.WithLabelValues(OutcomeFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stockDeferred))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.relayResults.WithLabelValues(RelayProcessed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.relayResults.WithLabelValues("unknown")))

	count, err := testutil.GatherAndCount(reg, "storefront_api_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncCheckout(OutcomeFailed)
		m.IncStockDeferred()
		m.IncRelay(RelayDead)
		m.ObserveRequest("GET", 200, time.Second)
	})

	unregistered := New(nil)
	assert.NotPanics(t, func() { unregistered.IncCheckout(OutcomeCompleted) })
}
