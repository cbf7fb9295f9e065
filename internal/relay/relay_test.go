package relay

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ec-storefront/internal/domain/inventory"
	"github.com/example/ec-storefront/internal/domain/product"
	"github.com/example/ec-storefront/internal/infrastructure/store"
	"github.com/example/ec-storefront/internal/infrastructure/store/mocks"
	"github.com/example/ec-storefront/internal/metrics"
	"github.com/example/ec-storefront/internal/testutil/backend"
)

func newTestRelay(t *testing.T, maxAttempts int) (*Relay, *mocks.MockOutbox, *backend.Backend, *prometheus.Registry) {
	t.Helper()
	b := backend.New(t)
	_, token := b.SeedAdmin()
	outbox := mocks.NewMockOutbox()
	reg := prometheus.NewRegistry()
	stock := inventory.NewService(product.NewService(b.Client(token)))
	r := New(outbox, stock, Config{Interval: time.Hour, BatchSize: 10, MaxAttempts: maxAttempts}, metrics.New(reg), nil)
	return r, outbox, b, reg
}

func queueAdjustment(t *testing.T, outbox store.OutboxStore, productID int64, qty int) *store.Entry {
	t.Helper()
	e, err := outbox.Append(context.Background(), strconv.FormatInt(productID, 10), inventory.AggregateType,
		inventory.EventStockAdjustmentRequested, inventory.StockAdjustmentRequested{
			OrderID:       1,
			OrderNumber:   "ORD-1-ABCDEF",
			ProductID:     productID,
			Quantity:      qty,
			SnapshotStock: 10,
		})
	require.NoError(t, err)
	return e
}

func relayCount(reg *prometheus.Registry, result string) float64 {
	families, _ := reg.Gather()
	for _, f := range families {
		if f.GetName() != "storefront_relay_entries_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "result" && l.GetValue() == result {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestProcessOnce_ReconcilesAgainstCurrentStock(t *testing.T) {
	r, outbox, b, reg := newTestRelay(t, 3)
	id := b.SeedProduct("Mug", "10.00", 10)
	// stock moved since the checkout snapshot
	b.SetProductStock(id, 8)
	queueAdjustment(t, outbox, id, 3)

	res, err := r.ProcessOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Result{Processed: 1}, res)
	assert.Equal(t, 5, b.ProductStock(id))
	assert.Equal(t, store.StatusProcessed, outbox.All()[0].Status)
	assert.Equal(t, 1.0, relayCount(reg, metrics.RelayProcessed))
}

func TestProcessOnce_FloorsAtZero(t *testing.T) {
	r, outbox, b, _ := newTestRelay(t, 3)
	id := b.SeedProduct("Mug", "10.00", 1)
	queueAdjustment(t, outbox, id, 4)

	_, err := r.ProcessOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, b.ProductStock(id))
}

func TestProcessOnce_RetriesThenDies(t *testing.T) {
	r, outbox, b, reg := newTestRelay(t, 2)
	id := b.SeedProduct("Mug", "10.00", 10)
	queueAdjustment(t, outbox, id, 1)
	b.Fail("PUT", "/admin/products/"+strconv.FormatInt(id, 10), 503, 2)

	res, err := r.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Retried: 1}, res)
	entry := outbox.All()[0]
	assert.Equal(t, store.StatusPending, entry.Status)
	assert.Equal(t, 1, entry.Attempts)
	assert.Contains(t, entry.LastError, "503")

	res, err = r.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Dead: 1}, res)
	assert.Equal(t, store.StatusDead, outbox.All()[0].Status)
	assert.Equal(t, 10, b.ProductStock(id))

	res, err = r.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)

	assert.Equal(t, 1.0, relayCount(reg, metrics.RelayRetried))
	assert.Equal(t, 1.0, relayCount(reg, metrics.RelayDead))
}

func TestProcessOnce_MissingProductIsDead(t *testing.T) {
	r, outbox, _, _ := newTestRelay(t, 5)
	queueAdjustment(t, outbox, 424242, 1)

	res, err := r.ProcessOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Result{Dead: 1}, res)
	assert.True(t, outbox.FailedCalls[0].Dead)
	assert.ErrorIs(t, outbox.FailedCalls[0].Cause, product.ErrProductNotFound)
}

func TestProcessOnce_UnknownEventIsDead(t *testing.T) {
	r, outbox, _, _ := newTestRelay(t, 5)
	_, err := outbox.Append(context.Background(), "x", "Mystery", "SomethingHappened", map[string]string{})
	require.NoError(t, err)

	res, err := r.ProcessOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Result{Dead: 1}, res)
	assert.ErrorIs(t, outbox.FailedCalls[0].Cause, errUnknownEvent)
}

func TestProcessOnce_UndecodablePayloadIsDead(t *testing.T) {
	r, outbox, _, _ := newTestRelay(t, 5)
	_, err := outbox.Append(context.Background(), "x", inventory.AggregateType,
		inventory.EventStockAdjustmentRequested, []int{1, 2})
	require.NoError(t, err)

	res, err := r.ProcessOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Result{Dead: 1}, res)
}

func TestProcessOnce_FetchError(t *testing.T) {
	r, outbox, _, _ := newTestRelay(t, 5)
	outbox.PendingErr = errors.New("db down")

	_, err := r.ProcessOnce(context.Background())

	assert.ErrorContains(t, err, "db down")
}

func TestProcessOnce_MarkErrorSkipsEntry(t *testing.T) {
	r, outbox, b, _ := newTestRelay(t, 5)
	queueAdjustment(t, outbox, b.SeedProduct("Mug", "10.00", 10), 1)
	outbox.MarkErr = errors.New("write failed")

	res, err := r.ProcessOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
}

func TestRun_ProcessesImmediatelyAndStops(t *testing.T) {
	r, outbox, b, _ := newTestRelay(t, 5)
	id := b.SeedProduct("Mug", "10.00", 10)
	queueAdjustment(t, outbox, id, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	err := r.Run(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 8, b.ProductStock(id))
}

func TestNew_Defaults(t *testing.T) {
	r := New(store.NewMemoryOutbox(), nil, Config{}, nil, nil)

	assert.Equal(t, 5*time.Second, r.cfg.Interval)
	assert.Equal(t, store.DefaultBatch, r.cfg.BatchSize)
	assert.Equal(t, 10, r.cfg.MaxAttempts)
}
