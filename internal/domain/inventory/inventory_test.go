package inventory

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ec-storefront/internal/domain/product"
	"github.com/example/ec-storefront/internal/testutil/backend"
)

func newTestService(t *testing.T) (*Service, *product.Service, *backend.Backend) {
	t.Helper()
	b := backend.New(t)
	_, token := b.SeedAdmin()
	products := product.NewService(b.Client(token))
	return NewService(products), products, b
}

func TestRemaining(t *testing.T) {
	assert.Equal(t, 3, Remaining(5, 2))
	assert.Equal(t, 0, Remaining(2, 2))
	assert.Equal(t, 0, Remaining(1, 4))
}

func TestService_DecrementUsesSnapshot(t *testing.T) {
	svc, products, b := newTestService(t)
	id := b.SeedProduct("Lamp", "10", 10)
	snapshot, err := products.Get(context.Background(), id)
	require.NoError(t, err)
	b.SetProductStock(id, 7) // someone else bought 3 meanwhile

	left, err := svc.Decrement(context.Background(), *snapshot, 4)

	require.NoError(t, err)
	assert.Equal(t, 6, left)
	assert.Equal(t, 6, b.ProductStock(id))
}

func TestService_DecrementFailure(t *testing.T) {
	svc, products, b := newTestService(t)
	id := b.SeedProduct("Lamp", "10", 10)
	snapshot, err := products.Get(context.Background(), id)
	require.NoError(t, err)
	b.Fail(http.MethodPut, "/admin/products/"+itoa(id), http.StatusInternalServerError, 1)

	_, err = svc.Decrement(context.Background(), *snapshot, 1)

	assert.Error(t, err)
	assert.Equal(t, 10, b.ProductStock(id))
}

func TestService_ReconcileUsesCurrentStock(t *testing.T) {
	svc, _, b := newTestService(t)
	id := b.SeedProduct("Lamp", "10", 10)
	b.SetProductStock(id, 7)

	left, err := svc.Reconcile(context.Background(), id, 4)

	require.NoError(t, err)
	assert.Equal(t, 3, left)
	assert.Equal(t, 3, b.ProductStock(id))
}

func TestService_ReconcileMissingProduct(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Reconcile(context.Background(), 404, 1)

	assert.ErrorIs(t, err, product.ErrProductNotFound)
}

func TestService_RejectsNonPositiveQuantity(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Decrement(context.Background(), product.Product{ID: 1, Stock: 3}, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.Reconcile(context.Background(), 1, -1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
