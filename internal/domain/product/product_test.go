package product

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ec-storefront/internal/testutil/backend"
	"github.com/example/ec-storefront/internal/validation"
)

func newTestService(t *testing.T) (*Service, *backend.Backend) {
	t.Helper()
	b := backend.New(t)
	_, token := b.SeedAdmin()
	return NewService(b.Client(token)), b
}

func TestService_List(t *testing.T) {
	svc, b := newTestService(t)
	b.SeedProduct("Desk Lamp", "25.00", 4)
	b.SeedProduct("Floor Lamp", "80.00", 1)
	b.SeedProduct("Chair", "40.00", 9)

	products, page, err := svc.List(context.Background(), ListParams{Search: "lamp", Sort: "price_desc"})

	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Floor Lamp", products[0].Name)
	require.NotNil(t, page)
	assert.Equal(t, 2, page.Total)
}

func TestService_ListPagination(t *testing.T) {
	svc, b := newTestService(t)
	for _, name := range []string{"A", "B", "C"} {
		b.SeedProduct(name, "1", 1)
	}

	products, page, err := svc.List(context.Background(), ListParams{Page: 2, Limit: 2})

	require.NoError(t, err)
	assert.Len(t, products, 1)
	assert.Equal(t, 2, page.TotalPages)
}

func TestService_ListByCategory(t *testing.T) {
	svc, b := newTestService(t)
	cat := b.SeedCategory("Lighting")
	lamp := b.SeedProduct("Lamp", "10", 1)
	b.SeedProduct("Chair", "10", 1)
	b.SetProductCategory(lamp, cat)

	products, _, err := svc.List(context.Background(), ListParams{Category: cat})

	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, lamp, products[0].ID)
}

func TestService_Get(t *testing.T) {
	svc, b := newTestService(t)
	id := b.SeedProduct("Lamp", "19.99", 3)

	p, err := svc.Get(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, "Lamp", p.Name)
	assert.True(t, decimal.RequireFromString("19.99").Equal(p.Price))
	assert.Equal(t, 3, p.Stock)
	assert.True(t, p.InStock(3))
	assert.False(t, p.InStock(4))
}

func TestService_GetNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Get(context.Background(), 999)

	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestService_CreateUpdateDelete(t *testing.T) {
	svc, b := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, Input{Name: "Mug", Price: decimal.RequireFromString("8.50"), Stock: 12, IsActive: true})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	updated, err := svc.Update(ctx, created.ID, Input{Name: "Big Mug", Price: decimal.RequireFromString("9.50"), Stock: 10, IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, "Big Mug", updated.Name)

	require.NoError(t, svc.SetStock(ctx, created.ID, 4))
	assert.Equal(t, 4, b.ProductStock(created.ID))

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestService_SetStockClampsAtZero(t *testing.T) {
	svc, b := newTestService(t)
	id := b.SeedProduct("Mug", "5", 2)

	require.NoError(t, svc.SetStock(context.Background(), id, -3))

	assert.Equal(t, 0, b.ProductStock(id))
}

func TestService_CreateValidation(t *testing.T) {
	svc, b := newTestService(t)

	_, err := svc.Create(context.Background(), Input{Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, validation.ErrInvalid)

	_, err = svc.Create(context.Background(), Input{Name: "x", Price: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, ErrInvalidPrice)

	assert.Empty(t, b.Calls())
}

func TestService_AdminEndpointsRequireAdmin(t *testing.T) {
	b := backend.New(t)
	_, token := b.SeedCustomer("c@example.com")
	svc := NewService(b.Client(token))

	_, err := svc.Create(context.Background(), Input{Name: "Mug", Price: decimal.NewFromInt(1)})

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrProductNotFound)
	assert.Contains(t, err.Error(), "403")
}
