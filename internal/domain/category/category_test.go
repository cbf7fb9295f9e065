package category

import (
	"context"
	"testing"

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

// Categories come back as a bare array, not inside {"data": ...}.
func TestService_ListUnwrappedBody(t *testing.T) {
	svc, b := newTestService(t)
	b.SeedCategory("Lighting")
	b.SeedCategory("Seating")

	categories, err := svc.List(context.Background())

	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Lighting", categories[0].Name)
}

func TestService_Get(t *testing.T) {
	svc, b := newTestService(t)
	id := b.SeedCategory("Lighting")

	c, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Lighting", c.Name)

	_, err = svc.Get(context.Background(), 404)
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestService_CRUD(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, Input{Name: "Garden"})
	require.NoError(t, err)

	c, err = svc.Update(ctx, c.ID, Input{Name: "Garden", Description: "Outdoor"})
	require.NoError(t, err)
	assert.Equal(t, "Outdoor", c.Description)

	require.NoError(t, svc.Delete(ctx, c.ID))
	assert.ErrorIs(t, svc.Delete(ctx, c.ID), ErrCategoryNotFound)
}

func TestService_CreateRequiresName(t *testing.T) {
	svc, b := newTestService(t)

	_, err := svc.Create(context.Background(), Input{})

	assert.ErrorIs(t, err, validation.ErrInvalid)
	assert.Empty(t, b.Calls())
}
