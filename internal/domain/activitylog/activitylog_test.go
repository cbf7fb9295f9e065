package activitylog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ec-storefront/internal/infrastructure/httpclient"
	"github.com/example/ec-storefront/internal/testutil/backend"
	"github.com/example/ec-storefront/internal/validation"
)

func TestService_ListFiltersByLevel(t *testing.T) {
	b := backend.New(t)
	_, token := b.SeedAdmin()
	b.SeedLog("info", "boot")
	b.SeedLog("error", "payment gateway timeout")
	b.SeedLog("error", "smtp refused")

	entries, page, err := NewService(b.Client(token)).List(context.Background(), Params{Level: "error", Limit: 1})

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "smtp refused", entries[0].Message)
	assert.Equal(t, 2, page.Total)
}

func TestService_ListRequiresAdmin(t *testing.T) {
	b := backend.New(t)
	_, token := b.SeedCustomer("c@example.com")

	_, _, err := NewService(b.Client(token)).List(context.Background(), Params{})

	assert.Equal(t, 403, httpclient.StatusCode(err))
}

func TestService_ListValidatesLevel(t *testing.T) {
	b := backend.New(t)

	_, _, err := NewService(b.Client("")).List(context.Background(), Params{Level: "fatal"})

	assert.ErrorIs(t, err, validation.ErrInvalid)
	assert.Empty(t, b.Calls())
}
