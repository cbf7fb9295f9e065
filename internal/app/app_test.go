package app

import (
	"bytes"
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ec-storefront/internal/config"
	"github.com/example/ec-storefront/internal/infrastructure/store"
	"github.com/example/ec-storefront/internal/infrastructure/tokenstore"
	"github.com/example/ec-storefront/internal/testutil/backend"
)

func newTestConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	t.Chdir(t.TempDir())
	prev := decimal.MarshalJSONWithoutQuotes
	t.Cleanup(func() { decimal.MarshalJSONWithoutQuotes = prev })
	cfg, err := config.Load(nil)
	require.NoError(t, err)
	cfg.API.BaseURL = baseURL
	cfg.Auth.TokenStore = "memory"
	cfg.Outbox.Driver = "memory"
	return cfg
}

func TestNew_MemoryWiring(t *testing.T) {
	b := backend.New(t)
	cfg := newTestConfig(t, b.URL())

	a, err := New(context.Background(), cfg, prometheus.NewRegistry(), nil)
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &tokenstore.MemoryStore{}, a.Tokens)
	assert.IsType(t, &store.MemoryOutbox{}, a.Outbox)
	assert.NotNil(t, a.Metrics)
	assert.Equal(t, b.URL(), a.Client.BaseURL())
}

func TestNew_CustomerCheckoutDefersStock(t *testing.T) {
	b := backend.New(t)
	b.SeedCustomer("ada@example.com")
	mug := b.SeedProduct("Mug", "20.00", 3)
	cfg := newTestConfig(t, b.URL())
	cfg.API.Breaker.Enabled = true

	a, err := New(context.Background(), cfg, nil, nil)
	require.NoError(t, err)
	defer a.Close()

	out := &bytes.Buffer{}
	sh := a.Shell(out)
	ctx := context.Background()
	require.NoError(t, sh.Exec(ctx, strings.Fields("login ada@example.com customer-password")))
	require.NoError(t, sh.Exec(ctx, []string{"add", idArg(mug), "2"}))
	require.NoError(t, sh.Exec(ctx, []string{"checkout"}))

	assert.Contains(t, out.String(), "placed")
	assert.Equal(t, 1, b.OrderCount())
	assert.Equal(t, 3, b.ProductStock(mug), "customers cannot write stock")

	pending, err := a.Outbox.Pending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
}

// ============================================
// Relay
// ============================================

func TestRelay_ReconcilesCustomerCheckout(t *testing.T) {
	b := backend.New(t)
	_, adminToken := b.SeedAdmin()
	b.SeedCustomer("ada@example.com")
	mug := b.SeedProduct("Mug", "20.00", 3)
	cfg := newTestConfig(t, b.URL())

	a, err := New(context.Background(), cfg, prometheus.NewRegistry(), nil)
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	sh := a.Shell(&bytes.Buffer{})
	require.NoError(t, sh.Exec(ctx, strings.Fields("login ada@example.com customer-password")))
	require.NoError(t, sh.Exec(ctx, []string{"add", idArg(mug), "2"}))
	require.NoError(t, sh.Exec(ctx, []string{"checkout"}))
	require.Equal(t, 3, b.ProductStock(mug))

	require.NoError(t, a.RelayTokens.Save(ctx, adminToken))
	require.NoError(t, a.AuthorizeRelay(ctx))
	assert.True(t, a.Session.IsCustomer(), "the shopper's session is untouched")

	res, err := a.Relay().ProcessOnce(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	assert.Zero(t, res.Retried)
	assert.Equal(t, 1, b.ProductStock(mug))
	pending, err := a.Outbox.Pending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestAuthorizeRelay(t *testing.T) {
	b := backend.New(t)
	b.SeedAdmin()
	b.SeedCustomer("ada@example.com")
	ctx := context.Background()

	t.Run("admin credentials", func(t *testing.T) {
		cfg := newTestConfig(t, b.URL())
		cfg.Relay.Email, cfg.Relay.Password = "admin@example.com", "admin-password"
		a, err := New(ctx, cfg, nil, nil)
		require.NoError(t, err)
		defer a.Close()

		require.NoError(t, a.AuthorizeRelay(ctx))
		assert.False(t, a.Session.IsAuthenticated())
		_, err = a.Tokens.Load(ctx)
		assert.ErrorIs(t, err, tokenstore.ErrNotFound)
	})

	t.Run("customer credentials", func(t *testing.T) {
		cfg := newTestConfig(t, b.URL())
		cfg.Relay.Email, cfg.Relay.Password = "ada@example.com", "customer-password"
		a, err := New(ctx, cfg, nil, nil)
		require.NoError(t, err)
		defer a.Close()

		assert.ErrorIs(t, a.AuthorizeRelay(ctx), ErrRelayNotAdmin)
	})

	t.Run("no credentials", func(t *testing.T) {
		a, err := New(ctx, newTestConfig(t, b.URL()), nil, nil)
		require.NoError(t, err)
		defer a.Close()

		assert.ErrorIs(t, a.AuthorizeRelay(ctx), ErrRelayNotAdmin)
	})
}

func TestNew_FileTokenStoreKeepsRelayTokenApart(t *testing.T) {
	cfg := newTestConfig(t, "http://localhost:1/api")
	cfg.Auth.TokenStore = "file"
	cfg.Auth.TokenFile = filepath.Join(t.TempDir(), "token.json")

	a, err := New(context.Background(), cfg, nil, nil)
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	require.NoError(t, a.Tokens.Save(ctx, "shopper"))
	require.NoError(t, a.RelayTokens.Save(ctx, "relay"))
	got, err := a.Tokens.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "shopper", got)
	got, err = a.RelayTokens.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "relay", got)
}

func TestNew_RelayTokenKeyMustDiffer(t *testing.T) {
	cfg := newTestConfig(t, "http://localhost:1/api")
	cfg.Relay.TokenKey = cfg.Auth.TokenKey

	_, err := New(context.Background(), cfg, nil, nil)

	assert.ErrorContains(t, err, "relay.token_key")
}

func TestNew_MoneyEncodingFollowsConfig(t *testing.T) {
	price := decimal.RequireFromString("12.50")

	cfg := newTestConfig(t, "http://localhost:1/api")
	cfg.API.MoneyAsNumber = false
	a, err := New(context.Background(), cfg, nil, nil)
	require.NoError(t, err)
	a.Close()
	data, err := price.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"12.5"`, string(data))

	cfg.API.MoneyAsNumber = true
	a, err = New(context.Background(), cfg, nil, nil)
	require.NoError(t, err)
	a.Close()
	data, err = price.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `12.5`, string(data))
}

func TestNew_FileTokenStore(t *testing.T) {
	cfg := newTestConfig(t, "http://localhost:1/api")
	cfg.Auth.TokenStore = "file"
	cfg.Auth.TokenFile = filepath.Join(t.TempDir(), "token.json")

	a, err := New(context.Background(), cfg, nil, nil)
	require.NoError(t, err)

	assert.IsType(t, &tokenstore.FileStore{}, a.Tokens)
	assert.NoError(t, a.Close())
}

func TestNew_RedisTokenStore(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := newTestConfig(t, "http://localhost:1/api")
	cfg.Auth.TokenStore = "redis"
	cfg.Redis.Addr = mr.Addr()

	a, err := New(context.Background(), cfg, nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, a.Tokens.Save(ctx, "tok"))
	got, err := a.Tokens.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", got)
	assert.NoError(t, a.Close())
}

func TestNew_UnknownDrivers(t *testing.T) {
	cfg := newTestConfig(t, "http://localhost:1/api")
	cfg.Auth.TokenStore = "keychain"
	_, err := New(context.Background(), cfg, nil, nil)
	assert.ErrorContains(t, err, "unknown token store")

	cfg = newTestConfig(t, "http://localhost:1/api")
	cfg.Outbox.Driver = "sqlite"
	_, err = New(context.Background(), cfg, nil, nil)
	assert.ErrorContains(t, err, "unknown outbox driver")
}

func idArg(n int64) string { return strconv.FormatInt(n, 10) }
