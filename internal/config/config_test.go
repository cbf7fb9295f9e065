package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(nil)

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000/api", cfg.API.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.True(t, cfg.API.MoneyAsNumber)
	assert.Equal(t, "file", cfg.Auth.TokenStore)
	assert.Equal(t, "storefront_token", cfg.Auth.TokenKey)
	assert.Equal(t, "memory", cfg.Outbox.Driver)
	assert.Equal(t, 10, cfg.Relay.MaxAttempts)
	assert.Equal(t, "storefront_relay_token", cfg.Relay.TokenKey)
	assert.Equal(t, "credit_card", cfg.Checkout.DefaultPaymentMethod)
	assert.False(t, cfg.Kafka.Enabled)
}

func TestOutboxConfig_Shared(t *testing.T) {
	assert.False(t, OutboxConfig{}.Shared())
	assert.False(t, OutboxConfig{Driver: "memory"}.Shared())
	assert.True(t, OutboxConfig{Driver: "postgres"}.Shared())
	assert.True(t, OutboxConfig{Driver: "dynamodb"}.Shared())
}

func TestLoad_RelayCredentialsFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STOREFRONT_RELAY_EMAIL", "ops@example.com")
	t.Setenv("STOREFRONT_RELAY_PASSWORD", "s3cret-pass")

	cfg, err := Load(nil)

	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", cfg.Relay.Email)
	assert.Equal(t, "s3cret-pass", cfg.Relay.Password)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STOREFRONT_API_BASE_URL", "https://shop.example.com/api/")
	t.Setenv("STOREFRONT_AUTH_TOKEN_STORE", "redis")

	cfg, err := Load(nil)

	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, "redis", cfg.Auth.TokenStore)
}

func TestLoad_ConfigFileAndFlags(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  base_url: http://file.example.com
relay:
  batch_size: 7
outbox:
  driver: postgres
`), 0o644))

	fs := Flags("test")
	require.NoError(t, fs.Parse([]string{"--config", path, "--outbox-driver", "dynamodb"}))

	cfg, err := Load(fs)

	require.NoError(t, err)
	assert.Equal(t, "http://file.example.com", cfg.API.BaseURL)
	assert.Equal(t, 7, cfg.Relay.BatchSize)
	assert.Equal(t, "dynamodb", cfg.Outbox.Driver)
}

func TestLoad_MissingExplicitConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())
	fs := Flags("test")
	require.NoError(t, fs.Parse([]string{"--config", "does-not-exist.yaml"}))

	_, err := Load(fs)

	assert.Error(t, err)
}

func TestLogConfig_ToLoggerOptions(t *testing.T) {
	opts := LogConfig{Mode: "debug", Dir: "/tmp/x", MaxBackups: 3}.ToLoggerOptions()

	assert.Equal(t, "debug", opts.Mode)
	assert.Equal(t, "/tmp/x", opts.Dir)
	assert.Equal(t, 3, opts.MaxBackups)
}
