package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10, cfg.DB.MaxOpenConns)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "usd", cfg.Stripe.Currency)
	assert.Equal(t, 500, cfg.Checkout.MetadataLimit)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.AllowedOrigins)
}

func TestAllowedOriginsFollowBaseURL(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SCHOOLPACK_CHECKOUT_BASE_URL", "https://shop.example/store/")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://shop.example"}, cfg.Server.AllowedOrigins)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SCHOOLPACK_DB_DSN", "postgres://localhost/schoolpack")
	t.Setenv("SCHOOLPACK_CHECKOUT_METADATA_LIMIT", "320")
	t.Setenv("SCHOOLPACK_AUTH_TOKEN_TTL", "2h")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/schoolpack", cfg.DB.DSN)
	assert.Equal(t, 320, cfg.Checkout.MetadataLimit)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		DB:       DBConfig{DSN: "postgres://x"},
		Auth:     AuthConfig{JWTSecret: "s"},
		Stripe:   StripeConfig{SecretKey: "sk_test"},
		Checkout: CheckoutConfig{BaseURL: "https://shop.example"},
	}
	assert.NoError(t, cfg.Validate())

	cfg.Server.AllowedOrigins = []string{"https://shop.example", "*"}
	assert.EqualError(t, cfg.Validate(), "server.allowed_origins must list explicit origins, not *")

	cfg.Auth.JWTSecret = ""
	assert.EqualError(t, cfg.Validate(), "auth.jwt_secret is required")
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
