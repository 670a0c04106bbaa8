package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pirnawaz/agroledger/internal/infrastructure/config"
)

func unsetenv(t *testing.T, key string) {
	t.Helper()

	// t.Setenv registers the restore; the test itself needs the variable absent.
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestLoadDefaults(t *testing.T) {
	unsetenv(t, "DATABASE_URL")
	unsetenv(t, "HTTP_PORT")

	cfg, err := config.Load()
	require.NoError(t, err)

	require.NotEmpty(t, cfg.DatabaseURL)
	require.Equal(t, "8080", cfg.HTTPPort)
	require.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	require.Equal(t, 60*time.Second, cfg.ReportCacheTTL)
	require.Equal(t, "migrations", cfg.MigrationsPath)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("OUTBOX_INTERVAL", "2s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://erp.example,https://admin.example")

	cfg, err := config.Load()
	require.NoError(t, err)

	require.Equal(t, "postgres://example", cfg.DatabaseURL)
	require.Equal(t, "redis://example", cfg.RedisURL)
	require.Equal(t, "9090", cfg.HTTPPort)
	require.Equal(t, 45*time.Second, cfg.DatabaseTimeout)
	require.Equal(t, 2*time.Second, cfg.OutboxInterval)
	require.Equal(t, []string{"https://erp.example", "https://admin.example"}, cfg.CORSAllowedOrigins)
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")

	_, err := config.Load()
	require.Error(t, err)
}
