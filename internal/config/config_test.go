package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRESQL_URI", "")
	t.Setenv("PG_DSN", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 2*time.Second, cfg.Match.LookupTimeout)
	assert.Equal(t, 5, cfg.RateLimit.Requests)
	assert.Equal(t, 30*time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, uint32(5), cfg.Breaker.FailureThreshold)
	assert.Equal(t, "host=localhost port=5432 user=postgres password= dbname=venuematch sslmode=disable", cfg.GetPostgreSQLDSN())
	assert.Equal(t, "0.0.0.0:8080", cfg.Address())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/venues?sslmode=disable")
	t.Setenv("MATCH_LOOKUP_TIMEOUT", "750")
	t.Setenv("MATCH_SEED", "42")
	t.Setenv("RATE_LIMIT_WINDOW", "10m")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("LOG_FORMAT", "TEXT")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://u:p@db:5432/venues?sslmode=disable", cfg.GetPostgreSQLDSN())
	assert.Equal(t, 750*time.Millisecond, cfg.Match.LookupTimeout)
	assert.Equal(t, int64(42), cfg.Match.Seed)
	assert.Equal(t, 10*time.Minute, cfg.RateLimit.Window)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Empty(t, cfg.Warnings)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("SERVER_PORT", "eighty")
	t.Setenv("MIGRATE_ON_START", "maybe")
	t.Setenv("BREAKER_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.Migrate.OnStart)
	assert.Equal(t, 30*time.Second, cfg.Breaker.Timeout)
	assert.Len(t, cfg.Warnings, 3)
}

func TestLoadRejectsInvalidConfiguration(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unknown log level", key: "LOG_LEVEL", value: "chatty"},
		{name: "unknown gin mode", key: "GIN_MODE", value: "turbo"},
		{name: "port out of range", key: "SERVER_PORT", value: "70000"},
		{name: "zero rate limit", key: "RATE_LIMIT_REQUESTS", value: "0"},
		{name: "idle above max", key: "PG_MAX_IDLE_CONNECTIONS", value: "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
		})
	}
}
