package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cragcast/cragcast/internal/config"
)

var keys = []string{
	"APP_PORT", "APP_ENV", "LOG_LEVEL", "OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT",
	"KMA_API_KEY", "KMA_BASE_URL", "WEATHER_CACHE_TTL", "VALKEY_ADDR", "CATALOG_PATH",
	"TIMEZONE", "PUBSUB_PROJECT_ID", "PUBSUB_SUBSCRIPTION", "REFRESH_INTERVAL",
	"REFRESH_CONCURRENCY", "REQUIRE_TLS", "OTEL_TRACES_SAMPLER_ARG",
}

// clearEnv blanks every key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func noEnvFile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	assert.False(t, cfg.OTELEnabled)
	assert.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
	assert.Equal(t, 1.0, cfg.OTELSampleRatio)
	assert.Equal(t, 30*time.Minute, cfg.WeatherCacheTTL)
	assert.Equal(t, time.Hour, cfg.RefreshInterval)
	assert.Equal(t, 3, cfg.RefreshConcurrency)
	assert.Equal(t, "Asia/Seoul", cfg.Timezone.String())
	assert.Equal(t, "cragcast-worker", cfg.PubSubSubscription)
	assert.Empty(t, cfg.ValkeyAddr)
	assert.False(t, cfg.RequireTLS)
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.25")
	t.Setenv("KMA_API_KEY", "secret")
	t.Setenv("WEATHER_CACHE_TTL", "10m")
	t.Setenv("VALKEY_ADDR", "localhost:6379")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("REFRESH_CONCURRENCY", "5")
	t.Setenv("REQUIRE_TLS", "true")

	cfg, err := config.Load(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
	assert.True(t, cfg.OTELEnabled)
	assert.Equal(t, 0.25, cfg.OTELSampleRatio)
	assert.Equal(t, "secret", cfg.KMAAPIKey)
	assert.Equal(t, 10*time.Minute, cfg.WeatherCacheTTL)
	assert.Equal(t, "localhost:6379", cfg.ValkeyAddr)
	assert.Equal(t, time.UTC, cfg.Timezone)
	assert.Equal(t, 5, cfg.RefreshConcurrency)
	assert.True(t, cfg.RequireTLS)
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("KMA_API_KEY=from-file\nAPP_PORT=7070\n"), 0o600))
	t.Setenv("APP_PORT", "6060")
	// Blank variables count as set, so the file could not fill them in.
	require.NoError(t, os.Unsetenv("KMA_API_KEY"))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.KMAAPIKey)
	assert.Equal(t, "6060", cfg.Port, "environment wins over the file")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"LOG_LEVEL", "chatty"},
		{"WEATHER_CACHE_TTL", "soon"},
		{"WEATHER_CACHE_TTL", "-5m"},
		{"REFRESH_INTERVAL", "1 hour"},
		{"REFRESH_CONCURRENCY", "three"},
		{"REFRESH_CONCURRENCY", "0"},
		{"TIMEZONE", "Mars/Olympus"},
		{"OTEL_TRACES_SAMPLER_ARG", "1.5"},
		{"OTEL_TRACES_SAMPLER_ARG", "half"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := config.Load(noEnvFile(t))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}
