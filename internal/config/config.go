// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds configuration shared by the API server and the worker.
type Config struct {
	Port        string
	Environment string
	LogLevel    zerolog.Level

	OTELEnabled  bool
	OTLPEndpoint string

	// OTELSampleRatio is the fraction of new traces recorded.
	OTELSampleRatio float64

	KMAAPIKey  string
	KMABaseURL string

	WeatherCacheTTL time.Duration

	// ValkeyAddr enables the shared forecast cache when set.
	ValkeyAddr string

	// CatalogPath overrides the embedded catalog when set.
	CatalogPath string

	Timezone *time.Location

	PubSubProjectID    string
	PubSubSubscription string

	RefreshInterval    time.Duration
	RefreshConcurrency int

	RequireTLS bool
}

// IsProduction reports whether the service runs in production.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load reads configuration from environment variables. Values from the given
// env files (default ".env") fill in variables that are not already set;
// missing files are ignored.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	level, err := zerolog.ParseLevel(getEnvOrDefault("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	cacheTTL, err := getDuration("WEATHER_CACHE_TTL", 30*time.Minute)
	if err != nil {
		return Config{}, err
	}
	refreshInterval, err := getDuration("REFRESH_INTERVAL", time.Hour)
	if err != nil {
		return Config{}, err
	}
	refreshConcurrency, err := getInt("REFRESH_CONCURRENCY", 3)
	if err != nil {
		return Config{}, err
	}

	sampleRatio, err := getRatio("OTEL_TRACES_SAMPLER_ARG", 1)
	if err != nil {
		return Config{}, err
	}

	tzName := getEnvOrDefault("TIMEZONE", "Asia/Seoul")
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		return Config{}, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	return Config{
		Port:               getEnvOrDefault("APP_PORT", "8080"),
		Environment:        getEnvOrDefault("APP_ENV", "development"),
		LogLevel:           level,
		OTELEnabled:        os.Getenv("OTEL_ENABLED") == "true",
		OTLPEndpoint:       getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELSampleRatio:    sampleRatio,
		KMAAPIKey:          os.Getenv("KMA_API_KEY"),
		KMABaseURL:         os.Getenv("KMA_BASE_URL"),
		WeatherCacheTTL:    cacheTTL,
		ValkeyAddr:         os.Getenv("VALKEY_ADDR"),
		CatalogPath:        os.Getenv("CATALOG_PATH"),
		Timezone:           tz,
		PubSubProjectID:    os.Getenv("PUBSUB_PROJECT_ID"),
		PubSubSubscription: getEnvOrDefault("PUBSUB_SUBSCRIPTION", "cragcast-worker"),
		RefreshInterval:    refreshInterval,
		RefreshConcurrency: refreshConcurrency,
		RequireTLS:         os.Getenv("REQUIRE_TLS") == "true",
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return n, nil
}

func getRatio(key string, defaultValue float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if f < 0 || f > 1 {
		return 0, fmt.Errorf("invalid %s: must be between 0 and 1", key)
	}
	return f, nil
}
