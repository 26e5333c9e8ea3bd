// Package bootstrap wires the weather stack shared by the API server and the
// worker.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cragcast/cragcast/internal/config"
	"github.com/cragcast/cragcast/internal/provider/resilience"
	"github.com/cragcast/cragcast/internal/weather"
	"github.com/cragcast/cragcast/internal/weather/cache"
	"github.com/cragcast/cragcast/internal/weather/kma"
)

// Weather holds the constructed weather service and what must be released
// on shutdown.
type Weather struct {
	Service  *weather.Service
	Registry *resilience.Registry

	closers []func()
}

// Close releases connections opened by NewWeather.
func (w *Weather) Close() {
	for _, c := range w.closers {
		c()
	}
}

// NewWeather builds the KMA provider behind a resilient client, registers it
// for health reporting and picks the cache store. A shared Valkey cache is
// used when VALKEY_ADDR is set, otherwise entries stay in process.
func NewWeather(ctx context.Context, cfg config.Config, log zerolog.Logger) (*Weather, error) {
	if cfg.KMAAPIKey == "" {
		log.Warn().Msg("KMA_API_KEY not configured - forecast requests will fail")
	}

	w := &Weather{Registry: resilience.NewRegistry()}

	clientCfg := resilience.DefaultClientConfig(kma.ProviderName)
	clientCfg.Registry = w.Registry
	clientCfg.Logger = log
	provider := kma.NewClient(kma.ClientConfig{
		APIKey:     cfg.KMAAPIKey,
		BaseURL:    cfg.KMABaseURL,
		HTTPClient: resilience.NewClient(clientCfg),
		Logger:     log.With().Str("provider", kma.ProviderName).Logger(),
	})

	providerMetrics, err := weather.NewOTelMetrics(nil)
	if err != nil {
		return nil, fmt.Errorf("provider metrics: %w", err)
	}

	var store weather.Store = weather.NewMemoryStore()
	if cfg.ValkeyAddr != "" {
		client, err := cache.Connect(ctx, cfg.ValkeyAddr)
		if err != nil {
			return nil, err
		}
		w.closers = append(w.closers, client.Close)
		store = cache.NewValkeyStore(client, cache.DefaultPrefix)
		log.Info().Msg("weather cache backed by valkey")
	}

	w.Service = weather.NewService(weather.ServiceConfig{
		Provider: provider,
		Store:    store,
		Logger:   log,
		Metrics:  providerMetrics,
		CacheTTL: cfg.WeatherCacheTTL,
	})
	return w, nil
}
