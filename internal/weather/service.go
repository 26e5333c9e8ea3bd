package weather

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Provider is an upstream forecast source. Implementations report quota and
// key problems with ErrInvalidAPIKey and empty grids with ErrNoDataForLocation.
type Provider interface {
	GetCurrentWeather(ctx context.Context, lat, lon float64) (*Observation, error)
	GetForecast(ctx context.Context, lat, lon float64) (*Forecast, error)
	Name() string
}

// MetricsRecorder receives provider call and cache metrics.
type MetricsRecorder interface {
	RecordRequest(provider, operation string, duration time.Duration, err error)
	RecordCacheHit(provider, operation string)
	RecordCacheMiss(provider, operation string)
}

const (
	opCurrent  = "current"
	opForecast = "forecast"
)

// ServiceConfig configures a Service. Zero values take the defaults noted.
type ServiceConfig struct {
	Provider Provider
	Store    Store // in-memory when nil
	Logger   zerolog.Logger
	Metrics  MetricsRecorder // optional

	// CacheTTL defaults to 30 minutes. Village forecasts are issued every
	// three hours, so a shorter TTL only buys fresher current conditions.
	CacheTTL time.Duration

	// CacheGridSize is the cache cell edge in degrees, default 0.05 (one KMA
	// grid cell). Coordinates in the same cell share an entry.
	CacheGridSize float64

	// StaleIfErrorTTL bounds how old an entry may be and still be served
	// when the provider fails. Default 3 hours.
	StaleIfErrorTTL time.Duration
}

// Service fronts a Provider with a grid-keyed cache and stale-on-error
// fallback.
type Service struct {
	provider Provider
	store    Store
	logger   zerolog.Logger
	metrics  MetricsRecorder

	ttl      time.Duration
	cell     float64
	staleTTL time.Duration

	// flights collapses concurrent provider fetches per cache key.
	flights singleflight.Group

	mu         sync.Mutex // guards purgedAt and serialises purges
	purgedAt   time.Time
	purgeEvery time.Duration
}

// NewService returns a Service with defaults applied.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		provider:   cfg.Provider,
		store:      cfg.Store,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
		ttl:        cfg.CacheTTL,
		cell:       cfg.CacheGridSize,
		staleTTL:   cfg.StaleIfErrorTTL,
		purgeEvery: 5 * time.Minute,
	}
	if s.store == nil {
		s.store = NewMemoryStore()
	}
	if s.ttl == 0 {
		s.ttl = 30 * time.Minute
	}
	if s.cell == 0 {
		s.cell = 0.05
	}
	if s.staleTTL == 0 {
		s.staleTTL = 3 * time.Hour
	}
	return s
}

// ProviderName returns the upstream provider's name.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}

// GetCurrentWeather returns current conditions, cached per grid cell.
func (s *Service) GetCurrentWeather(ctx context.Context, lat, lon float64) (*Observation, error) {
	if err := validateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	key := s.cacheKey(KindObservation, lat, lon)
	if entry := s.lookup(ctx, key, opCurrent); entry != nil && entry.Observation != nil {
		return entry.Observation, nil
	}

	entry, err := s.fetch(ctx, key, opCurrent, func(ctx context.Context) (*Entry, error) {
		obs, err := s.provider.GetCurrentWeather(ctx, lat, lon)
		if err != nil {
			return nil, err
		}
		return &Entry{Observation: obs}, nil
	})
	if err != nil {
		return nil, err
	}
	return entry.Observation, nil
}

// GetForecast returns hourly forecast samples for a location.
func (s *Service) GetForecast(ctx context.Context, lat, lon float64) (*Forecast, error) {
	if err := validateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	key := s.cacheKey(KindForecast, lat, lon)
	if entry := s.lookup(ctx, key, opForecast); entry != nil && entry.Forecast != nil {
		return entry.Forecast, nil
	}

	entry, err := s.fetch(ctx, key, opForecast, s.forecastFetcher(lat, lon))
	if err != nil {
		return nil, err
	}
	return entry.Forecast, nil
}

// RefreshForecast fetches a forecast from the provider regardless of cache
// state and stores it. Used by the pre-warm worker.
func (s *Service) RefreshForecast(ctx context.Context, lat, lon float64) (*Forecast, error) {
	if err := validateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	key := s.cacheKey(KindForecast, lat, lon)
	entry, err := s.share("refresh|"+key, func() (*Entry, error) {
		return s.fetchProvider(ctx, key, opForecast, s.forecastFetcher(lat, lon))
	})
	if err != nil {
		return nil, err
	}
	return entry.Forecast, nil
}

func (s *Service) forecastFetcher(lat, lon float64) func(context.Context) (*Entry, error) {
	return func(ctx context.Context) (*Entry, error) {
		forecast, err := s.provider.GetForecast(ctx, lat, lon)
		if err != nil {
			return nil, err
		}
		if len(forecast.Samples) == 0 {
			return nil, ErrNoDataForLocation
		}
		return &Entry{Forecast: forecast}, nil
	}
}

// lookup returns a fresh cache entry or nil.
func (s *Service) lookup(ctx context.Context, key, op string) *Entry {
	entry, err := s.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			s.logger.Warn().Err(err).Str("key", key).Msg("weather cache read failed")
		}
		s.recordMiss(op)
		return nil
	}
	if !time.Now().Before(entry.ExpiresAt) {
		s.recordMiss(op)
		return nil
	}
	s.recordHit(op)
	return entry
}

// fetch fills a missed key from the provider. Concurrent misses on the same
// key share one provider call; different keys fetch in parallel.
func (s *Service) fetch(ctx context.Context, key, op string, get func(context.Context) (*Entry, error)) (*Entry, error) {
	return s.share(key, func() (*Entry, error) {
		// A flight that just finished may have filled the entry.
		if entry, err := s.store.Get(ctx, key); err == nil && time.Now().Before(entry.ExpiresAt) {
			return entry, nil
		}
		return s.fetchProvider(ctx, key, op, get)
	})
}

func (s *Service) share(key string, fn func() (*Entry, error)) (*Entry, error) {
	v, err, _ := s.flights.Do(key, func() (any, error) {
		return fn()
	})
	if err != nil {
		return nil, err
	}
	return v.(*Entry), nil
}

func (s *Service) fetchProvider(ctx context.Context, key, op string, get func(context.Context) (*Entry, error)) (*Entry, error) {
	s.logger.Debug().
		Str("key", key).
		Str("operation", op).
		Str("provider", s.provider.Name()).
		Msg("provider fetch")

	start := time.Now()
	entry, err := get(ctx)
	if s.metrics != nil {
		s.metrics.RecordRequest(s.provider.Name(), op, time.Since(start), err)
	}
	if err != nil {
		s.logger.Error().Err(err).
			Str("key", key).
			Str("operation", op).
			Msg("provider fetch failed")

		if cached, cerr := s.store.Get(ctx, key); cerr == nil {
			if time.Now().Before(cached.FetchedAt.Add(s.staleTTL)) {
				s.logger.Warn().
					Time("fetched_at", cached.FetchedAt).
					Str("operation", op).
					Msg("serving stale entry after provider failure")
				return cached, nil
			}
		}

		if errors.Is(err, ErrNoDataForLocation) || errors.Is(err, ErrInvalidAPIKey) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	now := time.Now()
	entry.FetchedAt = now
	entry.ExpiresAt = now.Add(s.ttl)
	if err := s.store.Set(ctx, key, entry, s.staleTTL); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("weather cache write failed")
	}

	s.cleanupIfNeeded(ctx)

	return entry, nil
}

// cacheKey snaps a coordinate to the south-west corner of its cache cell.
func (s *Service) cacheKey(kind EntryKind, lat, lon float64) string {
	gridLat := math.Floor(lat/s.cell) * s.cell
	gridLon := math.Floor(lon/s.cell) * s.cell
	return fmt.Sprintf("%s:%.2f:%.2f", kind, gridLat, gridLon)
}

// cleanupIfNeeded removes entries past the stale window if the cleanup
// interval has passed.
func (s *Service) cleanupIfNeeded(ctx context.Context) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.Sub(s.purgedAt) < s.purgeEvery {
		return
	}
	s.purgedAt = now

	expired, err := s.store.Purge(ctx, now.Add(-s.staleTTL))
	if err != nil {
		s.logger.Warn().Err(err).Msg("weather cache cleanup failed")
		return
	}
	if expired > 0 {
		s.logger.Debug().
			Int("expired_entries", expired).
			Msg("purged weather cache entries")
	}
}

func (s *Service) recordHit(op string) {
	if s.metrics != nil {
		s.metrics.RecordCacheHit(s.provider.Name(), op)
	}
}

func (s *Service) recordMiss(op string) {
	if s.metrics != nil {
		s.metrics.RecordCacheMiss(s.provider.Name(), op)
	}
}

// InvalidateCache clears all cached data.
func (s *Service) InvalidateCache(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.purgedAt = now
	_, err := s.store.Purge(ctx, now.Add(time.Hour))
	return err
}

// CacheStats returns cache statistics.
func (s *Service) CacheStats(ctx context.Context) CacheStats {
	stats := CacheStats{Provider: s.provider.Name()}
	counter, ok := s.store.(entryCounter)
	if !ok {
		return stats
	}
	stats.ForecastEntries, stats.ForecastFreshEntries = counter.Count(ctx, KindForecast)
	stats.WeatherEntries, stats.WeatherFreshEntries = counter.Count(ctx, KindObservation)
	return stats
}

// CacheStats contains cache statistics.
type CacheStats struct {
	WeatherEntries       int
	WeatherFreshEntries  int
	ForecastEntries      int
	ForecastFreshEntries int
	Provider             string
}

func validateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}
