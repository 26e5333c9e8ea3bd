package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cragcast/cragcast/internal/weather"
)

// ForecastRefresher fetches a forecast from the provider and replaces the
// cached entry. *weather.Service implements it.
type ForecastRefresher interface {
	RefreshForecast(ctx context.Context, lat, lon float64) (*weather.Forecast, error)
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config  RefreshConfig
	Logger  zerolog.Logger
	Weather ForecastRefresher
}

// RefreshJob keeps the forecast cache warm for a set of locations.
type RefreshJob struct {
	config  RefreshConfig
	logger  zerolog.Logger
	weather ForecastRefresher

	mu      sync.RWMutex
	metrics RefreshMetrics
}

// RefreshMetrics accumulates over the life of a RefreshJob.
type RefreshMetrics struct {
	TotalRuns         int64
	SuccessfulRefresh int64
	FailedRefreshes   int64
	SamplesFetched    int64

	LastRefreshAt       time.Time
	LastRefreshDuration time.Duration
	TotalDuration       time.Duration
}

// NewRefreshJob creates a refresh job. Concurrency defaults to 3 and the
// per-target timeout to 30 seconds.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	config := cfg.Config
	if config.Concurrency <= 0 {
		config.Concurrency = 3
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &RefreshJob{
		config:  config,
		logger:  cfg.Logger,
		weather: cfg.Weather,
	}
}

// Config returns the job configuration after defaults were applied.
func (j *RefreshJob) Config() RefreshConfig {
	return j.config
}

// RefreshResult summarizes one run. Errors are in target order.
type RefreshResult struct {
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration
	TotalTargets int
	Successful   int
	Failed       int
	Skipped      int
	Samples      int
	Errors       []RefreshError
}

// RefreshError represents a failed location refresh.
type RefreshError struct {
	LocationID string
	Point      Point
	Error      string
}

// Run refreshes every configured target.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	return j.RunTargets(ctx, j.config.Targets)
}

type targetOutcome struct {
	ran     bool
	samples int
	err     error
}

// RunTargets refreshes targets with at most Concurrency in flight. Targets
// not started before ctx is done are counted as skipped.
func (j *RefreshJob) RunTargets(ctx context.Context, targets []RefreshTarget) *RefreshResult {
	result := &RefreshResult{StartTime: time.Now(), TotalTargets: len(targets)}

	j.logger.Info().
		Int("total_targets", len(targets)).
		Int("concurrency", j.config.Concurrency).
		Msg("starting forecast refresh")

	// Each goroutine owns one slot.
	outcomes := make([]targetOutcome, len(targets))
	var g errgroup.Group
	g.SetLimit(j.config.Concurrency)
	for i, target := range targets {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			outcomes[i] = j.refreshTarget(ctx, target)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // goroutines report through outcomes

	for i, o := range outcomes {
		switch {
		case !o.ran:
			result.Skipped++
		case o.err != nil:
			result.Failed++
			result.Errors = append(result.Errors, RefreshError{
				LocationID: targets[i].LocationID,
				Point:      targets[i].Point,
				Error:      o.err.Error(),
			})
		default:
			result.Successful++
			result.Samples += o.samples
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	j.record(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Int("skipped", result.Skipped).
		Int("samples", result.Samples).
		Msg("forecast refresh completed")

	return result
}

func (j *RefreshJob) refreshTarget(ctx context.Context, target RefreshTarget) targetOutcome {
	if ctx.Err() != nil {
		return targetOutcome{}
	}
	if j.weather == nil {
		return targetOutcome{ran: true}
	}

	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	forecast, err := j.weather.RefreshForecast(ctx, target.Point.Lat, target.Point.Lon)
	if err != nil {
		j.logger.Warn().Err(err).
			Str("location_id", target.LocationID).
			Msg("forecast refresh failed")
		return targetOutcome{ran: true, err: err}
	}
	return targetOutcome{ran: true, samples: len(forecast.Samples)}
}

func (j *RefreshJob) record(result *RefreshResult) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.SuccessfulRefresh += int64(result.Successful)
	j.metrics.FailedRefreshes += int64(result.Failed)
	j.metrics.SamplesFetched += int64(result.Samples)
	j.metrics.LastRefreshAt = result.EndTime
	j.metrics.LastRefreshDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the accumulated metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.metrics
}

// MetricsSnapshot returns the metrics keyed for the worker's health endpoint.
func (j *RefreshJob) MetricsSnapshot() map[string]any {
	m := j.GetMetrics()
	return map[string]any{
		"total_runs":            m.TotalRuns,
		"successful_refreshes":  m.SuccessfulRefresh,
		"failed_refreshes":      m.FailedRefreshes,
		"samples_fetched":       m.SamplesFetched,
		"last_refresh_at":       m.LastRefreshAt,
		"last_refresh_duration": m.LastRefreshDuration.String(),
		"total_duration":        m.TotalDuration.String(),
	}
}
