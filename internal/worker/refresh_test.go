package worker_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cragcast/cragcast/internal/catalog"
	"github.com/cragcast/cragcast/internal/weather"
	"github.com/cragcast/cragcast/internal/worker"
)

type fakeRefresher struct {
	mu      sync.Mutex
	calls   []worker.Point
	fail    map[float64]bool
	delay   time.Duration
	samples int
}

func (f *fakeRefresher) RefreshForecast(ctx context.Context, lat, lon float64) (*weather.Forecast, error) {
	f.mu.Lock()
	f.calls = append(f.calls, worker.Point{Lat: lat, Lon: lon})
	fail := f.fail[lat]
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fail {
		return nil, weather.ErrProviderUnavailable
	}
	return &weather.Forecast{Lat: lat, Lon: lon, Samples: make([]weather.Sample, f.samples)}, nil
}

func (f *fakeRefresher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func targets(n int) []worker.RefreshTarget {
	out := make([]worker.RefreshTarget, n)
	for i := range out {
		out[i] = worker.RefreshTarget{
			LocationID: string(rune('a' + i)),
			Point:      worker.Point{Lat: 37.0 + float64(i)*0.1, Lon: 127.0},
		}
	}
	return out
}

func TestDefaultRefreshConfig(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)

	cfg := worker.DefaultRefreshConfig(cat)

	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	require.Len(t, cfg.Targets, cat.Len())
	assert.Equal(t, "anyang-art-park", cfg.Targets[0].LocationID)
	assert.InDelta(t, 37.3833, cfg.Targets[0].Point.Lat, 1e-9)
	assert.InDelta(t, 126.9333, cfg.Targets[0].Point.Lon, 1e-9)
}

func TestTargetsFromCatalog_Nil(t *testing.T) {
	assert.Empty(t, worker.TargetsFromCatalog(nil))
}

func TestRefreshConfig_Only(t *testing.T) {
	cfg := worker.RefreshConfig{Targets: targets(4)}

	got := cfg.Only([]string{"c", "a", "zzz"})

	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].LocationID)
	assert.Equal(t, "c", got[1].LocationID)
}

func TestNewRefreshJob_Defaults(t *testing.T) {
	job := worker.NewRefreshJob(worker.RefreshJobConfig{Logger: zerolog.Nop()})

	assert.Equal(t, 3, job.Config().Concurrency)
	assert.Equal(t, 30*time.Second, job.Config().Timeout)
}

func TestRefreshJob_Run(t *testing.T) {
	fake := &fakeRefresher{samples: 12}
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:  worker.RefreshConfig{Targets: targets(5), Concurrency: 2, Timeout: time.Second},
		Logger:  zerolog.Nop(),
		Weather: fake,
	})

	result := job.Run(context.Background())

	assert.Equal(t, 5, result.TotalTargets)
	assert.Equal(t, 5, result.Successful)
	assert.Zero(t, result.Failed)
	assert.Zero(t, result.Skipped)
	assert.Equal(t, 60, result.Samples)
	assert.Equal(t, 5, fake.callCount())
	assert.False(t, result.EndTime.Before(result.StartTime))
}

func TestRefreshJob_Run_CollectsErrors(t *testing.T) {
	tt := targets(3)
	fake := &fakeRefresher{fail: map[float64]bool{tt[1].Point.Lat: true}}
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:  worker.RefreshConfig{Targets: tt, Concurrency: 1, Timeout: time.Second},
		Logger:  zerolog.Nop(),
		Weather: fake,
	})

	result := job.Run(context.Background())

	assert.Equal(t, 2, result.Successful)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "b", result.Errors[0].LocationID)
	assert.Contains(t, result.Errors[0].Error, "unavailable")
}

func TestRefreshJob_Run_ErrorsInTargetOrder(t *testing.T) {
	tt := targets(6)
	fail := map[float64]bool{}
	for _, i := range []int{5, 1, 3} {
		fail[tt[i].Point.Lat] = true
	}
	fake := &fakeRefresher{fail: fail, delay: time.Millisecond}
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:  worker.RefreshConfig{Targets: tt, Concurrency: 4, Timeout: time.Second},
		Logger:  zerolog.Nop(),
		Weather: fake,
	})

	result := job.Run(context.Background())

	require.Len(t, result.Errors, 3)
	assert.Equal(t, "b", result.Errors[0].LocationID)
	assert.Equal(t, "d", result.Errors[1].LocationID)
	assert.Equal(t, "f", result.Errors[2].LocationID)
}

func TestRefreshJob_Run_PerTargetTimeout(t *testing.T) {
	fake := &fakeRefresher{delay: time.Second}
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:  worker.RefreshConfig{Targets: targets(1), Concurrency: 1, Timeout: 20 * time.Millisecond},
		Logger:  zerolog.Nop(),
		Weather: fake,
	})

	result := job.Run(context.Background())

	assert.Equal(t, 1, result.Failed)
	assert.Contains(t, result.Errors[0].Error, context.DeadlineExceeded.Error())
}

func TestRefreshJob_Run_BoundedConcurrency(t *testing.T) {
	var inFlight, peak int64
	refresher := refresherFunc(func(ctx context.Context, lat, lon float64) (*weather.Forecast, error) {
		n := atomic.AddInt64(&inFlight, 1)
		for {
			p := atomic.LoadInt64(&peak)
			if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		return &weather.Forecast{}, nil
	})

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:  worker.RefreshConfig{Targets: targets(10), Concurrency: 3, Timeout: time.Second},
		Logger:  zerolog.Nop(),
		Weather: refresher,
	})

	result := job.Run(context.Background())

	assert.Equal(t, 10, result.Successful)
	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(3))
}

func TestRefreshJob_Run_ContextCancelled(t *testing.T) {
	fake := &fakeRefresher{}
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:  worker.RefreshConfig{Targets: targets(20), Concurrency: 1, Timeout: time.Second},
		Logger:  zerolog.Nop(),
		Weather: fake,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := job.Run(ctx)

	assert.Equal(t, 20, result.TotalTargets)
	assert.Equal(t, 20, result.Skipped)
	assert.Zero(t, fake.callCount())
}

func TestRefreshJob_Run_NoWeather(t *testing.T) {
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: worker.RefreshConfig{Targets: targets(2)},
		Logger: zerolog.Nop(),
	})

	result := job.Run(context.Background())

	assert.Equal(t, 2, result.Successful)
	assert.Zero(t, result.Samples)
}

func TestRefreshJob_Metrics(t *testing.T) {
	tt := targets(2)
	fake := &fakeRefresher{samples: 3, fail: map[float64]bool{tt[0].Point.Lat: true}}
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:  worker.RefreshConfig{Targets: tt},
		Logger:  zerolog.Nop(),
		Weather: fake,
	})

	_ = job.Run(context.Background())
	_ = job.Run(context.Background())

	m := job.GetMetrics()
	assert.Equal(t, int64(2), m.TotalRuns)
	assert.Equal(t, int64(2), m.SuccessfulRefresh)
	assert.Equal(t, int64(2), m.FailedRefreshes)
	assert.Equal(t, int64(6), m.SamplesFetched)
	assert.NotZero(t, m.LastRefreshAt)

	snapshot := job.MetricsSnapshot()
	assert.Contains(t, snapshot, "total_runs")
	assert.Contains(t, snapshot, "samples_fetched")
	assert.Contains(t, snapshot, "last_refresh_duration")
}

type refresherFunc func(ctx context.Context, lat, lon float64) (*weather.Forecast, error)

func (f refresherFunc) RefreshForecast(ctx context.Context, lat, lon float64) (*weather.Forecast, error) {
	return f(ctx, lat, lon)
}

func TestJobs_ForecastRefresh(t *testing.T) {
	fake := &fakeRefresher{}
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:  worker.RefreshConfig{Targets: targets(3)},
		Logger:  zerolog.Nop(),
		Weather: fake,
	})
	jobs := worker.NewJobs(job, zerolog.Nop())

	require.NoError(t, jobs.Handle(context.Background(), worker.RefreshMessage{JobType: worker.JobForecastRefresh}))
	assert.Equal(t, 3, fake.callCount())

	require.NoError(t, jobs.Handle(context.Background(), worker.RefreshMessage{
		JobType:     worker.JobForecastRefresh,
		LocationIDs: []string{"b"},
	}))
	assert.Equal(t, 4, fake.callCount())
}

func TestJobs_ForecastRefresh_MostlyFailing(t *testing.T) {
	tt := targets(3)
	fake := &fakeRefresher{fail: map[float64]bool{tt[0].Point.Lat: true, tt[1].Point.Lat: true}}
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:  worker.RefreshConfig{Targets: tt},
		Logger:  zerolog.Nop(),
		Weather: fake,
	})

	err := worker.NewJobs(job, zerolog.Nop()).Handle(context.Background(), worker.RefreshMessage{JobType: worker.JobForecastRefresh})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "2/3")
}

func TestJobs_HealthCheck(t *testing.T) {
	tt := targets(3)

	t.Run("refreshes first target only", func(t *testing.T) {
		fake := &fakeRefresher{}
		job := worker.NewRefreshJob(worker.RefreshJobConfig{Config: worker.RefreshConfig{Targets: tt}, Logger: zerolog.Nop(), Weather: fake})

		require.NoError(t, worker.NewJobs(job, zerolog.Nop()).Handle(context.Background(), worker.RefreshMessage{JobType: worker.JobHealthCheck}))
		assert.Equal(t, 1, fake.callCount())
	})

	t.Run("provider failure", func(t *testing.T) {
		fake := &fakeRefresher{fail: map[float64]bool{tt[0].Point.Lat: true}}
		job := worker.NewRefreshJob(worker.RefreshJobConfig{Config: worker.RefreshConfig{Targets: tt}, Logger: zerolog.Nop(), Weather: fake})

		err := worker.NewJobs(job, zerolog.Nop()).Handle(context.Background(), worker.RefreshMessage{JobType: worker.JobHealthCheck})
		assert.ErrorContains(t, err, "health check failed")
	})

	t.Run("no targets", func(t *testing.T) {
		job := worker.NewRefreshJob(worker.RefreshJobConfig{Logger: zerolog.Nop(), Weather: &fakeRefresher{}})

		err := worker.NewJobs(job, zerolog.Nop()).Handle(context.Background(), worker.RefreshMessage{JobType: worker.JobHealthCheck})
		assert.Error(t, err)
	})
}

func TestJobs_UnknownJobType(t *testing.T) {
	job := worker.NewRefreshJob(worker.RefreshJobConfig{Logger: zerolog.Nop()})

	err := worker.NewJobs(job, zerolog.Nop()).Handle(context.Background(), worker.RefreshMessage{JobType: "provider_refresh"})

	assert.True(t, errors.Is(err, worker.ErrUnknownJobType))
}
