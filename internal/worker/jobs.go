package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Job types accepted in RefreshMessage.JobType.
const (
	JobForecastRefresh = "forecast_refresh"
	JobHealthCheck     = "health_check"
)

// ErrUnknownJobType is returned for messages with an unrecognized job type.
var ErrUnknownJobType = errors.New("unknown job type")

// RefreshMessage represents a worker job message.
type RefreshMessage struct {
	JobType string `json:"job_type"`

	// LocationIDs limits a forecast refresh to these locations. Empty means all.
	LocationIDs []string `json:"location_ids,omitempty"`
}

// Jobs dispatches job messages to the refresh job.
type Jobs struct {
	refresh *RefreshJob
	logger  zerolog.Logger
}

// NewJobs creates a dispatcher around job.
func NewJobs(job *RefreshJob, logger zerolog.Logger) *Jobs {
	return &Jobs{refresh: job, logger: logger}
}

// Handle runs the job described by msg.
func (j *Jobs) Handle(ctx context.Context, msg RefreshMessage) error {
	switch msg.JobType {
	case JobForecastRefresh:
		return j.forecastRefresh(ctx, msg)
	case JobHealthCheck:
		return j.healthCheck(ctx)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownJobType, msg.JobType)
	}
}

func (j *Jobs) forecastRefresh(ctx context.Context, msg RefreshMessage) error {
	targets := j.refresh.Config().Targets
	if len(msg.LocationIDs) > 0 {
		targets = j.refresh.Config().Only(msg.LocationIDs)
	}

	j.logger.Info().
		Int("targets", len(targets)).
		Msg("starting forecast refresh")

	result := j.refresh.RunTargets(ctx, targets)

	// Consider it successful unless most locations failed.
	if result.Failed > result.Successful {
		return fmt.Errorf("too many refresh failures: %d/%d", result.Failed, result.TotalTargets)
	}
	return nil
}

// healthCheck refreshes the first target to verify provider connectivity.
func (j *Jobs) healthCheck(ctx context.Context) error {
	j.logger.Debug().Msg("running health check")

	targets := j.refresh.Config().Targets
	if len(targets) == 0 {
		return errors.New("health check failed: no refresh targets")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	result := j.refresh.RunTargets(ctx, targets[:1])
	if result.Failed > 0 {
		return fmt.Errorf("health check failed: %s", result.Errors[0].Error)
	}
	if result.Skipped > 0 {
		return fmt.Errorf("health check failed: %w", ctx.Err())
	}

	j.logger.Debug().Msg("health check passed")
	return nil
}
