// Package handler provides HTTP handlers for the cragcast API.
package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cragcast/cragcast/internal/api/models"
	"github.com/cragcast/cragcast/internal/api/response"
	"github.com/cragcast/cragcast/internal/provider/resilience"
	"github.com/cragcast/cragcast/internal/weather"
)

// ProviderHealthSource reports external provider health.
type ProviderHealthSource interface {
	GetAllHealth() []*resilience.ProviderHealth
	Summary() string
}

// CacheStatsSource reports weather cache statistics.
type CacheStatsSource interface {
	CacheStats(ctx context.Context) weather.CacheStats
}

// OpsConfig holds dependencies for the ops endpoints. Nil sources are
// reported as unconfigured.
type OpsConfig struct {
	Version   string
	BuildTime string
	Providers ProviderHealthSource
	Cache     CacheStatsSource

	// LocationCount is the number of catalog locations loaded at startup.
	LocationCount int
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg OpsConfig
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	return &OpsHandler{cfg: cfg}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]any{
			"version":   h.cfg.Version,
			"buildTime": h.cfg.BuildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check.
// Not ready without a catalog or while every provider circuit is open.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status:  models.HealthStatusOK,
		Time:    models.Timestamp(time.Now()),
		Details: map[string]any{"locations": h.cfg.LocationCount},
	}

	switch {
	case h.cfg.LocationCount == 0:
		health.Status = models.HealthStatusFail
		health.Details["reason"] = "catalog is empty"
	case h.cfg.Providers != nil && h.cfg.Providers.Summary() == resilience.StatusUnhealthy:
		health.Status = models.HealthStatusFail
		health.Details["reason"] = "all weather providers are unavailable"
	}

	if health.Status != models.HealthStatusOK {
		response.JSON(w, r, http.StatusServiceUnavailable, health)
		return
	}
	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - provider and subsystem status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(time.Now()),
		Subsystems: []models.SubsystemStatus{h.catalogStatus()},
		Providers:  []models.ProviderStatus{},
	}

	if h.cfg.Cache != nil {
		status.Subsystems = append(status.Subsystems, h.cacheStatus(r.Context()))
	}

	if h.cfg.Providers != nil {
		for _, p := range h.cfg.Providers.GetAllHealth() {
			status.Providers = append(status.Providers, providerStatus(p))
		}
		switch h.cfg.Providers.Summary() {
		case resilience.StatusUnhealthy:
			status.Status = models.HealthStatusFail
			status.ActiveDegradationFlags = append(status.ActiveDegradationFlags, "WEATHER_UNAVAILABLE")
		case resilience.StatusDegraded:
			status.Status = models.HealthStatusDegraded
			status.ActiveDegradationFlags = append(status.ActiveDegradationFlags, "WEATHER_DEGRADED")
		}
	}

	if h.cfg.LocationCount == 0 {
		status.Status = models.HealthStatusFail
	}

	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) catalogStatus() models.SubsystemStatus {
	s := models.SubsystemStatus{Name: "catalog", Status: models.HealthStatusOK}
	detail := fmt.Sprintf("%d locations", h.cfg.LocationCount)
	if h.cfg.LocationCount == 0 {
		s.Status = models.HealthStatusFail
	}
	s.Detail = &detail
	return s
}

func (h *OpsHandler) cacheStatus(ctx context.Context) models.SubsystemStatus {
	stats := h.cfg.Cache.CacheStats(ctx)
	detail := fmt.Sprintf("forecasts %d (%d fresh), observations %d (%d fresh)",
		stats.ForecastEntries, stats.ForecastFreshEntries,
		stats.WeatherEntries, stats.WeatherFreshEntries)
	return models.SubsystemStatus{
		Name:   "weather-cache",
		Status: models.HealthStatusOK,
		Detail: &detail,
	}
}

func providerStatus(p *resilience.ProviderHealth) models.ProviderStatus {
	ps := models.ProviderStatus{
		Provider:            p.Name,
		Status:              models.HealthStatusOK,
		Circuit:             p.CircuitState.String(),
		ConsecutiveFailures: p.Counts.ConsecutiveFailures,
		LastSuccessAt:       models.TimestampPtr(p.LastSuccessAt),
		LastFailureAt:       models.TimestampPtr(p.LastFailureAt),
	}
	switch {
	case p.IsUnhealthy():
		ps.Status = models.HealthStatusFail
	case p.IsDegraded():
		ps.Status = models.HealthStatusDegraded
	}
	if p.LastError != "" {
		msg := p.LastError
		ps.Message = &msg
	}
	return ps
}
