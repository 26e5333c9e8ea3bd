package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/cragcast/cragcast/internal/api/models"
	"github.com/cragcast/cragcast/internal/api/response"
	"github.com/cragcast/cragcast/internal/climbing"
	"github.com/cragcast/cragcast/internal/weather"
)

// Recommender computes climbing recommendations from live forecasts.
type Recommender interface {
	Recommend(ctx context.Context, req climbing.Request) (*climbing.Recommendation, error)
	CompareDays(ctx context.Context, req climbing.CompareRequest) ([]climbing.DayScore, error)
}

// ClimbingHandler handles recommendation and scoring endpoints.
type ClimbingHandler struct {
	service Recommender
	logger  zerolog.Logger
}

// NewClimbingHandler creates a new ClimbingHandler.
func NewClimbingHandler(service Recommender, logger zerolog.Logger) *ClimbingHandler {
	return &ClimbingHandler{service: service, logger: logger}
}

// Recommend handles POST /v1/recommendations - best hour at a spot.
func (h *ClimbingHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var input models.RecommendationRequest
	if !decodeJSON(w, r, &input) {
		return
	}

	rec, err := h.service.Recommend(r.Context(), input.ToDomain())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	response.JSON(w, r, http.StatusOK, rec)
}

// CompareDays handles POST /v1/recommendations:compare - rank several days.
func (h *ClimbingHandler) CompareDays(w http.ResponseWriter, r *http.Request) {
	var input models.CompareDaysRequest
	if !decodeJSON(w, r, &input) {
		return
	}

	days, err := h.service.CompareDays(r.Context(), input.ToDomain())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	response.JSON(w, r, http.StatusOK, models.CompareDaysResponse{
		LocationID: input.LocationID,
		Days:       days,
	})
}

// ScoreHours handles POST /v1/hours:score - score caller-supplied hours.
func (h *ClimbingHandler) ScoreHours(w http.ResponseWriter, r *http.Request) {
	var input models.ScoreHoursRequest
	if !decodeJSON(w, r, &input) {
		return
	}

	date, err := time.Parse(time.DateOnly, input.Date)
	if err != nil {
		response.BadRequest(w, r, "date must be YYYY-MM-DD", nil)
		return
	}

	result, err := climbing.ScoreAndSelect(input.Summaries(), date)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	best := result.Best()
	resp := models.ScoreHoursResponse{
		OptimalTimeResult: result,
		OptimalTime:       climbing.TimeSlot(best.Hour),
		Summary:           climbing.SummaryLine(result),
		Advice:            climbing.Advice(best.HourlySummary),
		RecommendedTimes:  make([]string, 0, len(result.RecommendedIndices)),
	}
	for _, i := range result.RecommendedIndices {
		resp.RecommendedTimes = append(resp.RecommendedTimes, climbing.TimeSlot(result.Scored[i].Hour))
	}
	response.JSON(w, r, http.StatusOK, resp)
}

// AnalyzeConditions handles POST /v1/conditions:analyze - assess one reading.
func (h *ClimbingHandler) AnalyzeConditions(w http.ResponseWriter, r *http.Request) {
	var input models.AnalyzeRequest
	if !decodeJSON(w, r, &input) {
		return
	}

	c := climbing.Conditions{
		Temperature: *input.Temperature,
		Humidity:    *input.Humidity,
		WindSpeed:   *input.WindSpeed,
		Condition:   input.Condition,
	}
	if input.DewPoint != nil {
		c.DewPoint = *input.DewPoint
	} else {
		c.DewPoint = weather.DewPoint(c.Temperature, c.Humidity)
	}

	response.JSON(w, r, http.StatusOK, climbing.Analyze(c))
}
