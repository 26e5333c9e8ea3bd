package models

import (
	"github.com/cragcast/cragcast/internal/climbing"
)

// RecommendationRequest asks for the best hour to climb at a spot.
type RecommendationRequest struct {
	LocationID string `json:"locationId" validate:"required"`
	SpotID     string `json:"spotId" validate:"required"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime  string `json:"startTime" validate:"required,clock"`
	EndTime    string `json:"endTime" validate:"required,clock"`
}

// ToDomain converts the request for the climbing service.
func (r RecommendationRequest) ToDomain() climbing.Request {
	return climbing.Request{
		LocationID: r.LocationID,
		SpotID:     r.SpotID,
		Date:       r.Date,
		StartTime:  r.StartTime,
		EndTime:    r.EndTime,
	}
}

// CompareDaysRequest asks which of several days is best at a location.
type CompareDaysRequest struct {
	LocationID string   `json:"locationId" validate:"required"`
	Dates      []string `json:"dates" validate:"required,min=1,max=7,unique,dive,datetime=2006-01-02"`
	StartTime  string   `json:"startTime" validate:"required,clock"`
	EndTime    string   `json:"endTime" validate:"required,clock"`
}

// ToDomain converts the request for the climbing service.
func (r CompareDaysRequest) ToDomain() climbing.CompareRequest {
	return climbing.CompareRequest{
		LocationID: r.LocationID,
		Dates:      r.Dates,
		StartTime:  r.StartTime,
		EndTime:    r.EndTime,
	}
}

// CompareDaysResponse lists the compared days, best first.
type CompareDaysResponse struct {
	LocationID string              `json:"locationId"`
	Days       []climbing.DayScore `json:"days"`
}

// HourInput is one caller-supplied hourly summary.
type HourInput struct {
	Hour          int      `json:"hour" validate:"gte=0,lte=23"`
	Temperature   *float64 `json:"temperature" validate:"omitnil,gte=-60,lte=60"`
	Humidity      *float64 `json:"humidity" validate:"omitnil,gte=0,lte=100"`
	WindSpeed     *float64 `json:"windSpeed" validate:"omitnil,gte=0"`
	Precipitation int      `json:"precipitation" validate:"gte=0"`
}

// ScoreHoursRequest scores caller-supplied hours without a forecast lookup.
type ScoreHoursRequest struct {
	Date  string      `json:"date" validate:"required,datetime=2006-01-02"`
	Hours []HourInput `json:"hours" validate:"required,min=1,max=24,dive"`
}

// Summaries converts the request hours in order.
func (r ScoreHoursRequest) Summaries() []climbing.HourlySummary {
	out := make([]climbing.HourlySummary, len(r.Hours))
	for i, h := range r.Hours {
		out[i] = climbing.HourlySummary{
			Hour:          h.Hour,
			Temperature:   h.Temperature,
			Humidity:      h.Humidity,
			WindSpeed:     h.WindSpeed,
			Precipitation: h.Precipitation,
		}
	}
	return out
}

// ScoreHoursResponse is the scored day.
type ScoreHoursResponse struct {
	climbing.OptimalTimeResult
	OptimalTime      string   `json:"optimalTime"`
	Summary          string   `json:"summary"`
	Advice           string   `json:"advice"`
	RecommendedTimes []string `json:"recommendedTimes"`
}

// AnalyzeRequest is a single reading to assess. DewPoint is derived from
// temperature and humidity when omitted.
type AnalyzeRequest struct {
	Temperature *float64 `json:"temperature" validate:"required,gte=-60,lte=60"`
	Humidity    *float64 `json:"humidity" validate:"required,gte=0,lte=100"`
	WindSpeed   *float64 `json:"windSpeed" validate:"required,gte=0"`
	DewPoint    *float64 `json:"dewPoint" validate:"omitnil,gte=-80,lte=60"`
	Condition   string   `json:"condition" validate:"max=64"`
}
