// Package climbing scores hourly weather for outdoor climbing and picks the
// best time to go.
package climbing

import (
	"errors"
	"time"

	"github.com/cragcast/cragcast/internal/weather"
)

// ErrInvalidInput is returned when a computation is given input it cannot score.
var ErrInvalidInput = errors.New("invalid input")

// HourlySummary is one hour of aggregated forecast data.
// A nil field means no sample of that kind existed for the hour.
type HourlySummary struct {
	Hour          int      `json:"hour"`
	Temperature   *float64 `json:"temperature"`
	Humidity      *float64 `json:"humidity"`
	WindSpeed     *float64 `json:"windSpeed"`
	Precipitation int      `json:"precipitation"` // precipitating sub-samples, 0 = none
}

// ScoredHour is an HourlySummary with its suitability score.
type ScoredHour struct {
	HourlySummary
	Score int `json:"score"`
}

// OptimalTimeResult is the outcome of scoring a day.
type OptimalTimeResult struct {
	Scored             []ScoredHour `json:"scored"`
	BestIndex          int          `json:"bestIndex"`
	RecommendedIndices []int        `json:"recommendedIndices"`
	MaxScore           int          `json:"maxScore"`
}

// Best returns the highest scoring hour.
func (r OptimalTimeResult) Best() ScoredHour {
	return r.Scored[r.BestIndex]
}

// Conditions is a single weather reading to narrate.
type Conditions struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	WindSpeed   float64 `json:"windSpeed"`
	DewPoint    float64 `json:"dewPoint"`
	Condition   string  `json:"condition"`
}

// FactorStatus is the verdict for one weather factor.
type FactorStatus struct {
	IsGood  bool   `json:"isGood"`
	Message string `json:"message"`
}

// Assessment is the narrative evaluation of a single reading.
type Assessment struct {
	IsOptimal         bool         `json:"isOptimal"`
	TemperatureStatus FactorStatus `json:"temperatureStatus"`
	HumidityStatus    FactorStatus `json:"humidityStatus"`
	WindStatus        FactorStatus `json:"windStatus"`
	DewPointStatus    FactorStatus `json:"dewPointStatus"`
	OverallMessage    string       `json:"overallMessage"`
	Recommendations   []string     `json:"recommendations"`
}

// Request asks for the best time to climb at a spot.
type Request struct {
	LocationID string `json:"locationId"`
	SpotID     string `json:"spotId"`
	Date       string `json:"date"`      // YYYY-MM-DD
	StartTime  string `json:"startTime"` // HH:MM
	EndTime    string `json:"endTime"`   // HH:MM
}

// Recommendation is the full answer for a Request.
type Recommendation struct {
	LocationID       string       `json:"locationId"`
	LocationName     string       `json:"locationName"`
	SpotID           string       `json:"spotId"`
	SpotName         string       `json:"spotName"`
	Date             string       `json:"date"`
	OptimalTime      string       `json:"optimalTime"`
	Summary          string       `json:"summary"`
	Advice           string       `json:"advice"`
	Hourly           []ScoredHour `json:"hourly"`
	BestIndex        int          `json:"bestIndex"`
	RecommendedTimes []string     `json:"recommendedTimes"`
	MaxScore         int          `json:"maxScore"`
	Sky              string       `json:"sky,omitempty"`
	Analysis         *Assessment  `json:"analysis,omitempty"`

	Current   *weather.Observation `json:"current,omitempty"`
	FetchedAt time.Time            `json:"forecastFetchedAt"`
}

// DayScore is one day of a multi-day comparison.
type DayScore struct {
	Date        string `json:"date"`
	OptimalTime string `json:"optimalTime"`
	MaxScore    int    `json:"maxScore"`
	Advice      string `json:"advice"`
}
