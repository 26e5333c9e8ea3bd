// Package weather models forecast data from external providers and serves it
// through a grid-keyed cache.
package weather

import (
	"errors"
	"math"
	"time"
)

// Weather errors.
var (
	ErrProviderUnavailable = errors.New("weather provider unavailable")
	ErrNoDataForLocation   = errors.New("no weather data for location")
	ErrInvalidCoordinates  = errors.New("invalid coordinates")
	ErrInvalidAPIKey       = errors.New("weather provider rejected the API key")
)

// Category identifies what a forecast sample measures.
type Category string

const (
	CategoryTemperature       Category = "TEMPERATURE"
	CategoryHumidity          Category = "HUMIDITY"
	CategoryWindSpeed         Category = "WIND_SPEED"
	CategoryPrecipitationType Category = "PRECIPITATION_TYPE"
	CategorySkyState          Category = "SKY_STATE"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryTemperature, CategoryHumidity, CategoryWindSpeed,
		CategoryPrecipitationType, CategorySkyState:
		return true
	default:
		return false
	}
}

// Sample is a single forecast value for one category at one hour.
// Value is kept as the provider's text; consumers parse it.
type Sample struct {
	Category Category `json:"category"`
	Date     string   `json:"date"` // YYYYMMDD
	Hour     int      `json:"hour"` // 0-23
	Value    string   `json:"value"`
}

// Forecast holds the raw hourly samples for a location.
type Forecast struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`

	Samples []Sample `json:"samples"`

	// When the forecast was fetched
	FetchedAt time.Time `json:"fetchedAt"`
}

// SamplesForDate returns the samples whose date matches date (YYYYMMDD).
func (f *Forecast) SamplesForDate(date string) []Sample {
	out := make([]Sample, 0, len(f.Samples))
	for _, s := range f.Samples {
		if s.Date == date {
			out = append(out, s)
		}
	}
	return out
}

// Observation represents current conditions at a point. A nil measurement
// was not reported or could not be read.
type Observation struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`

	// Temperature in Celsius
	Temperature *float64 `json:"temperature,omitempty"`

	// Humidity percentage (0-100)
	Humidity *float64 `json:"humidity,omitempty"`

	WindSpeed     *float64 `json:"windSpeed,omitempty"`     // m/s
	WindDirection *float64 `json:"windDirection,omitempty"` // degrees

	Sky               string `json:"sky"`
	PrecipitationType string `json:"precipitationType"`

	ObservedAt time.Time `json:"observedAt"`
	FetchedAt  time.Time `json:"fetchedAt"`
}

// Sky state codes.
const (
	SkyClear        = "1"
	SkyMostlyCloudy = "3"
	SkyOvercast     = "4"
)

// SkyText returns the Korean description for a sky state code.
func SkyText(code string) string {
	switch code {
	case SkyClear:
		return "맑음"
	case "2":
		return "구름 조금"
	case SkyMostlyCloudy:
		return "구름많음"
	case SkyOvercast:
		return "흐림"
	default:
		return ""
	}
}

// PrecipitationText returns the Korean description for a precipitation type code.
func PrecipitationText(code string) string {
	switch code {
	case "0":
		return "없음"
	case "1":
		return "비"
	case "2":
		return "비/눈"
	case "3":
		return "눈"
	case "4":
		return "소나기"
	case "5":
		return "빗방울"
	case "6":
		return "빗방울눈날림"
	case "7":
		return "눈날림"
	default:
		return code
	}
}

// NoPrecipitation reports whether a precipitation sample value means that no
// precipitation is expected. Both PTY codes and PCP amount text are accepted.
func NoPrecipitation(value string) bool {
	switch value {
	case "", "0", "강수없음", "없음":
		return true
	default:
		return false
	}
}

// Magnus formula coefficients (Alduchov & Eskridge).
const (
	magnusB = 17.625
	magnusC = 243.04
)

// DewPoint approximates the dew point in Celsius from air temperature and
// relative humidity. Humidity is clamped to (0, 100].
func DewPoint(tempC, humidity float64) float64 {
	if humidity <= 0 {
		humidity = 0.1
	}
	if humidity > 100 {
		humidity = 100
	}
	gamma := math.Log(humidity/100) + magnusB*tempC/(magnusC+tempC)
	return magnusC * gamma / (magnusB - gamma)
}
