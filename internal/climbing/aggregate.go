package climbing

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cragcast/cragcast/internal/weather"
)

type bucket struct {
	temp, hum, wind []float64
	precip          int
}

// Aggregate reduces forecast samples to one summary per hour in
// [startHour, endHour). Samples outside the range, sky samples and numeric
// values that do not parse are ignored.
func Aggregate(samples []weather.Sample, startHour, endHour int) ([]HourlySummary, error) {
	if startHour < 0 || endHour > 24 || startHour >= endHour {
		return nil, fmt.Errorf("%w: hour range [%d, %d)", ErrInvalidInput, startHour, endHour)
	}

	buckets := make([]bucket, endHour-startHour)
	for _, s := range samples {
		if s.Hour < startHour || s.Hour >= endHour {
			continue
		}
		b := &buckets[s.Hour-startHour]
		switch s.Category {
		case weather.CategoryTemperature:
			b.temp = appendParsed(b.temp, s.Value)
		case weather.CategoryHumidity:
			b.hum = appendParsed(b.hum, s.Value)
		case weather.CategoryWindSpeed:
			b.wind = appendParsed(b.wind, s.Value)
		case weather.CategoryPrecipitationType:
			if !weather.NoPrecipitation(strings.TrimSpace(s.Value)) {
				b.precip++
			}
		}
	}

	out := make([]HourlySummary, len(buckets))
	for i, b := range buckets {
		out[i] = HourlySummary{
			Hour:          startHour + i,
			Temperature:   meanRounded(b.temp, roundHalfUp),
			Humidity:      meanRounded(b.hum, roundHalfUp),
			WindSpeed:     meanRounded(b.wind, roundTenth),
			Precipitation: b.precip,
		}
	}
	return out, nil
}

func appendParsed(vals []float64, raw string) []float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return vals
	}
	return append(vals, v)
}

func meanRounded(vals []float64, round func(float64) float64) *float64 {
	if len(vals) == 0 {
		return nil
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	m := round(sum / float64(len(vals)))
	return &m
}

// roundHalfUp rounds x.5 towards positive infinity.
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

func roundTenth(x float64) float64 {
	return math.Round(x*10) / 10
}
