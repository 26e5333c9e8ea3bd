package climbing

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// maxRecommendations caps the alternative hours returned next to the best one.
const maxRecommendations = 3

// Score rates one hour for climbing. Each factor adds points independently
// and a nil factor adds nothing.
//
//	temperature 2-13°C            +1
//	humidity 20-40%               +2, 40-50% exclusive +1
//	wind 1.4-4.2 m/s              +2, above 4.2 +1
//	wind >= 2 m/s (drying rock)   +1
//	no precipitation              +2
//	Jun-Sep, temperature < 25°C   +1
//	Sep-Dec, humidity < 50%       +1
func Score(h HourlySummary, month time.Month) int {
	score := 0
	t, hum, w := h.Temperature, h.Humidity, h.WindSpeed

	if t != nil && *t >= 2 && *t <= 13 {
		score++
	}

	if hum != nil {
		switch {
		case *hum >= 20 && *hum <= 40:
			score += 2
		case *hum > 40 && *hum < 50:
			score++
		}
	}

	if w != nil {
		switch {
		case *w >= 1.4 && *w <= 4.2:
			score += 2
		case *w > 4.2:
			score++
		}
		if *w >= 2 {
			score++
		}
	}

	if h.Precipitation == 0 {
		score += 2
	}

	if month >= time.June && month <= time.September && t != nil && *t < 25 {
		score++
	}
	if month >= time.September && month <= time.December && hum != nil && *hum < 50 {
		score++
	}

	return score
}

// ScoreAndSelect scores every hour, picks the earliest hour with the highest
// score, and up to three other hours within one point of it, closest first.
// The input slice is not modified.
func ScoreAndSelect(hourly []HourlySummary, referenceDate time.Time) (OptimalTimeResult, error) {
	if len(hourly) == 0 {
		return OptimalTimeResult{}, fmt.Errorf("%w: no hourly summaries", ErrInvalidInput)
	}
	if referenceDate.IsZero() {
		return OptimalTimeResult{}, fmt.Errorf("%w: reference date is required", ErrInvalidInput)
	}
	for _, h := range hourly {
		if err := checkFinite(h); err != nil {
			return OptimalTimeResult{}, err
		}
	}

	month := referenceDate.Month()
	scored := make([]ScoredHour, len(hourly))
	best := 0
	for i, h := range hourly {
		scored[i] = ScoredHour{HourlySummary: h, Score: Score(h, month)}
		if scored[i].Score > scored[best].Score {
			best = i
		}
	}
	maxScore := scored[best].Score

	type candidate struct{ index, deficit int }
	candidates := make([]candidate, 0, len(scored))
	for i, s := range scored {
		if i == best {
			continue
		}
		if d := maxScore - s.Score; d <= 1 {
			candidates = append(candidates, candidate{index: i, deficit: d})
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].deficit < candidates[b].deficit
	})
	if len(candidates) > maxRecommendations {
		candidates = candidates[:maxRecommendations]
	}

	recommended := make([]int, len(candidates))
	for i, c := range candidates {
		recommended[i] = c.index
	}

	return OptimalTimeResult{
		Scored:             scored,
		BestIndex:          best,
		RecommendedIndices: recommended,
		MaxScore:           maxScore,
	}, nil
}

func checkFinite(h HourlySummary) error {
	fields := []struct {
		name string
		v    *float64
	}{
		{"temperature", h.Temperature},
		{"humidity", h.Humidity},
		{"windSpeed", h.WindSpeed},
	}
	for _, f := range fields {
		if f.v != nil && (math.IsNaN(*f.v) || math.IsInf(*f.v, 0)) {
			return fmt.Errorf("%w: hour %d has non-finite %s", ErrInvalidInput, h.Hour, f.name)
		}
	}
	if h.Precipitation < 0 {
		return fmt.Errorf("%w: hour %d has negative precipitation", ErrInvalidInput, h.Hour)
	}
	return nil
}

// TimeSlot formats an hour as "H:00 ~ H+1:00".
func TimeSlot(hour int) string {
	return fmt.Sprintf("%d:00 ~ %d:00", hour, hour+1)
}

// SummaryLine formats the headline for a scored day.
func SummaryLine(r OptimalTimeResult) string {
	return fmt.Sprintf("최적 시간대: %s (점수: %d)", TimeSlot(r.Best().Hour), r.MaxScore)
}
