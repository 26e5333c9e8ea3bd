package climbing_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cragcast/cragcast/internal/climbing"
)

func f(v float64) *float64 {
	return &v
}

var (
	march = time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	july  = time.Date(2024, time.July, 15, 0, 0, 0, 0, time.UTC)
)

func TestScore_Rubric(t *testing.T) {
	tests := []struct {
		name  string
		h     climbing.HourlySummary
		month time.Month
		want  int
	}{
		{"all null, dry", climbing.HourlySummary{}, time.March, 2},
		{"all null, wet", climbing.HourlySummary{Precipitation: 1}, time.March, 0},
		{"ideal temperature lower bound", climbing.HourlySummary{Temperature: f(2), Precipitation: 1}, time.March, 1},
		{"ideal temperature upper bound", climbing.HourlySummary{Temperature: f(13), Precipitation: 1}, time.March, 1},
		{"too warm", climbing.HourlySummary{Temperature: f(13.5), Precipitation: 1}, time.March, 0},
		{"ideal humidity", climbing.HourlySummary{Humidity: f(40), Precipitation: 1}, time.March, 2},
		{"slightly humid", climbing.HourlySummary{Humidity: f(45), Precipitation: 1}, time.March, 1},
		{"humid", climbing.HourlySummary{Humidity: f(50), Precipitation: 1}, time.March, 0},
		{"dry air", climbing.HourlySummary{Humidity: f(19), Precipitation: 1}, time.March, 0},
		{"light breeze", climbing.HourlySummary{WindSpeed: f(1.4), Precipitation: 1}, time.March, 2},
		{"drying breeze", climbing.HourlySummary{WindSpeed: f(2), Precipitation: 1}, time.March, 3},
		{"strong wind", climbing.HourlySummary{WindSpeed: f(6), Precipitation: 1}, time.March, 2},
		{"still air", climbing.HourlySummary{WindSpeed: f(1), Precipitation: 1}, time.March, 0},
		{"summer cool", climbing.HourlySummary{Temperature: f(24), Precipitation: 1}, time.August, 1},
		{"summer hot", climbing.HourlySummary{Temperature: f(25), Precipitation: 1}, time.August, 0},
		{"autumn dry", climbing.HourlySummary{Humidity: f(55), Precipitation: 1}, time.October, 0},
		{"autumn comfortable", climbing.HourlySummary{Humidity: f(45), Precipitation: 1}, time.October, 2},
		{"september summer bonus only", climbing.HourlySummary{Temperature: f(20), Humidity: f(60), Precipitation: 1}, time.September, 1},
		{"september both apply", climbing.HourlySummary{Temperature: f(20), Humidity: f(45), Precipitation: 1}, time.September, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, climbing.Score(tt.h, tt.month))
		})
	}
}

func TestScoreAndSelect_ScenarioA(t *testing.T) {
	hourly := []climbing.HourlySummary{
		{Hour: 10, Temperature: f(8), Humidity: f(30), WindSpeed: f(2.5), Precipitation: 0},
	}

	result, err := climbing.ScoreAndSelect(hourly, july)
	require.NoError(t, err)

	assert.Equal(t, 9, result.MaxScore)
	assert.Equal(t, 9, result.Scored[0].Score)
	assert.Equal(t, 0, result.BestIndex)
	assert.Empty(t, result.RecommendedIndices)
}

func TestScoreAndSelect_ScenarioB(t *testing.T) {
	hourly := []climbing.HourlySummary{
		{Hour: 9, Temperature: f(8), Humidity: f(30)},  // 5
		{Hour: 10, Humidity: f(30), WindSpeed: f(1.5)}, // 6
		{Hour: 11, Humidity: f(30), WindSpeed: f(1.5)}, // 6
		{Hour: 12, Humidity: f(30)},                    // 4
	}

	result, err := climbing.ScoreAndSelect(hourly, march)
	require.NoError(t, err)

	scores := make([]int, len(result.Scored))
	for i, s := range result.Scored {
		scores[i] = s.Score
	}
	require.Equal(t, []int{5, 6, 6, 4}, scores)

	assert.Equal(t, 6, result.MaxScore)
	assert.Equal(t, 1, result.BestIndex)
	assert.Equal(t, []int{2, 0}, result.RecommendedIndices)
}

func TestScoreAndSelect_NeutralNull(t *testing.T) {
	result, err := climbing.ScoreAndSelect([]climbing.HourlySummary{{Hour: 14}}, march)
	require.NoError(t, err)
	assert.Equal(t, 2, result.MaxScore)
}

func TestScoreAndSelect_TieBreakEarliest(t *testing.T) {
	hourly := []climbing.HourlySummary{
		{Hour: 13, Humidity: f(70)},
		{Hour: 14, Humidity: f(30)},
		{Hour: 15, Humidity: f(30)},
	}

	result, err := climbing.ScoreAndSelect(hourly, march)
	require.NoError(t, err)

	assert.Equal(t, 1, result.BestIndex)
	assert.Equal(t, 14, result.Best().Hour)
	assert.Equal(t, []int{2}, result.RecommendedIndices)
}

func TestScoreAndSelect_RecommendationBound(t *testing.T) {
	hourly := make([]climbing.HourlySummary, 8)
	for i := range hourly {
		hourly[i] = climbing.HourlySummary{Hour: 9 + i, Humidity: f(30)}
	}
	hourly[5].Humidity = f(45) // one point behind

	result, err := climbing.ScoreAndSelect(hourly, march)
	require.NoError(t, err)

	assert.Equal(t, 0, result.BestIndex)
	assert.Equal(t, []int{1, 2, 3}, result.RecommendedIndices, "ties before deficits, capped at three")
	for _, i := range result.RecommendedIndices {
		assert.NotEqual(t, result.BestIndex, i)
		assert.LessOrEqual(t, result.MaxScore-result.Scored[i].Score, 1)
	}
}

func TestScoreAndSelect_DeficitOrdering(t *testing.T) {
	hourly := []climbing.HourlySummary{
		{Hour: 9, Humidity: f(45)},  // 3
		{Hour: 10, Humidity: f(30)}, // 4
		{Hour: 11, Humidity: f(45)}, // 3
		{Hour: 12, Humidity: f(30)}, // 4
		{Hour: 13, Humidity: f(90)}, // 2
	}

	result, err := climbing.ScoreAndSelect(hourly, march)
	require.NoError(t, err)

	assert.Equal(t, 1, result.BestIndex)
	assert.Equal(t, []int{3, 0, 2}, result.RecommendedIndices)
}

func TestScoreAndSelect_Deterministic(t *testing.T) {
	hourly := []climbing.HourlySummary{
		{Hour: 9, Temperature: f(4), Humidity: f(35), WindSpeed: f(3.0)},
		{Hour: 10, Temperature: f(6), Humidity: f(42), WindSpeed: f(5.0), Precipitation: 1},
		{Hour: 11, Temperature: f(9), Humidity: f(38), WindSpeed: f(2.2)},
	}

	first, err := climbing.ScoreAndSelect(hourly, march)
	require.NoError(t, err)
	second, err := climbing.ScoreAndSelect(hourly, march)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestScoreAndSelect_DoesNotMutateInput(t *testing.T) {
	hourly := []climbing.HourlySummary{
		{Hour: 9, Temperature: f(4), Humidity: f(35)},
		{Hour: 10, Temperature: f(6), WindSpeed: f(2.0)},
	}
	before := []climbing.HourlySummary{
		{Hour: 9, Temperature: f(4), Humidity: f(35)},
		{Hour: 10, Temperature: f(6), WindSpeed: f(2.0)},
	}

	_, err := climbing.ScoreAndSelect(hourly, march)
	require.NoError(t, err)

	assert.Equal(t, before, hourly)
}

func TestScoreAndSelect_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		hourly []climbing.HourlySummary
		date   time.Time
	}{
		{"empty", nil, march},
		{"zero date", []climbing.HourlySummary{{Hour: 9}}, time.Time{}},
		{"nan temperature", []climbing.HourlySummary{{Hour: 9, Temperature: f(math.NaN())}}, march},
		{"infinite wind", []climbing.HourlySummary{{Hour: 9, WindSpeed: f(math.Inf(1))}}, march},
		{"negative precipitation", []climbing.HourlySummary{{Hour: 9, Precipitation: -1}}, march},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := climbing.ScoreAndSelect(tt.hourly, tt.date)
			assert.ErrorIs(t, err, climbing.ErrInvalidInput)
		})
	}
}

func TestTimeSlotAndSummary(t *testing.T) {
	assert.Equal(t, "9:00 ~ 10:00", climbing.TimeSlot(9))
	assert.Equal(t, "23:00 ~ 24:00", climbing.TimeSlot(23))

	result, err := climbing.ScoreAndSelect([]climbing.HourlySummary{
		{Hour: 10, Temperature: f(8), Humidity: f(30), WindSpeed: f(2.5)},
	}, july)
	require.NoError(t, err)
	assert.Equal(t, "최적 시간대: 10:00 ~ 11:00 (점수: 9)", climbing.SummaryLine(result))
}
