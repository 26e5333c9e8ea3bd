package climbing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cragcast/cragcast/internal/catalog"
	"github.com/cragcast/cragcast/internal/weather"
)

// WeatherSource supplies forecasts and current conditions for a point.
type WeatherSource interface {
	GetForecast(ctx context.Context, lat, lon float64) (*weather.Forecast, error)
	GetCurrentWeather(ctx context.Context, lat, lon float64) (*weather.Observation, error)
}

// LocationLookup resolves catalog entries.
type LocationLookup interface {
	Get(id string) (*catalog.Location, error)
	Spot(locationID, spotID string) (*catalog.Spot, error)
}

// ServiceConfig holds configuration for the climbing service.
type ServiceConfig struct {
	Weather WeatherSource
	Catalog LocationLookup
	Logger  zerolog.Logger

	// Metrics is optional.
	Metrics *Metrics

	// Timezone dates and hours are interpreted in (default: Asia/Seoul).
	Timezone *time.Location

	// ForecastDays is how many days, starting today, can be requested (default: 3).
	ForecastDays int

	// MaxCompareDays bounds CompareDays (default: 3).
	MaxCompareDays int

	// Now overrides the clock (tests).
	Now func() time.Time
}

// Service answers "when should I climb" questions.
type Service struct {
	weather        WeatherSource
	catalog        LocationLookup
	logger         zerolog.Logger
	metrics        *Metrics
	tz             *time.Location
	forecastDays   int
	maxCompareDays int
	now            func() time.Time
}

// NewService creates a new climbing service.
func NewService(cfg ServiceConfig) *Service {
	tz := cfg.Timezone
	if tz == nil {
		tz = defaultTimezone()
	}

	forecastDays := cfg.ForecastDays
	if forecastDays == 0 {
		forecastDays = 3
	}

	maxCompare := cfg.MaxCompareDays
	if maxCompare == 0 {
		maxCompare = 3
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		weather:        cfg.Weather,
		catalog:        cfg.Catalog,
		logger:         cfg.Logger,
		metrics:        cfg.Metrics,
		tz:             tz,
		forecastDays:   forecastDays,
		maxCompareDays: maxCompare,
		now:            now,
	}
}

func defaultTimezone() *time.Location {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}

// Recommend finds the best hour to climb at a spot on a given day.
func (s *Service) Recommend(ctx context.Context, req Request) (*Recommendation, error) {
	date, err := s.parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	startHour, endHour, err := parseWindow(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	loc, err := s.catalog.Get(req.LocationID)
	if err != nil {
		return nil, err
	}
	spot, err := s.catalog.Spot(req.LocationID, req.SpotID)
	if err != nil {
		return nil, err
	}

	var (
		forecast *weather.Forecast
		current  *weather.Observation
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		f, err := s.weather.GetForecast(gctx, loc.Lat, loc.Lng)
		if err != nil {
			return fmt.Errorf("forecast for %s: %w", loc.ID, err)
		}
		forecast = f
		return nil
	})
	if s.isToday(date) {
		g.Go(func() error {
			obs, err := s.weather.GetCurrentWeather(gctx, loc.Lat, loc.Lng)
			if err != nil {
				// Current conditions are informational only.
				s.logger.Warn().Err(err).Str("location_id", loc.ID).Msg("current weather unavailable")
				return nil
			}
			current = obs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dayKey := date.Format("20060102")
	samples := forecast.SamplesForDate(dayKey)
	if len(samples) == 0 {
		s.logger.Warn().
			Str("location_id", loc.ID).
			Str("date", dayKey).
			Msg("forecast has no samples for requested date")
	}

	result, err := scoreDay(samples, startHour, endHour, date)
	if err != nil {
		return nil, err
	}

	best := result.Best()
	rec := &Recommendation{
		LocationID:       loc.ID,
		LocationName:     loc.Name,
		SpotID:           spot.ID,
		SpotName:         spot.Name,
		Date:             date.Format(time.DateOnly),
		OptimalTime:      TimeSlot(best.Hour),
		Summary:          SummaryLine(result),
		Advice:           Advice(best.HourlySummary),
		Hourly:           result.Scored,
		BestIndex:        result.BestIndex,
		RecommendedTimes: make([]string, 0, len(result.RecommendedIndices)),
		MaxScore:         result.MaxScore,
		Sky:              conditionText(samples, best.Hour),
		Current:          current,
		FetchedAt:        forecast.FetchedAt,
	}
	for _, i := range result.RecommendedIndices {
		rec.RecommendedTimes = append(rec.RecommendedTimes, TimeSlot(result.Scored[i].Hour))
	}

	if c, ok := conditionsFor(best.HourlySummary, rec.Sky); ok {
		a := Analyze(c)
		rec.Analysis = &a
	}

	s.metrics.record(ctx, loc.ID, result.MaxScore, rec.Analysis != nil && rec.Analysis.IsOptimal)

	s.logger.Info().
		Str("location_id", loc.ID).
		Str("spot_id", spot.ID).
		Str("date", rec.Date).
		Int("best_hour", best.Hour).
		Int("max_score", result.MaxScore).
		Msg("computed climbing recommendation")

	return rec, nil
}

// CompareRequest asks which of several days is best at a location.
type CompareRequest struct {
	LocationID string   `json:"locationId"`
	Dates      []string `json:"dates"`
	StartTime  string   `json:"startTime"`
	EndTime    string   `json:"endTime"`
}

// CompareDays scores each requested day and returns them best first.
// Days with equal scores keep chronological order.
func (s *Service) CompareDays(ctx context.Context, req CompareRequest) ([]DayScore, error) {
	if len(req.Dates) == 0 {
		return nil, fmt.Errorf("%w: at least one date is required", ErrInvalidInput)
	}
	if len(req.Dates) > s.maxCompareDays {
		return nil, fmt.Errorf("%w: at most %d dates can be compared", ErrInvalidInput, s.maxCompareDays)
	}

	dates := make([]time.Time, len(req.Dates))
	seen := make(map[string]struct{}, len(req.Dates))
	for i, raw := range req.Dates {
		d, err := s.parseDate(raw)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[raw]; dup {
			return nil, fmt.Errorf("%w: duplicate date %s", ErrInvalidInput, raw)
		}
		seen[raw] = struct{}{}
		dates[i] = d
	}
	startHour, endHour, err := parseWindow(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	loc, err := s.catalog.Get(req.LocationID)
	if err != nil {
		return nil, err
	}
	forecast, err := s.weather.GetForecast(ctx, loc.Lat, loc.Lng)
	if err != nil {
		return nil, fmt.Errorf("forecast for %s: %w", loc.ID, err)
	}

	days := make([]DayScore, len(dates))
	g, gctx := errgroup.WithContext(ctx)
	for i, d := range dates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := scoreDay(forecast.SamplesForDate(d.Format("20060102")), startHour, endHour, d)
			if err != nil {
				return err
			}
			best := result.Best()
			days[i] = DayScore{
				Date:        d.Format(time.DateOnly),
				OptimalTime: TimeSlot(best.Hour),
				MaxScore:    result.MaxScore,
				Advice:      Advice(best.HourlySummary),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(days, func(a, b int) bool {
		if days[a].MaxScore != days[b].MaxScore {
			return days[a].MaxScore > days[b].MaxScore
		}
		return days[a].Date < days[b].Date
	})
	return days, nil
}

func scoreDay(samples []weather.Sample, startHour, endHour int, date time.Time) (OptimalTimeResult, error) {
	hourly, err := Aggregate(samples, startHour, endHour)
	if err != nil {
		return OptimalTimeResult{}, err
	}
	return ScoreAndSelect(hourly, date)
}

// parseDate parses YYYY-MM-DD and checks it lies within the forecast horizon.
func (s *Service) parseDate(raw string) (time.Time, error) {
	d, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(raw), s.tz)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	today := s.today()
	last := today.AddDate(0, 0, s.forecastDays-1)
	if d.Before(today) || d.After(last) {
		return time.Time{}, fmt.Errorf("%w: date must be between %s and %s",
			ErrInvalidInput, today.Format(time.DateOnly), last.Format(time.DateOnly))
	}
	return d, nil
}

func (s *Service) today() time.Time {
	n := s.now().In(s.tz)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, s.tz)
}

func (s *Service) isToday(d time.Time) bool {
	return d.Equal(s.today())
}

// parseWindow parses HH:MM start and end times into a half-open hour range.
// Minutes are accepted but only the hour is used; "24:00" ends the day.
func parseWindow(start, end string) (int, int, error) {
	startHour, err := parseClock(start)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: startTime %v", ErrInvalidInput, err)
	}
	endHour, err := parseClock(end)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: endTime %v", ErrInvalidInput, err)
	}
	if startHour >= endHour {
		return 0, 0, fmt.Errorf("%w: endTime must be later than startTime", ErrInvalidInput)
	}
	return startHour, endHour, nil
}

var errClockFormat = errors.New("must be HH:MM")

func parseClock(raw string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 {
		return 0, errClockFormat
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, errClockFormat
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, errClockFormat
	}
	if h == 24 && m == 0 {
		return 24, nil
	}
	if h < 0 || h > 23 {
		return 0, errClockFormat
	}
	return h, nil
}

// conditionText describes the sky for an hour, preferring precipitation.
func conditionText(samples []weather.Sample, hour int) string {
	var sky string
	for _, smp := range samples {
		if smp.Hour != hour {
			continue
		}
		switch smp.Category {
		case weather.CategoryPrecipitationType:
			if !weather.NoPrecipitation(smp.Value) {
				return weather.PrecipitationText(smp.Value)
			}
		case weather.CategorySkyState:
			sky = weather.SkyText(smp.Value)
		}
	}
	return sky
}

// conditionsFor builds analyzer input for an hour when every factor is known.
func conditionsFor(h HourlySummary, condition string) (Conditions, bool) {
	if h.Temperature == nil || h.Humidity == nil || h.WindSpeed == nil {
		return Conditions{}, false
	}
	return Conditions{
		Temperature: *h.Temperature,
		Humidity:    *h.Humidity,
		WindSpeed:   *h.WindSpeed,
		DewPoint:    weather.DewPoint(*h.Temperature, *h.Humidity),
		Condition:   condition,
	}, true
}
