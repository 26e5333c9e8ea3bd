// Package kma implements weather.Provider on top of the Korea Meteorological
// Administration village forecast service (VilageFcstInfoService 2.0).
package kma

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cragcast/cragcast/internal/provider/resilience"
	"github.com/cragcast/cragcast/internal/weather"
)

const (
	// ProviderName identifies this weather provider.
	ProviderName = "kma"

	// DefaultBaseURL is the village forecast service base URL.
	DefaultBaseURL = "https://apis.data.go.kr/1360000/VilageFcstInfoService_2.0"

	// Observations at or beyond ±missingThreshold mean "not measured".
	missingThreshold = 900

	nowcastPath = "/getUltraSrtNcst"
	villagePath = "/getVilageFcst"

	pageSize = 1000
	maxPages = 5

	maxBodyBytes = 4 << 20
)

// ClientConfig holds configuration for the KMA client.
type ClientConfig struct {
	// APIKey is the data.go.kr service key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to DefaultBaseURL).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger

	// Now overrides the clock used to pick base times (tests).
	Now func() time.Time
}

// Client is a KMA village forecast API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
	now        func() time.Time
}

// NewClient creates a new KMA client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
		now:        now,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// GetCurrentWeather fetches the latest ultra short-term nowcast for a location.
func (c *Client) GetCurrentWeather(ctx context.Context, lat, lon float64) (*weather.Observation, error) {
	grid := ToGrid(lat, lon)
	base := NowcastBaseTime(c.now())

	items, err := c.fetchItems(ctx, nowcastPath, base, grid)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, weather.ErrNoDataForLocation
	}

	obs := &weather.Observation{
		Lat:       lat,
		Lon:       lon,
		FetchedAt: time.Now(),
	}
	if t, err := time.ParseInLocation("200601021504", base.Date+base.Time, Seoul); err == nil {
		obs.ObservedAt = t
	}

	for _, it := range items {
		switch it.Category {
		case codeTemperature1H:
			obs.Temperature = c.measurement(it)
		case codeHumidity:
			obs.Humidity = c.measurement(it)
		case codeWindSpeed:
			obs.WindSpeed = c.measurement(it)
		case codeWindDirection:
			obs.WindDirection = c.measurement(it)
		case codeSky:
			obs.Sky = weather.SkyText(it.ObsrValue)
		case codePrecipitation:
			obs.PrecipitationType = weather.PrecipitationText(it.ObsrValue)
		}
	}
	if obs.PrecipitationType == "" {
		obs.PrecipitationType = weather.PrecipitationText("0")
	}

	return obs, nil
}

// GetForecast fetches the latest village forecast for a location.
// Only the categories the climbing rubric consumes are kept.
func (c *Client) GetForecast(ctx context.Context, lat, lon float64) (*weather.Forecast, error) {
	grid := ToGrid(lat, lon)
	base := VillageBaseTime(c.now())

	items, err := c.fetchItems(ctx, villagePath, base, grid)
	if err != nil {
		return nil, err
	}

	forecast := &weather.Forecast{
		Lat:       lat,
		Lon:       lon,
		Samples:   make([]weather.Sample, 0, len(items)),
		FetchedAt: time.Now(),
	}

	for _, it := range items {
		category, ok := forecastCategory(it.Category)
		if !ok {
			continue
		}
		hour, err := parseHour(it.FcstTime)
		if err != nil {
			c.logger.Debug().Str("fcst_time", it.FcstTime).Msg("skipping forecast item with invalid time")
			continue
		}
		forecast.Samples = append(forecast.Samples, weather.Sample{
			Category: category,
			Date:     it.FcstDate,
			Hour:     hour,
			Value:    it.FcstValue,
		})
	}

	c.logger.Debug().
		Int("nx", grid.NX).
		Int("ny", grid.NY).
		Str("base_date", base.Date).
		Str("base_time", base.Time).
		Int("samples", len(forecast.Samples)).
		Msg("fetched village forecast")

	return forecast, nil
}

// forecastCategory maps a KMA category code to a sample category.
func forecastCategory(code string) (weather.Category, bool) {
	switch code {
	case codeTemperature, codeTemperature1H:
		return weather.CategoryTemperature, true
	case codeHumidity:
		return weather.CategoryHumidity, true
	case codeWindSpeed:
		return weather.CategoryWindSpeed, true
	case codePrecipitation:
		return weather.CategoryPrecipitationType, true
	case codeSky:
		return weather.CategorySkyState, true
	default:
		return "", false
	}
}

// fetchItems pages through an endpoint until every item has been read.
func (c *Client) fetchItems(ctx context.Context, path string, base BaseTime, grid Grid) ([]item, error) {
	var items []item
	for page := 1; page <= maxPages; page++ {
		resp, err := c.fetchPage(ctx, path, base, grid, page)
		if err != nil {
			return nil, err
		}
		items = append(items, resp.Response.Body.Items.Item...)
		if len(items) >= resp.Response.Body.TotalCount || len(resp.Response.Body.Items.Item) == 0 {
			break
		}
	}
	return items, nil
}

func (c *Client) fetchPage(ctx context.Context, path string, base BaseTime, grid Grid, page int) (*apiResponse, error) {
	q := url.Values{}
	q.Set("pageNo", strconv.Itoa(page))
	q.Set("numOfRows", strconv.Itoa(pageSize))
	q.Set("dataType", "JSON")
	q.Set("base_date", base.Date)
	q.Set("base_time", base.Time)
	q.Set("nx", strconv.Itoa(grid.NX))
	q.Set("ny", strconv.Itoa(grid.NY))
	// The service key is issued URL-encoded; appending it raw avoids double encoding.
	endpoint := c.baseURL + path + "?serviceKey=" + c.apiKey + "&" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, weather.ErrInvalidAPIKey
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var out apiResponse
	if err := json.Unmarshal(body, &out); err != nil {
		// Gateway errors come back as XML regardless of dataType.
		if isKeyError(string(body)) {
			return nil, weather.ErrInvalidAPIKey
		}
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if err := resultError(out.Response.Header.ResultCode, out.Response.Header.ResultMsg); err != nil {
		return nil, err
	}
	return &out, nil
}

// resultError maps a response header to an error.
func resultError(code, msg string) error {
	switch {
	case code == resultOK:
		return nil
	case code == resultNoData:
		return weather.ErrNoDataForLocation
	case code == resultKeyNotRegistered, code == resultServiceKeyExpired, isKeyError(msg):
		return weather.ErrInvalidAPIKey
	case code == "":
		return errors.New("kma: response has no result code")
	default:
		return fmt.Errorf("kma: result %s: %s", code, msg)
	}
}

func isKeyError(s string) bool {
	return strings.Contains(s, "SERVICE_KEY") || strings.Contains(s, "OpenAPI_S")
}

// parseHour reads the hour from an HHMM time string.
func parseHour(hhmm string) (int, error) {
	if len(hhmm) < 2 {
		return 0, fmt.Errorf("invalid time %q", hhmm)
	}
	h, err := strconv.Atoi(hhmm[:2])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid time %q", hhmm)
	}
	return h, nil
}

// measurement reads a nowcast value. KMA marks missing observations with
// values at or beyond ±900; those and non-numeric text are reported as nil.
func (c *Client) measurement(it item) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(it.ObsrValue), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) >= missingThreshold {
		c.logger.Warn().
			Str("category", it.Category).
			Str("value", it.ObsrValue).
			Msg("skipping unreadable nowcast value")
		return nil
	}
	return &f
}

var _ weather.Provider = (*Client)(nil)
