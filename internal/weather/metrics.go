package weather

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/cragcast/cragcast/internal/weather"

// OTelMetrics records provider calls and cache lookups as OpenTelemetry
// instruments. It implements MetricsRecorder.
type OTelMetrics struct {
	requestDuration metric.Float64Histogram
	requests        metric.Int64Counter
	cacheLookups    metric.Int64Counter
}

// NewOTelMetrics creates the instruments on mp, or on the global meter
// provider when mp is nil.
func NewOTelMetrics(mp metric.MeterProvider) (*OTelMetrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(meterName)

	requestDuration, err := meter.Float64Histogram(
		"weather.provider.request.duration",
		metric.WithDescription("Duration of weather provider requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	requests, err := meter.Int64Counter(
		"weather.provider.requests",
		metric.WithDescription("Weather provider requests by outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	cacheLookups, err := meter.Int64Counter(
		"weather.cache.lookups",
		metric.WithDescription("Weather cache lookups by result"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	return &OTelMetrics{
		requestDuration: requestDuration,
		requests:        requests,
		cacheLookups:    cacheLookups,
	}, nil
}

// RecordRequest implements MetricsRecorder.
func (m *OTelMetrics) RecordRequest(provider, operation string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("provider.name", provider),
		attribute.String("provider.operation", operation),
		attribute.Bool("error", err != nil),
	)
	// Recorded after the request context may already be cancelled.
	ctx := context.Background()
	m.requestDuration.Record(ctx, duration.Seconds(), attrs)
	m.requests.Add(ctx, 1, attrs)
}

// RecordCacheHit implements MetricsRecorder.
func (m *OTelMetrics) RecordCacheHit(provider, operation string) {
	m.recordLookup(provider, operation, true)
}

// RecordCacheMiss implements MetricsRecorder.
func (m *OTelMetrics) RecordCacheMiss(provider, operation string) {
	m.recordLookup(provider, operation, false)
}

func (m *OTelMetrics) recordLookup(provider, operation string, hit bool) {
	m.cacheLookups.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("provider.name", provider),
		attribute.String("provider.operation", operation),
		attribute.Bool("cache.hit", hit),
	))
}
