package climbing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/cragcast/cragcast/internal/climbing"

// Metrics holds the instruments recorded by the climbing service.
type Metrics struct {
	bestScore       metric.Int64Histogram
	recommendations metric.Int64Counter
}

// NewMetrics creates climbing metrics on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	bestScore, err := meter.Int64Histogram(
		"climbing.best_score",
		metric.WithDescription("Best hourly climbing score per recommendation"),
		metric.WithUnit("{point}"),
		metric.WithExplicitBucketBoundaries(0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10),
	)
	if err != nil {
		return nil, err
	}

	recommendations, err := meter.Int64Counter(
		"climbing.recommendations.total",
		metric.WithDescription("Number of recommendations computed"),
		metric.WithUnit("{recommendation}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{bestScore: bestScore, recommendations: recommendations}, nil
}

func (m *Metrics) record(ctx context.Context, locationID string, best int, optimal bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("location.id", locationID),
		attribute.Bool("optimal", optimal),
	)
	m.bestScore.Record(context.WithoutCancel(ctx), int64(best), attrs)
	m.recommendations.Add(context.WithoutCancel(ctx), 1, attrs)
}
