package bootstrap

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/cragcast/cragcast/internal/catalog"
	"github.com/cragcast/cragcast/internal/config"
	"github.com/cragcast/cragcast/internal/telemetry"
)

// Logger returns the process logger tagged with the service name and version.
func Logger(cfg config.Config, service, version string) zerolog.Logger {
	return zerolog.New(os.Stdout).
		Level(cfg.LogLevel).
		With().
		Timestamp().
		Str("service", service).
		Str("version", version).
		Logger()
}

// Telemetry installs the OTel providers and returns a function that flushes
// them. The returned function is safe to defer even when export is disabled.
func Telemetry(ctx context.Context, cfg config.Config, service, version string, log zerolog.Logger) (func(), error) {
	p, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    service,
		ServiceVersion: version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTELEnabled,
		SampleRatio:    cfg.OTELSampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	if cfg.OTELEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Float64("sample_ratio", cfg.OTELSampleRatio).
			Msg("OpenTelemetry initialized")
	}

	return func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.Shutdown(flushCtx); err != nil {
			log.Error().Err(err).Msg("failed to shutdown telemetry")
		}
	}, nil
}

// Catalog loads the location catalog from CATALOG_PATH, falling back to the
// embedded default.
func Catalog(cfg config.Config, log zerolog.Logger) (*catalog.Catalog, error) {
	var (
		cat *catalog.Catalog
		err error
	)
	if cfg.CatalogPath == "" {
		cat, err = catalog.Default()
	} else {
		cat, err = catalog.LoadFile(cfg.CatalogPath)
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	log.Info().
		Int("locations", cat.Len()).
		Str("source", sourceName(cfg.CatalogPath)).
		Msg("catalog loaded")
	return cat, nil
}

func sourceName(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}
