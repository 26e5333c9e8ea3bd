// Package api provides the HTTP API for cragcast.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/cragcast/cragcast/internal/api/handler"
	"github.com/cragcast/cragcast/internal/api/middleware"
	"github.com/cragcast/cragcast/internal/catalog"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics
	RequireTLS  bool

	Catalog      *catalog.Catalog
	Climbing     handler.Recommender
	Providers    handler.ProviderHealthSource
	WeatherCache handler.CacheStatsSource
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "cragcast-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))         // Structured logging
	r.Use(middleware.Recovery(cfg.Logger))       // Panic recovery
	r.Use(chimiddleware.RealIP)                  // Real IP extraction
	r.Use(middleware.SecurityHeaders)            // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS)) // TLS enforcement
	r.Use(middleware.ContentTypeJSON)            // JSON content type

	locationCount := 0
	if cfg.Catalog != nil {
		locationCount = cfg.Catalog.Len()
	}

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:       cfg.Version,
		BuildTime:     cfg.BuildTime,
		Providers:     cfg.Providers,
		Cache:         cfg.WeatherCache,
		LocationCount: locationCount,
	})
	climbingHandler := handler.NewClimbingHandler(cfg.Climbing, cfg.Logger)

	// Rate limits per endpoint category
	expensiveRateLimit := middleware.RateLimitByIPAndEndpoint(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)              // 100 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		// Catalog endpoints - standard rate limiting
		if cfg.Catalog != nil {
			catalogHandler := handler.NewCatalogHandler(cfg.Catalog, cfg.Logger)

			r.Route("/locations", func(r chi.Router) {
				r.Use(standardRateLimit)
				r.Get("/", catalogHandler.ListLocations)
				r.Route("/{locationId}", func(r chi.Router) {
					r.Get("/", catalogHandler.GetLocation)
					r.Get("/spots", catalogHandler.ListSpots)
				})
			})
			r.With(standardRateLimit).Get("/grades/convert", catalogHandler.ConvertGrade)
		}

		// Forecast-backed endpoints - strict rate limiting
		if cfg.Climbing != nil {
			r.With(expensiveRateLimit, middleware.RequireJSON).Post("/recommendations", climbingHandler.Recommend)
			r.With(expensiveRateLimit, middleware.RequireJSON).Post("/recommendations:compare", climbingHandler.CompareDays)
		}

		// Pure computations - standard rate limiting
		r.With(standardRateLimit, middleware.RequireJSON).Post("/hours:score", climbingHandler.ScoreHours)
		r.With(standardRateLimit, middleware.RequireJSON).Post("/conditions:analyze", climbingHandler.AnalyzeConditions)
	})

	return r
}

