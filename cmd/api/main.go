// Package main provides the entrypoint for the cragcast API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cragcast/cragcast/internal/api"
	"github.com/cragcast/cragcast/internal/api/middleware"
	"github.com/cragcast/cragcast/internal/bootstrap"
	"github.com/cragcast/cragcast/internal/climbing"
	"github.com/cragcast/cragcast/internal/config"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const serviceName = "cragcast-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		zerolog.New(os.Stderr).Fatal().Err(err).Msg("failed to load configuration")
	}

	log := bootstrap.Logger(cfg, serviceName, Version)
	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.Environment).
		Msg("starting cragcast API")

	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("server stopped")
}

func run(cfg config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	flush, err := bootstrap.Telemetry(ctx, cfg, serviceName, Version, log)
	if err != nil {
		return err
	}
	defer flush()

	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		return fmt.Errorf("http metrics: %w", err)
	}
	climbingMetrics, err := climbing.NewMetrics()
	if err != nil {
		return fmt.Errorf("climbing metrics: %w", err)
	}

	cat, err := bootstrap.Catalog(cfg, log)
	if err != nil {
		return err
	}

	wx, err := bootstrap.NewWeather(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("weather service: %w", err)
	}
	defer wx.Close()

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: api.NewRouter(api.RouterConfig{
			Version:     Version,
			BuildTime:   BuildTime,
			Logger:      log,
			ServiceName: serviceName,
			Metrics:     httpMetrics,
			RequireTLS:  cfg.RequireTLS,
			Catalog:     cat,
			Climbing: climbing.NewService(climbing.ServiceConfig{
				Weather:  wx.Service,
				Catalog:  cat,
				Logger:   log,
				Metrics:  climbingMetrics,
				Timezone: cfg.Timezone,
			}),
			Providers:    wx.Registry,
			WeatherCache: wx.Service,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().
			Str("addr", server.Addr).
			Str("provider", wx.Service.ProviderName()).
			Msg("server listening")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("shutting down server")
		drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(drainCtx)
	})
	return g.Wait()
}
