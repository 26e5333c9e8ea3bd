// Package main provides the entrypoint for the forecast pre-warm worker.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cragcast/cragcast/internal/bootstrap"
	"github.com/cragcast/cragcast/internal/config"
	"github.com/cragcast/cragcast/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const serviceName = "cragcast-worker"

func main() {
	cfg, err := config.Load()
	if err != nil {
		zerolog.New(os.Stderr).Fatal().Err(err).Msg("failed to load configuration")
	}

	log := bootstrap.Logger(cfg, serviceName, Version)
	log.Info().Str("build_time", BuildTime).Msg("starting cragcast worker")

	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("worker stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("worker stopped")
}

func run(cfg config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	flush, err := bootstrap.Telemetry(ctx, cfg, serviceName, Version, log)
	if err != nil {
		return err
	}
	defer flush()

	cat, err := bootstrap.Catalog(cfg, log)
	if err != nil {
		return err
	}

	wx, err := bootstrap.NewWeather(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("weather service: %w", err)
	}
	defer wx.Close()

	refreshCfg := worker.DefaultRefreshConfig(cat)
	refreshCfg.Concurrency = cfg.RefreshConcurrency
	refreshJob := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:  refreshCfg,
		Logger:  log,
		Weather: wx.Service,
	})
	jobs := worker.NewJobs(refreshJob, log)

	// Health endpoint for Cloud Run
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":    "healthy",
			"version":   Version,
			"providers": wx.Registry.Summary(),
			"refresh":   refreshJob.MetricsSnapshot(),
		})
	})
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("health check server listening")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(drainCtx)
	})

	// Periodic refresh, starting immediately
	g.Go(func() error {
		ticker := time.NewTicker(cfg.RefreshInterval)
		defer ticker.Stop()
		for {
			if err := jobs.Handle(ctx, worker.RefreshMessage{JobType: worker.JobForecastRefresh}); err != nil {
				log.Warn().Err(err).Msg("scheduled forecast refresh failed")
			}
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})

	if cfg.PubSubProjectID != "" {
		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        cfg.PubSubProjectID,
			SubscriptionName: cfg.PubSubSubscription,
			Jobs:             jobs,
			Logger:           log,
		})
		if err != nil {
			return fmt.Errorf("pubsub handler: %w", err)
		}
		defer func() {
			if err := handler.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close pubsub client")
			}
		}()
		g.Go(func() error {
			return handler.Start(ctx)
		})
	}

	return g.Wait()
}
