// Package main provides the entrypoint for the Loopcast maintenance worker.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/loopcast/loopcast/internal/catalog"
	"github.com/loopcast/loopcast/internal/config"
	"github.com/loopcast/loopcast/internal/database"
	"github.com/loopcast/loopcast/internal/logarchive"
	"github.com/loopcast/loopcast/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "loopcast-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting Loopcast worker")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if cfg.PubSubProjectID == "" {
		log.Fatal().Msg("PUBSUB_PROJECT_ID must be set for the worker")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.ConnectWithRetry(ctx, cfg.DatabaseURL, 1*time.Minute)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().Msg("database connected")

	catalogService := catalog.NewService(catalog.ServiceConfig{
		Repository:     catalog.NewPostgresRepository(pool),
		Logger:         log,
		MediaRoot:      cfg.MediaRoot,
		ThumbnailsRoot: cfg.ThumbnailsRoot,
		PublicBaseURL:  cfg.PublicBaseURL,
	})

	logService := logarchive.NewService(logarchive.ServiceConfig{
		Logger:        log,
		Root:          cfg.DeviceLogsRoot,
		RetentionDays: cfg.LogRetentionDays,
	})

	jobs := worker.NewJobs(worker.JobsConfig{
		Catalog: catalogService,
		Logs:    logService,
		DB:      pool,
		Logger:  log,
	})

	handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
		ProjectID:        cfg.PubSubProjectID,
		SubscriptionName: cfg.PubSubSubscription,
		Jobs:             jobs,
		Logger:           log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create pubsub handler")
	}

	// Health endpoint so the platform can probe the worker.
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok","version":%q}`, Version)
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("health server error")
		}
	}()

	// Receive blocks until the context is cancelled.
	errCh := make(chan error, 1)
	go func() {
		errCh <- handler.Start(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info().Msg("shutting down worker")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("pubsub handler stopped")
		}
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	if err := handler.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close pubsub handler")
	}

	log.Info().Msg("worker stopped")
}
