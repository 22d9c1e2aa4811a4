// Package main provides the entrypoint for the Loopcast API server.
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

	"github.com/loopcast/loopcast/internal/api"
	"github.com/loopcast/loopcast/internal/api/middleware"
	"github.com/loopcast/loopcast/internal/catalog"
	"github.com/loopcast/loopcast/internal/config"
	"github.com/loopcast/loopcast/internal/database"
	"github.com/loopcast/loopcast/internal/device"
	"github.com/loopcast/loopcast/internal/identity"
	"github.com/loopcast/loopcast/internal/logarchive"
	"github.com/loopcast/loopcast/internal/notify"
	"github.com/loopcast/loopcast/internal/scheduler"
	"github.com/loopcast/loopcast/internal/stats"
	"github.com/loopcast/loopcast/internal/telemetry"
	"github.com/loopcast/loopcast/internal/usage"
	"github.com/loopcast/loopcast/internal/version"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "loopcast-api"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting Loopcast API")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:      serviceName,
		ServiceVersion:   Version,
		Environment:      cfg.Env,
		OTLPEndpoint:     cfg.OTLPEndpoint,
		Enabled:          cfg.OTELEnabled,
		TraceSampleRatio: cfg.OTELSampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.OTELEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	jobMetrics, err := middleware.NewJobMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize job metrics")
		os.Exit(1)
	}

	// Connect to database and apply pending migrations.
	pool, err := database.ConnectWithRetry(ctx, cfg.DatabaseURL, 1*time.Minute)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().Msg("database connected")

	if err := database.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	log.Info().Msg("migrations applied")

	tokens := identity.NewTokenService(identity.TokenConfig{
		SigningKey: cfg.OperatorJWTKey,
		Issuer:     "https://api.loopcast.io",
		Audience:   serviceName,
	})
	if cfg.OperatorJWTKey == "" {
		log.Warn().Msg("OPERATOR_JWT_KEY not set - operator endpoints will reject all tokens")
	}

	// The notifier is optional; without a base URL the services skip
	// notifications entirely.
	var notifier *notify.Service
	if cfg.NotifierBaseURL != "" {
		notifier = notify.NewService(notify.ServiceConfig{
			Client:  notify.NewClient(notify.ClientConfig{}),
			Logger:  log,
			BaseURL: cfg.NotifierBaseURL,
		})
		log.Info().Str("base_url", cfg.NotifierBaseURL).Msg("notifier initialized")
	}

	versionService := version.NewService(version.ServiceConfig{
		Repository: version.NewPostgresRepository(pool),
		Logger:     log,
	})

	deviceConfig := device.ServiceConfig{
		Repository: device.NewPostgresRepository(pool),
		Versions:   versionService,
		Logger:     log,
	}
	if notifier != nil {
		deviceConfig.Notifier = notifier
	}
	deviceService := device.NewService(deviceConfig)

	usageService := usage.NewService(usage.ServiceConfig{
		Repository: usage.NewPostgresRepository(pool),
		Logger:     log,
	})

	statsService := stats.NewService(stats.ServiceConfig{
		Repository: stats.NewPostgresRepository(pool),
		Logger:     log,
	})

	catalogConfig := catalog.ServiceConfig{
		Repository:     catalog.NewPostgresRepository(pool),
		Logger:         log,
		MediaRoot:      cfg.MediaRoot,
		ThumbnailsRoot: cfg.ThumbnailsRoot,
		PublicBaseURL:  cfg.PublicBaseURL,
	}
	if notifier != nil {
		catalogConfig.Notifier = notifier
	}
	catalogService := catalog.NewService(catalogConfig)

	logService := logarchive.NewService(logarchive.ServiceConfig{
		Logger:        log,
		Root:          cfg.DeviceLogsRoot,
		RetentionDays: cfg.LogRetentionDays,
	})

	// Reconcile the catalog with the media directory before serving traffic.
	report, err := catalogService.Sync(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("initial catalog sync failed")
	}
	log.Info().
		Int64("categories_created", report.CategoriesCreated).
		Int64("videos_created", report.VideosCreated).
		Int64("entries_skipped", report.EntriesSkipped).
		Msg("initial catalog sync complete")

	sched := scheduler.New(log, jobMetrics)
	if err := sched.Add(scheduler.Job{
		Name:       "connectivity-sweep",
		Spec:       fmt.Sprintf("@every %s", cfg.HeartbeatPeriod),
		RunAtStart: true,
		Run: func(ctx context.Context) error {
			return deviceService.SweepConnectivity(ctx, time.Now().UTC(), cfg.StalenessThreshold)
		},
	}); err != nil {
		log.Fatal().Err(err).Msg("failed to register connectivity sweep")
	}
	if err := sched.Add(scheduler.Job{
		Name: "log-retention-sweep",
		Spec: "0 2 * * *",
		Run: func(ctx context.Context) error {
			deleted, err := logService.RetentionSweep(ctx)
			if deleted > 0 {
				log.Info().Int64("deleted", deleted).Msg("log retention sweep removed files")
			}
			return err
		},
	}); err != nil {
		log.Fatal().Err(err).Msg("failed to register log retention sweep")
	}
	if err := sched.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}
	log.Info().
		Stringer("heartbeat_period", cfg.HeartbeatPeriod).
		Msg("scheduler started")

	router := api.NewRouter(api.RouterConfig{
		Version:        Version,
		BuildTime:      BuildTime,
		Logger:         log,
		ServiceName:    serviceName,
		RequireTLS:     cfg.RequireTLS,
		Metrics:        metrics,
		DB:             pool,
		Tokens:         tokens,
		DeviceService:  deviceService,
		UsageService:   usageService,
		StatsService:   statsService,
		CatalogService: catalogService,
		VersionService: versionService,
		LogService:     logService,
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sched.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("scheduler did not stop cleanly")
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
