// Package api provides the HTTP API for Loopcast.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/loopcast/loopcast/internal/api/handler"
	"github.com/loopcast/loopcast/internal/api/middleware"
	"github.com/loopcast/loopcast/internal/catalog"
	"github.com/loopcast/loopcast/internal/device"
	"github.com/loopcast/loopcast/internal/identity"
	"github.com/loopcast/loopcast/internal/logarchive"
	"github.com/loopcast/loopcast/internal/stats"
	"github.com/loopcast/loopcast/internal/usage"
	"github.com/loopcast/loopcast/internal/version"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	RequireTLS  bool
	Metrics     *middleware.Metrics

	DB             handler.Pinger
	Tokens         *identity.TokenService
	DeviceService  *device.Service
	UsageService   *usage.Service
	StatsService   *stats.Service
	CatalogService *catalog.Service
	VersionService *version.Service
	LogService     *logarchive.Service
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "loopcast-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))       // Structured logging
	r.Use(middleware.Recovery(cfg.Logger))     // Panic recovery
	r.Use(chimiddleware.RealIP)                // Real IP extraction
	r.Use(middleware.SecurityHeaders)          // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(middleware.ContentTypeJSON)          // JSON content type
	r.Use(middleware.RequireJSON)              // Reject non-JSON write bodies

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.DB, cfg.Version, cfg.BuildTime)
	telemetryHandler := handler.NewTelemetryHandler(cfg.UsageService, cfg.DeviceService, cfg.LogService)
	deviceHandler := handler.NewDeviceHandler(cfg.DeviceService, cfg.LogService)
	kpiHandler := handler.NewKPIHandler(cfg.StatsService)
	catalogHandler := handler.NewCatalogHandler(cfg.CatalogService)
	versionHandler := handler.NewVersionHandler(cfg.VersionService)

	// Auth middleware
	operatorAuth := middleware.OperatorAuth(cfg.Tokens)
	deviceAuth := middleware.DeviceAuth(cfg.DeviceService)

	// Rate limit tiers
	telemetryRateLimit := middleware.RateLimitByDevice(middleware.TelemetryRateLimit)
	uploadRateLimit := middleware.RateLimitByDevice(middleware.UploadRateLimit)
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
		})

		// Device-facing endpoints - credential headers, per-device limits
		r.Route("/from-device", func(r chi.Router) {
			r.Use(deviceAuth)
			r.With(telemetryRateLimit).Post("/played-video", telemetryHandler.PlayStart)
			r.With(telemetryRateLimit).Post("/stopped-video", telemetryHandler.PlayStop)
			r.With(telemetryRateLimit).Post("/update-metas", telemetryHandler.UpdateMetas)
			r.With(uploadRateLimit).Post("/logs-upload", telemetryHandler.LogsUpload)
		})

		// KPI endpoints (operator)
		r.Route("/kpis", func(r chi.Router) {
			r.Use(operatorAuth)
			r.Use(standardRateLimit)
			r.Get("/global", kpiHandler.GlobalKPIs)
			r.Get("/devices", kpiHandler.DeviceKPIs)
		})

		// Device management (operator)
		r.Route("/devices", func(r chi.Router) {
			r.Use(operatorAuth)
			r.Use(standardRateLimit)
			r.Get("/", deviceHandler.ListDevices)
			r.Post("/", deviceHandler.CreateDevice)
			r.Put("/{deviceId}", deviceHandler.UpdateDevice)
			r.Delete("/{deviceId}", deviceHandler.DeleteDevice)
			r.Get("/{deviceName}/logs", deviceHandler.DownloadLogs)
		})

		// Catalog
		r.Route("/catalog", func(r chi.Router) {
			// Media is public so devices stream without operator tokens.
			r.Get("/media/{category}/{name}", catalogHandler.ServeMedia)
			r.Get("/thumbnails/{category}/{name}", catalogHandler.ServeThumbnail)

			// Everything else is operator-only, writes admin-only.
			r.Group(func(r chi.Router) {
				r.Use(operatorAuth)
				r.Use(standardRateLimit)
				r.Get("/", catalogHandler.ListCatalog)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAdmin)
					r.Post("/sync", catalogHandler.Sync)
					r.Post("/categories", catalogHandler.CreateCategory)
					r.Put("/categories/{categoryId}", catalogHandler.RenameCategory)
					r.Delete("/categories/{categoryId}", catalogHandler.DeleteCategory)
					r.Post("/categories/{categoryId}/videos", catalogHandler.UploadVideo)
					r.Put("/videos/{videoId}", catalogHandler.UpdateVideo)
					r.Put("/videos/{videoId}/thumbnail", catalogHandler.UploadThumbnail)
					r.Delete("/videos/{videoId}", catalogHandler.DeleteVideo)
				})
			})
		})

		// Firmware versions
		r.Route("/versions", func(r chi.Router) {
			r.With(standardRateLimit).Get("/latest", versionHandler.LatestVersion)

			r.Group(func(r chi.Router) {
				r.Use(operatorAuth)
				r.Use(standardRateLimit)
				r.Get("/", versionHandler.ListVersions)
				r.With(middleware.RequireAdmin).Post("/", versionHandler.CreateVersion)
				r.With(middleware.RequireAdmin).Delete("/{versionId}", versionHandler.DeleteVersion)
			})
		})
	})

	return r
}
