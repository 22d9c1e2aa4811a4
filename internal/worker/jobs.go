// Package worker processes operator maintenance jobs delivered over Pub/Sub.
package worker

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/loopcast/loopcast/internal/api/models"
)

// Job types accepted by the worker.
const (
	JobCatalogSync    = "catalog_sync"
	JobRetentionSweep = "retention_sweep"
	JobHealthCheck    = "health_check"
)

// ErrUnknownJob is returned for job types the worker does not handle.
var ErrUnknownJob = fmt.Errorf("unknown job type")

// CatalogSyncer reconciles the catalog with the media directory.
type CatalogSyncer interface {
	Sync(ctx context.Context) (*models.SyncReport, error)
}

// LogSweeper prunes expired device log files.
type LogSweeper interface {
	RetentionSweep(ctx context.Context) (int64, error)
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Jobs dispatches operator jobs to the owning services.
type Jobs struct {
	catalog CatalogSyncer
	logs    LogSweeper
	db      Pinger
	logger  zerolog.Logger
}

// JobsConfig holds the job dependencies.
type JobsConfig struct {
	Catalog CatalogSyncer
	Logs    LogSweeper
	DB      Pinger
	Logger  zerolog.Logger
}

// NewJobs creates a job dispatcher.
func NewJobs(cfg JobsConfig) *Jobs {
	return &Jobs{
		catalog: cfg.Catalog,
		logs:    cfg.Logs,
		db:      cfg.DB,
		logger:  cfg.Logger.With().Str("component", "worker").Logger(),
	}
}

// Run executes one job by type.
func (j *Jobs) Run(ctx context.Context, jobType string) error {
	switch jobType {
	case JobCatalogSync:
		return j.runCatalogSync(ctx)
	case JobRetentionSweep:
		return j.runRetentionSweep(ctx)
	case JobHealthCheck:
		return j.runHealthCheck(ctx)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownJob, jobType)
	}
}

func (j *Jobs) runCatalogSync(ctx context.Context) error {
	report, err := j.catalog.Sync(ctx)
	if err != nil {
		return fmt.Errorf("catalog sync: %w", err)
	}
	j.logger.Info().
		Int64("categories_created", report.CategoriesCreated).
		Int64("videos_created", report.VideosCreated).
		Int64("entries_skipped", report.EntriesSkipped).
		Msg("catalog sync job completed")
	return nil
}

func (j *Jobs) runRetentionSweep(ctx context.Context) error {
	deleted, err := j.logs.RetentionSweep(ctx)
	if err != nil {
		return fmt.Errorf("retention sweep: %w", err)
	}
	j.logger.Info().Int64("deleted", deleted).Msg("retention sweep job completed")
	return nil
}

func (j *Jobs) runHealthCheck(ctx context.Context) error {
	if err := j.db.Ping(ctx); err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	j.logger.Debug().Msg("health check passed")
	return nil
}
