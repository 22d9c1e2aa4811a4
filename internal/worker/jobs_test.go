package worker_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopcast/loopcast/internal/api/models"
	"github.com/loopcast/loopcast/internal/worker"
)

type fakeCatalog struct {
	calls int
	err   error
}

func (f *fakeCatalog) Sync(context.Context) (*models.SyncReport, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.SyncReport{VideosCreated: 2}, nil
}

type fakeLogs struct {
	calls int
	err   error
}

func (f *fakeLogs) RetentionSweep(context.Context) (int64, error) {
	f.calls++
	return 3, f.err
}

type fakeDB struct {
	err error
}

func (f *fakeDB) Ping(context.Context) error { return f.err }

func newTestJobs(catalog *fakeCatalog, logs *fakeLogs, db *fakeDB) *worker.Jobs {
	return worker.NewJobs(worker.JobsConfig{
		Catalog: catalog,
		Logs:    logs,
		DB:      db,
		Logger:  zerolog.Nop(),
	})
}

func TestJobs_CatalogSync(t *testing.T) {
	catalog := &fakeCatalog{}
	jobs := newTestJobs(catalog, &fakeLogs{}, &fakeDB{})

	require.NoError(t, jobs.Run(context.Background(), worker.JobCatalogSync))
	assert.Equal(t, 1, catalog.calls)
}

func TestJobs_CatalogSyncFailure(t *testing.T) {
	boom := errors.New("boom")
	jobs := newTestJobs(&fakeCatalog{err: boom}, &fakeLogs{}, &fakeDB{})

	err := jobs.Run(context.Background(), worker.JobCatalogSync)
	assert.ErrorIs(t, err, boom)
}

func TestJobs_RetentionSweep(t *testing.T) {
	logs := &fakeLogs{}
	jobs := newTestJobs(&fakeCatalog{}, logs, &fakeDB{})

	require.NoError(t, jobs.Run(context.Background(), worker.JobRetentionSweep))
	assert.Equal(t, 1, logs.calls)
}

func TestJobs_HealthCheck(t *testing.T) {
	jobs := newTestJobs(&fakeCatalog{}, &fakeLogs{}, &fakeDB{})
	require.NoError(t, jobs.Run(context.Background(), worker.JobHealthCheck))

	down := newTestJobs(&fakeCatalog{}, &fakeLogs{}, &fakeDB{err: errors.New("down")})
	assert.Error(t, down.Run(context.Background(), worker.JobHealthCheck))
}

func TestJobs_UnknownType(t *testing.T) {
	jobs := newTestJobs(&fakeCatalog{}, &fakeLogs{}, &fakeDB{})

	err := jobs.Run(context.Background(), "reticulate_splines")
	assert.ErrorIs(t, err, worker.ErrUnknownJob)
}
