package usage_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopcast/loopcast/internal/api/models"
	"github.com/loopcast/loopcast/internal/usage"
)

func newTestService(t *testing.T) (*usage.Service, *usage.InMemoryRepository) {
	t.Helper()
	repo := usage.NewInMemoryRepository()
	svc := usage.NewService(usage.ServiceConfig{
		Repository: repo,
		Logger:     zerolog.Nop(),
	})
	return svc, repo
}

func int64Ptr(v int64) *int64 { return &v }

func TestService_RecordPlayStart(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	from := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	ev, err := svc.RecordPlayStart(ctx, 1, models.PlayStartRequest{
		VideoID:    int64Ptr(42),
		CategoryID: int64Ptr(7),
		From:       from,
		Connected:  true,
	})
	require.NoError(t, err)

	assert.NotZero(t, ev.ID)
	assert.Equal(t, int64(1), ev.DeviceID)
	assert.Equal(t, int64(42), *ev.VideoID)
	assert.Equal(t, from, ev.From)
	assert.Nil(t, ev.Duration)
}

func TestService_RecordPlayStart_DeviceLocalPlayback(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// Local files report the device-local file id and the reserved category 0.
	ev, err := svc.RecordPlayStart(ctx, 1, models.PlayStartRequest{
		VideoID:    int64Ptr(9001),
		CategoryID: int64Ptr(0),
		From:       time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(9001), *ev.VideoID)
	assert.Equal(t, int64(0), *ev.CategoryID)
}

func TestService_RecordPlayStart_MissingContentIDs(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.RecordPlayStart(context.Background(), 1, models.PlayStartRequest{
		From: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)

	var verr *usage.ValidationError
	require.ErrorAs(t, err, &verr)
	fields := make([]string, 0, len(verr.Errors))
	for _, fe := range verr.Errors {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"videoId", "categoryId"}, fields)

	// Nothing was persisted.
	events, err := svc.ListByDevice(context.Background(), 1,
		time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestService_RecordPlayStop_MissingContentIDs(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.RecordPlayStop(context.Background(), 1, models.PlayStopRequest{
		Duration: int64Ptr(60),
	})

	var verr *usage.ValidationError
	require.ErrorAs(t, err, &verr)
	fields := make([]string, 0, len(verr.Errors))
	for _, fe := range verr.Errors {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"videoId", "categoryId"}, fields)
}

func TestService_RecordPlayStart_MissingFrom(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.RecordPlayStart(context.Background(), 1, models.PlayStartRequest{
		VideoID: int64Ptr(42),
	})
	require.Error(t, err)

	var verr *usage.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "from", verr.Errors[0].Field)
}

func TestService_RecordPlayStop(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	from := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	started, err := svc.RecordPlayStart(ctx, 1, models.PlayStartRequest{
		VideoID:    int64Ptr(42),
		CategoryID: int64Ptr(7),
		From:       from,
	})
	require.NoError(t, err)

	stopped, err := svc.RecordPlayStop(ctx, 1, models.PlayStopRequest{
		VideoID:    int64Ptr(42),
		CategoryID: int64Ptr(7),
		Duration:   int64Ptr(180),
	})
	require.NoError(t, err)

	assert.Equal(t, started.ID, stopped.ID)
	require.NotNil(t, stopped.Duration)
	assert.Equal(t, int64(180), *stopped.Duration)
}

func TestService_RecordPlayStop_ClosesMostRecentStart(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	first, err := svc.RecordPlayStart(ctx, 1, models.PlayStartRequest{
		VideoID: int64Ptr(42), CategoryID: int64Ptr(7), From: base,
	})
	require.NoError(t, err)
	second, err := svc.RecordPlayStart(ctx, 1, models.PlayStartRequest{
		VideoID: int64Ptr(42), CategoryID: int64Ptr(7), From: base.Add(5 * time.Minute),
	})
	require.NoError(t, err)

	stopped, err := svc.RecordPlayStop(ctx, 1, models.PlayStopRequest{
		VideoID: int64Ptr(42), CategoryID: int64Ptr(7), Duration: int64Ptr(60),
	})
	require.NoError(t, err)

	assert.Equal(t, second.ID, stopped.ID)
	assert.NotEqual(t, first.ID, stopped.ID)
}

func TestService_RecordPlayStop_WithoutStart(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.RecordPlayStop(context.Background(), 1, models.PlayStopRequest{
		VideoID: int64Ptr(42), CategoryID: int64Ptr(7), Duration: int64Ptr(60),
	})
	assert.ErrorIs(t, err, usage.ErrEventNotFound)
}

func TestService_RecordPlayStop_MissingDuration(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.RecordPlayStop(context.Background(), 1, models.PlayStopRequest{
		VideoID: int64Ptr(42),
	})

	var verr *usage.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "duration", verr.Errors[0].Field)
}

func TestService_RecordPlayStop_OtherDeviceUnaffected(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.RecordPlayStart(ctx, 2, models.PlayStartRequest{
		VideoID: int64Ptr(42), CategoryID: int64Ptr(7),
		From: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	_, err = svc.RecordPlayStop(ctx, 1, models.PlayStopRequest{
		VideoID: int64Ptr(42), CategoryID: int64Ptr(7), Duration: int64Ptr(60),
	})
	assert.ErrorIs(t, err, usage.ErrEventNotFound)
}

func TestService_ListByDevice(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := svc.RecordPlayStart(ctx, 1, models.PlayStartRequest{
			VideoID: int64Ptr(42), CategoryID: int64Ptr(7),
			From: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	events, err := svc.ListByDevice(ctx, 1, base, base.Add(2*time.Hour))
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.True(t, events[0].From.After(events[1].From))
}
