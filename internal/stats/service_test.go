package stats_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopcast/loopcast/internal/stats"
)

var (
	windowFrom = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	windowTo   = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
)

func int64Ptr(v int64) *int64 { return &v }

func newTestService(t *testing.T) (*stats.Service, *stats.InMemoryRepository) {
	t.Helper()
	repo := stats.NewInMemoryRepository()
	svc := stats.NewService(stats.ServiceConfig{
		Repository: repo,
		Logger:     zerolog.Nop(),
	})
	return svc, repo
}

func seedEvent(repo *stats.InMemoryRepository, deviceID int64, videoID, categoryID *int64, day int, duration int64) {
	repo.AddEvent(stats.MemoryEvent{
		DeviceID:   deviceID,
		VideoID:    videoID,
		CategoryID: categoryID,
		StartedAt:  time.Date(2026, 3, day, 10, 0, 0, 0, time.UTC),
		Duration:   &duration,
	})
}

func seedOpenEvent(repo *stats.InMemoryRepository, deviceID int64, videoID, categoryID *int64, day int) {
	repo.AddEvent(stats.MemoryEvent{
		DeviceID:   deviceID,
		VideoID:    videoID,
		CategoryID: categoryID,
		StartedAt:  time.Date(2026, 3, day, 10, 0, 0, 0, time.UTC),
	})
}

func TestService_Global_Totals(t *testing.T) {
	svc, repo := newTestService(t)
	repo.AddCategory(1, "Nature", "tree")
	repo.AddVideo(10, "Forest")

	// Two sessions on day 5, one on day 6: 300 seconds over 2 days.
	seedEvent(repo, 1, int64Ptr(10), int64Ptr(1), 5, 100)
	seedEvent(repo, 1, int64Ptr(10), int64Ptr(1), 5, 100)
	seedEvent(repo, 2, int64Ptr(10), int64Ptr(1), 6, 100)

	k, err := svc.Global(context.Background(), windowFrom, windowTo)
	require.NoError(t, err)

	assert.Equal(t, int64(300), k.TotalSeconds)
	assert.Equal(t, int64(2), k.ActiveDays)
	assert.Equal(t, 150.0, k.AvgSecondsPerDay)
}

func TestService_Global_OpenSessionCountsAsActiveDay(t *testing.T) {
	svc, repo := newTestService(t)
	repo.AddCategory(1, "Nature", "tree")
	repo.AddVideo(10, "Forest")

	// A still-running session contributes no seconds but its day is active.
	seedEvent(repo, 1, int64Ptr(10), int64Ptr(1), 5, 100)
	seedOpenEvent(repo, 1, int64Ptr(10), int64Ptr(1), 6)

	k, err := svc.Global(context.Background(), windowFrom, windowTo)
	require.NoError(t, err)

	assert.Equal(t, int64(100), k.TotalSeconds)
	assert.Equal(t, int64(2), k.ActiveDays)
	assert.Equal(t, 50.0, k.AvgSecondsPerDay)
}

func TestService_Global_AvgRoundedTwoDecimals(t *testing.T) {
	svc, repo := newTestService(t)

	seedEvent(repo, 1, int64Ptr(9001), int64Ptr(0), 5, 50)
	seedEvent(repo, 1, int64Ptr(9001), int64Ptr(0), 6, 50)
	seedEvent(repo, 1, int64Ptr(9001), int64Ptr(0), 7, 0)

	k, err := svc.Global(context.Background(), windowFrom, windowTo)
	require.NoError(t, err)

	// 100 / 3 rounds to 33.33.
	assert.Equal(t, 33.33, k.AvgSecondsPerDay)
}

func TestService_Global_NoUsage(t *testing.T) {
	svc, _ := newTestService(t)

	k, err := svc.Global(context.Background(), windowFrom, windowTo)
	require.NoError(t, err)

	assert.Zero(t, k.TotalSeconds)
	assert.Zero(t, k.ActiveDays)
	assert.Zero(t, k.AvgSecondsPerDay)
	assert.Empty(t, k.TopVideos)
	assert.Empty(t, k.Categories)
}

func TestService_Global_TopVideos(t *testing.T) {
	svc, repo := newTestService(t)
	repo.AddCategory(1, "Nature", "tree")
	repo.AddVideoWithThumbnail(10, "Forest", "/thumbs/forest.jpg")
	repo.AddVideo(11, "Ocean")
	repo.AddVideo(12, "Desert")
	repo.AddVideo(13, "Tundra")

	for i := 0; i < 4; i++ {
		seedEvent(repo, 1, int64Ptr(11), int64Ptr(1), 5, 60)
	}
	for i := 0; i < 3; i++ {
		seedEvent(repo, 1, int64Ptr(10), int64Ptr(1), 5, 60)
	}
	for i := 0; i < 2; i++ {
		seedEvent(repo, 2, int64Ptr(12), int64Ptr(1), 5, 60)
	}
	seedEvent(repo, 2, int64Ptr(13), int64Ptr(1), 5, 60)

	k, err := svc.Global(context.Background(), windowFrom, windowTo)
	require.NoError(t, err)

	require.Len(t, k.TopVideos, 3)
	assert.Equal(t, "Ocean", k.TopVideos[0].Title)
	assert.Equal(t, int64(4), k.TopVideos[0].Plays)
	assert.Nil(t, k.TopVideos[0].Thumbnail)
	assert.Equal(t, "Forest", k.TopVideos[1].Title)
	require.NotNil(t, k.TopVideos[1].Thumbnail)
	assert.Equal(t, "/thumbs/forest.jpg", *k.TopVideos[1].Thumbnail)
	assert.Equal(t, "Desert", k.TopVideos[2].Title)
}

func TestService_Global_TopVideosExcludeDeviceLocal(t *testing.T) {
	svc, repo := newTestService(t)
	repo.AddVideo(10, "Forest")

	// Plays under the reserved category 0 never enter the ranking.
	for i := 0; i < 5; i++ {
		seedEvent(repo, 1, int64Ptr(10), int64Ptr(0), 5, 60)
	}
	seedEvent(repo, 1, int64Ptr(10), int64Ptr(1), 5, 60)

	k, err := svc.Global(context.Background(), windowFrom, windowTo)
	require.NoError(t, err)

	require.Len(t, k.TopVideos, 1)
	assert.Equal(t, int64(1), k.TopVideos[0].Plays)
}

func TestService_Global_DeletedVideoKeepsPlays(t *testing.T) {
	svc, repo := newTestService(t)
	repo.AddCategory(1, "Nature", "tree")

	// Video 77 is gone from the catalog; its plays still rank.
	seedEvent(repo, 1, int64Ptr(77), int64Ptr(1), 5, 60)
	seedEvent(repo, 1, int64Ptr(77), int64Ptr(1), 5, 60)

	k, err := svc.Global(context.Background(), windowFrom, windowTo)
	require.NoError(t, err)

	require.Len(t, k.TopVideos, 1)
	assert.Equal(t, int64(77), k.TopVideos[0].VideoID)
	assert.Equal(t, "Unknown Video", k.TopVideos[0].Title)
	assert.Nil(t, k.TopVideos[0].Thumbnail)
	assert.Equal(t, int64(2), k.TopVideos[0].Plays)
}

func TestService_Global_CategoryBuckets(t *testing.T) {
	svc, repo := newTestService(t)
	repo.AddCategory(1, "Nature", "tree")
	repo.AddVideo(10, "Forest")

	seedEvent(repo, 1, int64Ptr(10), int64Ptr(1), 5, 60)
	seedEvent(repo, 1, int64Ptr(10), int64Ptr(1), 5, 60)
	// Device-local playback.
	seedEvent(repo, 1, int64Ptr(9001), int64Ptr(0), 5, 60)
	// Category 99 was deleted from the catalog.
	seedEvent(repo, 1, int64Ptr(10), int64Ptr(99), 5, 60)
	seedEvent(repo, 1, int64Ptr(10), nil, 5, 60)

	k, err := svc.Global(context.Background(), windowFrom, windowTo)
	require.NoError(t, err)

	buckets := make(map[string]int64)
	icons := make(map[string]string)
	for _, c := range k.Categories {
		buckets[c.Title] += c.Plays
		icons[c.Title] = c.Icon
	}

	assert.Equal(t, int64(2), buckets["Nature"])
	assert.Equal(t, int64(1), buckets["From device files"])
	assert.Equal(t, "phone_iphone", icons["From device files"])
	assert.Equal(t, int64(2), buckets["Unknown"])
	assert.Equal(t, "question-circle", icons["Unknown"])
}

func TestService_PerDevice_Breakdown(t *testing.T) {
	svc, repo := newTestService(t)
	repo.AddCategory(1, "Nature", "tree")
	repo.AddVideo(10, "Forest")
	repo.AddVideo(11, "Ocean")

	seedEvent(repo, 1, int64Ptr(10), int64Ptr(1), 5, 100)
	seedEvent(repo, 2, int64Ptr(11), int64Ptr(1), 5, 200)
	seedEvent(repo, 2, int64Ptr(11), int64Ptr(1), 6, 200)

	perDevice, err := svc.PerDevice(context.Background(), windowFrom, windowTo)
	require.NoError(t, err)

	require.Len(t, perDevice, 2)

	assert.Equal(t, int64(1), perDevice[0].DeviceID)
	assert.Equal(t, int64(100), perDevice[0].TotalSeconds)
	assert.Equal(t, int64(1), perDevice[0].ActiveDays)
	require.Len(t, perDevice[0].TopVideos, 1)
	assert.Equal(t, "Forest", perDevice[0].TopVideos[0].Title)

	assert.Equal(t, int64(2), perDevice[1].DeviceID)
	assert.Equal(t, int64(400), perDevice[1].TotalSeconds)
	assert.Equal(t, int64(2), perDevice[1].ActiveDays)
	assert.Equal(t, 200.0, perDevice[1].AvgSecondsPerDay)
	require.Len(t, perDevice[1].TopVideos, 1)
	assert.Equal(t, "Ocean", perDevice[1].TopVideos[0].Title)
	require.Len(t, perDevice[1].Categories, 1)
	assert.Equal(t, "Nature", perDevice[1].Categories[0].Title)
}

func TestService_PerDevice_OpenSessionCountsAsActiveDay(t *testing.T) {
	svc, repo := newTestService(t)
	repo.AddVideo(10, "Forest")

	seedEvent(repo, 1, int64Ptr(10), int64Ptr(1), 5, 100)
	seedOpenEvent(repo, 1, int64Ptr(10), int64Ptr(1), 6)

	perDevice, err := svc.PerDevice(context.Background(), windowFrom, windowTo)
	require.NoError(t, err)

	require.Len(t, perDevice, 1)
	assert.Equal(t, int64(100), perDevice[0].TotalSeconds)
	assert.Equal(t, int64(2), perDevice[0].ActiveDays)
	assert.Equal(t, 50.0, perDevice[0].AvgSecondsPerDay)
}

func TestService_PerDevice_NoUsage(t *testing.T) {
	svc, _ := newTestService(t)

	perDevice, err := svc.PerDevice(context.Background(), windowFrom, windowTo)
	require.NoError(t, err)

	assert.Empty(t, perDevice)
}

func TestService_WindowExcludesOutsideEvents(t *testing.T) {
	svc, repo := newTestService(t)
	repo.AddCategory(1, "Nature", "tree")
	repo.AddVideo(10, "Forest")

	seedEvent(repo, 1, int64Ptr(10), int64Ptr(1), 5, 100)
	duration := int64(500)
	repo.AddEvent(stats.MemoryEvent{
		DeviceID:   1,
		VideoID:    int64Ptr(10),
		CategoryID: int64Ptr(1),
		StartedAt:  windowTo, // half-open window, boundary excluded
		Duration:   &duration,
	})

	k, err := svc.Global(context.Background(), windowFrom, windowTo)
	require.NoError(t, err)

	assert.Equal(t, int64(100), k.TotalSeconds)
}
