package stats

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/loopcast/loopcast/internal/api/models"
)

const topVideoLimit = 3

// Display buckets for sessions that do not map to a live catalog entry.
const (
	localFilesTitle   = "From device files"
	localFilesIcon    = "phone_iphone"
	unknownTitle      = "Unknown"
	unknownIcon       = "question-circle"
	unknownVideoTitle = "Unknown Video"
)

// Service assembles playback KPIs from aggregate queries. Both projections
// run a fixed number of queries regardless of fleet size.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

// ServiceConfig holds the service dependencies.
type ServiceConfig struct {
	Repository Repository
	Logger     zerolog.Logger
}

// NewService creates a KPI aggregator service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger.With().Str("component", "stats").Logger(),
	}
}

// Global computes fleet-wide KPIs over [from, to).
func (s *Service) Global(ctx context.Context, from, to time.Time) (*models.GlobalKPIs, error) {
	totals, err := s.repo.Totals(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("computing totals: %w", err)
	}

	top, err := s.repo.TopVideos(ctx, from, to, topVideoLimit)
	if err != nil {
		return nil, fmt.Errorf("computing top videos: %w", err)
	}

	rows, err := s.repo.CategoryPlays(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("computing category plays: %w", err)
	}

	return &models.GlobalKPIs{
		TotalSeconds:     totals.TotalSeconds,
		ActiveDays:       totals.ActiveDays,
		AvgSecondsPerDay: avgPerDay(totals.TotalSeconds, totals.ActiveDays),
		TopVideos:        toTopVideos(top),
		Categories:       bucketCategories(rows),
	}, nil
}

// PerDevice computes KPIs for every device that reported usage in [from, to),
// using one grouped query per aggregate.
func (s *Service) PerDevice(ctx context.Context, from, to time.Time) ([]models.DeviceKPIs, error) {
	totals, err := s.repo.DeviceTotals(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("computing device totals: %w", err)
	}

	top, err := s.repo.DeviceTopVideos(ctx, from, to, topVideoLimit)
	if err != nil {
		return nil, fmt.Errorf("computing device top videos: %w", err)
	}
	topByDevice := make(map[int64][]VideoPlays)
	for _, v := range top {
		topByDevice[v.DeviceID] = append(topByDevice[v.DeviceID], v.VideoPlays)
	}

	cats, err := s.repo.DeviceCategoryPlays(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("computing device category plays: %w", err)
	}
	catsByDevice := make(map[int64][]CategoryRow)
	for _, c := range cats {
		catsByDevice[c.DeviceID] = append(catsByDevice[c.DeviceID], c.CategoryRow)
	}

	// Every event carries a device id, so the totals rows enumerate exactly
	// the active devices.
	out := make([]models.DeviceKPIs, 0, len(totals))
	for _, t := range totals {
		out = append(out, models.DeviceKPIs{
			DeviceID:         t.DeviceID,
			TotalSeconds:     t.TotalSeconds,
			ActiveDays:       t.ActiveDays,
			AvgSecondsPerDay: avgPerDay(t.TotalSeconds, t.ActiveDays),
			TopVideos:        toTopVideos(topByDevice[t.DeviceID]),
			Categories:       bucketCategories(catsByDevice[t.DeviceID]),
		})
	}
	return out, nil
}

// toTopVideos maps ranked rows to the API shape. Videos deleted from the
// catalog keep their play counts under a fallback title with no thumbnail.
func toTopVideos(rows []VideoPlays) []models.TopVideo {
	out := make([]models.TopVideo, 0, len(rows))
	for _, v := range rows {
		title := unknownVideoTitle
		if v.Title != nil {
			title = *v.Title
		}
		out = append(out, models.TopVideo{
			VideoID:   v.VideoID,
			Title:     title,
			Thumbnail: v.Thumbnail,
			Plays:     v.Plays,
		})
	}
	return out
}

// bucketCategories maps raw category counts to display buckets. The reserved
// category 0 becomes the device-local files bucket; sessions whose category
// was deleted from the catalog collapse into a single unknown bucket.
func bucketCategories(rows []CategoryRow) []models.CategoryPlays {
	out := make([]models.CategoryPlays, 0, len(rows))
	var unknown int64
	for _, row := range rows {
		switch {
		case row.CategoryID != nil && *row.CategoryID == 0:
			out = append(out, models.CategoryPlays{
				Title: localFilesTitle,
				Icon:  localFilesIcon,
				Plays: row.Plays,
			})
		case row.Title == nil || row.Icon == nil:
			unknown += row.Plays
		default:
			out = append(out, models.CategoryPlays{
				CategoryID: row.CategoryID,
				Title:      *row.Title,
				Icon:       *row.Icon,
				Plays:      row.Plays,
			})
		}
	}
	if unknown > 0 {
		out = append(out, models.CategoryPlays{
			Title: unknownTitle,
			Icon:  unknownIcon,
			Plays: unknown,
		})
	}
	return out
}

// avgPerDay returns seconds per active day rounded to two decimals, or 0
// when no day saw playback.
func avgPerDay(totalSeconds, activeDays int64) float64 {
	if activeDays == 0 {
		return 0
	}
	return math.Round(float64(totalSeconds)/float64(activeDays)*100) / 100
}
