package stats

import (
	"context"
	"time"
)

// Repository answers aggregate queries over usage events. Windows are
// half-open: [from, to). The Device-prefixed variants group by device in a
// single query each, so the per-device breakdown never costs more queries as
// the fleet grows.
type Repository interface {
	Totals(ctx context.Context, from, to time.Time) (Totals, error)
	TopVideos(ctx context.Context, from, to time.Time, limit uint64) ([]VideoPlays, error)
	CategoryPlays(ctx context.Context, from, to time.Time) ([]CategoryRow, error)

	DeviceTotals(ctx context.Context, from, to time.Time) ([]DeviceTotals, error)
	DeviceTopVideos(ctx context.Context, from, to time.Time, limit uint64) ([]DeviceVideoPlays, error)
	DeviceCategoryPlays(ctx context.Context, from, to time.Time) ([]DeviceCategoryRow, error)
}
