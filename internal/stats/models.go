// Package stats computes playback KPIs over recorded usage events.
package stats

// Totals is the aggregate playback time over a window. TotalSeconds sums
// closed sessions only; ActiveDays counts days with any event, open sessions
// included.
type Totals struct {
	TotalSeconds int64
	ActiveDays   int64
}

// DeviceTotals is one device's totals in a fleet-wide grouped query.
type DeviceTotals struct {
	DeviceID int64
	Totals
}

// VideoPlays is a play count for one video. Title and Thumbnail are nil when
// the video row no longer exists in the catalog.
type VideoPlays struct {
	VideoID   int64
	Title     *string
	Thumbnail *string
	Plays     int64
}

// DeviceVideoPlays is one device's ranked video in a fleet-wide grouped query.
type DeviceVideoPlays struct {
	DeviceID int64
	VideoPlays
}

// CategoryRow is a raw per-category play count. Title and Icon are nil when
// the category no longer exists in the catalog.
type CategoryRow struct {
	CategoryID *int64
	Title      *string
	Icon       *string
	Plays      int64
}

// DeviceCategoryRow is one device's category count in a fleet-wide grouped
// query.
type DeviceCategoryRow struct {
	DeviceID int64
	CategoryRow
}
