// Package usage records playback sessions reported by devices and exposes
// them to the KPI aggregator.
package usage

import (
	"errors"
	"time"
)

var (
	// ErrEventNotFound is returned when no open session matches a stop report.
	ErrEventNotFound = errors.New("usage event not found")
)

// Event is one playback session. VideoID is nil for device-local playback;
// CategoryID 0 is the reserved bucket for device-local files. Duration is nil
// while the session is still open.
type Event struct {
	ID         int64
	DeviceID   int64
	VideoID    *int64
	CategoryID *int64
	StartedAt  time.Time
	Duration   *int64
	Connected  bool
	City       *string
	Country    *string
	IP         *string
	CreatedAt  time.Time
}
