package usage

import (
	"context"
	"time"
)

// Repository persists playback sessions.
type Repository interface {
	// Insert stores a new event and fills in its ID and CreatedAt.
	Insert(ctx context.Context, ev *Event) error

	// CloseLatest sets the duration on the most recently started event for
	// the given device/video/category triple. Returns ErrEventNotFound when
	// no matching event exists.
	CloseLatest(ctx context.Context, deviceID int64, videoID, categoryID *int64, duration int64) (*Event, error)

	// ListByDevice returns a device's events within [from, to), newest first.
	ListByDevice(ctx context.Context, deviceID int64, from, to time.Time) ([]Event, error)
}
