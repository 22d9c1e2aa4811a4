package device

import (
	"context"
	"time"
)

// Repository defines the interface for device persistence.
type Repository interface {
	// Get retrieves a device by ID.
	Get(ctx context.Context, id int64) (*Device, error)

	// GetByName retrieves a device by its unique name.
	GetByName(ctx context.Context, name string) (*Device, error)

	// GetByCredentials retrieves the device matching a name and secret hash
	// pair. Returns ErrDeviceNotFound when either does not match; callers
	// must not distinguish the two cases.
	GetByCredentials(ctx context.Context, name, secretHash string) (*Device, error)

	// List retrieves all devices ordered by name.
	List(ctx context.Context) ([]*Device, error)

	// Create creates a new device and fills in its ID.
	Create(ctx context.Context, device *Device) error

	// Update updates a device's operator-editable fields.
	Update(ctx context.Context, device *Device) error

	// Delete removes a device together with its usage events and user
	// associations in a single transaction.
	Delete(ctx context.Context, id int64) error

	// ReplaceUsers replaces the set of users associated with a device.
	ReplaceUsers(ctx context.Context, deviceID int64, userIDs []int64) error

	// UpdateMetadata bulk-updates a device's self-reported telemetry fields.
	// The connectivity flag is not touched here; that belongs to the sweep.
	UpdateMetadata(ctx context.Context, deviceID int64, meta Metadata, versionID *int64) error

	// SweepConnectivity marks devices seen within threshold of now as
	// connected and all others as disconnected, as two bulk updates.
	SweepConnectivity(ctx context.Context, now time.Time, threshold time.Duration) (SweepResult, error)
}
