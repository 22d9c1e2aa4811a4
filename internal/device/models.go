// Package device provides fleet device registration, credential lookup,
// telemetry metadata updates, and the connectivity sweep.
package device

import (
	"errors"
	"time"
)

// Repository errors.
var (
	ErrDeviceNotFound = errors.New("device not found")
	ErrDeviceExists   = errors.New("device with this name already exists")
)

// Device represents one unattended playback unit in the fleet.
type Device struct {
	ID         int64
	Name       string
	SecretHash string
	Active     bool
	Connected  bool

	// VersionID references the app version assigned to this device.
	VersionID   *int64
	PrimaryUser *int64
	PaymentRef  *string

	// ValidUntil is the optional validity expiry; nil means unlimited.
	ValidUntil *time.Time

	// Telemetry reported by the device itself.
	LastSeen    *time.Time
	LastLat     *float64
	LastLon     *float64
	LastIP      *string
	LastCity    *string
	LastCountry *string
	CurrentWifi *string
	UsedSpace   int64
	TotalSpace  *int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Metadata is the telemetry payload a device reports about itself. Fields
// left nil clear the stored value, matching the device being the single
// source of truth for its own state.
type Metadata struct {
	LastSeen    *time.Time
	Lat         *float64
	Lon         *float64
	IP          *string
	City        *string
	Country     *string
	Wifi        *string
	UsedSpace   int64
	TotalSpace  *int64
	VersionName string
}

// SweepResult reports how many devices each phase of a connectivity sweep
// touched.
type SweepResult struct {
	Connected    int64
	Disconnected int64
}
