// Package version tracks published firmware builds per device model.
package version

import (
	"errors"
	"time"
)

var (
	ErrVersionNotFound = errors.New("version not found")
	ErrVersionExists   = errors.New("version already exists")
)

// Version is one published release. DeviceModel is unique: publishing a new
// release for a model replaces the pointer devices resolve on check-in. Each
// platform carries its own build name and download URL; a platform without a
// build stays nil.
type Version struct {
	ID          int64
	DeviceModel string
	Android     *string
	AndroidURL  *string
	IOS         *string
	IOSURL      *string
	Notes       *string
	CreatedAt   time.Time
}
