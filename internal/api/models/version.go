package models

import "time"

// Version is a published release for one device model, with per-platform
// build names and download URLs.
type Version struct {
	ID          int64     `json:"id"`
	DeviceModel string    `json:"deviceModel"`
	Android     *string   `json:"android,omitempty"`
	AndroidURL  *string   `json:"androidUrl,omitempty"`
	IOS         *string   `json:"ios,omitempty"`
	IOSURL      *string   `json:"iosUrl,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// VersionCreateRequest publishes a new release. At least one platform must
// carry both a build name and a download URL.
type VersionCreateRequest struct {
	DeviceModel string  `json:"deviceModel"`
	Android     *string `json:"android,omitempty"`
	AndroidURL  *string `json:"androidUrl,omitempty"`
	IOS         *string `json:"ios,omitempty"`
	IOSURL      *string `json:"iosUrl,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}
