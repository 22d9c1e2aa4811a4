package models

import "time"

// Device represents a fleet device in API responses. The secret hash is
// deliberately never serialized.
type Device struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Active      bool       `json:"active"`
	Connected   bool       `json:"connected"`
	VersionID   *int64     `json:"versionId,omitempty"`
	PrimaryUser *int64     `json:"primaryUser,omitempty"`
	PaymentRef  *string    `json:"paymentRef,omitempty"`
	ValidUntil  *time.Time `json:"validUntil,omitempty"`
	LastSeen    *time.Time `json:"lastSeen,omitempty"`
	Localization *Point    `json:"localization,omitempty"`
	IP          *string    `json:"ip,omitempty"`
	City        *string    `json:"city,omitempty"`
	Country     *string    `json:"country,omitempty"`
	Wifi        *string    `json:"wifi,omitempty"`
	UsedSpace   int64      `json:"usedSpace"`
	TotalSpace  *int64     `json:"totalSpace,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// DeviceCreateRequest is the payload for registering a device.
type DeviceCreateRequest struct {
	Name       string  `json:"name"`
	SecretHash string  `json:"secretHash"`
	Active     bool    `json:"active"`
	// ValidityDays turns into an absolute expiry; nil or <= 0 means
	// unlimited validity.
	ValidityDays *int    `json:"validityDays,omitempty"`
	VersionID    *int64  `json:"versionId,omitempty"`
	PrimaryUser  *int64  `json:"primaryUser,omitempty"`
	PaymentRef   *string `json:"paymentRef,omitempty"`
}

// DeviceUpdateRequest is the payload for editing a device.
type DeviceUpdateRequest struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	SecretHash   string  `json:"secretHash"`
	Active       bool    `json:"active"`
	ValidityDays *int    `json:"validityDays,omitempty"`
	PrimaryUser  *int64  `json:"primaryUser,omitempty"`
	PaymentRef   *string `json:"paymentRef,omitempty"`
	Users        []int64 `json:"users,omitempty"`
}

// DeviceMetadataRequest is the telemetry payload a device reports about
// itself.
type DeviceMetadataRequest struct {
	LastSeen     *time.Time `json:"lastConnection,omitempty"`
	Localization *Point     `json:"localization,omitempty"`
	IP           *string    `json:"ip,omitempty"`
	City         *string    `json:"city,omitempty"`
	Country      *string    `json:"country,omitempty"`
	Wifi         *string    `json:"currentWifi,omitempty"`
	UsedSpace    int64      `json:"usedSpace"`
	TotalSpace   *int64     `json:"totalSpace,omitempty"`
	// Version is the device-model version name; unknown names are rejected.
	Version string `json:"version,omitempty"`
}
