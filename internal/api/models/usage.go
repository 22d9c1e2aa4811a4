package models

import "time"

// PlayStartRequest reports the start of a playback session. A nil VideoID
// means content played from the device's local storage; CategoryID 0 is the
// reserved bucket for device-local files.
type PlayStartRequest struct {
	VideoID    *int64    `json:"videoId"`
	CategoryID *int64    `json:"categoryId"`
	From       time.Time `json:"from"`
	Connected  bool      `json:"connectedToInternet"`
	City       *string   `json:"city,omitempty"`
	Country    *string   `json:"country,omitempty"`
	IP         *string   `json:"ip,omitempty"`
}

// PlayStopRequest closes the most recent open session for the same
// video/category pair.
type PlayStopRequest struct {
	VideoID    *int64 `json:"videoId"`
	CategoryID *int64 `json:"categoryId"`
	// Duration of the session in seconds.
	Duration *int64 `json:"duration"`
}

// UsageEvent represents one playback session in API responses.
type UsageEvent struct {
	ID         int64     `json:"id"`
	DeviceID   int64     `json:"deviceId"`
	VideoID    *int64    `json:"videoId,omitempty"`
	CategoryID *int64    `json:"categoryId,omitempty"`
	From       time.Time `json:"from"`
	Duration   *int64    `json:"duration,omitempty"`
	Connected  bool      `json:"connectedToInternet"`
	City       *string   `json:"city,omitempty"`
	Country    *string   `json:"country,omitempty"`
	IP         *string   `json:"ip,omitempty"`
}
