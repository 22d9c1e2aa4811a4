package models

// TopVideo is one entry in a most-played ranking. Thumbnail is null for
// videos no longer in the catalog.
type TopVideo struct {
	VideoID   int64   `json:"videoId"`
	Title     string  `json:"title"`
	Thumbnail *string `json:"thumbnail"`
	Plays     int64   `json:"plays"`
}

// CategoryPlays is the play count for one catalog category. Sessions with no
// matching category are reported under the "Unknown" bucket, device-local
// playback under "From device files".
type CategoryPlays struct {
	CategoryID *int64 `json:"categoryId,omitempty"`
	Title      string `json:"title"`
	Icon       string `json:"icon"`
	Plays      int64  `json:"plays"`
}

// DeviceKPIs summarizes usage for a single device over a time window.
type DeviceKPIs struct {
	DeviceID         int64           `json:"deviceId"`
	TotalSeconds     int64           `json:"totalSeconds"`
	ActiveDays       int64           `json:"activeDays"`
	AvgSecondsPerDay float64         `json:"avgSecondsPerDay"`
	TopVideos        []TopVideo      `json:"topVideos"`
	Categories       []CategoryPlays `json:"categories"`
}

// GlobalKPIs summarizes usage across the whole fleet over a time window.
type GlobalKPIs struct {
	TotalSeconds     int64           `json:"totalSeconds"`
	ActiveDays       int64           `json:"activeDays"`
	AvgSecondsPerDay float64         `json:"avgSecondsPerDay"`
	TopVideos        []TopVideo      `json:"topVideos"`
	Categories       []CategoryPlays `json:"categories"`
}
