package models

import "time"

// Category is a catalog category in API responses.
type Category struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Icon      string    `json:"icon"`
	Videos    []Video   `json:"videos,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Video is a catalog video in API responses. Size is the raw byte count;
// HumanSize is the same value formatted for display.
type Video struct {
	ID          int64     `json:"id"`
	CategoryID  int64     `json:"categoryId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Src         string    `json:"src"`
	Thumbnail   *string   `json:"thumbnail,omitempty"`
	Size        int64     `json:"size"`
	HumanSize   string    `json:"humanSize"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CategoryCreateRequest creates a new category. Icon falls back to a default
// when empty.
type CategoryCreateRequest struct {
	Title string `json:"title"`
	Icon  string `json:"icon,omitempty"`
}

// CategoryRenameRequest renames an existing category.
type CategoryRenameRequest struct {
	Title string `json:"title"`
}

// VideoUpdateRequest edits video metadata. Absent fields are left untouched.
type VideoUpdateRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	CategoryID  *int64  `json:"categoryId,omitempty"`
}

// SyncReport summarizes one catalog filesystem reconciliation.
type SyncReport struct {
	CategoriesCreated int64 `json:"categoriesCreated"`
	VideosCreated     int64 `json:"videosCreated"`
	EntriesSkipped    int64 `json:"entriesSkipped"`
}
