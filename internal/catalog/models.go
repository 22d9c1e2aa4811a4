// Package catalog manages the video library and keeps it reconciled with
// the media directory on disk.
package catalog

import (
	"errors"
	"time"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")
	ErrVideoNotFound    = errors.New("video not found")
	ErrVideoExists      = errors.New("video already exists")
)

// DefaultIcon is assigned to categories created by the filesystem sync.
const DefaultIcon = "inbox"

// Category is a catalog category backed by a directory under the media root.
type Category struct {
	ID        int64
	Title     string
	Icon      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Video is a catalog entry keyed by its public source URL.
type Video struct {
	ID          int64
	CategoryID  int64
	Title       string
	Description string
	Src         string
	Thumbnail   *string
	Size        int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SyncReport summarizes one filesystem reconciliation pass.
type SyncReport struct {
	CategoriesCreated int64
	VideosCreated     int64
	EntriesSkipped    int64
}
