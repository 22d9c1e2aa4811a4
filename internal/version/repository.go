package version

import "context"

// Repository persists firmware versions.
type Repository interface {
	Get(ctx context.Context, id int64) (*Version, error)
	GetByModel(ctx context.Context, deviceModel string) (*Version, error)
	// List returns all versions, newest first.
	List(ctx context.Context) ([]Version, error)
	Create(ctx context.Context, v *Version) error
	Delete(ctx context.Context, id int64) error
}
