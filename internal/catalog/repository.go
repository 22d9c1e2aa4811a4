package catalog

import "context"

// Repository persists catalog categories and videos.
type Repository interface {
	// Categories.
	GetCategory(ctx context.Context, id int64) (*Category, error)
	GetCategoryByTitle(ctx context.Context, title string) (*Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, c *Category) error
	UpdateCategory(ctx context.Context, c *Category) error
	// DeleteCategory removes the category and every video in it in one
	// transaction.
	DeleteCategory(ctx context.Context, id int64) error

	// Videos.
	GetVideo(ctx context.Context, id int64) (*Video, error)
	GetVideoBySrc(ctx context.Context, src string) (*Video, error)
	ListVideos(ctx context.Context, categoryID int64) ([]Video, error)
	CreateVideo(ctx context.Context, v *Video) error
	UpdateVideo(ctx context.Context, v *Video) error
	DeleteVideo(ctx context.Context, id int64) error
}
