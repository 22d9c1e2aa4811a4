package catalog

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory Repository for tests.
type InMemoryRepository struct {
	mu         sync.RWMutex
	categories map[int64]*Category
	videos     map[int64]*Video
	nextCatID  int64
	nextVidID  int64
}

var _ Repository = (*InMemoryRepository)(nil)

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		categories: make(map[int64]*Category),
		videos:     make(map[int64]*Video),
		nextCatID:  1,
		nextVidID:  1,
	}
}

func (r *InMemoryRepository) GetCategory(_ context.Context, id int64) (*Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.categories[id]
	if !ok {
		return nil, ErrCategoryNotFound
	}
	out := *c
	return &out, nil
}

func (r *InMemoryRepository) GetCategoryByTitle(_ context.Context, title string) (*Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.categories {
		if c.Title == title {
			out := *c
			return &out, nil
		}
	}
	return nil, ErrCategoryNotFound
}

func (r *InMemoryRepository) ListCategories(_ context.Context) ([]Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Category, 0, len(r.categories))
	for _, c := range r.categories {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (r *InMemoryRepository) CreateCategory(_ context.Context, c *Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.categories {
		if existing.Title == c.Title {
			return ErrCategoryExists
		}
	}
	c.ID = r.nextCatID
	r.nextCatID++
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	stored := *c
	r.categories[stored.ID] = &stored
	return nil
}

func (r *InMemoryRepository) UpdateCategory(_ context.Context, c *Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.categories[c.ID]
	if !ok {
		return ErrCategoryNotFound
	}
	existing.Title = c.Title
	existing.Icon = c.Icon
	existing.UpdatedAt = time.Now().UTC()
	c.UpdatedAt = existing.UpdatedAt
	return nil
}

func (r *InMemoryRepository) DeleteCategory(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[id]; !ok {
		return ErrCategoryNotFound
	}
	delete(r.categories, id)
	// Mirror the FK cascade.
	for vid, v := range r.videos {
		if v.CategoryID == id {
			delete(r.videos, vid)
		}
	}
	return nil
}

func (r *InMemoryRepository) GetVideo(_ context.Context, id int64) (*Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.videos[id]
	if !ok {
		return nil, ErrVideoNotFound
	}
	out := *v
	return &out, nil
}

func (r *InMemoryRepository) GetVideoBySrc(_ context.Context, src string) (*Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, v := range r.videos {
		if v.Src == src {
			out := *v
			return &out, nil
		}
	}
	return nil, ErrVideoNotFound
}

func (r *InMemoryRepository) ListVideos(_ context.Context, categoryID int64) ([]Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Video
	for _, v := range r.videos {
		if v.CategoryID == categoryID {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (r *InMemoryRepository) CreateVideo(_ context.Context, v *Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.videos {
		if existing.Src == v.Src {
			return ErrVideoExists
		}
	}
	v.ID = r.nextVidID
	r.nextVidID++
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now

	stored := *v
	r.videos[stored.ID] = &stored
	return nil
}

func (r *InMemoryRepository) UpdateVideo(_ context.Context, v *Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.videos[v.ID]
	if !ok {
		return ErrVideoNotFound
	}
	existing.CategoryID = v.CategoryID
	existing.Title = v.Title
	existing.Description = v.Description
	existing.Src = v.Src
	existing.Thumbnail = v.Thumbnail
	existing.Size = v.Size
	existing.UpdatedAt = time.Now().UTC()
	v.UpdatedAt = existing.UpdatedAt
	return nil
}

func (r *InMemoryRepository) DeleteVideo(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.videos[id]; !ok {
		return ErrVideoNotFound
	}
	delete(r.videos, id)
	return nil
}
