package version

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory Repository for tests.
type InMemoryRepository struct {
	mu       sync.RWMutex
	versions map[int64]*Version
	nextID   int64
}

var _ Repository = (*InMemoryRepository)(nil)

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{versions: make(map[int64]*Version), nextID: 1}
}

func (r *InMemoryRepository) Get(_ context.Context, id int64) (*Version, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.versions[id]
	if !ok {
		return nil, ErrVersionNotFound
	}
	out := *v
	return &out, nil
}

func (r *InMemoryRepository) GetByModel(_ context.Context, deviceModel string) (*Version, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, v := range r.versions {
		if v.DeviceModel == deviceModel {
			out := *v
			return &out, nil
		}
	}
	return nil, ErrVersionNotFound
}

func (r *InMemoryRepository) List(_ context.Context) ([]Version, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Version, 0, len(r.versions))
	for _, v := range r.versions {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *InMemoryRepository) Create(_ context.Context, v *Version) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.versions {
		if existing.DeviceModel == v.DeviceModel {
			return ErrVersionExists
		}
	}
	v.ID = r.nextID
	r.nextID++
	v.CreatedAt = time.Now().UTC()

	stored := *v
	r.versions[stored.ID] = &stored
	return nil
}

func (r *InMemoryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.versions[id]; !ok {
		return ErrVersionNotFound
	}
	delete(r.versions, id)
	return nil
}
