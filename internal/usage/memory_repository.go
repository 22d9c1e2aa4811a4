package usage

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory Repository for tests.
type InMemoryRepository struct {
	mu     sync.RWMutex
	events map[int64]*Event
	nextID int64
}

var _ Repository = (*InMemoryRepository)(nil)

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{events: make(map[int64]*Event), nextID: 1}
}

func (r *InMemoryRepository) Insert(_ context.Context, ev *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ev.ID = r.nextID
	r.nextID++
	ev.CreatedAt = time.Now().UTC()

	stored := *ev
	r.events[stored.ID] = &stored
	return nil
}

func (r *InMemoryRepository) CloseLatest(_ context.Context, deviceID int64, videoID, categoryID *int64, duration int64) (*Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var latest *Event
	for _, ev := range r.events {
		if ev.DeviceID != deviceID || !int64PtrEqual(ev.VideoID, videoID) || !int64PtrEqual(ev.CategoryID, categoryID) {
			continue
		}
		if latest == nil || ev.StartedAt.After(latest.StartedAt) {
			latest = ev
		}
	}
	if latest == nil {
		return nil, ErrEventNotFound
	}

	d := duration
	latest.Duration = &d
	out := *latest
	return &out, nil
}

func (r *InMemoryRepository) ListByDevice(_ context.Context, deviceID int64, from, to time.Time) ([]Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var events []Event
	for _, ev := range r.events {
		if ev.DeviceID != deviceID {
			continue
		}
		if ev.StartedAt.Before(from) || !ev.StartedAt.Before(to) {
			continue
		}
		events = append(events, *ev)
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].StartedAt.After(events[j].StartedAt)
	})
	return events, nil
}

func int64PtrEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
