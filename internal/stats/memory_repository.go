package stats

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryEvent is a seeded usage event for tests.
type MemoryEvent struct {
	DeviceID   int64
	VideoID    *int64
	CategoryID *int64
	StartedAt  time.Time
	Duration   *int64
}

// MemoryVideo is a seeded catalog video for tests.
type MemoryVideo struct {
	Title     string
	Thumbnail *string
}

// MemoryCategory is a seeded catalog category for tests.
type MemoryCategory struct {
	Title string
	Icon  string
}

// InMemoryRepository is an in-memory Repository for tests. Seed it with
// AddEvent, AddVideo and AddCategory.
type InMemoryRepository struct {
	mu         sync.RWMutex
	events     []MemoryEvent
	videos     map[int64]MemoryVideo
	categories map[int64]MemoryCategory
}

var _ Repository = (*InMemoryRepository)(nil)

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		videos:     make(map[int64]MemoryVideo),
		categories: make(map[int64]MemoryCategory),
	}
}

func (r *InMemoryRepository) AddEvent(ev MemoryEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *InMemoryRepository) AddVideo(id int64, title string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.videos[id] = MemoryVideo{Title: title}
}

func (r *InMemoryRepository) AddVideoWithThumbnail(id int64, title, thumbnail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.videos[id] = MemoryVideo{Title: title, Thumbnail: &thumbnail}
}

func (r *InMemoryRepository) AddCategory(id int64, title, icon string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories[id] = MemoryCategory{Title: title, Icon: icon}
}

func (r *InMemoryRepository) Totals(_ context.Context, from, to time.Time) (Totals, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.totals(nil, from, to), nil
}

func (r *InMemoryRepository) TopVideos(_ context.Context, from, to time.Time, limit uint64) ([]VideoPlays, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.topVideos(nil, from, to, limit), nil
}

func (r *InMemoryRepository) CategoryPlays(_ context.Context, from, to time.Time) ([]CategoryRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.categoryPlays(nil, from, to), nil
}

func (r *InMemoryRepository) DeviceTotals(_ context.Context, from, to time.Time) ([]DeviceTotals, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]DeviceTotals, 0)
	for _, id := range r.deviceIDs(from, to) {
		id := id
		out = append(out, DeviceTotals{DeviceID: id, Totals: r.totals(&id, from, to)})
	}
	return out, nil
}

func (r *InMemoryRepository) DeviceTopVideos(_ context.Context, from, to time.Time, limit uint64) ([]DeviceVideoPlays, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []DeviceVideoPlays
	for _, id := range r.deviceIDs(from, to) {
		id := id
		for _, v := range r.topVideos(&id, from, to, limit) {
			out = append(out, DeviceVideoPlays{DeviceID: id, VideoPlays: v})
		}
	}
	return out, nil
}

func (r *InMemoryRepository) DeviceCategoryPlays(_ context.Context, from, to time.Time) ([]DeviceCategoryRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []DeviceCategoryRow
	for _, id := range r.deviceIDs(from, to) {
		id := id
		for _, c := range r.categoryPlays(&id, from, to) {
			out = append(out, DeviceCategoryRow{DeviceID: id, CategoryRow: c})
		}
	}
	return out, nil
}

// totals sums closed sessions only; active days count every event, open
// sessions included.
func (r *InMemoryRepository) totals(deviceID *int64, from, to time.Time) Totals {
	var t Totals
	days := make(map[string]struct{})
	for _, ev := range r.inWindow(deviceID, from, to) {
		if ev.Duration != nil {
			t.TotalSeconds += *ev.Duration
		}
		days[ev.StartedAt.UTC().Format("2006-01-02")] = struct{}{}
	}
	t.ActiveDays = int64(len(days))
	return t
}

func (r *InMemoryRepository) topVideos(deviceID *int64, from, to time.Time, limit uint64) []VideoPlays {
	plays := make(map[int64]int64)
	for _, ev := range r.inWindow(deviceID, from, to) {
		if ev.VideoID == nil {
			continue
		}
		if ev.CategoryID != nil && *ev.CategoryID == 0 {
			continue
		}
		plays[*ev.VideoID]++
	}

	out := make([]VideoPlays, 0, len(plays))
	for id, n := range plays {
		row := VideoPlays{VideoID: id, Plays: n}
		if v, ok := r.videos[id]; ok {
			title := v.Title
			row.Title = &title
			row.Thumbnail = v.Thumbnail
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Plays != out[j].Plays {
			return out[i].Plays > out[j].Plays
		}
		return out[i].VideoID < out[j].VideoID
	})
	if uint64(len(out)) > limit {
		out = out[:limit]
	}
	return out
}

func (r *InMemoryRepository) categoryPlays(deviceID *int64, from, to time.Time) []CategoryRow {
	type key struct {
		hasID bool
		id    int64
	}
	plays := make(map[key]int64)
	for _, ev := range r.inWindow(deviceID, from, to) {
		k := key{}
		if ev.CategoryID != nil {
			k = key{hasID: true, id: *ev.CategoryID}
		}
		plays[k]++
	}

	var out []CategoryRow
	for k, n := range plays {
		row := CategoryRow{Plays: n}
		if k.hasID {
			id := k.id
			row.CategoryID = &id
			if c, ok := r.categories[id]; ok {
				title, icon := c.Title, c.Icon
				row.Title = &title
				row.Icon = &icon
			}
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Plays > out[j].Plays })
	return out
}

func (r *InMemoryRepository) deviceIDs(from, to time.Time) []int64 {
	seen := make(map[int64]struct{})
	for _, ev := range r.inWindow(nil, from, to) {
		seen[ev.DeviceID] = struct{}{}
	}
	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (r *InMemoryRepository) inWindow(deviceID *int64, from, to time.Time) []MemoryEvent {
	var out []MemoryEvent
	for _, ev := range r.events {
		if deviceID != nil && ev.DeviceID != *deviceID {
			continue
		}
		if ev.StartedAt.Before(from) || !ev.StartedAt.Before(to) {
			continue
		}
		out = append(out, ev)
	}
	return out
}
