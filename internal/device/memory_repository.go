package device

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use PostgresRepository.
type InMemoryRepository struct {
	mu      sync.RWMutex
	nextID  int64
	devices map[int64]*Device
	users   map[int64][]int64
}

// NewInMemoryRepository creates a new in-memory device repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		nextID:  1,
		devices: make(map[int64]*Device),
		users:   make(map[int64][]int64),
	}
}

// Get retrieves a device by ID.
func (r *InMemoryRepository) Get(_ context.Context, id int64) (*Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.devices[id]
	if !ok {
		return nil, ErrDeviceNotFound
	}
	cpy := *d
	return &cpy, nil
}

// GetByName retrieves a device by its unique name.
func (r *InMemoryRepository) GetByName(_ context.Context, name string) (*Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.devices {
		if d.Name == name {
			cpy := *d
			return &cpy, nil
		}
	}
	return nil, ErrDeviceNotFound
}

// GetByCredentials retrieves the device matching a name and secret hash pair.
func (r *InMemoryRepository) GetByCredentials(_ context.Context, name, secretHash string) (*Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.devices {
		if d.Name == name && d.SecretHash == secretHash {
			cpy := *d
			return &cpy, nil
		}
	}
	return nil, ErrDeviceNotFound
}

// List retrieves all devices ordered by name.
func (r *InMemoryRepository) List(_ context.Context) ([]*Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	devices := make([]*Device, 0, len(r.devices))
	for _, d := range r.devices {
		cpy := *d
		devices = append(devices, &cpy)
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].Name < devices[j].Name })
	return devices, nil
}

// Create creates a new device and fills in its ID.
func (r *InMemoryRepository) Create(_ context.Context, device *Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range r.devices {
		if d.Name == device.Name {
			return ErrDeviceExists
		}
	}

	device.ID = r.nextID
	r.nextID++
	now := time.Now()
	device.CreatedAt = now
	device.UpdatedAt = now

	cpy := *device
	r.devices[device.ID] = &cpy
	return nil
}

// Update updates a device's operator-editable fields.
func (r *InMemoryRepository) Update(_ context.Context, device *Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.devices[device.ID]
	if !ok {
		return ErrDeviceNotFound
	}

	existing.Name = device.Name
	existing.SecretHash = device.SecretHash
	existing.Active = device.Active
	existing.PrimaryUser = device.PrimaryUser
	existing.PaymentRef = device.PaymentRef
	existing.ValidUntil = device.ValidUntil
	existing.UpdatedAt = time.Now()
	return nil
}

// Delete removes a device and its user associations.
func (r *InMemoryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.devices[id]; !ok {
		return ErrDeviceNotFound
	}
	delete(r.devices, id)
	delete(r.users, id)
	return nil
}

// ReplaceUsers replaces the set of users associated with a device.
func (r *InMemoryRepository) ReplaceUsers(_ context.Context, deviceID int64, userIDs []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users[deviceID] = append([]int64(nil), userIDs...)
	return nil
}

// Users returns the user IDs associated with a device, for test assertions.
func (r *InMemoryRepository) Users(deviceID int64) []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]int64(nil), r.users[deviceID]...)
}

// UpdateMetadata bulk-updates a device's self-reported telemetry fields.
func (r *InMemoryRepository) UpdateMetadata(_ context.Context, deviceID int64, meta Metadata, versionID *int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.devices[deviceID]
	if !ok {
		return ErrDeviceNotFound
	}

	d.LastSeen = meta.LastSeen
	d.LastLat = meta.Lat
	d.LastLon = meta.Lon
	d.LastIP = meta.IP
	d.LastCity = meta.City
	d.LastCountry = meta.Country
	d.CurrentWifi = meta.Wifi
	d.UsedSpace = meta.UsedSpace
	d.TotalSpace = meta.TotalSpace
	if versionID != nil {
		d.VersionID = versionID
	}
	d.UpdatedAt = time.Now()
	return nil
}

// SweepConnectivity runs the two-phase bulk connectivity update.
func (r *InMemoryRepository) SweepConnectivity(_ context.Context, now time.Time, threshold time.Duration) (SweepResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := now.Add(-threshold)
	var result SweepResult
	for _, d := range r.devices {
		fresh := d.LastSeen != nil && !d.LastSeen.Before(cutoff)
		switch {
		case fresh && !d.Connected:
			d.Connected = true
			result.Connected++
		case !fresh && d.Connected:
			d.Connected = false
			result.Disconnected++
		}
	}
	return result, nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
