package device

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/loopcast/loopcast/internal/api/models"
)

// ErrVersionUnknown is returned when a device reports a version name with no
// matching version pointer.
var ErrVersionUnknown = errors.New("version not found")

// VersionResolver resolves a device-model version name to its version ID.
// fulfilled by the version service.
type VersionResolver interface {
	ResolveName(ctx context.Context, deviceModel string) (int64, error)
}

// Notifier sends operator-facing notices. Failures are logged, never
// propagated; notification delivery must not gate fleet operations.
type Notifier interface {
	DeviceDeleted(ctx context.Context, deviceName string)
}

// Service provides device operations.
type Service struct {
	repo     Repository
	versions VersionResolver
	notifier Notifier
	logger   zerolog.Logger
}

// ServiceConfig holds dependencies for the device service.
type ServiceConfig struct {
	Repository Repository
	Versions   VersionResolver
	Notifier   Notifier
	Logger     zerolog.Logger
}

// NewService creates a new device service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		repo:     cfg.Repository,
		versions: cfg.Versions,
		notifier: cfg.Notifier,
		logger:   cfg.Logger,
	}
}

// List retrieves all devices.
func (s *Service) List(ctx context.Context) ([]models.Device, error) {
	devices, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]models.Device, 0, len(devices))
	for _, d := range devices {
		items = append(items, toAPIDevice(d))
	}
	return items, nil
}

// Create registers a new device.
func (s *Service) Create(ctx context.Context, input *models.DeviceCreateRequest) (*models.Device, error) {
	if fieldErrors := validateCreateInput(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	d := &Device{
		Name:        input.Name,
		SecretHash:  input.SecretHash,
		Active:      input.Active,
		VersionID:   input.VersionID,
		PrimaryUser: input.PrimaryUser,
		PaymentRef:  input.PaymentRef,
		ValidUntil:  validityExpiry(input.ValidityDays, time.Now()),
	}

	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}

	result := toAPIDevice(d)
	return &result, nil
}

// Update edits a device's operator-managed fields and replaces its user
// associations.
func (s *Service) Update(ctx context.Context, input *models.DeviceUpdateRequest) (*models.Device, error) {
	if input.ID == 0 {
		return nil, &ValidationError{Errors: []models.FieldError{{Field: "id", Message: "is required"}}}
	}

	d, err := s.repo.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	d.Name = input.Name
	d.SecretHash = input.SecretHash
	d.Active = input.Active
	d.PrimaryUser = input.PrimaryUser
	d.PaymentRef = input.PaymentRef
	d.ValidUntil = validityExpiry(input.ValidityDays, time.Now())

	if err := s.repo.Update(ctx, d); err != nil {
		return nil, err
	}

	if err := s.repo.ReplaceUsers(ctx, d.ID, dedupe(input.Users)); err != nil {
		return nil, err
	}

	result := toAPIDevice(d)
	return &result, nil
}

// Delete removes a device. Its usage events and user associations are
// removed in the same transaction.
func (s *Service) Delete(ctx context.Context, id int64) error {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Warn().Str("device", d.Name).Msg("device deleted")
	if s.notifier != nil {
		s.notifier.DeviceDeleted(ctx, d.Name)
	}
	return nil
}

// Authenticate looks up the device matching a credential pair. It returns
// ErrDeviceNotFound for a bad name, bad hash, or inactive device alike.
func (s *Service) Authenticate(ctx context.Context, name, secretHash string) (*Device, error) {
	if name == "" || secretHash == "" {
		return nil, ErrDeviceNotFound
	}

	d, err := s.repo.GetByCredentials(ctx, name, secretHash)
	if err != nil {
		return nil, err
	}
	if !d.Active {
		return nil, ErrDeviceNotFound
	}
	return d, nil
}

// UpdateTelemetry applies a device's self-reported metadata. When a version
// name is supplied it must exist; an unknown name fails with
// ErrVersionUnknown before any write happens.
func (s *Service) UpdateTelemetry(ctx context.Context, deviceID int64, input *models.DeviceMetadataRequest) error {
	meta := Metadata{
		LastSeen:   input.LastSeen,
		IP:         input.IP,
		City:       input.City,
		Country:    input.Country,
		Wifi:       input.Wifi,
		UsedSpace:  input.UsedSpace,
		TotalSpace: input.TotalSpace,
	}
	if input.Localization != nil {
		meta.Lat = &input.Localization.Lat
		meta.Lon = &input.Localization.Lon
	}

	var versionID *int64
	if input.Version != "" {
		id, err := s.versions.ResolveName(ctx, input.Version)
		if err != nil {
			return ErrVersionUnknown
		}
		versionID = &id
	}

	return s.repo.UpdateMetadata(ctx, deviceID, meta, versionID)
}

// SweepConnectivity flips every device's connectivity flag based on whether
// its last-seen timestamp falls within threshold of now. The sweep is
// last-write-wins against a racing telemetry update: a stale flag set here
// is corrected no later than the next sweep tick.
func (s *Service) SweepConnectivity(ctx context.Context, now time.Time, threshold time.Duration) error {
	result, err := s.repo.SweepConnectivity(ctx, now, threshold)
	if err != nil {
		return err
	}

	s.logger.Info().
		Int64("connected", result.Connected).
		Int64("disconnected", result.Disconnected).
		Time("cutoff", now.Add(-threshold)).
		Msg("connectivity sweep completed")
	return nil
}

func validateCreateInput(input *models.DeviceCreateRequest) []models.FieldError {
	var errs []models.FieldError
	if input.Name == "" {
		errs = append(errs, models.FieldError{Field: "name", Message: "is required"})
	}
	if input.SecretHash == "" {
		errs = append(errs, models.FieldError{Field: "secretHash", Message: "is required"})
	}
	return errs
}

// validityExpiry converts an optional validity window in days to an absolute
// expiry. Zero or absent means unlimited.
func validityExpiry(days *int, now time.Time) *time.Time {
	if days == nil || *days <= 0 {
		return nil
	}
	expiry := now.Add(time.Duration(*days) * 24 * time.Hour)
	return &expiry
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func toAPIDevice(d *Device) models.Device {
	api := models.Device{
		ID:          d.ID,
		Name:        d.Name,
		Active:      d.Active,
		Connected:   d.Connected,
		VersionID:   d.VersionID,
		PrimaryUser: d.PrimaryUser,
		PaymentRef:  d.PaymentRef,
		ValidUntil:  d.ValidUntil,
		LastSeen:    d.LastSeen,
		IP:          d.LastIP,
		City:        d.LastCity,
		Country:     d.LastCountry,
		Wifi:        d.CurrentWifi,
		UsedSpace:   d.UsedSpace,
		TotalSpace:  d.TotalSpace,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if d.LastLat != nil && d.LastLon != nil {
		api.Localization = &models.Point{Lat: *d.LastLat, Lon: *d.LastLon}
	}
	return api
}

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
