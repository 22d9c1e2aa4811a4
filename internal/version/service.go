package version

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/loopcast/loopcast/internal/api/models"
)

// Service manages published firmware versions and resolves the model names
// devices report on check-in.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

// ServiceConfig holds the service dependencies.
type ServiceConfig struct {
	Repository Repository
	Logger     zerolog.Logger
}

// NewService creates a version service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger.With().Str("component", "version").Logger(),
	}
}

// List returns all published versions, newest first.
func (s *Service) List(ctx context.Context) ([]models.Version, error) {
	versions, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing versions: %w", err)
	}
	out := make([]models.Version, 0, len(versions))
	for i := range versions {
		out = append(out, toAPIVersion(&versions[i]))
	}
	return out, nil
}

// Create publishes a new build. Each device model carries at most one
// published version.
func (s *Service) Create(ctx context.Context, req models.VersionCreateRequest) (*models.Version, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	v := &Version{
		DeviceModel: strings.TrimSpace(req.DeviceModel),
		Android:     req.Android,
		AndroidURL:  req.AndroidURL,
		IOS:         req.IOS,
		IOSURL:      req.IOSURL,
		Notes:       req.Notes,
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}

	s.logger.Info().Str("device_model", v.DeviceModel).Msg("version published")

	out := toAPIVersion(v)
	return &out, nil
}

// Delete unpublishes a build. Devices pointing at it keep working; their
// version pointer is cleared by the schema.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Warn().Int64("version_id", id).Msg("version deleted")
	return nil
}

// Latest returns the published build for a device model.
func (s *Service) Latest(ctx context.Context, deviceModel string) (*models.Version, error) {
	v, err := s.repo.GetByModel(ctx, deviceModel)
	if err != nil {
		return nil, err
	}
	out := toAPIVersion(v)
	return &out, nil
}

// ResolveName maps a model name reported by a device to the published
// version's ID.
func (s *Service) ResolveName(ctx context.Context, deviceModel string) (int64, error) {
	v, err := s.repo.GetByModel(ctx, deviceModel)
	if err != nil {
		return 0, err
	}
	return v.ID, nil
}

func validateCreate(req models.VersionCreateRequest) error {
	var errs []models.FieldError
	if strings.TrimSpace(req.DeviceModel) == "" {
		errs = append(errs, models.FieldError{Field: "deviceModel", Message: "required", Code: "REQUIRED"})
	}
	if req.Android == nil && req.IOS == nil {
		errs = append(errs, models.FieldError{Field: "android", Message: "at least one platform build is required", Code: "REQUIRED"})
	}
	errs = append(errs, validatePlatform("android", req.Android, "androidUrl", req.AndroidURL)...)
	errs = append(errs, validatePlatform("ios", req.IOS, "iosUrl", req.IOSURL)...)
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// validatePlatform requires a platform's build name and download URL to come
// as a pair, with an absolute URL.
func validatePlatform(nameField string, name *string, urlField string, rawURL *string) []models.FieldError {
	var errs []models.FieldError
	switch {
	case name == nil && rawURL == nil:
		return nil
	case name == nil:
		return []models.FieldError{{Field: nameField, Message: "required with " + urlField, Code: "REQUIRED"}}
	case strings.TrimSpace(*name) == "":
		errs = append(errs, models.FieldError{Field: nameField, Message: "must not be empty", Code: "REQUIRED"})
	}
	switch {
	case rawURL == nil:
		errs = append(errs, models.FieldError{Field: urlField, Message: "required with " + nameField, Code: "REQUIRED"})
	default:
		if u, err := url.Parse(*rawURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, models.FieldError{Field: urlField, Message: "must be an absolute URL", Code: "INVALID"})
		}
	}
	return errs
}

func toAPIVersion(v *Version) models.Version {
	return models.Version{
		ID:          v.ID,
		DeviceModel: v.DeviceModel,
		Android:     v.Android,
		AndroidURL:  v.AndroidURL,
		IOS:         v.IOS,
		IOSURL:      v.IOSURL,
		Notes:       v.Notes,
		CreatedAt:   v.CreatedAt,
	}
}

// ValidationError carries field-level validation failures.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s %s", e.Errors[0].Field, e.Errors[0].Message)
}
