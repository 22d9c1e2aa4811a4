package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/loopcast/loopcast/internal/api/models"
)

// Service records playback sessions.
type Service struct {
	repo   Repository
	logger zerolog.Logger
	now    func() time.Time
}

// ServiceConfig holds the service dependencies.
type ServiceConfig struct {
	Repository Repository
	Logger     zerolog.Logger
	// Now overrides the clock in tests.
	Now func() time.Time
}

// NewService creates a usage recorder service.
func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger.With().Str("component", "usage").Logger(),
		now:    now,
	}
}

// RecordPlayStart opens a new playback session. Every start report creates a
// new event, even when a previous session for the same content is still open.
func (s *Service) RecordPlayStart(ctx context.Context, deviceID int64, req models.PlayStartRequest) (*models.UsageEvent, error) {
	if err := validateStart(req); err != nil {
		return nil, err
	}

	ev := &Event{
		DeviceID:   deviceID,
		VideoID:    req.VideoID,
		CategoryID: req.CategoryID,
		StartedAt:  req.From.UTC(),
		Connected:  req.Connected,
		City:       req.City,
		Country:    req.Country,
		IP:         req.IP,
	}
	if err := s.repo.Insert(ctx, ev); err != nil {
		return nil, fmt.Errorf("recording play start: %w", err)
	}

	s.logger.Debug().
		Int64("device_id", deviceID).
		Int64("event_id", ev.ID).
		Msg("play start recorded")

	return toAPIEvent(ev), nil
}

// RecordPlayStop closes the most recently started session matching the
// device/video/category triple. When several open sessions match, only the
// newest one receives the duration; stop reports with no matching start
// return ErrEventNotFound.
func (s *Service) RecordPlayStop(ctx context.Context, deviceID int64, req models.PlayStopRequest) (*models.UsageEvent, error) {
	if err := validateStop(req); err != nil {
		return nil, err
	}

	ev, err := s.repo.CloseLatest(ctx, deviceID, req.VideoID, req.CategoryID, *req.Duration)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			s.logger.Warn().
				Int64("device_id", deviceID).
				Msg("play stop without matching start")
			return nil, err
		}
		return nil, fmt.Errorf("recording play stop: %w", err)
	}

	return toAPIEvent(ev), nil
}

// ListByDevice returns a device's sessions within [from, to), newest first.
func (s *Service) ListByDevice(ctx context.Context, deviceID int64, from, to time.Time) ([]models.UsageEvent, error) {
	events, err := s.repo.ListByDevice(ctx, deviceID, from, to)
	if err != nil {
		return nil, fmt.Errorf("listing usage events: %w", err)
	}
	out := make([]models.UsageEvent, 0, len(events))
	for i := range events {
		out = append(out, *toAPIEvent(&events[i]))
	}
	return out, nil
}

func validateStart(req models.PlayStartRequest) error {
	var errs []models.FieldError
	if req.From.IsZero() {
		errs = append(errs, models.FieldError{Field: "from", Message: "required", Code: "REQUIRED"})
	}
	errs = append(errs, validateContentIDs(req.VideoID, req.CategoryID)...)
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

func validateStop(req models.PlayStopRequest) error {
	var errs []models.FieldError
	if req.Duration == nil {
		errs = append(errs, models.FieldError{Field: "duration", Message: "required", Code: "REQUIRED"})
	} else if *req.Duration < 0 {
		errs = append(errs, models.FieldError{Field: "duration", Message: "must not be negative", Code: "OUT_OF_RANGE"})
	}
	errs = append(errs, validateContentIDs(req.VideoID, req.CategoryID)...)
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// validateContentIDs requires both the video and category references. The
// reserved category 0 marks device-local playback and stays valid.
func validateContentIDs(videoID, categoryID *int64) []models.FieldError {
	var errs []models.FieldError
	switch {
	case videoID == nil:
		errs = append(errs, models.FieldError{Field: "videoId", Message: "required", Code: "REQUIRED"})
	case *videoID <= 0:
		errs = append(errs, models.FieldError{Field: "videoId", Message: "must be positive", Code: "OUT_OF_RANGE"})
	}
	switch {
	case categoryID == nil:
		errs = append(errs, models.FieldError{Field: "categoryId", Message: "required", Code: "REQUIRED"})
	case *categoryID < 0:
		errs = append(errs, models.FieldError{Field: "categoryId", Message: "must not be negative", Code: "OUT_OF_RANGE"})
	}
	return errs
}

func toAPIEvent(ev *Event) *models.UsageEvent {
	return &models.UsageEvent{
		ID:         ev.ID,
		DeviceID:   ev.DeviceID,
		VideoID:    ev.VideoID,
		CategoryID: ev.CategoryID,
		From:       ev.StartedAt,
		Duration:   ev.Duration,
		Connected:  ev.Connected,
		City:       ev.City,
		Country:    ev.Country,
		IP:         ev.IP,
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
