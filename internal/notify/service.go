package notify

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event is the payload posted to the collaborator webhook.
type Event struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Subject    string    `json:"subject"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Event kinds.
const (
	KindDeviceDeleted   = "device.deleted"
	KindCategoryDeleted = "category.deleted"
)

// Service announces fleet changes. A Service with an empty base URL is a
// no-op, so callers never have to nil-check their notifier.
type Service struct {
	client  *Client
	logger  zerolog.Logger
	baseURL string
}

// ServiceConfig holds the service dependencies.
type ServiceConfig struct {
	Client  *Client
	Logger  zerolog.Logger
	BaseURL string
}

// NewService creates a notifier service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		client:  cfg.Client,
		logger:  cfg.Logger.With().Str("component", "notify").Logger(),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// DeviceDeleted announces that a device left the fleet.
func (s *Service) DeviceDeleted(ctx context.Context, name string) {
	s.send(ctx, KindDeviceDeleted, name)
}

// CategoryDeleted announces that a catalog category was removed.
func (s *Service) CategoryDeleted(ctx context.Context, title string) {
	s.send(ctx, KindCategoryDeleted, title)
}

func (s *Service) send(ctx context.Context, kind, subject string) {
	if s.baseURL == "" {
		return
	}

	event := Event{
		ID:         uuid.NewString(),
		Kind:       kind,
		Subject:    subject,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.client.PostJSON(ctx, s.baseURL+"/events", event); err != nil {
		s.logger.Error().Err(err).
			Str("kind", kind).
			Str("subject", subject).
			Msg("event delivery failed")
		return
	}
	s.logger.Debug().Str("kind", kind).Str("subject", subject).Msg("event delivered")
}
