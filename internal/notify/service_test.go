package notify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopcast/loopcast/internal/notify"
)

func TestService_DeviceDeleted(t *testing.T) {
	var got notify.Event
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/events", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	svc := notify.NewService(notify.ServiceConfig{
		Client:  notify.NewClient(fastConfig()),
		Logger:  zerolog.Nop(),
		BaseURL: server.URL,
	})

	svc.DeviceDeleted(context.Background(), "unit-7")

	assert.Equal(t, notify.KindDeviceDeleted, got.Kind)
	assert.Equal(t, "unit-7", got.Subject)
	assert.NotEmpty(t, got.ID)
	assert.False(t, got.OccurredAt.IsZero())
}

func TestService_CategoryDeleted(t *testing.T) {
	var got notify.Event
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	svc := notify.NewService(notify.ServiceConfig{
		Client:  notify.NewClient(fastConfig()),
		Logger:  zerolog.Nop(),
		BaseURL: server.URL,
	})

	svc.CategoryDeleted(context.Background(), "Nature")

	assert.Equal(t, notify.KindCategoryDeleted, got.Kind)
	assert.Equal(t, "Nature", got.Subject)
}

func TestService_DeliveryFailureDoesNotPanic(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := fastConfig()
	cfg.MaxRetries = 1
	svc := notify.NewService(notify.ServiceConfig{
		Client:  notify.NewClient(cfg),
		Logger:  zerolog.Nop(),
		BaseURL: server.URL,
	})

	// Failures are logged and swallowed.
	svc.DeviceDeleted(context.Background(), "unit-7")
}

func TestService_NoBaseURLIsNoop(t *testing.T) {
	svc := notify.NewService(notify.ServiceConfig{
		Client: notify.NewClient(fastConfig()),
		Logger: zerolog.Nop(),
	})

	svc.DeviceDeleted(context.Background(), "unit-7")
	svc.CategoryDeleted(context.Background(), "Nature")
}
