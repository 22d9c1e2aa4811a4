// Package handler provides HTTP handlers for the Loopcast API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/loopcast/loopcast/internal/api/models"
	"github.com/loopcast/loopcast/internal/api/response"
)

// Pinger checks connectivity to a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	db        Pinger
	version   string
	buildTime string
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(db Pinger, version, buildTime string) *OpsHandler {
	return &OpsHandler{
		db:        db,
		version:   version,
		buildTime: buildTime,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status:    models.HealthOK,
		Time:      time.Now().UTC(),
		Version:   h.version,
		BuildTime: h.buildTime,
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check including the
// database pool.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	health := models.Health{
		Status: models.HealthOK,
		Time:   time.Now().UTC(),
	}

	dbStatus := models.SubsystemStatus{Name: "database", Status: models.HealthOK}
	if err := h.db.Ping(ctx); err != nil {
		detail := err.Error()
		dbStatus.Status = models.HealthDown
		dbStatus.Detail = &detail
		health.Status = models.HealthDown
	}
	health.Subsystems = append(health.Subsystems, dbStatus)

	status := http.StatusOK
	if health.Status != models.HealthOK {
		status = http.StatusServiceUnavailable
	}
	response.JSON(w, r, status, health)
}
