package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/loopcast/loopcast/internal/api/models"
	"github.com/loopcast/loopcast/internal/api/response"
	"github.com/loopcast/loopcast/internal/stats"
)

// KPIHandler handles the usage statistics endpoints.
type KPIHandler struct {
	stats *stats.Service
	now   func() time.Time
}

// NewKPIHandler creates a new KPIHandler.
func NewKPIHandler(statsSvc *stats.Service) *KPIHandler {
	return &KPIHandler{stats: statsSvc, now: time.Now}
}

// GlobalKPIs handles GET /v1/kpis/global?days=N - fleet-wide statistics.
// Without the days parameter the window is all time.
func (h *KPIHandler) GlobalKPIs(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.window(w, r)
	if !ok {
		return
	}

	kpis, err := h.stats.Global(r.Context(), from, to)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, kpis)
}

// DeviceKPIs handles GET /v1/kpis/devices?days=N - the same statistics per
// device, one record per device with usage in the window.
func (h *KPIHandler) DeviceKPIs(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.window(w, r)
	if !ok {
		return
	}

	kpis, err := h.stats.PerDevice(r.Context(), from, to)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if kpis == nil {
		kpis = []models.DeviceKPIs{}
	}
	response.JSON(w, r, http.StatusOK, kpis)
}

// window parses the optional days query parameter into a half-open window
// ending now. The zero from time means all time.
func (h *KPIHandler) window(w http.ResponseWriter, r *http.Request) (from, to time.Time, ok bool) {
	to = h.now().UTC()

	raw := r.URL.Query().Get("days")
	if raw == "" {
		return time.Time{}, to, true
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		response.BadRequest(w, r, "invalid days parameter", []models.FieldError{
			{Field: "days", Message: "must be a positive integer", Code: "INVALID"},
		})
		return time.Time{}, time.Time{}, false
	}
	return to.AddDate(0, 0, -days), to, true
}
