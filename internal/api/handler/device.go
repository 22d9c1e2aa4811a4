package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/loopcast/loopcast/internal/api/models"
	"github.com/loopcast/loopcast/internal/api/response"
	"github.com/loopcast/loopcast/internal/device"
	"github.com/loopcast/loopcast/internal/logarchive"
)

// DeviceHandler handles the operator-facing device endpoints.
type DeviceHandler struct {
	devices *device.Service
	logs    *logarchive.Service
}

// NewDeviceHandler creates a new DeviceHandler.
func NewDeviceHandler(devices *device.Service, logs *logarchive.Service) *DeviceHandler {
	return &DeviceHandler{devices: devices, logs: logs}
}

// ListDevices handles GET /v1/devices - list the fleet.
func (h *DeviceHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.devices.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, devices)
}

// CreateDevice handles POST /v1/devices - register a device.
func (h *DeviceHandler) CreateDevice(w http.ResponseWriter, r *http.Request) {
	var input models.DeviceCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	d, err := h.devices.Create(r.Context(), &input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.Created(w, r, fmt.Sprintf("/v1/devices/%d", d.ID), d)
}

// UpdateDevice handles PUT /v1/devices/{deviceId} - edit a device.
func (h *DeviceHandler) UpdateDevice(w http.ResponseWriter, r *http.Request) {
	id := parseID(w, r, chi.URLParam(r, "deviceId"))
	if id == 0 {
		return
	}

	var input models.DeviceUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	input.ID = id

	d, err := h.devices.Update(r.Context(), &input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, d)
}

// DeleteDevice handles DELETE /v1/devices/{deviceId} - remove a device and
// its usage history.
func (h *DeviceHandler) DeleteDevice(w http.ResponseWriter, r *http.Request) {
	id := parseID(w, r, chi.URLParam(r, "deviceId"))
	if id == 0 {
		return
	}

	if err := h.devices.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.NoContent(w, r)
}

// DownloadLogs handles GET /v1/devices/{deviceName}/logs - stream the
// device's log bundle as a zip.
func (h *DeviceHandler) DownloadLogs(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "deviceName")
	if name == "" {
		response.BadRequest(w, r, "deviceName is required", nil)
		return
	}

	// Headers before the first write; retrieval failures after that point
	// can only truncate the stream.
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", logarchive.ArchiveName(name)))

	if err := h.logs.Retrieve(r.Context(), name, w); err != nil {
		w.Header().Del("Content-Type")
		w.Header().Del("Content-Disposition")
		writeServiceError(w, r, err)
		return
	}
}
