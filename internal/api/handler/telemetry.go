package handler

import (
	"encoding/json"
	"net/http"

	"github.com/loopcast/loopcast/internal/api/models"
	"github.com/loopcast/loopcast/internal/api/response"
	"github.com/loopcast/loopcast/internal/device"
	"github.com/loopcast/loopcast/internal/logarchive"
	"github.com/loopcast/loopcast/internal/usage"
)

// maxLogUploadBytes caps one log bundle upload.
const maxLogUploadBytes = 64 << 20

// TelemetryHandler handles the device-facing endpoints. Every request
// arrives with the authenticated device already on the context.
type TelemetryHandler struct {
	usage   *usage.Service
	devices *device.Service
	logs    *logarchive.Service
}

// NewTelemetryHandler creates a new TelemetryHandler.
func NewTelemetryHandler(usageSvc *usage.Service, devices *device.Service, logs *logarchive.Service) *TelemetryHandler {
	return &TelemetryHandler{
		usage:   usageSvc,
		devices: devices,
		logs:    logs,
	}
}

// PlayStart handles POST /v1/from-device/played-video - record a play start.
func (h *TelemetryHandler) PlayStart(w http.ResponseWriter, r *http.Request) {
	d := GetDevice(r.Context())

	var input models.PlayStartRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	event, err := h.usage.RecordPlayStart(r.Context(), d.ID, input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, event)
}

// PlayStop handles POST /v1/from-device/stopped-video - close the most
// recent open session for the video/category pair.
func (h *TelemetryHandler) PlayStop(w http.ResponseWriter, r *http.Request) {
	d := GetDevice(r.Context())

	var input models.PlayStopRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	event, err := h.usage.RecordPlayStop(r.Context(), d.ID, input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, event)
}

// UpdateMetas handles POST /v1/from-device/update-metas - device check-in
// with self-reported metadata.
func (h *TelemetryHandler) UpdateMetas(w http.ResponseWriter, r *http.Request) {
	d := GetDevice(r.Context())

	var input models.DeviceMetadataRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if err := h.devices.UpdateTelemetry(r.Context(), d.ID, &input); err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.NoContent(w, r)
}

// LogsUpload handles POST /v1/from-device/logs-upload - multipart zip log
// bundle.
func (h *TelemetryHandler) LogsUpload(w http.ResponseWriter, r *http.Request) {
	d := GetDevice(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxLogUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		response.BadRequest(w, r, "invalid multipart body", nil)
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	file, _, err := r.FormFile("logs")
	if err != nil {
		response.BadRequest(w, r, "missing logs file part", nil)
		return
	}
	defer file.Close()

	report, err := h.logs.Ingest(r.Context(), d.Name, file)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, report)
}
