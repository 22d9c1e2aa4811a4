package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/loopcast/loopcast/internal/api/models"
	"github.com/loopcast/loopcast/internal/api/response"
	"github.com/loopcast/loopcast/internal/catalog"
	"github.com/loopcast/loopcast/internal/device"
	"github.com/loopcast/loopcast/internal/logarchive"
	"github.com/loopcast/loopcast/internal/usage"
	"github.com/loopcast/loopcast/internal/version"
)

// writeServiceError maps service errors onto problem responses. Validation
// failures carry their field errors; everything unrecognized becomes a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		usageErr   *usage.ValidationError
		catalogErr *catalog.ValidationError
		deviceErr  *device.ValidationError
		versionErr *version.ValidationError
	)
	switch {
	case errors.As(err, &usageErr):
		response.BadRequest(w, r, "validation failed", usageErr.Errors)
	case errors.As(err, &catalogErr):
		response.BadRequest(w, r, "validation failed", catalogErr.Errors)
	case errors.As(err, &deviceErr):
		response.BadRequest(w, r, "validation failed", deviceErr.Errors)
	case errors.As(err, &versionErr):
		response.BadRequest(w, r, "validation failed", versionErr.Errors)

	case errors.Is(err, usage.ErrEventNotFound):
		response.NotFound(w, r, "no matching play start")
	case errors.Is(err, device.ErrDeviceNotFound):
		response.NotFound(w, r, "device not found")
	case errors.Is(err, device.ErrVersionUnknown):
		response.NotFound(w, r, "unknown version name")
	case errors.Is(err, catalog.ErrCategoryNotFound):
		response.NotFound(w, r, "category not found")
	case errors.Is(err, catalog.ErrVideoNotFound):
		response.NotFound(w, r, "video not found")
	case errors.Is(err, version.ErrVersionNotFound):
		response.NotFound(w, r, "version not found")
	case errors.Is(err, logarchive.ErrNoLogs):
		response.NotFound(w, r, "no logs for device")

	case errors.Is(err, device.ErrDeviceExists):
		response.Conflict(w, r, "a device with this name already exists")
	case errors.Is(err, catalog.ErrCategoryExists):
		response.Conflict(w, r, "a category with this title already exists")
	case errors.Is(err, catalog.ErrVideoExists):
		response.Conflict(w, r, "a video with this name already exists in the category")
	case errors.Is(err, version.ErrVersionExists):
		response.Conflict(w, r, "a version for this device model already exists")

	case errors.Is(err, logarchive.ErrArchiveParse):
		response.BadRequest(w, r, "log archive is not a valid zip", nil)
	case errors.Is(err, logarchive.ErrInvalidDeviceName):
		response.BadRequest(w, r, "invalid device name", nil)

	default:
		response.InternalError(w, r, "internal error")
	}
}

// parseID reads a positive int64 URL parameter; a zero return means the
// response has already been written.
func parseID(w http.ResponseWriter, r *http.Request, raw string) int64 {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, r, "invalid id", []models.FieldError{
			{Field: "id", Message: "must be a positive integer", Code: "INVALID"},
		})
		return 0
	}
	return id
}
