package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/loopcast/loopcast/internal/api/models"
	"github.com/loopcast/loopcast/internal/api/response"
	"github.com/loopcast/loopcast/internal/version"
)

// VersionHandler handles the firmware version endpoints.
type VersionHandler struct {
	versions *version.Service
}

// NewVersionHandler creates a new VersionHandler.
func NewVersionHandler(versions *version.Service) *VersionHandler {
	return &VersionHandler{versions: versions}
}

// ListVersions handles GET /v1/versions - all published builds, newest first.
func (h *VersionHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := h.versions.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, versions)
}

// CreateVersion handles POST /v1/versions - publish a build.
func (h *VersionHandler) CreateVersion(w http.ResponseWriter, r *http.Request) {
	var input models.VersionCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	v, err := h.versions.Create(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.Created(w, r, fmt.Sprintf("/v1/versions/%d", v.ID), v)
}

// DeleteVersion handles DELETE /v1/versions/{versionId} - unpublish a build.
func (h *VersionHandler) DeleteVersion(w http.ResponseWriter, r *http.Request) {
	id := parseID(w, r, chi.URLParam(r, "versionId"))
	if id == 0 {
		return
	}

	if err := h.versions.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.NoContent(w, r)
}

// LatestVersion handles GET /v1/versions/latest?deviceModel=X - the
// published build for one device model. Public so unprovisioned devices can
// self-update.
func (h *VersionHandler) LatestVersion(w http.ResponseWriter, r *http.Request) {
	model := r.URL.Query().Get("deviceModel")
	if model == "" {
		response.BadRequest(w, r, "deviceModel parameter is required", []models.FieldError{
			{Field: "deviceModel", Message: "required", Code: "REQUIRED"},
		})
		return
	}

	v, err := h.versions.Latest(r.Context(), model)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, v)
}
