package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/loopcast/loopcast/internal/api/models"
	"github.com/loopcast/loopcast/internal/api/response"
	"github.com/loopcast/loopcast/internal/catalog"
)

// maxVideoUploadBytes caps one media upload.
const maxVideoUploadBytes = 2 << 30

// maxThumbnailUploadBytes caps one poster image upload.
const maxThumbnailUploadBytes = 16 << 20

// CatalogHandler handles the catalog endpoints.
type CatalogHandler struct {
	catalog *catalog.Service
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogSvc *catalog.Service) *CatalogHandler {
	return &CatalogHandler{catalog: catalogSvc}
}

// ListCatalog handles GET /v1/catalog - categories with their videos.
func (h *CatalogHandler) ListCatalog(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, categories)
}

// Sync handles POST /v1/catalog/sync - re-run the filesystem
// reconciliation.
func (h *CatalogHandler) Sync(w http.ResponseWriter, r *http.Request) {
	report, err := h.catalog.Sync(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, report)
}

// CreateCategory handles POST /v1/catalog/categories.
func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var input models.CategoryCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	cat, err := h.catalog.CreateCategory(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.Created(w, r, fmt.Sprintf("/v1/catalog/categories/%d", cat.ID), cat)
}

// RenameCategory handles PUT /v1/catalog/categories/{categoryId}.
func (h *CatalogHandler) RenameCategory(w http.ResponseWriter, r *http.Request) {
	id := parseID(w, r, chi.URLParam(r, "categoryId"))
	if id == 0 {
		return
	}

	var input models.CategoryRenameRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	cat, err := h.catalog.RenameCategory(r.Context(), id, input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, cat)
}

// DeleteCategory handles DELETE /v1/catalog/categories/{categoryId}.
func (h *CatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := parseID(w, r, chi.URLParam(r, "categoryId"))
	if id == 0 {
		return
	}

	if err := h.catalog.DeleteCategory(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.NoContent(w, r)
}

// UploadVideo handles POST /v1/catalog/categories/{categoryId}/videos -
// multipart media upload.
func (h *CatalogHandler) UploadVideo(w http.ResponseWriter, r *http.Request) {
	id := parseID(w, r, chi.URLParam(r, "categoryId"))
	if id == 0 {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxVideoUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		response.BadRequest(w, r, "invalid multipart body", nil)
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	file, header, err := r.FormFile("video")
	if err != nil {
		response.BadRequest(w, r, "missing video file part", nil)
		return
	}
	defer file.Close()

	video, err := h.catalog.UploadVideo(r.Context(), id, header.Filename, file)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.Created(w, r, fmt.Sprintf("/v1/catalog/videos/%d", video.ID), video)
}

// UpdateVideo handles PUT /v1/catalog/videos/{videoId}.
func (h *CatalogHandler) UpdateVideo(w http.ResponseWriter, r *http.Request) {
	id := parseID(w, r, chi.URLParam(r, "videoId"))
	if id == 0 {
		return
	}

	var input models.VideoUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	video, err := h.catalog.UpdateVideo(r.Context(), id, input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, video)
}

// UploadThumbnail handles PUT /v1/catalog/videos/{videoId}/thumbnail - the
// raw poster image in the request body.
func (h *CatalogHandler) UploadThumbnail(w http.ResponseWriter, r *http.Request) {
	id := parseID(w, r, chi.URLParam(r, "videoId"))
	if id == 0 {
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxThumbnailUploadBytes)
	video, err := h.catalog.UploadThumbnail(r.Context(), id, body)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, video)
}

// DeleteVideo handles DELETE /v1/catalog/videos/{videoId}.
func (h *CatalogHandler) DeleteVideo(w http.ResponseWriter, r *http.Request) {
	id := parseID(w, r, chi.URLParam(r, "videoId"))
	if id == 0 {
		return
	}

	if err := h.catalog.DeleteVideo(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.NoContent(w, r)
}

// ServeMedia handles GET /v1/catalog/media/{category}/{name} - stream a
// media file.
func (h *CatalogHandler) ServeMedia(w http.ResponseWriter, r *http.Request) {
	h.serveFile(w, r, h.catalog.MediaPath)
}

// ServeThumbnail handles GET /v1/catalog/thumbnails/{category}/{name}.
func (h *CatalogHandler) ServeThumbnail(w http.ResponseWriter, r *http.Request) {
	h.serveFile(w, r, h.catalog.ThumbnailPath)
}

func (h *CatalogHandler) serveFile(w http.ResponseWriter, r *http.Request, resolve func(string, string) (string, error)) {
	category := chi.URLParam(r, "category")
	name := chi.URLParam(r, "name")

	path, err := resolve(category, name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	// Let ServeFile sniff the type instead of the JSON default.
	w.Header().Del("Content-Type")
	http.ServeFile(w, r, path)
}
