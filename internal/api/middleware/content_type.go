package middleware

import (
	"net/http"
	"strings"

	"github.com/loopcast/loopcast/internal/api/models"
)

// ContentTypeJSON sets the Content-Type header to application/json unless a
// handler already chose one, like the media streaming endpoints do.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/json")
		}
		next.ServeHTTP(w, r)
	})
}

// RequireJSON rejects write requests whose Content-Type is not JSON. The
// catalog upload endpoints are exempt: video uploads arrive as
// multipart/form-data and poster uploads as a raw image body.
func RequireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			contentType := r.Header.Get("Content-Type")
			if contentType != "" && !jsonBody(contentType) && !mediaBody(contentType) {
				traceID := GetRequestID(r.Context())
				problem := models.NewProblem(models.ProblemTypeValidation,
					"Unsupported media type", http.StatusUnsupportedMediaType, traceID)
				problem.Detail = "Content-Type must be application/json"
				problem.Instance = r.URL.Path
				problem.Write(w)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func jsonBody(contentType string) bool {
	return strings.HasPrefix(contentType, "application/json")
}

func mediaBody(contentType string) bool {
	return strings.HasPrefix(contentType, "multipart/form-data") ||
		strings.HasPrefix(contentType, "image/") ||
		strings.HasPrefix(contentType, "video/")
}
