package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"log/slog"

	"github.com/GIDD/gidd/internal/models"
)

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// respondError writes a JSON error body with the given status code.
func respondError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	respondJSON(w, logger, status, map[string]string{"error": message})
}

// respondValidationErrors writes the field-to-messages map with a 422.
func respondValidationErrors(w http.ResponseWriter, logger *slog.Logger, errs models.ValidationErrors) {
	respondJSON(w, logger, http.StatusUnprocessableEntity, map[string]interface{}{"errors": errs})
}

// decodeJSON decodes the request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

// pathSegment extracts the path segment after prefix and before the next
// slash, e.g. pathSegment("/api/figures/abc/approve", "/api/figures/")
// returns "abc".
func pathSegment(path, prefix string) string {
	rest := strings.TrimPrefix(path, prefix)
	if i := strings.Index(rest, "/"); i >= 0 {
		return rest[:i]
	}
	return rest
}
