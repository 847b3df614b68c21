package api

import (
	"context"
	"net/http"

	"log/slog"

	"github.com/GIDD/gidd/internal/models"
)

// ReleaseAdminStore reads and writes the release metadata row.
type ReleaseAdminStore interface {
	Get(ctx context.Context) (*models.ReleaseMetadata, error)
	Set(ctx context.Context, releaseYear, preReleaseYear int) (*models.ReleaseMetadata, error)
}

// ReleaseHandler manages the release metadata that gates public reads.
type ReleaseHandler struct {
	store  ReleaseAdminStore
	logger *slog.Logger
}

// NewReleaseHandler creates a new release metadata handler.
func NewReleaseHandler(store ReleaseAdminStore, logger *slog.Logger) *ReleaseHandler {
	return &ReleaseHandler{
		store:  store,
		logger: logger,
	}
}

// ReleaseRequest is the payload for updating release metadata.
type ReleaseRequest struct {
	ReleaseYear    int `json:"release_year"`
	PreReleaseYear int `json:"pre_release_year"`
}

// Handle routes GET/PUT /api/release-metadata
func (h *ReleaseHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPut:
		h.set(w, r)
	default:
		respondError(w, h.logger, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *ReleaseHandler) get(w http.ResponseWriter, r *http.Request) {
	meta, err := h.store.Get(r.Context())
	if err != nil {
		h.logger.Error("failed to read release metadata", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "failed to read release metadata")
		return
	}
	if meta == nil {
		respondError(w, h.logger, http.StatusNotFound, "release metadata not set")
		return
	}
	respondJSON(w, h.logger, http.StatusOK, meta)
}

func (h *ReleaseHandler) set(w http.ResponseWriter, r *http.Request) {
	var req ReleaseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	errs := models.ValidationErrors{}
	if req.ReleaseYear < 1900 {
		errs.Add("release_year", "release year is required")
	}
	if req.PreReleaseYear < 1900 {
		errs.Add("pre_release_year", "pre-release year is required")
	}
	if !errs.Any() && req.PreReleaseYear < req.ReleaseYear {
		errs.Add("pre_release_year", "pre-release year cannot precede the release year")
	}
	if errs.Any() {
		respondValidationErrors(w, h.logger, errs)
		return
	}

	meta, err := h.store.Set(r.Context(), req.ReleaseYear, req.PreReleaseYear)
	if err != nil {
		h.logger.Error("failed to update release metadata", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "failed to update release metadata")
		return
	}

	h.logger.Info("release metadata updated",
		"release_year", req.ReleaseYear,
		"pre_release_year", req.PreReleaseYear)
	respondJSON(w, h.logger, http.StatusOK, meta)
}
