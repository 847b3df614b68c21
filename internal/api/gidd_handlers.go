package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/GIDD/gidd/internal/models"
)

// SnapshotReadStore serves the published snapshot tables, capped at a year
// ceiling.
type SnapshotReadStore interface {
	ListConflicts(ctx context.Context, maxYear int) ([]models.ConflictRow, error)
	ListDisasters(ctx context.Context, maxYear int) ([]models.DisasterRow, error)
	ListDisplacementData(ctx context.Context, maxYear int) ([]models.DisplacementDataRow, error)
	ListPublicFigureAnalyses(ctx context.Context, maxYear int) ([]models.PublicFigureAnalysisRow, error)
	ListGiddEvents(ctx context.Context, maxYear int) ([]models.GiddEvent, error)
	ListGiddFigures(ctx context.Context, maxYear int) ([]models.GiddFigure, error)
	LastReleaseDate(ctx context.Context) (*time.Time, error)
}

// ReleaseStore reads the release metadata that caps public reads.
type ReleaseStore interface {
	Get(ctx context.Context) (*models.ReleaseMetadata, error)
}

// GiddHandler serves the public snapshot tables. Every read is capped at the
// year for the requested release environment; data for later years exists in
// the snapshot but is not published until the metadata is advanced.
type GiddHandler struct {
	snapshots SnapshotReadStore
	release   ReleaseStore
	logger    *slog.Logger
}

// NewGiddHandler creates a new public data handler.
func NewGiddHandler(snapshots SnapshotReadStore, release ReleaseStore, logger *slog.Logger) *GiddHandler {
	return &GiddHandler{
		snapshots: snapshots,
		release:   release,
		logger:    logger,
	}
}

// Handle routes GET /api/gidd/:table
func (h *GiddHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, h.logger, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ctx := r.Context()
	table := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/gidd/"), "/")

	// Export metadata, not year-gated.
	if table == "last-release-date" {
		date, err := h.snapshots.LastReleaseDate(ctx)
		if err != nil {
			h.logger.Error("failed to read last release date", "error", err)
			respondError(w, h.logger, http.StatusInternalServerError, "failed to read last release date")
			return
		}
		respondJSON(w, h.logger, http.StatusOK, map[string]*time.Time{"last_release_date": date})
		return
	}

	maxYear, ok := h.yearCeiling(w, r)
	if !ok {
		return
	}

	var (
		payload interface{}
		err     error
	)
	switch table {
	case "conflicts":
		payload, err = h.snapshots.ListConflicts(ctx, maxYear)
	case "disasters":
		payload, err = h.snapshots.ListDisasters(ctx, maxYear)
	case "displacement-data":
		payload, err = h.snapshots.ListDisplacementData(ctx, maxYear)
	case "public-figure-analyses":
		payload, err = h.snapshots.ListPublicFigureAnalyses(ctx, maxYear)
	case "events":
		payload, err = h.snapshots.ListGiddEvents(ctx, maxYear)
	case "figures":
		payload, err = h.snapshots.ListGiddFigures(ctx, maxYear)
	default:
		respondError(w, h.logger, http.StatusNotFound, "unknown dataset")
		return
	}
	if err != nil {
		h.logger.Error("failed to read snapshot table", "table", table, "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "failed to read data")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, payload)
}

// yearCeiling resolves the release environment to its published year. Without
// release metadata there is no published dataset, so reads fail with 503
// until an operator sets it.
func (h *GiddHandler) yearCeiling(w http.ResponseWriter, r *http.Request) (int, bool) {
	meta, err := h.release.Get(r.Context())
	if err != nil {
		h.logger.Error("failed to read release metadata", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "failed to read release metadata")
		return 0, false
	}
	if meta == nil {
		respondError(w, h.logger, http.StatusServiceUnavailable, "no release has been published")
		return 0, false
	}

	env := r.URL.Query().Get("release_environment")
	switch env {
	case "", "RELEASE":
		return meta.ReleaseYear, true
	case "PRE_RELEASE":
		return meta.PreReleaseYear, true
	default:
		respondError(w, h.logger, http.StatusBadRequest, "release_environment must be RELEASE or PRE_RELEASE")
		return 0, false
	}
}
