package api

import (
	"errors"
	"net/http"
	"strconv"

	"log/slog"

	"github.com/GIDD/gidd/internal/pipeline"
)

const defaultRunsLimit = 20

// PipelineHandler exposes the snapshot pipeline: trigger, force trigger and
// the run log.
type PipelineHandler struct {
	orchestrator *pipeline.Orchestrator
	logger       *slog.Logger
}

// NewPipelineHandler creates a new pipeline handler.
func NewPipelineHandler(orchestrator *pipeline.Orchestrator, logger *slog.Logger) *PipelineHandler {
	return &PipelineHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// Trigger handles POST /api/pipeline/trigger. A 202 means the run was
// accepted and executes in the background; 409 means a run is already
// pending.
func (h *PipelineHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, h.logger, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	run, err := h.orchestrator.Trigger(r.Context(), "api")
	if err != nil {
		if errors.Is(err, pipeline.ErrRunPending) {
			respondError(w, h.logger, http.StatusConflict, err.Error())
			return
		}
		h.logger.Error("failed to trigger pipeline run", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "failed to trigger pipeline run")
		return
	}

	respondJSON(w, h.logger, http.StatusAccepted, run)
}

// ForceTrigger handles POST /api/pipeline/force-trigger, bypassing the
// pending gate. Operator recovery only.
func (h *PipelineHandler) ForceTrigger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, h.logger, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	run, err := h.orchestrator.ForceTrigger(r.Context(), "api-force")
	if err != nil {
		h.logger.Error("failed to force trigger pipeline run", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "failed to trigger pipeline run")
		return
	}

	respondJSON(w, h.logger, http.StatusAccepted, run)
}

// Runs handles GET /api/pipeline/runs?limit=
func (h *PipelineHandler) Runs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, h.logger, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondError(w, h.logger, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	runs, err := h.orchestrator.Runs(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list pipeline runs", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "failed to list pipeline runs")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, runs)
}
