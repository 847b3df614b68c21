package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"log/slog"

	"github.com/google/uuid"

	"github.com/GIDD/gidd/internal/auth"
	"github.com/GIDD/gidd/internal/models"
	"github.com/GIDD/gidd/internal/review"
)

// CommentStore persists reviewer comments on figures.
type CommentStore interface {
	Create(ctx context.Context, id, figureID, author, body string) error
	Clear(ctx context.Context, id string) error
	ListForFigure(ctx context.Context, figureID string) ([]models.ReviewComment, error)
}

// ReviewHandler exposes the review-status state machine over HTTP. Domain-rule
// violations map to 409, missing entities to 404.
type ReviewHandler struct {
	service  *review.Service
	figures  FigureStore
	comments CommentStore
	logger   *slog.Logger
}

// NewReviewHandler creates a new review handler.
func NewReviewHandler(service *review.Service, figures FigureStore, comments CommentStore, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service:  service,
		figures:  figures,
		comments: comments,
		logger:   logger,
	}
}

// HandleFigureAction routes /api/figures/:id/{approve,unapprove,re-request-review,comments}
func (h *ReviewHandler) HandleFigureAction(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/figures/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" {
		respondError(w, h.logger, http.StatusNotFound, "not found")
		return
	}
	figureID, action := parts[0], parts[1]

	if action == "comments" {
		switch r.Method {
		case http.MethodGet:
			h.listComments(w, r, figureID)
		case http.MethodPost:
			h.createComment(w, r, figureID)
		default:
			respondError(w, h.logger, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	if r.Method != http.MethodPost {
		respondError(w, h.logger, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	switch action {
	case "approve":
		h.transition(w, r, figureID, h.service.ApproveFigure)
	case "unapprove":
		h.transition(w, r, figureID, h.service.UnapproveFigure)
	case "re-request-review":
		h.transition(w, r, figureID, h.service.ReRequestReview)
	default:
		respondError(w, h.logger, http.StatusNotFound, "not found")
	}
}

func (h *ReviewHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	figureID string,
	fn func(ctx context.Context, figureID string) (*models.Figure, error),
) {
	f, err := fn(r.Context(), figureID)
	if err != nil {
		h.respondTransitionError(w, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, f)
}

// HandleEventAction routes POST /api/events/:id/{sign-off,include-triangulation}
func (h *ReviewHandler) HandleEventAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, h.logger, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/events/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" {
		respondError(w, h.logger, http.StatusNotFound, "not found")
		return
	}
	eventID, action := parts[0], parts[1]

	switch action {
	case "sign-off":
		event, err := h.service.SignOffEvent(r.Context(), eventID)
		if err != nil {
			h.respondTransitionError(w, err)
			return
		}
		respondJSON(w, h.logger, http.StatusOK, event)
	case "include-triangulation":
		var req struct {
			Include bool `json:"include"`
		}
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, h.logger, http.StatusBadRequest, "invalid request body")
			return
		}
		event, err := h.service.SetIncludeTriangulation(r.Context(), eventID, req.Include)
		if err != nil {
			h.respondTransitionError(w, err)
			return
		}
		respondJSON(w, h.logger, http.StatusOK, event)
	default:
		respondError(w, h.logger, http.StatusNotFound, "not found")
	}
}

// CommentRequest is the payload for a new review comment.
type CommentRequest struct {
	Body string `json:"body"`
}

func (h *ReviewHandler) createComment(w http.ResponseWriter, r *http.Request, figureID string) {
	var req CommentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Body) == "" {
		errs := models.ValidationErrors{}
		errs.Add("body", "comment body is required")
		respondValidationErrors(w, h.logger, errs)
		return
	}

	ctx := r.Context()
	f, err := h.figures.GetFigure(ctx, figureID)
	if err != nil {
		h.logger.Error("failed to get figure", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "failed to create comment")
		return
	}
	if f == nil {
		respondError(w, h.logger, http.StatusNotFound, "figure not found")
		return
	}

	author, _ := auth.GetUserIDFromContext(ctx)
	id := uuid.NewString()
	if err := h.comments.Create(ctx, id, figureID, author, req.Body); err != nil {
		h.logger.Error("failed to create comment", "figure_id", figureID, "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "failed to create comment")
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, map[string]string{"id": id})
}

func (h *ReviewHandler) listComments(w http.ResponseWriter, r *http.Request, figureID string) {
	comments, err := h.comments.ListForFigure(r.Context(), figureID)
	if err != nil {
		h.logger.Error("failed to list comments", "figure_id", figureID, "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "failed to list comments")
		return
	}
	respondJSON(w, h.logger, http.StatusOK, comments)
}

// ClearComment handles POST /api/comments/:id/clear
func (h *ReviewHandler) ClearComment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, h.logger, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/comments/")
	id := strings.TrimSuffix(rest, "/clear")
	if id == "" || id == rest {
		respondError(w, h.logger, http.StatusNotFound, "not found")
		return
	}

	if err := h.comments.Clear(r.Context(), id); err != nil {
		h.logger.Warn("failed to clear comment", "comment_id", id, "error", err)
		respondError(w, h.logger, http.StatusNotFound, "comment not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ReviewHandler) respondTransitionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		respondError(w, h.logger, http.StatusNotFound, "not found")
	case errors.Is(err, review.ErrSignOffNotAllowed), errors.Is(err, review.ErrFigureNotApproved):
		respondError(w, h.logger, http.StatusConflict, err.Error())
	default:
		h.logger.Error("review transition failed", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "internal server error")
	}
}
