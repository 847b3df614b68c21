package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/GIDD/gidd/internal/figure"
	"github.com/GIDD/gidd/internal/models"
	"github.com/GIDD/gidd/internal/review"
)

// FigureStore is the figure persistence the handlers need.
type FigureStore interface {
	Create(ctx context.Context, figure models.Figure) error
	Update(ctx context.Context, figure models.Figure) error
	GetFigure(ctx context.Context, id string) (*models.Figure, error)
	ListFigures(ctx context.Context) ([]models.Figure, error)
	ListFiguresByEvent(ctx context.Context, eventID string) ([]models.Figure, error)
	Delete(ctx context.Context, id string) error
}

// TaxonomyStore loads the lookup tables for validation and reference reads.
type TaxonomyStore interface {
	LoadIndex(ctx context.Context) (models.TaxonomyIndex, error)
	Countries(ctx context.Context) (map[string]string, error)
	Organizations(ctx context.Context) (map[string]models.Organization, error)
	Tags(ctx context.Context) (map[string]models.Tag, error)
	Entries(ctx context.Context) (map[string]models.Entry, error)
}

// FigureHandler handles figure CRUD. Create and update run the full
// validation and total derivation; every mutation recomputes the owning
// event's review status.
type FigureHandler struct {
	figures  FigureStore
	events   EventStore
	taxonomy TaxonomyStore
	review   *review.Service
	logger   *slog.Logger
}

// NewFigureHandler creates a new figure handler.
func NewFigureHandler(figures FigureStore, events EventStore, taxonomy TaxonomyStore, reviewService *review.Service, logger *slog.Logger) *FigureHandler {
	return &FigureHandler{
		figures:  figures,
		events:   events,
		taxonomy: taxonomy,
		review:   reviewService,
		logger:   logger,
	}
}

// FigureRequest is the create/update payload.
type FigureRequest struct {
	EntryID     string `json:"entry_id"`
	EventID     string `json:"event_id"`
	CountryISO3 string `json:"country_iso3"`

	Reported      int      `json:"reported"`
	Unit          string   `json:"unit"`
	HouseholdSize *float64 `json:"household_size,omitempty"`

	Category string `json:"category"`
	Role     string `json:"role"`
	Cause    string `json:"figure_cause"`

	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	IncludeIDU bool   `json:"include_idu"`
	ExcerptIDU string `json:"excerpt_idu,omitempty"`

	Disaggregation models.Disaggregation   `json:"disaggregation"`
	Locations      []models.FigureLocation `json:"locations,omitempty"`

	ViolenceSubTypeID *string `json:"violence_sub_type_id,omitempty"`
	DisasterSubTypeID *string `json:"disaster_sub_type_id,omitempty"`

	TagIDs []string `json:"tag_ids,omitempty"`
}

func (req FigureRequest) toInput() figure.Input {
	return figure.Input{
		EntryID:           req.EntryID,
		EventID:           req.EventID,
		CountryISO3:       req.CountryISO3,
		Reported:          req.Reported,
		Unit:              models.Unit(req.Unit),
		HouseholdSize:     req.HouseholdSize,
		Category:          models.FigureCategory(req.Category),
		Role:              models.FigureRole(req.Role),
		Cause:             models.Cause(req.Cause),
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		IncludeIDU:        req.IncludeIDU,
		ExcerptIDU:        req.ExcerptIDU,
		Disaggregation:    req.Disaggregation,
		Locations:         req.Locations,
		ViolenceSubTypeID: req.ViolenceSubTypeID,
		DisasterSubTypeID: req.DisasterSubTypeID,
		TagIDs:            req.TagIDs,
	}
}

// HandleFigures handles GET/POST /api/figures
func (h *FigureHandler) HandleFigures(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		respondError(w, h.logger, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *FigureHandler) list(w http.ResponseWriter, r *http.Request) {
	figures, err := h.figures.ListFigures(r.Context())
	if err != nil {
		h.logger.Error("failed to list figures", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "failed to list figures")
		return
	}
	respondJSON(w, h.logger, http.StatusOK, figures)
}

// HandleFigureByID handles GET/PUT/DELETE /api/figures/:id
func (h *FigureHandler) HandleFigureByID(w http.ResponseWriter, r *http.Request) {
	id := pathSegment(r.URL.Path, "/api/figures/")
	if id == "" {
		respondError(w, h.logger, http.StatusNotFound, "figure id required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		respondError(w, h.logger, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *FigureHandler) create(w http.ResponseWriter, r *http.Request) {
	var req FigureRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := r.Context()
	validated, ok := h.validate(w, ctx, req, nil)
	if !ok {
		return
	}

	validated.ID = uuid.NewString()
	now := time.Now()
	validated.CreatedAt = now
	validated.UpdatedAt = now

	if err := h.figures.Create(ctx, validated); err != nil {
		h.logger.Error("failed to create figure", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "failed to create figure")
		return
	}

	if err := h.review.RecomputeEventStatus(ctx, validated.EventID); err != nil {
		h.logger.Error("failed to recompute event status", "event_id", validated.EventID, "error", err)
	}

	respondJSON(w, h.logger, http.StatusCreated, validated)
}

func (h *FigureHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	f, err := h.figures.GetFigure(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get figure", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "failed to get figure")
		return
	}
	if f == nil {
		respondError(w, h.logger, http.StatusNotFound, "figure not found")
		return
	}
	respondJSON(w, h.logger, http.StatusOK, f)
}

func (h *FigureHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()

	current, err := h.figures.GetFigure(ctx, id)
	if err != nil {
		h.logger.Error("failed to get figure", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "failed to get figure")
		return
	}
	if current == nil {
		respondError(w, h.logger, http.StatusNotFound, "figure not found")
		return
	}

	var req FigureRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	validated, ok := h.validate(w, ctx, req, current)
	if !ok {
		return
	}
	validated.UpdatedAt = time.Now()

	if err := h.figures.Update(ctx, validated); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			respondError(w, h.logger, http.StatusNotFound, "figure not found")
			return
		}
		h.logger.Error("failed to update figure", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "failed to update figure")
		return
	}

	if err := h.review.RecomputeEventStatus(ctx, validated.EventID); err != nil {
		h.logger.Error("failed to recompute event status", "event_id", validated.EventID, "error", err)
	}

	respondJSON(w, h.logger, http.StatusOK, validated)
}

func (h *FigureHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()

	f, err := h.figures.GetFigure(ctx, id)
	if err != nil {
		h.logger.Error("failed to get figure", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "failed to delete figure")
		return
	}
	if f == nil {
		respondError(w, h.logger, http.StatusNotFound, "figure not found")
		return
	}

	if err := h.figures.Delete(ctx, id); err != nil {
		h.logger.Error("failed to delete figure", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "failed to delete figure")
		return
	}

	if err := h.review.RecomputeEventStatus(ctx, f.EventID); err != nil {
		h.logger.Error("failed to recompute event status", "event_id", f.EventID, "error", err)
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListByEvent handles GET /api/events/:id/figures
func (h *FigureHandler) ListByEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, h.logger, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	eventID := pathSegment(r.URL.Path, "/api/events/")
	figures, err := h.figures.ListFiguresByEvent(r.Context(), eventID)
	if err != nil {
		h.logger.Error("failed to list figures", "event_id", eventID, "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "failed to list figures")
		return
	}
	respondJSON(w, h.logger, http.StatusOK, figures)
}

// validate runs the full figure validation against the owning event and
// taxonomy. It writes the error response itself and reports ok=false when
// the figure must not be persisted.
func (h *FigureHandler) validate(w http.ResponseWriter, ctx context.Context, req FigureRequest, current *models.Figure) (models.Figure, bool) {
	event, err := h.events.GetEvent(ctx, req.EventID)
	if err != nil {
		h.logger.Error("failed to get event", "event_id", req.EventID, "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "failed to load event")
		return models.Figure{}, false
	}
	if event == nil {
		errs := models.ValidationErrors{}
		errs.Add("event_id", "event does not exist")
		respondValidationErrors(w, h.logger, errs)
		return models.Figure{}, false
	}

	tax, err := h.taxonomy.LoadIndex(ctx)
	if err != nil {
		h.logger.Error("failed to load taxonomy", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "failed to load taxonomy")
		return models.Figure{}, false
	}

	in := req.toInput()
	countries, err := h.taxonomy.Countries(ctx)
	if err != nil {
		h.logger.Error("failed to load countries", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "failed to load countries")
		return models.Figure{}, false
	}
	in.CountryName = countries[in.CountryISO3]

	validated, errs := figure.Validate(in, current, event, tax)
	if errs.Any() {
		respondValidationErrors(w, h.logger, errs)
		return models.Figure{}, false
	}
	return validated, true
}
