package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/GIDD/gidd/internal/figure"
	"github.com/GIDD/gidd/internal/models"
)

// EventStore is the event persistence the handlers need.
type EventStore interface {
	Create(ctx context.Context, event models.Event) error
	Update(ctx context.Context, event models.Event) error
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	ListEvents(ctx context.Context) (map[string]models.Event, error)
}

// EventHandler handles event CRUD. Review status and the triangulation flag
// are never writable through these endpoints; they move only through the
// review actions.
type EventHandler struct {
	events   EventStore
	taxonomy TaxonomyStore
	logger   *slog.Logger
}

// NewEventHandler creates a new event handler.
func NewEventHandler(events EventStore, taxonomy TaxonomyStore, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		events:   events,
		taxonomy: taxonomy,
		logger:   logger,
	}
}

// EventRequest is the create/update payload.
type EventRequest struct {
	Name  string `json:"name"`
	Cause string `json:"event_type"`

	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	CountryISO3s []string           `json:"country_iso3s"`
	EventCodes   []models.EventCode `json:"event_codes,omitempty"`

	ViolenceSubTypeID *string `json:"violence_sub_type_id,omitempty"`
	DisasterSubTypeID *string `json:"disaster_sub_type_id,omitempty"`

	IgnoreQA bool `json:"ignore_qa"`
}

// HandleEvents handles GET/POST /api/events
func (h *EventHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		respondError(w, h.logger, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// HandleEventByID handles GET/PUT /api/events/:id
func (h *EventHandler) HandleEventByID(w http.ResponseWriter, r *http.Request) {
	id := pathSegment(r.URL.Path, "/api/events/")
	if id == "" {
		respondError(w, h.logger, http.StatusNotFound, "event id required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	default:
		respondError(w, h.logger, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *EventHandler) list(w http.ResponseWriter, r *http.Request) {
	var filter models.EventReviewStatus
	if param := r.URL.Query().Get("review_status"); param != "" {
		filter = models.EventReviewStatus(param)
		if !filter.UserSelectable() {
			respondError(w, h.logger, http.StatusBadRequest, "review_status is not a selectable filter value")
			return
		}
	}

	events, err := h.events.ListEvents(r.Context())
	if err != nil {
		h.logger.Error("failed to list events", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "failed to list events")
		return
	}

	out := make([]models.Event, 0, len(events))
	for _, event := range events {
		if filter != "" && foldedStatus(event.ReviewStatus) != filter {
			continue
		}
		out = append(out, event)
	}
	respondJSON(w, h.logger, http.StatusOK, out)
}

// foldedStatus maps the derived-only statuses back onto the selectable value
// they surface under in filters.
func foldedStatus(s models.EventReviewStatus) models.EventReviewStatus {
	if !s.UserSelectable() {
		return models.EventReviewInProgress
	}
	return s
}

func (h *EventHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	event, err := h.events.GetEvent(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get event", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "failed to get event")
		return
	}
	if event == nil {
		respondError(w, h.logger, http.StatusNotFound, "event not found")
		return
	}
	respondJSON(w, h.logger, http.StatusOK, event)
}

func (h *EventHandler) create(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := r.Context()
	event, ok := h.validate(w, ctx, req)
	if !ok {
		return
	}

	event.ID = uuid.NewString()
	event.ReviewStatus = models.EventReviewNotStarted
	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now

	if err := h.events.Create(ctx, event); err != nil {
		h.logger.Error("failed to create event", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "failed to create event")
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, event)
}

func (h *EventHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()

	current, err := h.events.GetEvent(ctx, id)
	if err != nil {
		h.logger.Error("failed to get event", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "failed to get event")
		return
	}
	if current == nil {
		respondError(w, h.logger, http.StatusNotFound, "event not found")
		return
	}

	var req EventRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	event, ok := h.validate(w, ctx, req)
	if !ok {
		return
	}

	// Content edits never touch the review workflow or the QA widening flag.
	event.ID = current.ID
	event.ReviewStatus = current.ReviewStatus
	event.IncludeTriangulationInQA = current.IncludeTriangulationInQA
	event.CreatedAt = current.CreatedAt
	event.UpdatedAt = time.Now()

	if err := h.events.Update(ctx, event); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			respondError(w, h.logger, http.StatusNotFound, "event not found")
			return
		}
		h.logger.Error("failed to update event", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "failed to update event")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, event)
}

// validate checks the proposed attributes and derives the taxonomy parent
// chain. It writes the error response itself and reports ok=false when the
// event must not be persisted.
func (h *EventHandler) validate(w http.ResponseWriter, ctx context.Context, req EventRequest) (models.Event, bool) {
	errs := models.ValidationErrors{}

	if strings.TrimSpace(req.Name) == "" {
		errs.Add("name", "must not be blank")
	}

	cause := models.Cause(req.Cause)
	switch cause {
	case models.CauseConflict, models.CauseDisaster, models.CauseOther:
	default:
		errs.Add("event_type", fmt.Sprintf("unknown cause %q", req.Cause))
	}

	if req.StartDate.IsZero() {
		errs.Add("start_date", "is required")
	}
	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		errs.Add("end_date", "must not precede the start date")
	}

	countries, err := h.taxonomy.Countries(ctx)
	if err != nil {
		h.logger.Error("failed to load countries", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "failed to load countries")
		return models.Event{}, false
	}

	if len(req.CountryISO3s) == 0 {
		errs.Add("country_iso3s", "at least one country is required")
	}
	iso3Set := map[string]bool{}
	for _, iso3 := range req.CountryISO3s {
		if _, ok := countries[iso3]; !ok {
			errs.Add("country_iso3s", fmt.Sprintf("unknown country %q", iso3))
		}
		iso3Set[iso3] = true
	}

	for _, code := range req.EventCodes {
		if strings.TrimSpace(code.Code) == "" {
			errs.Add("event_codes", "codes must not be blank")
		}
		if code.CountryISO3 != "" && !iso3Set[code.CountryISO3] {
			errs.Add("event_codes", fmt.Sprintf("code %q is scoped to %s, not an event country", code.Code, code.CountryISO3))
		}
	}

	event := models.Event{
		Name:         req.Name,
		Cause:        cause,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		CountryISO3s: req.CountryISO3s,
		EventCodes:   req.EventCodes,
		IgnoreQA:     req.IgnoreQA,
	}

	tax, err := h.taxonomy.LoadIndex(ctx)
	if err != nil {
		h.logger.Error("failed to load taxonomy", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "failed to load taxonomy")
		return models.Event{}, false
	}

	if req.DisasterSubTypeID != nil {
		parents, err := figure.DeriveDisasterParents(*req.DisasterSubTypeID, tax)
		if err != nil {
			errs.Add("disaster_sub_type", err.Error())
		} else {
			event.DisasterSubTypeID = req.DisasterSubTypeID
			event.DisasterTypeID = &parents.TypeID
			event.DisasterSubCategoryID = &parents.SubCategoryID
			event.DisasterCategoryID = &parents.CategoryID
		}
	}
	if req.ViolenceSubTypeID != nil {
		violenceID, err := figure.DeriveViolenceParent(*req.ViolenceSubTypeID, tax)
		if err != nil {
			errs.Add("violence_sub_type", err.Error())
		} else {
			event.ViolenceSubTypeID = req.ViolenceSubTypeID
			event.ViolenceID = &violenceID
		}
	}

	if errs.Any() {
		respondValidationErrors(w, h.logger, errs)
		return models.Event{}, false
	}
	return event, true
}
