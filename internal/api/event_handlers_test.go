package api

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/GIDD/gidd/internal/models"
)

func TestCreateEvent_DerivesHazardChain(t *testing.T) {
	env := newTestEnv(t)

	body := `{
		"name": "Kabul floods 2023",
		"event_type": "disaster",
		"start_date": "2023-04-01T00:00:00Z",
		"country_iso3s": ["AFG"],
		"event_codes": [{"code": "FL-2023-000012-AFG", "type": "glide", "country_iso3": "AFG"}],
		"disaster_sub_type_id": "dst1"
	}`
	rec := env.request(t, http.MethodPost, "/api/events", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created models.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if created.ID == "" {
		t.Error("expected a generated event id")
	}
	if created.ReviewStatus != models.EventReviewNotStarted {
		t.Errorf("expected review_not_started, got %q", created.ReviewStatus)
	}
	if created.DisasterTypeID == nil || *created.DisasterTypeID != "dt1" {
		t.Errorf("expected derived type dt1, got %v", created.DisasterTypeID)
	}
	if created.DisasterCategoryID == nil || *created.DisasterCategoryID != "dc1" {
		t.Errorf("expected derived category dc1, got %v", created.DisasterCategoryID)
	}
}

func TestCreateEvent_CollectsValidationErrors(t *testing.T) {
	env := newTestEnv(t)

	body := `{
		"name": "  ",
		"event_type": "meteor",
		"country_iso3s": ["XXX"],
		"event_codes": [{"code": "GL-1", "type": "glide", "country_iso3": "SYR"}]
	}`
	rec := env.request(t, http.MethodPost, "/api/events", body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Errors map[string][]string `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	for _, field := range []string{"name", "event_type", "start_date", "country_iso3s", "event_codes"} {
		if len(resp.Errors[field]) == 0 {
			t.Errorf("expected a validation error for %s, got %v", field, resp.Errors)
		}
	}
}

func TestUpdateEvent_PreservesReviewState(t *testing.T) {
	env := newTestEnv(t)
	env.addEvent(models.Event{
		ID:                       "e1",
		Name:                     "Idlib offensive",
		Cause:                    models.CauseConflict,
		StartDate:                time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		CountryISO3s:             []string{"SYR"},
		ReviewStatus:             models.EventReviewSignedOff,
		IncludeTriangulationInQA: true,
	})

	body := `{
		"name": "Idlib offensive (revised)",
		"event_type": "conflict",
		"start_date": "2023-01-01T00:00:00Z",
		"country_iso3s": ["SYR"],
		"violence_sub_type_id": "vst1"
	}`
	rec := env.request(t, http.MethodPut, "/api/events/e1", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var updated models.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if updated.Name != "Idlib offensive (revised)" {
		t.Errorf("expected updated name, got %q", updated.Name)
	}
	if updated.ReviewStatus != models.EventReviewSignedOff {
		t.Errorf("content edit must not touch review status, got %q", updated.ReviewStatus)
	}
	if !updated.IncludeTriangulationInQA {
		t.Error("content edit must not reset the triangulation flag")
	}
	if updated.ViolenceID == nil || *updated.ViolenceID != "v1" {
		t.Errorf("expected derived violence v1, got %v", updated.ViolenceID)
	}
}

func TestGetEvent_NotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodGet, "/api/events/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestListEvents(t *testing.T) {
	env := newTestEnv(t)
	env.addEvent(testEvent("e1", models.CauseConflict))
	env.addEvent(testEvent("e2", models.CauseDisaster))

	rec := env.request(t, http.MethodGet, "/api/events", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var events []models.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &events); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
}

func TestListEvents_StatusFilterFoldsDerivedStates(t *testing.T) {
	env := newTestEnv(t)

	inProgress := testEvent("e1", models.CauseConflict)
	inProgress.ReviewStatus = models.EventReviewInProgress
	env.addEvent(inProgress)

	changed := testEvent("e2", models.CauseConflict)
	changed.ReviewStatus = models.EventReviewApprovedChanged
	env.addEvent(changed)

	approved := testEvent("e3", models.CauseConflict)
	approved.ReviewStatus = models.EventReviewApproved
	env.addEvent(approved)

	rec := env.request(t, http.MethodGet, "/api/events?review_status=review_in_progress", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var events []models.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &events); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	// approved_but_changed folds into review_in_progress for filtering.
	if len(events) != 2 {
		t.Fatalf("expected 2 events under the folded filter, got %d", len(events))
	}

	rec = env.request(t, http.MethodGet, "/api/events?review_status=approved_but_changed", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a derived-only filter value, got %d", rec.Code)
	}
}
