package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/GIDD/gidd/internal/models"
)

func testEvent(id string, cause models.Cause) models.Event {
	return models.Event{
		ID:           id,
		Name:         "Test event",
		Cause:        cause,
		StartDate:    time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		CountryISO3s: []string{"AFG"},
		ReviewStatus: models.EventReviewNotStarted,
	}
}

func TestCreateFigure_DerivesHouseholdTotal(t *testing.T) {
	env := newTestEnv(t)
	env.addEvent(testEvent("ev1", models.CauseConflict))

	body := `{
		"entry_id": "en1",
		"event_id": "ev1",
		"country_iso3": "AFG",
		"reported": 10,
		"unit": "household",
		"household_size": 4.5,
		"category": "new_displacement",
		"role": "recommended",
		"figure_cause": "conflict",
		"start_date": "2023-02-01T00:00:00Z",
		"end_date": "2023-02-10T00:00:00Z",
		"disaggregation": {},
		"violence_sub_type_id": "vst1"
	}`

	rec := env.request(t, http.MethodPost, "/api/figures", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created models.Figure
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if created.TotalFigures != 45 {
		t.Errorf("expected total 45 for 10 households of 4.5, got %d", created.TotalFigures)
	}
	if created.CountryName != "Afghanistan" {
		t.Errorf("expected country name resolved to Afghanistan, got %q", created.CountryName)
	}
	if created.ViolenceID == nil || *created.ViolenceID != "v1" {
		t.Errorf("expected violence parent v1 to be derived, got %v", created.ViolenceID)
	}
	if created.ReviewStatus != models.FigureReviewNotStarted {
		t.Errorf("expected new figure to start unreviewed, got %s", created.ReviewStatus)
	}
	if created.ID == "" {
		t.Error("expected a generated figure id")
	}
}

func TestCreateFigure_CollectsValidationErrors(t *testing.T) {
	env := newTestEnv(t)
	env.addEvent(testEvent("ev1", models.CauseConflict))

	// Household without size, cause mismatch and an oversized disaggregation
	// must all surface in one response.
	body := `{
		"entry_id": "en1",
		"event_id": "ev1",
		"country_iso3": "AFG",
		"reported": 10,
		"unit": "household",
		"category": "new_displacement",
		"role": "recommended",
		"figure_cause": "disaster",
		"start_date": "2023-02-01T00:00:00Z",
		"disaggregation": {"urban": 500}
	}`

	rec := env.request(t, http.MethodPost, "/api/figures", body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Errors map[string][]string `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	for _, field := range []string{"household_size", "figure_cause", "disaggregation_urban"} {
		if len(resp.Errors[field]) == 0 {
			t.Errorf("expected a validation error for %s, got %v", field, resp.Errors)
		}
	}
}

func TestCreateFigure_UnknownEvent(t *testing.T) {
	env := newTestEnv(t)

	body := `{
		"entry_id": "en1",
		"event_id": "missing",
		"country_iso3": "AFG",
		"reported": 5,
		"unit": "person",
		"category": "idps",
		"role": "recommended",
		"figure_cause": "conflict",
		"start_date": "2023-02-01T00:00:00Z",
		"disaggregation": {}
	}`

	rec := env.request(t, http.MethodPost, "/api/figures", body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unknown event, got %d", rec.Code)
	}
}

func TestUpdateFigure_PreservesReviewState(t *testing.T) {
	env := newTestEnv(t)
	env.addEvent(testEvent("ev1", models.CauseConflict))
	env.addFigure(models.Figure{
		ID:           "f1",
		EntryID:      "en1",
		EventID:      "ev1",
		CountryISO3:  "AFG",
		Reported:     100,
		Unit:         models.UnitPerson,
		TotalFigures: 100,
		Category:     models.CategoryNewDisplacement,
		Role:         models.RoleRecommended,
		Cause:        models.CauseConflict,
		StartDate:    time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC),
		ReviewStatus: models.FigureReviewApproved,
		CreatedAt:    time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC),
	})

	body := `{
		"entry_id": "en1",
		"event_id": "ev1",
		"country_iso3": "AFG",
		"reported": 200,
		"unit": "person",
		"category": "new_displacement",
		"role": "recommended",
		"figure_cause": "conflict",
		"start_date": "2023-02-01T00:00:00Z",
		"disaggregation": {}
	}`

	rec := env.request(t, http.MethodPut, "/api/figures/f1", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var updated models.Figure
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if updated.ID != "f1" {
		t.Errorf("expected id f1 to survive the update, got %q", updated.ID)
	}
	if updated.TotalFigures != 200 {
		t.Errorf("expected total 200, got %d", updated.TotalFigures)
	}
	if updated.ReviewStatus != models.FigureReviewApproved {
		t.Errorf("content edit must not reset the review status, got %s", updated.ReviewStatus)
	}
}

func TestGetFigure_NotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodGet, "/api/figures/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDeleteFigure_RecomputesEventStatus(t *testing.T) {
	env := newTestEnv(t)
	event := testEvent("ev1", models.CauseConflict)
	event.ReviewStatus = models.EventReviewInProgress
	env.addEvent(event)

	env.addFigure(models.Figure{
		ID: "f1", EventID: "ev1", Role: models.RoleRecommended,
		ReviewStatus: models.FigureReviewApproved,
	})
	env.addFigure(models.Figure{
		ID: "f2", EventID: "ev1", Role: models.RoleRecommended,
		ReviewStatus: models.FigureReviewNotStarted,
	})

	rec := env.request(t, http.MethodDelete, "/api/figures/f2", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	// Only the approved figure remains, so the event derives to approved.
	got, _ := env.events.GetEvent(context.Background(), "ev1")
	if got.ReviewStatus != models.EventReviewApproved {
		t.Errorf("expected event to derive approved after delete, got %s", got.ReviewStatus)
	}
}

func TestListFigures(t *testing.T) {
	env := newTestEnv(t)
	env.addFigure(models.Figure{ID: "f1", EventID: "ev1"})
	env.addFigure(models.Figure{ID: "f2", EventID: "other"})

	rec := env.request(t, http.MethodGet, "/api/figures", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var figures []models.Figure
	if err := json.Unmarshal(rec.Body.Bytes(), &figures); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(figures) != 2 {
		t.Fatalf("expected 2 figures, got %d", len(figures))
	}
}

func TestListFiguresByEvent(t *testing.T) {
	env := newTestEnv(t)
	env.addEvent(testEvent("ev1", models.CauseConflict))
	env.addFigure(models.Figure{ID: "f1", EventID: "ev1"})
	env.addFigure(models.Figure{ID: "f2", EventID: "ev1"})
	env.addFigure(models.Figure{ID: "f3", EventID: "other"})

	rec := env.request(t, http.MethodGet, "/api/events/ev1/figures", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var figures []models.Figure
	if err := json.Unmarshal(rec.Body.Bytes(), &figures); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(figures) != 2 {
		t.Fatalf("expected 2 figures for ev1, got %d", len(figures))
	}
}
