package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/GIDD/gidd/internal/models"
)

func TestApproveFigure_DerivesEventApproved(t *testing.T) {
	env := newTestEnv(t)
	event := testEvent("ev1", models.CauseConflict)
	event.ReviewStatus = models.EventReviewInProgress
	env.addEvent(event)
	env.addFigure(models.Figure{
		ID: "f1", EventID: "ev1", Role: models.RoleRecommended,
		ReviewStatus: models.FigureReviewInProgress,
	})

	rec := env.request(t, http.MethodPost, "/api/figures/f1/approve", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var f models.Figure
	if err := json.Unmarshal(rec.Body.Bytes(), &f); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if f.ReviewStatus != models.FigureReviewApproved {
		t.Errorf("expected figure approved, got %s", f.ReviewStatus)
	}

	got, _ := env.events.GetEvent(context.Background(), "ev1")
	if got.ReviewStatus != models.EventReviewApproved {
		t.Errorf("expected event derived to approved, got %s", got.ReviewStatus)
	}
}

func TestUnapproveFigure_RequiresApproved(t *testing.T) {
	env := newTestEnv(t)
	env.addEvent(testEvent("ev1", models.CauseConflict))
	env.addFigure(models.Figure{
		ID: "f1", EventID: "ev1", Role: models.RoleRecommended,
		ReviewStatus: models.FigureReviewNotStarted,
	})

	rec := env.request(t, http.MethodPost, "/api/figures/f1/unapprove", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for unapproving an unapproved figure, got %d", rec.Code)
	}
}

func TestReRequestReview(t *testing.T) {
	env := newTestEnv(t)
	env.addEvent(testEvent("ev1", models.CauseConflict))
	env.addFigure(models.Figure{
		ID: "f1", EventID: "ev1", Role: models.RoleRecommended,
		ReviewStatus: models.FigureReviewApproved,
	})

	rec := env.request(t, http.MethodPost, "/api/figures/f1/re-request-review", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var f models.Figure
	if err := json.Unmarshal(rec.Body.Bytes(), &f); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if f.ReviewStatus != models.FigureReviewReRequested {
		t.Errorf("expected re-requested, got %s", f.ReviewStatus)
	}
}

func TestSignOffEvent_RejectedUnlessApproved(t *testing.T) {
	env := newTestEnv(t)
	event := testEvent("ev1", models.CauseConflict)
	event.ReviewStatus = models.EventReviewInProgress
	env.addEvent(event)

	rec := env.request(t, http.MethodPost, "/api/events/ev1/sign-off", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 signing off an unapproved event, got %d", rec.Code)
	}

	// Once approved, sign-off goes through.
	env.addEvent(func() models.Event {
		e := testEvent("ev1", models.CauseConflict)
		e.ReviewStatus = models.EventReviewApproved
		return e
	}())

	rec = env.request(t, http.MethodPost, "/api/events/ev1/sign-off", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var e models.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if e.ReviewStatus != models.EventReviewSignedOff {
		t.Errorf("expected signed off, got %s", e.ReviewStatus)
	}
}

func TestIncludeTriangulation_RecomputesStatus(t *testing.T) {
	env := newTestEnv(t)
	event := testEvent("ev1", models.CauseConflict)
	event.ReviewStatus = models.EventReviewInProgress
	env.addEvent(event)

	// The only recommended figure is approved, but the triangulation one is
	// not; widening QA to triangulation pulls the event back from approved.
	env.addFigure(models.Figure{
		ID: "f1", EventID: "ev1", Role: models.RoleRecommended,
		ReviewStatus: models.FigureReviewApproved,
	})
	env.addFigure(models.Figure{
		ID: "f2", EventID: "ev1", Role: models.RoleTriangulation,
		ReviewStatus: models.FigureReviewInProgress,
	})

	rec := env.request(t, http.MethodPost, "/api/events/ev1/include-triangulation", `{"include": true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var e models.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !e.IncludeTriangulationInQA {
		t.Error("expected include_triangulation_in_qa set")
	}
	if e.ReviewStatus != models.EventReviewInProgress {
		t.Errorf("expected in progress over the widened set, got %s", e.ReviewStatus)
	}
}

func TestCreateAndClearComment(t *testing.T) {
	env := newTestEnv(t)
	env.addEvent(testEvent("ev1", models.CauseConflict))
	env.addFigure(models.Figure{ID: "f1", EventID: "ev1", ReviewStatus: models.FigureReviewApproved})

	rec := env.request(t, http.MethodPost, "/api/figures/f1/comments", `{"body": "check the source"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	commentID := resp["id"]
	if commentID == "" {
		t.Fatal("expected a comment id")
	}

	open, _ := env.comments.CountOpenForFigure(context.Background(), "f1")
	if open != 1 {
		t.Fatalf("expected 1 open comment, got %d", open)
	}

	rec = env.request(t, http.MethodGet, "/api/figures/f1/comments", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var comments []models.ReviewComment
	if err := json.Unmarshal(rec.Body.Bytes(), &comments); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(comments) != 1 || comments[0].Body != "check the source" || comments[0].Author != "admin" {
		t.Fatalf("unexpected comment listing: %v", comments)
	}

	// With an open comment, unapprove lands the figure in in-progress.
	rec = env.request(t, http.MethodPost, "/api/figures/f1/unapprove", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var f models.Figure
	if err := json.Unmarshal(rec.Body.Bytes(), &f); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if f.ReviewStatus != models.FigureReviewInProgress {
		t.Errorf("expected in progress with open comments, got %s", f.ReviewStatus)
	}

	rec = env.request(t, http.MethodPost, "/api/comments/"+commentID+"/clear", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	open, _ = env.comments.CountOpenForFigure(context.Background(), "f1")
	if open != 0 {
		t.Fatalf("expected 0 open comments after clear, got %d", open)
	}
}

func TestCreateComment_EmptyBody(t *testing.T) {
	env := newTestEnv(t)
	env.addEvent(testEvent("ev1", models.CauseConflict))
	env.addFigure(models.Figure{ID: "f1", EventID: "ev1"})

	rec := env.request(t, http.MethodPost, "/api/figures/f1/comments", `{"body": "  "}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for empty body, got %d", rec.Code)
	}
}
