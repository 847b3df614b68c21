package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"log/slog"

	"github.com/GIDD/gidd/internal/auth"
	"github.com/GIDD/gidd/internal/models"
	"github.com/GIDD/gidd/internal/pipeline"
	"github.com/GIDD/gidd/internal/review"
)

// In-memory fakes shared by the handler tests. Each one implements both the
// api-side interface and the review service's view of the same store.

type fakeFigureStore struct {
	mu      sync.Mutex
	figures map[string]models.Figure
}

func newFakeFigureStore() *fakeFigureStore {
	return &fakeFigureStore{figures: map[string]models.Figure{}}
}

func (s *fakeFigureStore) Create(ctx context.Context, figure models.Figure) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.figures[figure.ID] = figure
	return nil
}

func (s *fakeFigureStore) Update(ctx context.Context, figure models.Figure) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.figures[figure.ID]; !ok {
		return models.ErrNotFound
	}
	s.figures[figure.ID] = figure
	return nil
}

func (s *fakeFigureStore) GetFigure(ctx context.Context, id string) (*models.Figure, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.figures[id]
	if !ok {
		return nil, nil
	}
	return &f, nil
}

func (s *fakeFigureStore) ListFigures(ctx context.Context) ([]models.Figure, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Figure{}
	for _, f := range s.figures {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeFigureStore) ListFiguresByEvent(ctx context.Context, eventID string) ([]models.Figure, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Figure{}
	for _, f := range s.figures {
		if f.EventID == eventID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeFigureStore) UpdateFigureReviewStatus(ctx context.Context, id string, status models.FigureReviewStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.figures[id]
	if !ok {
		return models.ErrNotFound
	}
	f.ReviewStatus = status
	s.figures[id] = f
	return nil
}

func (s *fakeFigureStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.figures[id]; !ok {
		return models.ErrNotFound
	}
	delete(s.figures, id)
	return nil
}

type fakeEventStore struct {
	mu     sync.Mutex
	events map[string]models.Event
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{events: map[string]models.Event{}}
}

func (s *fakeEventStore) Create(ctx context.Context, event models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.ID] = event
	return nil
}

func (s *fakeEventStore) Update(ctx context.Context, event models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[event.ID]; !ok {
		return models.ErrNotFound
	}
	s.events[event.ID] = event
	return nil
}

func (s *fakeEventStore) ListEvents(ctx context.Context) (map[string]models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]models.Event, len(s.events))
	for id, e := range s.events {
		out[id] = e
	}
	return out, nil
}

func (s *fakeEventStore) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (s *fakeEventStore) UpdateEventReviewStatus(ctx context.Context, id string, status models.EventReviewStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return models.ErrNotFound
	}
	e.ReviewStatus = status
	s.events[id] = e
	return nil
}

func (s *fakeEventStore) UpdateEventIncludeTriangulation(ctx context.Context, id string, include bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return models.ErrNotFound
	}
	e.IncludeTriangulationInQA = include
	s.events[id] = e
	return nil
}

type fakeTaxonomyStore struct {
	index         models.TaxonomyIndex
	countries     map[string]string
	organizations map[string]models.Organization
	tags          map[string]models.Tag
	entries       map[string]models.Entry
}

func (s *fakeTaxonomyStore) LoadIndex(ctx context.Context) (models.TaxonomyIndex, error) {
	return s.index, nil
}

func (s *fakeTaxonomyStore) Countries(ctx context.Context) (map[string]string, error) {
	return s.countries, nil
}

func (s *fakeTaxonomyStore) Organizations(ctx context.Context) (map[string]models.Organization, error) {
	return s.organizations, nil
}

func (s *fakeTaxonomyStore) Tags(ctx context.Context) (map[string]models.Tag, error) {
	return s.tags, nil
}

func (s *fakeTaxonomyStore) Entries(ctx context.Context) (map[string]models.Entry, error) {
	return s.entries, nil
}

type fakeCommentStore struct {
	mu       sync.Mutex
	comments []models.ReviewComment
}

func newFakeCommentStore() *fakeCommentStore {
	return &fakeCommentStore{}
}

func (s *fakeCommentStore) Create(ctx context.Context, id, figureID, author, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments = append(s.comments, models.ReviewComment{
		ID:       id,
		FigureID: figureID,
		Author:   author,
		Body:     body,
	})
	return nil
}

func (s *fakeCommentStore) Clear(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.comments {
		if s.comments[i].ID == id {
			s.comments[i].IsCleared = true
			return nil
		}
	}
	return fmt.Errorf("review comment not found: %s", id)
}

func (s *fakeCommentStore) ListForFigure(ctx context.Context, figureID string) ([]models.ReviewComment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.ReviewComment{}
	for _, c := range s.comments {
		if c.FigureID == figureID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *fakeCommentStore) CountOpenForFigure(ctx context.Context, figureID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, c := range s.comments {
		if c.FigureID == figureID && !c.IsCleared {
			count++
		}
	}
	return count, nil
}

// fakePipelineStore backs the orchestrator. Rebuild is a no-op; the rebuild
// internals are covered by the pipeline package tests.
type fakePipelineStore struct {
	mu   sync.Mutex
	runs []models.StatusLog
}

func (s *fakePipelineStore) LastRun(ctx context.Context) (*models.StatusLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.runs) == 0 {
		return nil, nil
	}
	run := s.runs[len(s.runs)-1]
	return &run, nil
}

func (s *fakePipelineStore) CreateRun(ctx context.Context, triggeredBy string) (*models.StatusLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run := models.StatusLog{
		ID:          fmt.Sprintf("run-%d", len(s.runs)+1),
		TriggeredBy: triggeredBy,
		Status:      models.RunStatusPending,
		TriggeredAt: time.Now(),
	}
	s.runs = append(s.runs, run)
	return &run, nil
}

func (s *fakePipelineStore) CompleteRun(ctx context.Context, id string, status models.RunStatus, runErr *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.runs {
		if s.runs[i].ID == id {
			s.runs[i].Status = status
			s.runs[i].Error = runErr
		}
	}
	return nil
}

func (s *fakePipelineStore) ListRuns(ctx context.Context, limit int) ([]models.StatusLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]models.StatusLog(nil), s.runs...)
	sort.Slice(out, func(i, j int) bool { return out[i].TriggeredAt.After(out[j].TriggeredAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakePipelineStore) Rebuild(ctx context.Context, fn func(pipeline.RebuildTx) error) error {
	return nil
}

type fakeSnapshotReadStore struct {
	conflicts   []models.ConflictRow
	figures     []models.GiddFigure
	lastRelease *time.Time
}

func (s *fakeSnapshotReadStore) LastReleaseDate(ctx context.Context) (*time.Time, error) {
	return s.lastRelease, nil
}

func (s *fakeSnapshotReadStore) ListConflicts(ctx context.Context, maxYear int) ([]models.ConflictRow, error) {
	out := []models.ConflictRow{}
	for _, row := range s.conflicts {
		if row.Year <= maxYear {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *fakeSnapshotReadStore) ListDisasters(ctx context.Context, maxYear int) ([]models.DisasterRow, error) {
	return []models.DisasterRow{}, nil
}

func (s *fakeSnapshotReadStore) ListDisplacementData(ctx context.Context, maxYear int) ([]models.DisplacementDataRow, error) {
	return []models.DisplacementDataRow{}, nil
}

func (s *fakeSnapshotReadStore) ListPublicFigureAnalyses(ctx context.Context, maxYear int) ([]models.PublicFigureAnalysisRow, error) {
	return []models.PublicFigureAnalysisRow{}, nil
}

func (s *fakeSnapshotReadStore) ListGiddEvents(ctx context.Context, maxYear int) ([]models.GiddEvent, error) {
	return []models.GiddEvent{}, nil
}

func (s *fakeSnapshotReadStore) ListGiddFigures(ctx context.Context, maxYear int) ([]models.GiddFigure, error) {
	out := []models.GiddFigure{}
	for _, row := range s.figures {
		if row.Year <= maxYear {
			out = append(out, row)
		}
	}
	return out, nil
}

type fakeReleaseStore struct {
	mu   sync.Mutex
	meta *models.ReleaseMetadata
}

func (s *fakeReleaseStore) Get(ctx context.Context) (*models.ReleaseMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.meta == nil {
		return nil, nil
	}
	meta := *s.meta
	return &meta, nil
}

func (s *fakeReleaseStore) Set(ctx context.Context, releaseYear, preReleaseYear int) (*models.ReleaseMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta = &models.ReleaseMetadata{
		ReleaseYear:    releaseYear,
		PreReleaseYear: preReleaseYear,
		UpdatedAt:      time.Now(),
	}
	meta := *s.meta
	return &meta, nil
}

type testEnv struct {
	mux       *http.ServeMux
	figures   *fakeFigureStore
	events    *fakeEventStore
	comments  *fakeCommentStore
	pipeline  *fakePipelineStore
	snapshots *fakeSnapshotReadStore
	release   *fakeReleaseStore
	token     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	env := &testEnv{
		mux:      http.NewServeMux(),
		figures:  newFakeFigureStore(),
		events:   newFakeEventStore(),
		comments: newFakeCommentStore(),
		pipeline: &fakePipelineStore{},
		snapshots: &fakeSnapshotReadStore{
			conflicts: []models.ConflictRow{
				{ID: "c-2020", CountryISO3: "AFG", CountryName: "Afghanistan", Year: 2020},
				{ID: "c-2021", CountryISO3: "AFG", CountryName: "Afghanistan", Year: 2021},
			},
			figures: []models.GiddFigure{
				{ID: "gf-2020", FigureID: "f1", Year: 2020},
				{ID: "gf-2021", FigureID: "f2", Year: 2021},
			},
		},
		release: &fakeReleaseStore{},
	}

	authConfig := auth.Config{
		JWTSecret:     "test-secret",
		AdminPassword: "hunter2",
		TokenDuration: time.Hour,
	}

	token, err := auth.GenerateToken("admin", authConfig.JWTSecret, authConfig.TokenDuration)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	env.token = token

	taxonomy := &fakeTaxonomyStore{
		index: models.TaxonomyIndex{
			DisasterCategories:    map[string]models.DisasterCategory{"dc1": {ID: "dc1", Name: "Weather related"}},
			DisasterSubCategories: map[string]models.DisasterSubCategory{"dsc1": {ID: "dsc1", Name: "Hydrological", CategoryID: "dc1"}},
			DisasterTypes:         map[string]models.DisasterType{"dt1": {ID: "dt1", Name: "Flood", SubCategoryID: "dsc1"}},
			DisasterSubTypes:      map[string]models.DisasterSubType{"dst1": {ID: "dst1", Name: "Flash flood", TypeID: "dt1"}},
			Violences:             map[string]models.Violence{"v1": {ID: "v1", Name: "Armed conflict"}},
			ViolenceSubTypes:      map[string]models.ViolenceSubType{"vst1": {ID: "vst1", Name: "International armed conflict", ViolenceID: "v1"}},
		},
		countries:     map[string]string{"AFG": "Afghanistan", "SYR": "Syria"},
		organizations: map[string]models.Organization{"org1": {ID: "org1", Name: "OCHA", Category: "United Nations"}},
		tags:          map[string]models.Tag{"t1": {ID: "t1", Name: "Monsoon"}},
		entries:       map[string]models.Entry{"en1": {ID: "en1", Title: "Situation report 12", PublisherIDs: []string{"org1"}}},
	}

	reviewService := review.NewService(env.figures, env.events, env.comments, logger)
	orchestrator := pipeline.NewOrchestrator(env.pipeline, nil, logger)

	SetupRoutes(env.mux, Stores{
		Figures:   env.figures,
		Events:    env.events,
		Taxonomy:  taxonomy,
		Comments:  env.comments,
		Snapshots: env.snapshots,
		Release:   env.release,
	}, reviewService, orchestrator, authConfig, logger)

	return env
}

// request performs an authenticated request against the test mux.
func (env *testEnv) request(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+env.token)
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	return rec
}

// publicRequest performs an unauthenticated request.
func (env *testEnv) publicRequest(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) addEvent(event models.Event) {
	env.events.mu.Lock()
	defer env.events.mu.Unlock()
	env.events.events[event.ID] = event
}

func (env *testEnv) addFigure(figure models.Figure) {
	env.figures.mu.Lock()
	defer env.figures.mu.Unlock()
	env.figures.figures[figure.ID] = figure
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.publicRequest(t, http.MethodPost, "/api/figures", `{}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}
