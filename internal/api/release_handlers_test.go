package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/GIDD/gidd/internal/models"
)

func TestReleaseMetadata_GetBeforeSet(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodGet, "/api/release-metadata", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before metadata is set, got %d", rec.Code)
	}
}

func TestReleaseMetadata_SetAndGet(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodPut, "/api/release-metadata", `{"release_year": 2023, "pre_release_year": 2024}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.request(t, http.MethodGet, "/api/release-metadata", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var meta models.ReleaseMetadata
	if err := json.Unmarshal(rec.Body.Bytes(), &meta); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if meta.ReleaseYear != 2023 || meta.PreReleaseYear != 2024 {
		t.Errorf("unexpected metadata: %+v", meta)
	}
}

func TestReleaseMetadata_RejectsInvertedYears(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodPut, "/api/release-metadata", `{"release_year": 2024, "pre_release_year": 2023}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 when pre-release precedes release, got %d", rec.Code)
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.publicRequest(t, http.MethodPost, "/api/auth/login", `{"password": "wrong"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", rec.Code)
	}

	rec = env.publicRequest(t, http.MethodPost, "/api/auth/login", `{"password": "hunter2"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Token == "" {
		t.Error("expected a token in the login response")
	}
}
