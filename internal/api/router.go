package api

import (
	"net/http"
	"strings"

	"log/slog"

	"github.com/GIDD/gidd/internal/auth"
	"github.com/GIDD/gidd/internal/pipeline"
	"github.com/GIDD/gidd/internal/review"
)

// Stores bundles the persistence surfaces the routes need.
type Stores struct {
	Figures   FigureStore
	Events    EventStore
	Taxonomy  TaxonomyStore
	Comments  CommentStore
	Snapshots SnapshotReadStore
	Release   ReleaseAdminStore
}

// SetupRoutes configures all API routes. Snapshot reads and login are public;
// everything that mutates the live tables or the pipeline requires a token.
func SetupRoutes(
	mux *http.ServeMux,
	stores Stores,
	reviewService *review.Service,
	orchestrator *pipeline.Orchestrator,
	authConfig auth.Config,
	logger *slog.Logger,
) {
	authHandler := NewAuthHandler(authConfig, logger)
	figureHandler := NewFigureHandler(stores.Figures, stores.Events, stores.Taxonomy, reviewService, logger)
	eventHandler := NewEventHandler(stores.Events, stores.Taxonomy, logger)
	reviewHandler := NewReviewHandler(reviewService, stores.Figures, stores.Comments, logger)
	pipelineHandler := NewPipelineHandler(orchestrator, logger)
	giddHandler := NewGiddHandler(stores.Snapshots, stores.Release, logger)
	releaseHandler := NewReleaseHandler(stores.Release, logger)
	referenceHandler := NewReferenceHandler(stores.Taxonomy, logger)

	authMiddleware := auth.Middleware(authConfig)
	protected := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				corsPreflight(w)
				return
			}
			authMiddleware(h).ServeHTTP(w, r)
		}
	}

	// Authentication routes (public)
	mux.HandleFunc("/api/auth/login", authHandler.Login)
	mux.HandleFunc("/api/auth/validate", protected(authHandler.ValidateToken))

	// Public snapshot reads
	mux.HandleFunc("/api/gidd/", giddHandler.Handle)

	// Figure routes
	mux.HandleFunc("/api/figures", protected(figureHandler.HandleFigures))
	mux.HandleFunc("/api/figures/", protected(func(w http.ResponseWriter, r *http.Request) {
		// Review actions nest one level deeper than the figure itself.
		rest := strings.TrimPrefix(r.URL.Path, "/api/figures/")
		if strings.Contains(rest, "/") {
			reviewHandler.HandleFigureAction(w, r)
			return
		}
		figureHandler.HandleFigureByID(w, r)
	}))

	// Event routes
	mux.HandleFunc("/api/events", protected(eventHandler.HandleEvents))
	mux.HandleFunc("/api/events/", protected(func(w http.ResponseWriter, r *http.Request) {
		// Sub-resources and review actions nest one level deeper than the
		// event itself.
		rest := strings.TrimPrefix(r.URL.Path, "/api/events/")
		if !strings.Contains(rest, "/") {
			eventHandler.HandleEventByID(w, r)
			return
		}
		if strings.HasSuffix(r.URL.Path, "/figures") && r.Method == http.MethodGet {
			figureHandler.ListByEvent(w, r)
			return
		}
		reviewHandler.HandleEventAction(w, r)
	}))

	// Reference data
	mux.HandleFunc("/api/reference-data", protected(referenceHandler.Handle))

	// Review comment routes
	mux.HandleFunc("/api/comments/", protected(reviewHandler.ClearComment))

	// Pipeline routes
	mux.HandleFunc("/api/pipeline/trigger", protected(pipelineHandler.Trigger))
	mux.HandleFunc("/api/pipeline/force-trigger", protected(pipelineHandler.ForceTrigger))
	mux.HandleFunc("/api/pipeline/runs", protected(pipelineHandler.Runs))

	// Release metadata routes
	mux.HandleFunc("/api/release-metadata", protected(releaseHandler.Handle))

	// CORS preflight fallback
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			corsPreflight(w)
			return
		}
		http.NotFound(w, r)
	})
}

func corsPreflight(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.WriteHeader(http.StatusOK)
}
