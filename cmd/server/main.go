package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"log/slog"

	"github.com/GIDD/gidd/internal/api"
	"github.com/GIDD/gidd/internal/auth"
	"github.com/GIDD/gidd/internal/config"
	"github.com/GIDD/gidd/internal/database"
	"github.com/GIDD/gidd/internal/logging"
	"github.com/GIDD/gidd/internal/metrics"
	"github.com/GIDD/gidd/internal/pipeline"
	"github.com/GIDD/gidd/internal/review"
	"github.com/GIDD/gidd/internal/scheduler"
	"github.com/GIDD/gidd/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to init logger", "error", err)
		os.Exit(1)
	}

	logger.Info("starting gidd")

	ctx := context.Background()

	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.Database.URL
	db, err := database.Connect(ctx, dbCfg)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("database connected")

	if err := database.RunMigrations(db, cfg.Database.MigrationsDir, logger); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Repositories
	figureRepo := database.NewFigureRepository(db)
	eventRepo := database.NewEventRepository(db)
	commentRepo := database.NewReviewCommentRepository(db)
	taxonomyRepo := database.NewTaxonomyRepository(db)
	snapshotRepo := database.NewSnapshotRepository(db)
	releaseRepo := database.NewReleaseRepository(db)

	// Review-status state machine
	reviewService := review.NewService(figureRepo, eventRepo, commentRepo, logger)

	// Metrics
	httpCollector, err := metrics.NewHTTPCollector()
	if err != nil {
		logger.Error("failed to init metrics", "error", err)
		os.Exit(1)
	}
	pipelineCollector, err := metrics.NewPipelineCollector(httpCollector)
	if err != nil {
		logger.Error("failed to init pipeline metrics", "error", err)
		os.Exit(1)
	}

	// Snapshot pipeline
	orchestrator := pipeline.NewOrchestrator(snapshotRepo, pipelineCollector, logger)
	pipelineScheduler := scheduler.NewPipelineScheduler(orchestrator, cfg.Pipeline.Schedule, logger)
	if err := pipelineScheduler.Start(ctx); err != nil {
		logger.Error("failed to start pipeline scheduler", "error", err)
		os.Exit(1)
	}

	authConfig := auth.Config{
		JWTSecret:     cfg.Auth.JWTSecret,
		AdminPassword: cfg.Auth.AdminPassword,
		TokenDuration: cfg.Auth.TokenDuration,
	}
	logger.Info("auth configured", "jwt_secret_set", authConfig.JWTSecret != "change-this-secret")

	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := database.HealthCheck(r.Context(), db); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unhealthy"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("/metrics", httpCollector.Handler())

	api.SetupRoutes(mux, api.Stores{
		Figures:   figureRepo,
		Events:    eventRepo,
		Taxonomy:  taxonomyRepo,
		Comments:  commentRepo,
		Snapshots: snapshotRepo,
		Release:   releaseRepo,
	}, reviewService, orchestrator, authConfig, logger)

	handler := server.SPAMiddleware(httpCollector.InstrumentHandler(mux), "./web/dist", "./web/dist/index.html")

	srv := server.New(cfg.Server, logger, handler)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("gidd started", "port", cfg.Server.Port)

	waitForSignal(logger)

	logger.Info("shutting down")
	pipelineScheduler.Stop()
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}

func waitForSignal(logger *slog.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	sig := <-c
	logger.Info("received signal", "signal", sig.String())
	signal.Stop(c)
	close(c)
}
