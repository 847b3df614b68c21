package main

import (
	"context"
	"os"

	"log/slog"

	"github.com/GIDD/gidd/internal/config"
	"github.com/GIDD/gidd/internal/database"
	"github.com/GIDD/gidd/internal/logging"
	"github.com/GIDD/gidd/internal/pipeline"
)

// rebuild runs a single snapshot rebuild to completion and exits. It bypasses
// the pending gate so an operator can recover from a run whose process died
// before completing its log row.
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

	ctx := context.Background()

	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.Database.URL
	db, err := database.Connect(ctx, dbCfg)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.RunMigrations(db, cfg.Database.MigrationsDir, logger); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	snapshotRepo := database.NewSnapshotRepository(db)
	orchestrator := pipeline.NewOrchestrator(snapshotRepo, nil, logger)

	logger.Info("starting snapshot rebuild")
	if err := orchestrator.RunSync(ctx, "cli"); err != nil {
		logger.Error("snapshot rebuild failed", "error", err)
		os.Exit(1)
	}
	logger.Info("snapshot rebuild complete")
}
