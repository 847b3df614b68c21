package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/GIDD/gidd/internal/pipeline"
)

// PipelineScheduler triggers snapshot rebuilds on a cron schedule. A tick that
// lands while the previous run is still pending is skipped and logged, never
// queued.
type PipelineScheduler struct {
	orchestrator *pipeline.Orchestrator
	schedule     string
	logger       *slog.Logger
	cron         *cron.Cron
}

// NewPipelineScheduler creates a pipeline scheduler. An empty schedule
// disables it.
func NewPipelineScheduler(orchestrator *pipeline.Orchestrator, schedule string, logger *slog.Logger) *PipelineScheduler {
	return &PipelineScheduler{
		orchestrator: orchestrator,
		schedule:     schedule,
		logger:       logger,
	}
}

// Start registers the cron entry and begins ticking.
func (s *PipelineScheduler) Start(ctx context.Context) error {
	if s.schedule == "" {
		s.logger.Info("pipeline scheduler disabled, no schedule configured")
		return nil
	}

	s.cron = cron.New()
	_, err := s.cron.AddFunc(s.schedule, func() { s.tick(ctx) })
	if err != nil {
		return fmt.Errorf("invalid pipeline schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.logger.Info("pipeline scheduler started", "schedule", s.schedule)
	return nil
}

// Stop stops the cron loop and waits for an in-flight tick callback to
// return. A triggered run keeps executing in the background.
func (s *PipelineScheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.logger.Info("pipeline scheduler stopped")
}

func (s *PipelineScheduler) tick(ctx context.Context) {
	run, err := s.orchestrator.Trigger(ctx, "schedule")
	if errors.Is(err, pipeline.ErrRunPending) {
		s.logger.Warn("skipping scheduled pipeline run, previous run still pending")
		return
	}
	if err != nil {
		s.logger.Error("failed to trigger scheduled pipeline run", "error", err)
		return
	}
	s.logger.Info("scheduled pipeline run triggered", "run_id", run.ID)
}
