package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/GIDD/gidd/internal/aggregation"
	"github.com/GIDD/gidd/internal/metrics"
	"github.com/GIDD/gidd/internal/models"
	"github.com/GIDD/gidd/internal/snapshot"
)

// ErrRunPending indicates the most recent run has not completed yet. Callers
// either surface it (API trigger) or skip the tick (scheduler).
var ErrRunPending = errors.New("a pipeline run is already pending")

// Store is the persistence surface the orchestrator drives. Rebuild must run
// fn inside a single transaction: either every delete and insert issued
// through the RebuildTx lands, or none do.
type Store interface {
	LastRun(ctx context.Context) (*models.StatusLog, error)
	CreateRun(ctx context.Context, triggeredBy string) (*models.StatusLog, error)
	CompleteRun(ctx context.Context, id string, status models.RunStatus, runErr *string) error
	ListRuns(ctx context.Context, limit int) ([]models.StatusLog, error)
	Rebuild(ctx context.Context, fn func(RebuildTx) error) error
}

// RebuildTx exposes the reads and writes available inside one rebuild
// transaction. Loads see a consistent view of the live tables; deletes and
// inserts stage into the snapshot tables and commit together.
type RebuildTx interface {
	LoadFigures() ([]models.Figure, error)
	LoadEvents() (map[string]models.Event, error)
	LoadEntries() (map[string]models.Entry, error)
	LoadOrganizations() (map[string]models.Organization, error)
	LoadTags() (map[string]models.Tag, error)
	LoadCountries() (map[string]string, error)
	LoadTaxonomy() (models.TaxonomyIndex, error)
	LoadLegacyConflicts() ([]models.ConflictRow, error)
	LoadLegacyDisasters() ([]models.DisasterRow, error)

	DeleteSnapshot() error
	InsertConflicts(rows []models.ConflictRow) error
	InsertDisasters(rows []models.DisasterRow) error
	InsertDisplacementData(rows []models.DisplacementDataRow) error
	InsertPublicFigureAnalyses(rows []models.PublicFigureAnalysisRow) error
	InsertGiddEvents(rows []models.GiddEvent) error
	InsertGiddFigures(rows []models.GiddFigure) error
}

// Orchestrator owns the snapshot rebuild lifecycle: the run log, the
// pending-run gate and the all-or-nothing rebuild itself. Runs are serialized
// in-process on top of the advisory last-row check.
type Orchestrator struct {
	store     Store
	engine    *aggregation.Engine
	builder   *snapshot.Builder
	collector *metrics.PipelineCollector
	logger    *slog.Logger
	now       func() time.Time

	mu sync.Mutex
}

// NewOrchestrator wires an orchestrator. The collector may be nil when metrics
// are not exposed (local rebuild command).
func NewOrchestrator(store Store, collector *metrics.PipelineCollector, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		store:     store,
		engine:    aggregation.NewEngine(),
		builder:   snapshot.NewBuilder(),
		collector: collector,
		logger:    logger,
		now:       time.Now,
	}
}

// Trigger starts a run unless the most recent run is still pending. The
// returned log row is PENDING; the rebuild executes in the background and
// completes the row when done.
func (o *Orchestrator) Trigger(ctx context.Context, triggeredBy string) (*models.StatusLog, error) {
	last, err := o.store.LastRun(ctx)
	if err != nil {
		return nil, fmt.Errorf("checking last run: %w", err)
	}
	if last != nil && last.Status == models.RunStatusPending {
		return nil, ErrRunPending
	}
	return o.start(ctx, triggeredBy)
}

// ForceTrigger starts a run regardless of the pending gate. Meant for
// operators recovering from a run whose process died before completing its
// log row.
func (o *Orchestrator) ForceTrigger(ctx context.Context, triggeredBy string) (*models.StatusLog, error) {
	return o.start(ctx, triggeredBy)
}

func (o *Orchestrator) start(ctx context.Context, triggeredBy string) (*models.StatusLog, error) {
	run, err := o.store.CreateRun(ctx, triggeredBy)
	if err != nil {
		return nil, fmt.Errorf("creating run: %w", err)
	}

	o.logger.Info("pipeline run triggered",
		slog.String("run_id", run.ID),
		slog.String("triggered_by", triggeredBy))

	// The trigger request returns immediately; the run detaches from the
	// request context so a client disconnect cannot abort a half-staged
	// rebuild.
	go o.execute(context.Background(), run)

	return run, nil
}

// RunSync executes a run to completion on the calling goroutine. Used by the
// local rebuild command where detaching makes no sense.
func (o *Orchestrator) RunSync(ctx context.Context, triggeredBy string) error {
	run, err := o.store.CreateRun(ctx, triggeredBy)
	if err != nil {
		return fmt.Errorf("creating run: %w", err)
	}
	return o.execute(ctx, run)
}

// Runs lists the most recent run log rows.
func (o *Orchestrator) Runs(ctx context.Context, limit int) ([]models.StatusLog, error) {
	return o.store.ListRuns(ctx, limit)
}

func (o *Orchestrator) execute(ctx context.Context, run *models.StatusLog) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	started := o.now()
	err := o.store.Rebuild(ctx, o.rebuild)
	elapsed := o.now().Sub(started)

	status := models.RunStatusSuccess
	var runErr *string
	if err != nil {
		status = models.RunStatusFailed
		msg := err.Error()
		runErr = &msg
		o.logger.Error("pipeline run failed",
			slog.String("run_id", run.ID),
			slog.Duration("elapsed", elapsed),
			slog.String("error", msg))
	} else {
		o.logger.Info("pipeline run succeeded",
			slog.String("run_id", run.ID),
			slog.Duration("elapsed", elapsed))
	}

	if o.collector != nil {
		o.collector.ObserveRun(string(status), elapsed)
	}

	if completeErr := o.store.CompleteRun(ctx, run.ID, status, runErr); completeErr != nil {
		o.logger.Error("completing run log row",
			slog.String("run_id", run.ID),
			slog.String("error", completeErr.Error()))
		if err == nil {
			err = completeErr
		}
	}
	return err
}

// rebuild recomputes every snapshot table from the live tables. Delete comes
// first so the staged state is a full replacement; legacy rows are carried
// forward only for years no current figure covers.
func (o *Orchestrator) rebuild(tx RebuildTx) error {
	figures, err := tx.LoadFigures()
	if err != nil {
		return fmt.Errorf("loading figures: %w", err)
	}
	events, err := tx.LoadEvents()
	if err != nil {
		return fmt.Errorf("loading events: %w", err)
	}
	entries, err := tx.LoadEntries()
	if err != nil {
		return fmt.Errorf("loading entries: %w", err)
	}
	organizations, err := tx.LoadOrganizations()
	if err != nil {
		return fmt.Errorf("loading organizations: %w", err)
	}
	tags, err := tx.LoadTags()
	if err != nil {
		return fmt.Errorf("loading tags: %w", err)
	}
	countries, err := tx.LoadCountries()
	if err != nil {
		return fmt.Errorf("loading countries: %w", err)
	}
	taxonomy, err := tx.LoadTaxonomy()
	if err != nil {
		return fmt.Errorf("loading taxonomy: %w", err)
	}
	legacyConflicts, err := tx.LoadLegacyConflicts()
	if err != nil {
		return fmt.Errorf("loading legacy conflicts: %w", err)
	}
	legacyDisasters, err := tx.LoadLegacyDisasters()
	if err != nil {
		return fmt.Errorf("loading legacy disasters: %w", err)
	}

	if err := tx.DeleteSnapshot(); err != nil {
		return fmt.Errorf("clearing snapshot tables: %w", err)
	}

	now := o.now()
	years := aggregation.Years(figures, now)
	covered := map[int]bool{}
	for _, y := range years {
		covered[y] = true
	}

	var conflicts []models.ConflictRow
	for _, row := range legacyConflicts {
		if !covered[row.Year] {
			conflicts = append(conflicts, row)
		}
	}
	var disasters []models.DisasterRow
	for _, row := range legacyDisasters {
		if !covered[row.Year] {
			disasters = append(disasters, row)
		}
	}
	for _, year := range years {
		conflicts = append(conflicts, o.engine.Conflicts(figures, events, countries, year)...)
		disasters = append(disasters, o.engine.Disasters(figures, events, countries, taxonomy, year)...)
	}

	displacement := o.engine.DisplacementData(conflicts, disasters, countries)
	analyses := o.engine.PublicFigureAnalyses(conflicts, disasters, countries)

	input := snapshot.Input{
		Figures:       figures,
		Events:        events,
		Entries:       entries,
		Organizations: organizations,
		Tags:          tags,
		Countries:     countries,
		Taxonomy:      taxonomy,
		Now:           now,
	}
	giddEvents := o.builder.GiddEvents(input)
	giddFigures := o.builder.GiddFigures(input)

	if err := tx.InsertConflicts(conflicts); err != nil {
		return fmt.Errorf("inserting conflict rows: %w", err)
	}
	if err := tx.InsertDisasters(disasters); err != nil {
		return fmt.Errorf("inserting disaster rows: %w", err)
	}
	if err := tx.InsertDisplacementData(displacement); err != nil {
		return fmt.Errorf("inserting displacement data rows: %w", err)
	}
	if err := tx.InsertPublicFigureAnalyses(analyses); err != nil {
		return fmt.Errorf("inserting public figure analysis rows: %w", err)
	}
	if err := tx.InsertGiddEvents(giddEvents); err != nil {
		return fmt.Errorf("inserting event snapshot rows: %w", err)
	}
	if err := tx.InsertGiddFigures(giddFigures); err != nil {
		return fmt.Errorf("inserting figure snapshot rows: %w", err)
	}

	if o.collector != nil {
		o.collector.SetRowCount("conflict", len(conflicts))
		o.collector.SetRowCount("disaster", len(disasters))
		o.collector.SetRowCount("displacement_data", len(displacement))
		o.collector.SetRowCount("public_figure_analysis", len(analyses))
		o.collector.SetRowCount("gidd_event", len(giddEvents))
		o.collector.SetRowCount("gidd_figure", len(giddFigures))
	}
	return nil
}
