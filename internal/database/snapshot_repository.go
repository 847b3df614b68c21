package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/GIDD/gidd/internal/aggregation"
	"github.com/GIDD/gidd/internal/models"
	"github.com/GIDD/gidd/internal/pipeline"
)

// SnapshotRepository owns the run log and the snapshot tables. It backs the
// pipeline orchestrator (writes, inside one transaction per run) and the
// public read endpoints (year-ceiling filtered selects).
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a PostgreSQL snapshot repository.
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// LastRun returns the most recent run log row, or (nil, nil) when no run has
// ever happened.
func (r *SnapshotRepository) LastRun(ctx context.Context) (*models.StatusLog, error) {
	query := `
		SELECT id, triggered_by, status, error, triggered_at, completed_at
		FROM status_logs
		ORDER BY triggered_at DESC, id DESC
		LIMIT 1
	`

	run, err := scanStatusLog(r.db.QueryRowContext(ctx, query))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last run: %w", err)
	}
	return run, nil
}

// LastReleaseDate returns the completion timestamp of the most recent
// successful run, or (nil, nil) when no run has ever succeeded.
func (r *SnapshotRepository) LastReleaseDate(ctx context.Context) (*time.Time, error) {
	query := `
		SELECT completed_at
		FROM status_logs
		WHERE status = $1 AND completed_at IS NOT NULL
		ORDER BY completed_at DESC
		LIMIT 1
	`

	var completedAt time.Time
	err := r.db.QueryRowContext(ctx, query, models.RunStatusSuccess).Scan(&completedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last release date: %w", err)
	}
	return &completedAt, nil
}

// CreateRun appends a PENDING run log row.
func (r *SnapshotRepository) CreateRun(ctx context.Context, triggeredBy string) (*models.StatusLog, error) {
	run := &models.StatusLog{
		ID:          uuid.NewString(),
		TriggeredBy: triggeredBy,
		Status:      models.RunStatusPending,
		TriggeredAt: time.Now(),
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO status_logs (id, triggered_by, status, triggered_at)
		VALUES ($1, $2, $3, $4)
	`, run.ID, run.TriggeredBy, run.Status, run.TriggeredAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}
	return run, nil
}

// CompleteRun finalizes a run log row with its outcome.
func (r *SnapshotRepository) CompleteRun(ctx context.Context, id string, status models.RunStatus, runErr *string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE status_logs SET status = $1, error = $2, completed_at = $3 WHERE id = $4
	`, status, runErr, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListRuns returns the most recent run log rows, newest first.
func (r *SnapshotRepository) ListRuns(ctx context.Context, limit int) ([]models.StatusLog, error) {
	query := `
		SELECT id, triggered_by, status, error, triggered_at, completed_at
		FROM status_logs
		ORDER BY triggered_at DESC, id DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []models.StatusLog{}
	for rows.Next() {
		run, err := scanStatusLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

func scanStatusLog(row rowScanner) (*models.StatusLog, error) {
	var run models.StatusLog
	var runErr sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(&run.ID, &run.TriggeredBy, &run.Status, &runErr, &run.TriggeredAt, &completedAt)
	if err != nil {
		return nil, err
	}

	if runErr.Valid {
		run.Error = &runErr.String
	}
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	return &run, nil
}

// Rebuild runs fn inside one transaction. Every delete and insert fn issues
// commits together or not at all; a failed run leaves the previous snapshot
// untouched.
func (r *SnapshotRepository) Rebuild(ctx context.Context, fn func(pipeline.RebuildTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&rebuildTx{ctx: ctx, tx: tx}); err != nil {
		return err
	}

	return tx.Commit()
}

// rebuildTx adapts one *sql.Tx to the orchestrator's rebuild contract.
type rebuildTx struct {
	ctx context.Context
	tx  *sql.Tx
}

func (t *rebuildTx) LoadFigures() ([]models.Figure, error) {
	query := `SELECT ` + figureColumns + ` FROM figures ORDER BY created_at, id`

	rows, err := t.tx.QueryContext(t.ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query figures: %w", err)
	}
	defer rows.Close()

	return collectFigures(t.ctx, t.tx, rows)
}

func (t *rebuildTx) LoadEvents() (map[string]models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events`

	rows, err := t.tx.QueryContext(t.ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := map[string]models.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events[event.ID] = *event
	}
	return events, rows.Err()
}

func (t *rebuildTx) LoadEntries() (map[string]models.Entry, error) {
	return loadEntries(t.ctx, t.tx)
}

func (t *rebuildTx) LoadOrganizations() (map[string]models.Organization, error) {
	return loadOrganizations(t.ctx, t.tx)
}

func (t *rebuildTx) LoadTags() (map[string]models.Tag, error) {
	return loadTags(t.ctx, t.tx)
}

func (t *rebuildTx) LoadCountries() (map[string]string, error) {
	return loadCountries(t.ctx, t.tx)
}

func (t *rebuildTx) LoadTaxonomy() (models.TaxonomyIndex, error) {
	return loadTaxonomyIndex(t.ctx, t.tx)
}

// LoadLegacyConflicts reads the hand-curated pre-platform conflict rows.
// Rounded values are recomputed on load so legacy data follows the same
// display rules as figure-backed rows.
func (t *rebuildTx) LoadLegacyConflicts() ([]models.ConflictRow, error) {
	query := `
		SELECT country_iso3, country_name, year, total_displacement, new_displacement
		FROM conflict_legacy
		ORDER BY year, country_iso3
	`

	rows, err := t.tx.QueryContext(t.ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query legacy conflicts: %w", err)
	}
	defer rows.Close()

	out := []models.ConflictRow{}
	for rows.Next() {
		var row models.ConflictRow
		if err := rows.Scan(&row.CountryISO3, &row.CountryName, &row.Year, &row.TotalDisplacement, &row.NewDisplacement); err != nil {
			return nil, fmt.Errorf("failed to scan legacy conflict: %w", err)
		}
		row.ID = uuid.NewString()
		row.TotalDisplacementRounded = aggregation.RoundDisplay(row.TotalDisplacement)
		row.NewDisplacementRounded = aggregation.RoundDisplay(row.NewDisplacement)
		out = append(out, row)
	}
	return out, rows.Err()
}

// LoadLegacyDisasters reads the hand-curated pre-platform disaster rows.
func (t *rebuildTx) LoadLegacyDisasters() ([]models.DisasterRow, error) {
	query := `
		SELECT event_name, country_iso3, country_name, year,
		       hazard_category_name, hazard_sub_category_name, hazard_type_name, hazard_sub_type_name,
		       total_displacement, new_displacement
		FROM disaster_legacy
		ORDER BY year, country_iso3, event_name
	`

	rows, err := t.tx.QueryContext(t.ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query legacy disasters: %w", err)
	}
	defer rows.Close()

	out := []models.DisasterRow{}
	for rows.Next() {
		var row models.DisasterRow
		err := rows.Scan(
			&row.EventName,
			&row.CountryISO3,
			&row.CountryName,
			&row.Year,
			&row.HazardCategoryName,
			&row.HazardSubCategoryName,
			&row.HazardTypeName,
			&row.HazardSubTypeName,
			&row.TotalDisplacement,
			&row.NewDisplacement,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan legacy disaster: %w", err)
		}
		row.ID = uuid.NewString()
		row.EventCodes = []string{}
		row.EventCodeTypes = []string{}
		row.TotalDisplacementRounded = aggregation.RoundDisplay(row.TotalDisplacement)
		row.NewDisplacementRounded = aggregation.RoundDisplay(row.NewDisplacement)
		out = append(out, row)
	}
	return out, rows.Err()
}

// DeleteSnapshot clears every snapshot table. Runs first so the staged state
// is a full replacement.
func (t *rebuildTx) DeleteSnapshot() error {
	tables := []string{
		"conflict_statistics",
		"disaster_statistics",
		"displacement_data",
		"public_figure_analyses",
		"gidd_events",
		"gidd_figures",
	}
	for _, table := range tables {
		if _, err := t.tx.ExecContext(t.ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

func (t *rebuildTx) InsertConflicts(rows []models.ConflictRow) error {
	for _, row := range rows {
		_, err := t.tx.ExecContext(t.ctx, `
			INSERT INTO conflict_statistics (
				id, country_iso3, country_name, year,
				total_displacement, new_displacement,
				total_displacement_rounded, new_displacement_rounded
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`,
			row.ID, row.CountryISO3, row.CountryName, row.Year,
			row.TotalDisplacement, row.NewDisplacement,
			row.TotalDisplacementRounded, row.NewDisplacementRounded,
		)
		if err != nil {
			return fmt.Errorf("failed to insert conflict row: %w", err)
		}
	}
	return nil
}

func (t *rebuildTx) InsertDisasters(rows []models.DisasterRow) error {
	for _, row := range rows {
		_, err := t.tx.ExecContext(t.ctx, `
			INSERT INTO disaster_statistics (
				id, event_id, event_name, country_iso3, country_name, year,
				hazard_category_name, hazard_sub_category_name, hazard_type_name, hazard_sub_type_name,
				event_codes, event_code_types,
				total_displacement, new_displacement,
				total_displacement_rounded, new_displacement_rounded
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		`,
			row.ID, row.EventID, row.EventName, row.CountryISO3, row.CountryName, row.Year,
			row.HazardCategoryName, row.HazardSubCategoryName, row.HazardTypeName, row.HazardSubTypeName,
			pq.Array(row.EventCodes), pq.Array(row.EventCodeTypes),
			row.TotalDisplacement, row.NewDisplacement,
			row.TotalDisplacementRounded, row.NewDisplacementRounded,
		)
		if err != nil {
			return fmt.Errorf("failed to insert disaster row: %w", err)
		}
	}
	return nil
}

func (t *rebuildTx) InsertDisplacementData(rows []models.DisplacementDataRow) error {
	for _, row := range rows {
		_, err := t.tx.ExecContext(t.ctx, `
			INSERT INTO displacement_data (
				id, country_iso3, country_name, year,
				conflict_total_displacement, conflict_new_displacement,
				disaster_total_displacement, disaster_new_displacement,
				conflict_total_displacement_rounded, conflict_new_displacement_rounded,
				disaster_total_displacement_rounded, disaster_new_displacement_rounded
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`,
			row.ID, row.CountryISO3, row.CountryName, row.Year,
			row.ConflictTotalDisplacement, row.ConflictNewDisplacement,
			row.DisasterTotalDisplacement, row.DisasterNewDisplacement,
			row.ConflictTotalDisplacementRounded, row.ConflictNewDisplacementRounded,
			row.DisasterTotalDisplacementRounded, row.DisasterNewDisplacementRounded,
		)
		if err != nil {
			return fmt.Errorf("failed to insert displacement data row: %w", err)
		}
	}
	return nil
}

func (t *rebuildTx) InsertPublicFigureAnalyses(rows []models.PublicFigureAnalysisRow) error {
	for _, row := range rows {
		_, err := t.tx.ExecContext(t.ctx, `
			INSERT INTO public_figure_analyses (
				id, country_iso3, year, cause, figure_category,
				figures, figures_rounded, description
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`,
			row.ID, row.CountryISO3, row.Year, row.Cause, row.Category,
			row.Figures, row.FiguresRounded, row.Description,
		)
		if err != nil {
			return fmt.Errorf("failed to insert public figure analysis row: %w", err)
		}
	}
	return nil
}

func (t *rebuildTx) InsertGiddEvents(rows []models.GiddEvent) error {
	for _, row := range rows {
		_, err := t.tx.ExecContext(t.ctx, `
			INSERT INTO gidd_events (
				id, event_id, name, cause, start_date, end_date,
				country_iso3s, country_names,
				hazard_category_name, hazard_sub_category_name, hazard_type_name, hazard_sub_type_name,
				violence_name, violence_sub_type_name,
				event_codes, event_code_types, event_code_iso3s
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		`,
			row.ID, row.EventID, row.Name, row.Cause, row.StartDate, row.EndDate,
			pq.Array(row.CountryISO3s), pq.Array(row.CountryNames),
			row.HazardCategoryName, row.HazardSubCategoryName, row.HazardTypeName, row.HazardSubTypeName,
			row.ViolenceName, row.ViolenceSubTypeName,
			pq.Array(row.EventCodes), pq.Array(row.EventCodeTypes), pq.Array(row.EventCodeISO3s),
		)
		if err != nil {
			return fmt.Errorf("failed to insert event snapshot row: %w", err)
		}
	}
	return nil
}

func (t *rebuildTx) InsertGiddFigures(rows []models.GiddFigure) error {
	for _, row := range rows {
		_, err := t.tx.ExecContext(t.ctx, `
			INSERT INTO gidd_figures (
				id, figure_id, event_id, entry_id, year,
				country_iso3, country_name,
				category, cause, unit, reported, household_size, total_figures,
				start_date, end_date,
				hazard_category_name, hazard_type_name, hazard_sub_type_name,
				violence_name, violence_sub_type_name,
				publisher_ids, publisher_names, publisher_types,
				source_ids, source_names, source_types,
				tag_ids, tag_names,
				location_ids, location_names, location_accuracies, location_coordinates,
				event_codes, event_code_types
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			          $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28,
			          $29, $30, $31, $32, $33, $34)
		`,
			row.ID, row.FigureID, row.EventID, row.EntryID, row.Year,
			row.CountryISO3, row.CountryName,
			row.Category, row.Cause, row.Unit, row.Reported, row.HouseholdSize, row.TotalFigures,
			row.StartDate, row.EndDate,
			row.HazardCategoryName, row.HazardTypeName, row.HazardSubTypeName,
			row.ViolenceName, row.ViolenceSubTypeName,
			pq.Array(row.PublisherIDs), pq.Array(row.PublisherNames), pq.Array(row.PublisherTypes),
			pq.Array(row.SourceIDs), pq.Array(row.SourceNames), pq.Array(row.SourceTypes),
			pq.Array(row.TagIDs), pq.Array(row.TagNames),
			pq.Array(row.LocationIDs), pq.Array(row.LocationNames), pq.Array(row.LocationAccuracies), pq.Array(row.LocationCoordinates),
			pq.Array(row.EventCodes), pq.Array(row.EventCodeTypes),
		)
		if err != nil {
			return fmt.Errorf("failed to insert figure snapshot row: %w", err)
		}
	}
	return nil
}

// Read side. Every public select applies the release-year ceiling.

// ListConflicts returns conflict rows up to and including maxYear.
func (r *SnapshotRepository) ListConflicts(ctx context.Context, maxYear int) ([]models.ConflictRow, error) {
	query := `
		SELECT id, country_iso3, country_name, year,
		       total_displacement, new_displacement,
		       total_displacement_rounded, new_displacement_rounded
		FROM conflict_statistics
		WHERE year <= $1
		ORDER BY year, country_iso3
	`

	rows, err := r.db.QueryContext(ctx, query, maxYear)
	if err != nil {
		return nil, fmt.Errorf("failed to query conflict rows: %w", err)
	}
	defer rows.Close()

	out := []models.ConflictRow{}
	for rows.Next() {
		var row models.ConflictRow
		err := rows.Scan(
			&row.ID, &row.CountryISO3, &row.CountryName, &row.Year,
			&row.TotalDisplacement, &row.NewDisplacement,
			&row.TotalDisplacementRounded, &row.NewDisplacementRounded,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conflict row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// ListDisasters returns disaster rows up to and including maxYear.
func (r *SnapshotRepository) ListDisasters(ctx context.Context, maxYear int) ([]models.DisasterRow, error) {
	query := `
		SELECT id, event_id, event_name, country_iso3, country_name, year,
		       hazard_category_name, hazard_sub_category_name, hazard_type_name, hazard_sub_type_name,
		       event_codes, event_code_types,
		       total_displacement, new_displacement,
		       total_displacement_rounded, new_displacement_rounded
		FROM disaster_statistics
		WHERE year <= $1
		ORDER BY year, country_iso3, event_id
	`

	rows, err := r.db.QueryContext(ctx, query, maxYear)
	if err != nil {
		return nil, fmt.Errorf("failed to query disaster rows: %w", err)
	}
	defer rows.Close()

	out := []models.DisasterRow{}
	for rows.Next() {
		var row models.DisasterRow
		var eventID sql.NullString
		var codes, codeTypes pq.StringArray
		err := rows.Scan(
			&row.ID, &eventID, &row.EventName, &row.CountryISO3, &row.CountryName, &row.Year,
			&row.HazardCategoryName, &row.HazardSubCategoryName, &row.HazardTypeName, &row.HazardSubTypeName,
			&codes, &codeTypes,
			&row.TotalDisplacement, &row.NewDisplacement,
			&row.TotalDisplacementRounded, &row.NewDisplacementRounded,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan disaster row: %w", err)
		}
		row.EventID = eventID.String
		row.EventCodes = codes
		row.EventCodeTypes = codeTypes
		out = append(out, row)
	}
	return out, rows.Err()
}

// ListDisplacementData returns joined rows up to and including maxYear.
func (r *SnapshotRepository) ListDisplacementData(ctx context.Context, maxYear int) ([]models.DisplacementDataRow, error) {
	query := `
		SELECT id, country_iso3, country_name, year,
		       conflict_total_displacement, conflict_new_displacement,
		       disaster_total_displacement, disaster_new_displacement,
		       conflict_total_displacement_rounded, conflict_new_displacement_rounded,
		       disaster_total_displacement_rounded, disaster_new_displacement_rounded
		FROM displacement_data
		WHERE year <= $1
		ORDER BY year, country_iso3
	`

	rows, err := r.db.QueryContext(ctx, query, maxYear)
	if err != nil {
		return nil, fmt.Errorf("failed to query displacement data rows: %w", err)
	}
	defer rows.Close()

	out := []models.DisplacementDataRow{}
	for rows.Next() {
		var row models.DisplacementDataRow
		err := rows.Scan(
			&row.ID, &row.CountryISO3, &row.CountryName, &row.Year,
			&row.ConflictTotalDisplacement, &row.ConflictNewDisplacement,
			&row.DisasterTotalDisplacement, &row.DisasterNewDisplacement,
			&row.ConflictTotalDisplacementRounded, &row.ConflictNewDisplacementRounded,
			&row.DisasterTotalDisplacementRounded, &row.DisasterNewDisplacementRounded,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan displacement data row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// ListPublicFigureAnalyses returns analysis rows up to and including maxYear.
func (r *SnapshotRepository) ListPublicFigureAnalyses(ctx context.Context, maxYear int) ([]models.PublicFigureAnalysisRow, error) {
	query := `
		SELECT id, country_iso3, year, cause, figure_category,
		       figures, figures_rounded, description
		FROM public_figure_analyses
		WHERE year <= $1
		ORDER BY year, country_iso3, cause, figure_category
	`

	rows, err := r.db.QueryContext(ctx, query, maxYear)
	if err != nil {
		return nil, fmt.Errorf("failed to query public figure analyses: %w", err)
	}
	defer rows.Close()

	out := []models.PublicFigureAnalysisRow{}
	for rows.Next() {
		var row models.PublicFigureAnalysisRow
		err := rows.Scan(
			&row.ID, &row.CountryISO3, &row.Year, &row.Cause, &row.Category,
			&row.Figures, &row.FiguresRounded, &row.Description,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan public figure analysis row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// ListGiddEvents returns event snapshot rows whose start year is within the
// ceiling.
func (r *SnapshotRepository) ListGiddEvents(ctx context.Context, maxYear int) ([]models.GiddEvent, error) {
	query := `
		SELECT id, event_id, name, cause, start_date, end_date,
		       country_iso3s, country_names,
		       hazard_category_name, hazard_sub_category_name, hazard_type_name, hazard_sub_type_name,
		       violence_name, violence_sub_type_name,
		       event_codes, event_code_types, event_code_iso3s
		FROM gidd_events
		WHERE EXTRACT(YEAR FROM start_date) <= $1
		ORDER BY event_id
	`

	rows, err := r.db.QueryContext(ctx, query, maxYear)
	if err != nil {
		return nil, fmt.Errorf("failed to query event snapshot rows: %w", err)
	}
	defer rows.Close()

	out := []models.GiddEvent{}
	for rows.Next() {
		var row models.GiddEvent
		var endDate sql.NullTime
		var iso3s, names, codes, codeTypes, codeISO3s pq.StringArray
		err := rows.Scan(
			&row.ID, &row.EventID, &row.Name, &row.Cause, &row.StartDate, &endDate,
			&iso3s, &names,
			&row.HazardCategoryName, &row.HazardSubCategoryName, &row.HazardTypeName, &row.HazardSubTypeName,
			&row.ViolenceName, &row.ViolenceSubTypeName,
			&codes, &codeTypes, &codeISO3s,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event snapshot row: %w", err)
		}
		if endDate.Valid {
			row.EndDate = &endDate.Time
		}
		row.CountryISO3s = iso3s
		row.CountryNames = names
		row.EventCodes = codes
		row.EventCodeTypes = codeTypes
		row.EventCodeISO3s = codeISO3s
		out = append(out, row)
	}
	return out, rows.Err()
}

// ListGiddFigures returns figure snapshot rows up to and including maxYear.
func (r *SnapshotRepository) ListGiddFigures(ctx context.Context, maxYear int) ([]models.GiddFigure, error) {
	query := `
		SELECT id, figure_id, event_id, entry_id, year,
		       country_iso3, country_name,
		       category, cause, unit, reported, household_size, total_figures,
		       start_date, end_date,
		       hazard_category_name, hazard_type_name, hazard_sub_type_name,
		       violence_name, violence_sub_type_name,
		       publisher_ids, publisher_names, publisher_types,
		       source_ids, source_names, source_types,
		       tag_ids, tag_names,
		       location_ids, location_names, location_accuracies, location_coordinates,
		       event_codes, event_code_types
		FROM gidd_figures
		WHERE year <= $1
		ORDER BY year, country_iso3, figure_id
	`

	rows, err := r.db.QueryContext(ctx, query, maxYear)
	if err != nil {
		return nil, fmt.Errorf("failed to query figure snapshot rows: %w", err)
	}
	defer rows.Close()

	out := []models.GiddFigure{}
	for rows.Next() {
		var row models.GiddFigure
		var endDate sql.NullTime
		var publisherIDs, publisherNames, publisherTypes pq.StringArray
		var sourceIDs, sourceNames, sourceTypes pq.StringArray
		var tagIDs, tagNames pq.StringArray
		var locationIDs, locationNames, locationAccuracies, locationCoordinates pq.StringArray
		var codes, codeTypes pq.StringArray
		err := rows.Scan(
			&row.ID, &row.FigureID, &row.EventID, &row.EntryID, &row.Year,
			&row.CountryISO3, &row.CountryName,
			&row.Category, &row.Cause, &row.Unit, &row.Reported, &row.HouseholdSize, &row.TotalFigures,
			&row.StartDate, &endDate,
			&row.HazardCategoryName, &row.HazardTypeName, &row.HazardSubTypeName,
			&row.ViolenceName, &row.ViolenceSubTypeName,
			&publisherIDs, &publisherNames, &publisherTypes,
			&sourceIDs, &sourceNames, &sourceTypes,
			&tagIDs, &tagNames,
			&locationIDs, &locationNames, &locationAccuracies, &locationCoordinates,
			&codes, &codeTypes,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan figure snapshot row: %w", err)
		}
		if endDate.Valid {
			row.EndDate = &endDate.Time
		}
		row.PublisherIDs, row.PublisherNames, row.PublisherTypes = publisherIDs, publisherNames, publisherTypes
		row.SourceIDs, row.SourceNames, row.SourceTypes = sourceIDs, sourceNames, sourceTypes
		row.TagIDs, row.TagNames = tagIDs, tagNames
		row.LocationIDs, row.LocationNames = locationIDs, locationNames
		row.LocationAccuracies, row.LocationCoordinates = locationAccuracies, locationCoordinates
		row.EventCodes, row.EventCodeTypes = codes, codeTypes
		out = append(out, row)
	}
	return out, rows.Err()
}
