package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/GIDD/gidd/internal/models"
)

// FigureRepository persists figures and their attached locations.
type FigureRepository struct {
	db *sql.DB
}

// NewFigureRepository creates a PostgreSQL figure repository.
func NewFigureRepository(db *sql.DB) *FigureRepository {
	return &FigureRepository{db: db}
}

const figureColumns = `
	id, entry_id, event_id, country_iso3, country_name,
	reported, unit, household_size, total_figures,
	category, role, figure_cause, start_date, end_date,
	include_idu, excerpt_idu, disaggregation,
	violence_sub_type_id, violence_id,
	disaster_sub_type_id, disaster_type_id, disaster_sub_category_id, disaster_category_id,
	tag_ids, review_status, created_at, updated_at`

// Create inserts a figure and its locations.
func (r *FigureRepository) Create(ctx context.Context, figure models.Figure) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	disaggregationJSON, err := json.Marshal(figure.Disaggregation)
	if err != nil {
		return fmt.Errorf("failed to marshal disaggregation: %w", err)
	}

	query := `
		INSERT INTO figures (` + figureColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27)
	`

	_, err = tx.ExecContext(ctx, query,
		figure.ID,
		figure.EntryID,
		figure.EventID,
		figure.CountryISO3,
		figure.CountryName,
		figure.Reported,
		figure.Unit,
		figure.HouseholdSize,
		figure.TotalFigures,
		figure.Category,
		figure.Role,
		figure.Cause,
		figure.StartDate,
		figure.EndDate,
		figure.IncludeIDU,
		figure.ExcerptIDU,
		disaggregationJSON,
		figure.ViolenceSubTypeID,
		figure.ViolenceID,
		figure.DisasterSubTypeID,
		figure.DisasterTypeID,
		figure.DisasterSubCategoryID,
		figure.DisasterCategoryID,
		pq.Array(figure.TagIDs),
		figure.ReviewStatus,
		figure.CreatedAt,
		figure.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert figure: %w", err)
	}

	if err := r.insertLocations(ctx, tx, figure.ID, figure.Locations); err != nil {
		return err
	}

	return tx.Commit()
}

// Update replaces a figure and its locations.
func (r *FigureRepository) Update(ctx context.Context, figure models.Figure) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	disaggregationJSON, err := json.Marshal(figure.Disaggregation)
	if err != nil {
		return fmt.Errorf("failed to marshal disaggregation: %w", err)
	}

	query := `
		UPDATE figures SET
			entry_id = $2, event_id = $3, country_iso3 = $4, country_name = $5,
			reported = $6, unit = $7, household_size = $8, total_figures = $9,
			category = $10, role = $11, figure_cause = $12, start_date = $13, end_date = $14,
			include_idu = $15, excerpt_idu = $16, disaggregation = $17,
			violence_sub_type_id = $18, violence_id = $19,
			disaster_sub_type_id = $20, disaster_type_id = $21,
			disaster_sub_category_id = $22, disaster_category_id = $23,
			tag_ids = $24, review_status = $25, updated_at = $26
		WHERE id = $1
	`

	result, err := tx.ExecContext(ctx, query,
		figure.ID,
		figure.EntryID,
		figure.EventID,
		figure.CountryISO3,
		figure.CountryName,
		figure.Reported,
		figure.Unit,
		figure.HouseholdSize,
		figure.TotalFigures,
		figure.Category,
		figure.Role,
		figure.Cause,
		figure.StartDate,
		figure.EndDate,
		figure.IncludeIDU,
		figure.ExcerptIDU,
		disaggregationJSON,
		figure.ViolenceSubTypeID,
		figure.ViolenceID,
		figure.DisasterSubTypeID,
		figure.DisasterTypeID,
		figure.DisasterSubCategoryID,
		figure.DisasterCategoryID,
		pq.Array(figure.TagIDs),
		figure.ReviewStatus,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to update figure: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return models.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM figure_locations WHERE figure_id = $1", figure.ID); err != nil {
		return fmt.Errorf("failed to delete figure locations: %w", err)
	}
	if err := r.insertLocations(ctx, tx, figure.ID, figure.Locations); err != nil {
		return err
	}

	return tx.Commit()
}

// GetFigure retrieves a figure by id, with locations attached. Returns
// (nil, nil) when the figure does not exist.
func (r *FigureRepository) GetFigure(ctx context.Context, id string) (*models.Figure, error) {
	query := `SELECT ` + figureColumns + ` FROM figures WHERE id = $1`

	figure, err := scanFigure(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query figure: %w", err)
	}

	if err := loadFigureLocations(ctx, r.db, figure); err != nil {
		return nil, err
	}
	return figure, nil
}

// ListFiguresByEvent retrieves all figures attached to an event.
func (r *FigureRepository) ListFiguresByEvent(ctx context.Context, eventID string) ([]models.Figure, error) {
	query := `SELECT ` + figureColumns + ` FROM figures WHERE event_id = $1 ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query figures: %w", err)
	}
	defer rows.Close()

	return collectFigures(ctx, r.db, rows)
}

// ListFigures retrieves every figure. The pipeline loads the full set once
// per run.
func (r *FigureRepository) ListFigures(ctx context.Context) ([]models.Figure, error) {
	query := `SELECT ` + figureColumns + ` FROM figures ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query figures: %w", err)
	}
	defer rows.Close()

	return collectFigures(ctx, r.db, rows)
}

// UpdateFigureReviewStatus updates only the review status of a figure.
func (r *FigureRepository) UpdateFigureReviewStatus(ctx context.Context, id string, status models.FigureReviewStatus) error {
	query := "UPDATE figures SET review_status = $1, updated_at = $2 WHERE id = $3"
	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update review status: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete removes a figure. Locations cascade at the schema level.
func (r *FigureRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM figures WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete figure: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return models.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFigure(row rowScanner) (*models.Figure, error) {
	var figure models.Figure
	var disaggregationJSON []byte
	var tagIDs pq.StringArray
	var endDate sql.NullTime

	err := row.Scan(
		&figure.ID,
		&figure.EntryID,
		&figure.EventID,
		&figure.CountryISO3,
		&figure.CountryName,
		&figure.Reported,
		&figure.Unit,
		&figure.HouseholdSize,
		&figure.TotalFigures,
		&figure.Category,
		&figure.Role,
		&figure.Cause,
		&figure.StartDate,
		&endDate,
		&figure.IncludeIDU,
		&figure.ExcerptIDU,
		&disaggregationJSON,
		&figure.ViolenceSubTypeID,
		&figure.ViolenceID,
		&figure.DisasterSubTypeID,
		&figure.DisasterTypeID,
		&figure.DisasterSubCategoryID,
		&figure.DisasterCategoryID,
		&tagIDs,
		&figure.ReviewStatus,
		&figure.CreatedAt,
		&figure.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(disaggregationJSON) > 0 {
		if err := json.Unmarshal(disaggregationJSON, &figure.Disaggregation); err != nil {
			return nil, fmt.Errorf("failed to unmarshal disaggregation: %w", err)
		}
	}
	figure.TagIDs = tagIDs
	if endDate.Valid {
		figure.EndDate = &endDate.Time
	}

	return &figure, nil
}

func collectFigures(ctx context.Context, q queryer, rows *sql.Rows) ([]models.Figure, error) {
	figures := []models.Figure{}
	for rows.Next() {
		figure, err := scanFigure(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan figure: %w", err)
		}
		figures = append(figures, *figure)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	for i := range figures {
		if err := loadFigureLocations(ctx, q, &figures[i]); err != nil {
			return nil, err
		}
	}
	return figures, nil
}

func (r *FigureRepository) insertLocations(ctx context.Context, tx *sql.Tx, figureID string, locations []models.FigureLocation) error {
	for _, loc := range locations {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO figure_locations (id, figure_id, name, country_iso3, latitude, longitude, accuracy, is_destination)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, loc.ID, figureID, loc.Name, loc.CountryISO3, loc.Latitude, loc.Longitude, loc.Accuracy, loc.IsDestination)
		if err != nil {
			return fmt.Errorf("failed to insert figure location: %w", err)
		}
	}
	return nil
}

func loadFigureLocations(ctx context.Context, q queryer, figure *models.Figure) error {
	query := `
		SELECT id, name, country_iso3, latitude, longitude, accuracy, is_destination
		FROM figure_locations
		WHERE figure_id = $1
		ORDER BY id
	`

	rows, err := q.QueryContext(ctx, query, figure.ID)
	if err != nil {
		return fmt.Errorf("failed to load figure locations: %w", err)
	}
	defer rows.Close()

	figure.Locations = []models.FigureLocation{}
	for rows.Next() {
		var loc models.FigureLocation
		err := rows.Scan(
			&loc.ID,
			&loc.Name,
			&loc.CountryISO3,
			&loc.Latitude,
			&loc.Longitude,
			&loc.Accuracy,
			&loc.IsDestination,
		)
		if err != nil {
			return fmt.Errorf("failed to scan figure location: %w", err)
		}
		figure.Locations = append(figure.Locations, loc)
	}
	return rows.Err()
}
