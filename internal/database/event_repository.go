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

// EventRepository persists events. Event codes live in a JSONB column since
// they are only ever read through their owning event.
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a PostgreSQL event repository.
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `
	id, name, cause, start_date, end_date, country_iso3s, event_codes,
	violence_sub_type_id, violence_id,
	disaster_sub_type_id, disaster_type_id, disaster_sub_category_id, disaster_category_id,
	include_triangulation_in_qa, ignore_qa, review_status, created_at, updated_at`

// Create inserts a new event.
func (r *EventRepository) Create(ctx context.Context, event models.Event) error {
	codesJSON, err := json.Marshal(event.EventCodes)
	if err != nil {
		return fmt.Errorf("failed to marshal event codes: %w", err)
	}

	query := `
		INSERT INTO events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err = r.db.ExecContext(ctx, query,
		event.ID,
		event.Name,
		event.Cause,
		event.StartDate,
		event.EndDate,
		pq.Array(event.CountryISO3s),
		codesJSON,
		event.ViolenceSubTypeID,
		event.ViolenceID,
		event.DisasterSubTypeID,
		event.DisasterTypeID,
		event.DisasterSubCategoryID,
		event.DisasterCategoryID,
		event.IncludeTriangulationInQA,
		event.IgnoreQA,
		event.ReviewStatus,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// Update replaces an event. The review status is deliberately not part of
// the update; it only moves through the review workflow.
func (r *EventRepository) Update(ctx context.Context, event models.Event) error {
	codesJSON, err := json.Marshal(event.EventCodes)
	if err != nil {
		return fmt.Errorf("failed to marshal event codes: %w", err)
	}

	query := `
		UPDATE events SET
			name = $2, cause = $3, start_date = $4, end_date = $5,
			country_iso3s = $6, event_codes = $7,
			violence_sub_type_id = $8, violence_id = $9,
			disaster_sub_type_id = $10, disaster_type_id = $11,
			disaster_sub_category_id = $12, disaster_category_id = $13,
			ignore_qa = $14, updated_at = $15
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.Name,
		event.Cause,
		event.StartDate,
		event.EndDate,
		pq.Array(event.CountryISO3s),
		codesJSON,
		event.ViolenceSubTypeID,
		event.ViolenceID,
		event.DisasterSubTypeID,
		event.DisasterTypeID,
		event.DisasterSubCategoryID,
		event.DisasterCategoryID,
		event.IgnoreQA,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return models.ErrNotFound
	}
	return nil
}

// GetEvent retrieves an event by id. Returns (nil, nil) when the event does
// not exist.
func (r *EventRepository) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	event, err := scanEvent(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query event: %w", err)
	}
	return event, nil
}

// ListEvents retrieves every event keyed by id. The pipeline loads the full
// set once per run.
func (r *EventRepository) ListEvents(ctx context.Context) (map[string]models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events`

	rows, err := r.db.QueryContext(ctx, query)
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return events, nil
}

// UpdateEventReviewStatus updates only the review status of an event.
func (r *EventRepository) UpdateEventReviewStatus(ctx context.Context, id string, status models.EventReviewStatus) error {
	query := "UPDATE events SET review_status = $1, updated_at = $2 WHERE id = $3"
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

// UpdateEventIncludeTriangulation updates only the triangulation toggle.
func (r *EventRepository) UpdateEventIncludeTriangulation(ctx context.Context, id string, include bool) error {
	query := "UPDATE events SET include_triangulation_in_qa = $1, updated_at = $2 WHERE id = $3"
	result, err := r.db.ExecContext(ctx, query, include, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return models.ErrNotFound
	}
	return nil
}

func scanEvent(row rowScanner) (*models.Event, error) {
	var event models.Event
	var codesJSON []byte
	var iso3s pq.StringArray
	var endDate sql.NullTime

	err := row.Scan(
		&event.ID,
		&event.Name,
		&event.Cause,
		&event.StartDate,
		&endDate,
		&iso3s,
		&codesJSON,
		&event.ViolenceSubTypeID,
		&event.ViolenceID,
		&event.DisasterSubTypeID,
		&event.DisasterTypeID,
		&event.DisasterSubCategoryID,
		&event.DisasterCategoryID,
		&event.IncludeTriangulationInQA,
		&event.IgnoreQA,
		&event.ReviewStatus,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(codesJSON) > 0 {
		if err := json.Unmarshal(codesJSON, &event.EventCodes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event codes: %w", err)
		}
	}
	event.CountryISO3s = iso3s
	if endDate.Valid {
		event.EndDate = &endDate.Time
	}

	return &event, nil
}
