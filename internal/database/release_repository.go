package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/GIDD/gidd/internal/models"
)

// ReleaseRepository manages the single release metadata row: the year
// ceilings applied to public snapshot reads.
type ReleaseRepository struct {
	db *sql.DB
}

// NewReleaseRepository creates a PostgreSQL release repository.
func NewReleaseRepository(db *sql.DB) *ReleaseRepository {
	return &ReleaseRepository{db: db}
}

// Get returns the release metadata, or (nil, nil) when it has never been set.
func (r *ReleaseRepository) Get(ctx context.Context) (*models.ReleaseMetadata, error) {
	query := "SELECT release_year, pre_release_year, updated_at FROM release_metadata WHERE id = 1"

	var meta models.ReleaseMetadata
	err := r.db.QueryRowContext(ctx, query).Scan(&meta.ReleaseYear, &meta.PreReleaseYear, &meta.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query release metadata: %w", err)
	}
	return &meta, nil
}

// Set upserts the release metadata row.
func (r *ReleaseRepository) Set(ctx context.Context, releaseYear, preReleaseYear int) (*models.ReleaseMetadata, error) {
	now := time.Now()
	query := `
		INSERT INTO release_metadata (id, release_year, pre_release_year, updated_at)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			release_year = EXCLUDED.release_year,
			pre_release_year = EXCLUDED.pre_release_year,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, releaseYear, preReleaseYear, now); err != nil {
		return nil, fmt.Errorf("failed to set release metadata: %w", err)
	}

	return &models.ReleaseMetadata{
		ReleaseYear:    releaseYear,
		PreReleaseYear: preReleaseYear,
		UpdatedAt:      now,
	}, nil
}
