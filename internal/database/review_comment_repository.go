package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/GIDD/gidd/internal/models"
)

// ReviewCommentRepository persists reviewer comments on figures.
type ReviewCommentRepository struct {
	db *sql.DB
}

// NewReviewCommentRepository creates a PostgreSQL review comment repository.
func NewReviewCommentRepository(db *sql.DB) *ReviewCommentRepository {
	return &ReviewCommentRepository{db: db}
}

// Create inserts a new comment.
func (r *ReviewCommentRepository) Create(ctx context.Context, id, figureID, author, body string) error {
	query := `
		INSERT INTO review_comments (id, figure_id, author, body, is_cleared, created_at)
		VALUES ($1, $2, $3, $4, FALSE, NOW())
	`
	if _, err := r.db.ExecContext(ctx, query, id, figureID, author, body); err != nil {
		return fmt.Errorf("failed to insert review comment: %w", err)
	}
	return nil
}

// Clear marks a comment as resolved.
func (r *ReviewCommentRepository) Clear(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE review_comments SET is_cleared = TRUE WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to clear review comment: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("review comment not found: %s", id)
	}
	return nil
}

// ListForFigure retrieves all comments on a figure, oldest first.
func (r *ReviewCommentRepository) ListForFigure(ctx context.Context, figureID string) ([]models.ReviewComment, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, figure_id, author, body, is_cleared FROM review_comments WHERE figure_id = $1 ORDER BY created_at",
		figureID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query review comments: %w", err)
	}
	defer rows.Close()

	comments := []models.ReviewComment{}
	for rows.Next() {
		var c models.ReviewComment
		if err := rows.Scan(&c.ID, &c.FigureID, &c.Author, &c.Body, &c.IsCleared); err != nil {
			return nil, fmt.Errorf("failed to scan review comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// CountOpenForFigure counts uncleared comments on a figure.
func (r *ReviewCommentRepository) CountOpenForFigure(ctx context.Context, figureID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM review_comments WHERE figure_id = $1 AND NOT is_cleared",
		figureID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count open comments: %w", err)
	}
	return count, nil
}
