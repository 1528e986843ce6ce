package repository

import (
	"context"
	"errors"
	"fmt"

	"couples-workout-backend/internal/apperror"
	"couples-workout-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProgressRepository handles database operations for progress snapshots
type ProgressRepository struct {
	db *pgxpool.Pool
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db *pgxpool.Pool) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// Upsert writes a snapshot for (user_id, date) in one atomic statement. An
// existing row keeps its id and created_at; the metrics bag is overwritten.
func (r *ProgressRepository) Upsert(ctx context.Context, snapshot *models.ProgressSnapshot) error {
	query := `
		INSERT INTO progress_snapshots (id, user_id, date, metrics, created_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (user_id, date) DO UPDATE
		SET metrics = EXCLUDED.metrics
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		snapshot.ID, snapshot.UserID, snapshot.Date.Time, snapshot.Metrics,
	).Scan(&snapshot.ID, &snapshot.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}
	return nil
}

// List retrieves a user's snapshots newest first, optionally bounded by date
func (r *ProgressRepository) List(ctx context.Context, userID string, from, to *models.Date) ([]*models.ProgressSnapshot, error) {
	query := `
		SELECT id, user_id, date, metrics, created_at
		FROM progress_snapshots
		WHERE user_id = $1
	`
	args := []any{userID}
	if from != nil {
		args = append(args, from.Time)
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if to != nil {
		args = append(args, to.Time)
		query += fmt.Sprintf(" AND date <= $%d", len(args))
	}
	query += ` ORDER BY date DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*models.ProgressSnapshot
	for rows.Next() {
		var s models.ProgressSnapshot
		if err := rows.Scan(&s.ID, &s.UserID, &s.Date.Time, &s.Metrics, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}
	return snapshots, nil
}

// Latest retrieves the user's most recent snapshot
func (r *ProgressRepository) Latest(ctx context.Context, userID string) (*models.ProgressSnapshot, error) {
	return r.latestOnOrBefore(ctx, userID, nil)
}

// LatestOnOrBefore retrieves the user's most recent snapshot dated at or
// before the given date
func (r *ProgressRepository) LatestOnOrBefore(ctx context.Context, userID string, date models.Date) (*models.ProgressSnapshot, error) {
	return r.latestOnOrBefore(ctx, userID, &date)
}

func (r *ProgressRepository) latestOnOrBefore(ctx context.Context, userID string, date *models.Date) (*models.ProgressSnapshot, error) {
	query := `
		SELECT id, user_id, date, metrics, created_at
		FROM progress_snapshots
		WHERE user_id = $1
	`
	args := []any{userID}
	if date != nil {
		args = append(args, date.Time)
		query += fmt.Sprintf(" AND date <= $%d", len(args))
	}
	query += ` ORDER BY date DESC LIMIT 1`

	var s models.ProgressSnapshot
	err := r.db.QueryRow(ctx, query, args...).Scan(&s.ID, &s.UserID, &s.Date.Time, &s.Metrics, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("snapshot not found")
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return &s, nil
}
