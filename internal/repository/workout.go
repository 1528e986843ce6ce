package repository

import (
	"context"
	"fmt"
	"time"

	"couples-workout-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// WorkoutRepository handles database operations for workout templates and
// sessions
type WorkoutRepository struct {
	db *pgxpool.Pool
}

// NewWorkoutRepository creates a new workout repository
func NewWorkoutRepository(db *pgxpool.Pool) *WorkoutRepository {
	return &WorkoutRepository{db: db}
}

// CreateTemplate creates a new workout template. System templates are stored
// with a NULL owner.
func (r *WorkoutRepository) CreateTemplate(ctx context.Context, t *models.WorkoutTemplate) error {
	var owner *string
	if !t.Owner.System {
		owner = &t.Owner.UserID
	}
	query := `
		INSERT INTO workout_templates (id, owner_user_id, name, type, exercises, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		t.ID, owner, t.Name, t.Type, t.Exercises, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}
	return nil
}

// ListTemplates retrieves the user's templates; unless mineOnly is set, the
// global system templates are included as well
func (r *WorkoutRepository) ListTemplates(ctx context.Context, userID string, mineOnly bool) ([]*models.WorkoutTemplate, error) {
	query := `
		SELECT id, owner_user_id, name, type, exercises, created_at, updated_at
		FROM workout_templates
		WHERE owner_user_id = $1
	`
	if !mineOnly {
		query += ` OR owner_user_id IS NULL`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var templates []*models.WorkoutTemplate
	for rows.Next() {
		var t models.WorkoutTemplate
		var owner *string
		err := rows.Scan(&t.ID, &owner, &t.Name, &t.Type, &t.Exercises, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		if owner != nil {
			t.Owner = models.UserOwner(*owner)
		} else {
			t.Owner = models.SystemOwner()
		}
		templates = append(templates, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating templates: %w", err)
	}
	return templates, nil
}

// CreateSession creates a new workout session
func (r *WorkoutRepository) CreateSession(ctx context.Context, s *models.WorkoutSession) error {
	query := `
		INSERT INTO workout_sessions
			(id, user_id, couple_id, template_id, mode, start_time, end_time, notes,
			 exercises_performed, metrics, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.Exec(ctx, query,
		s.ID, s.UserID, s.CoupleID, s.TemplateID, s.Mode, s.StartTime, s.EndTime,
		s.Notes, s.ExercisesPerformed, s.Metrics, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// ListSessions retrieves the user's sessions newest first, optionally bounded
// by start date
func (r *WorkoutRepository) ListSessions(ctx context.Context, userID string, from, to *models.Date) ([]*models.WorkoutSession, error) {
	query := `
		SELECT id, user_id, couple_id, template_id, mode, start_time, end_time, notes,
		       exercises_performed, metrics, created_at
		FROM workout_sessions
		WHERE user_id = $1
	`
	args := []any{userID}
	if from != nil {
		args = append(args, from.Time)
		query += fmt.Sprintf(" AND start_time >= $%d", len(args))
	}
	if to != nil {
		args = append(args, to.AddDays(1).Time)
		query += fmt.Sprintf(" AND start_time < $%d", len(args))
	}
	query += ` ORDER BY start_time DESC`

	return r.querySessions(ctx, query, args...)
}

// CompletedSince retrieves the user's completed sessions started at or after
// the given instant
func (r *WorkoutRepository) CompletedSince(ctx context.Context, userID string, since time.Time) ([]*models.WorkoutSession, error) {
	query := `
		SELECT id, user_id, couple_id, template_id, mode, start_time, end_time, notes,
		       exercises_performed, metrics, created_at
		FROM workout_sessions
		WHERE user_id = $1 AND start_time >= $2 AND end_time IS NOT NULL
		ORDER BY start_time DESC
	`
	return r.querySessions(ctx, query, userID, since)
}

func (r *WorkoutRepository) querySessions(ctx context.Context, query string, args ...any) ([]*models.WorkoutSession, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.WorkoutSession
	for rows.Next() {
		var s models.WorkoutSession
		err := rows.Scan(&s.ID, &s.UserID, &s.CoupleID, &s.TemplateID, &s.Mode,
			&s.StartTime, &s.EndTime, &s.Notes, &s.ExercisesPerformed, &s.Metrics, &s.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}
	return sessions, nil
}
