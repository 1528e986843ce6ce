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

// HabitRepository handles database operations for habits and habit logs
type HabitRepository struct {
	db *pgxpool.Pool
}

// NewHabitRepository creates a new habit repository
func NewHabitRepository(db *pgxpool.Pool) *HabitRepository {
	return &HabitRepository{db: db}
}

// Create creates a new habit
func (r *HabitRepository) Create(ctx context.Context, habit *models.Habit) error {
	query := `
		INSERT INTO habits (id, user_id, name, cadence, reminder_time_local, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		habit.ID, habit.UserID, habit.Name, habit.Cadence, habit.ReminderTimeLocal,
		habit.IsActive, habit.CreatedAt, habit.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create habit: %w", err)
	}
	return nil
}

// GetOwned retrieves a habit by ID, scoped to its owner
func (r *HabitRepository) GetOwned(ctx context.Context, id, userID string) (*models.Habit, error) {
	var h models.Habit
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, name, cadence, reminder_time_local, is_active, created_at, updated_at
		 FROM habits WHERE id = $1 AND user_id = $2`, id, userID,
	).Scan(&h.ID, &h.UserID, &h.Name, &h.Cadence, &h.ReminderTimeLocal, &h.IsActive, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("habit not found")
		}
		return nil, fmt.Errorf("failed to get habit: %w", err)
	}
	return &h, nil
}

// ListByUser retrieves the user's habits together with today's log status
func (r *HabitRepository) ListByUser(ctx context.Context, userID string, activeOnly bool, today models.Date) ([]*models.HabitWithToday, error) {
	query := `
		SELECT h.id, h.user_id, h.name, h.cadence, h.reminder_time_local, h.is_active,
		       h.created_at, h.updated_at, l.status
		FROM habits h
		LEFT JOIN habit_logs l ON l.habit_id = h.id AND l.date = $2
		WHERE h.user_id = $1
	`
	if activeOnly {
		query += ` AND h.is_active`
	}
	query += ` ORDER BY h.created_at DESC`

	rows, err := r.db.Query(ctx, query, userID, today.Time)
	if err != nil {
		return nil, fmt.Errorf("failed to list habits: %w", err)
	}
	defer rows.Close()

	var habits []*models.HabitWithToday
	for rows.Next() {
		var h models.HabitWithToday
		err := rows.Scan(&h.ID, &h.UserID, &h.Name, &h.Cadence, &h.ReminderTimeLocal,
			&h.IsActive, &h.CreatedAt, &h.UpdatedAt, &h.TodayStatus)
		if err != nil {
			return nil, fmt.Errorf("failed to scan habit: %w", err)
		}
		habits = append(habits, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating habits: %w", err)
	}
	return habits, nil
}

// Update persists the mutable fields of a habit
func (r *HabitRepository) Update(ctx context.Context, habit *models.Habit) error {
	query := `
		UPDATE habits
		SET name = $1, cadence = $2, reminder_time_local = $3, is_active = $4, updated_at = now()
		WHERE id = $5 AND user_id = $6
	`
	result, err := r.db.Exec(ctx, query,
		habit.Name, habit.Cadence, habit.ReminderTimeLocal, habit.IsActive, habit.ID, habit.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update habit: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NotFound("habit not found")
	}
	return nil
}

// UpsertLog writes a log for (habit_id, date) in one atomic statement. An
// existing row keeps its id and created_at; status and notes are overwritten.
func (r *HabitRepository) UpsertLog(ctx context.Context, log *models.HabitLog) error {
	query := `
		INSERT INTO habit_logs (id, habit_id, date, status, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (habit_id, date) DO UPDATE
		SET status = EXCLUDED.status,
		    notes = EXCLUDED.notes
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		log.ID, log.HabitID, log.Date.Time, log.Status, log.Notes,
	).Scan(&log.ID, &log.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert habit log: %w", err)
	}
	return nil
}

// LogFilter narrows a habit log listing
type LogFilter struct {
	HabitID  string
	FromDate *models.Date
	ToDate   *models.Date
}

// ListLogs retrieves logs for all of the user's habits, newest date first,
// joined with the habit name
func (r *HabitRepository) ListLogs(ctx context.Context, userID string, filter LogFilter) ([]*models.HabitLogEntry, error) {
	query := `
		SELECT l.id, l.habit_id, l.date, l.status, l.notes, l.created_at, h.name
		FROM habit_logs l
		JOIN habits h ON h.id = l.habit_id
		WHERE h.user_id = $1
	`
	args := []any{userID}
	if filter.HabitID != "" {
		args = append(args, filter.HabitID)
		query += fmt.Sprintf(" AND l.habit_id = $%d", len(args))
	}
	if filter.FromDate != nil {
		args = append(args, filter.FromDate.Time)
		query += fmt.Sprintf(" AND l.date >= $%d", len(args))
	}
	if filter.ToDate != nil {
		args = append(args, filter.ToDate.Time)
		query += fmt.Sprintf(" AND l.date <= $%d", len(args))
	}
	query += ` ORDER BY l.date DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list habit logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.HabitLogEntry
	for rows.Next() {
		var e models.HabitLogEntry
		err := rows.Scan(&e.ID, &e.HabitID, &e.Date.Time, &e.Status, &e.Notes, &e.CreatedAt, &e.HabitName)
		if err != nil {
			return nil, fmt.Errorf("failed to scan habit log: %w", err)
		}
		logs = append(logs, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating habit logs: %w", err)
	}
	return logs, nil
}

// WeekCounts holds the aggregates for the weekly stats endpoint
type WeekCounts struct {
	ActiveHabits int
	DoneCount    int
	SkippedCount int
}

// CountWeek aggregates the user's active habit count and the done/skipped
// log counts inside [from, to]
func (r *HabitRepository) CountWeek(ctx context.Context, userID string, from, to models.Date) (*WeekCounts, error) {
	var c WeekCounts
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM habits WHERE user_id = $1 AND is_active`, userID,
	).Scan(&c.ActiveHabits)
	if err != nil {
		return nil, fmt.Errorf("failed to count active habits: %w", err)
	}

	err = r.db.QueryRow(ctx,
		`SELECT
		    COUNT(*) FILTER (WHERE l.status = 'done'),
		    COUNT(*) FILTER (WHERE l.status = 'skipped')
		 FROM habit_logs l
		 JOIN habits h ON h.id = l.habit_id
		 WHERE h.user_id = $1 AND h.is_active AND l.date BETWEEN $2 AND $3`,
		userID, from.Time, to.Time,
	).Scan(&c.DoneCount, &c.SkippedCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count habit logs: %w", err)
	}
	return &c, nil
}
