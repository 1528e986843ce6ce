package services

import (
	"context"
	"math"
	"regexp"
	"strings"
	"time"

	"couples-workout-backend/internal/apperror"
	"couples-workout-backend/internal/models"
	"couples-workout-backend/internal/repository"

	"github.com/google/uuid"
)

var reminderTimeRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// HabitStore is the persistence surface the habit service needs
type HabitStore interface {
	Create(ctx context.Context, habit *models.Habit) error
	GetOwned(ctx context.Context, id, userID string) (*models.Habit, error)
	ListByUser(ctx context.Context, userID string, activeOnly bool, today models.Date) ([]*models.HabitWithToday, error)
	Update(ctx context.Context, habit *models.Habit) error
	UpsertLog(ctx context.Context, log *models.HabitLog) error
	ListLogs(ctx context.Context, userID string, filter repository.LogFilter) ([]*models.HabitLogEntry, error)
	CountWeek(ctx context.Context, userID string, from, to models.Date) (*repository.WeekCounts, error)
}

// AccessChecker gates reads of another user's data
type AccessChecker interface {
	CheckAccess(ctx context.Context, viewerID, ownerID string, kind ResourceKind) error
}

// PartnerFinder resolves the other member of the caller's couple
type PartnerFinder interface {
	GetPartner(ctx context.Context, userID string) (*models.CoupleMember, error)
}

// HabitService handles habit and habit log business logic
type HabitService struct {
	habitRepo HabitStore
	couples   PartnerFinder
	access    AccessChecker
}

// NewHabitService creates a new habit service
func NewHabitService(habitRepo HabitStore, couples PartnerFinder, access AccessChecker) *HabitService {
	return &HabitService{
		habitRepo: habitRepo,
		couples:   couples,
		access:    access,
	}
}

// Create creates a new habit for the user
func (s *HabitService) Create(ctx context.Context, userID, name string, cadence models.HabitCadence, reminderTime *string) (*models.Habit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.Validation("name is required")
	}
	if !validCadence(cadence) {
		return nil, apperror.Validation("cadence must be daily, weekly or custom")
	}
	if reminderTime != nil && !reminderTimeRe.MatchString(*reminderTime) {
		return nil, apperror.Validation("reminder_time_local must be HH:MM")
	}

	habit := &models.Habit{
		ID:                uuid.New().String(),
		UserID:            userID,
		Name:              name,
		Cadence:           cadence,
		ReminderTimeLocal: reminderTime,
		IsActive:          true,
	}
	now := time.Now()
	habit.CreatedAt, habit.UpdatedAt = now, now

	if err := s.habitRepo.Create(ctx, habit); err != nil {
		return nil, err
	}
	return habit, nil
}

// List returns the caller's habits with today's log status attached
func (s *HabitService) List(ctx context.Context, userID string, activeOnly bool) ([]*models.HabitWithToday, error) {
	return s.habitRepo.ListByUser(ctx, userID, activeOnly, models.Today())
}

// HabitUpdate carries the optional fields of a habit PATCH request
type HabitUpdate struct {
	Name              *string              `json:"name"`
	Cadence           *models.HabitCadence `json:"cadence"`
	ReminderTimeLocal *string              `json:"reminder_time_local"`
	IsActive          *bool                `json:"is_active"`
}

// Update applies a partial update to one of the caller's habits
func (s *HabitService) Update(ctx context.Context, userID, habitID string, update HabitUpdate) (*models.Habit, error) {
	habit, err := s.habitRepo.GetOwned(ctx, habitID, userID)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, apperror.Validation("name must not be empty")
		}
		habit.Name = name
	}
	if update.Cadence != nil {
		if !validCadence(*update.Cadence) {
			return nil, apperror.Validation("cadence must be daily, weekly or custom")
		}
		habit.Cadence = *update.Cadence
	}
	if update.ReminderTimeLocal != nil {
		if !reminderTimeRe.MatchString(*update.ReminderTimeLocal) {
			return nil, apperror.Validation("reminder_time_local must be HH:MM")
		}
		habit.ReminderTimeLocal = update.ReminderTimeLocal
	}
	if update.IsActive != nil {
		habit.IsActive = *update.IsActive
	}

	if err := s.habitRepo.Update(ctx, habit); err != nil {
		return nil, err
	}
	return habit, nil
}

// Log upserts the log for one of the caller's habits on the given date.
// Logging the same date twice overwrites status and notes on the existing
// row; the row id and created_at are stable.
func (s *HabitService) Log(ctx context.Context, userID, habitID string, date models.Date, status models.HabitLogStatus, notes *string) (*models.HabitLog, error) {
	if status != models.StatusDone && status != models.StatusSkipped {
		return nil, apperror.Validation("status must be done or skipped")
	}
	if _, err := s.habitRepo.GetOwned(ctx, habitID, userID); err != nil {
		return nil, err
	}

	log := &models.HabitLog{
		ID:      uuid.New().String(),
		HabitID: habitID,
		Date:    date,
		Status:  status,
		Notes:   notes,
	}
	if err := s.habitRepo.UpsertLog(ctx, log); err != nil {
		return nil, err
	}
	return log, nil
}

// ListLogs returns the caller's habit logs, optionally filtered by habit and
// date range. Filtering by a habit the caller does not own is Forbidden.
func (s *HabitService) ListLogs(ctx context.Context, userID string, filter repository.LogFilter) ([]*models.HabitLogEntry, error) {
	if filter.HabitID != "" {
		if _, err := s.habitRepo.GetOwned(ctx, filter.HabitID, userID); err != nil {
			return nil, apperror.Forbidden("access denied to this habit")
		}
	}
	return s.habitRepo.ListLogs(ctx, userID, filter)
}

// PartnerLogs returns the partner's habit logs, gated on a habits grant from
// the partner to the caller. Being paired is not enough on its own.
func (s *HabitService) PartnerLogs(ctx context.Context, userID string, from, to *models.Date) ([]*models.HabitLogEntry, error) {
	partner, err := s.couples.GetPartner(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.access.CheckAccess(ctx, userID, partner.UserID, ResourceHabits); err != nil {
		return nil, err
	}
	return s.habitRepo.ListLogs(ctx, partner.UserID, repository.LogFilter{FromDate: from, ToDate: to})
}

// WeeklyHabitStats summarizes the last 7 days of habit logging
type WeeklyHabitStats struct {
	Period         string  `json:"period"`
	ActiveHabits   int     `json:"active_habits"`
	CompletedCount int     `json:"completed_count"`
	SkippedCount   int     `json:"skipped_count"`
	CompletionRate float64 `json:"completion_rate"`
	StreakDays     int     `json:"streak_days"`
}

// WeeklyStats computes the completion rate over the window [today-6, today].
// The rate is done_count / (active_habits * 7), as a percentage rounded to
// one decimal place, and 0 when the user has no active habits. Streaks are
// not implemented; streak_days is a constant placeholder.
func (s *HabitService) WeeklyStats(ctx context.Context, userID string) (*WeeklyHabitStats, error) {
	today := models.Today()
	counts, err := s.habitRepo.CountWeek(ctx, userID, today.AddDays(-6), today)
	if err != nil {
		return nil, err
	}

	var rate float64
	if possible := counts.ActiveHabits * 7; possible > 0 {
		rate = math.Round(float64(counts.DoneCount)/float64(possible)*1000) / 10
	}

	return &WeeklyHabitStats{
		Period:         "last_7_days",
		ActiveHabits:   counts.ActiveHabits,
		CompletedCount: counts.DoneCount,
		SkippedCount:   counts.SkippedCount,
		CompletionRate: rate,
		StreakDays:     0,
	}, nil
}

func validCadence(c models.HabitCadence) bool {
	switch c {
	case models.CadenceDaily, models.CadenceWeekly, models.CadenceCustom:
		return true
	}
	return false
}
