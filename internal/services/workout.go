package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"couples-workout-backend/internal/apperror"
	"couples-workout-backend/internal/models"

	"github.com/google/uuid"
)

// WorkoutStore is the persistence surface the workout service needs
type WorkoutStore interface {
	CreateTemplate(ctx context.Context, t *models.WorkoutTemplate) error
	ListTemplates(ctx context.Context, userID string, mineOnly bool) ([]*models.WorkoutTemplate, error)
	CreateSession(ctx context.Context, s *models.WorkoutSession) error
	ListSessions(ctx context.Context, userID string, from, to *models.Date) ([]*models.WorkoutSession, error)
	CompletedSince(ctx context.Context, userID string, since time.Time) ([]*models.WorkoutSession, error)
}

// MembershipFinder resolves the caller's couple membership, if any
type MembershipFinder interface {
	GetMembership(ctx context.Context, userID string) (*models.CoupleMember, error)
}

// WorkoutService handles workout template and session business logic
type WorkoutService struct {
	workoutRepo WorkoutStore
	couples     MembershipFinder
}

// NewWorkoutService creates a new workout service
func NewWorkoutService(workoutRepo WorkoutStore, couples MembershipFinder) *WorkoutService {
	return &WorkoutService{
		workoutRepo: workoutRepo,
		couples:     couples,
	}
}

// CreateTemplate creates a workout template owned by the user
func (s *WorkoutService) CreateTemplate(ctx context.Context, userID, name string, workoutType models.WorkoutType, exercises []models.ExerciseSpec) (*models.WorkoutTemplate, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.Validation("name is required")
	}
	if !validWorkoutType(workoutType) {
		return nil, apperror.Validation("type must be gym or home")
	}
	if len(exercises) == 0 {
		return nil, apperror.Validation("exercises must not be empty")
	}
	for _, e := range exercises {
		if strings.TrimSpace(e.Name) == "" {
			return nil, apperror.Validation("every exercise needs a name")
		}
	}

	now := time.Now()
	template := &models.WorkoutTemplate{
		ID:        uuid.New().String(),
		Owner:     models.UserOwner(userID),
		Name:      name,
		Type:      workoutType,
		Exercises: exercises,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.workoutRepo.CreateTemplate(ctx, template); err != nil {
		return nil, err
	}
	return template, nil
}

// ListTemplates returns the user's templates, plus the global system
// templates unless mineOnly is set
func (s *WorkoutService) ListTemplates(ctx context.Context, userID string, mineOnly bool) ([]*models.WorkoutTemplate, error) {
	return s.workoutRepo.ListTemplates(ctx, userID, mineOnly)
}

// SessionInput carries the fields of a session creation request
type SessionInput struct {
	Mode               models.WorkoutType    `json:"mode"`
	TemplateID         *string               `json:"template_id"`
	Notes              *string               `json:"notes"`
	ExercisesPerformed []models.ExerciseSpec `json:"exercises_performed"`
	StartTime          *time.Time            `json:"start_time"`
	EndTime            *time.Time            `json:"end_time"`
}

// CreateSession records a workout session. The caller's couple, when they
// have one, is snapshotted onto the session at creation time. Derived
// metrics are computed here once and never recomputed.
func (s *WorkoutService) CreateSession(ctx context.Context, userID string, input SessionInput) (*models.WorkoutSession, error) {
	if !validWorkoutType(input.Mode) {
		return nil, apperror.Validation("mode must be gym or home")
	}

	startTime := time.Now()
	if input.StartTime != nil {
		startTime = *input.StartTime
	}
	if input.EndTime != nil && input.EndTime.Before(startTime) {
		return nil, apperror.Validation("end_time must not precede start_time")
	}

	var coupleID *string
	membership, err := s.couples.GetMembership(ctx, userID)
	if err == nil {
		coupleID = &membership.CoupleID
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	session := &models.WorkoutSession{
		ID:                 uuid.New().String(),
		UserID:             userID,
		CoupleID:           coupleID,
		TemplateID:         input.TemplateID,
		Mode:               input.Mode,
		StartTime:          startTime,
		EndTime:            input.EndTime,
		Notes:              input.Notes,
		ExercisesPerformed: input.ExercisesPerformed,
		CreatedAt:          time.Now(),
	}
	if session.ExercisesPerformed == nil {
		session.ExercisesPerformed = []models.ExerciseSpec{}
	}

	if input.EndTime != nil && len(input.ExercisesPerformed) > 0 {
		session.Metrics = sessionMetrics(startTime, *input.EndTime, input.ExercisesPerformed)
	}

	if err := s.workoutRepo.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// ListSessions returns the user's sessions, optionally bounded by start date
func (s *WorkoutService) ListSessions(ctx context.Context, userID string, from, to *models.Date) ([]*models.WorkoutSession, error) {
	return s.workoutRepo.ListSessions(ctx, userID, from, to)
}

// WeeklyWorkoutStats summarizes the completed sessions of the last 7 days
type WeeklyWorkoutStats struct {
	Period             string  `json:"period"`
	TotalSessions      int     `json:"total_sessions"`
	GymSessions        int     `json:"gym_sessions"`
	HomeSessions       int     `json:"home_sessions"`
	TotalVolumeKg      float64 `json:"total_volume_kg"`
	TotalDurationMin   float64 `json:"total_duration_minutes"`
	AvgSessionDuration float64 `json:"avg_session_duration"`
}

// WeeklyStats aggregates the metrics bags of completed sessions started in
// the window [now-7d, now]. The bags are read as stored, never recomputed
// from exercises. The average duration is 0 when there are no sessions.
func (s *WorkoutService) WeeklyStats(ctx context.Context, userID string) (*WeeklyWorkoutStats, error) {
	sessions, err := s.workoutRepo.CompletedSince(ctx, userID, time.Now().AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}

	stats := &WeeklyWorkoutStats{Period: "last_7_days"}
	for _, session := range sessions {
		stats.TotalSessions++
		switch session.Mode {
		case models.WorkoutGym:
			stats.GymSessions++
		case models.WorkoutHome:
			stats.HomeSessions++
		}
		stats.TotalVolumeKg += session.Metrics["total_volume"]
		stats.TotalDurationMin += session.Metrics["duration_minutes"]
	}
	if stats.TotalSessions > 0 {
		stats.AvgSessionDuration = stats.TotalDurationMin / float64(stats.TotalSessions)
	}
	return stats, nil
}

// sessionMetrics derives the stored metrics bag: total volume is the sum of
// sets * reps * weight over all weighted exercises
func sessionMetrics(start, end time.Time, exercises []models.ExerciseSpec) map[string]float64 {
	var totalVolume float64
	for _, e := range exercises {
		if e.WeightKg != nil {
			totalVolume += float64(e.Sets) * float64(e.Reps) * *e.WeightKg
		}
	}
	return map[string]float64{
		"total_volume":     totalVolume,
		"duration_minutes": float64(int(end.Sub(start).Minutes())),
	}
}

func validWorkoutType(t models.WorkoutType) bool {
	return t == models.WorkoutGym || t == models.WorkoutHome
}
