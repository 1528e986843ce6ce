package services

import (
	"context"
	"testing"
	"time"

	"couples-workout-backend/internal/apperror"
	"couples-workout-backend/internal/models"
	"couples-workout-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHabitStore is an in-memory HabitStore for service tests
type fakeHabitStore struct {
	habits map[string]*models.Habit
	logs   map[string]*models.HabitLog // keyed by habit|date
}

func newFakeHabitStore() *fakeHabitStore {
	return &fakeHabitStore{
		habits: make(map[string]*models.Habit),
		logs:   make(map[string]*models.HabitLog),
	}
}

func (f *fakeHabitStore) Create(_ context.Context, habit *models.Habit) error {
	stored := *habit
	f.habits[habit.ID] = &stored
	return nil
}

func (f *fakeHabitStore) GetOwned(_ context.Context, id, userID string) (*models.Habit, error) {
	habit, ok := f.habits[id]
	if !ok || habit.UserID != userID {
		return nil, apperror.NotFound("habit not found")
	}
	copy := *habit
	return &copy, nil
}

func (f *fakeHabitStore) ListByUser(_ context.Context, userID string, activeOnly bool, today models.Date) ([]*models.HabitWithToday, error) {
	var out []*models.HabitWithToday
	for _, habit := range f.habits {
		if habit.UserID != userID || (activeOnly && !habit.IsActive) {
			continue
		}
		item := &models.HabitWithToday{Habit: *habit}
		if log, ok := f.logs[habit.ID+"|"+today.String()]; ok {
			status := log.Status
			item.TodayStatus = &status
		}
		out = append(out, item)
	}
	return out, nil
}

func (f *fakeHabitStore) Update(_ context.Context, habit *models.Habit) error {
	if _, ok := f.habits[habit.ID]; !ok {
		return apperror.NotFound("habit not found")
	}
	stored := *habit
	f.habits[habit.ID] = &stored
	return nil
}

func (f *fakeHabitStore) UpsertLog(_ context.Context, log *models.HabitLog) error {
	key := log.HabitID + "|" + log.Date.String()
	if existing, ok := f.logs[key]; ok {
		log.ID = existing.ID
		log.CreatedAt = existing.CreatedAt
	} else {
		log.CreatedAt = time.Now()
	}
	stored := *log
	f.logs[key] = &stored
	return nil
}

func (f *fakeHabitStore) ListLogs(_ context.Context, userID string, filter repository.LogFilter) ([]*models.HabitLogEntry, error) {
	var out []*models.HabitLogEntry
	for _, log := range f.logs {
		habit := f.habits[log.HabitID]
		if habit == nil || habit.UserID != userID {
			continue
		}
		if filter.HabitID != "" && log.HabitID != filter.HabitID {
			continue
		}
		if filter.FromDate != nil && log.Date.Before(filter.FromDate.Time) {
			continue
		}
		if filter.ToDate != nil && log.Date.After(filter.ToDate.Time) {
			continue
		}
		out = append(out, &models.HabitLogEntry{HabitLog: *log, HabitName: habit.Name})
	}
	return out, nil
}

func (f *fakeHabitStore) CountWeek(_ context.Context, userID string, from, to models.Date) (*repository.WeekCounts, error) {
	counts := &repository.WeekCounts{}
	for _, habit := range f.habits {
		if habit.UserID == userID && habit.IsActive {
			counts.ActiveHabits++
		}
	}
	for _, log := range f.logs {
		habit := f.habits[log.HabitID]
		if habit == nil || habit.UserID != userID || !habit.IsActive {
			continue
		}
		if log.Date.Before(from.Time) || log.Date.After(to.Time) {
			continue
		}
		switch log.Status {
		case models.StatusDone:
			counts.DoneCount++
		case models.StatusSkipped:
			counts.SkippedCount++
		}
	}
	return counts, nil
}

func newTestHabitEnv(t *testing.T) (*HabitService, *fakeHabitStore, *fakeCoupleStore, *ShareService, *fakeUserStore) {
	t.Helper()
	habits := newFakeHabitStore()
	couples := newFakeCoupleStore()
	users := newFakeUserStore()
	share := NewShareService(newFakeShareStore(), users)
	svc := NewHabitService(habits, NewCoupleService(couples), share)
	return svc, habits, couples, share, users
}

func TestCreateHabitValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _, _ := newTestHabitEnv(t)

	_, err := svc.Create(ctx, "user-1", "  ", models.CadenceDaily, nil)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.Create(ctx, "user-1", "Stretch", "hourly", nil)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	bad := "25:00"
	_, err = svc.Create(ctx, "user-1", "Stretch", models.CadenceDaily, &bad)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	good := "07:30"
	habit, err := svc.Create(ctx, "user-1", "Stretch", models.CadenceDaily, &good)
	require.NoError(t, err)
	assert.True(t, habit.IsActive)
}

func TestLogHabitUpsert(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _, _ := newTestHabitEnv(t)

	habit, err := svc.Create(ctx, "user-1", "Stretch", models.CadenceDaily, nil)
	require.NoError(t, err)
	date := models.Today()

	first, err := svc.Log(ctx, "user-1", habit.ID, date, models.StatusDone, nil)
	require.NoError(t, err)

	notes := "almost"
	second, err := svc.Log(ctx, "user-1", habit.ID, date, models.StatusSkipped, &notes)
	require.NoError(t, err)

	// Same calendar day keeps the original row
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Equal(t, models.StatusSkipped, second.Status)
}

func TestLogHabitValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _, _ := newTestHabitEnv(t)

	habit, err := svc.Create(ctx, "user-1", "Stretch", models.CadenceDaily, nil)
	require.NoError(t, err)

	_, err = svc.Log(ctx, "user-1", habit.ID, models.Today(), "partial", nil)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	// Logging someone else's habit is indistinguishable from a missing one
	_, err = svc.Log(ctx, "user-2", habit.ID, models.Today(), models.StatusDone, nil)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestListLogsForeignHabitFilter(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _, _ := newTestHabitEnv(t)

	habit, err := svc.Create(ctx, "user-1", "Stretch", models.CadenceDaily, nil)
	require.NoError(t, err)

	_, err = svc.ListLogs(ctx, "user-2", repository.LogFilter{HabitID: habit.ID})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestPartnerLogsRequireGrant(t *testing.T) {
	ctx := context.Background()
	svc, _, couples, share, users := newTestHabitEnv(t)

	owner := addUser(users, "owner@example.com", "Owner")
	partner := addUser(users, "partner@example.com", "Partner")

	coupleSvc := NewCoupleService(couples)
	couple, err := coupleSvc.Create(ctx, owner.ID)
	require.NoError(t, err)
	invite, err := coupleSvc.GenerateInvite(ctx, owner.ID, couple.ID)
	require.NoError(t, err)
	_, err = coupleSvc.AcceptInvite(ctx, partner.ID, couple.ID, invite.Code)
	require.NoError(t, err)

	// Paired but no grant: Forbidden
	_, err = svc.PartnerLogs(ctx, partner.ID, nil, nil)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = share.Grant(ctx, owner.ID, "partner@example.com", false, true)
	require.NoError(t, err)

	_, err = svc.PartnerLogs(ctx, partner.ID, nil, nil)
	assert.NoError(t, err)
}

func TestPartnerLogsUnpaired(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _, _ := newTestHabitEnv(t)

	_, err := svc.PartnerLogs(ctx, "lonely", nil, nil)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestWeeklyHabitStats(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _, _ := newTestHabitEnv(t)

	h1, err := svc.Create(ctx, "user-1", "Stretch", models.CadenceDaily, nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, "user-1", "Read", models.CadenceDaily, nil)
	require.NoError(t, err)

	today := models.Today()
	for i := 0; i < 5; i++ {
		_, err = svc.Log(ctx, "user-1", h1.ID, today.AddDays(-i), models.StatusDone, nil)
		require.NoError(t, err)
	}
	_, err = svc.Log(ctx, "user-1", h1.ID, today.AddDays(-5), models.StatusSkipped, nil)
	require.NoError(t, err)
	// Outside the 7-day window, must not count
	_, err = svc.Log(ctx, "user-1", h1.ID, today.AddDays(-10), models.StatusDone, nil)
	require.NoError(t, err)

	stats, err := svc.WeeklyStats(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.ActiveHabits)
	assert.Equal(t, 5, stats.CompletedCount)
	assert.Equal(t, 1, stats.SkippedCount)
	// 5 done / (2 habits * 7 days) = 35.7%
	assert.InDelta(t, 35.7, stats.CompletionRate, 0.01)
	assert.Equal(t, 0, stats.StreakDays)
}

func TestWeeklyHabitStatsNoHabits(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _, _ := newTestHabitEnv(t)

	stats, err := svc.WeeklyStats(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.ActiveHabits)
	assert.Zero(t, stats.CompletionRate)
}
