package services

import (
	"context"
	"testing"
	"time"

	"couples-workout-backend/internal/apperror"
	"couples-workout-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProgressStore is an in-memory ProgressStore for service tests
type fakeProgressStore struct {
	snapshots map[string]*models.ProgressSnapshot // keyed by user|date
}

func newFakeProgressStore() *fakeProgressStore {
	return &fakeProgressStore{snapshots: make(map[string]*models.ProgressSnapshot)}
}

func (f *fakeProgressStore) Upsert(_ context.Context, snapshot *models.ProgressSnapshot) error {
	key := snapshot.UserID + "|" + snapshot.Date.String()
	if existing, ok := f.snapshots[key]; ok {
		snapshot.ID = existing.ID
		snapshot.CreatedAt = existing.CreatedAt
	} else {
		snapshot.CreatedAt = time.Now()
	}
	stored := *snapshot
	f.snapshots[key] = &stored
	return nil
}

func (f *fakeProgressStore) List(_ context.Context, userID string, from, to *models.Date) ([]*models.ProgressSnapshot, error) {
	var out []*models.ProgressSnapshot
	for _, snap := range f.snapshots {
		if snap.UserID != userID {
			continue
		}
		if from != nil && snap.Date.Before(from.Time) {
			continue
		}
		if to != nil && snap.Date.After(to.Time) {
			continue
		}
		out = append(out, snap)
	}
	return out, nil
}

func (f *fakeProgressStore) Latest(_ context.Context, userID string) (*models.ProgressSnapshot, error) {
	var latest *models.ProgressSnapshot
	for _, snap := range f.snapshots {
		if snap.UserID != userID {
			continue
		}
		if latest == nil || snap.Date.After(latest.Date.Time) {
			latest = snap
		}
	}
	if latest == nil {
		return nil, apperror.NotFound("snapshot not found")
	}
	return latest, nil
}

func (f *fakeProgressStore) LatestOnOrBefore(_ context.Context, userID string, date models.Date) (*models.ProgressSnapshot, error) {
	var latest *models.ProgressSnapshot
	for _, snap := range f.snapshots {
		if snap.UserID != userID || snap.Date.After(date.Time) {
			continue
		}
		if latest == nil || snap.Date.After(latest.Date.Time) {
			latest = snap
		}
	}
	if latest == nil {
		return nil, apperror.NotFound("snapshot not found")
	}
	return latest, nil
}

func newTestProgressEnv() (*ProgressService, *fakeProgressStore, *fakeCoupleStore, *ShareService, *fakeUserStore) {
	progress := newFakeProgressStore()
	couples := newFakeCoupleStore()
	users := newFakeUserStore()
	share := NewShareService(newFakeShareStore(), users)
	svc := NewProgressService(progress, NewCoupleService(couples), share, users)
	return svc, progress, couples, share, users
}

func TestUpsertSnapshotKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _, _ := newTestProgressEnv()
	date := models.Today()

	first, err := svc.Upsert(ctx, "user-1", date, map[string]float64{"weight_kg": 71.5})
	require.NoError(t, err)

	second, err := svc.Upsert(ctx, "user-1", date, map[string]float64{"weight_kg": 71.2})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 71.2, second.Metrics["weight_kg"])
}

func TestUpsertSnapshotEmptyMetrics(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _, _ := newTestProgressEnv()

	_, err := svc.Upsert(ctx, "user-1", models.Today(), nil)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestPartnerProgressRequiresGrant(t *testing.T) {
	ctx := context.Background()
	svc, _, couples, share, users := newTestProgressEnv()

	owner := addUser(users, "owner@example.com", "Owner")
	partner := addUser(users, "partner@example.com", "Partner")

	coupleSvc := NewCoupleService(couples)
	couple, err := coupleSvc.Create(ctx, owner.ID)
	require.NoError(t, err)
	invite, err := coupleSvc.GenerateInvite(ctx, owner.ID, couple.ID)
	require.NoError(t, err)
	_, err = coupleSvc.AcceptInvite(ctx, partner.ID, couple.ID, invite.Code)
	require.NoError(t, err)

	_, err = svc.Upsert(ctx, owner.ID, models.Today(), map[string]float64{"weight_kg": 80})
	require.NoError(t, err)

	_, err = svc.Partner(ctx, partner.ID, nil, nil)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	// A habits-only grant does not open progress
	_, err = share.Grant(ctx, owner.ID, "partner@example.com", false, true)
	require.NoError(t, err)
	_, err = svc.Partner(ctx, partner.ID, nil, nil)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = share.Grant(ctx, owner.ID, "partner@example.com", true, true)
	require.NoError(t, err)

	result, err := svc.Partner(ctx, partner.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Owner", result.PartnerName)
	assert.Len(t, result.Progress, 1)
}

func TestPartnerProgressUnpaired(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _, _ := newTestProgressEnv()

	_, err := svc.Partner(ctx, "lonely", nil, nil)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestSummaryDeltas(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _, _ := newTestProgressEnv()
	today := models.Today()

	_, err := svc.Upsert(ctx, "user-1", today.AddDays(-40), map[string]float64{
		"weight_kg": 75.0,
		"chest_cm":  101.0,
	})
	require.NoError(t, err)
	_, err = svc.Upsert(ctx, "user-1", today, map[string]float64{
		"weight_kg": 72.5,
		"waist_cm":  84.0,
	})
	require.NoError(t, err)

	summary, err := svc.Summary(ctx, "user-1")
	require.NoError(t, err)
	assert.InDelta(t, -2.5, summary.Changes["weight_kg"], 0.001)
	// Keys present in only one snapshot carry no delta
	assert.NotContains(t, summary.Changes, "waist_cm")
	assert.NotContains(t, summary.Changes, "chest_cm")
	require.NotNil(t, summary.CurrentDate)
	assert.Equal(t, today.String(), summary.CurrentDate.String())
}

func TestSummaryNoData(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _, _ := newTestProgressEnv()

	summary, err := svc.Summary(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, summary.Current)
	assert.Empty(t, summary.Changes)
	assert.Nil(t, summary.CurrentDate)
}

func TestSummaryNoBaseline(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _, _ := newTestProgressEnv()

	_, err := svc.Upsert(ctx, "user-1", models.Today(), map[string]float64{"weight_kg": 72.5})
	require.NoError(t, err)

	summary, err := svc.Summary(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 72.5, summary.Current["weight_kg"])
	assert.Empty(t, summary.Previous)
	assert.Empty(t, summary.Changes)
}
