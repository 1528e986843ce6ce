package services

import (
	"context"
	"testing"
	"time"

	"couples-workout-backend/internal/apperror"
	"couples-workout-backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeShareStore is an in-memory ShareStore for service tests
type fakeShareStore struct {
	grants map[string]*models.SharePermissions // keyed by owner|viewer
}

func newFakeShareStore() *fakeShareStore {
	return &fakeShareStore{grants: make(map[string]*models.SharePermissions)}
}

func (f *fakeShareStore) key(ownerID, viewerID string) string {
	return ownerID + "|" + viewerID
}

func (f *fakeShareStore) Upsert(_ context.Context, perm *models.SharePermissions) error {
	key := f.key(perm.OwnerUserID, perm.ViewerUserID)
	if existing, ok := f.grants[key]; ok {
		// Natural key wins over the fresh id, as the DB upsert does
		perm.ID = existing.ID
		perm.CreatedAt = existing.CreatedAt
	} else {
		perm.CreatedAt = time.Now()
	}
	perm.UpdatedAt = time.Now()
	stored := *perm
	f.grants[key] = &stored
	return nil
}

func (f *fakeShareStore) Get(_ context.Context, ownerID, viewerID string) (*models.SharePermissions, error) {
	perm, ok := f.grants[f.key(ownerID, viewerID)]
	if !ok {
		return nil, apperror.NotFound("permissions not found")
	}
	return perm, nil
}

func (f *fakeShareStore) ListOwned(_ context.Context, ownerID string) ([]*models.ShareGrantInfo, error) {
	var out []*models.ShareGrantInfo
	for _, perm := range f.grants {
		if perm.OwnerUserID == ownerID {
			out = append(out, &models.ShareGrantInfo{
				ID:              perm.ID,
				UserID:          perm.ViewerUserID,
				CanViewProgress: perm.CanViewProgress,
				CanViewHabits:   perm.CanViewHabits,
			})
		}
	}
	return out, nil
}

func (f *fakeShareStore) ListReceived(_ context.Context, viewerID string) ([]*models.ShareGrantInfo, error) {
	var out []*models.ShareGrantInfo
	for _, perm := range f.grants {
		if perm.ViewerUserID == viewerID {
			out = append(out, &models.ShareGrantInfo{
				ID:              perm.ID,
				UserID:          perm.OwnerUserID,
				CanViewProgress: perm.CanViewProgress,
				CanViewHabits:   perm.CanViewHabits,
			})
		}
	}
	return out, nil
}

func (f *fakeShareStore) DeleteOwned(_ context.Context, id, ownerID string) error {
	for key, perm := range f.grants {
		if perm.ID == id && perm.OwnerUserID == ownerID {
			delete(f.grants, key)
			return nil
		}
	}
	return apperror.NotFound("permissions not found")
}

func addUser(store *fakeUserStore, email, name string) *models.User {
	user := &models.User{
		ID:          uuid.New().String(),
		Email:       email,
		DisplayName: name,
		IsActive:    true,
	}
	store.users[user.ID] = user
	return user
}

func TestGrantAndCheckAccess(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserStore()
	owner := addUser(users, "owner@example.com", "Owner")
	viewer := addUser(users, "viewer@example.com", "Viewer")
	svc := NewShareService(newFakeShareStore(), users)

	result, err := svc.Grant(ctx, owner.ID, "viewer@example.com", true, false)
	require.NoError(t, err)
	assert.Equal(t, viewer.ID, result.Viewer.ID)
	assert.True(t, result.Permissions.CanViewProgress)

	assert.NoError(t, svc.CheckAccess(ctx, viewer.ID, owner.ID, ResourceProgress))
	assert.ErrorIs(t, svc.CheckAccess(ctx, viewer.ID, owner.ID, ResourceHabits), apperror.ErrForbidden)

	// Grants are directed: the owner cannot read the viewer's data
	assert.ErrorIs(t, svc.CheckAccess(ctx, owner.ID, viewer.ID, ResourceProgress), apperror.ErrForbidden)
}

func TestGrantOverwritesInPlace(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserStore()
	owner := addUser(users, "owner@example.com", "Owner")
	addUser(users, "viewer@example.com", "Viewer")
	svc := NewShareService(newFakeShareStore(), users)

	first, err := svc.Grant(ctx, owner.ID, "viewer@example.com", true, true)
	require.NoError(t, err)

	second, err := svc.Grant(ctx, owner.ID, "viewer@example.com", false, true)
	require.NoError(t, err)
	assert.Equal(t, first.Permissions.ID, second.Permissions.ID)
	assert.False(t, second.Permissions.CanViewProgress)

	perms, err := svc.List(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, perms.SharingWithOthers, 1)
}

func TestGrantSelfShare(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserStore()
	owner := addUser(users, "owner@example.com", "Owner")
	svc := NewShareService(newFakeShareStore(), users)

	_, err := svc.Grant(ctx, owner.ID, "owner@example.com", true, true)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestGrantUnknownEmail(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserStore()
	owner := addUser(users, "owner@example.com", "Owner")
	svc := NewShareService(newFakeShareStore(), users)

	_, err := svc.Grant(ctx, owner.ID, "nobody@example.com", true, true)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestRevokeOwnedOnly(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserStore()
	owner := addUser(users, "owner@example.com", "Owner")
	viewer := addUser(users, "viewer@example.com", "Viewer")
	svc := NewShareService(newFakeShareStore(), users)

	result, err := svc.Grant(ctx, owner.ID, "viewer@example.com", true, true)
	require.NoError(t, err)

	// The viewer cannot revoke a grant they received
	err = svc.Revoke(ctx, viewer.ID, result.Permissions.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	require.NoError(t, svc.Revoke(ctx, owner.ID, result.Permissions.ID))
	assert.ErrorIs(t, svc.CheckAccess(ctx, viewer.ID, owner.ID, ResourceProgress), apperror.ErrForbidden)
}

func TestAvailableListsGrantingOwners(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserStore()
	owner := addUser(users, "owner@example.com", "Owner")
	viewer := addUser(users, "viewer@example.com", "Viewer")
	svc := NewShareService(newFakeShareStore(), users)

	_, err := svc.Grant(ctx, owner.ID, "viewer@example.com", true, false)
	require.NoError(t, err)

	available, err := svc.Available(ctx, viewer.ID)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, owner.ID, available[0].UserID)
}
