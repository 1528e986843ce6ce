package services

import (
	"context"
	"testing"
	"time"

	"couples-workout-backend/internal/apperror"
	"couples-workout-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// fakeUserStore is an in-memory UserStore for service tests
type fakeUserStore struct {
	users map[string]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*models.User)}
}

func (f *fakeUserStore) Create(_ context.Context, user *models.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user not found")
	}
	copy := *user
	return &copy, nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			copy := *user
			return &copy, nil
		}
	}
	return nil, apperror.NotFound("user not found")
}

func (f *fakeUserStore) EmailExists(_ context.Context, email string) (bool, error) {
	_, err := f.GetByEmail(context.Background(), email)
	return err == nil, nil
}

func (f *fakeUserStore) UpdateProfile(_ context.Context, user *models.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return apperror.NotFound("user not found")
	}
	copy := *user
	f.users[user.ID] = &copy
	return nil
}

func (f *fakeUserStore) UpdateAvatarURL(_ context.Context, userID, avatarURL string) error {
	user, ok := f.users[userID]
	if !ok {
		return apperror.NotFound("user not found")
	}
	user.AvatarURL = &avatarURL
	return nil
}

func (f *fakeUserStore) UpdatePushToken(_ context.Context, userID string, pushToken *string) error {
	user, ok := f.users[userID]
	if !ok {
		return apperror.NotFound("user not found")
	}
	user.PushToken = pushToken
	return nil
}

func newTestUserService(store *fakeUserStore) *UserService {
	tokens := NewTokenService("test-secret", 30*time.Minute, 30*24*time.Hour)
	return NewUserServiceWithCost(store, tokens, bcrypt.MinCost)
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	store := newFakeUserStore()
	svc := newTestUserService(store)

	pair, err := svc.Register(ctx, "Anna@Example.com", "password123", "Anna")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "bearer", pair.TokenType)

	// Email is normalized to lowercase
	_, err = store.GetByEmail(ctx, "anna@example.com")
	require.NoError(t, err)

	pair, err = svc.Login(ctx, "anna@example.com", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestUserService(newFakeUserStore())

	_, err := svc.Register(ctx, "not-an-email", "password123", "Anna")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.Register(ctx, "anna@example.com", "short", "Anna")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.Register(ctx, "anna@example.com", "password123", "  ")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := newTestUserService(newFakeUserStore())

	_, err := svc.Register(ctx, "anna@example.com", "password123", "Anna")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "anna@example.com", "password456", "Other")
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestLoginBadCredentials(t *testing.T) {
	ctx := context.Background()
	svc := newTestUserService(newFakeUserStore())

	_, err := svc.Register(ctx, "anna@example.com", "password123", "Anna")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "anna@example.com", "wrong-password")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = svc.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestLoginInactiveAccount(t *testing.T) {
	ctx := context.Background()
	store := newFakeUserStore()
	svc := newTestUserService(store)

	_, err := svc.Register(ctx, "anna@example.com", "password123", "Anna")
	require.NoError(t, err)
	for _, user := range store.users {
		user.IsActive = false
	}

	_, err = svc.Login(ctx, "anna@example.com", "password123")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestRefreshReturnsSameRefreshToken(t *testing.T) {
	ctx := context.Background()
	svc := newTestUserService(newFakeUserStore())

	pair, err := svc.Register(ctx, "anna@example.com", "password123", "Anna")
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, pair.RefreshToken, refreshed.RefreshToken)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	ctx := context.Background()
	svc := newTestUserService(newFakeUserStore())

	pair, err := svc.Register(ctx, "anna@example.com", "password123", "Anna")
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestUpdateProfilePartial(t *testing.T) {
	ctx := context.Background()
	store := newFakeUserStore()
	svc := newTestUserService(store)

	_, err := svc.Register(ctx, "anna@example.com", "password123", "Anna")
	require.NoError(t, err)
	user, err := store.GetByEmail(ctx, "anna@example.com")
	require.NoError(t, err)

	height := 172
	updated, err := svc.UpdateProfile(ctx, user.ID, ProfileUpdate{HeightCm: &height})
	require.NoError(t, err)
	assert.Equal(t, "Anna", updated.DisplayName)
	require.NotNil(t, updated.HeightCm)
	assert.Equal(t, 172, *updated.HeightCm)

	empty := "  "
	_, err = svc.UpdateProfile(ctx, user.ID, ProfileUpdate{DisplayName: &empty})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}
