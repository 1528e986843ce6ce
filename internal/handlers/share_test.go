package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"couples-workout-backend/internal/apperror"
	"couples-workout-backend/internal/middleware"
	"couples-workout-backend/internal/models"
	"couples-workout-backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubUserStore serves the two fixed users the grant tests need
type stubUserStore struct {
	owner  *models.User
	viewer *models.User
}

func (s *stubUserStore) Create(context.Context, *models.User) error { return nil }

func (s *stubUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	for _, u := range []*models.User{s.owner, s.viewer} {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, apperror.NotFound("user not found")
}

func (s *stubUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range []*models.User{s.owner, s.viewer} {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperror.NotFound("user not found")
}

func (s *stubUserStore) EmailExists(context.Context, string) (bool, error) { return true, nil }

func (s *stubUserStore) UpdateProfile(context.Context, *models.User) error { return nil }

func (s *stubUserStore) UpdateAvatarURL(context.Context, string, string) error { return nil }

func (s *stubUserStore) UpdatePushToken(context.Context, string, *string) error { return nil }

// stubShareStore records the last upserted grant
type stubShareStore struct {
	last *models.SharePermissions
}

func (s *stubShareStore) Upsert(_ context.Context, perm *models.SharePermissions) error {
	s.last = perm
	return nil
}

func (s *stubShareStore) Get(context.Context, string, string) (*models.SharePermissions, error) {
	return nil, apperror.NotFound("permissions not found")
}

func (s *stubShareStore) ListOwned(context.Context, string) ([]*models.ShareGrantInfo, error) {
	return nil, nil
}

func (s *stubShareStore) ListReceived(context.Context, string) ([]*models.ShareGrantInfo, error) {
	return nil, nil
}

func (s *stubShareStore) DeleteOwned(context.Context, string, string) error { return nil }

func TestGrantHandler(t *testing.T) {
	users := &stubUserStore{
		owner:  &models.User{ID: "owner-1", Email: "owner@example.com", DisplayName: "Owner", IsActive: true},
		viewer: &models.User{ID: "viewer-1", Email: "viewer@example.com", DisplayName: "Viewer", IsActive: true},
	}
	store := &stubShareStore{}
	handler := NewShareHandler(services.NewShareService(store, users))

	body := `{"viewer_email":"viewer@example.com","can_view_progress":true,"can_view_habits":false}`
	req := httptest.NewRequest(http.MethodPost, "/api/share/permissions", strings.NewReader(body))
	req = req.WithContext(middleware.WithUserID(req.Context(), "owner-1"))
	rec := httptest.NewRecorder()

	handler.Grant(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"viewer_user_id":"viewer-1"`)
	require.NotNil(t, store.last)
	assert.Equal(t, "owner-1", store.last.OwnerUserID)
	assert.Equal(t, "viewer-1", store.last.ViewerUserID)
	assert.True(t, store.last.CanViewProgress)
	assert.False(t, store.last.CanViewHabits)
}

func TestGrantHandlerUnknownEmail(t *testing.T) {
	users := &stubUserStore{
		owner:  &models.User{ID: "owner-1", Email: "owner@example.com", IsActive: true},
		viewer: &models.User{ID: "viewer-1", Email: "viewer@example.com", IsActive: true},
	}
	handler := NewShareHandler(services.NewShareService(&stubShareStore{}, users))

	body := `{"viewer_email":"nobody@example.com","can_view_progress":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/share/permissions", strings.NewReader(body))
	req = req.WithContext(middleware.WithUserID(req.Context(), "owner-1"))
	rec := httptest.NewRecorder()

	handler.Grant(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
