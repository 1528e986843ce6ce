package services

import (
	"context"
	"errors"
	"strings"

	"couples-workout-backend/internal/apperror"
	"couples-workout-backend/internal/models"

	"github.com/google/uuid"
)

// ResourceKind selects which sharing flag an access check consults
type ResourceKind string

const (
	ResourceProgress ResourceKind = "progress"
	ResourceHabits   ResourceKind = "habits"
)

// ShareStore is the persistence surface the share service needs
type ShareStore interface {
	Upsert(ctx context.Context, perm *models.SharePermissions) error
	Get(ctx context.Context, ownerID, viewerID string) (*models.SharePermissions, error)
	ListOwned(ctx context.Context, ownerID string) ([]*models.ShareGrantInfo, error)
	ListReceived(ctx context.Context, viewerID string) ([]*models.ShareGrantInfo, error)
	DeleteOwned(ctx context.Context, id, ownerID string) error
}

// ShareService maintains the directed sharing grants and enforces them on
// partner read paths. Grants are independent of couple membership: pairing
// never implies sharing.
type ShareService struct {
	shareRepo ShareStore
	userRepo  UserStore
}

// NewShareService creates a new share service
func NewShareService(shareRepo ShareStore, userRepo UserStore) *ShareService {
	return &ShareService{
		shareRepo: shareRepo,
		userRepo:  userRepo,
	}
}

// GrantResult is a grant joined with the viewer's identity
type GrantResult struct {
	Permissions *models.SharePermissions `json:"permissions"`
	Viewer      *models.User             `json:"viewer"`
}

// Grant creates or overwrites the grant from the caller to the user with the
// given email. Both flags are written as provided; last write wins.
func (s *ShareService) Grant(ctx context.Context, ownerID, viewerEmail string, canViewProgress, canViewHabits bool) (*GrantResult, error) {
	viewerEmail = strings.ToLower(strings.TrimSpace(viewerEmail))
	if viewerEmail == "" {
		return nil, apperror.Validation("viewer_email is required")
	}

	viewer, err := s.userRepo.GetByEmail(ctx, viewerEmail)
	if err != nil {
		return nil, err
	}
	if viewer.ID == ownerID {
		return nil, apperror.Validation("cannot share with yourself")
	}

	perm := &models.SharePermissions{
		ID:              uuid.New().String(),
		OwnerUserID:     ownerID,
		ViewerUserID:    viewer.ID,
		CanViewProgress: canViewProgress,
		CanViewHabits:   canViewHabits,
	}
	if err := s.shareRepo.Upsert(ctx, perm); err != nil {
		return nil, err
	}
	return &GrantResult{Permissions: perm, Viewer: viewer}, nil
}

// PermissionsList holds both directions of a user's grants
type PermissionsList struct {
	SharingWithOthers   []*models.ShareGrantInfo `json:"sharing_with_others"`
	ReceivingFromOthers []*models.ShareGrantInfo `json:"receiving_from_others"`
}

// List returns the grants the user has issued and the grants issued to them
func (s *ShareService) List(ctx context.Context, userID string) (*PermissionsList, error) {
	owned, err := s.shareRepo.ListOwned(ctx, userID)
	if err != nil {
		return nil, err
	}
	received, err := s.shareRepo.ListReceived(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &PermissionsList{
		SharingWithOthers:   owned,
		ReceivingFromOthers: received,
	}, nil
}

// Revoke deletes a grant owned by the caller
func (s *ShareService) Revoke(ctx context.Context, ownerID, permissionID string) error {
	return s.shareRepo.DeleteOwned(ctx, permissionID, ownerID)
}

// Available returns the users whose data the caller may view
func (s *ShareService) Available(ctx context.Context, viewerID string) ([]*models.ShareGrantInfo, error) {
	return s.shareRepo.ListReceived(ctx, viewerID)
}

// CheckAccess fails with Forbidden unless a grant from owner to viewer exists
// with the flag for the requested resource kind set
func (s *ShareService) CheckAccess(ctx context.Context, viewerID, ownerID string, kind ResourceKind) error {
	perm, err := s.shareRepo.Get(ctx, ownerID, viewerID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.Forbidden("no permission to view this data")
		}
		return err
	}

	switch kind {
	case ResourceProgress:
		if !perm.CanViewProgress {
			return apperror.Forbidden("no permission to view progress")
		}
	case ResourceHabits:
		if !perm.CanViewHabits {
			return apperror.Forbidden("no permission to view habits")
		}
	default:
		return apperror.Validation("unknown resource kind")
	}
	return nil
}

// CanView reports whether a grant with the given flag exists, without
// surfacing an error. Used for best-effort notification fan-out.
func (s *ShareService) CanView(ctx context.Context, viewerID, ownerID string, kind ResourceKind) bool {
	return s.CheckAccess(ctx, viewerID, ownerID, kind) == nil
}
