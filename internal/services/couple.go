package services

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"time"

	"couples-workout-backend/internal/apperror"
	"couples-workout-backend/internal/models"

	"github.com/google/uuid"
)

const (
	inviteCodeLength = 8
	inviteCodeChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	inviteTTL        = 24 * time.Hour
)

// CoupleStore is the persistence surface the couple service needs
type CoupleStore interface {
	CreateWithOwner(ctx context.Context, userID string) (*models.Couple, error)
	GetByID(ctx context.Context, id string) (*models.Couple, error)
	GetMembership(ctx context.Context, userID string) (*models.CoupleMember, error)
	GetMembershipInCouple(ctx context.Context, userID, coupleID string) (*models.CoupleMember, error)
	GetPartner(ctx context.Context, userID string) (*models.CoupleMember, error)
	ListMembers(ctx context.Context, coupleID string) ([]*models.MemberProfile, error)
	CreateInvite(ctx context.Context, invite *models.CoupleInvite) error
	AcceptInvite(ctx context.Context, coupleID, userID, code string) (*models.CoupleMember, error)
	GetSettings(ctx context.Context, coupleID string) (*models.CoupleSettings, error)
	UpdateSettings(ctx context.Context, coupleID string, shareProgress, shareHabits *bool) (*models.CoupleSettings, error)
}

// CoupleService handles pairing business logic
type CoupleService struct {
	coupleRepo CoupleStore
}

// NewCoupleService creates a new couple service
func NewCoupleService(coupleRepo CoupleStore) *CoupleService {
	return &CoupleService{coupleRepo: coupleRepo}
}

// Create creates a couple with the caller as owner. A user can belong to at
// most one couple at a time.
func (s *CoupleService) Create(ctx context.Context, userID string) (*models.Couple, error) {
	if err := s.requireUnpaired(ctx, userID); err != nil {
		return nil, err
	}
	return s.coupleRepo.CreateWithOwner(ctx, userID)
}

// GenerateInvite creates a single-use invite code for the couple. Only the
// owner member may generate invites. The code is persisted with an expiry
// and validated server-side when the partner accepts.
func (s *CoupleService) GenerateInvite(ctx context.Context, userID, coupleID string) (*models.CoupleInvite, error) {
	membership, err := s.coupleRepo.GetMembershipInCouple(ctx, userID, coupleID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Forbidden("only couple owners can generate invite codes")
		}
		return nil, err
	}
	if membership.Role != models.RoleOwner {
		return nil, apperror.Forbidden("only couple owners can generate invite codes")
	}

	invite := &models.CoupleInvite{
		ID:        uuid.New().String(),
		CoupleID:  coupleID,
		Code:      generateInviteCode(),
		CreatedBy: userID,
		ExpiresAt: time.Now().Add(inviteTTL),
		CreatedAt: time.Now(),
	}
	if err := s.coupleRepo.CreateInvite(ctx, invite); err != nil {
		return nil, err
	}
	return invite, nil
}

// AcceptInvite joins the caller to the couple using an invite code
func (s *CoupleService) AcceptInvite(ctx context.Context, userID, coupleID, code string) (*models.CoupleMember, error) {
	if len(code) != inviteCodeLength {
		return nil, apperror.Validation("invalid invite code")
	}
	if err := s.requireUnpaired(ctx, userID); err != nil {
		return nil, err
	}
	return s.coupleRepo.AcceptInvite(ctx, coupleID, userID, code)
}

// ListMembers returns the members of the caller's couple with profile fields
func (s *CoupleService) ListMembers(ctx context.Context, userID, coupleID string) ([]*models.MemberProfile, error) {
	if _, err := s.coupleRepo.GetMembershipInCouple(ctx, userID, coupleID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Forbidden("not a member of this couple")
		}
		return nil, err
	}
	return s.coupleRepo.ListMembers(ctx, coupleID)
}

// UpdateSettings applies a partial update to the sharing toggles. Nil flags
// are left untouched.
func (s *CoupleService) UpdateSettings(ctx context.Context, userID, coupleID string, shareProgress, shareHabits *bool) (*models.CoupleSettings, error) {
	if _, err := s.coupleRepo.GetMembershipInCouple(ctx, userID, coupleID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Forbidden("not a member of this couple")
		}
		return nil, err
	}
	return s.coupleRepo.UpdateSettings(ctx, coupleID, shareProgress, shareHabits)
}

// GetPartner returns the other member of the caller's couple
func (s *CoupleService) GetPartner(ctx context.Context, userID string) (*models.CoupleMember, error) {
	return s.coupleRepo.GetPartner(ctx, userID)
}

// GetMembership returns the caller's couple membership, if any
func (s *CoupleService) GetMembership(ctx context.Context, userID string) (*models.CoupleMember, error) {
	return s.coupleRepo.GetMembership(ctx, userID)
}

func (s *CoupleService) requireUnpaired(ctx context.Context, userID string) error {
	_, err := s.coupleRepo.GetMembership(ctx, userID)
	if err == nil {
		return apperror.Conflict("user is already part of a couple")
	}
	if errors.Is(err, apperror.ErrNotFound) {
		return nil
	}
	return err
}

// generateInviteCode draws 8 characters from uppercase letters and digits
// using a cryptographically unpredictable source
func generateInviteCode() string {
	code := make([]byte, inviteCodeLength)
	for i := range code {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(inviteCodeChars))))
		code[i] = inviteCodeChars[n.Int64()]
	}
	return string(code)
}
