package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"couples-workout-backend/internal/apperror"
	"couples-workout-backend/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the persistence surface the user service needs
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	UpdateAvatarURL(ctx context.Context, userID, avatarURL string) error
	UpdatePushToken(ctx context.Context, userID string, pushToken *string) error
}

// UserService handles registration, login, token refresh and profile updates
type UserService struct {
	userRepo   UserStore
	tokens     *TokenService
	bcryptCost int
}

// NewUserService creates a new user service
func NewUserService(userRepo UserStore, tokens *TokenService) *UserService {
	return &UserService{
		userRepo:   userRepo,
		tokens:     tokens,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// NewUserServiceWithCost creates a user service with a custom bcrypt cost.
// Tests use the minimum cost to avoid the hashing overhead.
func NewUserServiceWithCost(userRepo UserStore, tokens *TokenService, cost int) *UserService {
	return &UserService{
		userRepo:   userRepo,
		tokens:     tokens,
		bcryptCost: cost,
	}
}

// TokenPair bundles the two tokens returned by auth operations
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Register creates a new account and returns a token pair
func (s *UserService) Register(ctx context.Context, email, password, displayName string) (*TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	displayName = strings.TrimSpace(displayName)

	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperror.Validation("invalid email address")
	}
	if len(password) < 8 {
		return nil, apperror.Validation("password must be at least 8 characters")
	}
	if len(password) > 72 {
		// bcrypt silently truncates longer inputs
		return nil, apperror.Validation("password must be 72 characters or fewer")
	}
	if displayName == "" {
		return nil, apperror.Validation("display_name is required")
	}

	exists, err := s.userRepo.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperror.Conflict("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, apperror.Validation("failed to hash password")
	}
	hashStr := string(hash)

	now := time.Now()
	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: &hashStr,
		DisplayName:  displayName,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.issueTokens(user.ID)
}

// Login verifies credentials and returns a token pair
func (s *UserService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("incorrect email or password")
		}
		return nil, err
	}
	if user.PasswordHash == nil {
		return nil, apperror.Unauthorized("incorrect email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		return nil, apperror.Unauthorized("incorrect email or password")
	}
	if !user.IsActive {
		return nil, apperror.Unauthorized("account is inactive")
	}

	return s.issueTokens(user.ID)
}

// Refresh exchanges a refresh token for a fresh access token. The refresh
// token itself is returned unchanged; there is no server-side revocation.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	userID, tokenType, err := s.tokens.Validate(refreshToken)
	if err != nil {
		return nil, err
	}
	if tokenType != TokenTypeRefresh {
		return nil, apperror.Unauthorized("not a refresh token")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid user")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperror.Unauthorized("account is inactive")
	}

	access, err := s.tokens.GenerateAccess(user.ID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
	}, nil
}

// GetProfile retrieves a user's profile
func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// ProfileUpdate carries the optional profile fields of a PATCH request
type ProfileUpdate struct {
	DisplayName *string `json:"display_name"`
	BirthYear   *int    `json:"birth_year"`
	HeightCm    *int    `json:"height_cm"`
	WeightKg    *int    `json:"weight_kg"`
}

// UpdateProfile applies a partial profile update and returns the result
func (s *UserService) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.DisplayName != nil {
		name := strings.TrimSpace(*update.DisplayName)
		if name == "" {
			return nil, apperror.Validation("display_name must not be empty")
		}
		user.DisplayName = name
	}
	if update.BirthYear != nil {
		user.BirthYear = update.BirthYear
	}
	if update.HeightCm != nil {
		user.HeightCm = update.HeightCm
	}
	if update.WeightKg != nil {
		user.WeightKg = update.WeightKg
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdatePushToken registers or clears the user's APNs device token
func (s *UserService) UpdatePushToken(ctx context.Context, userID string, pushToken *string) error {
	return s.userRepo.UpdatePushToken(ctx, userID, pushToken)
}

func (s *UserService) issueTokens(userID string) (*TokenPair, error) {
	access, err := s.tokens.GenerateAccess(userID)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.GenerateRefresh(userID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	}, nil
}
