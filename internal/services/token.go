package services

import (
	"errors"
	"fmt"
	"time"

	"couples-workout-backend/internal/apperror"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "couples-workout"

// Token types carried in the custom "type" claim. Refresh tokens are not
// accepted on regular API calls and access tokens are not accepted on the
// refresh endpoint.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenService issues and validates the HS256 access and refresh tokens
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenService creates a new token service
func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

type tokenClaims struct {
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// GenerateAccess issues a short-lived access token for a user
func (s *TokenService) GenerateAccess(userID string) (string, error) {
	return s.generate(userID, TokenTypeAccess, s.accessTTL)
}

// GenerateRefresh issues a long-lived refresh token for a user
func (s *TokenService) GenerateRefresh(userID string) (string, error) {
	return s.generate(userID, TokenTypeRefresh, s.refreshTTL)
}

func (s *TokenService) generate(userID, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate parses a token and returns the subject user ID and the token type
func (s *TokenService) Validate(tokenString string) (userID, tokenType string, err error) {
	token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", "", apperror.Unauthorized("token expired")
		}
		return "", "", apperror.Unauthorized("invalid token")
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return "", "", apperror.Unauthorized("invalid token claims")
	}
	if claims.Subject == "" {
		return "", "", apperror.Unauthorized("token has no subject")
	}
	return claims.Subject, claims.TokenType, nil
}

// ValidateAccess parses a token and rejects anything that is not a valid
// access token
func (s *TokenService) ValidateAccess(tokenString string) (string, error) {
	userID, tokenType, err := s.Validate(tokenString)
	if err != nil {
		return "", err
	}
	if tokenType != TokenTypeAccess {
		return "", apperror.Unauthorized("not an access token")
	}
	return userID, nil
}
