package handlers

import (
	"net/http"

	"couples-workout-backend/internal/apperror"
	"couples-workout-backend/internal/middleware"
	"couples-workout-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// UserHandler handles profile HTTP requests
type UserHandler struct {
	userService  *services.UserService
	mediaService *services.MediaService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService, mediaService *services.MediaService) *UserHandler {
	return &UserHandler{
		userService:  userService,
		mediaService: mediaService,
	}
}

// GetMe handles GET /api/users/me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	user, err := h.userService.GetProfile(ctx, userID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// UpdateMe handles PATCH /api/users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var update services.ProfileUpdate
	if err := decodeJSON(r, &update); err != nil {
		respondError(w, err)
		return
	}

	user, err := h.userService.UpdateProfile(ctx, userID, update)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// AvatarUploadRequest represents the request body for an avatar upload
type AvatarUploadRequest struct {
	ContentType string `json:"content_type"`
}

// UploadAvatar handles POST /api/users/me/avatar
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req AvatarUploadRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	upload, err := h.mediaService.PresignAvatarUpload(ctx, userID, req.ContentType)
	if err != nil {
		respondError(w, err)
		return
	}

	log.Info().Str("user_id", userID).Msg("Avatar upload URL issued")
	respondJSON(w, http.StatusOK, upload)
}

// PushTokenRequest represents the request body for device registration
type PushTokenRequest struct {
	PushToken string `json:"push_token"`
}

// UpdatePushToken handles PUT /api/users/me/push-token
func (h *UserHandler) UpdatePushToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req PushTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.PushToken == "" {
		respondError(w, apperror.Validation("push_token is required"))
		return
	}

	if err := h.userService.UpdatePushToken(ctx, userID, &req.PushToken); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
