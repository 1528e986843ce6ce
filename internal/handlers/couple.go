package handlers

import (
	"net/http"
	"strconv"

	"couples-workout-backend/internal/apperror"
	"couples-workout-backend/internal/middleware"
	"couples-workout-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// CoupleHandler handles couple pairing HTTP requests
type CoupleHandler struct {
	coupleService *services.CoupleService
	userService   *services.UserService
	wsHub         *services.WSHub
	push          *services.PushService
}

// NewCoupleHandler creates a new couple handler
func NewCoupleHandler(
	coupleService *services.CoupleService,
	userService *services.UserService,
	wsHub *services.WSHub,
	push *services.PushService,
) *CoupleHandler {
	return &CoupleHandler{
		coupleService: coupleService,
		userService:   userService,
		wsHub:         wsHub,
		push:          push,
	}
}

// Create handles POST /api/couples
func (h *CoupleHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	couple, err := h.coupleService.Create(ctx, userID)
	if err != nil {
		respondError(w, err)
		return
	}

	log.Info().Str("user_id", userID).Str("couple_id", couple.ID).Msg("Couple created")
	respondJSON(w, http.StatusCreated, couple)
}

// InviteResponse represents a freshly generated invite code
type InviteResponse struct {
	InviteCode string `json:"invite_code"`
	ExpiresAt  string `json:"expires_at"`
}

// GenerateInvite handles POST /api/couples/{couple_id}/invite
func (h *CoupleHandler) GenerateInvite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	coupleID := chi.URLParam(r, "couple_id")

	invite, err := h.coupleService.GenerateInvite(ctx, userID, coupleID)
	if err != nil {
		respondError(w, err)
		return
	}

	log.Info().Str("user_id", userID).Str("couple_id", coupleID).Msg("Invite code generated")
	respondJSON(w, http.StatusCreated, InviteResponse{
		InviteCode: invite.Code,
		ExpiresAt:  invite.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	})
}

// AcceptInvite handles POST /api/couples/{couple_id}/accept
func (h *CoupleHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	coupleID := chi.URLParam(r, "couple_id")
	code := r.URL.Query().Get("code")

	member, err := h.coupleService.AcceptInvite(ctx, userID, coupleID, code)
	if err != nil {
		respondError(w, err)
		return
	}

	log.Info().Str("user_id", userID).Str("couple_id", coupleID).Msg("Invite accepted")
	h.notifyOwner(r, userID, coupleID)

	respondJSON(w, http.StatusOK, member)
}

// notifyOwner tells the couple owner, over WS and push, that the partner
// joined. Best effort; failures only get logged.
func (h *CoupleHandler) notifyOwner(r *http.Request, newMemberID, coupleID string) {
	ctx := r.Context()

	owner, err := h.coupleService.GetPartner(ctx, newMemberID)
	if err != nil {
		log.Error().Err(err).Str("user_id", newMemberID).Msg("Failed to resolve couple owner")
		return
	}

	joined, err := h.userService.GetProfile(ctx, newMemberID)
	if err != nil {
		log.Error().Err(err).Str("user_id", newMemberID).Msg("Failed to load joined profile")
		return
	}

	h.wsHub.NotifyPartnerJoined(owner.UserID, newMemberID, joined.DisplayName, coupleID)

	ownerProfile, err := h.userService.GetProfile(ctx, owner.UserID)
	if err == nil && ownerProfile.PushToken != nil {
		go h.push.NotifyPartnerJoined(*ownerProfile.PushToken, joined.DisplayName)
	}
}

// ListMembers handles GET /api/couples/{couple_id}/members
func (h *CoupleHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	coupleID := chi.URLParam(r, "couple_id")

	members, err := h.coupleService.ListMembers(ctx, userID, coupleID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"members": members})
}

// UpdateSettings handles PATCH /api/couples/{couple_id}/settings
func (h *CoupleHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	coupleID := chi.URLParam(r, "couple_id")

	shareProgress, err := parseBoolParam(r, "share_progress_enabled")
	if err != nil {
		respondError(w, err)
		return
	}
	shareHabits, err := parseBoolParam(r, "share_habits_enabled")
	if err != nil {
		respondError(w, err)
		return
	}

	settings, err := h.coupleService.UpdateSettings(ctx, userID, coupleID, shareProgress, shareHabits)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, settings)
}

// parseBoolParam reads an optional boolean query parameter. Absent → nil.
func parseBoolParam(r *http.Request, name string) (*bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperror.Validation("%s must be a boolean", name)
	}
	return &value, nil
}
