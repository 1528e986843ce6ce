package handlers

import (
	"net/http"

	"couples-workout-backend/internal/middleware"
	"couples-workout-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// ShareHandler handles share permission HTTP requests
type ShareHandler struct {
	shareService *services.ShareService
}

// NewShareHandler creates a new share handler
func NewShareHandler(shareService *services.ShareService) *ShareHandler {
	return &ShareHandler{
		shareService: shareService,
	}
}

// GrantRequest represents the request body for granting permissions
type GrantRequest struct {
	ViewerEmail     string `json:"viewer_email"`
	CanViewProgress bool   `json:"can_view_progress"`
	CanViewHabits   bool   `json:"can_view_habits"`
}

// Grant handles POST /api/share/permissions. Repeating a grant for the same
// viewer overwrites the flags in place.
func (h *ShareHandler) Grant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req GrantRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	result, err := h.shareService.Grant(ctx, userID, req.ViewerEmail, req.CanViewProgress, req.CanViewHabits)
	if err != nil {
		respondError(w, err)
		return
	}

	log.Info().
		Str("owner_id", userID).
		Str("viewer_id", result.Viewer.ID).
		Msg("Share permissions granted")

	respondJSON(w, http.StatusOK, result)
}

// List handles GET /api/share/permissions
func (h *ShareHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	perms, err := h.shareService.List(ctx, userID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, perms)
}

// Revoke handles DELETE /api/share/permissions/{permission_id}
func (h *ShareHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	permissionID := chi.URLParam(r, "permission_id")

	if err := h.shareService.Revoke(ctx, userID, permissionID); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}

// Available handles GET /api/share/available
func (h *ShareHandler) Available(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	grants, err := h.shareService.Available(ctx, userID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"available": grants})
}
