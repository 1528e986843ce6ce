package handlers

import (
	"net/http"

	"couples-workout-backend/internal/apperror"
	"couples-workout-backend/internal/middleware"
	"couples-workout-backend/internal/models"
	"couples-workout-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// ProgressHandler handles progress snapshot HTTP requests
type ProgressHandler struct {
	progressService *services.ProgressService
	shareService    *services.ShareService
	userService     *services.UserService
	wsHub           *services.WSHub
	push            *services.PushService
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(
	progressService *services.ProgressService,
	shareService *services.ShareService,
	userService *services.UserService,
	wsHub *services.WSHub,
	push *services.PushService,
) *ProgressHandler {
	return &ProgressHandler{
		progressService: progressService,
		shareService:    shareService,
		userService:     userService,
		wsHub:           wsHub,
		push:            push,
	}
}

// SnapshotRequest represents the request body for recording a snapshot
type SnapshotRequest struct {
	Date    models.Date        `json:"date"`
	Metrics map[string]float64 `json:"metrics"`
}

// Upsert handles POST /api/progress/snapshots. One snapshot per day; posting
// the same date again replaces the metrics.
func (h *ProgressHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req SnapshotRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.Date.IsZero() {
		respondError(w, apperror.Validation("date is required"))
		return
	}

	snapshot, err := h.progressService.Upsert(ctx, userID, req.Date, req.Metrics)
	if err != nil {
		respondError(w, err)
		return
	}

	h.notifyViewers(r, userID, snapshot.Date.String())
	respondJSON(w, http.StatusOK, snapshot)
}

// notifyViewers tells everyone holding a progress grant from the owner that
// a snapshot was posted. Best effort.
func (h *ProgressHandler) notifyViewers(r *http.Request, ownerID, date string) {
	ctx := r.Context()

	perms, err := h.shareService.List(ctx, ownerID)
	if err != nil {
		log.Error().Err(err).Str("user_id", ownerID).Msg("Failed to list share grants")
		return
	}

	owner, err := h.userService.GetProfile(ctx, ownerID)
	if err != nil {
		log.Error().Err(err).Str("user_id", ownerID).Msg("Failed to load owner profile")
		return
	}

	for _, grant := range perms.SharingWithOthers {
		if !grant.CanViewProgress {
			continue
		}
		h.wsHub.NotifySnapshotShared(grant.UserID, ownerID, date)

		viewer, err := h.userService.GetProfile(ctx, grant.UserID)
		if err == nil && viewer.PushToken != nil {
			go h.push.NotifySnapshotShared(*viewer.PushToken, owner.DisplayName)
		}
	}
}

// List handles GET /api/progress/snapshots
func (h *ProgressHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	from, err := parseDateParam(r, "from_date")
	if err != nil {
		respondError(w, err)
		return
	}
	to, err := parseDateParam(r, "to_date")
	if err != nil {
		respondError(w, err)
		return
	}

	snapshots, err := h.progressService.List(ctx, userID, from, to)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"snapshots": snapshots})
}

// Partner handles GET /api/progress/partner
func (h *ProgressHandler) Partner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	from, err := parseDateParam(r, "from_date")
	if err != nil {
		respondError(w, err)
		return
	}
	to, err := parseDateParam(r, "to_date")
	if err != nil {
		respondError(w, err)
		return
	}

	progress, err := h.progressService.Partner(ctx, userID, from, to)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, progress)
}

// Summary handles GET /api/progress/summary
func (h *ProgressHandler) Summary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	summary, err := h.progressService.Summary(ctx, userID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}
