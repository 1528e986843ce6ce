package handlers

import (
	"net/http"

	"couples-workout-backend/internal/apperror"
	"couples-workout-backend/internal/middleware"
	"couples-workout-backend/internal/models"
	"couples-workout-backend/internal/repository"
	"couples-workout-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// HabitHandler handles habit HTTP requests
type HabitHandler struct {
	habitService *services.HabitService
}

// NewHabitHandler creates a new habit handler
func NewHabitHandler(habitService *services.HabitService) *HabitHandler {
	return &HabitHandler{
		habitService: habitService,
	}
}

// CreateHabitRequest represents the request body for creating a habit
type CreateHabitRequest struct {
	Name              string              `json:"name"`
	Cadence           models.HabitCadence `json:"cadence"`
	ReminderTimeLocal *string             `json:"reminder_time_local"`
}

// Create handles POST /api/habits
func (h *HabitHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req CreateHabitRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	habit, err := h.habitService.Create(ctx, userID, req.Name, req.Cadence, req.ReminderTimeLocal)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, habit)
}

// List handles GET /api/habits
func (h *HabitHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	activeOnly := r.URL.Query().Get("active_only") == "true"

	habits, err := h.habitService.List(ctx, userID, activeOnly)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"habits": habits})
}

// Update handles PATCH /api/habits/{habit_id}
func (h *HabitHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	habitID := chi.URLParam(r, "habit_id")

	var update services.HabitUpdate
	if err := decodeJSON(r, &update); err != nil {
		respondError(w, err)
		return
	}

	habit, err := h.habitService.Update(ctx, userID, habitID, update)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, habit)
}

// LogHabitRequest represents the request body for logging a habit
type LogHabitRequest struct {
	Date   models.Date           `json:"date"`
	Status models.HabitLogStatus `json:"status"`
	Notes  *string               `json:"notes"`
}

// Log handles POST /api/habits/{habit_id}/logs
func (h *HabitHandler) Log(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	habitID := chi.URLParam(r, "habit_id")

	var req LogHabitRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.Date.IsZero() {
		respondError(w, apperror.Validation("date is required"))
		return
	}

	entry, err := h.habitService.Log(ctx, userID, habitID, req.Date, req.Status, req.Notes)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, entry)
}

// ListLogs handles GET /api/habits/logs
func (h *HabitHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
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

	filter := repository.LogFilter{
		HabitID:  r.URL.Query().Get("habit_id"),
		FromDate: from,
		ToDate:   to,
	}

	logs, err := h.habitService.ListLogs(ctx, userID, filter)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

// PartnerLogs handles GET /api/habits/partner
func (h *HabitHandler) PartnerLogs(w http.ResponseWriter, r *http.Request) {
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

	logs, err := h.habitService.PartnerLogs(ctx, userID, from, to)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

// WeeklyStats handles GET /api/habits/stats/weekly
func (h *HabitHandler) WeeklyStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	stats, err := h.habitService.WeeklyStats(ctx, userID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

// parseDateParam reads an optional YYYY-MM-DD query parameter. Absent → nil.
func parseDateParam(r *http.Request, name string) (*models.Date, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	date, err := models.ParseDate(raw)
	if err != nil {
		return nil, apperror.Validation("%s must be YYYY-MM-DD", name)
	}
	return &date, nil
}
