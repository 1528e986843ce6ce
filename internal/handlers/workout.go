package handlers

import (
	"net/http"

	"couples-workout-backend/internal/middleware"
	"couples-workout-backend/internal/models"
	"couples-workout-backend/internal/services"
)

// WorkoutHandler handles workout template and session HTTP requests
type WorkoutHandler struct {
	workoutService *services.WorkoutService
}

// NewWorkoutHandler creates a new workout handler
func NewWorkoutHandler(workoutService *services.WorkoutService) *WorkoutHandler {
	return &WorkoutHandler{
		workoutService: workoutService,
	}
}

// CreateTemplateRequest represents the request body for creating a template
type CreateTemplateRequest struct {
	Name      string                `json:"name"`
	Type      models.WorkoutType    `json:"type"`
	Exercises []models.ExerciseSpec `json:"exercises"`
}

// templateResponse adds the is_system flag to a template
type templateResponse struct {
	*models.WorkoutTemplate
	IsSystem bool `json:"is_system"`
}

// CreateTemplate handles POST /api/workout-templates
func (h *WorkoutHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req CreateTemplateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	template, err := h.workoutService.CreateTemplate(ctx, userID, req.Name, req.Type, req.Exercises)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, templateResponse{WorkoutTemplate: template, IsSystem: template.IsSystem()})
}

// ListTemplates handles GET /api/workout-templates
func (h *WorkoutHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	mineOnly := r.URL.Query().Get("mine") == "true"

	templates, err := h.workoutService.ListTemplates(ctx, userID, mineOnly)
	if err != nil {
		respondError(w, err)
		return
	}

	out := make([]templateResponse, 0, len(templates))
	for _, t := range templates {
		out = append(out, templateResponse{WorkoutTemplate: t, IsSystem: t.IsSystem()})
	}
	respondJSON(w, http.StatusOK, map[string]any{"templates": out})
}

// CreateSession handles POST /api/workout-sessions
func (h *WorkoutHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var input services.SessionInput
	if err := decodeJSON(r, &input); err != nil {
		respondError(w, err)
		return
	}

	session, err := h.workoutService.CreateSession(ctx, userID, input)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

// ListSessions handles GET /api/workout-sessions
func (h *WorkoutHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
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

	sessions, err := h.workoutService.ListSessions(ctx, userID, from, to)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

// WeeklyStats handles GET /api/workout-sessions/stats/weekly
func (h *WorkoutHandler) WeeklyStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	stats, err := h.workoutService.WeeklyStats(ctx, userID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}
