package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"couples-workout-backend/internal/apperror"

	"github.com/rs/zerolog/log"
)

// ErrorResponse is the JSON body of every error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// respondJSON writes a JSON response with the given status code
func respondJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			log.Error().Err(err).Msg("Failed to encode response")
		}
	}
}

// respondError maps a domain error to its HTTP status. Unknown errors are
// logged and surfaced as a generic 500 without internal detail.
func respondError(w http.ResponseWriter, err error) {
	var code string
	var status int

	switch {
	case errors.Is(err, apperror.ErrValidation):
		code, status = "validation_error", http.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthorized):
		code, status = "unauthorized", http.StatusUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		code, status = "forbidden", http.StatusForbidden
	case errors.Is(err, apperror.ErrNotFound):
		code, status = "not_found", http.StatusNotFound
	case errors.Is(err, apperror.ErrConflict):
		code, status = "conflict", http.StatusConflict
	default:
		log.Error().Err(err).Msg("Unhandled error")
		respondJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "internal server error",
		})
		return
	}

	respondJSON(w, status, ErrorResponse{Error: code, Message: err.Error()})
}

// decodeJSON parses a JSON request body into dst
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.Validation("invalid request body")
	}
	return nil
}
