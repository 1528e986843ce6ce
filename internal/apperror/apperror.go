package apperror

import (
	"errors"
	"fmt"
)

// Sentinel errors for the domain outcomes the API surfaces. Handlers map
// them to HTTP status codes with errors.Is; services never import net/http.
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

// AppError pairs a sentinel with a message safe to return to the client.
type AppError struct {
	Err     error
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(format string, args ...any) *AppError {
	return &AppError{Err: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *AppError {
	return &AppError{Err: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) *AppError {
	return &AppError{Err: ErrForbidden, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *AppError {
	return &AppError{Err: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(format string, args ...any) *AppError {
	return &AppError{Err: ErrUnauthorized, Message: fmt.Sprintf(format, args...)}
}
