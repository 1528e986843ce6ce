package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelMatching(t *testing.T) {
	err := NotFound("habit %s not found", "h-1")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.Equal(t, "habit h-1 not found", err.Error())
}

func TestWrappedMatching(t *testing.T) {
	err := fmt.Errorf("accepting invite: %w", Conflict("this couple is already full"))
	assert.True(t, errors.Is(err, ErrConflict))

	var appErr *AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, "this couple is already full", appErr.Message)
}
