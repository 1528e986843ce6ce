package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"couples-workout-backend/internal/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{apperror.Validation("bad input"), http.StatusBadRequest, "validation_error"},
		{apperror.Unauthorized("bad token"), http.StatusUnauthorized, "unauthorized"},
		{apperror.Forbidden("no access"), http.StatusForbidden, "forbidden"},
		{apperror.NotFound("missing"), http.StatusNotFound, "not_found"},
		{apperror.Conflict("duplicate"), http.StatusConflict, "conflict"},
		{errors.New("pgx: something broke"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		respondError(rec, tc.err)
		assert.Equal(t, tc.status, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Body.String(), `"error":"`+tc.code+`"`)
	}
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	respondError(rec, errors.New("dial tcp 10.0.0.5:5432: connection refused"))
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
	assert.Contains(t, rec.Body.String(), "internal server error")
}

func TestDecodeJSONInvalidBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	var dst struct{}
	err := decodeJSON(req, &dst)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}
