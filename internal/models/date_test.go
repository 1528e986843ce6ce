package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	date, err := ParseDate("2026-03-15")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-15", date.String())

	_, err = ParseDate("15.03.2026")
	assert.Error(t, err)

	_, err = ParseDate("2026-13-01")
	assert.Error(t, err)
}

func TestDateJSON(t *testing.T) {
	date, err := ParseDate("2026-03-15")
	require.NoError(t, err)

	data, err := json.Marshal(date)
	require.NoError(t, err)
	assert.Equal(t, `"2026-03-15"`, string(data))

	var parsed Date
	require.NoError(t, json.Unmarshal([]byte(`"2026-03-16"`), &parsed))
	assert.Equal(t, "2026-03-16", parsed.String())

	assert.Error(t, json.Unmarshal([]byte(`20260316`), &parsed))
}

func TestDateAddDays(t *testing.T) {
	date, err := ParseDate("2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, "2026-02-23", date.AddDays(-6).String())
	assert.Equal(t, "2026-03-02", date.AddDays(1).String())
}

func TestDateInStructJSON(t *testing.T) {
	log := HabitLog{
		ID:      "log-1",
		HabitID: "habit-1",
		Status:  StatusDone,
	}
	log.Date, _ = ParseDate("2026-03-15")

	data, err := json.Marshal(log)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"date":"2026-03-15"`)
}
