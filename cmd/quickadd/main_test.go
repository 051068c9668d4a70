package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func fixedNow() time.Time {
	return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
}

func TestRun_YAML(t *testing.T) {
	t.Setenv("TODOLINE_TIMEZONE", "UTC")
	var out bytes.Buffer

	err := run([]string{"Plan", "meeting", "#Work", "/frontend", "@alice", "p2", "tomorrow", "at", "3pm"}, &out, fixedNow)
	require.NoError(t, err)

	var got parsed
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &got), out.String())
	assert.Equal(t, "Plan meeting", got.Title)
	assert.Equal(t, []string{"#Work", "#Work/frontend"}, got.Projects)
	assert.Equal(t, []string{"alice"}, got.Tags)
	assert.Equal(t, 2, got.Priority)
	assert.Equal(t, "2024-05-02T15:00:00Z", got.Date)
	assert.Equal(t, "⏰ 03:00 PM", got.TimeRangeLabel)
}

func TestRun_JSONWithCategory(t *testing.T) {
	t.Setenv("TODOLINE_TIMEZONE", "UTC")
	var out bytes.Buffer

	err := run([]string{"-json", "-category", "work", "-reminder", "10 minutes before", "Fix", "login", "/backend"}, &out, fixedNow)
	require.NoError(t, err)

	var got parsed
	require.NoError(t, json.Unmarshal(out.Bytes(), &got), out.String())
	assert.Equal(t, "Fix login", got.Title)
	assert.Equal(t, []string{"#Work", "#Work/backend"}, got.Projects)
	assert.Equal(t, 4, got.Priority)
	assert.Equal(t, "10 minutes before", got.Reminder)
}

func TestRun_DueDate(t *testing.T) {
	t.Setenv("TODOLINE_TIMEZONE", "UTC")
	var out bytes.Buffer

	require.NoError(t, run([]string{"-json", "-due", "2024-06-10", "Renew", "passport"}, &out, fixedNow))

	var got parsed
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "2024-06-10T00:00:00Z", got.Date)
}

func TestRun_Errors(t *testing.T) {
	t.Setenv("TODOLINE_TIMEZONE", "UTC")

	tests := []struct {
		name string
		args []string
	}{
		{"no text", []string{"-json"}},
		{"title missing", []string{"#Work", "p1"}},
		{"subcategory without main", []string{"Fix", "/backend"}},
		{"bad due date", []string{"-due", "tomorrow", "Pay", "rent"}},
		{"bad reminder", []string{"-reminder", "soon", "Pay", "rent"}},
		{"bad timezone", []string{"-tz", "Mars/Olympus", "Pay", "rent"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			assert.Error(t, run(tt.args, &out, fixedNow))
		})
	}
}
