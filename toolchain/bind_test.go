package toolchain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// Test Types
// -----------------------------------------------------------------------------

type lookupArgs struct {
	ContextKey string `json:"context_key"`
}

type scheduleArgs struct {
	Name      string        `json:"name"`
	StartTime time.Time     `json:"start_time"`
	Duration  time.Duration `json:"duration"`
	Count     int           `json:"count"`
}

type nestedArgs struct {
	Event struct {
		Name string    `json:"name"`
		When time.Time `json:"when"`
	} `json:"event"`
	Reminders []time.Duration `json:"reminders"`
}

// -----------------------------------------------------------------------------
// BindArgs
// -----------------------------------------------------------------------------

func TestBindArgs_Map(t *testing.T) {
	type input struct {
		args any
	}

	type expected struct {
		result lookupArgs
		hasErr bool
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:     "json tag match",
			input:    input{args: map[string]any{"context_key": "order-42"}},
			expected: expected{result: lookupArgs{ContextKey: "order-42"}},
		},
		{
			name:     "typed value passes through",
			input:    input{args: lookupArgs{ContextKey: "client"}},
			expected: expected{result: lookupArgs{ContextKey: "client"}},
		},
		{
			name:     "nil args give zero value",
			input:    input{args: nil},
			expected: expected{result: lookupArgs{}},
		},
		{
			name:     "unknown keys ignored",
			input:    input{args: map[string]any{"context_key": "a", "extra": 1}},
			expected: expected{result: lookupArgs{ContextKey: "a"}},
		},
		{
			name:     "wrong type",
			input:    input{args: map[string]any{"context_key": 42}},
			expected: expected{hasErr: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := BindArgs[lookupArgs](tt.input.args)

			if tt.expected.hasErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected.result, result)
		})
	}
}

func TestBindArgs_TimeAndDuration(t *testing.T) {
	type input struct {
		start    string
		duration string
	}

	type expected struct {
		start    time.Time
		duration time.Duration
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:  "date only and hours",
			input: input{start: "2026-01-20", duration: "2h"},
			expected: expected{
				start:    time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC),
				duration: 2 * time.Hour,
			},
		},
		{
			name:  "RFC3339 and compound duration",
			input: input{start: "2026-01-20T10:30:00Z", duration: "1h30m"},
			expected: expected{
				start:    time.Date(2026, 1, 20, 10, 30, 0, 0, time.UTC),
				duration: 90 * time.Minute,
			},
		},
		{
			name:  "datetime without zone",
			input: input{start: "2026-01-20 08:15:00", duration: "45s"},
			expected: expected{
				start:    time.Date(2026, 1, 20, 8, 15, 0, 0, time.UTC),
				duration: 45 * time.Second,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := BindArgs[scheduleArgs](map[string]any{
				"name":       "standup",
				"start_time": tt.input.start,
				"duration":   tt.input.duration,
				"count":      float64(3),
			})

			require.NoError(t, err)
			assert.Equal(t, "standup", result.Name)
			assert.True(t, tt.expected.start.Equal(result.StartTime), "got %v", result.StartTime)
			assert.Equal(t, tt.expected.duration, result.Duration)
			assert.Equal(t, 3, result.Count)
		})
	}
}

func TestBindArgs_Nested(t *testing.T) {
	result, err := BindArgs[nestedArgs](map[string]any{
		"event": map[string]any{
			"name": "renewal",
			"when": "2026-03-01",
		},
		"reminders": []any{"24h", "1h"},
	})

	require.NoError(t, err)
	assert.Equal(t, "renewal", result.Event.Name)
	assert.True(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).Equal(result.Event.When))
	assert.Equal(t, []time.Duration{24 * time.Hour, time.Hour}, result.Reminders)
}

func TestBindArgs_StructArgs(t *testing.T) {
	type wireArgs struct {
		Name      string `json:"name"`
		StartTime string `json:"start_time"`
		Duration  string `json:"duration,omitempty"`
		Count     int    `json:"count"`
	}

	result, err := BindArgs[scheduleArgs](wireArgs{
		Name:      "renewal call",
		StartTime: "2026-03-01",
		Duration:  "24h",
		Count:     9007199254740993,
	})

	require.NoError(t, err)
	assert.Equal(t, "renewal call", result.Name)
	assert.True(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).Equal(result.StartTime))
	assert.Equal(t, 24*time.Hour, result.Duration)
	assert.Equal(t, 9007199254740993, result.Count)

	result, err = BindArgs[scheduleArgs](&wireArgs{Name: "no duration", StartTime: "2026-03-01"})
	require.NoError(t, err)
	assert.Zero(t, result.Duration)

	_, err = BindArgs[scheduleArgs](wireArgs{StartTime: "2026-03-01", Duration: "soon"})
	assert.Error(t, err)
}

func TestBindArgs_PointerTarget(t *testing.T) {
	result, err := BindArgs[*lookupArgs](map[string]any{"context_key": "x"})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "x", result.ContextKey)
}

func TestParseTime_Invalid(t *testing.T) {
	_, err := parseTime("next tuesday")
	assert.Error(t, err)
}
