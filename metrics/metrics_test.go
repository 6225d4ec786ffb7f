package metrics

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWritePrometheus(t *testing.T) {
	StepsTotal.WithLabelValues("terminate").Inc()
	ToolCallsTotal.WithLabelValues("LookupInfo", OutcomeOK).Inc()

	var buf bytes.Buffer
	require.NoError(t, WritePrometheus(&buf))

	out := buf.String()
	assert.Contains(t, out, "sgr_steps_total")
	assert.Contains(t, out, `tool="LookupInfo"`)
}

func TestGenerationAttemptsLabels(t *testing.T) {
	GenerationAttempts.WithLabelValues("Planner", OutcomeInvalid).Inc()

	var buf bytes.Buffer
	require.NoError(t, WritePrometheus(&buf))

	assert.Contains(t, buf.String(), `sgr_generation_attempts_total{outcome="invalid",schema="Planner"}`)
}

func TestHandler(t *testing.T) {
	LLMTokensTotal.WithLabelValues("input").Add(12)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `sgr_llm_tokens_total{direction="input"}`)
}
