// Package metrics holds the Prometheus collectors for the step loop.
package metrics

import (
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

// DefaultRegistry is the registry all collectors below are registered on.
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(
		GenerationAttempts, LLMTokensTotal,
		StepsTotal, ToolCallsTotal, ToolDuration,
	)
}

// GenerationAttempts counts gateway attempts per schema.
var GenerationAttempts = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "sgr_generation_attempts_total",
		Help: "Structured generation attempts",
	},
	[]string{"schema", "outcome"}, // ok | invalid | backend_error
)

// LLMTokensTotal counts tokens reported by the model backend.
var LLMTokensTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "sgr_llm_tokens_total",
		Help: "LLM tokens",
	},
	[]string{"direction"}, // input | output
)

// StepsTotal counts RunStep outcomes.
var StepsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "sgr_steps_total",
		Help: "Orchestrator steps",
	},
	[]string{"outcome"}, // continue | terminate | error
)

// ToolCallsTotal counts service invocations.
var ToolCallsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "sgr_tool_calls_total",
		Help: "Service invocations",
	},
	[]string{"tool", "status"}, // ok | error
)

// ToolDuration observes service latency in seconds.
var ToolDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "sgr_tool_duration_seconds",
		Help:    "Service invocation latency (seconds)",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"tool"},
)

// Outcome labels.
const (
	OutcomeOK           = "ok"
	OutcomeInvalid      = "invalid"
	OutcomeBackendError = "backend_error"
	OutcomeError        = "error"
)

// WritePrometheus writes DefaultRegistry in the text exposition format.
func WritePrometheus(w io.Writer) error {
	families, err := DefaultRegistry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

// Handler serves DefaultRegistry over HTTP.
func Handler() http.Handler {
	return promhttp.HandlerFor(DefaultRegistry, promhttp.HandlerOpts{})
}
