// Package gateway turns a schema request into a validated payload, retrying the model
// backend a bounded number of times.
//
// Each attempt sends the conversation and the requested schema to the [sgr.Backend], logs
// the raw response, then decodes it. Backend errors and responses that fail validation
// are retried after a constant delay; the last failure is returned when attempts run out.
package gateway

import (
	"context"
	"fmt"
	"time"

	sgr "github.com/KulikovMichael/sgr-base-agent"
	"github.com/KulikovMichael/sgr-base-agent/metrics"
	"github.com/KulikovMichael/sgr-base-agent/tracing"
	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	// DefaultMaxAttempts is the total number of backend calls per Generate.
	DefaultMaxAttempts = 3

	// DefaultRetryDelay is the fixed pause between attempts.
	DefaultRetryDelay = time.Second
)

// Gateway implements sgr.Generator on top of an sgr.Backend.
//
// Example usage:
//
//	gw := gateway.New(backend, "gpt-4o-mini").
//	    WithBaseURL(cfg.BaseURL).
//	    WithLogger(logger)
//
//	plan, err := sgr.GenerateTyped(ctx, gw, plannerSchema, messages)
type Gateway struct {
	backend     sgr.Backend
	model       string
	baseURL     string
	maxAttempts int
	retryDelay  time.Duration
	logger      *zap.Logger
}

// New creates a Gateway for model using the default retry policy.
func New(backend sgr.Backend, model string) *Gateway {
	return &Gateway{
		backend:     backend,
		model:       model,
		maxAttempts: DefaultMaxAttempts,
		retryDelay:  DefaultRetryDelay,
		logger:      zap.NewNop(),
	}
}

// WithBaseURL routes requests through a proxy. Returns the gateway for chaining.
func (g *Gateway) WithBaseURL(url string) *Gateway {
	g.baseURL = url
	return g
}

// WithLogger sets the logger. Returns the gateway for chaining.
func (g *Gateway) WithLogger(logger *zap.Logger) *Gateway {
	if logger != nil {
		g.logger = logger
	}
	return g
}

// WithRetry overrides the retry policy. attempts below 1 are treated as 1.
func (g *Gateway) WithRetry(attempts int, delay time.Duration) *Gateway {
	if attempts < 1 {
		attempts = 1
	}
	if delay < 0 {
		delay = 0
	}
	g.maxAttempts = attempts
	g.retryDelay = delay
	return g
}

// Model returns the model name sent with every request.
func (g *Gateway) Model() string {
	return g.model
}

// Generate implements sgr.Generator.
//
// Errors:
//   - *sgr.SchemaValidationError when the last attempt produced an invalid response
//   - *sgr.TransientBackendError when the last attempt failed in the backend
//   - the context error, unwrapped, when ctx is cancelled or its deadline passes
func (g *Gateway) Generate(
	ctx context.Context,
	s sgr.Schema,
	messages []sgr.Message,
) (sgr.Payload, error) {
	ctx, span := tracing.StartGenerateSpan(ctx, s.Name(), g.model)

	req := sgr.CompletionRequest{
		Model:          g.model,
		Messages:       messages,
		ResponseSchema: s,
		BaseURL:        g.baseURL,
	}

	var (
		payload sgr.Payload
		attempt int
	)
	operation := func() error {
		attempt++
		raw, err := g.backend.Complete(ctx, req)
		if err != nil {
			// A deadline inside the backend is transient; only the caller's ctx ends the loop.
			if ctxErr := ctx.Err(); ctxErr != nil {
				return backoff.Permanent(ctxErr)
			}
			metrics.GenerationAttempts.WithLabelValues(s.Name(), metrics.OutcomeBackendError).Inc()
			g.logger.Warn("BackendError",
				zap.String("component", "GenerationGateway"),
				zap.String("schema", s.Name()),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return &sgr.TransientBackendError{Err: err}
		}

		g.logger.Info("LLMResponseCaptured",
			zap.String("component", "GenerationGateway"),
			zap.String("event", "LLMResponseCaptured"),
			zap.String("model", g.model),
			zap.String("schema", s.Name()),
			zap.Int("attempt", attempt),
			zap.String("raw_content", raw),
		)

		p, err := s.Decode(raw)
		if err != nil {
			metrics.GenerationAttempts.WithLabelValues(s.Name(), metrics.OutcomeInvalid).Inc()
			g.logger.Error("SchemaValidationError",
				zap.String("component", "GenerationGateway"),
				zap.String("schema", s.Name()),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return err
		}

		metrics.GenerationAttempts.WithLabelValues(s.Name(), metrics.OutcomeOK).Inc()
		payload = p
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(g.retryDelay), uint64(g.maxAttempts-1)),
		ctx,
	)
	err := backoff.Retry(operation, policy)
	span.SetAttributes(attribute.Int("sgr.attempts", attempt))
	tracing.EndSpan(span, err)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, fmt.Errorf("schema %s decoded to a nil payload", s.Name())
	}
	return payload, nil
}

var _ sgr.Generator = (*Gateway)(nil)
