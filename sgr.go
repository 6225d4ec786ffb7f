package sgr

import (
	"context"
	"fmt"
)

// Backend is the model backend boundary: one schema-constrained completion per call.
//
// Implementations should use the provider's structured-output mechanism to constrain the
// response to ResponseSchema. If they cannot guarantee the shape, the Generation Gateway's
// parse-and-retry step is the fallback.
type Backend interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompletionRequest is a single request to a [Backend].
type CompletionRequest struct {
	// Model is the provider model name. Empty means the backend default.
	Model string

	// Messages is the ordered conversation: system framing first, then history.
	Messages []Message

	// ResponseSchema is the shape the response must have.
	ResponseSchema Schema

	// BaseURL optionally routes the request through a proxy or gateway.
	BaseURL string
}

// Generator turns a conversation into a validated payload of the requested schema.
// gateway.Gateway is the standard implementation.
type Generator interface {
	Generate(ctx context.Context, s Schema, messages []Message) (Payload, error)
}

// GenerateTyped calls g and returns the payload as T.
func GenerateTyped[T Payload](
	ctx context.Context,
	g Generator,
	s *TypedSchema[T],
	messages []Message,
) (T, error) {
	var zero T
	p, err := g.Generate(ctx, s, messages)
	if err != nil {
		return zero, err
	}
	typed, ok := p.(T)
	if !ok {
		return zero, fmt.Errorf("schema %s produced %T", s.Name(), p)
	}
	return typed, nil
}

// Service is a callable registered under an action name.
//
// Invoke receives the validated tool arguments (the ToolArguments of an [Action] payload)
// and returns a textual result, or an error that the orchestrator records as data.
type Service interface {
	Name() ActionName
	Invoke(ctx context.Context, args any) (string, error)
}

// StepAction tells the caller whether the session should continue.
type StepAction string

const (
	StepContinue  StepAction = "continue"
	StepTerminate StepAction = "terminate"
)

// StepResult is the outcome of one planning+action cycle.
type StepResult struct {
	Action StepAction

	// Answer is only set when Action is [StepTerminate]. It may be empty.
	Answer string

	// Plan is the plan produced in this step.
	Plan PlannerPayload
}

// Terminated reports whether the step produced a terminal answer.
func (r *StepResult) Terminated() bool {
	return r != nil && r.Action == StepTerminate
}
