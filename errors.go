package sgr

import (
	"errors"
	"fmt"
)

// Sentinel errors for the step protocol. Use errors.Is to classify failures; the typed
// errors below match their sentinel.
var (
	// ErrSchemaValidation: the model output does not conform to the requested schema.
	ErrSchemaValidation = errors.New("schema validation error")

	// ErrTransientBackend: the model backend failed for a reason worth retrying.
	ErrTransientBackend = errors.New("transient backend error")

	// ErrUnknownToolRequested: the planner chose an action outside this step's action set.
	ErrUnknownToolRequested = errors.New("unknown tool requested")

	// ErrUnknownService: an action has no service registered under its name.
	ErrUnknownService = errors.New("unknown service")

	// ErrNotAPlanner: the planning schema decoded into a payload without a decision.
	ErrNotAPlanner = errors.New("planning payload does not implement PlannerPayload")
)

// SchemaValidationError is returned when raw model output cannot be parsed into a schema.
type SchemaValidationError struct {
	Schema string
	Raw    string
	Err    error
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("schema %s: %v", e.Schema, e.Err)
}

func (e *SchemaValidationError) Unwrap() error {
	return e.Err
}

func (e *SchemaValidationError) Is(target error) bool {
	return target == ErrSchemaValidation
}

// TransientBackendError wraps a failed call to the model backend.
type TransientBackendError struct {
	Err error
}

func (e *TransientBackendError) Error() string {
	return fmt.Sprintf("%v: %v", ErrTransientBackend, e.Err)
}

func (e *TransientBackendError) Unwrap() error {
	return e.Err
}

func (e *TransientBackendError) Is(target error) bool {
	return target == ErrTransientBackend
}

// UnknownToolRequestedError reports a planner decision naming an action that is not in the
// action set passed to the step.
type UnknownToolRequestedError struct {
	Name      ActionName
	Available []ActionName
}

func (e *UnknownToolRequestedError) Error() string {
	return fmt.Sprintf("%v: %s (available: %v)", ErrUnknownToolRequested, e.Name, e.Available)
}

func (e *UnknownToolRequestedError) Is(target error) bool {
	return target == ErrUnknownToolRequested
}
