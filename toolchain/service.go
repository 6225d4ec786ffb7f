package toolchain

import (
	"context"
	"encoding/json"
	"fmt"

	sgr "github.com/KulikovMichael/sgr-base-agent"
)

// ServiceFunc adapts a typed function into an [sgr.Service].
//
// The function receives the action's tool arguments bound into I (see [BindArgs]) and
// returns an output O that is rendered as text with [FormatOutput].
type ServiceFunc[I, O any] struct {
	name ActionName
	fn   func(ctx context.Context, input I) (O, error)
}

// ActionName is re-exported for brevity in service declarations.
type ActionName = sgr.ActionName

// NewServiceFunc creates a new ServiceFunc with typed input and output.
func NewServiceFunc[I, O any](
	name ActionName,
	fn func(ctx context.Context, input I) (O, error),
) *ServiceFunc[I, O] {
	return &ServiceFunc[I, O]{
		name: name,
		fn:   fn,
	}
}

// Name implements sgr.Service.
func (s *ServiceFunc[I, O]) Name() ActionName {
	return s.name
}

// Invoke implements sgr.Service.
func (s *ServiceFunc[I, O]) Invoke(ctx context.Context, args any) (string, error) {
	input, err := BindArgs[I](args)
	if err != nil {
		return "", fmt.Errorf("%s: %w", s.name, err)
	}
	output, err := s.fn(ctx, input)
	if err != nil {
		return "", err
	}
	return FormatOutput(output), nil
}

// FormatOutput renders a service output for the chat history: strings verbatim,
// fmt.Stringer via String, everything else as JSON.
func FormatOutput(v any) string {
	switch out := v.(type) {
	case nil:
		return ""
	case string:
		return out
	case []byte:
		return string(out)
	case fmt.Stringer:
		return out.String()
	case error:
		return out.Error()
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

var _ sgr.Service = (*ServiceFunc[struct{}, string])(nil)
