package tt

import (
	"context"
	"encoding/json"
	"sync"

	sgr "github.com/KulikovMichael/sgr-base-agent"
)

// -----------------------------------------------------------------------------
// MockBackend - implements sgr.Backend with queued responses
// -----------------------------------------------------------------------------

// MockBackend is a configurable mock that implements sgr.Backend.
// Responses and errors are returned in the order they were queued. When the queue is
// exhausted, the last entry is repeated.
type MockBackend struct {
	mu        sync.Mutex
	responses []string
	errors    []error
	callCount int

	// CapturedRequests stores the request passed to each Complete call.
	CapturedRequests []sgr.CompletionRequest
}

// NewMockBackend creates an empty MockBackend.
func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

// AddResponse queues a raw text response.
func (m *MockBackend) AddResponse(content string) *MockBackend {
	m.responses = append(m.responses, content)
	m.errors = append(m.errors, nil)
	return m
}

// AddJSON queues v marshaled as JSON. Panics if v cannot be marshaled.
func (m *MockBackend) AddJSON(v any) *MockBackend {
	return m.AddResponse(MustJSON(v))
}

// AddError queues an error for the next call.
func (m *MockBackend) AddError(err error) *MockBackend {
	m.responses = append(m.responses, "")
	m.errors = append(m.errors, err)
	return m
}

// CallCount returns the number of times Complete has been called.
func (m *MockBackend) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Complete implements sgr.Backend.
func (m *MockBackend) Complete(ctx context.Context, req sgr.CompletionRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.callCount
	m.callCount++
	m.CapturedRequests = append(m.CapturedRequests, req)

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(m.responses) == 0 {
		return "", nil
	}
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	return m.responses[idx], m.errors[idx]
}

var _ sgr.Backend = (*MockBackend)(nil)

// MustJSON marshals v or panics.
func MustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// -----------------------------------------------------------------------------
// MockService - implements sgr.Service
// -----------------------------------------------------------------------------

// MockService is a configurable mock that implements sgr.Service.
type MockService struct {
	name   sgr.ActionName
	result string
	err    error
	panic  any

	// CapturedArgs stores the arguments passed to each Invoke call.
	CapturedArgs []any
}

// NewMockService creates a MockService that returns result.
func NewMockService(name sgr.ActionName, result string) *MockService {
	return &MockService{name: name, result: result}
}

// WithError makes the service fail with err.
func (m *MockService) WithError(err error) *MockService {
	m.err = err
	return m
}

// WithPanic makes the service panic with v.
func (m *MockService) WithPanic(v any) *MockService {
	m.panic = v
	return m
}

// CallCount returns the number of times Invoke has been called.
func (m *MockService) CallCount() int {
	return len(m.CapturedArgs)
}

// Name implements sgr.Service.
func (m *MockService) Name() sgr.ActionName {
	return m.name
}

// Invoke implements sgr.Service.
func (m *MockService) Invoke(_ context.Context, args any) (string, error) {
	m.CapturedArgs = append(m.CapturedArgs, args)
	if m.panic != nil {
		panic(m.panic)
	}
	if m.err != nil {
		return "", m.err
	}
	return m.result, nil
}

var _ sgr.Service = (*MockService)(nil)
