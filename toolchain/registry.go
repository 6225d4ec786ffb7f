// Package toolchain resolves action names to services and invokes them.
//
// A [Registry] is fixed at construction: there is no dynamic discovery. [Call] is the only
// place where a service failure is turned into data instead of being returned as an error.
package toolchain

import (
	"context"
	"fmt"
	"slices"
	"time"

	sgr "github.com/KulikovMichael/sgr-base-agent"
)

// Registry maps action names to services.
type Registry struct {
	services map[sgr.ActionName]sgr.Service
	names    []sgr.ActionName
}

// NewRegistry creates a registry holding the given services.
//
// Panics if a service is nil or two services share a name.
func NewRegistry(services ...sgr.Service) *Registry {
	r := &Registry{
		services: make(map[sgr.ActionName]sgr.Service, len(services)),
		names:    make([]sgr.ActionName, 0, len(services)),
	}
	for _, svc := range services {
		if svc == nil {
			panic("toolchain: nil service")
		}
		name := svc.Name()
		if _, dup := r.services[name]; dup {
			panic(fmt.Sprintf("toolchain: service %q registered twice", name))
		}
		r.services[name] = svc
		r.names = append(r.names, name)
	}
	return r
}

// Get resolves name to a service. The error wraps sgr.ErrUnknownService.
func (r *Registry) Get(name sgr.ActionName) (sgr.Service, error) {
	svc, ok := r.services[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", sgr.ErrUnknownService, name)
	}
	return svc, nil
}

// Names returns the registered action names in registration order.
func (r *Registry) Names() []sgr.ActionName {
	return slices.Clone(r.names)
}

// Outcome is the result of invoking a service: either a textual result or a failure.
type Outcome struct {
	Result   string
	Err      error
	Duration time.Duration
}

// Failed reports whether the service failed.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Text is what gets recorded into the chat history. Failures render as "Error: <message>".
func (o Outcome) Text() string {
	if o.Err != nil {
		return "Error: " + o.Err.Error()
	}
	return o.Result
}

// Call invokes svc with args. Errors and panics raised by the service are captured in the
// returned Outcome; Call itself never fails.
func Call(ctx context.Context, svc sgr.Service, args any) (out Outcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Err: fmt.Errorf("%v", r)}
		}
		out.Duration = time.Since(start)
	}()

	result, err := svc.Invoke(ctx, args)
	if err != nil {
		return Outcome{Err: err}
	}
	return Outcome{Result: result}
}
