// Package hooks provides a registry that dispatches step events to observers.
//
// Hooks can implement any combination of [sgr.AfterPlanHook], [sgr.BeforeToolCallHook],
// [sgr.AfterToolCallHook] and [sgr.AfterStepHook]; they only receive events for the
// interfaces they implement.
package hooks

import (
	"context"

	sgr "github.com/KulikovMichael/sgr-base-agent"
)

// Registry manages a collection of hooks and dispatches events to them.
//
// # Creating and Using
//
//	registry := hooks.NewRegistry().
//	    Register(&PlanPrinter{}).
//	    Register(&ToolTimer{})
//
//	orch := orchestrator.New(state, services, gw, sink).WithHooks(registry)
//
// # Thread Safety
//
// Registry is NOT thread-safe. Register all hooks before running steps.
// Fire methods should only be called by the orchestrator.
type Registry struct {
	hooks []any
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		hooks: make([]any, 0),
	}
}

// Register adds a hook to the registry. Hooks are called in the order they are registered.
func (r *Registry) Register(hook any) *Registry {
	r.hooks = append(r.hooks, hook)
	return r
}

// FireAfterPlan dispatches an AfterPlanEvent to all AfterPlanHook implementations.
func (r *Registry) FireAfterPlan(ctx context.Context, event sgr.AfterPlanEvent) {
	for _, h := range r.hooks {
		if hook, ok := h.(sgr.AfterPlanHook); ok {
			hook.OnAfterPlan(ctx, event)
		}
	}
}

// FireBeforeToolCall dispatches a BeforeToolCallEvent to all BeforeToolCallHook
// implementations. Hooks can modify event.Args to change the service input.
func (r *Registry) FireBeforeToolCall(ctx context.Context, event *sgr.BeforeToolCallEvent) {
	for _, h := range r.hooks {
		if hook, ok := h.(sgr.BeforeToolCallHook); ok {
			hook.OnBeforeToolCall(ctx, event)
		}
	}
}

// FireAfterToolCall dispatches an AfterToolCallEvent to all AfterToolCallHook
// implementations.
func (r *Registry) FireAfterToolCall(ctx context.Context, event sgr.AfterToolCallEvent) {
	for _, h := range r.hooks {
		if hook, ok := h.(sgr.AfterToolCallHook); ok {
			hook.OnAfterToolCall(ctx, event)
		}
	}
}

// FireAfterStep dispatches an AfterStepEvent to all AfterStepHook implementations.
func (r *Registry) FireAfterStep(ctx context.Context, event sgr.AfterStepEvent) {
	for _, h := range r.hooks {
		if hook, ok := h.(sgr.AfterStepHook); ok {
			hook.OnAfterStep(ctx, event)
		}
	}
}

// Len returns the number of registered hooks.
func (r *Registry) Len() int {
	return len(r.hooks)
}

var _ sgr.HookFirer = (*Registry)(nil)
