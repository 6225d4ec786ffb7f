package sgr

import (
	"context"
	"time"
)

// -----------------------------------------------------------------------------
// Step Hook Interfaces
// -----------------------------------------------------------------------------
//
// Hooks observe a step as it runs. To use hooks:
//
//  1. Implement the desired hook interface(s)
//  2. Register with hooks.Registry
//  3. Pass the registry to orchestrator.WithHooks
//
// Example:
//
//	type PlanPrinter struct{ w io.Writer }
//
//	func (p *PlanPrinter) OnAfterPlan(ctx context.Context, e sgr.AfterPlanEvent) {
//	    fmt.Fprintf(p.w, "plan: %v\n", e.Plan.GetReasoning().SituationAnalysis)
//	}
//
//	registry := hooks.NewRegistry().Register(&PlanPrinter{w: os.Stdout})
//	orch := orchestrator.New(state, services, gw, sink).WithHooks(registry)
//
// Hooks are called in registration order and must not block for long: they run inside the
// step, between the two model calls.
// -----------------------------------------------------------------------------

// AfterPlanHook is notified once the plan has been validated, traced and recorded.
type AfterPlanHook interface {
	OnAfterPlan(ctx context.Context, event AfterPlanEvent)
}

// BeforeToolCallHook is notified before a service is invoked. Hooks may replace
// event.Args; the modified value is what the service receives.
type BeforeToolCallHook interface {
	OnBeforeToolCall(ctx context.Context, event *BeforeToolCallEvent)
}

// AfterToolCallHook is notified after a service returned, including on failure.
type AfterToolCallHook interface {
	OnAfterToolCall(ctx context.Context, event AfterToolCallEvent)
}

// AfterStepHook is notified when RunStep returns, with its result or error.
type AfterStepHook interface {
	OnAfterStep(ctx context.Context, event AfterStepEvent)
}

// AfterPlanEvent carries the plan of the current step.
type AfterPlanEvent struct {
	SessionID string
	Plan      PlannerPayload
	Decision  Decision
}

// BeforeToolCallEvent carries the arguments about to be passed to a service.
type BeforeToolCallEvent struct {
	SessionID string
	Action    ActionName
	Args      any
}

// AfterToolCallEvent carries the outcome of a service call.
type AfterToolCallEvent struct {
	SessionID string
	Action    ActionName
	Args      any

	// Result is the text recorded into the state, "Error: ..." when Err is set.
	Result   string
	Err      error
	Duration time.Duration
}

// AfterStepEvent carries the outcome of RunStep.
type AfterStepEvent struct {
	SessionID string
	Result    *StepResult
	Err       error
	Duration  time.Duration
}

// HookFirer dispatches step events. hooks.Registry implements it.
type HookFirer interface {
	FireAfterPlan(ctx context.Context, event AfterPlanEvent)
	FireBeforeToolCall(ctx context.Context, event *BeforeToolCallEvent)
	FireAfterToolCall(ctx context.Context, event AfterToolCallEvent)
	FireAfterStep(ctx context.Context, event AfterStepEvent)
}
