// Package orchestrator runs one plan-then-act cycle over an agent state.
//
// Each step makes two generation calls. The first produces a plan whose decision either
// finishes the task or names one action. The second produces that action's arguments, which
// are dispatched to the registered service. Both payloads are traced before the state is
// mutated.
package orchestrator

import (
	"context"
	"fmt"
	"slices"
	"time"

	sgr "github.com/KulikovMichael/sgr-base-agent"
	"github.com/KulikovMichael/sgr-base-agent/metrics"
	"github.com/KulikovMichael/sgr-base-agent/toolchain"
	"github.com/KulikovMichael/sgr-base-agent/tracelog"
	"github.com/KulikovMichael/sgr-base-agent/tracing"
	"go.uber.org/zap"
)

// SystemPrompt prefixes the canonical state in the system message of every generation.
const SystemPrompt = "You are an SGR Agent. Current State: "

// Orchestrator drives steps for a single session. It is not safe for concurrent use.
type Orchestrator struct {
	state     sgr.State
	registry  *toolchain.Registry
	generator sgr.Generator
	sink      tracelog.Sink
	hooks     sgr.HookFirer
	logger    *zap.Logger
}

// New creates an Orchestrator. A nil sink discards trace records.
func New(
	state sgr.State,
	registry *toolchain.Registry,
	generator sgr.Generator,
	sink tracelog.Sink,
) *Orchestrator {
	if sink == nil {
		sink = tracelog.Discard
	}
	return &Orchestrator{
		state:     state,
		registry:  registry,
		generator: generator,
		sink:      sink,
		hooks:     noHooks{},
		logger:    zap.NewNop(),
	}
}

// WithLogger sets the logger. Returns the orchestrator for chaining.
func (o *Orchestrator) WithLogger(logger *zap.Logger) *Orchestrator {
	if logger != nil {
		o.logger = logger
	}
	return o
}

// WithHooks sets the hook dispatcher, typically a *hooks.Registry.
func (o *Orchestrator) WithHooks(h sgr.HookFirer) *Orchestrator {
	if h != nil {
		o.hooks = h
	}
	return o
}

// State returns the state the orchestrator mutates.
func (o *Orchestrator) State() sgr.State {
	return o.state
}

// RunStep runs one planning+action cycle.
//
// A plan deciding [sgr.FinalAnswer] terminates the step with its answer and dispatches
// nothing. Otherwise the chosen action must be a key of actions; its schema is generated,
// its service resolved in the registry and invoked, and the result recorded into the state.
//
// Service failures are recorded as "Error: <message>" tool results and do not fail the
// step. Every other failure is returned: gateway errors and registry errors unchanged, a
// *sgr.UnknownToolRequestedError when the action is not in actions.
func (o *Orchestrator) RunStep(
	ctx context.Context,
	planning sgr.Schema,
	actions map[sgr.ActionName]sgr.Schema,
) (result *sgr.StepResult, err error) {
	base := o.state.Base()
	start := time.Now()
	ctx, span := tracing.StartStepSpan(ctx, base.SessionID)
	defer func() {
		outcome := metrics.OutcomeError
		if err == nil {
			outcome = string(result.Action)
		}
		metrics.StepsTotal.WithLabelValues(outcome).Inc()
		o.hooks.FireAfterStep(ctx, sgr.AfterStepEvent{
			SessionID: base.SessionID,
			Result:    result,
			Err:       err,
			Duration:  time.Since(start),
		})
		tracing.EndSpan(span, err)
	}()

	// Planning phase
	plan, err := o.plan(ctx, planning)
	if err != nil {
		return nil, err
	}

	decision := plan.Decide()
	o.hooks.FireAfterPlan(ctx, sgr.AfterPlanEvent{
		SessionID: base.SessionID,
		Plan:      plan,
		Decision:  decision,
	})

	var action sgr.ActionName
	switch d := decision.(type) {
	case sgr.Finish:
		return &sgr.StepResult{Action: sgr.StepTerminate, Answer: d.Answer, Plan: plan}, nil
	case sgr.Dispatch:
		action = d.Action
	default:
		return nil, fmt.Errorf("orchestrator: unsupported decision %T", decision)
	}

	actionSchema, ok := actions[action]
	if !ok {
		return nil, &sgr.UnknownToolRequestedError{Name: action, Available: sortedNames(actions)}
	}

	// Action phase
	args, err := o.generateAction(ctx, action, actionSchema)
	if err != nil {
		return nil, err
	}

	svc, err := o.registry.Get(action)
	if err != nil {
		return nil, err
	}

	o.dispatch(ctx, svc, args)
	return &sgr.StepResult{Action: sgr.StepContinue, Plan: plan}, nil
}

// plan generates, traces and records the plan.
func (o *Orchestrator) plan(ctx context.Context, planning sgr.Schema) (sgr.PlannerPayload, error) {
	base := o.state.Base()

	messages, err := o.messages()
	if err != nil {
		return nil, err
	}
	payload, err := o.generator.Generate(ctx, planning, messages)
	if err != nil {
		return nil, err
	}
	plan, ok := payload.(sgr.PlannerPayload)
	if !ok {
		return nil, fmt.Errorf("%w: schema %s produced %T", sgr.ErrNotAPlanner, planning.Name(), payload)
	}

	if err := o.trace(ctx, tracelog.PhasePlanning, sgr.PlannerToolName, plan); err != nil {
		return nil, err
	}

	reasoning := plan.GetReasoning()
	o.logger.Info("Reasoning",
		zap.String("component", "Orchestrator"),
		zap.String("event", "Reasoning"),
		zap.String("session_id", base.SessionID),
		zap.String("analysis", reasoning.SituationAnalysis),
		zap.Float64("confidence", reasoning.Trace.Confidence),
		zap.Strings("risks", reasoning.Trace.Risks),
	)
	if reasoning.Trace.NeedsClarification() {
		o.logger.Debug("LowConfidence",
			zap.String("component", "Orchestrator"),
			zap.String("session_id", base.SessionID),
			zap.Float64("confidence", reasoning.Trace.Confidence),
		)
	}

	if err := base.AddAssistantToolCall(sgr.PlannerToolName, plan, reasoning.SituationAnalysis); err != nil {
		return nil, fmt.Errorf("orchestrator: record plan: %w", err)
	}
	return plan, nil
}

// generateAction generates and traces the action payload, returning its tool arguments.
func (o *Orchestrator) generateAction(
	ctx context.Context,
	action sgr.ActionName,
	actionSchema sgr.Schema,
) (any, error) {
	messages, err := o.messages()
	if err != nil {
		return nil, err
	}
	payload, err := o.generator.Generate(ctx, actionSchema, messages)
	if err != nil {
		return nil, err
	}
	if err := o.trace(ctx, tracelog.PhaseAction, string(action), payload); err != nil {
		return nil, err
	}

	if ap, ok := payload.(sgr.ActionPayload); ok {
		return ap.Arguments(), nil
	}
	return map[string]any{}, nil
}

// dispatch invokes svc and records its outcome. It never fails.
func (o *Orchestrator) dispatch(ctx context.Context, svc sgr.Service, args any) {
	base := o.state.Base()
	name := svc.Name()

	before := &sgr.BeforeToolCallEvent{SessionID: base.SessionID, Action: name, Args: args}
	o.hooks.FireBeforeToolCall(ctx, before)
	args = before.Args

	toolCtx, span := tracing.StartToolSpan(ctx, string(name))
	outcome := toolchain.Call(toolCtx, svc, args)
	tracing.EndSpan(span, outcome.Err)

	status := metrics.OutcomeOK
	if outcome.Failed() {
		status = metrics.OutcomeError
		o.logger.Error("ServiceError",
			zap.String("component", "Orchestrator"),
			zap.String("event", "ServiceError"),
			zap.String("session_id", base.SessionID),
			zap.String("tool", string(name)),
			zap.Error(outcome.Err),
		)
	}
	metrics.ToolCallsTotal.WithLabelValues(string(name), status).Inc()
	metrics.ToolDuration.WithLabelValues(string(name)).Observe(outcome.Duration.Seconds())

	text := outcome.Text()
	base.AddToolResult(string(name), text)

	o.hooks.FireAfterToolCall(ctx, sgr.AfterToolCallEvent{
		SessionID: base.SessionID,
		Action:    name,
		Args:      args,
		Result:    text,
		Err:       outcome.Err,
		Duration:  outcome.Duration,
	})
}

// messages builds the system framing followed by the chat history.
func (o *Orchestrator) messages() ([]sgr.Message, error) {
	canonical, err := sgr.EncodeState(o.state)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	history := o.state.Base().History()
	messages := make([]sgr.Message, 0, len(history)+1)
	messages = append(messages, sgr.Message{
		Role:    sgr.RoleSystem,
		Content: SystemPrompt + string(canonical),
	})
	return append(messages, history...), nil
}

func (o *Orchestrator) trace(
	ctx context.Context,
	phase tracelog.Phase,
	tool string,
	payload sgr.Payload,
) error {
	rec, err := tracelog.NewRecord(o.state.Base().SessionID, phase, tool, payload)
	if err != nil {
		return err
	}
	if err := o.sink.Append(ctx, rec); err != nil {
		return fmt.Errorf("orchestrator: trace %s %s: %w", phase, tool, err)
	}
	return nil
}

func sortedNames(actions map[sgr.ActionName]sgr.Schema) []sgr.ActionName {
	names := make([]sgr.ActionName, 0, len(actions))
	for name := range actions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

type noHooks struct{}

func (noHooks) FireAfterPlan(context.Context, sgr.AfterPlanEvent)            {}
func (noHooks) FireBeforeToolCall(context.Context, *sgr.BeforeToolCallEvent) {}
func (noHooks) FireAfterToolCall(context.Context, sgr.AfterToolCallEvent)    {}
func (noHooks) FireAfterStep(context.Context, sgr.AfterStepEvent)            {}
