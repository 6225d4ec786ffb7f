package hooks

import (
	"context"
	"testing"

	sgr "github.com/KulikovMichael/sgr-base-agent"
	"github.com/stretchr/testify/assert"
)

type recordingHook struct {
	name  string
	calls *[]string
}

func (h *recordingHook) OnAfterPlan(_ context.Context, e sgr.AfterPlanEvent) {
	*h.calls = append(*h.calls, h.name+":plan:"+e.SessionID)
}

func (h *recordingHook) OnAfterToolCall(_ context.Context, e sgr.AfterToolCallEvent) {
	*h.calls = append(*h.calls, h.name+":tool:"+string(e.Action))
}

type argsRewriter struct{}

func (argsRewriter) OnBeforeToolCall(_ context.Context, e *sgr.BeforeToolCallEvent) {
	e.Args = map[string]any{"context_key": "rewritten"}
}

type stepHook struct {
	results []*sgr.StepResult
}

func (h *stepHook) OnAfterStep(_ context.Context, e sgr.AfterStepEvent) {
	h.results = append(h.results, e.Result)
}

func TestRegistry_DispatchesInRegistrationOrder(t *testing.T) {
	var calls []string
	r := NewRegistry().
		Register(&recordingHook{name: "first", calls: &calls}).
		Register(&recordingHook{name: "second", calls: &calls})

	ctx := context.Background()
	r.FireAfterPlan(ctx, sgr.AfterPlanEvent{SessionID: "s1"})
	r.FireAfterToolCall(ctx, sgr.AfterToolCallEvent{Action: "LookupInfo"})

	assert.Equal(t, []string{
		"first:plan:s1",
		"second:plan:s1",
		"first:tool:LookupInfo",
		"second:tool:LookupInfo",
	}, calls)
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_SkipsHooksWithoutInterface(t *testing.T) {
	sh := &stepHook{}
	r := NewRegistry().Register(struct{}{}).Register(sh)

	ctx := context.Background()
	result := &sgr.StepResult{Action: sgr.StepContinue}
	r.FireAfterPlan(ctx, sgr.AfterPlanEvent{})
	r.FireAfterStep(ctx, sgr.AfterStepEvent{Result: result})

	assert.Equal(t, []*sgr.StepResult{result}, sh.results)
}

func TestRegistry_BeforeToolCallCanRewriteArgs(t *testing.T) {
	r := NewRegistry().Register(argsRewriter{})

	event := &sgr.BeforeToolCallEvent{
		Action: "LookupInfo",
		Args:   map[string]any{"context_key": "order-42"},
	}
	r.FireBeforeToolCall(context.Background(), event)

	assert.Equal(t, map[string]any{"context_key": "rewritten"}, event.Args)
}
