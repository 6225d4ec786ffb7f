// Package tt provides test helpers for the sgr packages.
package tt

import (
	"context"

	sgr "github.com/KulikovMichael/sgr-base-agent"
)

// -----------------------------------------------------------------------------
// RecordingHooks - captures every step event
// -----------------------------------------------------------------------------

// RecordingHooks implements every step hook interface and records the events in order.
// Names holds one entry per event: "plan", "before_tool", "after_tool" or "step".
type RecordingHooks struct {
	Names          []string
	Plans          []sgr.AfterPlanEvent
	BeforeToolCall []sgr.BeforeToolCallEvent
	AfterToolCall  []sgr.AfterToolCallEvent
	Steps          []sgr.AfterStepEvent
}

func (h *RecordingHooks) OnAfterPlan(_ context.Context, e sgr.AfterPlanEvent) {
	h.Names = append(h.Names, "plan")
	h.Plans = append(h.Plans, e)
}

func (h *RecordingHooks) OnBeforeToolCall(_ context.Context, e *sgr.BeforeToolCallEvent) {
	h.Names = append(h.Names, "before_tool")
	h.BeforeToolCall = append(h.BeforeToolCall, *e)
}

func (h *RecordingHooks) OnAfterToolCall(_ context.Context, e sgr.AfterToolCallEvent) {
	h.Names = append(h.Names, "after_tool")
	h.AfterToolCall = append(h.AfterToolCall, e)
}

func (h *RecordingHooks) OnAfterStep(_ context.Context, e sgr.AfterStepEvent) {
	h.Names = append(h.Names, "step")
	h.Steps = append(h.Steps, e)
}

var (
	_ sgr.AfterPlanHook      = (*RecordingHooks)(nil)
	_ sgr.BeforeToolCallHook = (*RecordingHooks)(nil)
	_ sgr.AfterToolCallHook  = (*RecordingHooks)(nil)
	_ sgr.AfterStepHook      = (*RecordingHooks)(nil)
)
