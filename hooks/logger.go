package hooks

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	sgr "github.com/KulikovMichael/sgr-base-agent"
	"gopkg.in/yaml.v3"
)

// LoggerHook implements all hook interfaces and writes every event as YAML, for watching a
// session in a terminal. Nothing is truncated.
type LoggerHook struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

// NewLoggerHook creates a LoggerHook writing to w.
func NewLoggerHook(w io.Writer) *LoggerHook {
	return &LoggerHook{out: w, now: time.Now}
}

// OnAfterPlan logs the plan and the decision taken from it.
func (h *LoggerHook) OnAfterPlan(_ context.Context, e sgr.AfterPlanEvent) {
	data := map[string]any{
		"session_id": e.SessionID,
		"plan":       e.Plan,
	}
	switch d := e.Decision.(type) {
	case sgr.Finish:
		data["decision"] = map[string]any{"finish": d.Answer}
	case sgr.Dispatch:
		data["decision"] = map[string]any{"dispatch": string(d.Action)}
	}
	h.write("AfterPlan", data)
}

// OnBeforeToolCall logs the arguments about to be passed to the service.
func (h *LoggerHook) OnBeforeToolCall(_ context.Context, e *sgr.BeforeToolCallEvent) {
	h.write("BeforeToolCall: "+string(e.Action), map[string]any{
		"session_id": e.SessionID,
		"args":       e.Args,
	})
}

// OnAfterToolCall logs the service result.
func (h *LoggerHook) OnAfterToolCall(_ context.Context, e sgr.AfterToolCallEvent) {
	data := map[string]any{
		"session_id": e.SessionID,
		"result":     e.Result,
		"duration":   e.Duration.String(),
	}
	if e.Err != nil {
		data["error"] = e.Err.Error()
	}
	h.write("AfterToolCall: "+string(e.Action), data)
}

// OnAfterStep logs how the step ended.
func (h *LoggerHook) OnAfterStep(_ context.Context, e sgr.AfterStepEvent) {
	data := map[string]any{
		"session_id": e.SessionID,
		"duration":   e.Duration.String(),
	}
	if e.Result != nil {
		data["action"] = string(e.Result.Action)
		if e.Result.Terminated() {
			data["answer"] = e.Result.Answer
		}
	}
	if e.Err != nil {
		data["error"] = e.Err.Error()
	}
	h.write("AfterStep", data)
}

func (h *LoggerHook) write(name string, v any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	fmt.Fprintf(h.out, "\n>>> [%s]: %s\n", name, h.now().Format("2006-01-02 15:04:05.000"))
	data, err := yaml.Marshal(v)
	if err != nil {
		fmt.Fprintf(h.out, "(failed to marshal: %v)\n", err)
		return
	}
	_, _ = h.out.Write(data)
}

var (
	_ sgr.AfterPlanHook      = (*LoggerHook)(nil)
	_ sgr.BeforeToolCallHook = (*LoggerHook)(nil)
	_ sgr.AfterToolCallHook  = (*LoggerHook)(nil)
	_ sgr.AfterStepHook      = (*LoggerHook)(nil)
)
