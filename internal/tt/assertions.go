package tt

import (
	"testing"

	sgr "github.com/KulikovMichael/sgr-base-agent"
	"github.com/stretchr/testify/assert"
)

// -----------------------------------------------------------------------------
// Payload builders
// -----------------------------------------------------------------------------

// Reasoning builds a schema-valid Reasoning.
func Reasoning(analysis string, confidence float64, risks ...string) sgr.Reasoning {
	if risks == nil {
		risks = []string{}
	}
	return sgr.Reasoning{
		SituationAnalysis: analysis,
		Trace:             sgr.DecisionTrace{Confidence: confidence, Risks: risks},
	}
}

// PlanFor builds a plan that dispatches action.
func PlanFor(action sgr.ActionName, analysis string) sgr.Plan {
	return sgr.Plan{
		Reasoning:        Reasoning(analysis, 0.9),
		TentativePlan:    []string{"call " + string(action)},
		NextStepToolName: action,
	}
}

// FinalPlan builds a plan that terminates with answer.
func FinalPlan(answer string) sgr.Plan {
	return sgr.Plan{
		Reasoning:        Reasoning("All needed data is available.", 0.95),
		TentativePlan:    []string{},
		NextStepToolName: sgr.FinalAnswer,
		AnswerToUser:     &answer,
	}
}

// ActionFor builds an action payload with the given arguments.
func ActionFor[A any](analysis string, args A) sgr.Action[A] {
	return sgr.Action[A]{
		Reasoning:     Reasoning(analysis, 0.9),
		ToolArguments: args,
	}
}

// -----------------------------------------------------------------------------
// History assertions
// -----------------------------------------------------------------------------

// AssertRoles asserts the chat history roles, in order.
func AssertRoles(t *testing.T, state sgr.State, expected ...sgr.Role) {
	t.Helper()
	history := state.Base().ChatHistory
	roles := make([]sgr.Role, len(history))
	for i, m := range history {
		roles[i] = m.Role
	}
	assert.Equal(t, expected, roles)
}

// AssertToolCalls asserts the names of the assistant tool calls in the history, in order.
func AssertToolCalls(t *testing.T, state sgr.State, expected ...string) {
	t.Helper()
	var names []string
	for _, m := range state.Base().ChatHistory {
		if m.Role == sgr.RoleAssistant && m.ToolCall != nil {
			names = append(names, m.ToolCall.Name)
		}
	}
	assert.Equal(t, expected, names)
}
