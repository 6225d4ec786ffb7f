package sgr

import "encoding/json"

// ActionName identifies an action the planner may choose for the next step.
type ActionName string

// FinalAnswer is the reserved terminal action name. Choosing it ends the task and returns
// Plan.AnswerToUser to the caller instead of dispatching a tool.
const FinalAnswer ActionName = "FinalAnswer"

// PlannerToolName is the tool name under which plans are recorded in the chat history.
const PlannerToolName = "Planner"

// Payload is any schema-validated object produced by the model.
//
// Every payload embeds [Reasoning], so the analysis and decision trace are always present.
type Payload interface {
	GetReasoning() Reasoning
}

// Reasoning is the base shape shared by all structured payloads.
type Reasoning struct {
	// SituationAnalysis is the model's step-by-step rationale, based on the current state.
	SituationAnalysis string `json:"situation_analysis" yaml:"situation_analysis"`

	// Trace carries structured metadata about the decision for audit logging.
	Trace DecisionTrace `json:"trace" yaml:"trace"`
}

// GetReasoning implements Payload.
func (r Reasoning) GetReasoning() Reasoning {
	return r
}

// DecisionTrace describes how confident the model is and what it is worried about.
type DecisionTrace struct {
	// Confidence is in [0, 1].
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Risks lists the risks and assumptions considered before acting, in order.
	Risks []string `json:"risks" yaml:"risks"`
}

type decisionTrace DecisionTrace

// MarshalJSON encodes nil Risks as an empty list so the trace always matches its schema.
func (t DecisionTrace) MarshalJSON() ([]byte, error) {
	if t.Risks == nil {
		t.Risks = []string{}
	}
	return json.Marshal(decisionTrace(t))
}

// UnmarshalJSON decodes a trace, leaving Risks empty rather than nil when omitted.
func (t *DecisionTrace) UnmarshalJSON(data []byte) error {
	var dt decisionTrace
	if err := json.Unmarshal(data, &dt); err != nil {
		return err
	}
	if dt.Risks == nil {
		dt.Risks = []string{}
	}
	*t = DecisionTrace(dt)
	return nil
}

// ClarificationThreshold is the confidence below which the caller should ask the user for
// clarification. It is advisory and never enforced by the schema.
const ClarificationThreshold = 0.5

// NeedsClarification reports whether the confidence is below [ClarificationThreshold].
func (t DecisionTrace) NeedsClarification() bool {
	return t.Confidence < ClarificationThreshold
}

// Plan is the planner payload: a short tentative plan plus the single action to run now.
type Plan struct {
	Reasoning `yaml:",inline"`

	// TentativePlan holds up to 5 steps and is recomputed every cycle.
	TentativePlan []string `json:"tentative_plan" yaml:"tentative_plan"`

	// NextStepToolName is one of the registered actions or [FinalAnswer].
	NextStepToolName ActionName `json:"next_step_tool_name" yaml:"next_step_tool_name"`

	// AnswerToUser is only meaningful when NextStepToolName is [FinalAnswer].
	AnswerToUser *string `json:"answer_to_user,omitempty" yaml:"answer_to_user,omitempty"`
}

// Decide implements PlannerPayload.
func (p Plan) Decide() Decision {
	if p.NextStepToolName == FinalAnswer {
		var answer string
		if p.AnswerToUser != nil {
			answer = *p.AnswerToUser
		}
		return Finish{Answer: answer}
	}
	return Dispatch{Action: p.NextStepToolName}
}

// PlannerPayload is implemented by payloads that can drive a step. Domain planners may embed
// [Plan] or implement Decide themselves.
type PlannerPayload interface {
	Payload
	Decide() Decision
}

// Decision is the planner's choice for the current step. It is either [Finish] or
// [Dispatch]; the set is closed so a type switch over it is exhaustive.
type Decision interface {
	isDecision()
}

// Finish terminates the task with an answer for the user (possibly empty).
type Finish struct {
	Answer string
}

// Dispatch asks the orchestrator to run the named action.
type Dispatch struct {
	Action ActionName
}

func (Finish) isDecision()   {}
func (Dispatch) isDecision() {}

// Action is the payload for a single action: reasoning plus tool-specific arguments.
type Action[A any] struct {
	Reasoning `yaml:",inline"`

	ToolArguments A `json:"tool_arguments" yaml:"tool_arguments"`
}

// Arguments implements ActionPayload.
func (a Action[A]) Arguments() any {
	return a.ToolArguments
}

// ActionPayload is implemented by payloads that carry arguments for a service call.
type ActionPayload interface {
	Payload
	Arguments() any
}

// Compile-time checks.
var (
	_ PlannerPayload = Plan{}
	_ ActionPayload  = Action[struct{}]{}
)
