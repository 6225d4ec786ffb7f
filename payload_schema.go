package sgr

import (
	"encoding/json"
	"fmt"

	"github.com/KulikovMichael/sgr-base-agent/schema"
)

// Schema describes the shape a model response must have and knows how to decode it.
//
// The Generation Gateway sends Definition to the backend as the requested response format
// and calls Decode on the raw text it gets back.
type Schema interface {
	// Name identifies the schema in logs and trace records.
	Name() string

	// Definition returns the JSON Schema as a map.
	Definition() map[string]any

	// Decode parses and validates raw model output. Any failure is returned as a
	// *SchemaValidationError.
	Decode(raw string) (Payload, error)
}

// TypedSchema is a [Schema] whose decoded payloads have the concrete type T.
type TypedSchema[T Payload] struct {
	name     string
	compiled *schema.Schema
}

// NewSchema compiles raw and returns a TypedSchema for T.
// Panics if raw is not a valid JSON Schema; schemas are expected to be declared at init time.
func NewSchema[T Payload](name string, raw map[string]any) *TypedSchema[T] {
	return &TypedSchema[T]{
		name:     name,
		compiled: schema.MustCompile(raw),
	}
}

// Name implements Schema.
func (s *TypedSchema[T]) Name() string {
	return s.name
}

// Definition implements Schema.
func (s *TypedSchema[T]) Definition() map[string]any {
	return s.compiled.Raw()
}

// Decode implements Schema.
func (s *TypedSchema[T]) Decode(raw string) (Payload, error) {
	return s.Parse(raw)
}

// Parse is the typed variant of Decode.
func (s *TypedSchema[T]) Parse(raw string) (T, error) {
	var out T
	if _, err := s.compiled.ValidateJSON(raw); err != nil {
		return out, &SchemaValidationError{Schema: s.name, Raw: raw, Err: err}
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return out, &SchemaValidationError{Schema: s.name, Raw: raw, Err: err}
	}
	return out, nil
}

// Validate checks a payload constructed in code against the schema.
func (s *TypedSchema[T]) Validate(v T) error {
	if err := s.compiled.ValidateValue(v); err != nil {
		return &SchemaValidationError{Schema: s.name, Err: err}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Standard payload schemas
// -----------------------------------------------------------------------------

// MaxPlanSteps bounds Plan.TentativePlan.
const MaxPlanSteps = 5

// reasoningProperties returns the properties every payload schema starts with.
func reasoningProperties() map[string]*schema.Property {
	return map[string]*schema.Property{
		"situation_analysis": schema.String(
			"Detailed step-by-step reasoning based on the current AgentState before any action.",
		),
		"trace": schema.Nested(
			"Structured metadata for logging (confidence + risks).",
			map[string]*schema.Property{
				"confidence": schema.Number(
					"Number 0.0-1.0 reflecting confidence in the chosen step. "+
						"Below 0.5 a clarifying question is needed.",
				).Min(0).Max(1),
				"risks": schema.Array(
					"Risks and assumptions the agent considers before acting.",
					schema.Items("string"),
				),
			},
			"confidence",
		),
	}
}

// ReasoningSchema returns the JSON Schema of the bare [Reasoning] shape.
func ReasoningSchema() map[string]any {
	return schema.Object(reasoningProperties(), "situation_analysis", "trace")
}

// NewPlannerSchema returns the planner schema whose next_step_tool_name enumeration is the
// given actions plus [FinalAnswer].
func NewPlannerSchema(actions ...ActionName) *TypedSchema[Plan] {
	return NewSchema[Plan]("Planner", PlannerDefinition(actions...))
}

// PlannerDefinition builds the raw planner JSON Schema for the given actions.
func PlannerDefinition(actions ...ActionName) map[string]any {
	enum := make([]any, 0, len(actions)+1)
	for _, a := range actions {
		if a == FinalAnswer {
			continue
		}
		enum = append(enum, string(a))
	}
	enum = append(enum, string(FinalAnswer))

	props := reasoningProperties()
	props["tentative_plan"] = schema.Array(
		fmt.Sprintf(
			"List of up to %d steps. Each step: goal + tool. The plan is recomputed every cycle.",
			MaxPlanSteps,
		),
		schema.Items("string"),
	).MaxItems(MaxPlanSteps)
	props["next_step_tool_name"] = schema.String(
		"Name of exactly ONE tool from the available actions to call right now.",
	).Enum(enum...)
	props["answer_to_user"] = schema.String(
		"Free-form answer to the user when FinalAnswer is chosen. Otherwise leave empty.",
	).Nullable()

	return schema.Object(props, "situation_analysis", "trace", "tentative_plan", "next_step_tool_name")
}

// NewActionSchema returns the schema of an [Action] whose tool_arguments follow args.
// args is an object schema, typically built with schema.Object.
func NewActionSchema[A any](name ActionName, description string, args map[string]any) *TypedSchema[Action[A]] {
	props := reasoningProperties()
	props["tool_arguments"] = schema.ObjectProperty(description, args)
	raw := schema.Object(props, "situation_analysis", "trace", "tool_arguments")
	return NewSchema[Action[A]](string(name), raw)
}
