// Package schema builds and validates the JSON Schemas that structured LLM payloads must
// conform to.
//
// # Quick Start
//
//	raw := schema.Object(map[string]*schema.Property{
//	    "situation_analysis": schema.String("Step-by-step reasoning").MinLength(1),
//	    "next_step_tool_name": schema.String("Tool to call now").
//	        Enum("LookupInfo", "FinalAnswer"),
//	    "tentative_plan": schema.Array("Up to 5 steps", schema.Items("string")).MaxItems(5),
//	}, "situation_analysis", "next_step_tool_name")
//
//	compiled := schema.MustCompile(raw)
//	doc, err := compiled.ValidateJSON(modelOutput)
//
// See [Object], [Property], and the individual builder functions for details.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema pairs the raw JSON Schema map (sent to the model) with its compiled validator.
type Schema struct {
	raw      map[string]any
	compiled *jsonschema.Schema
}

// Raw returns the underlying map[string]any representation.
func (s *Schema) Raw() map[string]any {
	if s == nil {
		return nil
	}
	return s.raw
}

// Validate validates an already decoded value against the schema.
// Returns nil if valid, or a *ValidationError describing the failure.
func (s *Schema) Validate(data any) error {
	if s == nil || s.compiled == nil {
		return nil
	}
	if err := s.compiled.Validate(data); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}

// ValidateJSON parses content as a JSON document and validates it.
// The parsed document is returned so callers do not need to decode twice.
func (s *Schema) ValidateJSON(content string) (any, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(content))
	if err != nil {
		return nil, &ValidationError{Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	if err := s.Validate(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// ValidateValue marshals v to JSON and validates the result. Use it to check Go values
// built in code, e.g. a payload constructed by hand in a test.
func (s *Schema) ValidateValue(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return &ValidationError{Err: fmt.Errorf("marshal value: %w", err)}
	}
	_, err = s.ValidateJSON(string(data))
	return err
}

// ValidationError wraps a JSON Schema validation error with a cleaner message.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("schema validation failed: %v", e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Compile compiles a raw schema map into a Schema with a compiled validator.
// A nil map compiles to a nil Schema, which accepts everything.
func Compile(raw map[string]any) (*Schema, error) {
	if raw == nil {
		return nil, nil
	}

	schemaJSON, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	schemaData, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema.json", schemaData); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}

	compiled, err := c.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return &Schema{
		raw:      raw,
		compiled: compiled,
	}, nil
}

// MustCompile is like Compile but panics on error.
// Use this for schemas defined at init time.
func MustCompile(raw map[string]any) *Schema {
	s, err := Compile(raw)
	if err != nil {
		panic(err)
	}
	return s
}

// -----------------------------------------------------------------------------
// Schema Builders
// -----------------------------------------------------------------------------

// Object creates an object schema with the given properties.
// Pass property names as variadic arguments to mark them as required.
//
// Example:
//
//	schema.Object(map[string]*schema.Property{
//	    "field": schema.String("Parameter to update"),
//	    "value": schema.String("New value confirmed by the user"),
//	}, "field", "value")
func Object(properties map[string]*Property, required ...string) map[string]any {
	props := make(map[string]any, len(properties))
	for name, prop := range properties {
		props[name] = prop.build()
	}

	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}

	if len(required) > 0 {
		schema["required"] = required
	}

	return schema
}

// Items returns a minimal item schema of the given JSON type, for use with [Array].
func Items(typ string) map[string]any {
	return map[string]any{"type": typ}
}

// Property represents a property in an object schema.
type Property struct {
	typ         string
	nullable    bool
	description string
	enum        []any
	format      string
	minimum     *float64
	maximum     *float64
	minLength   *int
	maxLength   *int
	maxItems    *int
	pattern     string
	items       map[string]any
	properties  map[string]any
	required    []string
}

func (p *Property) build() map[string]any {
	m := map[string]any{}

	if p.typ != "" {
		if p.nullable {
			m["type"] = []any{p.typ, "null"}
		} else {
			m["type"] = p.typ
		}
	}
	if p.description != "" {
		m["description"] = p.description
	}
	if len(p.enum) > 0 {
		m["enum"] = p.enum
	}
	if p.format != "" {
		m["format"] = p.format
	}
	if p.minimum != nil {
		m["minimum"] = *p.minimum
	}
	if p.maximum != nil {
		m["maximum"] = *p.maximum
	}
	if p.minLength != nil {
		m["minLength"] = *p.minLength
	}
	if p.maxLength != nil {
		m["maxLength"] = *p.maxLength
	}
	if p.maxItems != nil {
		m["maxItems"] = *p.maxItems
	}
	if p.pattern != "" {
		m["pattern"] = p.pattern
	}
	if p.items != nil {
		m["items"] = p.items
	}
	if p.properties != nil {
		m["properties"] = p.properties
	}
	if len(p.required) > 0 {
		m["required"] = p.required
	}

	return m
}

// String creates a string property.
//
// Example:
//
//	schema.String("Lookup key taken verbatim from the request").MinLength(1)
//	schema.String("Next tool").Enum("LookupInfo", "FinalAnswer")
func String(description string) *Property {
	return &Property{typ: "string", description: description}
}

// Number creates a number property (floating point).
//
// Example:
//
//	schema.Number("Confidence in the chosen step").Min(0).Max(1)
func Number(description string) *Property {
	return &Property{typ: "number", description: description}
}

// Array creates an array property with the given item schema.
//
// Example:
//
//	schema.Array("Known risks", schema.Items("string"))
//	schema.Array("Plan steps", schema.Items("string")).MaxItems(5)
func Array(description string, items map[string]any) *Property {
	return &Property{typ: "array", description: description, items: items}
}

// Nested creates an object property with its own properties and required list.
//
// Example:
//
//	schema.Nested("Decision metadata", map[string]*schema.Property{
//	    "confidence": schema.Number("0.0-1.0").Min(0).Max(1),
//	    "risks":      schema.Array("Risks", schema.Items("string")),
//	}, "confidence")
func Nested(description string, properties map[string]*Property, required ...string) *Property {
	obj := Object(properties, required...)
	return &Property{
		typ:         "object",
		description: description,
		properties:  obj["properties"].(map[string]any),
		required:    required,
	}
}

// ObjectProperty wraps an already built object schema (for example one produced by
// [Object]) as a property, attaching a description.
func ObjectProperty(description string, object map[string]any) *Property {
	p := &Property{typ: "object", description: description}
	if props, ok := object["properties"].(map[string]any); ok {
		p.properties = props
	}
	switch req := object["required"].(type) {
	case []string:
		p.required = req
	case []any:
		for _, r := range req {
			if s, ok := r.(string); ok {
				p.required = append(p.required, s)
			}
		}
	}
	return p
}

// Nullable additionally allows JSON null for the property.
func (p *Property) Nullable() *Property {
	p.nullable = true
	return p
}

// Enum sets allowed values for the property.
func (p *Property) Enum(values ...any) *Property {
	p.enum = values
	return p
}

// Format sets the format for string validation.
func (p *Property) Format(format string) *Property {
	p.format = format
	return p
}

// Min sets the minimum value for number/integer properties.
func (p *Property) Min(min float64) *Property {
	p.minimum = &min
	return p
}

// Max sets the maximum value for number/integer properties.
func (p *Property) Max(max float64) *Property {
	p.maximum = &max
	return p
}

// MinLength sets the minimum length for string properties.
func (p *Property) MinLength(min int) *Property {
	p.minLength = &min
	return p
}

// MaxLength sets the maximum length for string properties.
func (p *Property) MaxLength(max int) *Property {
	p.maxLength = &max
	return p
}

// MaxItems sets the maximum number of elements for array properties.
func (p *Property) MaxItems(max int) *Property {
	p.maxItems = &max
	return p
}

// Pattern sets a regex pattern for string validation.
func (p *Property) Pattern(pattern string) *Property {
	p.pattern = pattern
	return p
}
