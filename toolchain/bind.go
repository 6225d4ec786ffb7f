package toolchain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"
)

// BindArgs converts tool arguments into the service input type I.
//
// If args already has type I it is returned as is. Otherwise args is round-tripped through
// JSON into a new I. Struct args, such as the typed arguments of a parsed action, are first
// flattened to a map. Before encoding, string values are coerced where the target field
// needs a type encoding/json cannot produce from a JSON string on its own:
//   - string -> time.Time: parsed using common date/time layouts (RFC3339, date-only, etc.)
//   - string -> time.Duration: parsed with time.ParseDuration (e.g. "1h30m")
func BindArgs[I any](args any) (I, error) {
	var input I
	if typed, ok := args.(I); ok {
		return typed, nil
	}
	if args == nil {
		return input, nil
	}

	target := reflect.TypeOf((*I)(nil)).Elem()
	m, ok := args.(map[string]any)
	if !ok {
		m, ok = toMap(args)
	}
	if ok {
		args = convertArgsForType(m, derefType(target))
	}

	data, err := json.Marshal(args)
	if err != nil {
		return input, fmt.Errorf("failed to marshal args: %w", err)
	}
	if err := json.Unmarshal(data, &input); err != nil {
		return input, fmt.Errorf("failed to unmarshal args into %s: %w", target, err)
	}
	return input, nil
}

// toMap re-encodes a struct value as a generic JSON object. Numbers are kept as json.Number.
func toMap(args any) (map[string]any, bool) {
	if derefType(reflect.TypeOf(args)).Kind() != reflect.Struct {
		return nil, false
	}
	data, err := json.Marshal(args)
	if err != nil {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil || m == nil {
		return nil, false
	}
	return m, true
}

func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// convertArgsForType converts intermediary arg values to match the Go types of the target
// struct's fields.
func convertArgsForType(args map[string]any, structType reflect.Type) map[string]any {
	if args == nil || structType.Kind() != reflect.Struct {
		return args
	}

	result := make(map[string]any, len(args))
	for key, value := range args {
		field, found := findField(structType, key)
		if !found {
			result[key] = value
			continue
		}
		result[key] = convertValueToType(value, field.Type)
	}
	return result
}

// findField finds a struct field by json tag, falling back to a case-insensitive name match.
func findField(structType reflect.Type, name string) (reflect.StructField, bool) {
	for i := range structType.NumField() {
		field := structType.Field(i)

		if tag, _, _ := strings.Cut(field.Tag.Get("json"), ","); tag != "" && tag == name {
			return field, true
		}
		if strings.EqualFold(field.Name, name) {
			return field, true
		}
	}
	return reflect.StructField{}, false
}

var (
	timeType     = reflect.TypeOf(time.Time{})
	durationType = reflect.TypeOf(time.Duration(0))
)

// convertValueToType converts a value to match the target type.
func convertValueToType(value any, targetType reflect.Type) any {
	if value == nil {
		return nil
	}

	elemType := derefType(targetType)

	switch {
	case elemType == timeType:
		if str, ok := value.(string); ok {
			if t, err := parseTime(str); err == nil {
				return t.Format(time.RFC3339Nano)
			}
		}
		return value

	case elemType == durationType:
		if str, ok := value.(string); ok {
			if d, err := time.ParseDuration(str); err == nil {
				// encoding/json decodes time.Duration from nanoseconds
				return d.Nanoseconds()
			}
		}
		return value

	case elemType.Kind() == reflect.Struct:
		if m, ok := value.(map[string]any); ok {
			return convertArgsForType(m, elemType)
		}

	case elemType.Kind() == reflect.Slice:
		if arr, ok := value.([]any); ok {
			result := make([]any, len(arr))
			for i, item := range arr {
				result[i] = convertValueToType(item, elemType.Elem())
			}
			return result
		}
	}

	return value
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// parseTime attempts to parse a time string using common layouts.
func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse time: %s", s)
}
