package mcptest

import (
	"fmt"
	"sort"
	"strings"
)

// FormatToolCall renders a tool invocation as a readable signature, e.g.
// add(a=1, b=2). Arguments are ordered by key so the output is stable.
func FormatToolCall(name string, arguments map[string]any) string {
	if len(arguments) == 0 {
		return name + "()"
	}
	keys := make([]string, 0, len(arguments))
	for k := range arguments {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%#v", k, arguments[k]))
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(parts, ", "))
}

// TruncateString shortens s to at most max characters, marking the cut with
// an ellipsis.
func TruncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// DeepMerge merges override into base recursively, returning a new map.
// Nested maps merge; any other value in override wins.
func DeepMerge(base, override map[string]any) map[string]any {
	result := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		result[k] = v
	}
	for k, v := range override {
		baseMap, baseOK := result[k].(map[string]any)
		overrideMap, overrideOK := v.(map[string]any)
		if baseOK && overrideOK {
			result[k] = DeepMerge(baseMap, overrideMap)
			continue
		}
		result[k] = v
	}
	return result
}

// ValidateToolArguments shallowly checks arguments against a JSON schema:
// required fields must be present and declared property types must match the
// JSON type of the supplied value. It returns the violations, empty when
// valid.
func ValidateToolArguments(arguments, schema map[string]any) []string {
	var errs []string

	if required, ok := schema["required"].([]any); ok {
		for _, field := range required {
			name, ok := field.(string)
			if !ok {
				continue
			}
			if _, present := arguments[name]; !present {
				errs = append(errs, fmt.Sprintf("missing required argument: %s", name))
			}
		}
	}

	properties, _ := schema["properties"].(map[string]any)
	for field, value := range arguments {
		property, ok := properties[field].(map[string]any)
		if !ok {
			continue
		}
		want, ok := property["type"].(string)
		if !ok {
			continue
		}
		if got := jsonTypeOf(value); !jsonTypeMatches(want, got) {
			errs = append(errs, fmt.Sprintf("argument %q has wrong type: expected %s, got %s", field, want, got))
		}
	}
	return errs
}

// jsonTypeOf names the JSON schema type of a Go value.
func jsonTypeOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case int, int32, int64:
		return "integer"
	case float32, float64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func jsonTypeMatches(want, got string) bool {
	if want == got {
		return true
	}
	// Integers satisfy a "number" schema.
	if want == "number" && got == "integer" {
		return true
	}
	return false
}
