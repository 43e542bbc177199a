package mcptest

import (
	"context"
	"encoding/json"
	"reflect"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Assertion helpers over a Session or a previously obtained result. Each
// either returns normally (possibly with a useful value) or fails with an
// *AssertionError whose message carries enough context to diagnose the
// failure without re-running.

// AssertToolExists checks that the server advertises a tool with the given
// name and returns it. The failure message enumerates every available tool.
func AssertToolExists(ctx context.Context, s *Session, name string) (*mcp.Tool, error) {
	tools, err := s.ListTools(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tools {
		if tools[i].Name == name {
			return &tools[i], nil
		}
	}
	return nil, assertionf("tool %q not found. Available tools: %s", name, strings.Join(toolNames(tools), ", "))
}

// AssertToolCount checks that the server advertises exactly want tools. On
// failure it reports both counts and the full name list.
func AssertToolCount(ctx context.Context, s *Session, want int) error {
	tools, err := s.ListTools(ctx)
	if err != nil {
		return err
	}
	if len(tools) != want {
		return assertionf("expected %d tools, found %d: %s", want, len(tools), strings.Join(toolNames(tools), ", "))
	}
	return nil
}

// AssertToolOutputMatches checks a tool result against an expected value.
//
// When the result carries exactly one text content item, the comparison is
// against that text; otherwise it is against the list of per-item text (or
// raw) values. If expected is a map or slice and the actual value is raw
// text, a JSON decode of the text is attempted first, falling back to raw
// comparison when the decode fails.
func AssertToolOutputMatches(result *mcp.CallToolResult, expected any) error {
	actual, err := extractOutput(result)
	if err != nil {
		return err
	}

	if isStructured(expected) {
		if text, ok := actual.(string); ok {
			var decoded any
			if jsonErr := json.Unmarshal([]byte(text), &decoded); jsonErr == nil {
				actual = decoded
			}
		}
	}

	if !jsonEqual(expected, actual) {
		return assertionf("tool output mismatch.\nExpected: %v\nActual: %v", expected, actual)
	}
	return nil
}

// AssertToolOutputMatchesPartial checks that expected is contained in the
// tool output: a key subset for maps, a substring for strings. Any other type
// combination is rejected with a clear error.
func AssertToolOutputMatchesPartial(result *mcp.CallToolResult, expected any) error {
	actual, err := extractOutput(result)
	if err != nil {
		return err
	}

	// A structured expectation against raw text compares into the decoded
	// form when the text parses as JSON.
	if expectedMap, ok := expected.(map[string]any); ok {
		actualMap, ok := actual.(map[string]any)
		if !ok {
			if text, isText := actual.(string); isText {
				var decoded map[string]any
				if jsonErr := json.Unmarshal([]byte(text), &decoded); jsonErr == nil {
					actualMap, ok = decoded, true
				}
			}
		}
		if !ok {
			return assertionf("partial matching not supported for types %T and %T", expected, actual)
		}
		for key, want := range expectedMap {
			got, present := actualMap[key]
			if !present {
				return assertionf("expected key %q not found in result. Actual: %v", key, actualMap)
			}
			if !jsonEqual(want, got) {
				return assertionf("expected %s=%v, got %s=%v", key, want, key, got)
			}
		}
		return nil
	}

	if expectedText, ok := expected.(string); ok {
		actualText, ok := actual.(string)
		if !ok {
			return assertionf("partial matching not supported for types %T and %T", expected, actual)
		}
		if !strings.Contains(actualText, expectedText) {
			return assertionf("expected substring %q not found in %q", expectedText, actualText)
		}
		return nil
	}

	return assertionf("partial matching not supported for types %T and %T", expected, actual)
}

// AssertToolReturnsError calls a tool expecting it to fail. A successful call
// is itself an assertion failure, and so is a failure whose message does not
// contain wantMessage (when non-empty); the two cases are distinguishable in
// the message. On the expected failure, the caught error is returned for
// further inspection.
func AssertToolReturnsError(ctx context.Context, s *Session, name string, arguments map[string]any, wantMessage string) (error, error) {
	_, err := s.CallTool(ctx, name, arguments)
	if err == nil {
		return nil, assertionf("tool %q was expected to return an error but succeeded", name)
	}
	if wantMessage != "" && !strings.Contains(err.Error(), wantMessage) {
		return nil, assertionf("tool %q returned an error but the message does not match.\nExpected substring: %s\nActual error: %v",
			name, wantMessage, err)
	}
	return err, nil
}

// AssertResourceExists checks that the server advertises a resource with the
// given URI. The failure message enumerates every available URI.
func AssertResourceExists(ctx context.Context, s *Session, uri string) error {
	resources, err := s.ListResources(ctx)
	if err != nil {
		return err
	}
	uris := make([]string, 0, len(resources))
	for _, r := range resources {
		if r.URI == uri {
			return nil
		}
		uris = append(uris, r.URI)
	}
	return assertionf("resource %q not found. Available resources: %s", uri, strings.Join(uris, ", "))
}

// AssertResourceContentMatches reads a resource and checks its first content
// item's text for exact equality with want.
func AssertResourceContentMatches(ctx context.Context, s *Session, uri, want string) error {
	got, err := readResourceText(ctx, s, uri)
	if err != nil {
		return err
	}
	if got != want {
		return assertionf("resource content mismatch for %q.\nExpected: %s\nActual: %s", uri, want, got)
	}
	return nil
}

// AssertResourceContentContains reads a resource and checks that want is a
// substring of its first content item's text.
func AssertResourceContentContains(ctx context.Context, s *Session, uri, want string) error {
	got, err := readResourceText(ctx, s, uri)
	if err != nil {
		return err
	}
	if !strings.Contains(got, want) {
		return assertionf("expected substring not found in resource %q.\nExpected: %s\nActual: %s", uri, want, got)
	}
	return nil
}

// AssertToolSchemaValid checks that a tool carries a non-empty name and
// description and an object input schema with a "type" field. Failures name
// the offending tool and the specific missing piece.
func AssertToolSchemaValid(tool mcp.Tool) error {
	if tool.Name == "" {
		return assertionf("tool must have a name")
	}
	if tool.Description == "" {
		return assertionf("tool %q must have a description", tool.Name)
	}

	schema, err := toolSchemaMap(tool)
	if err != nil {
		return assertionf("tool %q input schema must be an object: %v", tool.Name, err)
	}
	if len(schema) == 0 {
		return assertionf("tool %q must have an input schema", tool.Name)
	}
	if _, ok := schema["type"]; !ok {
		return assertionf("tool %q input schema must have a \"type\" field", tool.Name)
	}
	return nil
}

// AssertToolsHaveUniqueNames checks that no two advertised tools share a
// name, reporting the duplicated names on violation.
func AssertToolsHaveUniqueNames(ctx context.Context, s *Session) error {
	tools, err := s.ListTools(ctx)
	if err != nil {
		return err
	}
	return checkUniqueToolNames(tools)
}

func checkUniqueToolNames(tools []mcp.Tool) error {
	seen := make(map[string]int, len(tools))
	for _, tool := range tools {
		seen[tool.Name]++
	}
	if len(seen) == len(tools) {
		return nil
	}
	var duplicates []string
	for _, tool := range tools {
		if seen[tool.Name] > 1 {
			seen[tool.Name] = 0 // report each name once
			duplicates = append(duplicates, tool.Name)
		}
	}
	return assertionf("duplicate tool names found: %s", strings.Join(duplicates, ", "))
}

// extractOutput reduces a result to the value assertions compare against:
// the text of a single text content item, or the list of per-item values.
func extractOutput(result *mcp.CallToolResult) (any, error) {
	if result == nil || len(result.Content) == 0 {
		return nil, assertionf("tool returned no content. Result: %+v", result)
	}
	if len(result.Content) == 1 {
		if tc, ok := mcp.AsTextContent(result.Content[0]); ok {
			return tc.Text, nil
		}
		return result.Content[0], nil
	}
	items := make([]any, 0, len(result.Content))
	for _, item := range result.Content {
		if tc, ok := mcp.AsTextContent(item); ok {
			items = append(items, tc.Text)
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func readResourceText(ctx context.Context, s *Session, uri string) (string, error) {
	result, err := s.ReadResource(ctx, uri)
	if err != nil {
		return "", err
	}
	if len(result.Contents) == 0 {
		return "", assertionf("resource %q returned no content", uri)
	}
	if tc, ok := mcp.AsTextResourceContents(result.Contents[0]); ok {
		return tc.Text, nil
	}
	return "", assertionf("resource %q returned non-text content", uri)
}

func toolNames(tools []mcp.Tool) []string {
	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Name)
	}
	return names
}

// toolSchemaMap renders a tool's input schema as a generic map, whichever of
// the typed or raw schema fields is populated.
func toolSchemaMap(tool mcp.Tool) (map[string]any, error) {
	raw := []byte(tool.RawInputSchema)
	if len(raw) == 0 {
		encoded, err := json.Marshal(tool.InputSchema)
		if err != nil {
			return nil, err
		}
		raw = encoded
	}
	schema := map[string]any{}
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, err
	}
	return schema, nil
}

// isStructured reports whether a value is a mapping or sequence, the cases
// where a raw-text actual gets a JSON decode before exact comparison.
func isStructured(v any) bool {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return true
	default:
		return false
	}
}

// jsonEqual compares two values after normalizing both through JSON, so that
// e.g. int 1 and decoded float64(1) compare equal. Values that do not survive
// the round trip fall back to reflect.DeepEqual.
func jsonEqual(a, b any) bool {
	na, errA := jsonNormalize(a)
	nb, errB := jsonNormalize(b)
	if errA != nil || errB != nil {
		return reflect.DeepEqual(a, b)
	}
	return reflect.DeepEqual(na, nb)
}

func jsonNormalize(v any) (any, error) {
	encoded, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var normalized any
	if err := json.Unmarshal(encoded, &normalized); err != nil {
		return nil, err
	}
	return normalized, nil
}
