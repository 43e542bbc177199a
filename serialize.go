package mcptest

import (
	"encoding/json"
	"fmt"
)

// Serializable is the capability a value can implement to control its
// snapshot form. The serializer calls Serialize and canonicalizes whatever it
// returns instead of the value itself.
type Serializable interface {
	Serialize() any
}

// Canonicalize renders a value as canonical snapshot text: JSON with
// lexicographically ordered keys and two-space indentation, stable across
// runs for identical logical content regardless of insertion order. Values
// that cannot be marshaled are rendered through their fmt stringification.
func Canonicalize(value any) (string, error) {
	if s, ok := value.(Serializable); ok {
		value = s.Serialize()
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		// Non-data values degrade to their string form, kept as valid JSON.
		encoded, err = json.Marshal(fmt.Sprint(value))
		if err != nil {
			return "", fmt.Errorf("failed to serialize value: %w", err)
		}
	}

	// The round trip through a generic value erases struct field order;
	// encoding/json emits map keys sorted.
	var normalized any
	if err := json.Unmarshal(encoded, &normalized); err != nil {
		return "", fmt.Errorf("failed to normalize value: %w", err)
	}
	canonical, err := json.MarshalIndent(normalized, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to render canonical form: %w", err)
	}
	return string(canonical), nil
}
