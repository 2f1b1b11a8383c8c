package models

import (
	"encoding/json"
	"fmt"
)

// Fields converts a model into the field map stored in a document.
func Fields(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return m, nil
}

// FromFields fills out from a document's field map.
func FromFields(data map[string]any, out any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("decode %T: %w", out, err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode %T: %w", out, err)
	}
	return nil
}
