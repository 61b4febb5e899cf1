package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CleanModelJSON normalizes a raw model payload before validation:
//   - strips markdown code fences some models wrap around JSON
//   - drops top-level null members (the prompt says omit, models still emit)
//
// It returns the cleaned bytes and the keys that were dropped. Anything that
// is not a JSON object after fence stripping is returned as-is so the schema
// validator produces the real error.
func CleanModelJSON(raw []byte) ([]byte, []string, error) {
	text := strings.TrimSpace(string(raw))
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil, fmt.Errorf("empty payload after cleanup")
	}

	var m map[string]any
	if err := json.Unmarshal([]byte(text), &m); err != nil {
		return []byte(text), nil, nil
	}

	var dropped []string
	for k, v := range m {
		if v == nil {
			delete(m, k)
			dropped = append(dropped, k)
		}
	}
	if len(dropped) == 0 {
		return []byte(text), nil, nil
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("re-encode cleaned payload: %w", err)
	}
	return out, dropped, nil
}
