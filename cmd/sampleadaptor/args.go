package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// loadJSONArg parses a CLI data argument that is either an inline JSON
// object or a "file://path" reference to one, per spec.md §6's
// "--init-data/--path-mapping-rules/--run-data <JSON|file://>" convention.
// An empty string yields an empty map, matching the original's default.
func loadJSONArg(value string) (map[string]any, error) {
	if value == "" {
		return map[string]any{}, nil
	}

	var raw []byte
	if path, ok := strings.CutPrefix(value, "file://"); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", value, err)
		}
		raw = data
	} else {
		raw = []byte(value)
	}

	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to parse %q as a JSON object: %w", value, err)
	}
	return out, nil
}
