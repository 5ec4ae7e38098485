package loader

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

func parseYAML(path string, data []byte) (map[string]any, error) {
	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, &ParseError{Path: path, Message: err.Error(), Err: err}
	}
	if out == nil {
		out = make(map[string]any)
	}
	normalized, err := normalizeYAML(out)
	if err != nil {
		return nil, &ParseError{Path: path, Message: err.Error(), Err: err}
	}
	return normalized.(map[string]any), nil
}

// normalizeYAML converts maps with non-string keys so that nested
// sections merge like TOML tables.
func normalizeYAML(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		for k, item := range val {
			n, err := normalizeYAML(item)
			if err != nil {
				return nil, err
			}
			val[k] = n
		}
		return val, nil
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("non-string key %v", k)
			}
			n, err := normalizeYAML(item)
			if err != nil {
				return nil, err
			}
			out[key] = n
		}
		return out, nil
	case []any:
		for i, item := range val {
			n, err := normalizeYAML(item)
			if err != nil {
				return nil, err
			}
			val[i] = n
		}
		return val, nil
	default:
		return v, nil
	}
}
