package settings

import (
	"context"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadYAML writes every key of a flat YAML mapping through to the store.
// Sequence values are joined with commas, so aliases may be written as a list.
func (s *Settings) LoadYAML(ctx context.Context, r io.Reader) (int, error) {
	var doc map[string]yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return 0, nil
		}
		return 0, fmt.Errorf("parse settings yaml: %w", err)
	}

	values := make(map[string]string, len(doc))
	for key, node := range doc {
		v, err := scalarValue(&node)
		if err != nil {
			return 0, fmt.Errorf("setting %s: %w", key, err)
		}
		values[key] = v
	}

	n := 0
	for key, v := range values {
		if err := s.Set(ctx, key, v); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func scalarValue(node *yaml.Node) (string, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return "", nil
		}
		return node.Value, nil
	case yaml.SequenceNode:
		parts := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return "", fmt.Errorf("line %d: nested values are not supported", item.Line)
			}
			parts = append(parts, item.Value)
		}
		return strings.Join(parts, ","), nil
	default:
		return "", fmt.Errorf("line %d: expected a scalar or a list", node.Line)
	}
}

// DumpYAML writes every setting as a YAML mapping.
func (s *Settings) DumpYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s.All()); err != nil {
		return err
	}
	return enc.Close()
}
