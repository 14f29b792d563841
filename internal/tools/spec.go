package tools

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadSpecs reads tool specs from a JSON or YAML file holding either one
// spec object or an array of them.
func LoadSpecs(path string) ([]ToolSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tool spec: %w", err)
	}

	var doc any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("parse tool spec %s: %w", path, err)
	}

	var items []any
	switch v := doc.(type) {
	case []any:
		items = v
	case map[string]any:
		items = []any{v}
	default:
		return nil, fmt.Errorf("tool spec %s: expected an object or an array of objects", path)
	}

	specs := make([]ToolSpec, 0, len(items))
	seen := map[string]struct{}{}
	for i, item := range items {
		spec, err := decodeSpec(item)
		if err != nil {
			return nil, fmt.Errorf("tool spec %s entry %d: %w", path, i, err)
		}
		if _, dup := seen[spec.Name]; dup {
			return nil, fmt.Errorf("tool spec %s: duplicate tool %q", path, spec.Name)
		}
		seen[spec.Name] = struct{}{}
		specs = append(specs, spec)
	}
	return specs, nil
}

func decodeSpec(item any) (ToolSpec, error) {
	fields, ok := item.(map[string]any)
	if !ok {
		return ToolSpec{}, fmt.Errorf("expected an object")
	}
	name, _ := fields["name"].(string)
	name = strings.TrimSpace(name)
	if name == "" {
		return ToolSpec{}, fmt.Errorf("name is required")
	}
	spec := ToolSpec{Name: name}
	if raw, ok := fields["description"]; ok && raw != nil {
		description, ok := raw.(string)
		if !ok {
			return ToolSpec{}, fmt.Errorf("tool %q: description must be a string", name)
		}
		spec.Description = description
	}
	if raw, ok := fields["parameters"]; ok && raw != nil {
		parameters, ok := raw.(map[string]any)
		if !ok {
			return ToolSpec{}, fmt.Errorf("tool %q: parameters must be an object", name)
		}
		spec.Parameters = parameters
	}
	return spec, nil
}
