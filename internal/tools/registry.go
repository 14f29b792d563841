package tools

import (
	"sort"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/responses"
)

// Registry stores declared tool specs in declaration order.
type Registry struct {
	specs map[string]ToolSpec
	order []string
}

// NewRegistry builds a registry from specs. A repeated name replaces the
// earlier spec but keeps its position.
func NewRegistry(specs ...ToolSpec) *Registry {
	reg := &Registry{specs: map[string]ToolSpec{}}
	for _, spec := range specs {
		if _, ok := reg.specs[spec.Name]; !ok {
			reg.order = append(reg.order, spec.Name)
		}
		reg.specs[spec.Name] = spec
	}
	return reg
}

// LoadRegistry loads specs from path. An empty path yields an empty registry.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return NewRegistry(), nil
	}
	specs, err := LoadSpecs(path)
	if err != nil {
		return nil, err
	}
	return NewRegistry(specs...), nil
}

// Len returns the number of declared tools.
func (r *Registry) Len() int {
	return len(r.order)
}

// Get returns a spec by name.
func (r *Registry) Get(name string) (ToolSpec, bool) {
	spec, ok := r.specs[name]
	return spec, ok
}

// Names returns sorted tool names.
func (r *Registry) Names() []string {
	names := append([]string(nil), r.order...)
	sort.Strings(names)
	return names
}

// ResponseTools converts specs to Responses API function tools.
func (r *Registry) ResponseTools() []responses.ToolUnionParam {
	var defs []responses.ToolUnionParam
	for _, name := range r.order {
		spec := r.specs[name]
		parameters := spec.Parameters
		if parameters == nil {
			parameters = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		tool := responses.ToolParamOfFunction(spec.Name, parameters, false)
		if spec.Description != "" {
			tool.OfFunction.Description = openai.String(spec.Description)
		}
		defs = append(defs, tool)
	}
	return defs
}
