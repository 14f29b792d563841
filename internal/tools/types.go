package tools

// ToolSpec declares a function tool offered to the model. Parameters is a
// JSON Schema object passed through verbatim.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ExecResult is the trimmed stdout of a tool executor.
type ExecResult struct {
	Output string
	IsJSON bool
}
