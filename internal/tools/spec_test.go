package tools

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSpec(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSpecsSingleJSONObject(t *testing.T) {
	path := writeSpec(t, "tool.json", `{
		"name": "lookup",
		"description": "Look up a ticket",
		"parameters": {"type": "object", "properties": {"id": {"type": "string"}}, "required": ["id"]}
	}`)

	specs, err := LoadSpecs(path)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "lookup", specs[0].Name)
	assert.Equal(t, "Look up a ticket", specs[0].Description)
	assert.Equal(t, "object", specs[0].Parameters["type"])
	assert.Equal(t, []any{"id"}, specs[0].Parameters["required"])
}

func TestLoadSpecsYAMLArray(t *testing.T) {
	path := writeSpec(t, "tools.yaml", `
- name: lookup
  parameters:
    type: object
    properties:
      id:
        type: string
- name: ping
`)

	specs, err := LoadSpecs(path)
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, "lookup", specs[0].Name)
	props := specs[0].Parameters["properties"].(map[string]any)
	assert.Contains(t, props, "id")
	assert.Equal(t, "ping", specs[1].Name)
	assert.Nil(t, specs[1].Parameters)
}

func TestLoadSpecsRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"missing.json":    `{"description": "no name"}`,
		"params.json":     `{"name": "x", "parameters": "string"}`,
		"scalar.json":     `42`,
		"duplicate.json":  `[{"name": "x"}, {"name": "x"}]`,
		"malformed.json":  `{"name": `,
		"description.yml": "name: x\ndescription: [1, 2]\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadSpecs(writeSpec(t, name, content))
			assert.Error(t, err)
		})
	}

	_, err := LoadSpecs(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
