package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"pai-openai/internal/adapter"
	"pai-openai/internal/config"
	"pai-openai/internal/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestApp(cfg config.Config, stdin string) (*app, *bytes.Buffer) {
	var stdout bytes.Buffer
	if cfg.Model == "" {
		cfg.Model = config.DefaultModel
	}
	return &app{
		cfg:    cfg,
		logger: zap.NewNop(),
		stdin:  strings.NewReader(stdin),
		stdout: &stdout,
		mock:   true,
	}, &stdout
}

func TestResolvePrompt(t *testing.T) {
	promptFile := filepath.Join(t.TempDir(), "prompt.md")
	require.NoError(t, os.WriteFile(promptFile, []byte("from file\n\n"), 0o644))

	t.Run("argument wins and stdin becomes context", func(t *testing.T) {
		a, _ := newTestApp(config.Config{PromptFile: promptFile, Stdin: true}, "diff --git\n")
		prompt, stdinText, err := a.resolvePrompt([]string{"write", "tests"})
		require.NoError(t, err)
		assert.Equal(t, "write tests", prompt)
		assert.Equal(t, "diff --git", stdinText)
	})
	t.Run("file is trimmed", func(t *testing.T) {
		a, _ := newTestApp(config.Config{PromptFile: promptFile}, "ignored")
		prompt, stdinText, err := a.resolvePrompt(nil)
		require.NoError(t, err)
		assert.Equal(t, "from file", prompt)
		assert.Empty(t, stdinText)
	})
	t.Run("stdin is the prompt when nothing else is given", func(t *testing.T) {
		a, _ := newTestApp(config.Config{Stdin: true}, "piped prompt\n")
		prompt, stdinText, err := a.resolvePrompt(nil)
		require.NoError(t, err)
		assert.Equal(t, "piped prompt", prompt)
		assert.Empty(t, stdinText)
	})
	t.Run("terminal stdin is not read", func(t *testing.T) {
		a, _ := newTestApp(config.Config{Stdin: true}, "typed")
		a.stdinTerminal = true
		_, _, err := a.resolvePrompt(nil)
		assert.ErrorIs(t, err, errNoPrompt)
	})
	t.Run("missing prompt file", func(t *testing.T) {
		a, _ := newTestApp(config.Config{PromptFile: filepath.Join(t.TempDir(), "absent.md")}, "")
		_, _, err := a.resolvePrompt([]string{"x"})
		assert.Error(t, err)
	})
}

func TestRunRequiresCredential(t *testing.T) {
	a, stdout := newTestApp(config.Config{}, "")
	code, err := a.run(context.Background(), []string{"hello"})
	assert.ErrorIs(t, err, adapter.ErrMissingCredential)
	assert.Equal(t, adapter.ExitFailure, code)
	assert.Empty(t, stdout.String())
}

func TestRunWritesOutputAndRunsHooks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("hooks use sh")
	}
	dir := t.TempDir()
	contextFile := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(contextFile, []byte("# Notes\n"), 0o644))
	outFile := filepath.Join(dir, "out.json")
	preMarker := filepath.Join(dir, "pre.txt")
	postMarker := filepath.Join(dir, "post.txt")

	a, stdout := newTestApp(config.Config{
		APIKey:          "sk-test",
		JSONMode:        true,
		Timeout:         config.DefaultTimeout,
		ContextGlobs:    []string{filepath.Join(dir, "*.md")},
		MaxContextBytes: 4096,
		MaxFileBytes:    1024,
		OutFile:         outFile,
		PreHook:         `printf '%s|%s' "$MODEL" "$CONTEXT_PATHS" > ` + preMarker,
		PostHook:        `printf '%s|%s|%s' "$EXIT_CODE" "$OUTPUT_FILE" "${TOOL_NAME-unset}" > ` + postMarker,
	}, "")

	code, err := a.run(context.Background(), []string{"summarize"})
	require.NoError(t, err)
	assert.Equal(t, adapter.ExitOK, code)

	var answer map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &answer))
	assert.Equal(t, "summarize", answer["prompt"])
	assert.NotZero(t, answer["context_bytes"])

	written, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Equal(t, stdout.String(), string(written))

	pre, err := os.ReadFile(preMarker)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultModel+"|"+contextFile, string(pre))

	post, err := os.ReadFile(postMarker)
	require.NoError(t, err)
	assert.Equal(t, "0|"+outFile+"|unset", string(post))
}

func TestRunPrintsPendingTool(t *testing.T) {
	specPath := filepath.Join(t.TempDir(), "tools.json")
	require.NoError(t, os.WriteFile(specPath, []byte(`{"name":"whoami","description":"Report the current user"}`), 0o644))

	a, stdout := newTestApp(config.Config{
		APIKey:   "sk-test",
		Stream:   true,
		Timeout:  config.DefaultTimeout,
		ToolSpec: specPath,
	}, "")

	code, err := a.run(context.Background(), []string{"who", "am", "i"})
	require.NoError(t, err)
	assert.Equal(t, adapter.ExitNeedsTool, code)

	out := stdout.String()
	require.True(t, strings.HasPrefix(out, "\n"), "unexpected output %q", out)
	var tool llm.ToolCall
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &tool))
	assert.Equal(t, "whoami", tool.Name)
	assert.Equal(t, "call_mock_1", tool.ID)
	assert.Contains(t, out, "\n  \"name\": \"whoami\",\n")
}

func TestRunResolvesToolWithExecutor(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("tool executor uses sh")
	}
	specPath := filepath.Join(t.TempDir(), "tools.json")
	require.NoError(t, os.WriteFile(specPath, []byte(`[{"name":"whoami"}]`), 0o644))

	a, stdout := newTestApp(config.Config{
		APIKey:   "sk-test",
		Timeout:  config.DefaultTimeout,
		ToolSpec: specPath,
		ToolExec: `printf 'tester'`,
	}, "")

	code, err := a.run(context.Background(), []string{"who am i"})
	require.NoError(t, err)
	assert.Equal(t, adapter.ExitOK, code)
	assert.Equal(t, "Mock follow-up for call_mock_1: tester", stdout.String())
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 10, exitCode(&exitError{code: 10}))
	assert.Equal(t, 1, exitCode(assert.AnError))
}
