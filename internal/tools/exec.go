package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"pai-openai/internal/llm"
	"pai-openai/internal/util"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Executor resolves tool calls by running an external command.
type Executor struct {
	logger *zap.Logger
	stderr io.Writer
}

// NewExecutor returns an Executor whose child stderr goes to the parent's stderr.
func NewExecutor(logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{logger: logger, stderr: os.Stderr}
}

// Execute runs command with the call exposed as TOOL_NAME, TOOL_ARGS and
// TOOL_CALL_ID and the raw arguments on stdin. The trimmed stdout is the
// tool's output.
func (e *Executor) Execute(ctx context.Context, command string, call llm.ToolCall) (ExecResult, error) {
	e.logger.Info("executing tool handler", zap.String("command", command), zap.String("tool", call.Name))

	cmd := util.ShellCommand(ctx, command)
	util.IsolateProcessGroup(cmd)
	cmd.Env = append(os.Environ(),
		"TOOL_NAME="+call.Name,
		"TOOL_ARGS="+call.Arguments,
		"TOOL_CALL_ID="+call.ID,
	)
	cmd.Stderr = e.stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return ExecResult{}, fmt.Errorf("tool executor stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		_ = stdin.Close()
		return ExecResult{}, fmt.Errorf("tool executor stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return ExecResult{}, fmt.Errorf("start tool executor: %w", err)
	}

	var out bytes.Buffer
	var group errgroup.Group
	group.Go(func() error {
		defer stdin.Close()
		// A handler may exit without reading its input.
		if _, err := io.WriteString(stdin, call.Arguments); err != nil {
			e.logger.Debug("tool executor did not consume stdin", zap.Error(err))
		}
		return nil
	})
	group.Go(func() error {
		_, err := io.Copy(&out, stdout)
		return err
	})
	copyErr := group.Wait()
	waitErr := cmd.Wait()

	if waitErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ExecResult{}, fmt.Errorf("tool executor: %w", ctxErr)
		}
		if exitErr := (&exec.ExitError{}); errors.As(waitErr, &exitErr) {
			return ExecResult{}, fmt.Errorf("tool executor exited with %d", exitErr.ExitCode())
		}
		return ExecResult{}, fmt.Errorf("tool executor: %w", waitErr)
	}
	if copyErr != nil {
		return ExecResult{}, fmt.Errorf("read tool executor output: %w", copyErr)
	}

	output := strings.TrimSpace(out.String())
	result := ExecResult{
		Output: output,
		IsJSON: strings.HasPrefix(output, "{") || strings.HasPrefix(output, "["),
	}
	e.logger.Debug("tool handler finished",
		zap.String("tool", call.Name),
		zap.Int("output_bytes", len(output)),
		zap.Bool("json", result.IsJSON),
		zap.String("preview", util.RedactSecrets(util.Preview(output, 200))))
	return result, nil
}
