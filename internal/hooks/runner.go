package hooks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"

	"pai-openai/internal/util"

	"go.uber.org/zap"
	"golang.org/x/term"
)

// Runner runs user hook commands with inherited stdio.
type Runner struct {
	logger *zap.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// NewRunner returns a Runner wired to the process's stdio.
func NewRunner(logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger, stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
}

// Run executes command through the platform shell with env overlaid on the
// current environment.
func (r *Runner) Run(ctx context.Context, command string, env map[string]string) error {
	r.logger.Debug("running hook",
		zap.String("command", command),
		zap.Strings("env", util.RedactEnv(env, 120)))

	cmd := util.ShellCommand(ctx, command)
	// A hook reading the terminal must stay in the foreground group.
	if !isTerminal(r.stdin) {
		util.IsolateProcessGroup(cmd)
	}
	cmd.Env = mergeEnv(os.Environ(), env)
	cmd.Stdin = r.stdin
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr

	if err := cmd.Run(); err != nil {
		if exitErr := (&exec.ExitError{}); errors.As(err, &exitErr) {
			return fmt.Errorf("hook failed (%s) with exit code %d", command, exitErr.ExitCode())
		}
		return fmt.Errorf("run hook (%s): %w", command, err)
	}
	return nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// mergeEnv appends overlay entries after base so they take precedence.
func mergeEnv(base []string, overlay map[string]string) []string {
	keys := make([]string, 0, len(overlay))
	for key := range overlay {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	merged := append([]string(nil), base...)
	for _, key := range keys {
		merged = append(merged, key+"="+overlay[key])
	}
	return merged
}
