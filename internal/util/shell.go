package util

import (
	"context"
	"os/exec"
	"runtime"
	"time"
)

// ShellWaitDelay bounds how long Wait keeps copying I/O after the shell has
// exited or been killed.
const ShellWaitDelay = 2 * time.Second

// ShellCommand runs command through the platform shell.
func ShellCommand(ctx context.Context, command string) *exec.Cmd {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "cmd", "/C", command)
	} else {
		cmd = exec.CommandContext(ctx, "sh", "-c", command)
	}
	cmd.WaitDelay = ShellWaitDelay
	return cmd
}

// IsolateProcessGroup starts cmd in its own process group and kills the whole
// group when its context is done, so children the shell spawned cannot keep
// its pipes open. It must be called before Start.
func IsolateProcessGroup(cmd *exec.Cmd) {
	setProcessGroup(cmd)
}
