//go:build windows

package util

import "os/exec"

// Windows has no process groups to signal; the default Cancel kills the shell.
func setProcessGroup(cmd *exec.Cmd) {}
