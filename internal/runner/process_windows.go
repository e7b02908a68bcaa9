//go:build windows

package runner

import "os/exec"

// setProcessGroup is a no-op on Windows; CommandContext termination uses
// TerminateProcess directly.
func setProcessGroup(cmd *exec.Cmd) {}

func killProcessGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}
