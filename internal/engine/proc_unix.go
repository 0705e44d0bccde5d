//go:build unix

package engine

import (
	"os/exec"
	"syscall"
)

// killProcessGroup starts the engine in its own process group and kills the
// whole group on cancel, so children of wrapper scripts go down with it.
func killProcessGroup(proc *exec.Cmd) {
	proc.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	proc.Cancel = func() error {
		return syscall.Kill(-proc.Process.Pid, syscall.SIGKILL)
	}
}
