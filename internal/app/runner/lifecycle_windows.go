//go:build windows

package runner

import (
	"os"
	"os/exec"
)

func configure(cmd *exec.Cmd) {}

// terminateGroup kills the process; Windows has no graceful signal for console children
func terminateGroup(proc *os.Process, force bool) error {
	return proc.Kill()
}

func signalGroup(proc *os.Process, sig os.Signal) error {
	if sig == os.Interrupt {
		return proc.Signal(sig)
	}

	return proc.Kill()
}
