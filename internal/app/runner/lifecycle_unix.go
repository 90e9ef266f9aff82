//go:build !windows

package runner

import (
	"os"
	"os/exec"
	"syscall"
)

// configure places the command in its own process group
func configure(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// terminateGroup sends SIGTERM (or SIGKILL when forced) to the process group, falling back to the process
func terminateGroup(proc *os.Process, force bool) error {
	sig := syscall.SIGTERM
	if force {
		sig = syscall.SIGKILL
	}

	return signalGroup(proc, sig)
}

func signalGroup(proc *os.Process, sig os.Signal) error {
	s, ok := sig.(syscall.Signal)
	if !ok {
		return proc.Signal(sig)
	}

	if err := syscall.Kill(-proc.Pid, s); err != nil {
		return proc.Signal(sig)
	}

	return nil
}
