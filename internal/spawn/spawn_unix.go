//go:build unix

package spawn

import (
	"os"
	"syscall"
)

// sysProcAttr returns default process attributes for Unix systems.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		// Create a new process group so termination reaches all children.
		Setpgid: true,
		Pgid:    0,
	}
}

// terminate sends SIGTERM to the process group.
func terminate(p *os.Process) error {
	if err := syscall.Kill(-p.Pid, syscall.SIGTERM); err != nil {
		// Process group may be gone; fall back to the process itself.
		return p.Signal(syscall.SIGTERM)
	}
	return nil
}

// kill sends SIGKILL to the process group.
func kill(p *os.Process) error {
	if err := syscall.Kill(-p.Pid, syscall.SIGKILL); err != nil {
		return p.Kill()
	}
	return nil
}

// signalName extracts the terminating signal name, if any.
func signalName(state *os.ProcessState) string {
	if ws, ok := state.Sys().(syscall.WaitStatus); ok {
		if ws.Signaled() {
			return ws.Signal().String()
		}
	}
	return ""
}
