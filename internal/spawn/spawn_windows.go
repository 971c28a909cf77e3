//go:build windows

package spawn

import (
	"os"
	"os/exec"
	"strconv"
	"syscall"
)

// sysProcAttr returns default process attributes for Windows.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}

// terminate asks the process tree to exit via taskkill. Windows has no
// SIGTERM equivalent; taskkill without /F delivers a close request.
func terminate(p *os.Process) error {
	//nolint:gosec // fixed binary name with a numeric argument
	return exec.Command("taskkill", "/PID", strconv.Itoa(p.Pid), "/T").Run()
}

// kill forcefully ends the process tree.
func kill(p *os.Process) error {
	//nolint:gosec // fixed binary name with a numeric argument
	if err := exec.Command("taskkill", "/F", "/PID", strconv.Itoa(p.Pid), "/T").Run(); err != nil {
		return p.Kill()
	}
	return nil
}

// signalName is a no-op on Windows as signals work differently.
func signalName(_ *os.ProcessState) string {
	return ""
}
