// Package spawn provides the internal process invocation wrapper.
// This is the ONLY package in the entire library that imports os/exec.
// All process creation and termination MUST go through this package.
package spawn

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"
)

// IsNotFound reports whether an error means the program could not be
// located. Exposed so callers can classify spawn failures without
// importing os/exec themselves.
func IsNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound)
}

// Config contains configuration for spawning a shell process.
type Config struct {
	// Shell is the program to launch (powershell, wsl.exe, /bin/bash, ...).
	Shell string

	// Args are the shell arguments, including the command payload.
	Args []string

	// Env is the full environment in KEY=VALUE form.
	Env []string

	// Dir is the working directory. Empty means inherit.
	Dir string

	// Stdin provides input to the process.
	Stdin io.Reader

	// Stdout receives standard output. Must not be nil.
	Stdout io.Writer

	// Stderr receives standard error. Must not be nil.
	Stderr io.Writer
}

// Process is a handle to a spawned shell process. The process is reaped
// by an internal goroutine; Wait and Done never race the OS wait.
type Process struct {
	cmd     *exec.Cmd
	done    chan struct{}
	waitErr error
}

// Start launches the configured process.
func Start(cfg *Config) (*Process, error) {
	if cfg.Shell == "" {
		return nil, fmt.Errorf("spawn: shell is required")
	}

	// #nosec G204 -- the shell and argument vector are constructed by the
	// executors and gated by the security validator before reaching here.
	cmd := exec.Command(cfg.Shell, cfg.Args...)
	cmd.Env = cfg.Env
	cmd.Dir = cfg.Dir
	cmd.Stdin = cfg.Stdin
	cmd.Stdout = cfg.Stdout
	cmd.Stderr = cfg.Stderr
	cmd.SysProcAttr = sysProcAttr()

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	p := &Process{
		cmd:  cmd,
		done: make(chan struct{}),
	}

	go func() {
		p.waitErr = cmd.Wait()
		close(p.done)
	}()

	return p, nil
}

// PID returns the OS process id.
func (p *Process) PID() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// Done returns a channel closed once the process has been reaped.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the process has been reaped and returns the wait error,
// if any. Safe to call from multiple goroutines.
func (p *Process) Wait() error {
	<-p.done
	return p.waitErr
}

// ExitCode returns the process exit code, or -1 if the process has not
// exited or was terminated by a signal.
func (p *Process) ExitCode() int {
	if p.cmd.ProcessState == nil {
		return -1
	}
	return p.cmd.ProcessState.ExitCode()
}

// Signal returns the name of the signal that terminated the process,
// or the empty string.
func (p *Process) Signal() string {
	if p.cmd.ProcessState == nil {
		return ""
	}
	return signalName(p.cmd.ProcessState)
}

// Terminate asks the process (and its children) to exit gracefully.
func (p *Process) Terminate() error {
	if p.cmd.Process == nil {
		return fmt.Errorf("spawn: process not started")
	}
	return terminate(p.cmd.Process)
}

// Kill forcefully ends the process (and its children).
func (p *Process) Kill() error {
	if p.cmd.Process == nil {
		return fmt.Errorf("spawn: process not started")
	}
	return kill(p.cmd.Process)
}

// Shutdown terminates the process gracefully, escalating to a forceful
// kill if it is still alive after the grace window. It returns once the
// process has been reaped, guaranteeing no orphan remains.
func (p *Process) Shutdown(grace time.Duration) {
	//nolint:errcheck // the process may already be gone
	_ = p.Terminate()

	select {
	case <-p.done:
		return
	case <-time.After(grace):
	}

	//nolint:errcheck // kill of a just-exited process is fine
	_ = p.Kill()
	<-p.done
}
