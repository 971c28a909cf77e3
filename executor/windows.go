package executor

import (
	"context"
	"sync"
	"time"
)

// windowsShell is the PowerShell binary name; resolution goes through PATH.
const windowsShell = "powershell"

// WindowsExecutor runs commands in a clean, profile-free PowerShell
// session. One instance may serve many concurrent calls.
type WindowsExecutor struct {
	runner   *runner
	mu       sync.RWMutex
	defaults Options
}

// WindowsConfig configures a WindowsExecutor.
type WindowsConfig struct {
	// Defaults are the instance-level execution options.
	Defaults Options

	// Grace overrides the terminate-to-kill grace window.
	Grace time.Duration
}

// NewWindowsExecutor creates a PowerShell executor.
func NewWindowsExecutor(cfg WindowsConfig) *WindowsExecutor {
	return &WindowsExecutor{
		runner:   newRunner(cfg.Grace),
		defaults: cfg.Defaults,
	}
}

// invocation builds a profile-free, non-interactive PowerShell launch.
func (e *WindowsExecutor) invocation(command string) invocation {
	return invocation{
		program: windowsShell,
		args: []string{
			"-NoProfile",
			"-NonInteractive",
			"-ExecutionPolicy", "Bypass",
			"-Command", command,
		},
		shellName: windowsShell,
	}
}

func (e *WindowsExecutor) mergedOptions(opts *Options) Options {
	e.mu.RLock()
	defaults := e.defaults
	e.mu.RUnlock()
	return MergeOptions(defaults, opts)
}

// ExecuteCapture implements Executor.
func (e *WindowsExecutor) ExecuteCapture(ctx context.Context, command string, opts *Options) (*Result, error) {
	merged := e.mergedOptions(opts)
	rn, err := e.runner.spawn(command, e.invocation(command), merged, nil)
	if err != nil {
		return nil, err
	}
	return e.runner.supervise(ctx, rn)
}

// ExecuteStreaming implements Executor.
func (e *WindowsExecutor) ExecuteStreaming(ctx context.Context, command string, opts *Options) (*Stream, error) {
	merged := e.mergedOptions(opts)
	stream := newStream()
	rn, err := e.runner.spawn(command, e.invocation(command), merged, stream)
	if err != nil {
		return nil, err
	}
	go func() {
		//nolint:errcheck // the settled value is delivered through the stream
		_, _ = e.runner.supervise(ctx, rn)
	}()
	return stream, nil
}

// Capabilities implements Executor.
func (e *WindowsExecutor) Capabilities() Capabilities {
	return Capabilities{
		Streaming:        true,
		Capture:          true,
		Timeout:          true,
		WorkingDirectory: true,
		Environment:      true,
		Encoding:         true,
		Shell:            windowsShell,
		Platform:         "windows",
	}
}

// SetWorkingDirectory implements Executor.
func (e *WindowsExecutor) SetWorkingDirectory(dir string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.defaults.WorkingDir = dir
}

// KillAll implements Executor.
func (e *WindowsExecutor) KillAll() {
	e.runner.tracker.KillAll(e.runner.grace)
}

// Destroy implements Executor.
func (e *WindowsExecutor) Destroy() error {
	e.runner.destroy()
	return nil
}

// Active returns the number of live processes, for shutdown diagnostics.
func (e *WindowsExecutor) Active() int {
	return e.runner.tracker.Len()
}
