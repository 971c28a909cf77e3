package executor

import (
	"context"
	"sync"
	"time"
)

// DefaultUnixShell is used when no shell is configured.
const DefaultUnixShell = "/bin/bash"

// wslLauncher is the Windows-side WSL entry point.
const wslLauncher = "wsl.exe"

// UnixExecutor runs commands through a Unix shell. One implementation
// serves both Unix-like cases: on a Windows host targeting WSL it shells
// out through the WSL launcher into bash; on native Unix hosts it invokes
// the configured shell directly. Both paths funnel through a single
// `-c <command>` invocation.
type UnixExecutor struct {
	runner   *runner
	shell    string
	viaWSL   bool
	inWSL    bool
	distro   string
	mu       sync.RWMutex
	defaults Options
}

// UnixConfig configures a UnixExecutor.
type UnixConfig struct {
	// Shell is the native shell path. Defaults to /bin/bash.
	Shell string

	// ViaWSL routes commands through wsl.exe (Windows host, WSL target).
	ViaWSL bool

	// InWSL marks the host itself as running inside WSL. It affects the
	// reported identity only; commands run through the native shell.
	InWSL bool

	// Distro selects the WSL distribution; empty means the default one.
	Distro string

	// Defaults are the instance-level execution options.
	Defaults Options

	// Grace overrides the terminate-to-kill grace window.
	Grace time.Duration
}

// NewUnixExecutor creates a WSL/Unix executor.
func NewUnixExecutor(cfg UnixConfig) *UnixExecutor {
	shell := cfg.Shell
	if shell == "" {
		shell = DefaultUnixShell
	}
	return &UnixExecutor{
		runner:   newRunner(cfg.Grace),
		shell:    shell,
		viaWSL:   cfg.ViaWSL,
		inWSL:    cfg.InWSL,
		distro:   cfg.Distro,
		defaults: cfg.Defaults,
	}
}

// invocation builds the shell launch for one command.
func (e *UnixExecutor) invocation(command string) invocation {
	if e.viaWSL {
		args := make([]string, 0, 6)
		if e.distro != "" {
			args = append(args, "-d", e.distro)
		}
		args = append(args, "--", "bash", "-c", command)
		return invocation{
			program:   wslLauncher,
			args:      args,
			shellName: "bash (wsl)",
		}
	}

	return invocation{
		program:   e.shell,
		args:      []string{"-c", command},
		shellName: e.shell,
	}
}

func (e *UnixExecutor) mergedOptions(opts *Options) Options {
	e.mu.RLock()
	defaults := e.defaults
	e.mu.RUnlock()
	return MergeOptions(defaults, opts)
}

// ExecuteCapture implements Executor.
func (e *UnixExecutor) ExecuteCapture(ctx context.Context, command string, opts *Options) (*Result, error) {
	merged := e.mergedOptions(opts)
	rn, err := e.runner.spawn(command, e.invocation(command), merged, nil)
	if err != nil {
		return nil, err
	}
	return e.runner.supervise(ctx, rn)
}

// ExecuteStreaming implements Executor.
func (e *UnixExecutor) ExecuteStreaming(ctx context.Context, command string, opts *Options) (*Stream, error) {
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
func (e *UnixExecutor) Capabilities() Capabilities {
	shell := e.shell
	platform := "unix"
	if e.viaWSL {
		shell = "bash (wsl)"
	}
	if e.viaWSL || e.inWSL {
		platform = "wsl"
	}
	return Capabilities{
		Streaming:        true,
		Capture:          true,
		Timeout:          true,
		WorkingDirectory: true,
		Environment:      true,
		Encoding:         true,
		Shell:            shell,
		Platform:         platform,
		WSL:              e.viaWSL || e.inWSL,
	}
}

// SetWorkingDirectory implements Executor.
func (e *UnixExecutor) SetWorkingDirectory(dir string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.defaults.WorkingDir = dir
}

// KillAll implements Executor.
func (e *UnixExecutor) KillAll() {
	e.runner.tracker.KillAll(e.runner.grace)
}

// Destroy implements Executor.
func (e *UnixExecutor) Destroy() error {
	e.runner.destroy()
	return nil
}

// Active returns the number of live processes, for shutdown diagnostics.
func (e *UnixExecutor) Active() int {
	return e.runner.tracker.Len()
}
