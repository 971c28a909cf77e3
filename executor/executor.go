package executor

import "context"

// Executor is the shared contract of the platform executors. Exactly one
// OS process is spawned per execute call, and each call settles exactly
// once: a result, or one normalized error.
type Executor interface {
	// ExecuteCapture runs a command, buffering all output, and settles
	// once the process has fully terminated.
	ExecuteCapture(ctx context.Context, command string, opts *Options) (*Result, error)

	// ExecuteStreaming runs a command and exposes incremental output
	// events before final settlement via the returned Stream.
	ExecuteStreaming(ctx context.Context, command string, opts *Options) (*Stream, error)

	// Capabilities reports the executor's supported modes and identity.
	Capabilities() Capabilities

	// SetWorkingDirectory updates the executor's default working
	// directory for subsequent calls.
	SetWorkingDirectory(dir string)

	// KillAll forcefully terminates every live process spawned by this
	// executor, escalating from graceful terminate to kill.
	KillAll()

	// Destroy kills all live processes and rejects further calls.
	Destroy() error
}

// Capabilities describes what an executor supports and where it runs.
type Capabilities struct {
	// Streaming indicates streaming-mode support.
	Streaming bool

	// Capture indicates capture-mode support.
	Capture bool

	// Timeout indicates per-call timeout support.
	Timeout bool

	// WorkingDirectory indicates per-call working directory support.
	WorkingDirectory bool

	// Environment indicates environment override support.
	Environment bool

	// Encoding indicates the encoding option is honored as a label.
	Encoding bool

	// Shell names the active shell.
	Shell string

	// Platform is the executor's platform identity.
	Platform string

	// WSL reports whether commands actually execute inside WSL.
	WSL bool
}
