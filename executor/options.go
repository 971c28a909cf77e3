// Package executor provides the platform executors and the shared
// execution contract: options, results, streaming, process tracking,
// and the normalized error taxonomy.
package executor

import "time"

// Default resource limits applied when options leave them unset.
const (
	// DefaultTimeout bounds a single command execution.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBufferSize caps accumulated stdout at 1 MiB.
	DefaultMaxBufferSize = 1 << 20

	// DefaultEncoding is the declared output encoding.
	DefaultEncoding = "utf-8"

	// DefaultGraceWindow is how long a terminated process gets to exit
	// before the forceful kill.
	DefaultGraceWindow = 5 * time.Second
)

// Options configures a single execution call. Values are merged with the
// executor defaults per call and never mutated afterward.
type Options struct {
	// Timeout is the maximum execution time. Zero means the default.
	Timeout time.Duration

	// MaxBufferSize caps accumulated stdout in bytes. Zero means the
	// default; exceeding it terminates the process.
	MaxBufferSize int

	// WorkingDir is the working directory for the command.
	WorkingDir string

	// Encoding is the declared output encoding. Output bytes are passed
	// through verbatim; this is a capability label, not a transcoder.
	Encoding string

	// Env contains environment overrides merged over the host environment.
	Env map[string]string

	// AllowDestructive bypasses security validation for this call.
	AllowDestructive bool

	// ContinueOnError makes batch execution attempt every command instead
	// of stopping at the first failure.
	ContinueOnError bool

	// IgnoreExitCode resolves the call successfully regardless of the
	// process exit code.
	IgnoreExitCode bool
}

// DefaultOptions returns the built-in option defaults.
func DefaultOptions() Options {
	return Options{
		Timeout:       DefaultTimeout,
		MaxBufferSize: DefaultMaxBufferSize,
		Encoding:      DefaultEncoding,
	}
}

// MergeOptions merges a per-call override over instance defaults and
// returns the effective options. A nil override returns the defaults
// unchanged. Unset scalar fields inherit from defaults; boolean flags are
// OR-ed so an explicit true on either side wins; environment maps merge
// with the override taking precedence.
func MergeOptions(defaults Options, override *Options) Options {
	merged := defaults

	if merged.Timeout == 0 {
		merged.Timeout = DefaultTimeout
	}
	if merged.MaxBufferSize == 0 {
		merged.MaxBufferSize = DefaultMaxBufferSize
	}
	if merged.Encoding == "" {
		merged.Encoding = DefaultEncoding
	}

	if override == nil {
		return merged
	}

	if override.Timeout > 0 {
		merged.Timeout = override.Timeout
	}
	if override.MaxBufferSize > 0 {
		merged.MaxBufferSize = override.MaxBufferSize
	}
	if override.WorkingDir != "" {
		merged.WorkingDir = override.WorkingDir
	}
	if override.Encoding != "" {
		merged.Encoding = override.Encoding
	}

	if len(override.Env) > 0 {
		env := make(map[string]string, len(merged.Env)+len(override.Env))
		for k, v := range merged.Env {
			env[k] = v
		}
		for k, v := range override.Env {
			env[k] = v
		}
		merged.Env = env
	}

	merged.AllowDestructive = merged.AllowDestructive || override.AllowDestructive
	merged.ContinueOnError = merged.ContinueOnError || override.ContinueOnError
	merged.IgnoreExitCode = merged.IgnoreExitCode || override.IgnoreExitCode

	return merged
}
