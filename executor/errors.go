package executor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/victoralfred/termexec/internal/spawn"
)

// Category classifies an execution failure.
type Category string

// The full failure taxonomy. Every error escaping an executor or the
// dispatcher carries exactly one of these.
const (
	CategorySecurityViolation  Category = "security_violation"
	CategoryTimeout            Category = "timeout"
	CategoryPermission         Category = "permission"
	CategoryCommandNotFound    Category = "command_not_found"
	CategoryFileNotFound       Category = "file_not_found"
	CategoryNetwork            Category = "network"
	CategorySyntax             Category = "syntax"
	CategoryExecutableNotFound Category = "executable_not_found"
	CategoryBufferOverflow     Category = "buffer_overflow"
	CategorySpawn              Category = "spawn_error"
	CategoryNonzeroExit        Category = "nonzero_exit"
	CategoryUnknown            Category = "unknown"
)

// Sentinel errors for common conditions.
var (
	// ErrSecurityViolation indicates the command was denied by the validator.
	ErrSecurityViolation = errors.New("command denied by security policy")

	// ErrTimeout indicates execution exceeded the timeout.
	ErrTimeout = errors.New("execution timed out")

	// ErrBufferOverflow indicates output exceeded the buffer ceiling.
	ErrBufferOverflow = errors.New("output buffer limit exceeded")

	// ErrNonzeroExit indicates the process exited with a non-zero code.
	ErrNonzeroExit = errors.New("command exited with non-zero code")

	// ErrSpawn indicates the process could not be started.
	ErrSpawn = errors.New("failed to spawn process")

	// ErrDestroyed indicates the dispatcher or executor was destroyed.
	ErrDestroyed = errors.New("executor destroyed")
)

// NormalizedError is the uniform failure value returned by every execution
// path, regardless of the originating platform or OS error code. It is
// created once per failure and never mutated.
type NormalizedError struct {
	// Category is the taxonomy bucket.
	Category Category

	// Message is the normalized, human-readable message.
	Message string

	// OriginalMessage preserves the source error text.
	OriginalMessage string

	// Command is the command that failed.
	Command string

	// Timestamp records when the failure was normalized.
	Timestamp time.Time

	// Suggestions are category-specific remediation hints.
	Suggestions []string

	// Result carries the partial execution result where one exists
	// (nonzero_exit, timeout, buffer_overflow), so callers can inspect
	// output even on failure.
	Result *Result

	// err is the wrapped source error for errors.Is/As traversal.
	err error
}

// Error implements the error interface.
func (e *NormalizedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

// Unwrap returns the wrapped source error.
func (e *NormalizedError) Unwrap() error {
	return e.err
}

// NewSecurityViolation creates a security_violation error. No process is
// ever spawned for a command that fails validation.
func NewSecurityViolation(command, reason string) *NormalizedError {
	return &NormalizedError{
		Category:        CategorySecurityViolation,
		Message:         reason,
		OriginalMessage: reason,
		Command:         command,
		Timestamp:       time.Now().UTC(),
		Suggestions:     suggestionsFor(CategorySecurityViolation),
		err:             ErrSecurityViolation,
	}
}

// NewTimeoutError creates a timeout error with the partial result attached.
func NewTimeoutError(command string, timeout time.Duration, result *Result) *NormalizedError {
	msg := fmt.Sprintf("execution exceeded timeout of %s", timeout)
	return &NormalizedError{
		Category:        CategoryTimeout,
		Message:         msg,
		OriginalMessage: msg,
		Command:         command,
		Timestamp:       time.Now().UTC(),
		Suggestions:     suggestionsFor(CategoryTimeout),
		Result:          result,
		err:             ErrTimeout,
	}
}

// NewBufferOverflowError creates a buffer_overflow error with the partial
// result attached.
func NewBufferOverflowError(command string, limit int, result *Result) *NormalizedError {
	msg := fmt.Sprintf("stdout exceeded buffer limit of %d bytes", limit)
	return &NormalizedError{
		Category:        CategoryBufferOverflow,
		Message:         msg,
		OriginalMessage: msg,
		Command:         command,
		Timestamp:       time.Now().UTC(),
		Suggestions:     suggestionsFor(CategoryBufferOverflow),
		Result:          result,
		err:             ErrBufferOverflow,
	}
}

// NewExitError creates a nonzero_exit error carrying the full result.
func NewExitError(command string, result *Result) *NormalizedError {
	msg := fmt.Sprintf("command exited with code %d", result.ExitCode)
	if result.Signal != "" {
		msg = fmt.Sprintf("command terminated by signal %s", result.Signal)
	}
	return &NormalizedError{
		Category:        CategoryNonzeroExit,
		Message:         msg,
		OriginalMessage: msg,
		Command:         command,
		Timestamp:       time.Now().UTC(),
		Suggestions:     suggestionsFor(CategoryNonzeroExit),
		Result:          result,
		err:             ErrNonzeroExit,
	}
}

// NewSpawnError normalizes a process start failure. Classifiable causes
// (missing executable, permissions) keep their specific category; anything
// else becomes spawn_error.
func NewSpawnError(command string, err error) *NormalizedError {
	n := Normalize(err, command)
	if n.Category == CategoryUnknown {
		n = &NormalizedError{
			Category:        CategorySpawn,
			Message:         fmt.Sprintf("failed to spawn process: %v", err),
			OriginalMessage: errText(err),
			Command:         command,
			Timestamp:       time.Now().UTC(),
			Suggestions:     suggestionsFor(CategorySpawn),
			err:             err,
		}
	}
	return n
}

// Normalize converts any execution failure into a NormalizedError.
// Already-normalized errors pass through unchanged. Normalize never fails.
func Normalize(err error, command string) *NormalizedError {
	var normalized *NormalizedError
	if errors.As(err, &normalized) {
		return normalized
	}

	category := classify(err)
	return &NormalizedError{
		Category:        category,
		Message:         errText(err),
		OriginalMessage: errText(err),
		Command:         command,
		Timestamp:       time.Now().UTC(),
		Suggestions:     suggestionsFor(category),
		err:             err,
	}
}

// classify assigns a taxonomy category. Well-known Go error values are
// checked first, then lower-cased message substrings.
func classify(err error) Category {
	if err == nil {
		return CategoryUnknown
	}

	switch {
	case errors.Is(err, ErrSecurityViolation):
		return CategorySecurityViolation
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return CategoryTimeout
	case errors.Is(err, ErrBufferOverflow):
		return CategoryBufferOverflow
	case errors.Is(err, ErrNonzeroExit):
		return CategoryNonzeroExit
	case errors.Is(err, ErrDestroyed):
		return CategorySpawn
	case spawn.IsNotFound(err):
		return CategoryExecutableNotFound
	case errors.Is(err, fs.ErrPermission):
		return CategoryPermission
	case errors.Is(err, fs.ErrNotExist):
		return CategoryFileNotFound
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timed out"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "deadline exceeded"):
		return CategoryTimeout
	case strings.Contains(msg, "permission denied"),
		strings.Contains(msg, "access is denied"),
		strings.Contains(msg, "operation not permitted"):
		return CategoryPermission
	case strings.Contains(msg, "command not found"),
		strings.Contains(msg, "is not recognized as"):
		return CategoryCommandNotFound
	case strings.Contains(msg, "executable file not found"),
		strings.Contains(msg, "no such executable"):
		return CategoryExecutableNotFound
	case strings.Contains(msg, "no such file or directory"),
		strings.Contains(msg, "cannot find the path"),
		strings.Contains(msg, "cannot find the file"):
		return CategoryFileNotFound
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "no route to host"),
		strings.Contains(msg, "network is unreachable"),
		strings.Contains(msg, "could not resolve"),
		strings.Contains(msg, "name or service not known"):
		return CategoryNetwork
	case strings.Contains(msg, "syntax error"),
		strings.Contains(msg, "unexpected token"),
		strings.Contains(msg, "parse error"),
		strings.Contains(msg, "unexpected eof"):
		return CategorySyntax
	}

	return CategoryUnknown
}

// suggestionsFor returns remediation hints for a category.
func suggestionsFor(category Category) []string {
	switch category {
	case CategorySecurityViolation:
		return []string{
			"add the command to the whitelist if it is trusted",
			"set AllowDestructive to bypass validation for trusted callers",
			"disable strict mode to fall back to heuristic checks",
		}
	case CategoryTimeout:
		return []string{
			"increase the Timeout option for long-running commands",
			"check whether the command waits for interactive input",
		}
	case CategoryPermission:
		return []string{
			"check file and directory permissions",
			"verify the executing user has the required rights",
		}
	case CategoryCommandNotFound:
		return []string{
			"verify the command is spelled correctly",
			"ensure the command is installed and on PATH",
		}
	case CategoryFileNotFound:
		return []string{
			"verify the file path exists",
			"check the working directory for relative paths",
		}
	case CategoryNetwork:
		return []string{
			"check network connectivity",
			"verify the remote host and port are reachable",
		}
	case CategorySyntax:
		return []string{
			"check the command syntax for the target shell",
			"verify quoting and escaping",
		}
	case CategoryExecutableNotFound:
		return []string{
			"ensure the shell or executable is installed",
			"check that PATH includes the executable's directory",
		}
	case CategoryBufferOverflow:
		return []string{
			"increase MaxBufferSize for commands with large output",
			"redirect output to a file instead of capturing it",
			"use streaming mode and drain output incrementally",
		}
	case CategorySpawn:
		return []string{
			"verify the shell binary exists and is executable",
			"check the working directory exists",
		}
	case CategoryNonzeroExit:
		return []string{
			"inspect stderr in the attached result",
			"set IgnoreExitCode if non-zero exits are expected",
		}
	default:
		return []string{"inspect the original error message"}
	}
}

// errText stringifies an error, tolerating nil.
func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
