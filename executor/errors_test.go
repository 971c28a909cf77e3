package executor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"testing"
	"time"
)

func TestNormalizeClassification(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		category Category
	}{
		{"deadline exceeded", context.DeadlineExceeded, CategoryTimeout},
		{"permission sentinel", fs.ErrPermission, CategoryPermission},
		{"not exist sentinel", fs.ErrNotExist, CategoryFileNotFound},
		{"destroyed", ErrDestroyed, CategorySpawn},
		{"timeout message", errors.New("operation timed out"), CategoryTimeout},
		{"permission message", errors.New("bash: /etc/shadow: Permission denied"), CategoryPermission},
		{"windows permission message", errors.New("Access is denied."), CategoryPermission},
		{"command not found message", errors.New("bash: frobnicate: command not found"), CategoryCommandNotFound},
		{"cmdlet not recognized", errors.New("'frobnicate' is not recognized as the name of a cmdlet"), CategoryCommandNotFound},
		{"executable not found", errors.New(`exec: "powershell": executable file not found in $PATH`), CategoryExecutableNotFound},
		{"file not found message", errors.New("cat: missing.txt: No such file or directory"), CategoryFileNotFound},
		{"windows path message", errors.New("The system cannot find the path specified."), CategoryFileNotFound},
		{"connection refused", errors.New("curl: (7) Connection refused"), CategoryNetwork},
		{"dns failure", errors.New("could not resolve host example.invalid"), CategoryNetwork},
		{"syntax error", errors.New("bash: -c: line 1: syntax error near unexpected token"), CategorySyntax},
		{"unclassifiable", errors.New("something odd happened"), CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := Normalize(tt.err, "some command")
			if n.Category != tt.category {
				t.Errorf("Normalize(%v) category = %s, want %s", tt.err, n.Category, tt.category)
			}
			if n.Command != "some command" {
				t.Errorf("Normalized error should carry the command, got %q", n.Command)
			}
			if n.OriginalMessage == "" {
				t.Error("Normalized error should preserve the original message")
			}
			if len(n.Suggestions) == 0 {
				t.Error("Every category should carry suggestions")
			}
		})
	}
}

func TestNormalizePassThrough(t *testing.T) {
	original := NewSecurityViolation("rm -rf /", "blacklisted")

	n := Normalize(original, "other command")
	if n != original {
		t.Error("Already-normalized errors must pass through unchanged")
	}

	wrapped := fmt.Errorf("dispatch failed: %w", original)
	n = Normalize(wrapped, "other command")
	if n != original {
		t.Error("Wrapped normalized errors must unwrap to the original")
	}
}

func TestNormalizedErrorUnwrap(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"security violation", NewSecurityViolation("x", "denied"), ErrSecurityViolation},
		{"timeout", NewTimeoutError("x", time.Second, nil), ErrTimeout},
		{"buffer overflow", NewBufferOverflowError("x", 1024, nil), ErrBufferOverflow},
		{"nonzero exit", NewExitError("x", &Result{ExitCode: 3}), ErrNonzeroExit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("%v should wrap its sentinel", tt.err)
			}

			var normalized *NormalizedError
			if !errors.As(tt.err, &normalized) {
				t.Fatalf("Expected NormalizedError, got %T", tt.err)
			}
		})
	}
}

func TestExitErrorMessages(t *testing.T) {
	byCode := NewExitError("false", &Result{ExitCode: 3})
	if byCode.Message != "command exited with code 3" {
		t.Errorf("Unexpected message %q", byCode.Message)
	}

	bySignal := NewExitError("sleep 10", &Result{ExitCode: -1, Signal: "killed"})
	if bySignal.Message != "command terminated by signal killed" {
		t.Errorf("Unexpected message %q", bySignal.Message)
	}
}

func TestPartialResultAttachment(t *testing.T) {
	result := &Result{CommandID: "id", Stdout: "partial output"}

	timeout := NewTimeoutError("slow", time.Second, result)
	if timeout.Result != result {
		t.Error("Timeout error should carry the partial result")
	}

	overflow := NewBufferOverflowError("loud", 1024, result)
	if overflow.Result != result {
		t.Error("Overflow error should carry the partial result")
	}
}

func TestNewSpawnErrorKeepsSpecificCategory(t *testing.T) {
	n := NewSpawnError("x", fs.ErrPermission)
	if n.Category != CategoryPermission {
		t.Errorf("Classifiable spawn failure should keep its category, got %s", n.Category)
	}

	n = NewSpawnError("x", errors.New("fork/exec: resource temporarily unavailable"))
	if n.Category != CategorySpawn {
		t.Errorf("Unclassifiable spawn failure should become spawn_error, got %s", n.Category)
	}
}

func TestNormalizedErrorString(t *testing.T) {
	n := NewSecurityViolation("rm -rf /", "blacklisted")
	want := "security_violation: blacklisted"
	if n.Error() != want {
		t.Errorf("Expected %q, got %q", want, n.Error())
	}
}
