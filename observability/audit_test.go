package observability

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/victoralfred/termexec/executor"
)

func TestFileAuditLoggerWritesJSONLines(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewFileAuditLogger(AuditConfig{
		Enabled:  true,
		LogLevel: AuditLogAll,
		BasePath: dir,
		FilePath: "audit.log",
	})
	if err != nil {
		t.Fatalf("NewFileAuditLogger failed: %v", err)
	}
	defer logger.Close()

	event := &AuditEvent{
		Timestamp: time.Now(),
		ID:        "cmd-1",
		Type:      AuditEventExecution,
		Command:   "echo hello",
		Shell:     "bash",
		Status:    "success",
	}
	if err := logger.Log(context.Background(), event); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "audit.log"))
	if err != nil {
		t.Fatalf("Reading audit log failed: %v", err)
	}

	var decoded AuditEvent
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Audit line is not valid JSON: %v", err)
	}
	if decoded.Command != "echo hello" || decoded.Status != "success" {
		t.Errorf("Unexpected decoded event: %+v", decoded)
	}
}

func TestFileAuditLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   AuditLogLevel
		event   AuditEvent
		written bool
	}{
		{"all logs success", AuditLogAll, AuditEvent{Status: "success", Type: AuditEventExecution}, true},
		{"failures skips success", AuditLogFailures, AuditEvent{Status: "success", Type: AuditEventExecution}, false},
		{"failures logs failure", AuditLogFailures, AuditEvent{Status: "failure", Type: AuditEventError}, true},
		{"violations skips errors", AuditLogViolations, AuditEvent{Status: "failure", Type: AuditEventError}, false},
		{"violations logs denials", AuditLogViolations, AuditEvent{Status: "failure", Type: AuditEventDenied}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			logger, err := NewFileAuditLogger(AuditConfig{
				Enabled:  true,
				LogLevel: tt.level,
				BasePath: dir,
				FilePath: "audit.log",
			})
			if err != nil {
				t.Fatalf("NewFileAuditLogger failed: %v", err)
			}

			event := tt.event
			event.Timestamp = time.Now()
			if err := logger.Log(context.Background(), &event); err != nil {
				t.Fatalf("Log failed: %v", err)
			}

			_, statErr := os.Stat(filepath.Join(dir, "audit.log"))
			if tt.written && statErr != nil {
				t.Error("Expected audit line to be written")
			}
			if !tt.written && statErr == nil {
				t.Error("Expected audit line to be skipped")
			}
		})
	}
}

func TestFileAuditLoggerOutputTruncation(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewFileAuditLogger(AuditConfig{
		Enabled:       true,
		LogLevel:      AuditLogAll,
		IncludeOutput: true,
		MaxOutputSize: 8,
		BasePath:      dir,
		FilePath:      "audit.log",
	})
	if err != nil {
		t.Fatalf("NewFileAuditLogger failed: %v", err)
	}

	event := &AuditEvent{
		Timestamp: time.Now(),
		Type:      AuditEventExecution,
		Status:    "success",
		Output:    "0123456789abcdef",
	}
	if err := logger.Log(context.Background(), event); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "audit.log"))
	if err != nil {
		t.Fatalf("Reading audit log failed: %v", err)
	}

	var decoded AuditEvent
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Audit line is not valid JSON: %v", err)
	}
	if decoded.Output != "01234567...(truncated)" {
		t.Errorf("Expected truncated output, got %q", decoded.Output)
	}
}

func TestCreateAuditEventFromResult(t *testing.T) {
	result := &executor.Result{
		CommandID: "cmd-42",
		Command:   "git status",
		ExitCode:  0,
		Duration:  120 * time.Millisecond,
		PID:       4242,
		Stdout:    "clean\n",
	}

	event := CreateAuditEvent("git status", "bash", "unix", result, nil)

	if event.Type != AuditEventExecution {
		t.Errorf("Expected execution event, got %s", event.Type)
	}
	if event.Status != "success" {
		t.Errorf("Expected success status, got %s", event.Status)
	}
	if event.ID != "cmd-42" || event.PID != 4242 {
		t.Errorf("Event should carry result identity, got %+v", event)
	}
}

func TestCreateAuditEventFromViolation(t *testing.T) {
	execErr := executor.NewSecurityViolation("rm -rf /", "blacklisted")

	event := CreateAuditEvent("rm -rf /", "bash", "unix", nil, execErr)

	if event.Type != AuditEventDenied {
		t.Errorf("Expected denied event, got %s", event.Type)
	}
	if event.Status != "failure" {
		t.Errorf("Expected failure status, got %s", event.Status)
	}
	if event.Category != string(executor.CategorySecurityViolation) {
		t.Errorf("Expected security_violation category, got %s", event.Category)
	}
}

func TestCreateAuditEventFromExitError(t *testing.T) {
	result := &executor.Result{
		CommandID: "cmd-7",
		ExitCode:  3,
		Duration:  time.Second,
		PID:       99,
	}
	execErr := executor.NewExitError("false", result)

	event := CreateAuditEvent("false", "bash", "unix", nil, execErr)

	if event.Type != AuditEventError {
		t.Errorf("Expected error event, got %s", event.Type)
	}
	if event.ID != "cmd-7" || event.ExitCode != 3 {
		t.Errorf("Event should carry the partial result, got %+v", event)
	}
}
