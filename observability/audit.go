package observability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/victoralfred/gowritter/safepath"

	"github.com/victoralfred/termexec/executor"
)

// AuditLogger provides append-only audit logging of command dispatch.
type AuditLogger interface {
	// Log logs an audit event.
	Log(ctx context.Context, event *AuditEvent) error

	// Close closes the audit logger.
	Close() error
}

// AuditEvent represents an audit log entry.
type AuditEvent struct {
	Timestamp  time.Time         `json:"timestamp"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	ID         string            `json:"id"`
	Command    string            `json:"command"`
	Shell      string            `json:"shell,omitempty"`
	Platform   string            `json:"platform,omitempty"`
	WorkingDir string            `json:"working_dir,omitempty"`
	Status     string            `json:"status"`
	Category   string            `json:"category,omitempty"`
	Error      string            `json:"error,omitempty"`
	Output     string            `json:"output,omitempty"`
	Type       AuditEventType    `json:"type"`
	Duration   time.Duration     `json:"duration"`
	ExitCode   int               `json:"exit_code"`
	PID        int               `json:"pid,omitempty"`
}

// AuditEventType represents the type of audit event.
type AuditEventType string

const (
	// AuditEventExecution is a command execution event.
	AuditEventExecution AuditEventType = "execution"

	// AuditEventDenied is a validation denial event.
	AuditEventDenied AuditEventType = "denied"

	// AuditEventRateLimited is a rate limiting event.
	AuditEventRateLimited AuditEventType = "rate_limited"

	// AuditEventError is an error event.
	AuditEventError AuditEventType = "error"
)

// AuditLogLevel determines what events to log.
type AuditLogLevel string

const (
	// AuditLogAll logs all events.
	AuditLogAll AuditLogLevel = "all"

	// AuditLogFailures logs only failures.
	AuditLogFailures AuditLogLevel = "failures"

	// AuditLogViolations logs only validation denials.
	AuditLogViolations AuditLogLevel = "violations"
)

// AuditConfig configures the audit logger.
type AuditConfig struct {
	LogLevel      AuditLogLevel
	BasePath      string
	FilePath      string
	MaxOutputSize int
	Enabled       bool
	IncludeOutput bool
}

// DefaultAuditConfig returns default audit configuration.
func DefaultAuditConfig() AuditConfig {
	return AuditConfig{
		Enabled:       true,
		LogLevel:      AuditLogAll,
		IncludeOutput: false,
		MaxOutputSize: 1024,
		BasePath:      "/var/log",
		FilePath:      "termexec/audit.log",
	}
}

// fileAuditLogger implements AuditLogger using gowritter.
type fileAuditLogger struct {
	safePath *safepath.SafePath
	config   AuditConfig
	mu       sync.Mutex
}

// NewFileAuditLogger creates a new file-based audit logger.
func NewFileAuditLogger(config AuditConfig) (AuditLogger, error) {
	sp, err := safepath.New(config.BasePath)
	if err != nil {
		return nil, fmt.Errorf("creating safe path: %w", err)
	}

	return &fileAuditLogger{
		config:   config,
		safePath: sp,
	}, nil
}

// Log implements AuditLogger.Log. Events are written as one JSON object
// per line.
func (l *fileAuditLogger) Log(ctx context.Context, event *AuditEvent) error {
	if !l.config.Enabled {
		return nil
	}

	if !l.shouldLog(event) {
		return nil
	}

	if !l.config.IncludeOutput {
		event.Output = ""
	} else if len(event.Output) > l.config.MaxOutputSize {
		event.Output = event.Output[:l.config.MaxOutputSize] + "...(truncated)"
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling audit event: %w", err)
	}

	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.safePath.AppendFile(l.config.FilePath, data, 0o644); err != nil {
		return fmt.Errorf("writing audit log: %w", err)
	}

	return nil
}

// Close implements AuditLogger.Close.
func (l *fileAuditLogger) Close() error {
	return nil
}

func (l *fileAuditLogger) shouldLog(event *AuditEvent) bool {
	switch l.config.LogLevel {
	case AuditLogAll:
		return true
	case AuditLogFailures:
		return event.Status != "success"
	case AuditLogViolations:
		return event.Type == AuditEventDenied
	default:
		return true
	}
}

// CreateAuditEvent builds an audit event from a dispatch outcome. Either
// result or execErr may be nil.
func CreateAuditEvent(command, shell, platform string, result *executor.Result, execErr error) *AuditEvent {
	event := &AuditEvent{
		Timestamp: time.Now(),
		Type:      AuditEventExecution,
		Command:   command,
		Shell:     shell,
		Platform:  platform,
		Status:    "success",
	}

	if result != nil {
		event.ID = result.CommandID
		event.ExitCode = result.ExitCode
		event.Duration = result.Duration
		event.PID = result.PID
		event.Output = result.Stdout
	}

	if execErr != nil {
		event.Error = execErr.Error()
		event.Type = AuditEventError
		event.Status = "failure"

		var normalized *executor.NormalizedError
		if errors.As(execErr, &normalized) {
			event.Category = string(normalized.Category)
			if normalized.Category == executor.CategorySecurityViolation {
				event.Type = AuditEventDenied
			}
			if normalized.Result != nil && event.ID == "" {
				event.ID = normalized.Result.CommandID
				event.ExitCode = normalized.Result.ExitCode
				event.Duration = normalized.Result.Duration
				event.PID = normalized.Result.PID
			}
		}
	}

	return event
}

// NoopAuditLogger returns a no-op audit logger.
func NoopAuditLogger() AuditLogger {
	return &noopAuditLogger{}
}

type noopAuditLogger struct{}

func (l *noopAuditLogger) Log(ctx context.Context, event *AuditEvent) error { return nil }
func (l *noopAuditLogger) Close() error                                     { return nil }
