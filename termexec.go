package termexec

import (
	"github.com/victoralfred/termexec/config"
	"github.com/victoralfred/termexec/dispatcher"
	"github.com/victoralfred/termexec/executor"
	"github.com/victoralfred/termexec/platform"
	"github.com/victoralfred/termexec/policy"
)

// version is the library version.
const version = "1.0.0"

// Version returns the library version.
func Version() string {
	return version
}

// Dispatcher is the primary entry point for command execution. All
// commands go through a Dispatcher so validation, resource limits, and
// observability are applied consistently.
type Dispatcher = dispatcher.Dispatcher

// Config bundles the full library configuration.
type Config = config.Config

// Options configures a single execution call.
type Options = executor.Options

// Result contains the outcome of one command execution.
type Result = executor.Result

// Stream is the handle returned by streaming execution.
type Stream = executor.Stream

// Event is one incremental streaming output notification.
type Event = executor.Event

// Streaming event kinds.
const (
	EventStart  = executor.EventStart
	EventStdout = executor.EventStdout
	EventStderr = executor.EventStderr
	EventClose  = executor.EventClose
)

// NormalizedError is the uniform failure value for all execution paths.
type NormalizedError = executor.NormalizedError

// Category classifies an execution failure.
type Category = executor.Category

// BatchEntry is the outcome of one command in a batch.
type BatchEntry = dispatcher.BatchEntry

// Notification is one dispatch lifecycle event.
type Notification = dispatcher.Notification

// SystemInfo describes the dispatcher's execution environment.
type SystemInfo = dispatcher.SystemInfo

// Sentinel errors re-exported for errors.Is checks.
var (
	ErrSecurityViolation = executor.ErrSecurityViolation
	ErrTimeout           = executor.ErrTimeout
	ErrBufferOverflow    = executor.ErrBufferOverflow
	ErrNonzeroExit       = executor.ErrNonzeroExit
	ErrDestroyed         = executor.ErrDestroyed
)

// New creates a dispatcher with the default configuration: strict
// validation, 30 second timeout, 1 MiB output ceiling.
func New() (*Dispatcher, error) {
	return dispatcher.New(config.DefaultConfig())
}

// NewWithConfig creates a dispatcher from an explicit configuration.
func NewWithConfig(cfg Config) (*Dispatcher, error) {
	return dispatcher.New(cfg)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return config.DefaultConfig()
}

// DevelopmentConfig returns a relaxed configuration for development.
func DevelopmentConfig() Config {
	return config.DevelopmentConfig()
}

// RestrictedConfig returns a hardened configuration.
func RestrictedConfig() Config {
	return config.RestrictedConfig()
}

// LoadPolicy creates a YAML policy loader rooted at basePath.
func LoadPolicy(basePath, policyFile string) (*policy.Loader, error) {
	return policy.NewLoader(basePath, policyFile)
}

// DetectPlatform classifies the current host.
func DetectPlatform() platform.Info {
	return platform.Detect()
}
