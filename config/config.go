// Package config provides configuration management for termexec.
package config

import (
	"fmt"
	"time"

	"github.com/victoralfred/termexec/executor"
	"github.com/victoralfred/termexec/observability"
	"github.com/victoralfred/termexec/policy"
	"github.com/victoralfred/termexec/resilience"
)

// Config is the main configuration for termexec.
type Config struct {
	RateLimiter resilience.Config
	Telemetry   observability.TelemetryConfig
	Audit       observability.AuditConfig
	Policy      policy.Options
	Defaults    executor.Options
	Dispatcher  DispatcherConfig

	// PolicyPath names a YAML policy file. When the file exists it
	// replaces the Policy options above; a missing file is not an error.
	PolicyPath string
}

// DispatcherConfig configures platform selection and process teardown.
type DispatcherConfig struct {
	// Shell overrides the Unix shell (default /bin/bash).
	Shell string

	// Distro names the WSL distribution for PreferWSL dispatch. Empty
	// means the WSL default distribution.
	Distro string

	// PreferWSL routes Windows-host execution through wsl.exe instead of
	// PowerShell.
	PreferWSL bool

	// GraceWindow is how long a terminated process gets before it is
	// forcefully killed.
	GraceWindow time.Duration

	// EnableMetrics enables OpenTelemetry metrics.
	EnableMetrics bool

	// EnableTracing enables trace spans around dispatch.
	EnableTracing bool

	// EnableAudit enables audit logging.
	EnableAudit bool
}

// DefaultConfig returns the default configuration: strict validation,
// capped buffers, audit off until a log path is chosen.
func DefaultConfig() Config {
	return Config{
		Defaults: executor.DefaultOptions(),
		Policy:   policy.Options{},
		Dispatcher: DispatcherConfig{
			GraceWindow:   executor.DefaultGraceWindow,
			EnableMetrics: true,
			EnableTracing: true,
			EnableAudit:   false,
		},
		RateLimiter: resilience.DefaultConfig(),
		Telemetry:   observability.DefaultTelemetryConfig(),
		Audit:       observability.DefaultAuditConfig(),
		PolicyPath:  "policy.yaml",
	}
}

// DevelopmentConfig returns configuration suitable for development:
// relaxed validation, verbose audit with output included.
func DevelopmentConfig() Config {
	cfg := DefaultConfig()
	cfg.Policy.RelaxedMode = true
	cfg.Defaults.Timeout = 60 * time.Second
	cfg.Audit.LogLevel = observability.AuditLogAll
	cfg.Audit.IncludeOutput = true
	return cfg
}

// RestrictedConfig returns highly restrictive configuration: strict
// validation, rate limiting on, short timeouts, small buffers.
func RestrictedConfig() Config {
	cfg := DefaultConfig()
	cfg.Policy.RelaxedMode = false
	cfg.Defaults.Timeout = 10 * time.Second
	cfg.Defaults.MaxBufferSize = 256 * 1024
	cfg.RateLimiter.Enabled = true
	cfg.RateLimiter.DefaultLimit = 10
	cfg.RateLimiter.DefaultBurst = 20
	cfg.Dispatcher.EnableAudit = true
	cfg.Audit.LogLevel = observability.AuditLogFailures
	return cfg
}

// Validate normalizes the configuration, filling zero values with
// defaults. It returns an error only for values that cannot be repaired.
func (c *Config) Validate() error {
	if c.Defaults.Timeout < 0 {
		return fmt.Errorf("negative timeout %s", c.Defaults.Timeout)
	}
	if c.Defaults.MaxBufferSize < 0 {
		return fmt.Errorf("negative buffer size %d", c.Defaults.MaxBufferSize)
	}

	if c.Defaults.Timeout == 0 {
		c.Defaults.Timeout = executor.DefaultTimeout
	}
	if c.Defaults.MaxBufferSize == 0 {
		c.Defaults.MaxBufferSize = executor.DefaultMaxBufferSize
	}
	if c.Defaults.Encoding == "" {
		c.Defaults.Encoding = executor.DefaultEncoding
	}
	if c.Dispatcher.GraceWindow <= 0 {
		c.Dispatcher.GraceWindow = executor.DefaultGraceWindow
	}

	if c.RateLimiter.Enabled {
		if c.RateLimiter.DefaultLimit <= 0 {
			return fmt.Errorf("rate limiting enabled with limit %v", c.RateLimiter.DefaultLimit)
		}
		if c.RateLimiter.DefaultBurst <= 0 {
			c.RateLimiter.DefaultBurst = 1
		}
	}

	return nil
}
