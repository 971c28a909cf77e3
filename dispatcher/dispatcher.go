// Package dispatcher routes commands to the platform executor and wraps
// every call with validation, rate limiting, observability, and lifecycle
// notifications.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sync/atomic"
	"time"

	"github.com/victoralfred/termexec/config"
	"github.com/victoralfred/termexec/executor"
	"github.com/victoralfred/termexec/observability"
	"github.com/victoralfred/termexec/platform"
	"github.com/victoralfred/termexec/policy"
	"github.com/victoralfred/termexec/resilience"
	"github.com/victoralfred/termexec/validation"
)

// availabilityTimeout bounds command availability probes.
const availabilityTimeout = 5 * time.Second

// commandNamePattern restricts availability probes to bare command names.
var commandNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.+-]*$`)

// Dispatcher is the single entry point for command execution. It probes
// the platform once at construction, holds one executor for its lifetime,
// and gates every call through the security validator.
type Dispatcher struct {
	info      platform.Info
	exec      executor.Executor
	validator *validation.Validator
	limiter   resilience.RateLimiter
	telemetry observability.Telemetry
	audit     observability.AuditLogger
	notifier  *notifier
	defaults  executor.Options
	labels    map[string]string
	destroyed atomic.Bool
}

// BatchEntry is the outcome of one command in a batch.
type BatchEntry struct {
	// Command is the dispatched command string.
	Command string

	// Result is the settled result, nil when the command failed before
	// settling.
	Result *executor.Result

	// Err is the normalized error, nil on success.
	Err error
}

// Success reports whether the entry settled without error.
func (e BatchEntry) Success() bool {
	return e.Err == nil
}

// SystemInfo describes the dispatcher's execution environment.
type SystemInfo struct {
	// Platform is the executor's platform identity.
	Platform string

	// OS is the host operating system.
	OS string

	// Arch is the host architecture.
	Arch string

	// Distro is the WSL distribution, when known.
	Distro string

	// Shell names the active shell.
	Shell string

	// Capabilities are the executor capabilities.
	Capabilities executor.Capabilities
}

// New creates a dispatcher from configuration. The platform is detected
// exactly once here; the selected executor serves all subsequent calls.
func New(cfg config.Config) (*Dispatcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	info := platform.Detect()
	return newWithPlatform(cfg, info)
}

// newWithPlatform is the testable core of New.
func newWithPlatform(cfg config.Config, info platform.Info) (*Dispatcher, error) {
	exec := buildExecutor(info, cfg)
	caps := exec.Capabilities()

	pol, err := loadPolicy(cfg)
	if err != nil {
		return nil, err
	}

	telemetry := observability.NoopTelemetry()
	if cfg.Dispatcher.EnableMetrics || cfg.Dispatcher.EnableTracing {
		tcfg := cfg.Telemetry
		tcfg.EnableMetrics = cfg.Dispatcher.EnableMetrics
		tcfg.EnableTracing = cfg.Dispatcher.EnableTracing
		t, err := observability.NewTelemetry(tcfg)
		if err != nil {
			return nil, fmt.Errorf("initializing telemetry: %w", err)
		}
		telemetry = t
	}

	audit := observability.NoopAuditLogger()
	if cfg.Dispatcher.EnableAudit {
		a, err := observability.NewFileAuditLogger(cfg.Audit)
		if err != nil {
			return nil, fmt.Errorf("initializing audit log: %w", err)
		}
		audit = a
	}

	var limiter resilience.RateLimiter
	if cfg.RateLimiter.Enabled {
		limiter = resilience.NewRateLimiter(cfg.RateLimiter)
	}

	return &Dispatcher{
		info:      info,
		exec:      exec,
		validator: validation.New(pol),
		limiter:   limiter,
		telemetry: telemetry,
		audit:     audit,
		notifier:  newNotifier(),
		defaults:  cfg.Defaults,
		labels: map[string]string{
			"shell":    caps.Shell,
			"platform": caps.Platform,
		},
	}, nil
}

// loadPolicy builds the security policy: the YAML file at PolicyPath when
// one exists, the in-config options otherwise.
func loadPolicy(cfg config.Config) (*policy.SecurityPolicy, error) {
	if cfg.PolicyPath != "" {
		_, err := os.Stat(cfg.PolicyPath)
		switch {
		case err == nil:
			loader, lerr := policy.NewLoader(filepath.Dir(cfg.PolicyPath), filepath.Base(cfg.PolicyPath))
			if lerr != nil {
				return nil, fmt.Errorf("opening policy file: %w", lerr)
			}
			return loader.Load(context.Background())
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("checking policy file: %w", err)
		}
	}
	return policy.New(cfg.Policy), nil
}

// buildExecutor selects the executor for the detected platform.
func buildExecutor(info platform.Info, cfg config.Config) executor.Executor {
	grace := cfg.Dispatcher.GraceWindow

	switch info.Kind {
	case platform.Windows:
		if cfg.Dispatcher.PreferWSL {
			return executor.NewUnixExecutor(executor.UnixConfig{
				ViaWSL:   true,
				Distro:   cfg.Dispatcher.Distro,
				Defaults: cfg.Defaults,
				Grace:    grace,
			})
		}
		return executor.NewWindowsExecutor(executor.WindowsConfig{
			Defaults: cfg.Defaults,
			Grace:    grace,
		})

	case platform.WSL:
		return executor.NewUnixExecutor(executor.UnixConfig{
			Shell:    cfg.Dispatcher.Shell,
			InWSL:    true,
			Defaults: cfg.Defaults,
			Grace:    grace,
		})

	default:
		return executor.NewUnixExecutor(executor.UnixConfig{
			Shell:    cfg.Dispatcher.Shell,
			Defaults: cfg.Defaults,
			Grace:    grace,
		})
	}
}

// ExecuteCapture runs a command and returns the settled result once the
// process has fully terminated.
func (d *Dispatcher) ExecuteCapture(ctx context.Context, command string, opts *executor.Options) (*executor.Result, error) {
	merged, err := d.preflight(ctx, command, opts)
	if err != nil {
		return nil, err
	}

	ctx, end := d.telemetry.StartSpan(ctx, "dispatcher.execute_capture",
		observability.WithAttribute("command.shell", d.labels["shell"]))
	defer end()

	d.telemetry.RecordExecution(d.labels)
	d.telemetry.AddActive(1, d.labels)
	d.notifier.publish(Notification{Type: CommandStart, Command: command, Time: time.Now()})

	started := time.Now()
	result, err := d.exec.ExecuteCapture(ctx, command, &merged)

	d.telemetry.AddActive(-1, d.labels)
	d.telemetry.RecordDuration("execution", time.Since(started).Seconds(), d.labels)
	d.settle(ctx, command, result, err)

	return result, err
}

// ExecuteStreaming runs a command and returns a stream of incremental
// output events. Telemetry, audit, and notifications fire when the stream
// settles.
func (d *Dispatcher) ExecuteStreaming(ctx context.Context, command string, opts *executor.Options) (*executor.Stream, error) {
	merged, err := d.preflight(ctx, command, opts)
	if err != nil {
		return nil, err
	}

	ctx, end := d.telemetry.StartSpan(ctx, "dispatcher.execute_streaming",
		observability.WithAttribute("command.shell", d.labels["shell"]))

	stream, err := d.exec.ExecuteStreaming(ctx, command, &merged)
	if err != nil {
		end()
		d.telemetry.RecordError(d.labels)
		d.settle(ctx, command, nil, err)
		return nil, err
	}

	d.telemetry.RecordExecution(d.labels)
	d.telemetry.AddActive(1, d.labels)
	d.notifier.publish(Notification{Type: CommandStart, Command: command, Time: time.Now()})

	started := time.Now()
	go func() {
		defer end()
		result, werr := stream.Wait()
		d.telemetry.AddActive(-1, d.labels)
		d.telemetry.RecordDuration("execution", time.Since(started).Seconds(), d.labels)
		d.settle(context.Background(), command, result, werr)
	}()

	return stream, nil
}

// ExecuteBatch runs commands sequentially. By default execution stops at
// the first failure; ContinueOnError attempts every command. The returned
// entries cover exactly the commands that were attempted.
func (d *Dispatcher) ExecuteBatch(ctx context.Context, commands []string, opts *executor.Options) ([]BatchEntry, error) {
	if d.destroyed.Load() {
		return nil, executor.Normalize(executor.ErrDestroyed, "")
	}

	merged := executor.MergeOptions(d.defaults, opts)
	entries := make([]BatchEntry, 0, len(commands))

	for _, cmd := range commands {
		result, err := d.ExecuteCapture(ctx, cmd, &merged)
		entries = append(entries, BatchEntry{Command: cmd, Result: result, Err: err})
		if err != nil && !merged.ContinueOnError {
			break
		}
	}

	return entries, nil
}

// IsCommandAvailable probes whether a command exists on the target
// platform. Only bare command names are accepted; the probe bypasses
// lifecycle notifications since it is not a user dispatch. A probe that
// settles reports availability from its exit code and output; a probe
// that cannot run at all returns its error rather than false.
func (d *Dispatcher) IsCommandAvailable(ctx context.Context, name string) (bool, error) {
	if d.destroyed.Load() {
		return false, executor.Normalize(executor.ErrDestroyed, name)
	}
	if !commandNamePattern.MatchString(name) {
		return false, executor.NewSecurityViolation(name, "availability probes accept bare command names only")
	}

	probe := "command -v " + name
	if d.exec.Capabilities().Platform == "windows" {
		probe = "Get-Command " + name
	}

	opts := executor.Options{
		Timeout:          availabilityTimeout,
		AllowDestructive: true,
		IgnoreExitCode:   true,
	}
	result, err := d.exec.ExecuteCapture(ctx, probe, &opts)
	if err != nil {
		return false, err
	}

	return result.ExitCode == 0 && result.TrimmedStdout() != "", nil
}

// SystemInfo reports the detected platform and executor capabilities. The
// underlying detection ran once at construction; repeated calls return
// the same identity.
func (d *Dispatcher) SystemInfo() SystemInfo {
	caps := d.exec.Capabilities()
	return SystemInfo{
		Platform:     caps.Platform,
		OS:           d.info.OS,
		Arch:         d.info.Arch,
		Distro:       d.info.Distro,
		Shell:        caps.Shell,
		Capabilities: caps,
	}
}

// SetWorkingDirectory updates the default working directory for
// subsequent calls. The directory must exist on the host.
func (d *Dispatcher) SetWorkingDirectory(dir string) error {
	if d.destroyed.Load() {
		return executor.Normalize(executor.ErrDestroyed, "")
	}

	fi, err := os.Stat(dir)
	if err != nil {
		return executor.Normalize(err, "")
	}
	if !fi.IsDir() {
		return executor.Normalize(fmt.Errorf("not a directory: %s", dir), "")
	}

	d.exec.SetWorkingDirectory(dir)
	return nil
}

// Events returns a subscription to dispatch lifecycle notifications. The
// channel is closed when the dispatcher is destroyed.
func (d *Dispatcher) Events() <-chan Notification {
	return d.notifier.subscribe()
}

// Validator exposes the security validator for policy administration.
func (d *Dispatcher) Validator() *validation.Validator {
	return d.validator
}

// KillAll forcefully terminates every live process.
func (d *Dispatcher) KillAll() {
	d.exec.KillAll()
}

// Destroy kills all live processes, closes the notifier and audit log,
// and rejects further calls. Destroy is idempotent.
func (d *Dispatcher) Destroy() error {
	if d.destroyed.Swap(true) {
		return nil
	}

	err := d.exec.Destroy()
	d.notifier.close()
	if cerr := d.audit.Close(); err == nil {
		err = cerr
	}
	return err
}

// preflight runs the shared pre-dispatch pipeline: destroyed check, rate
// limiting, option merging, and security validation.
func (d *Dispatcher) preflight(ctx context.Context, command string, opts *executor.Options) (executor.Options, error) {
	merged := executor.MergeOptions(d.defaults, opts)

	if d.destroyed.Load() {
		return merged, executor.Normalize(executor.ErrDestroyed, command)
	}

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx, d.labels["shell"]); err != nil {
			nerr := executor.Normalize(err, command)
			event := observability.CreateAuditEvent(command, d.labels["shell"], d.labels["platform"], nil, nerr)
			event.Type = observability.AuditEventRateLimited
			//nolint:errcheck // audit is best-effort
			_ = d.audit.Log(ctx, event)
			return merged, nerr
		}
	}

	if err := d.validator.Validate(ctx, command, merged); err != nil {
		d.telemetry.RecordDenied(d.labels)
		//nolint:errcheck // audit is best-effort
		_ = d.audit.Log(ctx, observability.CreateAuditEvent(command, d.labels["shell"], d.labels["platform"], nil, err))
		d.notifier.publish(Notification{Type: CommandError, Command: command, Err: err, Time: time.Now()})
		return merged, err
	}

	return merged, nil
}

// settle records the outcome of one dispatch: error metrics, audit, and
// the completion notification.
func (d *Dispatcher) settle(ctx context.Context, command string, result *executor.Result, err error) {
	if err != nil {
		d.telemetry.RecordError(d.labels)
	}

	//nolint:errcheck // audit is best-effort
	_ = d.audit.Log(ctx, observability.CreateAuditEvent(command, d.labels["shell"], d.labels["platform"], result, err))

	notification := Notification{Type: CommandComplete, Command: command, Result: result, Time: time.Now()}
	if err != nil {
		notification.Type = CommandError
		notification.Err = err
	}
	d.notifier.publish(notification)
}
