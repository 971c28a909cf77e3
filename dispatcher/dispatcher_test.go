package dispatcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/victoralfred/termexec/config"
	"github.com/victoralfred/termexec/executor"
	"github.com/victoralfred/termexec/platform"
)

// testConfig returns a quiet configuration for dispatcher tests: relaxed
// validation, no telemetry, no audit.
func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.Policy.RelaxedMode = true
	cfg.Dispatcher.EnableMetrics = false
	cfg.Dispatcher.EnableTracing = false
	return cfg
}

func testDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("dispatcher execution tests require a Unix shell")
	}

	d, err := New(testConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { _ = d.Destroy() })
	return d
}

func TestExecutorSelection(t *testing.T) {
	tests := []struct {
		name      string
		info      platform.Info
		preferWSL bool
		platform  string
		wsl       bool
	}{
		{"windows host", platform.Info{Kind: platform.Windows, OS: "windows"}, false, "windows", false},
		{"windows host prefers wsl", platform.Info{Kind: platform.Windows, OS: "windows"}, true, "wsl", true},
		{"inside wsl", platform.Info{Kind: platform.WSL, OS: "linux", Distro: "Ubuntu"}, false, "wsl", true},
		{"native unix", platform.Info{Kind: platform.Unix, OS: "linux"}, false, "unix", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Dispatcher.PreferWSL = tt.preferWSL

			d, err := newWithPlatform(cfg, tt.info)
			if err != nil {
				t.Fatalf("newWithPlatform failed: %v", err)
			}
			defer d.Destroy()

			info := d.SystemInfo()
			if info.Platform != tt.platform {
				t.Errorf("Expected platform %q, got %q", tt.platform, info.Platform)
			}
			if info.Capabilities.WSL != tt.wsl {
				t.Errorf("Expected WSL=%v, got %v", tt.wsl, info.Capabilities.WSL)
			}
		})
	}
}

func TestExecuteCaptureRoundTrip(t *testing.T) {
	d := testDispatcher(t)

	result, err := d.ExecuteCapture(context.Background(), "echo hello", nil)
	if err != nil {
		t.Fatalf("ExecuteCapture failed: %v", err)
	}
	if result.TrimmedStdout() != "hello" {
		t.Errorf("Expected stdout %q, got %q", "hello", result.TrimmedStdout())
	}
	if result.ExitCode != 0 {
		t.Errorf("Expected exit code 0, got %d", result.ExitCode)
	}
	if result.CommandID == "" {
		t.Error("Result should carry a command id")
	}
}

func TestExecuteCaptureValidationGate(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("dispatcher execution tests require a Unix shell")
	}

	cfg := testConfig()
	cfg.Policy.RelaxedMode = false
	d, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer d.Destroy()

	_, err = d.ExecuteCapture(context.Background(), "some-unknown-binary", nil)
	if err == nil {
		t.Fatal("Strict mode should deny unlisted commands")
	}
	if !errors.Is(err, executor.ErrSecurityViolation) {
		t.Errorf("Expected security violation, got %v", err)
	}
}

func TestZeroValueConfigDeniesUnlistedCommands(t *testing.T) {
	d, err := New(config.Config{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer d.Destroy()

	_, err = d.ExecuteCapture(context.Background(), "make build", nil)
	if !errors.Is(err, executor.ErrSecurityViolation) {
		t.Fatalf("Zero-value config should deny unlisted commands, got %v", err)
	}
}

func TestPolicyFileReplacesConfigPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	data := []byte("version: \"1.0\"\nstrict_mode: true\nwhitelist:\n  - deploy-tool\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("Writing policy file failed: %v", err)
	}

	cfg := testConfig()
	cfg.PolicyPath = path
	d, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer d.Destroy()

	pol := d.Validator().Policy()
	if !pol.StrictMode() {
		t.Error("Loaded policy file should enable strict mode")
	}
	if pol.Whitelist()[0] != "deploy-tool" {
		t.Errorf("Loaded policy should carry the custom whitelist, got %q", pol.Whitelist()[0])
	}
}

func TestPolicyFileMissingFallsBack(t *testing.T) {
	cfg := testConfig()
	cfg.PolicyPath = filepath.Join(t.TempDir(), "absent.yaml")

	d, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer d.Destroy()

	if d.Validator().Policy().StrictMode() {
		t.Error("Missing policy file should fall back to the in-config policy")
	}
}

func TestExecuteStreamingDeliversEvents(t *testing.T) {
	d := testDispatcher(t)

	stream, err := d.ExecuteStreaming(context.Background(), "echo streamed", nil)
	if err != nil {
		t.Fatalf("ExecuteStreaming failed: %v", err)
	}

	sawStdout := false
	for ev := range stream.Events() {
		if ev.Kind == executor.EventStdout {
			sawStdout = true
		}
	}
	if !sawStdout {
		t.Error("Expected at least one stdout event")
	}

	result, err := stream.Wait()
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if result.TrimmedStdout() != "streamed" {
		t.Errorf("Expected stdout %q, got %q", "streamed", result.TrimmedStdout())
	}
}

func TestExecuteBatchStopsOnFirstFailure(t *testing.T) {
	d := testDispatcher(t)

	entries, err := d.ExecuteBatch(context.Background(), []string{
		"echo one",
		"exit 3",
		"echo three",
	}, nil)
	if err != nil {
		t.Fatalf("ExecuteBatch failed: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("Expected 2 attempted entries, got %d", len(entries))
	}
	if !entries[0].Success() {
		t.Errorf("First entry should succeed, got %v", entries[0].Err)
	}
	if entries[1].Success() {
		t.Error("Second entry should fail")
	}
	if !errors.Is(entries[1].Err, executor.ErrNonzeroExit) {
		t.Errorf("Expected nonzero exit error, got %v", entries[1].Err)
	}
}

func TestExecuteBatchContinueOnError(t *testing.T) {
	d := testDispatcher(t)

	entries, err := d.ExecuteBatch(context.Background(), []string{
		"echo one",
		"exit 3",
		"echo three",
	}, &executor.Options{ContinueOnError: true})
	if err != nil {
		t.Fatalf("ExecuteBatch failed: %v", err)
	}

	if len(entries) != 3 {
		t.Fatalf("Expected all 3 entries attempted, got %d", len(entries))
	}
	if !entries[2].Success() {
		t.Errorf("Third entry should still run, got %v", entries[2].Err)
	}
	if entries[2].Result.TrimmedStdout() != "three" {
		t.Errorf("Expected stdout %q, got %q", "three", entries[2].Result.TrimmedStdout())
	}
}

func TestIsCommandAvailable(t *testing.T) {
	d := testDispatcher(t)

	available, err := d.IsCommandAvailable(context.Background(), "sh")
	if err != nil {
		t.Fatalf("IsCommandAvailable failed: %v", err)
	}
	if !available {
		t.Error("sh should be available")
	}

	available, err = d.IsCommandAvailable(context.Background(), "definitely-not-a-command-zz")
	if err != nil {
		t.Fatalf("IsCommandAvailable failed: %v", err)
	}
	if available {
		t.Error("Nonexistent command should not be available")
	}
}

func TestIsCommandAvailableRejectsUnsafeNames(t *testing.T) {
	d := testDispatcher(t)

	for _, name := range []string{"", "git status", "x; rm -rf /", "$(hostname)"} {
		if _, err := d.IsCommandAvailable(context.Background(), name); !errors.Is(err, executor.ErrSecurityViolation) {
			t.Errorf("Name %q should be rejected, got %v", name, err)
		}
	}
}

func TestNotifications(t *testing.T) {
	d := testDispatcher(t)
	events := d.Events()

	if _, err := d.ExecuteCapture(context.Background(), "echo hello", nil); err != nil {
		t.Fatalf("ExecuteCapture failed: %v", err)
	}

	first := <-events
	if first.Type != CommandStart || first.Command != "echo hello" {
		t.Errorf("Expected start notification, got %+v", first)
	}

	second := <-events
	if second.Type != CommandComplete {
		t.Errorf("Expected complete notification, got %+v", second)
	}
	if second.Result == nil || second.Result.TrimmedStdout() != "hello" {
		t.Error("Complete notification should carry the result")
	}
}

func TestNotificationsOnValidationDenial(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("dispatcher execution tests require a Unix shell")
	}

	cfg := testConfig()
	cfg.Policy.RelaxedMode = false
	d, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer d.Destroy()

	events := d.Events()

	if _, err := d.ExecuteCapture(context.Background(), "some-unknown-binary", nil); err == nil {
		t.Fatal("Expected validation denial")
	}

	notification := <-events
	if notification.Type != CommandError {
		t.Errorf("Expected error notification, got %+v", notification)
	}
	if notification.Err == nil {
		t.Error("Error notification should carry the error")
	}
}

func TestSystemInfoStable(t *testing.T) {
	d := testDispatcher(t)

	first := d.SystemInfo()
	second := d.SystemInfo()

	if first.Platform != second.Platform || first.Shell != second.Shell {
		t.Errorf("SystemInfo should be stable, got %+v then %+v", first, second)
	}
	if first.OS != runtime.GOOS {
		t.Errorf("Expected OS %q, got %q", runtime.GOOS, first.OS)
	}
}

func TestSetWorkingDirectory(t *testing.T) {
	d := testDispatcher(t)

	dir := t.TempDir()
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatalf("EvalSymlinks failed: %v", err)
	}
	if err := d.SetWorkingDirectory(dir); err != nil {
		t.Fatalf("SetWorkingDirectory failed: %v", err)
	}

	result, err := d.ExecuteCapture(context.Background(), "pwd", nil)
	if err != nil {
		t.Fatalf("ExecuteCapture failed: %v", err)
	}
	if result.TrimmedStdout() != resolved {
		t.Errorf("Expected working dir %q, got %q", resolved, result.TrimmedStdout())
	}

	if err := d.SetWorkingDirectory("/definitely/not/a/dir"); err == nil {
		t.Error("Missing directory should be rejected")
	}
}

func TestDestroyRejectsFurtherCalls(t *testing.T) {
	d := testDispatcher(t)
	events := d.Events()

	if err := d.Destroy(); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}
	// Idempotent.
	if err := d.Destroy(); err != nil {
		t.Fatalf("Second Destroy failed: %v", err)
	}

	if _, err := d.ExecuteCapture(context.Background(), "echo hello", nil); err == nil {
		t.Error("ExecuteCapture after Destroy should fail")
	}
	if _, err := d.ExecuteBatch(context.Background(), []string{"echo hello"}, nil); err == nil {
		t.Error("ExecuteBatch after Destroy should fail")
	}
	if _, err := d.IsCommandAvailable(context.Background(), "sh"); err == nil {
		t.Error("IsCommandAvailable after Destroy should fail")
	}

	select {
	case _, ok := <-events:
		if ok {
			t.Error("Event channel should be closed after Destroy")
		}
	case <-time.After(time.Second):
		t.Error("Event channel should be closed after Destroy")
	}
}
