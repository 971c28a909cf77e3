// Package termexec provides a cross-platform terminal command execution
// backend with a single dispatch API over Windows PowerShell, WSL, and
// native Unix shells.
//
// TermExec probes the host platform once, selects the matching executor,
// and routes every command through security validation, timeout and
// output-buffer enforcement, and a normalized error taxonomy. Exactly one
// OS process is spawned per call, and every call settles exactly once:
// with a result, or with one normalized error carrying any partial output.
//
// # Key Features
//
//   - One dispatcher API for PowerShell, WSL, and Unix shell execution
//   - Whitelist/blacklist command validation with strict and relaxed modes
//   - Per-call timeouts with graceful-then-forceful process termination
//   - Output buffer ceilings that terminate runaway producers
//   - Capture, streaming, and sequential batch execution modes
//   - Normalized cross-platform error categories with partial results
//   - OpenTelemetry metrics and tracing, JSONL audit logging
//
// # Basic Usage
//
//	d, err := termexec.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer d.Destroy()
//
//	result, err := d.ExecuteCapture(ctx, "git status", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Stdout)
//
// # Streaming
//
//	stream, err := d.ExecuteStreaming(ctx, "make build", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for ev := range stream.Events() {
//	    if ev.Kind == termexec.EventStdout {
//	        fmt.Print(string(ev.Data))
//	    }
//	}
//	result, err := stream.Wait()
//
// # Security Model
//
// Every command passes the validator before any process is spawned. In
// strict mode only whitelisted commands run; in relaxed mode heuristic
// pattern checks catch chaining, traversal, expansion, and privilege
// escalation. The checks are advisory filtering over the command text,
// not a sandbox. AllowDestructive bypasses validation per call for
// trusted callers.
//
// # Package Structure
//
//   - termexec: main entry point and convenience re-exports
//   - dispatcher: platform routing, batching, notifications
//   - executor: platform executors, options, results, error taxonomy
//   - platform: host platform detection (Windows, WSL, Unix)
//   - validation: security validation over the policy
//   - policy: whitelist/blacklist policy and YAML loading
//   - resilience: dispatch rate limiting
//   - observability: OpenTelemetry metrics and audit logging
//   - config: bundled configuration profiles
//
// # Thread Safety
//
// The Dispatcher and the executors are safe for concurrent use by
// multiple goroutines.
package termexec
