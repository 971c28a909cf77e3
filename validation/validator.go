// Package validation gates commands against the security policy before
// any process is spawned.
//
// The checks are advisory, best-effort filtering: substring and regex
// matching over the command text. They catch common dangerous patterns
// but are not a sandbox and must not be treated as a security boundary.
package validation

import (
	"context"
	"fmt"
	"strings"

	"github.com/victoralfred/termexec/executor"
	"github.com/victoralfred/termexec/policy"
)

// maxCommandLength bounds relaxed-mode commands; longer ones are rejected
// as likely obfuscation.
const maxCommandLength = 1000

// Validator decides whether a command may run.
type Validator struct {
	policy *policy.SecurityPolicy
}

// New creates a Validator over a policy. A nil policy gets the strict
// default.
func New(p *policy.SecurityPolicy) *Validator {
	if p == nil {
		p = policy.Default()
	}
	return &Validator{policy: p}
}

// Policy returns the underlying security policy for administrative edits.
func (v *Validator) Policy() *policy.SecurityPolicy {
	return v.policy
}

// Validate checks a command against the security policy. A nil return
// means the command may run; a non-nil return is always a
// security_violation NormalizedError and is fatal for the call.
//
// Order of checks: the AllowDestructive override passes immediately; a
// merged-whitelist exact or prefix match passes; a merged-blacklist
// substring match fails; strict mode then denies by default; relaxed mode
// falls through to heuristic pattern checks.
func (v *Validator) Validate(ctx context.Context, command string, opts executor.Options) error {
	_ = ctx

	if opts.AllowDestructive || v.policy.AllowDestructive() {
		return nil
	}

	normalized := strings.ToLower(strings.TrimSpace(command))
	if normalized == "" {
		return executor.NewSecurityViolation(command, "empty command")
	}

	for _, entry := range v.policy.Whitelist() {
		if normalized == entry || strings.HasPrefix(normalized, entry) {
			return nil
		}
	}

	for _, entry := range v.policy.Blacklist() {
		if strings.Contains(normalized, entry) {
			return executor.NewSecurityViolation(command,
				fmt.Sprintf("command matches blacklisted pattern %q", entry))
		}
	}

	if v.policy.StrictMode() {
		return executor.NewSecurityViolation(command,
			"command is not whitelisted; strict mode denies by default")
	}

	return v.heuristics(command, normalized)
}
