// Package policy provides the security policy for terminal command execution.
//
// The default whitelist and blacklist are process-wide immutable values;
// custom entries are per-instance and mutable only through the explicit
// Add/Clear operations. The filtering implemented on top of these lists is
// advisory pattern matching, not a sandbox.
package policy

import (
	"strings"
	"sync"
)

// defaultWhitelist contains command prefixes that are always allowed,
// even under strict mode. These are read-only inspection commands.
var defaultWhitelist = []string{
	"ls",
	"dir",
	"pwd",
	"echo",
	"cat",
	"head",
	"tail",
	"wc",
	"grep",
	"findstr",
	"which",
	"where",
	"whoami",
	"date",
	"hostname",
	"uname",
	"ver",
	"env",
	"printenv",
	"ps",
	"tasklist",
	"df",
	"du",
	"free",
	"uptime",
	"command -v",
	"get-command",
	"git status",
	"git log",
	"git diff",
	"git branch",
	"git show",
	"go version",
	"node --version",
	"npm --version",
	"python --version",
}

// defaultBlacklist contains substrings that always deny a command,
// regardless of any whitelist overlap elsewhere in the string.
var defaultBlacklist = []string{
	"rm -rf",
	"rm -fr",
	"rm --recursive",
	"del /f",
	"del /s",
	"rd /s",
	"format c:",
	"mkfs",
	"dd if=",
	"> /dev/sd",
	"shutdown",
	"reboot",
	"poweroff",
	"halt",
	":(){",
	"chmod 777 /",
	"chown -r root",
	"sudo rm",
	"mv /* ",
	"| sh",
	"| bash",
	"curl | sh",
	"wget | sh",
	"invoke-expression",
	"iex (",
	"net user",
	"reg delete",
	"diskpart",
	"cipher /w",
	"taskkill /f /im",
}

// DefaultWhitelist returns a copy of the process-wide default whitelist.
func DefaultWhitelist() []string {
	out := make([]string, len(defaultWhitelist))
	copy(out, defaultWhitelist)
	return out
}

// DefaultBlacklist returns a copy of the process-wide default blacklist.
func DefaultBlacklist() []string {
	out := make([]string, len(defaultBlacklist))
	copy(out, defaultBlacklist)
	return out
}

// SecurityPolicy holds the merged allow/deny configuration for one
// dispatcher instance. The zero value is not usable; call New.
type SecurityPolicy struct {
	mu               sync.RWMutex
	customWhitelist  []string
	customBlacklist  []string
	strictMode       bool
	allowDestructive bool
}

// Options configures a SecurityPolicy. The zero value is the strict
// default-deny policy.
type Options struct {
	// RelaxedMode disables default-deny: unlisted commands pass unless a
	// heuristic flags them. Inverted so the zero value stays strict.
	RelaxedMode bool

	// AllowDestructive bypasses all checks. Intended for explicitly
	// trusted callers only.
	AllowDestructive bool

	// CustomWhitelist is merged ahead of the default whitelist.
	CustomWhitelist []string

	// CustomBlacklist is merged ahead of the default blacklist.
	CustomBlacklist []string
}

// New creates a SecurityPolicy from options.
func New(opts Options) *SecurityPolicy {
	p := &SecurityPolicy{
		strictMode:       !opts.RelaxedMode,
		allowDestructive: opts.AllowDestructive,
	}
	p.customWhitelist = normalizeList(opts.CustomWhitelist)
	p.customBlacklist = normalizeList(opts.CustomBlacklist)
	return p
}

// Default returns a strict-mode policy with no custom entries.
func Default() *SecurityPolicy {
	return New(Options{})
}

// StrictMode reports whether default-deny is active.
func (p *SecurityPolicy) StrictMode() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.strictMode
}

// SetStrictMode toggles default-deny.
func (p *SecurityPolicy) SetStrictMode(strict bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.strictMode = strict
}

// AllowDestructive reports whether the policy bypasses all checks.
func (p *SecurityPolicy) AllowDestructive() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.allowDestructive
}

// Whitelist returns the merged whitelist: custom entries first, then the
// process-wide defaults. The returned slice is a copy.
func (p *SecurityPolicy) Whitelist() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]string, 0, len(p.customWhitelist)+len(defaultWhitelist))
	out = append(out, p.customWhitelist...)
	out = append(out, defaultWhitelist...)
	return out
}

// Blacklist returns the merged blacklist: custom entries first, then the
// process-wide defaults. The returned slice is a copy.
func (p *SecurityPolicy) Blacklist() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]string, 0, len(p.customBlacklist)+len(defaultBlacklist))
	out = append(out, p.customBlacklist...)
	out = append(out, defaultBlacklist...)
	return out
}

// AddWhitelist appends custom whitelist entries.
func (p *SecurityPolicy) AddWhitelist(entries ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.customWhitelist = append(p.customWhitelist, normalizeList(entries)...)
}

// AddBlacklist appends custom blacklist entries.
func (p *SecurityPolicy) AddBlacklist(entries ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.customBlacklist = append(p.customBlacklist, normalizeList(entries)...)
}

// ClearCustomWhitelist removes all custom whitelist entries.
func (p *SecurityPolicy) ClearCustomWhitelist() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.customWhitelist = nil
}

// ClearCustomBlacklist removes all custom blacklist entries.
func (p *SecurityPolicy) ClearCustomBlacklist() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.customBlacklist = nil
}

// normalizeList trims and lower-cases entries, dropping empties. Matching
// is always performed against normalized command text.
func normalizeList(entries []string) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}
