package validation

import (
	"fmt"
	"regexp"

	"github.com/victoralfred/termexec/executor"
)

// heuristicCheck is one relaxed-mode pattern check.
type heuristicCheck struct {
	name    string
	pattern *regexp.Regexp
	reason  string
}

// heuristicChecks are applied in order in relaxed mode, after the
// whitelist and blacklist. Patterns match the lower-cased command.
var heuristicChecks = []heuristicCheck{
	{
		name:    "command_chaining",
		pattern: regexp.MustCompile(`(;|&&|\|\|)`),
		reason:  "chained commands are not allowed",
	},
	{
		name:    "shell_metacharacters",
		pattern: regexp.MustCompile("[`|<>]"),
		reason:  "shell metacharacters suggest injection",
	},
	{
		name:    "directory_traversal",
		pattern: regexp.MustCompile(`\.\.[/\\]`),
		reason:  "directory traversal sequence",
	},
	{
		name:    "variable_expansion",
		pattern: regexp.MustCompile(`\$\{|\$\(|%[a-z_][a-z0-9_]*%`),
		reason:  "variable expansion or command substitution",
	},
	{
		name:    "eval_exec",
		pattern: regexp.MustCompile(`\b(eval|exec|source)\b`),
		reason:  "dynamic evaluation keyword",
	},
	{
		name:    "encoding_obfuscation",
		pattern: regexp.MustCompile(`\b(base64|frombase64string|certutil)\b`),
		reason:  "encoding or decoding keyword suggests obfuscation",
	},
	{
		name:    "privilege_escalation",
		pattern: regexp.MustCompile(`\b(sudo|su|doas|runas)\b`),
		reason:  "privilege escalation keyword",
	},
}

// heuristics runs the relaxed-mode checks against a normalized command.
func (v *Validator) heuristics(command, normalized string) error {
	if len(normalized) > maxCommandLength {
		return executor.NewSecurityViolation(command,
			fmt.Sprintf("command length %d exceeds limit of %d", len(normalized), maxCommandLength))
	}

	for _, check := range heuristicChecks {
		if check.pattern.MatchString(normalized) {
			return executor.NewSecurityViolation(command,
				fmt.Sprintf("heuristic %s: %s", check.name, check.reason))
		}
	}

	return nil
}
