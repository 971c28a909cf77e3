// Package envutil provides environment variable utilities.
package envutil

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// HostEnvironment returns the current process environment as a map.
func HostEnvironment() map[string]string {
	env := os.Environ()
	result := make(map[string]string, len(env))

	for _, e := range env {
		if idx := strings.IndexByte(e, '='); idx > 0 {
			result[e[:idx]] = e[idx+1:]
		}
	}

	return result
}

// MergeEnvironment merges base environment with overrides.
// Overrides take precedence.
func MergeEnvironment(base, override map[string]string) map[string]string {
	result := make(map[string]string, len(base)+len(override))

	for k, v := range base {
		result[k] = v
	}

	for k, v := range override {
		result[k] = v
	}

	return result
}

// BuildEnv creates a sorted KEY=VALUE slice from a map, suitable for
// handing to the process spawner. Sorting keeps the slice deterministic
// for tests and audit output.
func BuildEnv(env map[string]string) []string {
	result := make([]string, 0, len(env))
	for k, v := range env {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(result)
	return result
}
