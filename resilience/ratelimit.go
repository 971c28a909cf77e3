// Package resilience provides execution-rate control for the dispatcher.
package resilience

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter bounds how fast commands may be dispatched to a shell.
type RateLimiter interface {
	// Allow checks if execution is allowed for the given shell.
	Allow(shell string) bool

	// Wait blocks until execution is allowed or the context is canceled.
	Wait(ctx context.Context, shell string) error

	// SetLimit updates the rate limit for a shell.
	SetLimit(shell string, limit rate.Limit, burst int)
}

// Config configures the rate limiter.
type Config struct {
	// Enabled turns rate limiting on.
	Enabled bool

	// DefaultLimit is the default spawns per second.
	DefaultLimit float64

	// DefaultBurst is the default burst size.
	DefaultBurst int

	// PerShell enables separate limits per shell.
	PerShell bool

	// ShellLimits contains per-shell rate limits.
	ShellLimits map[string]ShellLimit
}

// ShellLimit defines the rate limit for a specific shell.
type ShellLimit struct {
	Limit float64
	Burst int
}

// DefaultConfig returns default configuration. Rate limiting is off by
// default; command dispatch is interactive traffic, not a request flood.
func DefaultConfig() Config {
	return Config{
		Enabled:      false,
		DefaultLimit: 50,
		DefaultBurst: 100,
		PerShell:     true,
		ShellLimits:  make(map[string]ShellLimit),
	}
}

// rateLimiter implements RateLimiter over golang.org/x/time/rate.
type rateLimiter struct {
	config        Config
	globalLimiter *rate.Limiter
	shellLimiters map[string]*rate.Limiter
	mu            sync.RWMutex
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(config Config) RateLimiter {
	rl := &rateLimiter{
		config:        config,
		globalLimiter: rate.NewLimiter(rate.Limit(config.DefaultLimit), config.DefaultBurst),
		shellLimiters: make(map[string]*rate.Limiter),
	}

	for shell, limit := range config.ShellLimits {
		rl.shellLimiters[shell] = rate.NewLimiter(rate.Limit(limit.Limit), limit.Burst)
	}

	return rl
}

// Allow implements RateLimiter.Allow.
func (rl *rateLimiter) Allow(shell string) bool {
	if !rl.config.PerShell {
		return rl.globalLimiter.Allow()
	}
	return rl.getLimiter(shell).Allow()
}

// Wait implements RateLimiter.Wait.
func (rl *rateLimiter) Wait(ctx context.Context, shell string) error {
	if !rl.config.PerShell {
		return rl.globalLimiter.Wait(ctx)
	}
	return rl.getLimiter(shell).Wait(ctx)
}

// SetLimit implements RateLimiter.SetLimit.
func (rl *rateLimiter) SetLimit(shell string, limit rate.Limit, burst int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, ok := rl.shellLimiters[shell]; ok {
		limiter.SetLimit(limit)
		limiter.SetBurst(burst)
	} else {
		rl.shellLimiters[shell] = rate.NewLimiter(limit, burst)
	}
}

func (rl *rateLimiter) getLimiter(shell string) *rate.Limiter {
	rl.mu.RLock()
	limiter, ok := rl.shellLimiters[shell]
	rl.mu.RUnlock()

	if ok {
		return limiter
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Double-check after acquiring the write lock.
	if existing, ok := rl.shellLimiters[shell]; ok {
		return existing
	}

	newLimiter := rate.NewLimiter(rate.Limit(rl.config.DefaultLimit), rl.config.DefaultBurst)
	rl.shellLimiters[shell] = newLimiter
	return newLimiter
}
