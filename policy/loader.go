package policy

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/victoralfred/gowritter/safepath"
	"gopkg.in/yaml.v3"
)

// Config is the on-disk YAML representation of a security policy.
type Config struct {
	Version          string   `yaml:"version"`
	StrictMode       *bool    `yaml:"strict_mode"`
	AllowDestructive bool     `yaml:"allow_destructive"`
	Whitelist        []string `yaml:"whitelist"`
	Blacklist        []string `yaml:"blacklist"`
}

// Loader loads and manages policies from YAML files.
type Loader struct {
	path     string
	safePath *safepath.SafePath
	policy   *SecurityPolicy
	mu       sync.RWMutex
	lastHash []byte
	lastLoad time.Time
}

// NewLoader creates a policy loader rooted at basePath.
func NewLoader(basePath, policyFile string) (*Loader, error) {
	sp, err := safepath.New(basePath)
	if err != nil {
		return nil, fmt.Errorf("creating safe path: %w", err)
	}

	return &Loader{
		path:     policyFile,
		safePath: sp,
	}, nil
}

// Load reads and parses the policy file. Unchanged files return the
// previously built policy.
func (l *Loader) Load(ctx context.Context) (*SecurityPolicy, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := l.safePath.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("reading policy file: %w", err)
	}

	hash := sha256.Sum256(data)
	if l.policy != nil && string(hash[:]) == string(l.lastHash) {
		return l.policy, nil
	}

	config, err := ParseYAML(data)
	if err != nil {
		return nil, err
	}

	pol, err := FromConfig(config)
	if err != nil {
		return nil, err
	}

	l.policy = pol
	l.lastHash = hash[:]
	l.lastLoad = time.Now()

	return pol, nil
}

// Get returns the most recently loaded policy, or nil.
func (l *Loader) Get() *SecurityPolicy {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.policy
}

// ParseYAML parses a YAML policy configuration.
func ParseYAML(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing policy YAML: %w", err)
	}
	return &config, nil
}

// FromConfig builds a SecurityPolicy from a parsed configuration.
func FromConfig(config *Config) (*SecurityPolicy, error) {
	if config.Version == "" {
		return nil, fmt.Errorf("policy version is required")
	}

	// Strict mode defaults to true when the file omits it.
	strict := true
	if config.StrictMode != nil {
		strict = *config.StrictMode
	}

	return New(Options{
		RelaxedMode:      !strict,
		AllowDestructive: config.AllowDestructive,
		CustomWhitelist:  config.Whitelist,
		CustomBlacklist:  config.Blacklist,
	}), nil
}

// ExampleConfig returns an example policy configuration.
func ExampleConfig() *Config {
	strict := true
	return &Config{
		Version:    "1.0",
		StrictMode: &strict,
		Whitelist:  []string{"make test", "go build", "npm run lint"},
		Blacklist:  []string{"drop database", "truncate table"},
	}
}
