package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/example/sigos/internal/core/command"
	"github.com/example/sigos/internal/core/lumen"
)

// Config represents the flat sigos daemon configuration.
// Values come from defaults, then the YAML file, then SIGOS_* variables.
type Config struct {
	Listen        string        `yaml:"listen"          env:"SIGOS_LISTEN"`
	Echo          bool          `yaml:"echo"            env:"SIGOS_ECHO"`
	Welcome       string        `yaml:"welcome"         env:"SIGOS_WELCOME"`
	MaxLineLength int           `yaml:"max_line_length" env:"SIGOS_MAX_LINE_LENGTH"`
	LinePolicy    string        `yaml:"line_policy"     env:"SIGOS_LINE_POLICY"` // "truncate" or "reject"
	StateNames    []string      `yaml:"states"          env:"SIGOS_STATES"   envSeparator:","`
	DefaultState  string        `yaml:"default_state"   env:"SIGOS_DEFAULT_STATE"`
	Priority      []string      `yaml:"priority"        env:"SIGOS_PRIORITY" envSeparator:","` // highest first; empty keeps enumeration order
	Level         int           `yaml:"level"           env:"SIGOS_LEVEL"`
	MaxRequests   int           `yaml:"max_requests"    env:"SIGOS_MAX_REQUESTS"` // 0 = unlimited
	RatePerSecond float64       `yaml:"rate_per_second" env:"SIGOS_RATE_PER_SECOND"`
	RateBurst     int           `yaml:"rate_burst"      env:"SIGOS_RATE_BURST"`
	DBPath        string        `yaml:"db_path"         env:"SIGOS_DB_PATH"` // empty keeps the audit log in memory
	LogLimit      int           `yaml:"log_limit"       env:"SIGOS_LOG_LIMIT"`
	IdleTimeout   time.Duration `yaml:"idle_timeout"    env:"SIGOS_IDLE_TIMEOUT"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Listen:        ":2323",
		Echo:          true,
		Welcome:       "SigOS semaphore",
		MaxLineLength: command.DefaultMaxLineLength,
		LinePolicy:    string(command.PolicyTruncate),
		StateNames:    []string{"off", "on", "blink-slow", "blink-fast"},
		DefaultState:  "off",
		Level:         int(lumen.DefaultLevel),
		RatePerSecond: 20,
		RateBurst:     10,
		LogLimit:      32,
	}
}

// LoadConfig reads a YAML file on top of the defaults.
// An empty path returns the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overlays SIGOS_* environment variables onto cfg.
// Unset variables leave the current value alone.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads path, applies the environment and validates the result.
func Load(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig writes cfg as YAML, creating the parent directory.
func SaveConfig(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate checks ranges and that every referenced state exists.
func (c *Config) Validate() error {
	var errs []error

	if c.Listen == "" {
		errs = append(errs, errors.New("listen address is required"))
	}
	if c.MaxLineLength < 0 {
		errs = append(errs, fmt.Errorf("max_line_length must not be negative, got %d", c.MaxLineLength))
	}
	if _, err := command.ParseLinePolicy(c.LinePolicy); err != nil {
		errs = append(errs, err)
	}

	known := make(map[string]bool, len(c.StateNames))
	if len(c.StateNames) < 2 {
		errs = append(errs, fmt.Errorf("at least two states are required, got %d", len(c.StateNames)))
	}
	for _, name := range c.StateNames {
		if known[name] {
			errs = append(errs, fmt.Errorf("state %q listed twice", name))
		}
		known[name] = true
	}

	if c.DefaultState != "" && !known[c.DefaultState] {
		errs = append(errs, fmt.Errorf("default_state %q is not a state", c.DefaultState))
	}

	if len(c.Priority) > 0 {
		if len(c.Priority) != len(c.StateNames) {
			errs = append(errs, fmt.Errorf("priority must list all %d states, got %d", len(c.StateNames), len(c.Priority)))
		}
		seen := make(map[string]bool, len(c.Priority))
		for _, name := range c.Priority {
			if !known[name] {
				errs = append(errs, fmt.Errorf("priority names unknown state %q", name))
			}
			if seen[name] {
				errs = append(errs, fmt.Errorf("priority lists %q twice", name))
			}
			seen[name] = true
		}
	}

	if !lumen.Level(c.Level).Valid() {
		errs = append(errs, fmt.Errorf("level must be %d-%d, got %d", lumen.MinLevel, lumen.MaxLevel, c.Level))
	}
	if c.MaxRequests < 0 {
		errs = append(errs, fmt.Errorf("max_requests must not be negative, got %d", c.MaxRequests))
	}
	if c.RatePerSecond < 0 || c.RateBurst < 0 {
		errs = append(errs, errors.New("rate_per_second and rate_burst must not be negative"))
	}
	if c.LogLimit < 0 {
		errs = append(errs, fmt.Errorf("log_limit must not be negative, got %d", c.LogLimit))
	}
	if c.IdleTimeout < 0 {
		errs = append(errs, fmt.Errorf("idle_timeout must not be negative, got %v", c.IdleTimeout))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// LineLimit returns the transport line limit described by the config.
func (c *Config) LineLimit() command.LineLimit {
	policy, err := command.ParseLinePolicy(c.LinePolicy)
	if err != nil {
		policy = command.PolicyTruncate
	}
	return command.LineLimit{Max: c.MaxLineLength, Policy: policy}
}
