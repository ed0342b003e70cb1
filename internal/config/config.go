// Package config loads snipcheck configuration from YAML, merges it with
// environment and CLI flag overrides, and validates the result.
//
// Precedence, lowest to highest: built-in defaults, config file, the
// SNIPCHECK_TIMEOUT environment variable, CLI flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// EnvTimeout optionally overrides the per-snippet timeout, e.g. "500ms".
const EnvTimeout = "SNIPCHECK_TIMEOUT"

// DefaultConfigDir is the directory probed for a config file.
const DefaultConfigDir = ".snipcheck"

// HistoryConfig configures the verification run history store.
type HistoryConfig struct {
	// Enabled turns history recording on
	Enabled bool `yaml:"enabled"`

	// DBPath is the path to the history database
	DBPath string `yaml:"db_path"`

	// KeepRuns is the maximum number of runs retained per document
	KeepRuns int `yaml:"keep_runs"`
}

// Config represents snipcheck configuration options.
type Config struct {
	// Timeout is the maximum execution time for one snippet
	Timeout time.Duration `yaml:"timeout"`

	// MaxConcurrency bounds parallel snippet evaluation (0 = NumCPU)
	MaxConcurrency int `yaml:"max_concurrency"`

	// LogLevel sets logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// Languages lists fence info strings treated as evaluatable snippets
	Languages []string `yaml:"languages"`

	// History configures the run history store
	History HistoryConfig `yaml:"history"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Timeout:        2 * time.Second,
		MaxConcurrency: 0, // NumCPU
		LogLevel:       "info",
		Languages:      nil, // extractor defaults: "", "js", "javascript"
		History: HistoryConfig{
			Enabled:  true,
			DBPath:   filepath.Join(DefaultConfigDir, "history.db"),
			KeepRuns: 100,
		},
	}
}

// LoadConfig loads configuration from the specified file path.
// A missing file is not an error: defaults are returned. A present but
// malformed file is an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg.applyEnv()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cfg.mergeYAML(data); err != nil {
		return nil, err
	}
	return cfg.applyEnv()
}

// LoadConfigFromDir loads configuration from dir/.snipcheck/config.yaml.
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, DefaultConfigDir, "config.yaml"))
}

// applyEnv applies the SNIPCHECK_TIMEOUT override if set.
func (c *Config) applyEnv() (*Config, error) {
	raw := os.Getenv(EnvTimeout)
	if raw == "" {
		return c, nil
	}
	timeout, err := time.ParseDuration(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", EnvTimeout, raw, err)
	}
	c.Timeout = timeout
	return c, nil
}

// MergeWithFlags overrides configuration with CLI flag values. Nil pointers
// mean the flag was not set and the existing value is kept.
func (c *Config) MergeWithFlags(timeout *time.Duration, maxConcurrency *int, logLevel *string, historyEnabled *bool) {
	if timeout != nil {
		c.Timeout = *timeout
	}
	if maxConcurrency != nil {
		c.MaxConcurrency = *maxConcurrency
	}
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
	if historyEnabled != nil {
		c.History.Enabled = *historyEnabled
	}
}

// Validate checks the merged configuration for invalid values.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency cannot be negative, got %d", c.MaxConcurrency)
	}
	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	if c.History.Enabled && c.History.DBPath == "" {
		return fmt.Errorf("history.db_path is required when history is enabled")
	}
	if c.History.KeepRuns < 0 {
		return fmt.Errorf("history.keep_runs cannot be negative, got %d", c.History.KeepRuns)
	}
	return nil
}
