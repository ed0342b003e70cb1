package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// yamlConfig mirrors Config with the timeout as a string so "500ms" and
// "2s" parse as durations.
type yamlConfig struct {
	Timeout        string   `yaml:"timeout"`
	MaxConcurrency int      `yaml:"max_concurrency"`
	LogLevel       string   `yaml:"log_level"`
	Languages      []string `yaml:"languages"`
	History        struct {
		Enabled  *bool  `yaml:"enabled"`
		DBPath   string `yaml:"db_path"`
		KeepRuns int    `yaml:"keep_runs"`
	} `yaml:"history"`
}

// mergeYAML applies non-zero values from the file on top of defaults.
func (c *Config) mergeYAML(data []byte) error {
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if yc.Timeout != "" {
		timeout, err := time.ParseDuration(yc.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout format %q: %w", yc.Timeout, err)
		}
		c.Timeout = timeout
	}
	if yc.MaxConcurrency != 0 {
		c.MaxConcurrency = yc.MaxConcurrency
	}
	if yc.LogLevel != "" {
		c.LogLevel = yc.LogLevel
	}
	if len(yc.Languages) > 0 {
		c.Languages = yc.Languages
	}
	if yc.History.Enabled != nil {
		c.History.Enabled = *yc.History.Enabled
	}
	if yc.History.DBPath != "" {
		c.History.DBPath = yc.History.DBPath
	}
	if yc.History.KeepRuns != 0 {
		c.History.KeepRuns = yc.History.KeepRuns
	}

	return nil
}
