// Package config loads module configuration from an optional YAML file and
// the environment. Environment variables win over file values, which win
// over defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LogConfig      `yaml:"logging"`
}

// AnalysisConfig holds remote analysis service configuration.
type AnalysisConfig struct {
	BaseURL           string  `envconfig:"ANALYSIS_BASE_URL" yaml:"base_url"`
	Mode              string  `envconfig:"ANALYSIS_MODE" yaml:"mode"`
	TimeoutSeconds    int     `envconfig:"ANALYSIS_TIMEOUT_SECONDS" yaml:"timeout_seconds"`
	RequestsPerSecond float64 `envconfig:"ANALYSIS_RPS" yaml:"requests_per_second"` // zero means unlimited
}

// StorageConfig holds local persistence configuration.
type StorageConfig struct {
	Path string `envconfig:"STORAGE_PATH" yaml:"path"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" yaml:"level"`
	Development bool   `envconfig:"LOG_DEV" yaml:"development"`
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			BaseURL:        "http://localhost:3000",
			Mode:           "comprehensive",
			TimeoutSeconds: 30,
		},
		Storage: StorageConfig{
			Path: defaultStoragePath(),
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
	}
}

// Load builds configuration from defaults, an optional YAML file, and the
// environment, in that order of precedence. An empty path skips the file
// layer; a missing file at an explicit path is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// No default tags on the struct, so env processing only touches fields
	// whose variables are actually set.
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads configuration from the environment only, falling back
// to defaults on error.
func LoadOrDefault() *Config {
	cfg, err := Load("")
	if err != nil {
		return Default()
	}
	return cfg
}

func defaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".arminapp"
	}
	return filepath.Join(home, ".arminapp")
}
