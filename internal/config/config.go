package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Remote contains remote document-store settings.
type Remote struct {
	BaseURL              string `yaml:"base_url"`
	TimeoutMs            int    `yaml:"timeout_ms"`
	MaxRetries           int    `yaml:"max_retries"`
	FlushIntervalSeconds int    `yaml:"flush_interval_seconds"`
}

// Jira contains issue-tracker credentials and endpoint.
type Jira struct {
	BaseURL  string `yaml:"base_url"`
	Email    string `yaml:"email"`
	APIToken string `yaml:"api_token"`
}

// Config holds all application configuration.
type Config struct {
	User   string `yaml:"user"`
	DBPath string `yaml:"db_path,omitempty"`
	Remote Remote `yaml:"remote"`
	Jira   Jira   `yaml:"jira"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Remote: Remote{
			TimeoutMs:            5000,
			MaxRetries:           1,
			FlushIntervalSeconds: 60,
		},
	}
}

// configPath returns the path to the config file.
func configPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".jirabridge", "config.yaml")
}

// Load loads config from file, falling back to defaults, then applies
// environment overrides.
func Load() *Config {
	cfg := DefaultConfig()

	if data, err := os.ReadFile(configPath()); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			cfg = DefaultConfig()
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("JIRABRIDGE_USER"); v != "" {
		cfg.User = v
	}
	if v := os.Getenv("JIRABRIDGE_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("JIRABRIDGE_REMOTE_URL"); v != "" {
		cfg.Remote.BaseURL = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.DBPath == "" {
		home, _ := os.UserHomeDir()
		cfg.DBPath = filepath.Join(home, ".jirabridge", "jirabridge.db")
	}
	if cfg.Remote.FlushIntervalSeconds <= 0 {
		cfg.Remote.FlushIntervalSeconds = 60
	}
	if cfg.Remote.TimeoutMs <= 0 {
		cfg.Remote.TimeoutMs = 5000
	}
	if cfg.User == "" {
		cfg.User = os.Getenv("USER")
	}
}

// Path returns the config file path (for help text).
func Path() string {
	return configPath()
}
