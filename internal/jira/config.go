package jira

import "os"

// Config holds connection settings for the Jira REST API.
type Config struct {
	BaseURL    string
	Email      string
	APIToken   string
	TimeoutMs  int
	MaxRetries int
}

// DefaultConfig returns client defaults. Credentials come from the config
// file or environment; there are no credential defaults.
func DefaultConfig() Config {
	return Config{
		TimeoutMs:  10000,
		MaxRetries: 1,
	}
}

// LoadConfig reads Jira settings from environment variables, falling back
// to defaults for any unset value.
func LoadConfig() Config {
	cfg := DefaultConfig()
	if v := os.Getenv("JIRABRIDGE_JIRA_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("JIRABRIDGE_JIRA_EMAIL"); v != "" {
		cfg.Email = v
	}
	if v := os.Getenv("JIRABRIDGE_JIRA_TOKEN"); v != "" {
		cfg.APIToken = v
	}
	return cfg
}

// Configured reports whether enough settings are present to talk to Jira.
func (c Config) Configured() bool {
	return c.BaseURL != "" && c.Email != "" && c.APIToken != ""
}
