package config

import "time"

// HydeConfig is the top-level configuration of hyde-settings, read from
// config.yaml in the config directory.
type HydeConfig struct {
	// SettingsDir holds the domain backing files. Relative paths are
	// resolved against the config directory; empty means the config
	// directory itself.
	SettingsDir string `yaml:"settingsDir,omitempty"`

	// Domains overrides the backing file or format of built-in domains.
	Domains map[string]DomainOverride `yaml:"domains,omitempty"`

	Session   SessionConfig   `yaml:"session"`
	Assistant AssistantConfig `yaml:"assistant"`
	Watch     WatchConfig     `yaml:"watch"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DomainOverride replaces parts of a domain declaration.
type DomainOverride struct {
	File   string `yaml:"file,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// SessionConfig controls live-session hooks.
type SessionConfig struct {
	Enabled bool          `yaml:"enabled"`
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// Hooks maps a domain name, or "*", to command templates run after the
	// domain is applied.
	Hooks map[string][]string `yaml:"hooks,omitempty"`
}

// AssistantConfig points the assistant at an OpenAI-compatible endpoint.
type AssistantConfig struct {
	BaseURL     string        `yaml:"baseURL,omitempty"`
	Model       string        `yaml:"model,omitempty"`
	APIKeyFile  string        `yaml:"apiKeyFile,omitempty"` // relative to the config directory
	Temperature float64       `yaml:"temperature,omitempty"`
	MaxHistory  int           `yaml:"maxHistory,omitempty"` // messages kept in a conversation
	Timeout     time.Duration `yaml:"timeout,omitempty"`
}

// WatchConfig tunes the watch command.
type WatchConfig struct {
	Debounce   time.Duration `yaml:"debounce,omitempty"`
	AutoAccept bool          `yaml:"autoAccept,omitempty"`
}

// LoggingConfig sets the log level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}
