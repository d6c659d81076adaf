package config

import "time"

const (
	DefaultAssistantModel   = "gpt-4o-mini"
	DefaultAssistantKeyFile = "openai_api_key"
	DefaultMaxHistory       = 20
)

// GetDefaultConfig returns the built-in configuration.
func GetDefaultConfig() HydeConfig {
	return HydeConfig{
		Session: SessionConfig{
			Enabled: false, // requires explicit enablement
			Timeout: 5 * time.Second,
		},
		Assistant: AssistantConfig{
			Model:       DefaultAssistantModel,
			APIKeyFile:  DefaultAssistantKeyFile,
			Temperature: 0.2,
			MaxHistory:  DefaultMaxHistory,
			Timeout:     60 * time.Second,
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}
