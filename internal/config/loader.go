package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"hyde/pkg/logging"

	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/hyde"
	configFileName = "config.yaml"
)

// osUserHomeDir is a variable to allow mocking in tests
var osUserHomeDir = os.UserHomeDir

// GetDefaultConfigPath returns ~/.config/hyde.
func GetDefaultConfigPath() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

// LoadConfig loads config.yaml from configPath on top of the defaults. A
// missing file yields the defaults. The returned config has SettingsDir
// resolved to an absolute-or-configPath-relative directory.
func LoadConfig(configPath string) (HydeConfig, error) {
	configFilePath := filepath.Join(configPath, configFileName)
	config := GetDefaultConfig()

	data, err := os.ReadFile(configFilePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logging.Debug("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
	case err != nil:
		return HydeConfig{}, &ConfigurationError{FilePath: configFilePath, ErrorType: ErrorTypeIO, Message: err.Error()}
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return HydeConfig{}, &ConfigurationError{FilePath: configFilePath, ErrorType: ErrorTypeParse, Message: err.Error()}
		}
		logging.Info("ConfigLoader", "Loaded configuration from %s", configFilePath)
	}

	config.SettingsDir = ResolveSettingsDir(configPath, config.SettingsDir)

	if err := config.Validate(); err != nil {
		return HydeConfig{}, &ConfigurationError{FilePath: configFilePath, ErrorType: ErrorTypeValidation, Message: err.Error(), Cause: err}
	}
	return config, nil
}

// ResolveSettingsDir resolves dir against configPath.
func ResolveSettingsDir(configPath, dir string) string {
	switch {
	case dir == "":
		return configPath
	case filepath.IsAbs(dir):
		return dir
	default:
		return filepath.Join(configPath, dir)
	}
}

// SaveConfig writes config to configPath/config.yaml.
func SaveConfig(configPath string, config HydeConfig) error {
	data, err := yaml.Marshal(&config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(filepath.Join(configPath, configFileName), data, 0644)
}
