package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte(content), 0644))
}

func TestLoadConfig_DefaultOnly(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	want := GetDefaultConfig()
	want.SettingsDir = dir
	assert.Equal(t, want, cfg)
}

func TestLoadConfig_Overrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
settingsDir: settings
domains:
  window:
    file: hypr/window.conf
  performance:
    file: perf.toml
session:
  enabled: true
  timeout: 3s
  hooks:
    window:
      - hyprctl keyword general:border_size {{ borderWidth }}
    "*":
      - hyprctl reload
assistant:
  model: local-model
  baseURL: http://localhost:11434/v1
watch:
  debounce: 250ms
logging:
  level: debug
  format: json
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "settings"), cfg.SettingsDir)
	assert.True(t, cfg.Session.Enabled)
	assert.Equal(t, 3*time.Second, cfg.Session.Timeout)
	assert.Equal(t, []string{"hyprctl reload"}, cfg.Session.Hooks["*"])
	assert.Equal(t, "local-model", cfg.Assistant.Model)
	assert.Equal(t, "http://localhost:11434/v1", cfg.Assistant.BaseURL)
	// untouched fields keep their defaults
	assert.Equal(t, DefaultAssistantKeyFile, cfg.Assistant.APIKeyFile)
	assert.Equal(t, 250*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, "json", cfg.Logging.Format)

	reg, err := cfg.Registry()
	require.NoError(t, err)
	window, ok := reg.Domain("window")
	require.True(t, ok)
	assert.Equal(t, "hypr/window.conf", window.File)
	assert.Equal(t, "kv", window.Format)
	perf, ok := reg.Domain("performance")
	require.True(t, ok)
	assert.Equal(t, "toml", perf.Format)
}

func TestLoadConfig_ParseError(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "session: [unclosed\n")

	_, err := LoadConfig(dir)
	var ce *ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, ErrorTypeParse, ce.ErrorType)
	assert.Contains(t, ce.DetailedError(), "Suggestions")
}

func TestLoadConfig_ValidationError(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
domains:
  window:
    format: xml
  desktop: {}
assistant:
  temperature: 3
logging:
  level: loud
`)

	_, err := LoadConfig(dir)
	var ce *ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, ErrorTypeValidation, ce.ErrorType)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs, 4)
}

func TestValidate_SharedDomainFile(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Domains = map[string]DomainOverride{
		"appearance": {File: "./window.conf", Format: "kv"},
	}

	err := cfg.Validate()
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs), "got %v", err)
	require.Len(t, verrs, 1)
	assert.Equal(t, "domains.appearance.file", verrs[0].Field)
	assert.Contains(t, verrs[0].Message, "window")

	// moving the default out of the way is fine
	cfg.Domains["window"] = DomainOverride{File: "hypr/window.conf"}
	assert.NoError(t, cfg.Validate())
}

func TestResolveSettingsDir(t *testing.T) {
	assert.Equal(t, "/cfg", ResolveSettingsDir("/cfg", ""))
	assert.Equal(t, "/data/hyde", ResolveSettingsDir("/cfg", "/data/hyde"))
	assert.Equal(t, filepath.Join("/cfg", "settings"), ResolveSettingsDir("/cfg", "settings"))
}

func TestGetDefaultConfigPath(t *testing.T) {
	original := osUserHomeDir
	defer func() { osUserHomeDir = original }()

	osUserHomeDir = func() (string, error) { return "/home/alice", nil }
	path, err := GetDefaultConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/alice", ".config", "hyde"), path)

	osUserHomeDir = func() (string, error) { return "", errors.New("no home") }
	_, err = GetDefaultConfigPath()
	assert.Error(t, err)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := GetDefaultConfig()
	cfg.Session.Enabled = true
	cfg.Session.Hooks = map[string][]string{"appearance": {"gsettings set org.gnome.desktop.interface cursor-theme {{ cursorTheme }}"}}

	require.NoError(t, SaveConfig(dir, cfg))

	loaded, err := LoadConfig(dir)
	require.NoError(t, err)
	cfg.SettingsDir = dir
	assert.Equal(t, cfg, loaded)
}
