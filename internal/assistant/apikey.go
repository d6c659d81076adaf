package assistant

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"hyde/pkg/logging"
)

// ErrNoAPIKey is returned when no API key is configured anywhere.
var ErrNoAPIKey = errors.New("no API key configured; save one with 'hyde-settings assist --save-key' or set OPENAI_API_KEY")

// APIKeyEnv is the environment variable consulted last.
const APIKeyEnv = "OPENAI_API_KEY"

// getenv is a variable to allow mocking in tests
var getenv = os.Getenv

// LoadAPIKey looks up the API key in order: the key file (relative to
// configDir unless absolute), OPENAI_API_KEY in configDir/.env, then the
// OPENAI_API_KEY environment variable.
func LoadAPIKey(configDir, keyFile string) (string, error) {
	if keyFile != "" {
		path := keyFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(configDir, path)
		}
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if key := strings.TrimSpace(string(data)); key != "" {
				logging.Debug("Assistant", "Using API key from %s", path)
				return key, nil
			}
		case !errors.Is(err, os.ErrNotExist):
			return "", fmt.Errorf("read API key file: %w", err)
		}
	}

	envFile := filepath.Join(configDir, ".env")
	if vars, err := godotenv.Read(envFile); err == nil {
		if key := strings.TrimSpace(vars[APIKeyEnv]); key != "" {
			logging.Debug("Assistant", "Using API key from %s", envFile)
			return key, nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		logging.Warn("Assistant", "Ignoring unreadable %s: %v", envFile, err)
	}

	if key := strings.TrimSpace(getenv(APIKeyEnv)); key != "" {
		return key, nil
	}
	return "", ErrNoAPIKey
}

// SaveAPIKey writes key to the key file with owner-only permissions.
func SaveAPIKey(configDir, keyFile, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("API key is empty")
	}
	path := keyFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(configDir, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(key+"\n"), 0600)
}
