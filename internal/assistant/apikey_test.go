package assistant

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withEnv(t *testing.T, value string) {
	t.Helper()
	original := getenv
	getenv = func(key string) string {
		if key == APIKeyEnv {
			return value
		}
		return ""
	}
	t.Cleanup(func() { getenv = original })
}

func TestLoadAPIKey_Order(t *testing.T) {
	dir := t.TempDir()
	withEnv(t, "from-env")

	key, err := LoadAPIKey(dir, "openai_api_key")
	require.NoError(t, err)
	assert.Equal(t, "from-env", key)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("OPENAI_API_KEY=from-dotenv\n"), 0600))
	key, err = LoadAPIKey(dir, "openai_api_key")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", key)

	require.NoError(t, SaveAPIKey(dir, "openai_api_key", "  from-file  "))
	key, err = LoadAPIKey(dir, "openai_api_key")
	require.NoError(t, err)
	assert.Equal(t, "from-file", key)

	info, err := os.Stat(filepath.Join(dir, "openai_api_key"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestLoadAPIKey_Missing(t *testing.T) {
	withEnv(t, "")

	_, err := LoadAPIKey(t.TempDir(), "openai_api_key")
	assert.ErrorIs(t, err, ErrNoAPIKey)

	assert.Error(t, SaveAPIKey(t.TempDir(), "k", " "))
}

func TestNewOpenAIClient(t *testing.T) {
	_, err := NewOpenAIClient(ClientOptions{Model: "gpt-4o-mini"})
	assert.ErrorIs(t, err, ErrNoAPIKey)

	_, err = NewOpenAIClient(ClientOptions{APIKey: "k"})
	assert.Error(t, err)

	c, err := NewOpenAIClient(ClientOptions{APIKey: "k", Model: "gpt-4o-mini", BaseURL: "http://localhost:1/v1"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", c.model)
	assert.Len(t, toOpenAIMessages([]Message{{Role: RoleSystem}, {Role: RoleUser}, {Role: RoleAssistant}}), 3)
}
