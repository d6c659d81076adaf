package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hyde/internal/assistant"
)

type scriptedClient struct {
	reply   string
	prompts []string
}

func (c *scriptedClient) Complete(_ context.Context, messages []assistant.Message) (string, error) {
	c.prompts = append(c.prompts, messages[len(messages)-1].Content)
	return c.reply, nil
}

// useChatClient replaces the model for the duration of the test.
func useChatClient(t *testing.T, c assistant.ChatClient) *assistant.ClientOptions {
	t.Helper()
	var got assistant.ClientOptions
	original := newChatClient
	newChatClient = func(opts assistant.ClientOptions) (assistant.ChatClient, error) {
		got = opts
		return c, nil
	}
	t.Cleanup(func() { newChatClient = original })
	return &got
}

func assistDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "openai_api_key"), []byte("sk-test\n"), 0600))
	return dir
}

const roundCornersReply = "Rounder corners coming up.\n```json\n" +
	`{"changes": [{"domain": "appearance", "key": "borderRadius", "value": 14}, {"category": "window_management", "key": "gapsIn", "value": 8}]}` +
	"\n```"

func TestAssistCommand_Yes(t *testing.T) {
	dir := assistDir(t)
	client := &scriptedClient{reply: roundCornersReply}
	opts := useChatClient(t, client)

	out := mustExecute(t, dir, "assist", "--yes", "--model", "local-model", "make", "corners", "rounder")
	assert.Contains(t, out, "Rounder corners coming up.")
	assert.Contains(t, out, "Applied 2 change(s).")
	assert.Equal(t, []string{"make corners rounder"}, client.prompts)
	assert.Equal(t, "sk-test", opts.APIKey)
	assert.Equal(t, "local-model", opts.Model)

	assert.Equal(t, "14\n", mustExecute(t, dir, "get", "appearance.borderRadius"))
	assert.Equal(t, "8\n", mustExecute(t, dir, "get", "window.gapsIn"))
}

func TestAssistCommand_Confirmation(t *testing.T) {
	dir := assistDir(t)
	useChatClient(t, &scriptedClient{reply: roundCornersReply})

	out, err := execute(t, dir, "n\n", "assist", "round the corners")
	require.NoError(t, err)
	assert.Contains(t, out, "Apply these changes?")
	assert.Contains(t, out, "Changes not applied.")
	assert.Equal(t, "8\n", mustExecute(t, dir, "get", "appearance.borderRadius"))

	out, err = execute(t, dir, "y\n", "assist", "round the corners")
	require.NoError(t, err)
	assert.Contains(t, out, "Applied 2 change(s).")
	assert.Equal(t, "14\n", mustExecute(t, dir, "get", "appearance.borderRadius"))
}

func TestAssistCommand_InvalidSuggestion(t *testing.T) {
	dir := assistDir(t)
	useChatClient(t, &scriptedClient{reply: `{"changes": [{"domain": "appearance", "key": "borderRadius", "value": 40}]}`})

	_, err := execute(t, dir, "", "assist", "--yes", "huge corners")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "suggested changes rejected")
	assert.Equal(t, "8\n", mustExecute(t, dir, "get", "appearance.borderRadius"))
}

func TestAssistCommand_NoChanges(t *testing.T) {
	dir := assistDir(t)
	useChatClient(t, &scriptedClient{reply: "Which corners do you mean?"})

	out := mustExecute(t, dir, "assist", "corners")
	assert.Contains(t, out, "Which corners do you mean?")
	assert.NotContains(t, out, "Apply these changes?")
}

func TestAssistCommand_SaveKey(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, dir, "sk-saved\n", "assist", "--save-key")
	require.NoError(t, err)
	assert.Contains(t, out, "API key saved")

	key, err := assistant.LoadAPIKey(dir, "openai_api_key")
	require.NoError(t, err)
	assert.Equal(t, "sk-saved", key)

	_, err = execute(t, dir, "", "assist", "--save-key")
	assert.Error(t, err)
}

func TestIsYes(t *testing.T) {
	for _, answer := range []string{"y", "Y", "yes", " YES \n"} {
		assert.True(t, isYes(answer), answer)
	}
	for _, answer := range []string{"", "n", "no", "yep"} {
		assert.False(t, isYes(answer), answer)
	}
}
