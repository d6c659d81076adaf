package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// syncBuffer is a bytes.Buffer safe for a command writing from another
// goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// execute runs a fresh command tree against configDir.
func execute(t *testing.T, configDir, stdin string, args ...string) (string, error) {
	t.Helper()
	return executeContext(context.Background(), t, configDir, stdin, &syncBuffer{}, args...)
}

func executeContext(ctx context.Context, t *testing.T, configDir, stdin string, out *syncBuffer, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	root.SetOut(out)
	root.SetErr(out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config-path", configDir}, args...))
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

// mustExecute runs the command and fails the test on error.
func mustExecute(t *testing.T, configDir string, args ...string) string {
	t.Helper()
	out, err := execute(t, configDir, "", args...)
	require.NoError(t, err, out)
	return out
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// editFile replaces old with new in a settings file, as a user would.
func editFile(t *testing.T, dir, name, old, new string) {
	t.Helper()
	path := filepath.Join(dir, name)
	content := readFile(t, path)
	require.Contains(t, content, old)
	require.NoError(t, os.WriteFile(path, []byte(strings.Replace(content, old, new, 1)), 0644))
}
