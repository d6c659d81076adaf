package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStorage_WriteFile(t *testing.T) {
	dir := t.TempDir()
	ds := NewDiskStorage()

	path := filepath.Join(dir, "nested", "window.conf")
	require.NoError(t, ds.WriteFile(path, []byte("borderWidth = 2\n")))

	data, err := ds.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "borderWidth = 2\n", string(data))

	info, err := ds.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestDiskStorage_WriteFileKeepsPermissions(t *testing.T) {
	dir := t.TempDir()
	ds := NewDiskStorage()
	path := filepath.Join(dir, "appearance.ini")

	require.NoError(t, os.WriteFile(path, []byte("old"), 0600))
	require.NoError(t, ds.WriteFile(path, []byte("new")))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	data, _ := os.ReadFile(path)
	assert.Equal(t, "new", string(data))
}

func TestDiskStorage_WriteFileFailureLeavesOriginal(t *testing.T) {
	dir := t.TempDir()
	ds := NewDiskStorage()

	// A directory sitting at the target path makes the rename fail.
	target := filepath.Join(dir, "performance.yaml")
	require.NoError(t, os.Mkdir(target, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "keep"), []byte("x"), 0644))

	err := ds.WriteFile(target, []byte("vsync: true\n"))
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "failed write must clean up its temp file")

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestDiskStorage_Remove(t *testing.T) {
	dir := t.TempDir()
	ds := NewDiskStorage()
	path := filepath.Join(dir, "notification.json")

	require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))
	require.NoError(t, ds.Remove(path))

	_, err := os.Stat(path)
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	assert.NoError(t, ds.Remove(path), "removing a missing file is not an error")
}
