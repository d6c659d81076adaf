package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"hyde/pkg/logging"
)

// Storage is the file access used by the reconciler. WriteFile must never
// leave a partially written file at path.
type Storage interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
	Remove(path string) error
	Stat(path string) (fs.FileInfo, error)
}

const (
	defaultDirPerm  os.FileMode = 0755
	defaultFilePerm os.FileMode = 0644
)

// DiskStorage writes files with a write-to-temp-then-rename discipline.
type DiskStorage struct {
	dirPerm  os.FileMode
	filePerm os.FileMode
}

// NewDiskStorage creates a DiskStorage with 0755 directories and 0644 files.
func NewDiskStorage() *DiskStorage {
	return &DiskStorage{
		dirPerm:  defaultDirPerm,
		filePerm: defaultFilePerm,
	}
}

// ReadFile reads the whole file at path.
func (ds *DiskStorage) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Stat returns file info for path.
func (ds *DiskStorage) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// Remove deletes path. A missing file is not an error.
func (ds *DiskStorage) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	logging.Debug("Storage", "Removed %s", path)
	return nil
}

// WriteFile atomically replaces path with data. The content is written to a
// temporary file in the same directory, synced, and renamed over path. An
// existing file's permissions are kept.
func (ds *DiskStorage) WriteFile(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, ds.dirPerm); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	perm := ds.filePerm
	if info, statErr := os.Stat(path); statErr == nil {
		perm = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file for %s: %w", path, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file for %s: %w", path, err)
	}
	if err = tmp.Chmod(perm); err != nil {
		return fmt.Errorf("failed to chmod temp file for %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file for %s: %w", path, err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to rename temp file over %s: %w", path, err)
	}

	syncDir(dir)
	logging.Debug("Storage", "Wrote %d bytes to %s", len(data), path)
	return nil
}

// syncDir flushes the directory entry after a rename. Some filesystems do not
// support syncing directories; that is not treated as a failure.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		logging.Debug("Storage", "Directory sync of %s not supported: %v", dir, err)
	}
}
