package reconciler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"hyde/internal/settings"
	"hyde/internal/storage"
)

var errInjected = errors.New("injected write failure")

// faultyStorage fails selected WriteFile calls, counted from 1.
type faultyStorage struct {
	storage.Storage

	mu     sync.Mutex
	writes int
	failAt map[int]bool
}

func newFaultyStorage(failAt ...int) *faultyStorage {
	fs := &faultyStorage{Storage: storage.NewDiskStorage(), failAt: make(map[int]bool)}
	for _, n := range failAt {
		fs.failAt[n] = true
	}
	return fs
}

func (f *faultyStorage) WriteFile(path string, data []byte) error {
	f.mu.Lock()
	f.writes++
	fail := f.failAt[f.writes]
	f.mu.Unlock()
	if fail {
		return errInjected
	}
	return f.Storage.WriteFile(path, data)
}

// failNext makes the next n writes after the current count fail.
func (f *faultyStorage) failNext(offsets ...int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range offsets {
		f.failAt[f.writes+o] = true
	}
}

type recordingApplier struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (a *recordingApplier) Apply(_ context.Context, domain string, _ map[string]any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, domain)
	return a.err
}

func newTestReconciler(t *testing.T, dir string, opts ...func(*Options)) *Reconciler {
	t.Helper()
	o := Options{Registry: settings.DefaultRegistry(), Dir: dir}
	for _, fn := range opts {
		fn(&o)
	}
	r, err := New(o)
	require.NoError(t, err)
	return r
}

func loadedReconciler(t *testing.T, dir string, opts ...func(*Options)) *Reconciler {
	t.Helper()
	r := newTestReconciler(t, dir, opts...)
	_, err := r.Load(context.Background())
	require.NoError(t, err)
	return r
}

func withStorage(st storage.Storage) func(*Options) {
	return func(o *Options) { o.Storage = st }
}

func withSession(a *recordingApplier) func(*Options) {
	return func(o *Options) { o.Session = a }
}

func readAllFiles(t *testing.T, dir string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	for _, d := range settings.DefaultDomains() {
		data, err := os.ReadFile(filepath.Join(dir, d.File))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		require.NoError(t, err)
		out[d.File] = string(data)
	}
	return out
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}
