package reconciler

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"hyde/pkg/logging"
)

// ChangeOperation is what happened to a backing file.
type ChangeOperation string

const (
	OperationCreate ChangeOperation = "create"
	OperationUpdate ChangeOperation = "update"
	OperationDelete ChangeOperation = "delete"
)

// ChangeEvent reports that a domain's backing file changed on disk. It says
// nothing about who changed it; writes made by the reconciler itself show up
// too and are filtered by Reload's fingerprint comparison.
type ChangeEvent struct {
	Domain    string
	Path      string
	Operation ChangeOperation
	Timestamp time.Time
}

// FilesystemDetector watches the backing files of a Reconciler.
//
// Editors and the reconciler replace files by rename, so the detector
// watches the containing directories rather than the files and matches
// event paths against the known backing files.
type FilesystemDetector struct {
	mu sync.RWMutex

	// paths maps cleaned absolute file paths to domain names
	paths map[string]string

	watcher *fsnotify.Watcher

	// debounceInterval is how long to wait for additional changes
	debounceInterval time.Duration

	pendingEvents map[string]*debounceEntry

	stopCh  chan struct{}
	running bool
}

// debounceEntry tracks a pending event for debouncing.
type debounceEntry struct {
	event     ChangeEvent
	timer     *time.Timer
	operation ChangeOperation
}

// NewFilesystemDetector creates a detector for the domains of r.
func NewFilesystemDetector(r *Reconciler, debounceInterval time.Duration) (*FilesystemDetector, error) {
	if debounceInterval == 0 {
		debounceInterval = 500 * time.Millisecond
	}

	paths := make(map[string]string)
	for _, d := range r.Domains() {
		abs, err := filepath.Abs(r.pathOf(d))
		if err != nil {
			return nil, err
		}
		paths[filepath.Clean(abs)] = d.Name
	}

	return &FilesystemDetector{
		paths:            paths,
		debounceInterval: debounceInterval,
		pendingEvents:    make(map[string]*debounceEntry),
		stopCh:           make(chan struct{}),
	}, nil
}

// Start begins watching. Events are sent to changes until ctx is done or
// Stop is called; a full channel drops the event.
func (d *FilesystemDetector) Start(ctx context.Context, changes chan<- ChangeEvent) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		d.mu.Unlock()
		return err
	}

	d.watcher = watcher
	d.running = true
	d.stopCh = make(chan struct{})
	stopCh := d.stopCh
	d.mu.Unlock()

	if err := d.setupWatches(); err != nil {
		_ = d.Stop()
		return err
	}

	go d.processEvents(ctx, watcher, stopCh, changes)

	logging.Info("FilesystemDetector", "Watching %d settings files for changes", len(d.paths))
	return nil
}

// setupWatches adds one watch per directory holding a backing file.
func (d *FilesystemDetector) setupWatches() error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	dirs := make(map[string]bool)
	for path := range d.paths {
		dirs[filepath.Dir(path)] = true
	}

	for dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
		if err := d.watcher.Add(dir); err != nil {
			return err
		}
		logging.Debug("FilesystemDetector", "Watching directory: %s", dir)
	}
	return nil
}

func (d *FilesystemDetector) processEvents(ctx context.Context, watcher *fsnotify.Watcher, stopCh <-chan struct{}, changes chan<- ChangeEvent) {
	for {
		select {
		case <-ctx.Done():
			d.cleanupPendingEvents()
			return

		case <-stopCh:
			d.cleanupPendingEvents()
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			d.handleFsEvent(event, changes)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logging.Error("FilesystemDetector", err, "Filesystem watcher error")
		}
	}
}

func (d *FilesystemDetector) handleFsEvent(event fsnotify.Event, changes chan<- ChangeEvent) {
	path := filepath.Clean(event.Name)

	d.mu.RLock()
	domain, ok := d.paths[path]
	d.mu.RUnlock()
	if !ok {
		return
	}

	var operation ChangeOperation
	switch {
	case event.Op&fsnotify.Create == fsnotify.Create:
		operation = OperationCreate
	case event.Op&fsnotify.Write == fsnotify.Write:
		operation = OperationUpdate
	case event.Op&fsnotify.Remove == fsnotify.Remove:
		operation = OperationDelete
	case event.Op&fsnotify.Rename == fsnotify.Rename:
		// the new content arrives as a create on the same name
		operation = OperationDelete
	default:
		return
	}

	d.debounceEvent(ChangeEvent{
		Domain:    domain,
		Path:      path,
		Operation: operation,
		Timestamp: time.Now(),
	}, changes)
}

// debounceEvent collapses bursts of events on one file into a single event.
func (d *FilesystemDetector) debounceEvent(event ChangeEvent, changes chan<- ChangeEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := event.Path

	if entry, ok := d.pendingEvents[key]; ok {
		entry.timer.Stop()
		event.Operation = mergeOperations(entry.operation, event.Operation)
	}

	timer := time.AfterFunc(d.debounceInterval, func() {
		d.mu.Lock()
		entry, ok := d.pendingEvents[key]
		if ok {
			delete(d.pendingEvents, key)
		}
		d.mu.Unlock()

		if ok {
			select {
			case changes <- entry.event:
				logging.Debug("FilesystemDetector", "Emitted change event: %s %s", entry.event.Operation, entry.event.Domain)
			default:
				logging.Warn("FilesystemDetector", "Change event channel full, dropping event for %s", entry.event.Domain)
			}
		}
	})

	d.pendingEvents[key] = &debounceEntry{
		event:     event,
		timer:     timer,
		operation: event.Operation,
	}
}

// mergeOperations merges two operations into a single logical operation.
func mergeOperations(old, new ChangeOperation) ChangeOperation {
	switch {
	case old == OperationDelete && new == OperationCreate:
		// replaced by rename
		return OperationUpdate
	case old == OperationCreate && new == OperationDelete:
		return OperationDelete
	case old == OperationCreate:
		return OperationCreate
	case old == OperationUpdate && new == OperationDelete:
		return OperationDelete
	}
	return new
}

func (d *FilesystemDetector) cleanupPendingEvents() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, entry := range d.pendingEvents {
		entry.timer.Stop()
	}
	d.pendingEvents = make(map[string]*debounceEntry)
}

// Stop stops the detector. It is safe to call more than once.
func (d *FilesystemDetector) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return nil
	}

	d.running = false
	close(d.stopCh)

	if d.watcher != nil {
		if err := d.watcher.Close(); err != nil {
			logging.Error("FilesystemDetector", err, "Error closing filesystem watcher")
		}
		d.watcher = nil
	}

	logging.Info("FilesystemDetector", "Stopped filesystem detector")
	return nil
}

// Domain returns the domain watched at path, if any.
func (d *FilesystemDetector) Domain(path string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	name, ok := d.paths[filepath.Clean(path)]
	return name, ok
}
