// Package watch notices external changes to the snapshot database while
// serve mode is running, so a sync performed by another process refreshes
// the in-memory catalog without a restart.
package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/logger"
)

// DefaultDebounce batches rapid write bursts (WAL checkpoints produce
// several events per commit) into one callback.
const DefaultDebounce = 500 * time.Millisecond

// SnapshotWatcher invokes a callback when the watched snapshot files
// change on disk.
type SnapshotWatcher struct {
	watcher  *fsnotify.Watcher
	paths    map[string]bool
	debounce time.Duration
	onChange func()

	mu      sync.Mutex
	pending bool
}

// NewSnapshotWatcher watches the directories containing the given files
// and calls onChange, debounced, when any of them is written.
func NewSnapshotWatcher(files []string, debounce time.Duration, onChange func()) (*SnapshotWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce == 0 {
		debounce = DefaultDebounce
	}

	w := &SnapshotWatcher{
		watcher:  fsw,
		paths:    make(map[string]bool, len(files)),
		debounce: debounce,
		onChange: onChange,
	}

	dirs := make(map[string]bool)
	for _, file := range files {
		w.paths[filepath.Clean(file)] = true
		dirs[filepath.Dir(file)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Start runs the event loop until ctx is cancelled.
func (w *SnapshotWatcher) Start(ctx context.Context) {
	go w.run(ctx)
}

// Close stops the underlying watcher.
func (w *SnapshotWatcher) Close() error {
	return w.watcher.Close()
}

func (w *SnapshotWatcher) run(ctx context.Context) {
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("snapshot watcher: %v", err)

		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *SnapshotWatcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	// SQLite writes land in the -wal sidecar, not the database file.
	name := filepath.Clean(event.Name)
	base := name
	for _, suffix := range []string{"-wal", "-shm", "-journal"} {
		if len(name) > len(suffix) && name[len(name)-len(suffix):] == suffix {
			base = name[:len(name)-len(suffix)]
			break
		}
	}
	if !w.paths[name] && !w.paths[base] {
		return
	}

	w.mu.Lock()
	w.pending = true
	w.mu.Unlock()
	logger.Debug("snapshot watcher: change detected in %s", filepath.Base(event.Name))
}

func (w *SnapshotWatcher) flush() {
	w.mu.Lock()
	fire := w.pending
	w.pending = false
	w.mu.Unlock()

	if fire {
		w.onChange()
	}
}
