package config

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"harvester/pkg/logging"
)

// debounceInterval absorbs a burst of filesystem events (e.g. an editor's
// write-then-rename save) into a single Reload, matching the teacher's
// certificate watcher idiom (internal/teleport/watcher.go).
const debounceInterval = 500 * time.Millisecond

// Watcher reloads a Manager's snapshot whenever config.json or a file under
// pipelines/ changes on disk, so an operator editing pipeline definitions
// by hand does not need to drive POST /reset manually.
type Watcher struct {
	manager *Manager

	mu      sync.Mutex
	fs      *fsnotify.Watcher
	stopCh  chan struct{}
	running bool

	debounceMu sync.Mutex
	debounce   *time.Timer
}

// NewWatcher constructs a Watcher for manager. Call Start to begin watching.
func NewWatcher(manager *Manager) *Watcher {
	return &Watcher{manager: manager}
}

// Start begins watching the module directory. Watching the directory
// itself, rather than individual files, also picks up newly created or
// renamed pipeline definitions. If fsnotify cannot be initialized on this
// platform, Start logs a warning and the Manager simply never auto-reloads;
// POST /reset remains the explicit fallback.
func (w *Watcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Warn("config", "fsnotify unavailable, disabling config auto-reload: %v", err)
		return
	}
	if err := fs.Add(w.manager.moduleDir); err != nil {
		logging.Warn("config", "cannot watch %s, disabling config auto-reload: %v", w.manager.moduleDir, err)
		fs.Close()
		return
	}
	if err := fs.Add(w.manager.pipelinesDir()); err != nil {
		logging.Debug("config", "pipelines directory not yet present: %v", err)
	}

	w.fs = fs
	w.stopCh = make(chan struct{})
	w.running = true

	go w.processEvents(fs.Events, fs.Errors)
	logging.Info("config", "watching %s for configuration changes", w.manager.moduleDir)
}

// Stop stops watching and releases the underlying fsnotify watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	w.running = false
	close(w.stopCh)
	w.fs.Close()
}

func (w *Watcher) processEvents(events <-chan fsnotify.Event, errs <-chan error) {
	pipelinesDir := w.manager.pipelinesDir()
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create != 0 && event.Name == pipelinesDir {
				// pipelines/ did not exist at Start; now that it does,
				// start watching it directly so writes inside it surface
				// (fsnotify does not watch subdirectories recursively).
				if err := w.fs.Add(pipelinesDir); err != nil {
					logging.Warn("config", "cannot watch newly created %s: %v", pipelinesDir, err)
				}
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.triggerReloadDebounced()
		case err, ok := <-errs:
			if !ok {
				return
			}
			logging.Error("config", err, "fsnotify error")
		}
	}
}

func (w *Watcher) triggerReloadDebounced() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(debounceInterval, func() {
		if errs := w.manager.Reload(); errs.HasErrors() {
			logging.Warn("config", "auto-reload after filesystem change: %s", errs.Error())
		}
	})
}
