package config

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/joho/godotenv"
)

// WatchEvent is emitted by the Watcher when the .env file changes.
type WatchEvent struct {
	Config *Config
	Error  error
}

// Watcher reloads the configuration when its .env file is rewritten,
// allowing sip tuning to change without a restart. Changes are debounced
// because editors fire several filesystem events per save.
type Watcher struct {
	filePath      string
	watcher       *fsnotify.Watcher
	eventChan     chan WatchEvent
	stopChan      chan struct{}
	debounceTimer *time.Timer
}

// NewWatcher watches the given .env file. filePath must not be empty;
// callers skip the watcher when no .env file was loaded.
func NewWatcher(filePath string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory to catch rename-style atomic saves.
	if err := fsw.Add(filepath.Dir(filePath)); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	w := &Watcher{
		filePath:  filePath,
		watcher:   fsw,
		eventChan: make(chan WatchEvent, 10),
		stopChan:  make(chan struct{}),
	}
	go w.watchLoop()
	return w, nil
}

// Events returns the watcher's event channel.
func (w *Watcher) Events() <-chan WatchEvent {
	return w.eventChan
}

// watchLoop handles file system events with debouncing.
func (w *Watcher) watchLoop() {
	const debounceInterval = 100 * time.Millisecond

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != filepath.Base(w.filePath) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if w.debounceTimer != nil {
					w.debounceTimer.Stop()
				}
				w.debounceTimer = time.AfterFunc(debounceInterval, w.reload)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.sendEvent(WatchEvent{Error: err})

		case <-w.stopChan:
			return
		}
	}
}

// reload re-reads the .env file with override semantics so edited values
// win over the stale process environment, then rebuilds the config.
func (w *Watcher) reload() {
	if err := godotenv.Overload(w.filePath); err != nil {
		w.sendEvent(WatchEvent{Error: err})
		return
	}

	cfg := FromEnv()
	cfg.envPath = w.filePath
	w.sendEvent(WatchEvent{Config: cfg})
}

// sendEvent sends an event non-blocking, dropping the oldest on overflow.
func (w *Watcher) sendEvent(event WatchEvent) {
	select {
	case w.eventChan <- event:
	default:
		select {
		case <-w.eventChan:
		default:
		}
		select {
		case w.eventChan <- event:
		default:
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.stopChan)
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	return w.watcher.Close()
}
