package catalog

import (
	"fmt"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watcher rescans the catalog when media files appear or disappear
// while the player is running.
type Watcher struct {
	catalog  *Catalog
	watcher  *fsnotify.Watcher
	onChange func()
	done     chan struct{}
}

// NewWatcher watches the catalog's media directory. onChange runs
// after every rescan and may be nil.
func NewWatcher(c *Catalog, onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(c.Dir()); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch media directory: %w", err)
	}

	w := &Watcher{
		catalog:  c,
		watcher:  fsw,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !IsMediaFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			slog.Debug("media directory changed", "file", event.Name, "op", event.Op.String())
			if err := w.catalog.Rescan(); err != nil {
				slog.Warn("rescan failed", "error", err)
				continue
			}
			if w.onChange != nil {
				w.onChange()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("media watcher error", "error", err)
		}
	}
}

// Stop ends the watch.
func (w *Watcher) Stop() {
	close(w.done)
	w.watcher.Close()
}
