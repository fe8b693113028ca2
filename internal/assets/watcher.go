package assets

import (
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watcher monitors the media directories backing catalog assets and flips
// their online flag as files disappear or return. Clips referencing an
// offline asset stay on the timeline untouched; only the render side cares.
type Watcher struct {
	catalog *Catalog
	watcher *fsnotify.Watcher
	logger  *logrus.Logger
	done    chan struct{}
}

// NewWatcher creates a watcher over the given root directory, recursively.
func NewWatcher(catalog *Catalog, root string, logger *logrus.Logger) (*Watcher, error) {
	if logger == nil {
		logger = logrus.New()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		catalog: catalog,
		watcher: fsw,
		logger:  logger,
		done:    make(chan struct{}),
	}

	go w.watchFiles()

	if err := w.addDirectory(root); err != nil {
		fsw.Close()
		return nil, err
	}

	logger.WithField("root", root).Info("Asset watcher started")
	return w, nil
}

// addDirectory recursively walks and adds subdirectories to the watcher
func (w *Watcher) addDirectory(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return w.watcher.Add(path)
		}
		return nil
	})
}

// watchFiles selects on watcher channels and dispatches events
func (w *Watcher) watchFiles() {
	defer w.watcher.Close()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Error("Asset watcher error")

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	switch {
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		if _, err := w.catalog.GetByPath(event.Name); err == nil {
			if err := w.catalog.SetOnline(event.Name, false); err != nil {
				w.logger.WithError(err).WithField("path", event.Name).Warn("Failed to mark asset offline")
				return
			}
			w.logger.WithField("path", event.Name).Warn("Asset went offline")
		}

	case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
		// A recreated directory needs re-watching for its children.
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addDirectory(event.Name); err != nil {
				w.logger.WithError(err).WithField("path", event.Name).Warn("Failed to watch new directory")
			}
			return
		}
		if _, err := w.catalog.GetByPath(event.Name); err == nil {
			if err := w.catalog.SetOnline(event.Name, true); err != nil {
				w.logger.WithError(err).WithField("path", event.Name).Warn("Failed to mark asset online")
				return
			}
			w.logger.WithField("path", event.Name).Info("Asset back online")
		}
	}
}

// Close stops the watcher
func (w *Watcher) Close() error {
	close(w.done)
	return nil
}
