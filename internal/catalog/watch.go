package catalog

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/ShayCichocki/toolroute/internal/logging"
)

// Watcher reloads a catalog whenever its backing file changes.
type Watcher struct {
	catalog *Catalog
	path    string
	logger  *zap.Logger
	watcher *fsnotify.Watcher

	// onReload is called after every reload attempt; nil err means the table was replaced.
	onReload func(err error)
}

// NewWatcher watches path and replaces the entries of c on change.
// The parent directory is watched so editors that rename-on-save are seen.
func NewWatcher(c *Catalog, path string, logger *zap.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve catalog path: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{
		catalog: c,
		path:    abs,
		logger:  logging.OrNop(logger),
		watcher: fw,
	}, nil
}

// OnReload registers a callback invoked after each reload attempt.
func (w *Watcher) OnReload(fn func(err error)) {
	w.onReload = fn
}

// Run processes file events until ctx is done. It closes the watcher on return.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("catalog watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	err := w.apply()
	if err != nil {
		w.logger.Warn("catalog reload failed, keeping previous providers",
			zap.String("path", w.path), zap.Error(err))
	} else {
		w.logger.Info("catalog reloaded",
			zap.String("path", w.path), zap.Int("providers", w.catalog.Len()))
	}
	if w.onReload != nil {
		w.onReload(err)
	}
}

func (w *Watcher) apply() error {
	f, err := LoadFile(w.path)
	if err != nil {
		return err
	}
	return w.catalog.Replace(f.Entries())
}
