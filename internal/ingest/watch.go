package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long a document must stay unchanged before it is
// reported. Word rewrites a file several times while saving.
const DefaultSettle = 500 * time.Millisecond

// Watcher reports documents created or modified below Root, including in
// directories created after the watch started.
type Watcher struct {
	Root   string
	Settle time.Duration
	Logger *slog.Logger
}

// Watch blocks until ctx is done or handle returns an error. handle is
// called from a single goroutine, once per settled change; a document saved
// twice may be reported twice.
func (w *Watcher) Watch(ctx context.Context, handle func(path string) error) error {
	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}
	settle := w.Settle
	if settle <= 0 {
		settle = DefaultSettle
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := addTree(fw, w.Root); err != nil {
		return err
	}

	done := make(chan struct{})
	defer close(done)
	ready := make(chan string)
	pending := make(map[string]*time.Timer)
	defer func() {
		for _, t := range pending {
			t.Stop()
		}
	}()

	schedule := func(path string) {
		if t, ok := pending[path]; ok && t.Stop() {
			t.Reset(settle)
			return
		}
		pending[path] = time.AfterFunc(settle, func() {
			select {
			case ready <- path:
			case <-done:
			}
		})
	}

	logger.Info("watching for documents", "root", w.Root)
	for {
		select {
		case <-ctx.Done():
			return nil

		case path := <-ready:
			delete(pending, path)
			if err := handle(path); err != nil {
				return err
			}

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			switch {
			case event.Has(fsnotify.Create) && isDir(event.Name):
				if err := addTree(fw, event.Name); err != nil {
					logger.Warn("failed to watch directory", "path", event.Name, "error", err)
					continue
				}
				// Files copied in with the directory predate its watch.
				paths, err := Discover(event.Name)
				if err != nil {
					logger.Warn("failed to scan directory", "path", event.Name, "error", err)
					continue
				}
				for _, p := range paths {
					schedule(p)
				}

			case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
				if IsDocument(filepath.Base(event.Name)) {
					schedule(event.Name)
				}

			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				if t, ok := pending[event.Name]; ok {
					t.Stop()
					delete(pending, event.Name)
				}
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		}
	}
}

// addTree watches dir and every directory below it.
func addTree(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watching directory %s: %w", path, err)
		}
		return nil
	})
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
