package repo

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"dits/internal/stage"

	"github.com/fsnotify/fsnotify"
)

// WatchStatus streams a freshly computed Status result each time the
// working tree changes, until ctx is cancelled. It runs an fsnotify
// watcher select loop over the working tree, using a debounce timer to
// collapse bursts of filesystem events into a single recomputation instead
// of reacting to every individual write.
func (r *Repository) WatchStatus(ctx context.Context, debounce time.Duration, out chan<- []stage.StatusEntry) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := addTreeRecursive(watcher, r.WorkDir, r.DotDir); err != nil {
		return err
	}

	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}
	var timer *time.Timer

	emit := func() {
		entries, err := r.Status()
		if err != nil {
			return
		}
		select {
		case out <- entries:
		case <-ctx.Done():
		}
	}
	emit()

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if strings.HasPrefix(event.Name, r.DotDir) {
				continue
			}
			if timer == nil {
				timer = time.AfterFunc(debounce, emit)
			} else {
				timer.Reset(debounce)
			}

		case _, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
		}
	}
}

// addTreeRecursive registers every directory under root with w, skipping
// the repository's own control directory.
func addTreeRecursive(w *fsnotify.Watcher, root, skip string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(path, skip) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
