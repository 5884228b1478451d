// Package watch re-triggers analysis when files under a project change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dbsmedya/assetprof/internal/logger"
)

// DefaultDebounce is how long the watcher waits for changes to settle.
const DefaultDebounce = 500 * time.Millisecond

// ignoredDirs are never watched.
var ignoredDirs = map[string]bool{
	".git": true,
	".svn": true,
	".idea": true,
}

// ChangeFunc handles one settled batch of changed paths, sorted and
// deduplicated.
type ChangeFunc func(ctx context.Context, changed []string) error

// Watcher watches a directory tree and batches changes.
type Watcher struct {
	root     string
	debounce time.Duration
	log      *logger.Logger
	fs       *fsnotify.Watcher
}

// New starts watching every directory under root. Changes made after New
// returns are observed by Run.
func New(root string, debounce time.Duration, log *logger.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = logger.NewNop()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{root: root, debounce: debounce, log: log, fs: fw}
	if err := w.addTree(root); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("failed to watch %s: %w", root, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && ignoredDirs[d.Name()] {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// ignored reports editor and VCS noise.
func ignored(path string) bool {
	base := filepath.Base(path)
	if strings.HasSuffix(base, ".swp") || strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".tmp") {
		return true
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if ignoredDirs[part] {
			return true
		}
	}
	return false
}

// Run blocks until ctx is done, calling fn once per settled batch of
// changes. An error from fn is logged and watching continues.
func (w *Watcher) Run(ctx context.Context, fn ChangeFunc) error {
	pending := make(map[string]bool)
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if ignored(event.Name) || event.Op == fsnotify.Chmod {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.log.Warnw("Cannot watch new directory", "path", event.Name, "error", err)
					}
				}
			}
			pending[event.Name] = true

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warnw("File watcher error", "error", err)

		case <-fire:
			fire = nil
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			pending = make(map[string]bool)

			w.log.Debugw("Changes settled", "root", w.root, "count", len(changed))
			if err := fn(ctx, changed); err != nil {
				w.log.Warnw("Change handler failed", "error", err)
			}
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}
