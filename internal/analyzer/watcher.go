package analyzer

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mvp-joe/typelink/internal/errors"
	"github.com/mvp-joe/typelink/internal/logger"
)

// DefaultDebounce is how long the watcher waits for changes to settle.
const DefaultDebounce = 500 * time.Millisecond

// ResultHandler receives the outcome of every rerun. err is non-nil when the
// run itself failed.
type ResultHandler func(result *Result, err error)

// Watcher reruns the analyzer whenever a matching source file changes.
type Watcher struct {
	analyzer     *Analyzer
	watcher      *fsnotify.Watcher
	debounceTime time.Duration
	onResult     ResultHandler
	stopCh       chan struct{}
	doneCh       chan struct{}
	stopOnce     sync.Once
}

// NewWatcher watches every non-ignored directory under the analyzer root.
func NewWatcher(a *Analyzer, debounce time.Duration, onResult ResultHandler) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create file watcher")
	}

	w := &Watcher{
		analyzer:     a,
		watcher:      fsw,
		debounceTime: debounce,
		onResult:     onResult,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}

	if err := w.addDirectoriesRecursively(a.rootDir); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Start begins watching for file changes.
func (w *Watcher) Start(ctx context.Context) {
	go w.watch(ctx)
}

// Stop stops the watcher and waits for a running analysis to return.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		<-w.doneCh
		w.watcher.Close()
	})
}

// Done is closed once the event loop has exited.
func (w *Watcher) Done() <-chan struct{} {
	return w.doneCh
}

// watch is the main event loop with debouncing logic.
func (w *Watcher) watch(ctx context.Context) {
	defer close(w.doneCh)

	var debounceTimer *time.Timer
	rerunCh := make(chan struct{}, 1)
	changed := make(map[string]bool)

	stopTimer := func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}

	for {
		select {
		case <-ctx.Done():
			stopTimer()
			return

		case <-w.stopCh:
			stopTimer()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addDirectoriesRecursively(event.Name); err != nil {
						logger.Logger.Warnw("Failed to watch new directory", "dir", event.Name, "error", err)
					}
					continue
				}
			}

			if !w.shouldProcessEvent(event) {
				continue
			}
			rel, _ := w.analyzer.discovery.relative(event.Name)
			changed[rel] = true

			stopTimer()
			debounceTimer = time.AfterFunc(w.debounceTime, func() {
				select {
				case rerunCh <- struct{}{}:
				default:
				}
			})

		case <-rerunCh:
			w.rerun(ctx, changed)
			changed = make(map[string]bool)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Logger.Warnw("File watcher error", "error", err)
		}
	}
}

func (w *Watcher) rerun(ctx context.Context, changed map[string]bool) {
	if len(changed) == 0 {
		return
	}

	logger.Logger.Infow("Re-running analysis", "changed", len(changed))
	result, err := w.analyzer.Run(ctx)
	if err != nil {
		logger.Logger.Errorw("Analysis failed", "error", err)
	}
	if w.onResult != nil {
		w.onResult(result, err)
	}
}

// shouldProcessEvent checks if an event should trigger a rerun.
func (w *Watcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}

	rel, err := w.analyzer.discovery.relative(event.Name)
	if err != nil {
		return false
	}
	return w.analyzer.discovery.Matches(rel)
}

// addDirectoriesRecursively adds all non-ignored directories to the watcher.
func (w *Watcher) addDirectoriesRecursively(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Log but continue - don't fail the entire watch for one directory
			logger.Logger.Warnw("Error accessing path", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}

		rel, err := w.analyzer.discovery.relative(path)
		if err != nil {
			return nil
		}
		if rel != "." && w.analyzer.discovery.shouldIgnore(rel) {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			logger.Logger.Warnw("Failed to watch directory", "dir", path, "error", err)
		}
		return nil
	})
}
