package layer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/vk/contentspec/internal/ctxlog"
	"github.com/vk/contentspec/internal/fsutil"
)

// WatcherConfig tunes a Watcher.
type WatcherConfig struct {
	// DebounceWindow is how long the watcher waits for quiet before
	// reporting a batch.
	DebounceWindow time.Duration
	// MaxBatchSize forces a flush once this many distinct paths are pending.
	MaxBatchSize int
	// WatchHidden includes dot-files and dot-directories.
	WatchHidden bool
}

// DefaultWatcherConfig returns the settings specctl uses.
func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{
		DebounceWindow: 200 * time.Millisecond,
		MaxBatchSize:   256,
	}
}

// Watcher reports logical paths whose backing file changed in any layer.
// Directories created after Start are picked up automatically.
type Watcher struct {
	config      WatcherConfig
	stack       *Stack
	fsWatcher   *fsnotify.Watcher
	fsWatcherMu sync.Mutex
	debouncer   *debouncer
	mu          sync.Mutex
	running     bool
	cancel      context.CancelFunc
	done        chan struct{}
}

// NewWatcher creates a watcher over every layer of stack. onChange receives
// sorted, de-duplicated logical paths.
func NewWatcher(stack *Stack, config WatcherConfig, onChange func([]string)) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		config:    config,
		stack:     stack,
		fsWatcher: fsWatcher,
	}
	w.debouncer = newDebouncer(config.DebounceWindow, config.MaxBatchSize, onChange)
	return w, nil
}

// Start registers every existing layer directory and begins delivering
// events until ctx is done or Stop is called. Layer roots that do not exist
// are skipped.
func (w *Watcher) Start(ctx context.Context) error {
	logger := ctxlog.ForComponent(ctx, "watcher")

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	for _, l := range w.stack.layers {
		if _, err := os.Stat(l.Root); err != nil {
			logger.Debug("Skipping missing layer root.", "layer", l.Name, "root", l.Root)
			continue
		}
		if err := w.addTree(l.Root); err != nil {
			return err
		}
		logger.Debug("Watching layer.", "layer", l.Name, "root", l.Root)
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.running = true
	go w.handleEvents(runCtx)
	return nil
}

func (w *Watcher) addTree(root string) error {
	dirs, err := fsutil.Subdirectories(root, w.shouldIgnore)
	if err != nil {
		return err
	}
	w.fsWatcherMu.Lock()
	defer w.fsWatcherMu.Unlock()
	for _, dir := range dirs {
		if err := w.fsWatcher.Add(dir); err != nil {
			return err
		}
	}
	return nil
}

func (w *Watcher) handleEvents(ctx context.Context) {
	logger := ctxlog.ForComponent(ctx, "watcher")
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if w.shouldIgnore(event.Name) {
				continue
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						logger.Warn("Failed to watch new directory.", "path", event.Name, "error", err)
					}
					continue
				}
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			for _, rel := range w.logicalPaths(event.Name) {
				logger.Debug("File changed.", "path", rel, "op", event.Op.String())
				w.debouncer.Add(rel)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			logger.Warn("File watcher error.", "error", err)
		}
	}
}

// logicalPaths maps an absolute path to the logical path of every layer that
// contains it. Roots may nest, so more than one layer can match.
func (w *Watcher) logicalPaths(abs string) []string {
	var out []string
	for _, l := range w.stack.layers {
		if rel, ok := l.rel(abs); ok && rel != "." {
			out = append(out, rel)
		}
	}
	return out
}

func (w *Watcher) shouldIgnore(path string) bool {
	return !w.config.WatchHidden && strings.HasPrefix(filepath.Base(path), ".")
}

// Stop ends event delivery, flushes pending paths and releases the
// underlying watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		w.fsWatcherMu.Lock()
		defer w.fsWatcherMu.Unlock()
		return w.fsWatcher.Close()
	}
	w.running = false
	w.cancel()
	done := w.done
	w.mu.Unlock()

	<-done
	w.debouncer.Stop()

	w.fsWatcherMu.Lock()
	defer w.fsWatcherMu.Unlock()
	return w.fsWatcher.Close()
}
