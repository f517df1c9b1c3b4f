// Package watch implements Watch Mode (SPEC_FULL.md §4.12): an
// fsnotify-backed directory watcher that debounces bursts of file events
// into a single rebuild callback. Grounded on the teacher's
// internal/indexing/watcher.go (FileWatcher + eventDebouncer shape: a
// context/cancel pair, a WaitGroup'd event-processing goroutine, and a
// timer-reset debouncer keyed by path) — rewritten against xiss's much
// smaller surface: one callback (rebuild), no batch-progress callbacks,
// no separate create/remove/rename handling, since a module rebuild
// doesn't care which kind of change triggered it.
package watch

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors a directory tree and calls OnChange, debounced, for
// any burst of filesystem events touching it.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	OnChange func(paths []string)
}

// New creates a Watcher with the given debounce window (`xiss watch`
// passes 150ms).
func New(debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		fsw:      fsw,
		debounce: debounce,
		pending:  make(map[string]struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start recursively registers root and every subdirectory with fsnotify,
// then begins the event-processing goroutine.
func (w *Watcher) Start(root string) error {
	if err := addRecursive(w.fsw, root); err != nil {
		return err
	}
	w.wg.Add(1)
	go w.processEvents()
	return nil
}

// Stop cancels the watcher and waits for its goroutine to exit.
func (w *Watcher) Stop() error {
	w.cancel()
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

func addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.addPending(ev.Name)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("xiss: watch error: %v", err)
		}
	}
}

func (w *Watcher) addPending(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	pending := w.pending
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	if len(pending) == 0 || w.OnChange == nil {
		return
	}
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	w.OnChange(paths)
}
