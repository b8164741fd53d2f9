package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mapstone/codegraph/internal/graph"
)

// debounceInterval collapses rapid event bursts per file; editors often
// trigger multiple writes per save.
const debounceInterval = 200 * time.Millisecond

// Watcher keeps the graph current by re-importing changed files and evicting
// removed ones, from both the pipeline caches and the store. It recursively
// watches the importer's root, skipping the same directories the import
// filter skips.
type Watcher struct {
	importer *Importer
	store    graph.Store
	fw       *fsnotify.Watcher

	mu       sync.Mutex
	debounce map[string]time.Time
}

// NewWatcher creates a Watcher over the given importer and store. A nil
// store limits eviction to pipeline state.
func NewWatcher(importer *Importer, store graph.Store) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		importer: importer,
		store:    store,
		fw:       fw,
		debounce: make(map[string]time.Time),
	}, nil
}

// Run watches the importer's root until ctx is cancelled. It blocks; run it
// in its own goroutine when the caller has other work.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.addTree(w.importer.root); err != nil {
		return err
	}
	defer w.fw.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, event)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			w.importer.log.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip inaccessible paths
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && w.importer.filter.SkipDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.fw.Add(p)
	})
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	path := event.Name

	// New directories join the watch set.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !w.importer.filter.SkipDir(filepath.Base(path)) {
				w.addTree(path)
			}
			return
		}
	}

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		label := w.importer.Evict(path)
		if w.store != nil {
			if err := w.store.RemoveFile(ctx, label); err != nil {
				w.importer.log.Warn("store removal failed", "file", label, "error", err)
			}
		}
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	if w.suppressed(path) {
		return
	}

	_, rel, err := w.importer.resolvePath(path)
	if err != nil {
		return
	}
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if w.importer.filter.Check(rel, info) != SkipNone {
		return
	}

	if err := w.importer.ImportOne(ctx, path); err != nil {
		w.importer.log.Warn("re-import failed", "file", rel, "error", err)
	}
}

func (w *Watcher) suppressed(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := time.Now()
	if last, ok := w.debounce[path]; ok && now.Sub(last) < debounceInterval {
		return true
	}
	w.debounce[path] = now
	return false
}
