package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapstone/codegraph/internal/graph"
)

func TestWatcher_RemoveEventClearsStore(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"src/a.py": "def handler():\n    pass\n"})

	store := graph.NewMemStore()
	im := newTestImporter(root, graph.StoreSink{Store: store}, &stubProvider{})
	ctx := context.Background()

	require.NoError(t, im.ImportOne(ctx, "src/a.py"))
	nodes, err := store.NodesByFile(ctx, "src/a")
	require.NoError(t, err)
	require.NotEmpty(t, nodes)

	w, err := NewWatcher(im, store)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.fw.Close() })

	abs := filepath.Join(root, "src/a.py")
	require.NoError(t, os.Remove(abs))
	w.handle(ctx, fsnotify.Event{Name: abs, Op: fsnotify.Remove})

	nodes, err = store.NodesByFile(ctx, "src/a")
	require.NoError(t, err)
	assert.Empty(t, nodes, "deleted file's nodes must leave the store")
	assert.Zero(t, im.Cache().Len())
}

func TestWatcher_WriteEventReimports(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"src/a.py": "def handler():\n    pass\n"})

	store := graph.NewMemStore()
	im := newTestImporter(root, graph.StoreSink{Store: store}, &stubProvider{})
	ctx := context.Background()

	w, err := NewWatcher(im, store)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.fw.Close() })

	abs := filepath.Join(root, "src/a.py")
	w.handle(ctx, fsnotify.Event{Name: abs, Op: fsnotify.Write})

	nodes, err := store.NodesByFile(ctx, "src/a")
	require.NoError(t, err)
	assert.NotEmpty(t, nodes)
}
