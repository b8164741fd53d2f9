//go:build cgo

package graph

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newKuzuStore creates a fresh in-memory KuzuStore and registers a cleanup
// to close it when the test finishes.
func newKuzuStore(t *testing.T) Store {
	t.Helper()
	s, err := NewKuzuStore()
	require.NoError(t, err, "NewKuzuStore should not fail")
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestKuzuStore_NodeRoundTrip(t *testing.T) {
	s := newKuzuStore(t)
	ctx := context.Background()

	mod := Node{
		ID:         ModuleID("src/app"),
		Kind:       KindModule,
		Label:      "src/app",
		FilePath:   "/w/src/app.py",
		SourceText: "def main():\n    pass\n",
		LSPStatus:  StatusOK,
	}
	fn := Node{
		ID:       FuncID("src/app", "main", 0),
		Kind:     KindFunc,
		Label:    "main",
		ParentID: mod.ID,
		Range:    Range{StartLine: 0, EndLine: 1},
	}
	require.NoError(t, s.Merge(ctx, Delta{Nodes: []Node{mod, fn}}))

	got, err := s.GetNode(ctx, mod.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, KindModule, got.Kind)
	assert.Equal(t, "src/app", got.Label)
	assert.Equal(t, "/w/src/app.py", got.FilePath)
	assert.Equal(t, StatusOK, got.LSPStatus)
	assert.Equal(t, mod.SourceText, got.SourceText)

	got, err = s.GetNode(ctx, fn.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, KindFunc, got.Kind)
	assert.Equal(t, mod.ID, got.ParentID)
	assert.Equal(t, 1, got.Range.EndLine)
}

func TestKuzuStore_GetNodeNotFound(t *testing.T) {
	s := newKuzuStore(t)

	got, err := s.GetNode(context.Background(), "mod:nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestKuzuStore_GhostUpgrade(t *testing.T) {
	s := newKuzuStore(t)
	ctx := context.Background()

	ghost := NewGhostModule("src/util")
	require.NoError(t, s.Merge(ctx, Delta{Nodes: []Node{ghost}}))

	real := NewModuleNode("src/util", "/w/src/util.py")
	real.LSPStatus = StatusOK
	require.NoError(t, s.Merge(ctx, Delta{Nodes: []Node{real}}))

	got, err := s.GetNode(ctx, ghost.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Collapsed)
	assert.Equal(t, "/w/src/util.py", got.FilePath)
	assert.Equal(t, StatusOK, got.LSPStatus)
}

func TestKuzuStore_EdgeProvenanceRoundTrip(t *testing.T) {
	s := newKuzuStore(t)
	ctx := context.Background()

	delta := Delta{
		Nodes: []Node{
			NewModuleNode("src/a", "/w/src/a.py"),
			NewGhostModule("src/b"),
		},
		Edges: []Edge{
			{From: ModuleID("src/a"), To: ModuleID("src/b"), Type: EdgeImport, Provenance: ProvHeuristic, Confidence: 0.9},
			{From: ModuleID("src/a"), To: ModuleID("src/b"), Type: EdgeCall, Provenance: ProvHierarchy, Confidence: 1},
		},
	}
	require.NoError(t, s.Merge(ctx, delta))

	edges, err := s.AllEdges(ctx)
	require.NoError(t, err)
	require.Len(t, edges, 2)

	byType := map[EdgeType]Edge{}
	for _, e := range edges {
		byType[e.Type] = e
	}
	assert.Equal(t, ProvHeuristic, byType[EdgeImport].Provenance)
	assert.InDelta(t, 0.9, byType[EdgeImport].Confidence, 1e-9)
	assert.Equal(t, ProvHierarchy, byType[EdgeCall].Provenance)
	assert.InDelta(t, 1.0, byType[EdgeCall].Confidence, 1e-9)
}

func TestKuzuStore_MergeEdgeIsIdempotent(t *testing.T) {
	s := newKuzuStore(t)
	ctx := context.Background()

	delta := Delta{
		Nodes: []Node{
			NewModuleNode("src/a", "/w/src/a.py"),
			NewGhostModule("src/b"),
		},
		Edges: []Edge{
			{From: ModuleID("src/a"), To: ModuleID("src/b"), Type: EdgeImport, Provenance: ProvHeuristic, Confidence: 0.9},
		},
	}
	require.NoError(t, s.Merge(ctx, delta))
	require.NoError(t, s.Merge(ctx, delta))

	edges, err := s.AllEdges(ctx)
	require.NoError(t, err)
	assert.Len(t, edges, 1)
}

func TestKuzuStore_QueryNodes(t *testing.T) {
	s := newKuzuStore(t)
	ctx := context.Background()

	nodes := []Node{
		NewModuleNode("src/handler", "/w/src/handler.py"),
		{ID: ClassID("src/handler", "Handler"), Kind: KindClass, Label: "Handler", ParentID: ModuleID("src/handler")},
		NewModuleNode("src/model", "/w/src/model.py"),
	}
	require.NoError(t, s.Merge(ctx, Delta{Nodes: nodes}))

	got, err := s.QueryNodes(ctx, "handler", "", 0)
	require.NoError(t, err)
	assert.Len(t, got, 1, "CONTAINS is case-sensitive; only the module label matches")

	got, err = s.QueryNodes(ctx, "Handler", KindClass, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Handler", got[0].Label)
}

func TestKuzuStore_RemoveFile(t *testing.T) {
	s := newKuzuStore(t)
	ctx := context.Background()

	delta := Delta{
		Nodes: []Node{
			NewModuleNode("src/a", "/w/src/a.py"),
			{ID: FuncID("src/a", "main", 0), Kind: KindFunc, Label: "main", ParentID: ModuleID("src/a")},
			NewModuleNode("src/ab", "/w/src/ab.py"),
		},
		Edges: []Edge{
			{From: ModuleID("src/a"), To: ModuleID("src/ab"), Type: EdgeImport, Provenance: ProvHeuristic, Confidence: 0.9},
		},
	}
	require.NoError(t, s.Merge(ctx, delta))
	require.NoError(t, s.RemoveFile(ctx, "src/a"))

	got, err := s.GetNode(ctx, ModuleID("src/a"))
	require.NoError(t, err)
	assert.Nil(t, got)
	got, err = s.GetNode(ctx, FuncID("src/a", "main", 0))
	require.NoError(t, err)
	assert.Nil(t, got)

	// Label prefixes must not bleed into other files.
	got, err = s.GetNode(ctx, ModuleID("src/ab"))
	require.NoError(t, err)
	assert.NotNil(t, got)

	edges, err := s.AllEdges(ctx)
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestKuzuStore_StatsAndReset(t *testing.T) {
	s := newKuzuStore(t)
	ctx := context.Background()

	delta := Delta{
		Nodes: []Node{
			NewModuleNode("src/a", "/w/src/a.py"),
			{ID: ClassID("src/a", "A"), Kind: KindClass, Label: "A", ParentID: ModuleID("src/a")},
			{ID: FuncID("src/a", "A.run", 2), Kind: KindFunc, Label: "A.run", ParentID: ClassID("src/a", "A")},
			NewGhostModule("src/b"),
		},
		Edges: []Edge{
			{From: ModuleID("src/a"), To: ModuleID("src/b"), Type: EdgeImport, Provenance: ProvHeuristic, Confidence: 0.9},
		},
	}
	require.NoError(t, s.Merge(ctx, delta))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Modules)
	assert.Equal(t, 1, stats.Classes)
	assert.Equal(t, 1, stats.Funcs)
	assert.Equal(t, 1, stats.ImportEdges)
	assert.Zero(t, stats.CallEdges)

	require.NoError(t, s.Reset(ctx))
	stats, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Modules)
}

func TestKuzuStore_FileBackedPersists(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "graphdb")
	ctx := context.Background()

	s, err := NewKuzuFileStore(dbPath)
	require.NoError(t, err)
	mod := NewModuleNode("src/a", "/w/src/a.py")
	require.NoError(t, s.Merge(ctx, Delta{Nodes: []Node{mod}}))
	require.NoError(t, s.Close())

	// Reopening also re-runs the DDL, which must be idempotent.
	s, err = NewKuzuFileStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	got, err := s.GetNode(ctx, mod.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "src/a", got.Label)
}
