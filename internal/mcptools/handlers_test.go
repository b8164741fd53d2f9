package mcptools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapstone/codegraph/internal/graph"
	"github.com/mapstone/codegraph/internal/orchestrator"
	"github.com/mapstone/codegraph/internal/provider"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// stubClient answers every DocumentSymbols call with one function symbol and
// has no call-hierarchy capability.
type stubClient struct{}

func (stubClient) DocumentSymbols(context.Context, string, []byte) ([]provider.Symbol, error) {
	return []provider.Symbol{{
		Name: "handler",
		Kind: provider.SymFunction,
		Range: provider.Range{
			Start: provider.Position{Line: 0},
			End:   provider.Position{Line: 1},
		},
	}}, nil
}

func (stubClient) PrepareCallSite(context.Context, string, provider.Position) (*provider.CallSite, error) {
	return nil, provider.ErrUnsupported
}

func (stubClient) OutgoingCalls(context.Context, *provider.CallSite) ([]provider.OutgoingCall, error) {
	return nil, provider.ErrUnsupported
}

// newTestService builds a service over a MemStore and an importer rooted at a
// fresh temp dir populated with the given files.
func newTestService(t *testing.T, files map[string]string) (*CodeGraphService, *graph.MemStore, string) {
	t.Helper()

	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}

	store := graph.NewMemStore()
	stripper := graph.NewStripper()
	mapper := graph.NewMapper(stubClient{}, stripper, root)
	parser := graph.NewTieredParser(mapper, stripper)
	importer := orchestrator.NewImporter(root, parser, graph.NewParseIndex(), graph.StoreSink{Store: store})

	return NewCodeGraphService(importer, store), store, root
}

// seedGraph merges a small fixed graph into the store:
//
//	pkg/handler -> pkg/service -> pkg/model   (imports)
//
// with one class and one func under pkg/handler.
func seedGraph(t *testing.T, store *graph.MemStore) {
	t.Helper()

	handler := graph.ModuleID("pkg/handler")
	service := graph.ModuleID("pkg/service")
	model := graph.ModuleID("pkg/model")

	delta := graph.Delta{
		Nodes: []graph.Node{
			{ID: handler, Kind: graph.KindModule, Label: "pkg/handler", FilePath: "/w/pkg/handler.py", LSPStatus: graph.StatusOK},
			{ID: service, Kind: graph.KindModule, Label: "pkg/service", FilePath: "/w/pkg/service.py", LSPStatus: graph.StatusOK},
			{ID: model, Kind: graph.KindModule, Label: "pkg/model", FilePath: "/w/pkg/model.py", LSPStatus: graph.StatusOK},
			{ID: graph.ClassID("pkg/handler", "RequestHandler"), Kind: graph.KindClass, Label: "RequestHandler", ParentID: handler},
			{ID: graph.FuncID("pkg/handler", "RequestHandler.serve", 4), Kind: graph.KindFunc, Label: "RequestHandler.serve", ParentID: graph.ClassID("pkg/handler", "RequestHandler")},
		},
		Edges: []graph.Edge{
			{From: handler, To: service, Type: graph.EdgeImport, Provenance: graph.ProvHeuristic, Confidence: 0.9},
			{From: service, To: model, Type: graph.EdgeImport, Provenance: graph.ProvHeuristic, Confidence: 0.9},
		},
	}
	require.NoError(t, store.Merge(context.Background(), delta))
}

// ---------------------------------------------------------------------------
// import_tree / import_files
// ---------------------------------------------------------------------------

func TestImportTree_BuildsGraphFromRoot(t *testing.T) {
	svc, store, root := newTestService(t, map[string]string{
		"src/a.py": "def handler():\n    pass\n",
		"src/b.py": "def handler():\n    pass\n",
	})

	_, out, err := svc.ImportTree(context.Background(), nil, ImportTreeInput{Roots: []string{root}})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Summary.Imported)
	assert.Equal(t, 2, out.Summary.OK)

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Modules)
}

func TestImportTree_RequiresRoots(t *testing.T) {
	svc, _, _ := newTestService(t, nil)

	_, _, err := svc.ImportTree(context.Background(), nil, ImportTreeInput{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "roots")
}

func TestImportFiles_ReportsPerFileOutcome(t *testing.T) {
	svc, _, _ := newTestService(t, map[string]string{
		"src/a.py": "def handler():\n    pass\n",
	})

	input := ImportFilesInput{Files: []string{"src/a.py", "src/missing.py"}}
	_, out, err := svc.ImportFiles(context.Background(), nil, input)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Imported)
	assert.Equal(t, []string{"src/missing.py"}, out.Failed)
}

func TestImportFiles_RequiresFiles(t *testing.T) {
	svc, _, _ := newTestService(t, nil)

	_, _, err := svc.ImportFiles(context.Background(), nil, ImportFilesInput{})
	require.Error(t, err)
}

// ---------------------------------------------------------------------------
// query_symbols / get_file
// ---------------------------------------------------------------------------

func TestQuerySymbols_MatchesSubstring(t *testing.T) {
	svc, store, _ := newTestService(t, nil)
	seedGraph(t, store)

	_, out, err := svc.QuerySymbols(context.Background(), nil, QuerySymbolsInput{Query: "handler"})
	require.NoError(t, err)
	require.Equal(t, 3, out.Total)

	labels := make([]string, 0, len(out.Nodes))
	for _, n := range out.Nodes {
		labels = append(labels, n.Label)
	}
	assert.Contains(t, labels, "pkg/handler")
	assert.Contains(t, labels, "RequestHandler")
	assert.Contains(t, labels, "RequestHandler.serve")
}

func TestQuerySymbols_KindFilter(t *testing.T) {
	svc, store, _ := newTestService(t, nil)
	seedGraph(t, store)

	_, out, err := svc.QuerySymbols(context.Background(), nil, QuerySymbolsInput{Query: "handler", Kind: "class"})
	require.NoError(t, err)
	require.Len(t, out.Nodes, 1)
	assert.Equal(t, "RequestHandler", out.Nodes[0].Label)

	// "func" and "function" are both accepted.
	_, out, err = svc.QuerySymbols(context.Background(), nil, QuerySymbolsInput{Query: "serve", Kind: "function"})
	require.NoError(t, err)
	require.Len(t, out.Nodes, 1)
	assert.Equal(t, graph.KindFunc, out.Nodes[0].Kind)
}

func TestQuerySymbols_UnknownKindRejected(t *testing.T) {
	svc, store, _ := newTestService(t, nil)
	seedGraph(t, store)

	_, _, err := svc.QuerySymbols(context.Background(), nil, QuerySymbolsInput{Query: "x", Kind: "struct"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown kind")
}

func TestQuerySymbols_LimitApplies(t *testing.T) {
	svc, store, _ := newTestService(t, nil)
	seedGraph(t, store)

	_, out, err := svc.QuerySymbols(context.Background(), nil, QuerySymbolsInput{Query: "pkg", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, out.Nodes, 2)
}

func TestGetFile_ReturnsAllNodesOfFile(t *testing.T) {
	svc, store, _ := newTestService(t, nil)
	seedGraph(t, store)

	_, out, err := svc.GetFile(context.Background(), nil, GetFileInput{Path: "pkg/handler.py"})
	require.NoError(t, err)
	assert.Len(t, out.Nodes, 3)

	_, _, err = svc.GetFile(context.Background(), nil, GetFileInput{})
	require.Error(t, err)
}

// ---------------------------------------------------------------------------
// get_dependencies
// ---------------------------------------------------------------------------

func TestGetDependencies_DownstreamChains(t *testing.T) {
	svc, store, _ := newTestService(t, nil)
	seedGraph(t, store)

	input := GetDependenciesInput{NodeID: graph.ModuleID("pkg/handler")}
	_, out, err := svc.GetDependencies(context.Background(), nil, input)
	require.NoError(t, err)
	require.Len(t, out.Chains, 2)
	assert.Equal(t, []string{"mod:pkg/handler", "mod:pkg/service"}, out.Chains[0].Nodes)
	assert.Equal(t, []string{"mod:pkg/handler", "mod:pkg/service", "mod:pkg/model"}, out.Chains[1].Nodes)
}

func TestGetDependencies_UpstreamDirection(t *testing.T) {
	svc, store, _ := newTestService(t, nil)
	seedGraph(t, store)

	input := GetDependenciesInput{NodeID: graph.ModuleID("pkg/model"), Direction: "upstream"}
	_, out, err := svc.GetDependencies(context.Background(), nil, input)
	require.NoError(t, err)
	require.Len(t, out.Chains, 2)
	assert.Equal(t, []string{"mod:pkg/model", "mod:pkg/service"}, out.Chains[0].Nodes)
}

func TestGetDependencies_RequiresNodeID(t *testing.T) {
	svc, _, _ := newTestService(t, nil)

	_, _, err := svc.GetDependencies(context.Background(), nil, GetDependenciesInput{})
	require.Error(t, err)
}

// ---------------------------------------------------------------------------
// evict / stats / reset
// ---------------------------------------------------------------------------

func TestEvict_RemovesFileAndAllowsReimport(t *testing.T) {
	svc, store, root := newTestService(t, map[string]string{
		"src/a.py": "def handler():\n    pass\n",
	})
	ctx := context.Background()

	_, _, err := svc.ImportTree(ctx, nil, ImportTreeInput{Roots: []string{root}})
	require.NoError(t, err)

	_, out, err := svc.Evict(ctx, nil, EvictInput{Path: "src/a.py"})
	require.NoError(t, err)
	assert.Equal(t, "src/a", out.Evicted)

	nodes, err := store.NodesByFile(ctx, "src/a")
	require.NoError(t, err)
	assert.Empty(t, nodes)

	// The fingerprint was dropped too, so a re-import parses again.
	_, tree, err := svc.ImportTree(ctx, nil, ImportTreeInput{Roots: []string{root}})
	require.NoError(t, err)
	assert.Equal(t, 1, tree.Summary.Imported)
	assert.Zero(t, tree.Summary.Unchanged)
}

func TestEvict_RequiresPath(t *testing.T) {
	svc, _, _ := newTestService(t, nil)

	_, _, err := svc.Evict(context.Background(), nil, EvictInput{})
	require.Error(t, err)
}

func TestStats_CountsNodesAndEdges(t *testing.T) {
	svc, store, _ := newTestService(t, nil)
	seedGraph(t, store)

	_, out, err := svc.Stats(context.Background(), nil, StatsInput{})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Stats.Modules)
	assert.Equal(t, 1, out.Stats.Classes)
	assert.Equal(t, 1, out.Stats.Funcs)
	assert.Equal(t, 2, out.Stats.ImportEdges)
}

func TestReset_ClearsEverything(t *testing.T) {
	svc, store, root := newTestService(t, map[string]string{
		"src/a.py": "def handler():\n    pass\n",
	})
	ctx := context.Background()

	_, _, err := svc.ImportTree(ctx, nil, ImportTreeInput{Roots: []string{root}})
	require.NoError(t, err)

	_, out, err := svc.Reset(ctx, nil, ResetInput{})
	require.NoError(t, err)
	assert.True(t, out.Reset)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Modules)

	// Fingerprints were cleared, so the next import is not skipped.
	_, tree, err := svc.ImportTree(ctx, nil, ImportTreeInput{Roots: []string{root}})
	require.NoError(t, err)
	assert.Equal(t, 1, tree.Summary.Imported)
}
