package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mapstone/codegraph/internal/graph"
	"github.com/mapstone/codegraph/internal/orchestrator"
)

// CodeGraphService holds the importer and graph store used by MCP tool
// handlers.
type CodeGraphService struct {
	importer *orchestrator.Importer
	store    graph.Store
}

// NewCodeGraphService creates a CodeGraphService over the given importer and
// store.
func NewCodeGraphService(importer *orchestrator.Importer, store graph.Store) *CodeGraphService {
	return &CodeGraphService{importer: importer, store: store}
}

// ImportTree expands the given roots and runs a batch import.
func (s *CodeGraphService) ImportTree(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ImportTreeInput,
) (*mcp.CallToolResult, ImportTreeOutput, error) {
	if len(input.Roots) == 0 {
		return nil, ImportTreeOutput{}, fmt.Errorf("roots is required")
	}

	summary, err := s.importer.ImportMany(ctx, input.Roots, input.MaxFiles)
	if err != nil {
		return nil, ImportTreeOutput{}, fmt.Errorf("import: %w", err)
	}
	return nil, ImportTreeOutput{Summary: *summary}, nil
}

// ImportFiles imports an explicit list of files, one at a time.
func (s *CodeGraphService) ImportFiles(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ImportFilesInput,
) (*mcp.CallToolResult, ImportFilesOutput, error) {
	if len(input.Files) == 0 {
		return nil, ImportFilesOutput{}, fmt.Errorf("files is required")
	}

	out := ImportFilesOutput{}
	for _, f := range input.Files {
		if err := ctx.Err(); err != nil {
			return nil, out, err
		}
		if err := s.importer.ImportOne(ctx, f); err != nil {
			out.Failed = append(out.Failed, f)
			continue
		}
		out.Imported++
	}
	return nil, out, nil
}

// QuerySymbols searches graph nodes by label substring match.
func (s *CodeGraphService) QuerySymbols(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QuerySymbolsInput,
) (*mcp.CallToolResult, QuerySymbolsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	var kind graph.NodeKind
	switch strings.ToLower(input.Kind) {
	case "":
	case "module":
		kind = graph.KindModule
	case "class":
		kind = graph.KindClass
	case "func", "function":
		kind = graph.KindFunc
	default:
		return nil, QuerySymbolsOutput{}, fmt.Errorf("unknown kind: %s", input.Kind)
	}

	nodes, err := s.store.QueryNodes(ctx, input.Query, kind, limit)
	if err != nil {
		return nil, QuerySymbolsOutput{}, fmt.Errorf("query nodes: %w", err)
	}
	return nil, QuerySymbolsOutput{Nodes: nodes, Total: len(nodes)}, nil
}

// GetFile returns every node belonging to one file.
func (s *CodeGraphService) GetFile(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetFileInput,
) (*mcp.CallToolResult, GetFileOutput, error) {
	if input.Path == "" {
		return nil, GetFileOutput{}, fmt.Errorf("path is required")
	}

	label := graph.NormalizeLabel(input.Path)
	nodes, err := s.store.NodesByFile(ctx, label)
	if err != nil {
		return nil, GetFileOutput{}, fmt.Errorf("nodes by file: %w", err)
	}
	return nil, GetFileOutput{Nodes: nodes}, nil
}

// GetDependencies traverses the dependency graph from a given node.
func (s *CodeGraphService) GetDependencies(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetDependenciesInput,
) (*mcp.CallToolResult, GetDependenciesOutput, error) {
	if input.NodeID == "" {
		return nil, GetDependenciesOutput{}, fmt.Errorf("nodeId is required")
	}

	direction := graph.DirectionDownstream
	if strings.EqualFold(input.Direction, "upstream") {
		direction = graph.DirectionUpstream
	}

	maxDepth := input.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 5
	}

	chains, err := s.store.Dependencies(ctx, input.NodeID, direction, maxDepth)
	if err != nil {
		return nil, GetDependenciesOutput{}, fmt.Errorf("dependencies: %w", err)
	}
	return nil, GetDependenciesOutput{Chains: chains}, nil
}

// Evict removes one file's nodes and edges from both the pipeline state and
// the store.
func (s *CodeGraphService) Evict(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input EvictInput,
) (*mcp.CallToolResult, EvictOutput, error) {
	if input.Path == "" {
		return nil, EvictOutput{}, fmt.Errorf("path is required")
	}

	label := s.importer.Evict(input.Path)
	if err := s.store.RemoveFile(ctx, label); err != nil {
		return nil, EvictOutput{}, fmt.Errorf("remove file: %w", err)
	}
	return nil, EvictOutput{Evicted: label}, nil
}

// Stats returns node and edge counts for the whole graph.
func (s *CodeGraphService) Stats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatsInput,
) (*mcp.CallToolResult, StatsOutput, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, StatsOutput{}, fmt.Errorf("stats: %w", err)
	}
	return nil, StatsOutput{Stats: *stats}, nil
}

// Reset clears the whole graph and all pipeline state.
func (s *CodeGraphService) Reset(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ResetInput,
) (*mcp.CallToolResult, ResetOutput, error) {
	s.importer.ResetAll()
	if err := s.store.Reset(ctx); err != nil {
		return nil, ResetOutput{}, fmt.Errorf("reset store: %w", err)
	}
	return nil, ResetOutput{Reset: true}, nil
}
