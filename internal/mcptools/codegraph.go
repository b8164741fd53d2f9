package mcptools

import (
	"github.com/mapstone/codegraph/internal/graph"
	"github.com/mapstone/codegraph/internal/orchestrator"
)

// --- MCP Tool Input Types ---
// These structs define the JSON schema for each MCP tool's input.
// The MCP Go SDK auto-generates JSON schemas from struct tags.

// ImportTreeInput is the input for the import_tree MCP tool.
type ImportTreeInput struct {
	Roots    []string `json:"roots" jsonschema:"files or directories to import, relative to the workspace root or absolute"`
	MaxFiles int      `json:"maxFiles,omitempty" jsonschema:"cap on the number of files processed (default: 500)"`
}

// ImportTreeOutput is the result of the import_tree MCP tool.
type ImportTreeOutput struct {
	Summary orchestrator.Summary `json:"summary"`
}

// ImportFilesInput is the input for the import_files MCP tool.
type ImportFilesInput struct {
	Files []string `json:"files" jsonschema:"explicit file paths to import, one at a time"`
}

// ImportFilesOutput is the result of the import_files MCP tool.
type ImportFilesOutput struct {
	Imported int      `json:"imported"`
	Failed   []string `json:"failed,omitempty"`
}

// QuerySymbolsInput is the input for the query_symbols MCP tool.
type QuerySymbolsInput struct {
	Query string `json:"query" jsonschema:"substring to match against node labels"`
	Kind  string `json:"kind,omitempty" jsonschema:"filter by node kind: module, class, func"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results (default: 20)"`
}

// QuerySymbolsOutput is the result of the query_symbols MCP tool.
type QuerySymbolsOutput struct {
	Nodes []graph.Node `json:"nodes"`
	Total int          `json:"total"`
}

// GetFileInput is the input for the get_file MCP tool.
type GetFileInput struct {
	Path string `json:"path" jsonschema:"workspace-relative path of the file to look up"`
}

// GetFileOutput is the result of the get_file MCP tool.
type GetFileOutput struct {
	Nodes []graph.Node `json:"nodes"`
}

// GetDependenciesInput is the input for the get_dependencies MCP tool.
type GetDependenciesInput struct {
	NodeID    string `json:"nodeId" jsonschema:"graph node id, e.g. mod:src/app or fn:src/app#main@10"`
	Direction string `json:"direction,omitempty" jsonschema:"upstream (what it depends on) or downstream (what depends on it). Default: downstream"`
	MaxDepth  int    `json:"maxDepth,omitempty" jsonschema:"maximum traversal depth (default: 5)"`
}

// GetDependenciesOutput is the result of the get_dependencies MCP tool.
type GetDependenciesOutput struct {
	Chains []graph.DependencyChain `json:"chains"`
}

// EvictInput is the input for the evict MCP tool.
type EvictInput struct {
	Path string `json:"path" jsonschema:"workspace-relative path of the file to evict from the graph"`
}

// EvictOutput is the result of the evict MCP tool.
type EvictOutput struct {
	Evicted string `json:"evicted"`
}

// StatsInput is the input for the stats MCP tool.
type StatsInput struct{}

// StatsOutput is the result of the stats MCP tool.
type StatsOutput struct {
	Stats graph.Stats `json:"stats"`
}

// ResetInput is the input for the reset MCP tool.
type ResetInput struct{}

// ResetOutput is the result of the reset MCP tool.
type ResetOutput struct {
	Reset bool `json:"reset"`
}
