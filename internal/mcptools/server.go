package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewCodeGraphMCPServer creates an MCP server with all code graph tools
// registered.
func NewCodeGraphMCPServer(svc *CodeGraphService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "codegraph",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "import_tree",
		Description: "Import files or directory trees into the code graph. Walks the roots, filters by glob/size/extension, parses each file through the tiered symbol pipeline, and merges the resulting nodes and edges.",
	}, svc.ImportTree)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "import_files",
		Description: "Import an explicit list of files, bypassing directory expansion. Unchanged files (same content fingerprint) are skipped.",
	}, svc.ImportFiles)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_symbols",
		Description: "Search graph nodes (modules, classes, functions) by label substring match. Optionally filter by node kind and limit results.",
	}, svc.QuerySymbols)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_file",
		Description: "Return every graph node belonging to one file: its module node plus all classes and functions.",
	}, svc.GetFile)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_dependencies",
		Description: "Traverse import and call edges upstream or downstream from a node. Returns dependency chains up to the specified depth.",
	}, svc.GetDependencies)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "evict",
		Description: "Remove one file's nodes and edges from the graph and drop its cached parse state so the next import re-parses it.",
	}, svc.Evict)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "stats",
		Description: "Return node and edge counts for the whole graph.",
	}, svc.Stats)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "reset",
		Description: "Clear the whole graph and all cached parse state.",
	}, svc.Reset)

	return server
}

// RunMCPServer starts an HTTP server exposing the code graph MCP tools.
func RunMCPServer(ctx context.Context, svc *CodeGraphService, addr string) error {
	server := NewCodeGraphMCPServer(svc)

	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
