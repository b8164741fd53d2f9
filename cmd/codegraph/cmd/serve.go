package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mapstone/codegraph/internal/mcptools"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve-mcp",
	Short: "Expose the graph tools over MCP",
	Long:  "Starts an HTTP server exposing import, query, and eviction tools via the Model Context Protocol.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "localhost:7474", "listen address")
}

func runServe(cmd *cobra.Command, args []string) error {
	root, err := workspaceRoot()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	setupLogging(cfg)

	p, err := buildPipeline(root, cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc := mcptools.NewCodeGraphService(p.importer, p.store)
	return mcptools.RunMCPServer(ctx, svc, flagAddr)
}
