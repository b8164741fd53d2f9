package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mapstone/codegraph/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "codegraph",
	Short: "codegraph builds a structural graph of a codebase",
	Long:  "Builds a graph of modules, classes, and functions with import and call edges, backed by an external symbol provider with tiered fallback.",
}

var (
	flagRoot     string
	flagConfig   string
	flagProvider string
	flagDB       string
	flagVerbose  bool
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", "", "workspace root (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a codegraph.yml (default: <root>/codegraph.yml if present)")
	rootCmd.PersistentFlags().StringVar(&flagProvider, "provider", "", "symbol provider endpoint URL (default: built-in tree-sitter)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "KuzuDB path for a persistent graph (default: in-memory store)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statsCmd)
}

// workspaceRoot resolves the --root flag, defaulting to the current
// directory.
func workspaceRoot() (string, error) {
	if flagRoot != "" {
		return flagRoot, nil
	}
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve workspace root: %w", err)
	}
	return dir, nil
}

// loadConfig reads the effective config for root, honoring --config.
func loadConfig(root string) (*config.Config, error) {
	if flagConfig != "" {
		return config.LoadFile(flagConfig)
	}
	return config.Load(root)
}

// setupLogging installs the process-wide slog handler.
func setupLogging(cfg *config.Config) {
	level := slog.LevelInfo
	if flagVerbose || cfg.Verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
