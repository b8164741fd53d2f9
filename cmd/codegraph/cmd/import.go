package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var flagMaxFiles int

var importCmd = &cobra.Command{
	Use:   "import [roots...]",
	Short: "Import files or directories into the graph",
	Long:  "Expands the given roots (default: the workspace root), runs each file through the symbol pipeline, and prints a summary. Use --db for a persistent graph.",
	RunE:  runImport,
}

func init() {
	importCmd.Flags().IntVar(&flagMaxFiles, "max-files", 0, "cap on the number of files processed")
}

func runImport(cmd *cobra.Command, args []string) error {
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

	go drainProgress(p)

	roots := args
	if len(roots) == 0 {
		roots = []string{root}
	}
	summary, err := p.importer.ImportMany(ctx, roots, flagMaxFiles)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}

	fmt.Println(summary.String())
	return nil
}
