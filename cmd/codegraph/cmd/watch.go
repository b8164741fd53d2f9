package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mapstone/codegraph/internal/orchestrator"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Import the workspace and keep the graph current",
	Long:  "Runs an initial import of the workspace root, then watches for file changes and re-imports or evicts files as they change.",
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
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

	summary, err := p.importer.ImportMany(ctx, []string{root}, 0)
	if err != nil {
		return fmt.Errorf("initial import: %w", err)
	}
	fmt.Println(summary.String())

	watcher, err := orchestrator.NewWatcher(p.importer, p.store)
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	fmt.Println("watching for changes (ctrl-c to stop)")

	if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
