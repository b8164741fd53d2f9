package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mapstone/codegraph/internal/graph"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show graph statistics",
	Long:  "Prints node and edge counts for a persistent graph. Requires --db; an in-memory graph does not outlive the importing process.",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	if flagDB == "" {
		return fmt.Errorf("stats requires --db pointing at a persistent graph")
	}
	store, err := graph.NewKuzuFileStore(flagDB)
	if err != nil {
		return fmt.Errorf("open graph database: %w", err)
	}
	defer store.Close()

	stats, err := store.Stats(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("modules %d, classes %d, funcs %d, import edges %d, call edges %d\n",
		stats.Modules, stats.Classes, stats.Funcs, stats.ImportEdges, stats.CallEdges)
	return nil
}
