package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/mapstone/codegraph/internal/config"
	"github.com/mapstone/codegraph/internal/graph"
	"github.com/mapstone/codegraph/internal/orchestrator"
	"github.com/mapstone/codegraph/internal/provider"
)

// pipeline bundles the wired-up components a command needs.
type pipeline struct {
	root     string
	cfg      *config.Config
	store    graph.Store
	importer *orchestrator.Importer
	progress *orchestrator.ProgressReporter
}

func (p *pipeline) Close() error {
	p.progress.Close()
	return p.store.Close()
}

// buildPipeline wires provider, store, parser, resolver, and importer from
// the effective config and flags.
func buildPipeline(root string, cfg *config.Config) (*pipeline, error) {
	client := selectProvider(cfg)
	store, err := selectStore()
	if err != nil {
		return nil, err
	}

	stripper := graph.NewStripper()
	mapper := graph.NewMapper(client, stripper, root)
	parser := graph.NewTieredParser(mapper, stripper,
		graph.WithSymbolDeadline(cfg.Provider.Timeout(graph.DefaultSymbolDeadline)),
		graph.WithImportMode(graph.ParseImportMode(cfg.ImportEdges)),
	)
	index := graph.NewParseIndex()
	progress := orchestrator.NewProgressReporter()

	opts := []orchestrator.ImporterOption{
		orchestrator.WithProgress(progress),
		orchestrator.WithLogger(slog.Default()),
		orchestrator.WithFilter(buildFilter(cfg)),
	}
	if cfg.BatchSize > 0 {
		opts = append(opts, orchestrator.WithBatchSize(cfg.BatchSize))
	}
	if cfg.MaxFiles > 0 {
		opts = append(opts, orchestrator.WithMaxFiles(cfg.MaxFiles))
	}
	if cfg.CrossFileCalls.On() {
		ropts := []graph.ResolverOption{}
		if cfg.CrossFileCalls.EdgeCap > 0 {
			ropts = append(ropts, graph.WithEdgeCap(cfg.CrossFileCalls.EdgeCap))
		}
		resolver := graph.NewCrossFileResolver(client, index, root, ropts...)
		opts = append(opts, orchestrator.WithResolver(resolver))
	}

	importer := orchestrator.NewImporter(root, parser, index,
		graph.StoreSink{Store: store}, opts...)

	return &pipeline{
		root:     root,
		cfg:      cfg,
		store:    store,
		importer: importer,
		progress: progress,
	}, nil
}

func selectProvider(cfg *config.Config) provider.Client {
	endpoint := flagProvider
	if endpoint == "" {
		endpoint = cfg.Provider.Endpoint
	}
	if endpoint == "" {
		return provider.NewLocal()
	}
	timeout := cfg.Provider.Timeout(10 * time.Second)
	return provider.NewHTTPClient(endpoint, provider.WithTimeout(timeout))
}

func selectStore() (graph.Store, error) {
	if flagDB == "" {
		return graph.NewMemStore(), nil
	}
	store, err := graph.NewKuzuFileStore(flagDB)
	if err != nil {
		return nil, fmt.Errorf("open graph database: %w", err)
	}
	return store, nil
}

func buildFilter(cfg *config.Config) *orchestrator.FileFilter {
	f := orchestrator.NewFileFilter(cfg.Include, cfg.Exclude)
	if cfg.MaxFileSize > 0 {
		f.MaxFileSize = cfg.MaxFileSize
	}
	return f
}

// drainProgress prints progress events until the reporter closes.
func drainProgress(p *pipeline) {
	for ev := range p.progress.Subscribe() {
		fmt.Println(orchestrator.FormatProgress(ev))
	}
}
