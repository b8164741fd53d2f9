package graph

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultSymbolDeadline bounds the provider tier of a parse. It is distinct
// from any provider-side timeout; on expiry the orchestrator proceeds to the
// fallback tier rather than waiting.
const DefaultSymbolDeadline = 4 * time.Second

// TieredParser turns one file's text into a graph fragment. Tier one runs
// the provider-backed Mapper under a hard deadline; on failure or timeout it
// degrades to a module-only fragment. Both tiers derive import edges by
// lexical scan, so imports survive any provider degradation, and both always
// yield at least a module node.
type TieredParser struct {
	mapper     *Mapper
	stripper   Stripper
	importMode ImportMode
	deadline   time.Duration
}

// ParserOption configures a TieredParser.
type ParserOption func(*TieredParser)

// WithSymbolDeadline overrides the provider-tier deadline.
func WithSymbolDeadline(d time.Duration) ParserOption {
	return func(p *TieredParser) {
		if d > 0 {
			p.deadline = d
		}
	}
}

// WithImportMode sets which import specifiers become edges.
func WithImportMode(mode ImportMode) ParserOption {
	return func(p *TieredParser) {
		p.importMode = mode
	}
}

// NewTieredParser creates a parser over the given mapper. The stripper is
// shared with the mapper's heuristic tier.
func NewTieredParser(mapper *Mapper, stripper Stripper, opts ...ParserOption) *TieredParser {
	p := &TieredParser{
		mapper:     mapper,
		stripper:   stripper,
		importMode: ImportsRelative,
		deadline:   DefaultSymbolDeadline,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse extracts the graph fragment for one file. It never fails on provider
// trouble; all degradation is absorbed into the result's Status and
// Diagnostics. rel is the workspace-relative path, filePath the path handed
// to the provider.
func (p *TieredParser) Parse(ctx context.Context, rel, filePath string, text []byte) *ParseResult {
	label := NormalizeLabel(rel)

	tctx, cancel := context.WithTimeout(ctx, p.deadline)
	res, err := p.mapper.Extract(tctx, label, filePath, text)
	cancel()

	if err != nil {
		res = p.fallback(label, filePath, text, err)
	}

	// Defensive invariant: a module node must exist even if the mapper
	// omitted it.
	module := res.ModuleNode()
	if module == nil {
		m := NewModuleNode(label, filePath)
		m.SourceText = string(text)
		res.Nodes = append([]Node{m}, res.Nodes...)
		module = res.ModuleNode()
	}
	module.LSPStatus = res.Status

	edges, targets := ScanImports(label, filePath, text, p.importMode, p.stripper)
	res.Edges = append(res.Edges, edges...)
	res.Nodes = append(res.Nodes, GhostNodesFor(label, targets)...)

	return res
}

// fallback builds the module-only tier result after a provider failure or
// deadline expiry.
func (p *TieredParser) fallback(label, filePath string, text []byte, cause error) *ParseResult {
	msg := fmt.Sprintf("symbol provider unavailable: %v", cause)
	if errors.Is(cause, context.DeadlineExceeded) {
		msg = fmt.Sprintf("symbol query exceeded %s deadline", p.deadline)
	}

	module := NewModuleNode(label, filePath)
	module.SourceText = string(text)
	module.HeuristicCalls = false

	return &ParseResult{
		Label:    label,
		FilePath: filePath,
		Nodes:    []Node{module},
		Status:   StatusNoLSP,
		Diagnostics: []Diagnostic{{
			File:     filePath,
			Severity: SeverityWarn,
			Message:  msg,
		}},
	}
}
