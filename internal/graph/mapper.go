package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mapstone/codegraph/internal/provider"
)

// DefaultSnippetLines bounds the class body preview captured on class nodes.
const DefaultSnippetLines = 8

// DefaultCallQueryTimeout bounds each call-hierarchy query issued while
// mapping same-file call edges.
const DefaultCallQueryTimeout = 2 * time.Second

// Mapper converts the symbol provider's response for one file into a graph
// fragment. It owns the flat-vs-hierarchical normalization: downstream logic
// only ever sees one internal tree form.
type Mapper struct {
	client       provider.Client
	stripper     Stripper
	root         string // workspace root, for relabeling provider paths
	snippetLines int
	callTimeout  time.Duration
}

// NewMapper creates a Mapper over the given provider client. root is the
// workspace root used to relabel absolute paths in provider answers.
func NewMapper(client provider.Client, stripper Stripper, root string) *Mapper {
	return &Mapper{
		client:       client,
		stripper:     stripper,
		root:         root,
		snippetLines: DefaultSnippetLines,
		callTimeout:  DefaultCallQueryTimeout,
	}
}

// Extract queries document symbols for the file and maps them to nodes and
// same-file call edges. A non-nil error means the provider itself failed and
// the caller should take the fallback tier; empty or thin answers are not
// errors.
func (m *Mapper) Extract(ctx context.Context, label, filePath string, text []byte) (*ParseResult, error) {
	syms, err := m.client.DocumentSymbols(ctx, filePath, text)
	if err != nil {
		return nil, fmt.Errorf("document symbols for %s: %w", filePath, err)
	}

	res := &ParseResult{
		Label:    label,
		FilePath: filePath,
	}

	module := NewModuleNode(label, filePath)
	module.SourceText = string(text)
	res.Nodes = append(res.Nodes, module)

	if len(syms) > 0 {
		res.Status = StatusOK
		m.mapTree(res, normalizeSymbols(syms), text)
	} else {
		res.Status = StatusPartial
		m.heuristicFill(res, filePath, text)
	}

	m.mapSameFileCalls(ctx, res)

	return res, nil
}

// normalizeSymbols produces the single internal tree form. Hierarchical
// responses pass through; flat responses are regrouped by container hint,
// attaching functions to the class symbol whose name matches their hint.
func normalizeSymbols(syms []provider.Symbol) []provider.Symbol {
	hierarchical := false
	for _, s := range syms {
		if len(s.Children) > 0 {
			hierarchical = true
			break
		}
	}
	if hierarchical {
		return syms
	}

	// Flat list: index class-like symbols by name, then reattach
	// container-hinted callables as children.
	classIdx := make(map[string]int)
	var roots []provider.Symbol
	for _, s := range syms {
		if s.Kind == provider.SymClass || s.Kind == provider.SymInterface {
			if _, dup := classIdx[s.Name]; dup {
				continue
			}
			classIdx[s.Name] = len(roots)
			roots = append(roots, s)
		}
	}
	for _, s := range syms {
		if s.Kind == provider.SymClass || s.Kind == provider.SymInterface {
			continue
		}
		if i, ok := classIdx[s.Container]; ok && s.Container != "" {
			roots[i].Children = append(roots[i].Children, s)
			continue
		}
		roots = append(roots, s)
	}
	return roots
}

// mapTree walks the normalized symbol tree and emits class and func nodes.
// Emission order is deterministic: classes and functions in symbol order,
// methods immediately after their class.
func (m *Mapper) mapTree(res *ParseResult, tree []provider.Symbol, text []byte) {
	moduleID := ModuleID(res.Label)
	classSeen := make(map[string]bool)

	for _, sym := range tree {
		switch sym.Kind {
		case provider.SymClass, provider.SymInterface:
			if classSeen[sym.Name] {
				continue
			}
			classSeen[sym.Name] = true

			class := Node{
				ID:         ClassID(res.Label, sym.Name),
				Kind:       KindClass,
				Label:      sym.Name,
				ParentID:   moduleID,
				Range:      toRange(sym.Range),
				SourceText: snippetOf(text, sym.Range.Start.Line, m.snippetLines),
			}
			res.Nodes = append(res.Nodes, class)

			for _, child := range sym.Children {
				if !callable(child.Kind) {
					continue
				}
				res.Nodes = append(res.Nodes, m.funcNode(res.Label, sym.Name, child, class.ID))
			}

		case provider.SymFunction, provider.SymMethod:
			res.Nodes = append(res.Nodes, m.funcNode(res.Label, "", sym, moduleID))
		}
	}
}

func callable(k provider.SymbolKind) bool {
	return k == provider.SymFunction || k == provider.SymMethod
}

// funcNode builds a func node. The qualified label is Class.name when the
// function is nested in a class.
func (m *Mapper) funcNode(fileLabel, className string, sym provider.Symbol, parentID string) Node {
	qualified := sym.Name
	if className != "" {
		qualified = className + "." + sym.Name
	}
	return Node{
		ID:       FuncID(fileLabel, qualified, sym.Range.Start.Line),
		Kind:     KindFunc,
		Label:    qualified,
		ParentID: parentID,
		Range:    toRange(sym.Range),
	}
}

// heuristicFill substitutes regex-detected module-level classes and
// functions when the provider returned zero symbols for a recognized
// scripting language. The fill is recorded as a diagnostic.
func (m *Mapper) heuristicFill(res *ParseResult, filePath string, text []byte) {
	lang := provider.DetectLanguage(filePath)
	if !lang.Scripted() {
		return
	}

	found := scanHeuristicSymbols(lang, m.stripper.Strip(text))
	if len(found) == 0 {
		return
	}

	moduleID := ModuleID(res.Label)
	for _, h := range found {
		switch h.Kind {
		case KindClass:
			res.Nodes = append(res.Nodes, Node{
				ID:         ClassID(res.Label, h.Name),
				Kind:       KindClass,
				Label:      h.Name,
				ParentID:   moduleID,
				Range:      Range{StartLine: h.Line, EndLine: h.Line},
				SourceText: snippetOf(text, h.Line, m.snippetLines),
			})
		case KindFunc:
			res.Nodes = append(res.Nodes, Node{
				ID:       FuncID(res.Label, h.Name, h.Line),
				Kind:     KindFunc,
				Label:    h.Name,
				ParentID: moduleID,
				Range:    Range{StartLine: h.Line, EndLine: h.Line},
			})
		}
	}

	res.Diagnostics = append(res.Diagnostics, Diagnostic{
		File:     filePath,
		Severity: SeverityInfo,
		Message:  fmt.Sprintf("provider returned no symbols; heuristic scan filled %d", len(found)),
	})
}

// mapSameFileCalls asks the provider for outgoing calls from each function's
// declaration position and emits call edges whose targets land in the same
// file. No lexical call scanning happens here: when the provider lacks the
// capability, same-file call edges are simply absent and the module is
// marked so consumers can tell a capability gap from an assertion of zero
// calls.
func (m *Mapper) mapSameFileCalls(ctx context.Context, res *ParseResult) {
	module := res.ModuleNode()
	module.HeuristicCalls = false

	funcs := res.FuncNodes()
	if len(funcs) == 0 {
		return
	}

	seen := make(map[string]bool)
	for _, fn := range funcs {
		calls, err := m.outgoingCalls(ctx, res.FilePath, fn)
		if errors.Is(err, provider.ErrUnsupported) {
			return
		}
		if err != nil {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				File:     res.FilePath,
				Severity: SeverityWarn,
				Message:  fmt.Sprintf("outgoing calls for %s: %v", fn.Label, err),
			})
			continue
		}

		for _, call := range calls {
			if RelLabel(m.root, call.TargetFile) != res.Label {
				continue // cross-file targets belong to the resolver
			}
			target := nearestFunc(funcs, call.TargetName, call.TargetRange.Start.Line)
			if target == nil || target.ID == fn.ID {
				continue
			}
			key := fn.ID + "→" + target.ID
			if seen[key] {
				continue
			}
			seen[key] = true
			res.Edges = append(res.Edges, Edge{
				From:       fn.ID,
				To:         target.ID,
				Type:       EdgeCall,
				Provenance: ProvHierarchy,
				Confidence: 1,
			})
		}
	}
}

// outgoingCalls runs the two-step call-hierarchy query under a bounded
// deadline.
func (m *Mapper) outgoingCalls(ctx context.Context, filePath string, fn Node) ([]provider.OutgoingCall, error) {
	qctx, cancel := context.WithTimeout(ctx, m.callTimeout)
	defer cancel()

	site, err := m.client.PrepareCallSite(qctx, filePath, provider.Position{
		Line: fn.Range.StartLine,
		Col:  fn.Range.StartCol,
	})
	if err != nil {
		return nil, err
	}
	if site == nil {
		return nil, nil
	}
	return m.client.OutgoingCalls(qctx, site)
}

// nearestFunc picks the func node matching the simple name whose declaration
// line is closest to the reported line. Ties break toward the lower line so
// resolution is deterministic.
func nearestFunc(funcs []Node, simpleName string, line int) *Node {
	var best *Node
	bestDist := -1
	for i := range funcs {
		if funcs[i].SimpleName() != simpleName {
			continue
		}
		dist := funcs[i].Range.StartLine - line
		if dist < 0 {
			dist = -dist
		}
		if best == nil || dist < bestDist ||
			(dist == bestDist && funcs[i].Range.StartLine < best.Range.StartLine) {
			best = &funcs[i]
			bestDist = dist
		}
	}
	return best
}

// toRange converts a provider range to a graph range.
func toRange(r provider.Range) Range {
	return Range{
		StartLine: r.Start.Line,
		StartCol:  r.Start.Col,
		EndLine:   r.End.Line,
		EndCol:    r.End.Col,
	}
}
