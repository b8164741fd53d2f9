package graph

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// --- Enums ---

// NodeKind classifies nodes in the structural code graph.
type NodeKind string

const (
	KindModule NodeKind = "module"
	KindClass  NodeKind = "class"
	KindFunc   NodeKind = "func"
)

// EdgeType classifies relationships between nodes.
type EdgeType string

const (
	EdgeImport EdgeType = "import"
	EdgeCall   EdgeType = "call"
)

// Provenance records how an edge was derived.
type Provenance string

const (
	ProvHierarchy Provenance = "hierarchy" // provider call-hierarchy query
	ProvRefs      Provenance = "refs"      // provider reference query
	ProvAST       Provenance = "ast"       // local syntax-tree extraction
	ProvLSP       Provenance = "lsp"       // other provider answer
	ProvHeuristic Provenance = "heuristic" // lexical text scan
)

// Status communicates how much of a file's extraction came from the
// symbol provider.
type Status string

const (
	StatusOK      Status = "ok"      // provider returned symbols and they were used
	StatusPartial Status = "partial" // provider returned nothing, heuristics filled in
	StatusNoLSP   Status = "nolsp"   // provider unavailable, module+import-only fallback
)

// Severity classifies a non-fatal diagnostic.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// --- Models ---

// Range is a zero-based source region.
type Range struct {
	StartLine int `json:"startLine"`
	StartCol  int `json:"startCol"`
	EndLine   int `json:"endLine"`
	EndCol    int `json:"endCol"`
}

// Node is one vertex of the code graph. Kind selects which optional fields
// are meaningful: modules carry FilePath/SourceText/Collapsed/LSPStatus/
// HeuristicCalls, classes and funcs carry ParentID and Range.
type Node struct {
	ID    string   `json:"id"`
	Kind  NodeKind `json:"kind"`
	Label string   `json:"label"`

	// Module fields.
	FilePath       string `json:"filePath,omitempty"`
	SourceText     string `json:"sourceText,omitempty"`
	Collapsed      bool   `json:"collapsed,omitempty"`
	LSPStatus      Status `json:"lspStatus,omitempty"`
	HeuristicCalls bool   `json:"heuristicCalls,omitempty"`

	// Class and func fields.
	ParentID string `json:"parentId,omitempty"`
	Range    Range  `json:"range,omitempty"`
}

// Ghost reports whether the node is a placeholder module created only so an
// import edge has a renderable endpoint.
func (n Node) Ghost() bool {
	return n.Kind == KindModule && n.FilePath == ""
}

// SimpleName returns the unqualified name of a func node ("bar" for
// "Foo.bar"), or the label unchanged for other kinds.
func (n Node) SimpleName() string {
	if i := strings.LastIndex(n.Label, "."); i >= 0 {
		return n.Label[i+1:]
	}
	return n.Label
}

// Edge is a directed relationship between two nodes, annotated with how it
// was derived and how much it can be trusted.
type Edge struct {
	From       string     `json:"from"`
	To         string     `json:"to"`
	Type       EdgeType   `json:"type"`
	Provenance Provenance `json:"provenance"`
	Confidence float64    `json:"confidence"`
}

// Diagnostic is a non-fatal observation produced during extraction. It is
// surfaced to logs and batch summaries, never interrupting the pipeline.
type Diagnostic struct {
	File     string   `json:"file"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// ParseResult holds the graph fragment extracted from a single file. One is
// produced per parse call, stored in the ParseIndex keyed by module label,
// and replaced wholesale on re-parse.
type ParseResult struct {
	Label       string       `json:"label"` // canonical module label
	FilePath    string       `json:"filePath"`
	Nodes       []Node       `json:"nodes"`
	Edges       []Edge       `json:"edges"`
	Status      Status       `json:"status"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// ModuleNode returns the result's own module node, or nil when the fragment
// is malformed. Emission order guarantees it comes before ghost modules.
func (r *ParseResult) ModuleNode() *Node {
	for i := range r.Nodes {
		if r.Nodes[i].Kind == KindModule && r.Nodes[i].Label == r.Label {
			return &r.Nodes[i]
		}
	}
	return nil
}

// FuncNodes returns all func nodes of the fragment in emission order.
func (r *ParseResult) FuncNodes() []Node {
	var out []Node
	for _, n := range r.Nodes {
		if n.Kind == KindFunc {
			out = append(out, n)
		}
	}
	return out
}

// Delta is one additive graph update emitted to the downstream sink. Nodes
// and edges are unioned by id; deltas from concurrent batches commute.
type Delta struct {
	Nodes      []Node `json:"nodes,omitempty"`
	Edges      []Edge `json:"edges,omitempty"`
	BatchID    string `json:"batchId,omitempty"`
	EndOfBatch bool   `json:"endOfBatch,omitempty"`
}

// Empty reports whether the delta carries no content and no batch marker.
func (d Delta) Empty() bool {
	return len(d.Nodes) == 0 && len(d.Edges) == 0 && !d.EndOfBatch
}

// DeltaSink receives graph deltas from the import pipeline. Implementations
// must union nodes and edges by id; refusal is treated as a per-file failure.
type DeltaSink interface {
	Emit(delta Delta) error
}

// Stats summarizes a stored graph.
type Stats struct {
	Modules     int `json:"modules"`
	Classes     int `json:"classes"`
	Funcs       int `json:"funcs"`
	ImportEdges int `json:"importEdges"`
	CallEdges   int `json:"callEdges"`
}

// --- Identity ---

// sourceExtensions are stripped from import targets and module labels so the
// same logical module maps to one node id regardless of the importer.
var sourceExtensions = []string{
	".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs",
	".py", ".rb", ".go", ".rs", ".java", ".php", ".lua",
}

// NormalizeLabel canonicalizes a workspace-relative file path into a module
// label: slash-separated, cleaned, and stripped of its source extension.
// Node ids derived from it are stable across re-parses of unchanged regions.
func NormalizeLabel(rel string) string {
	label := path.Clean(strings.ReplaceAll(rel, "\\", "/"))
	label = strings.TrimPrefix(label, "./")
	for _, ext := range sourceExtensions {
		if strings.HasSuffix(label, ext) {
			return label[:len(label)-len(ext)]
		}
	}
	return label
}

// RelLabel canonicalizes a provider-reported file path that may be absolute.
// Absolute paths under root are made workspace-relative first; anything else
// passes through NormalizeLabel unchanged.
func RelLabel(root, file string) string {
	if root != "" && filepath.IsAbs(file) {
		if rel, err := filepath.Rel(root, file); err == nil && !strings.HasPrefix(rel, "..") {
			return NormalizeLabel(rel)
		}
	}
	return NormalizeLabel(file)
}

// ModuleID builds the id of a module node from its canonical label.
func ModuleID(label string) string {
	return "mod:" + label
}

// ClassID builds the id of a class node. Class names are unique per file
// after mapper deduplication.
func ClassID(fileLabel, className string) string {
	return "cls:" + fileLabel + "#" + className
}

// FuncID builds the id of a func node from its qualified name and
// declaration line. The line disambiguates same-named siblings and keeps the
// id independent of body content.
func FuncID(fileLabel, qualified string, line int) string {
	return fmt.Sprintf("fn:%s#%s@%d", fileLabel, qualified, line)
}

// NewModuleNode builds a module node for a real file.
func NewModuleNode(label, filePath string) Node {
	return Node{
		ID:       ModuleID(label),
		Kind:     KindModule,
		Label:    label,
		FilePath: filePath,
	}
}

// NewGhostModule builds a collapsed placeholder module for an import target
// that was never independently parsed.
func NewGhostModule(label string) Node {
	return Node{
		ID:        ModuleID(label),
		Kind:      KindModule,
		Label:     label,
		Collapsed: true,
	}
}
