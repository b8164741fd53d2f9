package provider

import (
	"context"
	"fmt"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// Compile-time interface check.
var _ Client = (*Local)(nil)

// symbolExtractor walks a parsed syntax tree and emits provider symbols.
type symbolExtractor interface {
	extract(root *tree_sitter.Node, source []byte) []Symbol
}

// Local is an in-process symbol provider backed by tree-sitter grammars. It
// answers DocumentSymbols for Go, TypeScript, Python, and Rust, and reports
// ErrUnsupported for call-hierarchy queries: call edges require a real
// code-intelligence service, and a syntax-only guess would produce the false
// positives the pipeline exists to avoid.
type Local struct {
	languages  map[Language]*tree_sitter.Language
	extractors map[Language]symbolExtractor
}

// NewLocal creates a Local provider with all bundled grammars registered.
func NewLocal() *Local {
	langs := map[Language]*tree_sitter.Language{
		LangGo:         tree_sitter.NewLanguage(tree_sitter_go.Language()),
		LangTypeScript: tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
		LangPython:     tree_sitter.NewLanguage(tree_sitter_python.Language()),
		LangRust:       tree_sitter.NewLanguage(tree_sitter_rust.Language()),
	}

	extractors := map[Language]symbolExtractor{
		LangGo:         &goSymbols{},
		LangTypeScript: &tsSymbols{},
		LangPython:     &pySymbols{},
		LangRust:       &rsSymbols{},
	}

	return &Local{
		languages:  langs,
		extractors: extractors,
	}
}

// DocumentSymbols parses the file with the matching grammar and extracts
// symbols. Unrecognized languages return an empty result, not an error, so
// the caller degrades the same way it would for a thin remote provider.
func (l *Local) DocumentSymbols(_ context.Context, file string, text []byte) ([]Symbol, error) {
	lang := DetectLanguage(file)
	tsLang, ok := l.languages[lang]
	if !ok {
		return nil, nil
	}
	ext := l.extractors[lang]

	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(tsLang); err != nil {
		return nil, fmt.Errorf("provider: set language %s: %w", lang, err)
	}

	tree := parser.Parse(text, nil)
	if tree == nil {
		return nil, fmt.Errorf("provider: nil tree for %s", file)
	}
	defer tree.Close()

	return ext.extract(tree.RootNode(), text), nil
}

// PrepareCallSite is not supported by the local provider.
func (l *Local) PrepareCallSite(_ context.Context, _ string, _ Position) (*CallSite, error) {
	return nil, ErrUnsupported
}

// OutgoingCalls is not supported by the local provider.
func (l *Local) OutgoingCalls(_ context.Context, _ *CallSite) ([]OutgoingCall, error) {
	return nil, ErrUnsupported
}

// nodeRange converts tree-sitter positions to a provider Range.
func nodeRange(node *tree_sitter.Node) Range {
	start := node.StartPosition()
	end := node.EndPosition()
	return Range{
		Start: Position{Line: int(start.Row), Col: int(start.Column)},
		End:   Position{Line: int(end.Row), Col: int(end.Column)},
	}
}
