package provider

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
)

// ErrUnsupported is returned when the provider does not implement a
// capability for the requested language. Callers must treat it as a normal
// outcome, not a failure.
var ErrUnsupported = errors.New("provider: capability not supported")

// SymbolKind classifies a provider symbol. The set mirrors what
// code-intelligence services commonly report; unknown kinds pass through.
type SymbolKind string

const (
	SymClass     SymbolKind = "class"
	SymFunction  SymbolKind = "function"
	SymMethod    SymbolKind = "method"
	SymInterface SymbolKind = "interface"
	SymVariable  SymbolKind = "variable"
	SymOther     SymbolKind = "other"
)

// Position is a zero-based line/column location in a document.
type Position struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

// Range spans from Start to End, inclusive.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Symbol is one entry of a document symbol response. Hierarchical responses
// populate Children; flat responses leave Children empty and may carry a
// Container hint naming the enclosing symbol.
type Symbol struct {
	Name      string     `json:"name"`
	Kind      SymbolKind `json:"kind"`
	Container string     `json:"container,omitempty"`
	Range     Range      `json:"range"`
	Children  []Symbol   `json:"children,omitempty"`
}

// CallSite is an opaque handle for call-hierarchy queries, prepared at a
// function's declaration position.
type CallSite struct {
	File   string `json:"file"`
	Pos    Position `json:"pos"`
	Handle string `json:"handle,omitempty"` // provider-assigned token, opaque
}

// OutgoingCall is one call target reported by the provider.
type OutgoingCall struct {
	TargetFile  string `json:"targetFile"`
	TargetName  string `json:"targetName"`
	TargetRange Range  `json:"targetRange"`
}

// Client is the interface to an external, per-language code-intelligence
// service. All methods may fail, return empty, or be unimplemented for a
// given language; every call site must tolerate all three.
type Client interface {
	// DocumentSymbols returns the symbol tree (or flat list) for a file.
	// An empty slice with a nil error means the provider answered but found
	// nothing.
	DocumentSymbols(ctx context.Context, file string, text []byte) ([]Symbol, error)

	// PrepareCallSite resolves a declaration position into a call-hierarchy
	// handle. Returns (nil, nil) when the position has no callable, or
	// ErrUnsupported when the capability is absent.
	PrepareCallSite(ctx context.Context, file string, pos Position) (*CallSite, error)

	// OutgoingCalls lists calls made from the prepared site.
	OutgoingCalls(ctx context.Context, site *CallSite) ([]OutgoingCall, error)
}

// Language identifies a source language for local extraction and heuristics.
type Language string

const (
	LangGo         Language = "go"
	LangTypeScript Language = "typescript"
	LangJavaScript Language = "javascript"
	LangPython     Language = "python"
	LangRust       Language = "rust"
	LangRuby       Language = "ruby"
	LangUnknown    Language = ""
)

var extToLanguage = map[string]Language{
	".go":  LangGo,
	".ts":  LangTypeScript,
	".tsx": LangTypeScript,
	".js":  LangJavaScript,
	".jsx": LangJavaScript,
	".mjs": LangJavaScript,
	".cjs": LangJavaScript,
	".py":  LangPython,
	".rs":  LangRust,
	".rb":  LangRuby,
}

// DetectLanguage maps a file path to a Language by extension.
func DetectLanguage(file string) Language {
	return extToLanguage[strings.ToLower(filepath.Ext(file))]
}

// Scripted reports whether the language is a scripting language eligible for
// regex-based symbol fill when the provider returns nothing.
func (l Language) Scripted() bool {
	switch l {
	case LangPython, LangTypeScript, LangJavaScript, LangRuby:
		return true
	}
	return false
}
