package graph

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/mapstone/codegraph/internal/provider"
)

// ImportMode controls which import specifiers become edges.
type ImportMode string

const (
	ImportsRelative ImportMode = "relative" // only path-relative imports (default)
	ImportsAll      ImportMode = "all"      // also bare/package imports
	ImportsOff      ImportMode = "off"
)

// ParseImportMode maps a config string to an ImportMode, defaulting to
// relative on unknown input.
func ParseImportMode(s string) ImportMode {
	switch ImportMode(strings.ToLower(s)) {
	case ImportsAll:
		return ImportsAll
	case ImportsOff:
		return ImportsOff
	default:
		return ImportsRelative
	}
}

// Stripper blanks out comment and string content while preserving line
// structure, so downstream regex scans do not fire on text inside literals
// and reported line numbers stay valid. Implementations are pure text-to-text
// transforms; alternative strip strategies can be swapped per language
// without touching callers.
type Stripper interface {
	Strip(text []byte) []byte
}

// codeStripper is the default Stripper. It handles //, /* */, and #
// comments, single/double/backtick strings, and Python triple quotes. It is
// best effort: ambiguous constructs degrade to leaving text in place rather
// than corrupting line numbers.
type codeStripper struct{}

// NewStripper returns the default comment/string stripper.
func NewStripper() Stripper {
	return codeStripper{}
}

func (codeStripper) Strip(text []byte) []byte {
	out := make([]byte, len(text))
	copy(out, text)

	const (
		stCode = iota
		stLineComment
		stBlockComment
		stString
	)

	state := stCode
	var quote byte    // active string delimiter
	triple := false   // active delimiter is a python triple quote
	keepQuote := func(i int) { out[i] = text[i] }

	for i := 0; i < len(text); i++ {
		c := text[i]

		switch state {
		case stCode:
			switch {
			case c == '/' && i+1 < len(text) && text[i+1] == '/':
				state = stLineComment
				out[i] = ' '
			case c == '/' && i+1 < len(text) && text[i+1] == '*':
				state = stBlockComment
				out[i] = ' '
			case c == '#':
				state = stLineComment
				out[i] = ' '
			case c == '\'' || c == '"' || c == '`':
				state = stString
				quote = c
				triple = false
				if c != '`' && i+2 < len(text) && text[i+1] == c && text[i+2] == c {
					triple = true
					keepQuote(i)
					keepQuote(i + 1)
					keepQuote(i + 2)
					i += 2
					continue
				}
				keepQuote(i)
			}

		case stLineComment:
			if c == '\n' {
				state = stCode
			} else {
				out[i] = ' '
			}

		case stBlockComment:
			if c == '*' && i+1 < len(text) && text[i+1] == '/' {
				out[i] = ' '
				out[i+1] = ' '
				i++
				state = stCode
			} else if c != '\n' {
				out[i] = ' '
			}

		case stString:
			switch {
			case c == '\\' && !triple:
				if i+1 < len(text) && text[i+1] != '\n' {
					out[i] = ' '
					out[i+1] = ' '
					i++
				}
			case triple && c == quote && i+2 < len(text) && text[i+1] == quote && text[i+2] == quote:
				keepQuote(i)
				keepQuote(i + 1)
				keepQuote(i + 2)
				i += 2
				state = stCode
			case !triple && c == quote:
				keepQuote(i)
				state = stCode
			case c == '\n' && !triple && quote != '`':
				// Unterminated single-line string; bail out of it.
				state = stCode
			case c != '\n':
				out[i] = ' '
			}
		}
	}

	return out
}

// Import scan patterns. The specifier ends up in capture group 1; the quoted
// content survives stripping because Strip keeps import lines intact only in
// code position; specifiers themselves are re-read from the original text.
var (
	reJSImport     = regexp.MustCompile(`(?m)^\s*import\s+(?:type\s+)?(?:[\w$]+|\*\s+as\s+[\w$]+|\{[^}]*\}|[\w$]+\s*,\s*\{[^}]*\})\s+from\s+['"]([^'"]+)['"]`)
	reJSSideEffect = regexp.MustCompile(`(?m)^\s*import\s+['"]([^'"]+)['"]`)
	reJSExportFrom = regexp.MustCompile(`(?m)^\s*export\s+(?:\*|\{[^}]*\})\s+from\s+['"]([^'"]+)['"]`)
	reJSRequire    = regexp.MustCompile(`\brequire\(\s*['"]([^'"]+)['"]\s*\)`)

	rePyFrom   = regexp.MustCompile(`(?m)^\s*from\s+([.\w]+)\s+import\b`)
	rePyImport = regexp.MustCompile(`(?m)^\s*import\s+([\w.]+(?:\s*,\s*[\w.]+)*)\s*$`)

	reRubyRequireRel = regexp.MustCompile(`(?m)^\s*require_relative\s+['"]([^'"]+)['"]`)
	reRubyRequire    = regexp.MustCompile(`(?m)^\s*require\s+['"]([^'"]+)['"]`)

	reGoImportLine  = regexp.MustCompile(`(?m)^\s*import\s+(?:\w+\s+)?"([^"]+)"`)
	reGoImportSpec  = regexp.MustCompile(`(?m)^\s*(?:\w+\s+|\.\s+|_\s+)?"([^"]+)"`)
	reGoImportBlock = regexp.MustCompile(`(?ms)^import\s*\((.*?)\)`)
)

// importSpec is one scanned specifier plus whether it is path-relative.
type importSpec struct {
	raw      string
	relative bool
}

// ScanImports performs the lexical import scan for one file. It strips
// comments and strings first, gathers language-appropriate specifiers,
// applies the mode filter, and resolves each target into a canonical module
// label relative to the importing file's directory. Returned edges originate
// from the file's module id; targets holds the distinct resolved labels so
// the caller can synthesize ghost modules.
func ScanImports(label, filePath string, text []byte, mode ImportMode, stripper Stripper) (edges []Edge, targets []string) {
	if mode == ImportsOff {
		return nil, nil
	}

	stripped := stripper.Strip(text)
	lang := provider.DetectLanguage(filePath)
	specs := scanSpecs(lang, text, stripped)

	seen := make(map[string]bool)
	for _, spec := range specs {
		if mode == ImportsRelative && !spec.relative {
			continue
		}

		target := resolveTarget(label, lang, spec)
		if target == "" || target == label || seen[target] {
			continue
		}
		seen[target] = true

		edges = append(edges, Edge{
			From:       ModuleID(label),
			To:         ModuleID(target),
			Type:       EdgeImport,
			Provenance: ProvHeuristic,
			Confidence: 0.9,
		})
		targets = append(targets, target)
	}

	return edges, targets
}

// scanSpecs gathers raw import specifiers for the detected language. The
// stripped text drives statement matching; specifier content is read from
// the original bytes at the same offsets since stripping blanks string
// interiors.
func scanSpecs(lang provider.Language, text, stripped []byte) []importSpec {
	var specs []importSpec

	capture := func(re *regexp.Regexp, relative func(string) bool) {
		for _, m := range re.FindAllSubmatchIndex(stripped, -1) {
			if m[2] < 0 {
				continue
			}
			raw := string(text[m[2]:m[3]])
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			specs = append(specs, importSpec{raw: raw, relative: relative(raw)})
		}
	}

	pathRel := func(s string) bool {
		return strings.HasPrefix(s, "./") || strings.HasPrefix(s, "../")
	}

	switch lang {
	case provider.LangTypeScript, provider.LangJavaScript:
		capture(reJSImport, pathRel)
		capture(reJSSideEffect, pathRel)
		capture(reJSExportFrom, pathRel)
		capture(reJSRequire, pathRel)

	case provider.LangPython:
		capture(rePyFrom, func(s string) bool { return strings.HasPrefix(s, ".") })
		for _, m := range rePyImport.FindAllSubmatchIndex(stripped, -1) {
			list := string(text[m[2]:m[3]])
			for _, part := range strings.Split(list, ",") {
				part = strings.TrimSpace(part)
				if part != "" {
					specs = append(specs, importSpec{raw: part, relative: false})
				}
			}
		}

	case provider.LangRuby:
		capture(reRubyRequireRel, func(string) bool { return true })
		capture(reRubyRequire, pathRel)

	case provider.LangGo:
		capture(reGoImportLine, func(string) bool { return false })
		for _, block := range reGoImportBlock.FindAllSubmatchIndex(stripped, -1) {
			inner := stripped[block[2]:block[3]]
			innerOrig := text[block[2]:block[3]]
			for _, m := range reGoImportSpec.FindAllSubmatchIndex(inner, -1) {
				raw := strings.TrimSpace(string(innerOrig[m[2]:m[3]]))
				if raw != "" {
					specs = append(specs, importSpec{raw: raw, relative: false})
				}
			}
		}

	default:
		// Unknown language: try the JS-style patterns, which cover the
		// common quoted-specifier shape.
		capture(reJSImport, pathRel)
		capture(reJSSideEffect, pathRel)
		capture(reJSRequire, pathRel)
	}

	return specs
}

// resolveTarget turns a raw specifier into a canonical module label. Relative
// specifiers resolve against the importing file's directory; bare specifiers
// are used as-is with separators normalized.
func resolveTarget(label string, lang provider.Language, spec importSpec) string {
	if lang == provider.LangPython {
		return resolvePythonTarget(label, spec.raw)
	}

	if spec.relative {
		return NormalizeLabel(path.Join(path.Dir(label), spec.raw))
	}
	return NormalizeLabel(strings.ReplaceAll(spec.raw, "\\", "/"))
}

// resolvePythonTarget handles dotted python module paths. One leading dot is
// the file's own package, each further dot walks one directory up.
func resolvePythonTarget(label, raw string) string {
	if !strings.HasPrefix(raw, ".") {
		return NormalizeLabel(strings.ReplaceAll(raw, ".", "/"))
	}

	dots := 0
	for dots < len(raw) && raw[dots] == '.' {
		dots++
	}
	modulePart := raw[dots:]

	baseDir := path.Dir(label)
	for i := 1; i < dots; i++ {
		baseDir = path.Dir(baseDir)
	}

	if modulePart == "" {
		return NormalizeLabel(path.Join(baseDir, "__init__"))
	}
	return NormalizeLabel(path.Join(baseDir, strings.ReplaceAll(modulePart, ".", "/")))
}

// GhostNodesFor builds ghost modules for import targets, skipping the
// importing file itself.
func GhostNodesFor(label string, targets []string) []Node {
	var ghosts []Node
	for _, t := range targets {
		if t == label {
			continue
		}
		ghosts = append(ghosts, NewGhostModule(t))
	}
	return ghosts
}

// lineOf converts a byte offset into a zero-based line number.
func lineOf(text []byte, offset int) int {
	line := 0
	for i := 0; i < offset && i < len(text); i++ {
		if text[i] == '\n' {
			line++
		}
	}
	return line
}

// snippetOf returns up to maxLines lines of text starting at the zero-based
// startLine, for UI preview of a class body.
func snippetOf(text []byte, startLine, maxLines int) string {
	lines := strings.Split(string(text), "\n")
	if startLine >= len(lines) || maxLines <= 0 {
		return ""
	}
	end := startLine + maxLines
	if end > len(lines) {
		end = len(lines)
	}
	snippet := strings.Join(lines[startLine:end], "\n")
	if end < len(lines) {
		snippet += fmt.Sprintf("\n… (+%d lines)", len(lines)-end)
	}
	return snippet
}
