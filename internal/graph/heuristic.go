package graph

import (
	"regexp"

	"github.com/mapstone/codegraph/internal/provider"
)

// heuristicSymbol is a module-level class or function found by regex scan.
// It is a degraded substitute used only when the symbol provider answers
// with zero symbols for a recognized scripting language.
type heuristicSymbol struct {
	Name string
	Kind NodeKind // KindClass or KindFunc
	Line int      // zero-based declaration line
}

// heuristicPatterns holds the class/def detection regexes for one language.
// Each regex captures the symbol name in group 1.
type heuristicPatterns struct {
	classes []*regexp.Regexp
	funcs   []*regexp.Regexp
}

var langHeuristics = map[provider.Language]heuristicPatterns{
	provider.LangPython: {
		classes: []*regexp.Regexp{
			regexp.MustCompile(`(?m)^class\s+(\w+)`),
		},
		funcs: []*regexp.Regexp{
			regexp.MustCompile(`(?m)^(?:async\s+)?def\s+(\w+)`),
		},
	},
	provider.LangTypeScript: jsHeuristics,
	provider.LangJavaScript: jsHeuristics,
	provider.LangRuby: {
		classes: []*regexp.Regexp{
			regexp.MustCompile(`(?m)^\s*(?:class|module)\s+(\w+)`),
		},
		funcs: []*regexp.Regexp{
			regexp.MustCompile(`(?m)^\s*def\s+(?:self\.)?(\w+)`),
		},
	},
}

var jsHeuristics = heuristicPatterns{
	classes: []*regexp.Regexp{
		regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+(\w+)`),
	},
	funcs: []*regexp.Regexp{
		regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s+(\w+)`),
		regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:const|let|var)\s+(\w+)\s*=\s*(?:async\s*)?(?:\([^)]*\)|\w+)\s*=>`),
	},
}

// scanHeuristicSymbols runs the language's class/def regexes over stripped
// text. Names are deduplicated (first declaration wins) so the caller gets
// stable ids.
func scanHeuristicSymbols(lang provider.Language, stripped []byte) []heuristicSymbol {
	pats, ok := langHeuristics[lang]
	if !ok {
		return nil
	}

	var out []heuristicSymbol
	seen := make(map[string]bool)

	collect := func(res []*regexp.Regexp, kind NodeKind) {
		for _, re := range res {
			for _, m := range re.FindAllSubmatchIndex(stripped, -1) {
				if m[2] < 0 {
					continue
				}
				name := string(stripped[m[2]:m[3]])
				if seen[kind.keyFor(name)] {
					continue
				}
				seen[kind.keyFor(name)] = true
				out = append(out, heuristicSymbol{
					Name: name,
					Kind: kind,
					Line: lineOf(stripped, m[0]),
				})
			}
		}
	}

	collect(pats.classes, KindClass)
	collect(pats.funcs, KindFunc)
	return out
}

func (k NodeKind) keyFor(name string) string {
	return string(k) + ":" + name
}
