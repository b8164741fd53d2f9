// codegraph builds a structural graph of a codebase: modules, classes, and
// functions connected by import and call edges. Symbols come from an external
// provider or the built-in tree-sitter extractor, with text heuristics as the
// last tier.
package main

import (
	"os"

	"github.com/mapstone/codegraph/cmd/codegraph/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
