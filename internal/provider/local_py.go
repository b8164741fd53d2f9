package provider

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// pySymbols extracts symbols from Python source. It emits a hierarchical
// tree: methods appear as children of their class symbol.
type pySymbols struct{}

func (e *pySymbols) extract(root *tree_sitter.Node, source []byte) []Symbol {
	return e.block(root, source)
}

// block collects definitions directly under the given node, descending
// through wrapper nodes (decorated definitions, plain blocks) but not into
// function bodies.
func (e *pySymbols) block(node *tree_sitter.Node, source []byte) []Symbol {
	var symbols []Symbol

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}

		target := child
		if target.Kind() == "decorated_definition" {
			if def := target.ChildByFieldName("definition"); def != nil {
				target = def
			}
		}

		switch target.Kind() {
		case "function_definition":
			if sym := namedSymbol(target, source, SymFunction); sym != nil {
				symbols = append(symbols, *sym)
			}

		case "class_definition":
			sym := namedSymbol(target, source, SymClass)
			if sym == nil {
				continue
			}
			if body := target.ChildByFieldName("body"); body != nil {
				for _, m := range e.block(body, source) {
					if m.Kind == SymFunction {
						m.Kind = SymMethod
					}
					sym.Children = append(sym.Children, m)
				}
			}
			symbols = append(symbols, *sym)

		case "if_statement", "try_statement", "with_statement":
			// Definitions guarded at module level still count.
			symbols = append(symbols, e.block(target, source)...)

		case "block":
			symbols = append(symbols, e.block(target, source)...)
		}
	}

	return symbols
}
