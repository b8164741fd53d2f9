package provider

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// rsSymbols extracts symbols from Rust source. Structs and enums become
// classes; functions inside impl blocks are reported flat with the impl
// target as their container hint.
type rsSymbols struct{}

func (e *rsSymbols) extract(root *tree_sitter.Node, source []byte) []Symbol {
	var symbols []Symbol

	cursor := root.Walk()
	defer cursor.Close()

	e.walk(cursor, source, "", &symbols)
	return symbols
}

func (e *rsSymbols) walk(cursor *tree_sitter.TreeCursor, source []byte, container string, symbols *[]Symbol) {
	node := cursor.Node()

	switch node.Kind() {
	case "function_item":
		kind := SymFunction
		if container != "" {
			kind = SymMethod
		}
		if sym := namedSymbol(node, source, kind); sym != nil {
			sym.Container = container
			*symbols = append(*symbols, *sym)
		}

	case "struct_item", "enum_item":
		if sym := namedSymbol(node, source, SymClass); sym != nil {
			*symbols = append(*symbols, *sym)
		}

	case "trait_item":
		if sym := namedSymbol(node, source, SymInterface); sym != nil {
			*symbols = append(*symbols, *sym)
		}

	case "impl_item":
		target := ""
		if typeNode := node.ChildByFieldName("type"); typeNode != nil {
			target = typeNode.Utf8Text(source)
		}
		if cursor.GotoFirstChild() {
			e.walk(cursor, source, target, symbols)
			for cursor.GotoNextSibling() {
				e.walk(cursor, source, target, symbols)
			}
			cursor.GotoParent()
		}
		return
	}

	if cursor.GotoFirstChild() {
		e.walk(cursor, source, container, symbols)
		for cursor.GotoNextSibling() {
			e.walk(cursor, source, container, symbols)
		}
		cursor.GotoParent()
	}
}
