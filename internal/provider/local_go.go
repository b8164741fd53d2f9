package provider

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// goSymbols extracts symbols from Go source. It emits a flat list with
// container hints: methods name their receiver type, the way flat symbol
// providers report containment.
type goSymbols struct{}

func (e *goSymbols) extract(root *tree_sitter.Node, source []byte) []Symbol {
	var symbols []Symbol

	cursor := root.Walk()
	defer cursor.Close()

	e.walk(cursor, source, &symbols)
	return symbols
}

func (e *goSymbols) walk(cursor *tree_sitter.TreeCursor, source []byte, symbols *[]Symbol) {
	node := cursor.Node()

	switch node.Kind() {
	case "function_declaration":
		if sym := namedSymbol(node, source, SymFunction); sym != nil {
			*symbols = append(*symbols, *sym)
		}

	case "method_declaration":
		if sym := namedSymbol(node, source, SymMethod); sym != nil {
			sym.Container = goReceiverType(node, source)
			*symbols = append(*symbols, *sym)
		}

	case "type_declaration":
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child == nil || child.Kind() != "type_spec" {
				continue
			}
			nameNode := child.ChildByFieldName("name")
			typeNode := child.ChildByFieldName("type")
			if nameNode == nil || typeNode == nil {
				continue
			}
			kind := SymOther
			switch typeNode.Kind() {
			case "struct_type":
				kind = SymClass
			case "interface_type":
				kind = SymInterface
			}
			if kind == SymOther {
				continue
			}
			*symbols = append(*symbols, Symbol{
				Name:  nameNode.Utf8Text(source),
				Kind:  kind,
				Range: nodeRange(child),
			})
		}
	}

	if cursor.GotoFirstChild() {
		e.walk(cursor, source, symbols)
		for cursor.GotoNextSibling() {
			e.walk(cursor, source, symbols)
		}
		cursor.GotoParent()
	}
}

// goReceiverType extracts the receiver type name from a method_declaration,
// stripping any pointer star.
func goReceiverType(node *tree_sitter.Node, source []byte) string {
	recv := node.ChildByFieldName("receiver")
	if recv == nil {
		return ""
	}
	for i := uint(0); i < recv.ChildCount(); i++ {
		child := recv.Child(i)
		if child == nil || child.Kind() != "parameter_declaration" {
			continue
		}
		typeNode := child.ChildByFieldName("type")
		if typeNode == nil {
			continue
		}
		if typeNode.Kind() == "pointer_type" {
			if inner := typeNode.Child(1); inner != nil {
				return inner.Utf8Text(source)
			}
		}
		return typeNode.Utf8Text(source)
	}
	return ""
}

// namedSymbol builds a Symbol from a node with a "name" field.
func namedSymbol(node *tree_sitter.Node, source []byte, kind SymbolKind) *Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	return &Symbol{
		Name:  nameNode.Utf8Text(source),
		Kind:  kind,
		Range: nodeRange(node),
	}
}
