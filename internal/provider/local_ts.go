package provider

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// tsSymbols extracts symbols from TypeScript source. Classes carry their
// methods as children; top-level functions and arrow-function bindings are
// reported at the root.
type tsSymbols struct{}

func (e *tsSymbols) extract(root *tree_sitter.Node, source []byte) []Symbol {
	var symbols []Symbol

	cursor := root.Walk()
	defer cursor.Close()

	e.walk(cursor, source, &symbols)
	return symbols
}

func (e *tsSymbols) walk(cursor *tree_sitter.TreeCursor, source []byte, symbols *[]Symbol) {
	node := cursor.Node()

	switch node.Kind() {
	case "function_declaration":
		if sym := namedSymbol(node, source, SymFunction); sym != nil {
			*symbols = append(*symbols, *sym)
		}

	case "class_declaration":
		if sym := e.extractClass(node, source); sym != nil {
			*symbols = append(*symbols, *sym)
		}
		// Methods are collected by extractClass; skip the subtree.
		return

	case "interface_declaration":
		if sym := namedSymbol(node, source, SymInterface); sym != nil {
			*symbols = append(*symbols, *sym)
		}

	case "lexical_declaration":
		*symbols = append(*symbols, e.extractArrowFunctions(node, source)...)
	}

	if cursor.GotoFirstChild() {
		e.walk(cursor, source, symbols)
		for cursor.GotoNextSibling() {
			e.walk(cursor, source, symbols)
		}
		cursor.GotoParent()
	}
}

func (e *tsSymbols) extractClass(node *tree_sitter.Node, source []byte) *Symbol {
	sym := namedSymbol(node, source, SymClass)
	if sym == nil {
		return nil
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return sym
	}
	for i := uint(0); i < body.ChildCount(); i++ {
		child := body.Child(i)
		if child == nil || child.Kind() != "method_definition" {
			continue
		}
		if m := namedSymbol(child, source, SymMethod); m != nil {
			sym.Children = append(sym.Children, *m)
		}
	}
	return sym
}

// extractArrowFunctions finds `const f = (...) => ...` bindings inside a
// lexical_declaration and reports them as functions.
func (e *tsSymbols) extractArrowFunctions(node *tree_sitter.Node, source []byte) []Symbol {
	var out []Symbol
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || child.Kind() != "variable_declarator" {
			continue
		}
		valueNode := child.ChildByFieldName("value")
		nameNode := child.ChildByFieldName("name")
		if valueNode == nil || nameNode == nil {
			continue
		}
		if valueNode.Kind() != "arrow_function" && valueNode.Kind() != "function_expression" {
			continue
		}
		out = append(out, Symbol{
			Name:  nameNode.Utf8Text(source),
			Kind:  SymFunction,
			Range: nodeRange(child),
		})
	}
	return out
}
