package ts

import (
	"fmt"
	"regexp"

	sitter "github.com/tree-sitter/go-tree-sitter"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// Parser parses TypeScript declaration sources into statement lists.
type Parser struct {
	language *sitter.Language
}

// NewParser creates a parser using the TypeScript grammar.
func NewParser() *Parser {
	return &Parser{
		language: sitter.NewLanguage(typescript.LanguageTypescript()),
	}
}

// SourceFile is one parsed module. It owns the tree-sitter tree for the
// lifetime of the bundling run; statement handles reference into it and are
// only valid until Close.
type SourceFile struct {
	Path       string
	Source     []byte
	Statements []*Statement

	// ReferenceTypes holds library tags from `/// <reference types="x" />`
	// directives, in order of appearance.
	ReferenceTypes []string

	tree *sitter.Tree
}

var referenceTypesRe = regexp.MustCompile(`(?m)^\s*///\s*<reference\s+types="([^"]+)"\s*/>`)

// Parse parses source text into a SourceFile with extracted statements.
func (p *Parser) Parse(path string, source []byte) (*SourceFile, error) {
	parser := sitter.NewParser()
	defer parser.Close()

	parser.SetLanguage(p.language)

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse %s", path)
	}

	file := &SourceFile{
		Path:   path,
		Source: source,
		tree:   tree,
	}
	file.extractStatements(tree.RootNode())
	for _, match := range referenceTypesRe.FindAllSubmatch(source, -1) {
		file.ReferenceTypes = append(file.ReferenceTypes, string(match[1]))
	}
	return file, nil
}

// Close releases the underlying tree. Statement handles must not be used
// afterwards.
func (f *SourceFile) Close() {
	if f.tree != nil {
		f.tree.Close()
		f.tree = nil
	}
}

// text returns the source text of a node.
func (f *SourceFile) text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(f.Source[node.StartByte():node.EndByte()])
}

// walkTree recursively walks a subtree, calling the visitor for each node.
// Returning false from the visitor skips the node's children.
func walkTree(node *sitter.Node, visitor func(*sitter.Node) bool) {
	if node == nil {
		return
	}

	if !visitor(node) {
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		walkTree(node.Child(uint(i)), visitor)
	}
}

// sameNode reports whether two node handles refer to the same syntax node.
// Handles are reallocated on every accessor call, so identity is compared by
// span instead of pointer.
func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte()
}

// firstChildOfKind returns the first direct child with the given kind.
func firstChildOfKind(node *sitter.Node, kind string) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child.Kind() == kind {
			return child
		}
	}
	return nil
}

// hasChildToken reports whether node has a direct anonymous child token with
// the given text kind (e.g. "default", "const", "type").
func hasChildToken(node *sitter.Node, kind string) bool {
	return firstChildOfKind(node, kind) != nil
}

// stringValue extracts the unquoted value of a string literal node.
func (f *SourceFile) stringValue(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	if frag := firstChildOfKind(node, "string_fragment"); frag != nil {
		return f.text(frag)
	}
	// Empty string literal has no fragment child.
	return ""
}
