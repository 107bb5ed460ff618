package ts

import sitter "github.com/tree-sitter/go-tree-sitter"

// Ref is one free identifier reference found in a declaration subtree.
type Ref struct {
	Name string
	// Qualified marks the head of a qualified name (A in A.B.C); the
	// tail segments are member selections, never free references.
	Qualified bool
}

// References collects the free identifier references in a declaration's
// subtree, including heritage clauses. Type parameters declared inside the
// subtree shadow outer names and are excluded.
func (d *DeclInfo) References() []Ref {
	shadowed := collectTypeParameters(d.Node, d.File)
	shadowed[d.Name] = struct{}{}

	var refs []Ref
	seen := make(map[Ref]struct{})
	add := func(name string, qualified bool) {
		if name == "" {
			return
		}
		if _, ok := shadowed[name]; ok {
			return
		}
		r := Ref{Name: name, Qualified: qualified}
		if _, ok := seen[r]; ok {
			return
		}
		seen[r] = struct{}{}
		refs = append(refs, r)
	}

	walkTree(d.Node, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "nested_type_identifier", "nested_identifier":
			add(d.File.text(leftmostIdentifier(n)), true)
			return false
		case "member_expression":
			if head := leftmostIdentifier(n); head != nil {
				add(d.File.text(head), true)
				return false
			}
			return true
		case "type_identifier":
			if !isDeclarationName(n) {
				add(d.File.text(n), false)
			}
			return true
		case "identifier":
			if isValueReference(n) {
				add(d.File.text(n), false)
			}
			return true
		}
		return true
	})
	return refs
}

// collectTypeParameters gathers type parameter names declared anywhere in
// the subtree.
func collectTypeParameters(node *sitter.Node, file *SourceFile) map[string]struct{} {
	params := make(map[string]struct{})
	walkTree(node, func(n *sitter.Node) bool {
		if n.Kind() == "type_parameter" {
			if name := n.ChildByFieldName("name"); name != nil {
				params[file.text(name)] = struct{}{}
			}
		}
		// Infer-style type variables also introduce local names.
		if n.Kind() == "infer_type" {
			if id := firstChildOfKind(n, "type_identifier"); id != nil {
				params[file.text(id)] = struct{}{}
			}
		}
		return true
	})
	return params
}

// leftmostIdentifier returns the deepest-left identifier of a qualified
// name or member chain.
func leftmostIdentifier(node *sitter.Node) *sitter.Node {
	for node != nil {
		switch node.Kind() {
		case "identifier", "type_identifier":
			return node
		}
		if node.ChildCount() == 0 {
			return nil
		}
		node = node.Child(0)
	}
	return nil
}

// isDeclarationName reports whether a type_identifier node is the declared
// name of its parent rather than a reference to another type.
func isDeclarationName(n *sitter.Node) bool {
	parent := n.Parent()
	if parent == nil {
		return false
	}
	switch parent.Kind() {
	case "interface_declaration", "type_alias_declaration", "class_declaration",
		"abstract_class_declaration", "enum_declaration", "type_parameter",
		"internal_module", "module", "infer_type":
		return sameNode(parent.ChildByFieldName("name"), n) || parent.Kind() == "infer_type"
	}
	return false
}

// isValueReference reports whether a plain identifier occurs in a position
// that references a value or type in the enclosing scope, as opposed to
// introducing a binding or naming a property.
func isValueReference(n *sitter.Node) bool {
	parent := n.Parent()
	if parent == nil {
		return false
	}
	switch parent.Kind() {
	case "extends_clause", "implements_clause", "extends_type_clause":
		return true
	case "type_query":
		// typeof X
		return true
	case "export_statement":
		return false // export clauses are handled as export records
	case "variable_declarator":
		return !sameNode(parent.ChildByFieldName("name"), n)
	case "new_expression", "call_expression":
		return sameNode(parent.ChildByFieldName("constructor"), n) ||
			sameNode(parent.ChildByFieldName("function"), n)
	case "binary_expression", "parenthesized_expression", "arguments",
		"array", "ternary_expression", "unary_expression",
		"enum_assignment":
		return !sameNode(parent.ChildByFieldName("name"), n)
	default:
		return false
	}
}
