package ts

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/declbundle/internal/registry"
)

// StatementKind classifies one top-level statement of a module.
type StatementKind string

const (
	StmtDeclaration StatementKind = "declaration"
	StmtImport      StatementKind = "import"
	StmtExport      StatementKind = "export"
	StmtOther       StatementKind = "other"
)

// Statement is one top-level statement with its extracted metadata.
type Statement struct {
	Kind   StatementKind
	Node   *sitter.Node
	Decls  []*DeclInfo
	Import *ImportRecord
	Export *ExportRecord
}

// DeclInfo describes one named declaration. For multi-declarator variable
// statements each declarator yields its own DeclInfo so that unused bindings
// can be shaken individually.
type DeclInfo struct {
	Name   string
	Kind   registry.DeclarationKind
	Export registry.ExportKind

	// Node is the bare declaration node with export/declare wrappers
	// stripped; for variables it is the single variable_declarator.
	Node *sitter.Node
	File *SourceFile

	VarKeyword    string // const, let, or var for KindVariable
	ConstEnum     bool
	Global        bool   // `declare global { ... }` block
	AmbientModule string // specifier for `declare module "x"`, "" otherwise
}

// TypeOnly reports whether the declaration exists purely in type space.
func (d *DeclInfo) TypeOnly() bool {
	return d.Kind == registry.KindInterface || d.Kind == registry.KindTypeAlias
}

// ImportedName is one name binding inside an import or export clause.
type ImportedName struct {
	Name     string // spelling in the source module
	Alias    string // local/published alias, "" when unaliased
	TypeOnly bool
}

// Local returns the binding's effective local spelling.
func (n ImportedName) Local() string {
	if n.Alias != "" {
		return n.Alias
	}
	return n.Name
}

// ImportRecord describes one import statement.
type ImportRecord struct {
	Module    string // specifier as written
	TypeOnly  bool   // `import type`
	Default   string // local name of the default import, "" if none
	Namespace string // local name of `* as X`, "" if none
	Named     []ImportedName
	Require   string // local name of `import X = require("m")`, "" if none
}

// ExportRecord describes one export statement that does not wrap a
// declaration (re-exports, export clauses, default/equals assignments).
type ExportRecord struct {
	From      string // source specifier for re-exports, "" for local clauses
	TypeOnly  bool
	Star      bool   // `export * from "m"`
	Namespace string // published name of `export * as N from "m"`, "" if none
	Named     []ImportedName
	Default   string // identifier of `export default X`, "" if none
	Equals    string // identifier of `export = X`, "" if none
	UMDName   string // identifier of `export as namespace X`, "" if none
}

// extractStatements classifies every top-level statement of the program.
func (f *SourceFile) extractStatements(root *sitter.Node) {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := root.NamedChild(uint(i))
		if stmt := f.classifyStatement(node); stmt != nil {
			f.Statements = append(f.Statements, stmt)
		}
	}
}

func (f *SourceFile) classifyStatement(node *sitter.Node) *Statement {
	switch node.Kind() {
	case "import_statement":
		return f.parseImport(node)
	case "export_statement":
		return f.parseExport(node)
	case "ambient_declaration":
		return f.parseAmbient(node, registry.NotExported)
	case "comment":
		return nil
	default:
		if decls := f.parseDeclaration(node, registry.NotExported); len(decls) > 0 {
			return &Statement{Kind: StmtDeclaration, Node: node, Decls: decls}
		}
		return &Statement{Kind: StmtOther, Node: node}
	}
}

// parseAmbient unwraps `declare ...`, handling `declare global { ... }` and
// `declare module "x" { ... }` specially.
func (f *SourceFile) parseAmbient(node *sitter.Node, export registry.ExportKind) *Statement {
	if hasChildToken(node, "global") {
		decl := &DeclInfo{
			Name:   "global",
			Kind:   registry.KindModule,
			Export: export,
			Node:   node,
			File:   f,
			Global: true,
		}
		return &Statement{Kind: StmtDeclaration, Node: node, Decls: []*DeclInfo{decl}}
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		inner := node.NamedChild(uint(i))
		if inner.Kind() == "comment" {
			continue
		}
		if decls := f.parseDeclaration(inner, export); len(decls) > 0 {
			return &Statement{Kind: StmtDeclaration, Node: node, Decls: decls}
		}
	}
	return &Statement{Kind: StmtOther, Node: node}
}

// parseDeclaration extracts DeclInfos from a bare declaration node. Returns
// nil if the node is not a declaration.
func (f *SourceFile) parseDeclaration(node *sitter.Node, export registry.ExportKind) []*DeclInfo {
	switch node.Kind() {
	case "interface_declaration":
		return f.namedDecl(node, registry.KindInterface, export)
	case "type_alias_declaration":
		return f.namedDecl(node, registry.KindTypeAlias, export)
	case "class_declaration", "abstract_class_declaration":
		return f.namedDecl(node, registry.KindClass, export)
	case "enum_declaration":
		decls := f.namedDecl(node, registry.KindEnum, export)
		if len(decls) == 1 {
			decls[0].ConstEnum = hasChildToken(node, "const")
		}
		return decls
	case "function_declaration", "function_signature":
		return f.namedDecl(node, registry.KindFunction, export)
	case "internal_module":
		return f.namedDecl(node, registry.KindModule, export)
	case "module":
		return f.parseModuleDecl(node, export)
	case "lexical_declaration", "variable_declaration":
		return f.parseVariables(node, export)
	case "ambient_declaration":
		// `export declare class A {}` nests the ambient wrapper inside
		// the export statement.
		if stmt := f.parseAmbient(node, export); stmt != nil {
			return stmt.Decls
		}
		return nil
	default:
		return nil
	}
}

func (f *SourceFile) namedDecl(node *sitter.Node, kind registry.DeclarationKind, export registry.ExportKind) []*DeclInfo {
	name := f.text(node.ChildByFieldName("name"))
	if name == "" {
		return nil
	}
	return []*DeclInfo{{
		Name:   name,
		Kind:   kind,
		Export: export,
		Node:   node,
		File:   f,
	}}
}

// parseModuleDecl handles `module A { ... }` and ambient external modules
// `declare module "x" { ... }`.
func (f *SourceFile) parseModuleDecl(node *sitter.Node, export registry.ExportKind) []*DeclInfo {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	decl := &DeclInfo{
		Kind:   registry.KindModule,
		Export: export,
		Node:   node,
		File:   f,
	}
	if nameNode.Kind() == "string" {
		decl.AmbientModule = f.stringValue(nameNode)
		decl.Name = decl.AmbientModule
	} else {
		decl.Name = f.text(nameNode)
	}
	return []*DeclInfo{decl}
}

// parseVariables splits a lexical/variable declaration into per-declarator
// DeclInfos so each binding shakes independently.
func (f *SourceFile) parseVariables(node *sitter.Node, export registry.ExportKind) []*DeclInfo {
	keyword := "var"
	if kw := node.Child(0); kw != nil {
		keyword = f.text(kw)
	}
	var decls []*DeclInfo
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(uint(i))
		if child.Kind() != "variable_declarator" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		if nameNode == nil || nameNode.Kind() != "identifier" {
			continue
		}
		decls = append(decls, &DeclInfo{
			Name:       f.text(nameNode),
			Kind:       registry.KindVariable,
			Export:     export,
			Node:       child,
			File:       f,
			VarKeyword: keyword,
		})
	}
	return decls
}

// parseImport extracts one import statement.
func (f *SourceFile) parseImport(node *sitter.Node) *Statement {
	rec := &ImportRecord{
		TypeOnly: hasChildToken(node, "type"),
	}
	if source := node.ChildByFieldName("source"); source != nil {
		rec.Module = f.stringValue(source)
	}

	walkTree(node, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "import_clause":
			for i := 0; i < int(n.NamedChildCount()); i++ {
				child := n.NamedChild(uint(i))
				if child.Kind() == "identifier" {
					rec.Default = f.text(child)
				}
			}
			return true
		case "namespace_import":
			if id := firstChildOfKind(n, "identifier"); id != nil {
				rec.Namespace = f.text(id)
			}
			return false
		case "named_imports":
			for i := 0; i < int(n.NamedChildCount()); i++ {
				spec := n.NamedChild(uint(i))
				if spec.Kind() != "import_specifier" {
					continue
				}
				rec.Named = append(rec.Named, ImportedName{
					Name:     f.text(spec.ChildByFieldName("name")),
					Alias:    f.text(spec.ChildByFieldName("alias")),
					TypeOnly: hasChildToken(spec, "type"),
				})
			}
			return false
		case "import_require_clause":
			// import X = require("m"): the identifier precedes the
			// clause, the specifier sits inside it.
			if id := firstChildOfKind(node, "identifier"); id != nil {
				rec.Require = f.text(id)
			}
			if str := firstChildOfKind(n, "string"); str != nil {
				rec.Module = f.stringValue(str)
			}
			return false
		}
		return true
	})

	return &Statement{Kind: StmtImport, Node: node, Import: rec}
}

// parseExport extracts one export statement. Export statements that wrap a
// declaration become declaration statements with the export classification
// attached instead.
func (f *SourceFile) parseExport(node *sitter.Node) *Statement {
	isDefault := hasChildToken(node, "default")

	if declNode := node.ChildByFieldName("declaration"); declNode != nil {
		export := registry.Named
		if isDefault {
			export = registry.Default
		}
		decls := f.parseDeclaration(declNode, export)
		if len(decls) > 0 {
			return &Statement{Kind: StmtDeclaration, Node: node, Decls: decls}
		}
		if isDefault {
			// Anonymous default export: synthesize a local name so the
			// declaration can participate in the graph.
			kind := registry.KindVariable
			switch declNode.Kind() {
			case "class_declaration", "abstract_class_declaration":
				kind = registry.KindClass
			case "function_declaration", "function_signature":
				kind = registry.KindFunction
			}
			decl := &DeclInfo{
				Name:   "_default",
				Kind:   kind,
				Export: registry.DefaultOnly,
				Node:   declNode,
				File:   f,
			}
			return &Statement{Kind: StmtDeclaration, Node: node, Decls: []*DeclInfo{decl}}
		}
	}

	rec := &ExportRecord{
		TypeOnly: hasChildToken(node, "type"),
	}
	if source := node.ChildByFieldName("source"); source != nil {
		rec.From = f.stringValue(source)
	}

	switch {
	case hasChildToken(node, "="):
		if id := firstChildOfKind(node, "identifier"); id != nil {
			rec.Equals = f.text(id)
		}
	case hasChildToken(node, "namespace"):
		// export as namespace X;
		if id := firstChildOfKind(node, "identifier"); id != nil {
			rec.UMDName = f.text(id)
		}
	case isDefault:
		if value := node.ChildByFieldName("value"); value != nil && value.Kind() == "identifier" {
			rec.Default = f.text(value)
		} else if id := firstChildOfKind(node, "identifier"); id != nil {
			rec.Default = f.text(id)
		}
	case firstChildOfKind(node, "namespace_export") != nil:
		ns := firstChildOfKind(node, "namespace_export")
		for i := 0; i < int(ns.NamedChildCount()); i++ {
			child := ns.NamedChild(uint(i))
			if child.Kind() == "identifier" || child.Kind() == "string" {
				rec.Namespace = f.text(child)
			}
		}
	case hasChildToken(node, "*"):
		rec.Star = true
	default:
		if clause := firstChildOfKind(node, "export_clause"); clause != nil {
			for i := 0; i < int(clause.NamedChildCount()); i++ {
				spec := clause.NamedChild(uint(i))
				if spec.Kind() != "export_specifier" {
					continue
				}
				rec.Named = append(rec.Named, ImportedName{
					Name:     f.text(spec.ChildByFieldName("name")),
					Alias:    f.text(spec.ChildByFieldName("alias")),
					TypeOnly: hasChildToken(spec, "type"),
				})
			}
		}
	}

	return &Statement{Kind: StmtExport, Node: node, Export: rec}
}
