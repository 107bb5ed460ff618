package ts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/declbundle/internal/registry"
)

// Test Plan for Parser and Statement Extraction:
// - Parse classifies top-level statements (import/export/declaration/other)
// - Named declarations carry name, kind, and export classification
// - `declare` wrappers are unwrapped (declare interface/class/const)
// - `declare global` blocks are detected as global augmentations
// - `declare module "x"` blocks carry the ambient module specifier
// - Multi-declarator variable statements split into one DeclInfo each
// - const enums are flagged
// - Import records capture default, namespace, named, aliased, type-only,
//   and require-equals forms
// - Export records capture clauses, re-exports, stars, namespace exports,
//   default, equals, and UMD names
// - `export default class {}` synthesizes a local _default declaration
// - Triple-slash reference types directives are collected

func parse(t *testing.T, source string) *SourceFile {
	t.Helper()
	file, err := NewParser().Parse("test.d.ts", []byte(source))
	require.NoError(t, err)
	return file
}

func singleDecl(t *testing.T, source string) *DeclInfo {
	t.Helper()
	file := parse(t, source)
	require.Len(t, file.Statements, 1)
	stmt := file.Statements[0]
	require.Equal(t, StmtDeclaration, stmt.Kind)
	require.Len(t, stmt.Decls, 1)
	return stmt.Decls[0]
}

func TestParse_NamedDeclarations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		source string
		name   string
		kind   registry.DeclarationKind
	}{
		{"interface Foo { a: string; }", "Foo", registry.KindInterface},
		{"type Alias = string;", "Alias", registry.KindTypeAlias},
		{"declare class Widget {}", "Widget", registry.KindClass},
		{"declare abstract class Base {}", "Base", registry.KindClass},
		{"declare enum Color { Red }", "Color", registry.KindEnum},
		{"declare function make(): void;", "make", registry.KindFunction},
		{"declare namespace NS { const x: number; }", "NS", registry.KindModule},
	}

	for _, tt := range tests {
		d := singleDecl(t, tt.source)
		assert.Equal(t, tt.name, d.Name, "source: %s", tt.source)
		assert.Equal(t, tt.kind, d.Kind, "source: %s", tt.source)
		assert.Equal(t, registry.NotExported, d.Export, "source: %s", tt.source)
	}
}

func TestParse_ExportedDeclarations(t *testing.T) {
	t.Parallel()

	d := singleDecl(t, "export interface Foo { a: string; }")
	assert.Equal(t, "Foo", d.Name)
	assert.Equal(t, registry.Named, d.Export)

	d = singleDecl(t, "export declare class Widget {}")
	assert.Equal(t, "Widget", d.Name)
	assert.Equal(t, registry.KindClass, d.Kind)
	assert.Equal(t, registry.Named, d.Export)

	d = singleDecl(t, "export default class Widget {}")
	assert.Equal(t, "Widget", d.Name)
	assert.Equal(t, registry.Default, d.Export)
}

func TestParse_AnonymousDefaultExport(t *testing.T) {
	t.Parallel()

	d := singleDecl(t, "export default class {}")
	assert.Equal(t, "_default", d.Name)
	assert.Equal(t, registry.KindClass, d.Kind)
	assert.Equal(t, registry.DefaultOnly, d.Export)
}

func TestParse_GlobalAugmentation(t *testing.T) {
	t.Parallel()

	d := singleDecl(t, "declare global { interface Window { custom: string; } }")
	assert.True(t, d.Global)
	assert.Equal(t, registry.KindModule, d.Kind)

	members := GlobalMembers(d)
	assert.Equal(t, []string{"Window"}, members)
}

func TestParse_AmbientModule(t *testing.T) {
	t.Parallel()

	d := singleDecl(t, `declare module "fancy-lib" { export function fn(): void; }`)
	assert.Equal(t, "fancy-lib", d.AmbientModule)
	assert.Equal(t, "fancy-lib", d.Name)
	assert.Equal(t, registry.KindModule, d.Kind)
	assert.False(t, d.Global)
}

func TestParse_VariableDeclarators(t *testing.T) {
	t.Parallel()

	file := parse(t, "declare const a: string, b: number;")
	require.Len(t, file.Statements, 1)
	decls := file.Statements[0].Decls
	require.Len(t, decls, 2)

	assert.Equal(t, "a", decls[0].Name)
	assert.Equal(t, "b", decls[1].Name)
	assert.Equal(t, registry.KindVariable, decls[0].Kind)
	assert.Equal(t, "const", decls[0].VarKeyword)
}

func TestParse_ConstEnum(t *testing.T) {
	t.Parallel()

	d := singleDecl(t, "declare const enum Flags { None }")
	assert.Equal(t, registry.KindEnum, d.Kind)
	assert.True(t, d.ConstEnum)

	d = singleDecl(t, "declare enum Flags { None }")
	assert.False(t, d.ConstEnum)
}

func TestParse_ImportForms(t *testing.T) {
	t.Parallel()

	file := parse(t, `
import Def from "./a";
import { A, B as C } from "./b";
import type { D } from "./c";
import * as NS from "pkg";
import R = require("./d");
`)
	require.Len(t, file.Statements, 5)

	rec := file.Statements[0].Import
	require.NotNil(t, rec)
	assert.Equal(t, "./a", rec.Module)
	assert.Equal(t, "Def", rec.Default)

	rec = file.Statements[1].Import
	require.NotNil(t, rec)
	require.Len(t, rec.Named, 2)
	assert.Equal(t, "A", rec.Named[0].Name)
	assert.Equal(t, "A", rec.Named[0].Local())
	assert.Equal(t, "B", rec.Named[1].Name)
	assert.Equal(t, "C", rec.Named[1].Local())

	rec = file.Statements[2].Import
	require.NotNil(t, rec)
	assert.True(t, rec.TypeOnly)
	require.Len(t, rec.Named, 1)
	assert.Equal(t, "D", rec.Named[0].Name)

	rec = file.Statements[3].Import
	require.NotNil(t, rec)
	assert.Equal(t, "pkg", rec.Module)
	assert.Equal(t, "NS", rec.Namespace)

	rec = file.Statements[4].Import
	require.NotNil(t, rec)
	assert.Equal(t, "./d", rec.Module)
	assert.Equal(t, "R", rec.Require)
}

func TestParse_ExportForms(t *testing.T) {
	t.Parallel()

	file := parse(t, `
export { X, Y as Z };
export { P } from "./p";
export * from "./q";
export * as NSS from "./r";
export default Foo;
export = Bar;
export as namespace MyLib;
`)
	require.Len(t, file.Statements, 7)

	rec := file.Statements[0].Export
	require.NotNil(t, rec)
	require.Len(t, rec.Named, 2)
	assert.Equal(t, "X", rec.Named[0].Name)
	assert.Equal(t, "Y", rec.Named[1].Name)
	assert.Equal(t, "Z", rec.Named[1].Local())
	assert.Empty(t, rec.From)

	rec = file.Statements[1].Export
	require.NotNil(t, rec)
	assert.Equal(t, "./p", rec.From)
	require.Len(t, rec.Named, 1)

	rec = file.Statements[2].Export
	require.NotNil(t, rec)
	assert.True(t, rec.Star)
	assert.Equal(t, "./q", rec.From)

	rec = file.Statements[3].Export
	require.NotNil(t, rec)
	assert.Equal(t, "NSS", rec.Namespace)
	assert.Equal(t, "./r", rec.From)

	rec = file.Statements[4].Export
	require.NotNil(t, rec)
	assert.Equal(t, "Foo", rec.Default)

	rec = file.Statements[5].Export
	require.NotNil(t, rec)
	assert.Equal(t, "Bar", rec.Equals)

	rec = file.Statements[6].Export
	require.NotNil(t, rec)
	assert.Equal(t, "MyLib", rec.UMDName)
}

func TestParse_ReferenceTypesDirectives(t *testing.T) {
	t.Parallel()

	file := parse(t, `/// <reference types="node" />
/// <reference types="jest" />
declare const x: number;
`)
	assert.Equal(t, []string{"node", "jest"}, file.ReferenceTypes)
}
