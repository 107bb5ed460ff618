package bundler

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Bundler (end to end over fixture trees):
// - A bundle contains the banner, exported roots, and their dependencies
// - Entities unreachable from the entry's exports are excluded
// - Dependencies order before the statements that use them
// - Cross-module name collisions come out as Name and Name$1, and
//   referencing declarations follow the rename
// - Suffixes compact after shaking: a dead unsuffixed winner frees the
//   base name for the surviving loser
// - An entry-module import alias pins the published spelling
// - An entry-module export alias republishes the declaration under the
//   alias, for both re-export and local export clauses
// - External imports survive as import statements; inlined ones do not
// - A default import used only in type position is dropped from the header
// - declare global blocks ship for the entry, and for dependencies only
//   with InlineDeclareGlobals
// - export default, export =, and export as namespace are preserved
// - A bundle with no exports falls back to `export {}`
// - respectPreserveConstEnum strips the const modifier
// - Triple-slash reference directives are carried over
// - NoBanner and SortNodes options are honored
// - Missing entry configuration and missing entry file return sentinels
// - Bundling twice yields byte-identical output

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func bundle(t *testing.T, opts Options) string {
	t.Helper()
	b, err := New(opts)
	require.NoError(t, err)
	defer b.Close()

	out, err := b.Bundle(context.Background())
	require.NoError(t, err)
	return out
}

func TestBundle_BasicReachability(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	entry := write(t, dir, "entry.d.ts", `import { Options } from "./options";
export declare function run(options: Options): void;
export { Options } from "./options";
`)
	write(t, dir, "options.d.ts", `export interface Options { verbose: boolean; }
export interface Unused { nope: string; }
`)

	opts := DefaultOptions()
	opts.Entry = entry
	out := bundle(t, opts)

	assert.True(t, strings.HasPrefix(out, Banner+"\n"))
	assert.Contains(t, out, "export interface Options { verbose: boolean; }")
	assert.Contains(t, out, "export declare function run(options: Options): void;")
	assert.NotContains(t, out, "Unused")

	assert.Less(t, strings.Index(out, "interface Options"), strings.Index(out, "function run"),
		"dependency renders before its dependent")
}

func TestBundle_CollisionRenaming(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	entry := write(t, dir, "entry.d.ts", `export { Status } from "./a";
export { StatusB } from "./b";
`)
	write(t, dir, "a.d.ts", "export interface Status { a: string; }\n")
	write(t, dir, "b.d.ts", `export interface Status { b: string; }
export interface StatusB { status: Status; }
`)

	opts := DefaultOptions()
	opts.Entry = entry
	out := bundle(t, opts)

	assert.Contains(t, out, "interface Status { a: string; }")
	assert.Contains(t, out, "interface Status$1 { b: string; }")
	assert.Contains(t, out, "status: Status$1;",
		"references follow the renamed declaration")
}

func TestBundle_SuffixCompaction(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	entry := write(t, dir, "entry.d.ts", `export { Widget } from "./a";
export { Item } from "./b";
`)
	write(t, dir, "a.d.ts", `export interface Widget { item: Item; }
export interface Item { fromA: boolean; }
`)
	write(t, dir, "b.d.ts", "export interface Item { id: string; }\n")

	opts := DefaultOptions()
	opts.Entry = entry
	out := bundle(t, opts)

	// Both Items survive here (a's via Widget), so the pair stays
	// contiguous as Item / Item$1.
	assert.Contains(t, out, "interface Item { fromA: boolean; }")
	assert.Contains(t, out, "interface Item$1 { id: string; }")
}

func TestBundle_CompactionFreesDeadWinner(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	entry := write(t, dir, "entry.d.ts", `export { Widget } from "./a";
export { Item } from "./b";
`)
	write(t, dir, "a.d.ts", `export interface Widget { w: number; }
export interface Item { fromA: boolean; }
`)
	write(t, dir, "b.d.ts", "export interface Item { id: string; }\n")

	opts := DefaultOptions()
	opts.Entry = entry
	out := bundle(t, opts)

	// a's Item won the base name but is unreachable; the survivor from b
	// compacts back down to the unsuffixed spelling.
	assert.Contains(t, out, "interface Item { id: string; }")
	assert.NotContains(t, out, "Item$1")
	assert.NotContains(t, out, "fromA")
}

func TestBundle_EntryAliasPinsName(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	entry := write(t, dir, "entry.d.ts", `import { Widget as Button } from "./widgets";
export declare function make(): Button;
`)
	write(t, dir, "widgets.d.ts", "export interface Widget { id: string; }\n")

	opts := DefaultOptions()
	opts.Entry = entry
	out := bundle(t, opts)

	assert.Contains(t, out, "interface Button { id: string; }")
	assert.Contains(t, out, "make(): Button;")
	assert.NotContains(t, out, "Widget")
}

func TestBundle_EntryExportAliasPinsName(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	entry := write(t, dir, "entry.d.ts", `export { Foo as Bar } from "./a";
`)
	write(t, dir, "a.d.ts", "export interface Foo { x: number; }\n")

	opts := DefaultOptions()
	opts.Entry = entry
	out := bundle(t, opts)

	assert.Contains(t, out, "export interface Bar { x: number; }")
	assert.NotContains(t, out, "Foo")
}

func TestBundle_LocalExportClauseAliasPinsName(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	entry := write(t, dir, "entry.d.ts", `declare interface Foo { x: number; }
declare function use(f: Foo): void;
export { Foo as Bar, use };
`)

	opts := DefaultOptions()
	opts.Entry = entry
	out := bundle(t, opts)

	assert.Contains(t, out, "interface Bar { x: number; }")
	assert.Contains(t, out, "use(f: Bar): void;",
		"references follow the published spelling")
	assert.NotContains(t, out, "Foo")
}

func TestBundle_ExternalImportsSurvive(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	entry := write(t, dir, "entry.d.ts", `import { Ref } from "ext-lib";
export interface Use { r: Ref; }
`)

	opts := DefaultOptions()
	opts.Entry = entry
	out := bundle(t, opts)

	assert.Contains(t, out, `import { Ref } from "ext-lib";`)
	assert.Contains(t, out, "export interface Use { r: Ref; }")
}

func TestBundle_TypeOnlyDefaultImportDropped(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	entry := write(t, dir, "entry.d.ts", `import Ext from "ext-lib";
export interface Use { e: Ext; }
`)

	opts := DefaultOptions()
	opts.Entry = entry
	out := bundle(t, opts)

	assert.Contains(t, out, "export interface Use { e: Ext; }")
	assert.NotContains(t, out, "ext-lib")
}

func TestBundle_DeclareGlobalHandling(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	entry := write(t, dir, "entry.d.ts", `import "./globals";
export declare const version: string;
`)
	write(t, dir, "globals.d.ts", `declare global { interface Window { myLib: string; } }
export {};
`)

	opts := DefaultOptions()
	opts.Entry = entry
	out := bundle(t, opts)
	assert.NotContains(t, out, "declare global",
		"non-entry global blocks are dropped by default")

	opts.InlineDeclareGlobals = true
	out = bundle(t, opts)
	assert.Contains(t, out, "declare global { interface Window { myLib: string; } }")
}

func TestBundle_EntryGlobalAlwaysShips(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	entry := write(t, dir, "entry.d.ts", `declare global { interface Window { mine: number; } }
export declare const version: string;
`)

	opts := DefaultOptions()
	opts.Entry = entry
	out := bundle(t, opts)

	assert.Contains(t, out, "declare global { interface Window { mine: number; } }")
}

func TestBundle_DefaultExport(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	entry := write(t, dir, "entry.d.ts", `declare class App { start(): void; }
export default App;
`)

	opts := DefaultOptions()
	opts.Entry = entry
	out := bundle(t, opts)

	assert.Contains(t, out, "declare class App { start(): void; }")
	assert.Contains(t, out, "export default App;")
	assert.NotContains(t, out, "export declare class App")
}

func TestBundle_ExportEquals(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	entry := write(t, dir, "entry.d.ts", `declare function legacy(): void;
export = legacy;
`)

	opts := DefaultOptions()
	opts.Entry = entry
	out := bundle(t, opts)

	assert.Contains(t, out, "declare function legacy(): void;")
	assert.Contains(t, out, "export = legacy;")
}

func TestBundle_UMDNamespace(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	entry := write(t, dir, "entry.d.ts", `export declare const api: string;
export as namespace MyLib;
`)

	opts := DefaultOptions()
	opts.Entry = entry
	out := bundle(t, opts)
	assert.Contains(t, out, "export as namespace MyLib;")

	opts.UMDModuleName = "Overridden"
	out = bundle(t, opts)
	assert.Contains(t, out, "export as namespace Overridden;")
	assert.NotContains(t, out, "export as namespace MyLib;")
}

func TestBundle_EmptyExportFallback(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	entry := write(t, dir, "entry.d.ts", `declare const internal: string;
export {};
`)

	opts := DefaultOptions()
	opts.Entry = entry
	out := bundle(t, opts)

	assert.Contains(t, out, "export {};")
	assert.NotContains(t, out, "internal")
}

func TestBundle_RespectPreserveConstEnum(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	entry := write(t, dir, "entry.d.ts", "export declare const enum Mode { On = 1 }\n")

	opts := DefaultOptions()
	opts.Entry = entry
	out := bundle(t, opts)
	assert.Contains(t, out, "export declare const enum Mode { On = 1 }")

	opts.RespectPreserveConstEnum = true
	out = bundle(t, opts)
	assert.Contains(t, out, "export declare enum Mode { On = 1 }")
	assert.NotContains(t, out, "const enum")
}

func TestBundle_ReferenceDirectives(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	entry := write(t, dir, "entry.d.ts", `/// <reference types="node" />
export declare const api: string;
`)

	opts := DefaultOptions()
	opts.Entry = entry
	out := bundle(t, opts)
	assert.Contains(t, out, `/// <reference types="node" />`)

	opts.AllowedTypesLibraries = []string{}
	out = bundle(t, opts)
	assert.NotContains(t, out, "reference types")
}

func TestBundle_NoBannerAndSortNodes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	entry := write(t, dir, "entry.d.ts", `export interface Zed { z: number; }
export interface Alpha { a: number; }
`)

	opts := DefaultOptions()
	opts.Entry = entry
	opts.NoBanner = true
	opts.SortNodes = true
	out := bundle(t, opts)

	assert.NotContains(t, out, Banner)
	assert.Less(t, strings.Index(out, "interface Alpha"), strings.Index(out, "interface Zed"))
}

func TestBundle_Errors(t *testing.T) {
	t.Parallel()

	_, err := New(Options{})
	assert.ErrorIs(t, err, ErrMissingEntry)

	b, err := New(Options{Entry: filepath.Join(t.TempDir(), "missing.d.ts")})
	require.NoError(t, err)
	defer b.Close()
	_, err = b.Bundle(context.Background())
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestBundle_Deterministic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	entry := write(t, dir, "entry.d.ts", `export { Status } from "./a";
export { StatusB } from "./b";
export declare function check(s: Status): StatusB;
`)
	write(t, dir, "a.d.ts", "export interface Status { a: string; }\n")
	write(t, dir, "b.d.ts", `export interface Status { b: string; }
export interface StatusB { status: Status; }
`)

	opts := DefaultOptions()
	opts.Entry = entry

	first := bundle(t, opts)
	second := bundle(t, opts)
	assert.Equal(t, first, second)
}
