package analyzer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/declbundle/internal/collector"
	"github.com/mvp-joe/declbundle/internal/registry"
	"github.com/mvp-joe/declbundle/internal/ts"
)

// Test Plan for Analyzer:
// - Same-module references become dependency edges and bindings
// - References to merged declarations add an edge per merged entity
// - Imports of inlined modules resolve through the export surface
// - Entry-module import aliases pin the target's output spelling
// - Entry-module export aliases pin the target's output spelling, for
//   re-export and local export clauses alike
// - Imports of external modules create canonical import records and
//   per-entity usage bookkeeping
// - Value-position usage by a non-type-only entity marks the import
// - Unresolved references produce no edges (ambient fallthrough)
// - Edges are mirrored into the dependency graph

func collect(t *testing.T, dir string, entry string) *collector.ModuleSet {
	t.Helper()
	c, err := collector.New([]string{"*"})
	require.NoError(t, err)
	t.Cleanup(c.Close)

	set, err := c.Collect(context.Background(), filepath.Join(dir, entry))
	require.NoError(t, err)
	return set
}

func write(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// register ingests declarations and export surfaces the way the bundling
// pipeline does, enough for reference resolution.
func register(reg *registry.Registry, set *collector.ModuleSet) {
	for _, name := range set.Order {
		mod := set.Module(name)
		for _, stmt := range mod.File.Statements {
			switch stmt.Kind {
			case ts.StmtDeclaration:
				for _, d := range stmt.Decls {
					e := reg.NewEntity(d.Name, name, d.Kind, d)
					e.Export = d.Export
					e.TypeOnly = d.TypeOnly()
					if d.Export == registry.Named {
						reg.RegisterExportedName(name, d.Name, d.Name, "")
					}
				}
			case ts.StmtExport:
				rec := stmt.Export
				for _, n := range rec.Named {
					reg.RegisterExportedName(name, n.Local(), n.Name, rec.From)
				}
				if rec.Star && rec.From != "" {
					reg.RegisterStarExport(name, rec.From)
				}
			}
		}
	}
}

func TestAnalyze_SameModuleEdges(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write(t, dir, "entry.d.ts", `export interface Response { body: Payload; }
interface Payload { size: number; }
`)
	set := collect(t, dir, "entry.d.ts")
	reg := registry.New()
	register(reg, set)

	a := New(reg, set)
	require.NoError(t, a.Analyze())

	response := reg.Lookup("Response", set.Entry)
	payload := reg.Lookup("Payload", set.Entry)
	require.NotNil(t, response)
	require.NotNil(t, payload)

	assert.Contains(t, response.Dependencies, payload.ID)
	assert.Equal(t, payload.ID, response.Bindings["Payload"].Entity)

	adjacency, err := a.Graph().AdjacencyMap()
	require.NoError(t, err)
	assert.Contains(t, adjacency[int(response.ID)], int(payload.ID))
}

func TestAnalyze_InlinedImportResolution(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write(t, dir, "entry.d.ts", `import { Widget } from "./widgets";
export declare function make(): Widget;
`)
	write(t, dir, "widgets.d.ts", "export interface Widget { id: string; }\n")

	set := collect(t, dir, "entry.d.ts")
	reg := registry.New()
	register(reg, set)

	require.NoError(t, New(reg, set).Analyze())

	make := reg.Lookup("make", set.Entry)
	widget := reg.Lookup("Widget", filepath.Join(dir, "widgets.d.ts"))
	require.NotNil(t, make)
	require.NotNil(t, widget)

	assert.Contains(t, make.Dependencies, widget.ID)
	assert.Empty(t, reg.Externals(), "inlined imports register no external record")
}

func TestAnalyze_EntryAliasPinsSpelling(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write(t, dir, "entry.d.ts", `import { Widget as Button } from "./widgets";
export declare function make(): Button;
`)
	write(t, dir, "widgets.d.ts", "export interface Widget { id: string; }\n")

	set := collect(t, dir, "entry.d.ts")
	reg := registry.New()
	register(reg, set)

	require.NoError(t, New(reg, set).Analyze())

	widget := reg.Lookup("Widget", filepath.Join(dir, "widgets.d.ts"))
	require.NotNil(t, widget)
	assert.Equal(t, "Button", widget.NormalizedName,
		"entry alias renames the declaration bundle-wide")

	make := reg.Lookup("make", set.Entry)
	require.NotNil(t, make)
	assert.Equal(t, widget.ID, make.Bindings["Button"].Entity)
	assert.Equal(t, "Widget", make.Aliases["Button"])
}

func TestAnalyze_EntryExportAliasPinsSpelling(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write(t, dir, "entry.d.ts", `export { Widget as Button } from "./widgets";
`)
	write(t, dir, "widgets.d.ts", "export interface Widget { id: string; }\n")

	set := collect(t, dir, "entry.d.ts")
	reg := registry.New()
	register(reg, set)

	require.NoError(t, New(reg, set).Analyze())

	widget := reg.Lookup("Widget", filepath.Join(dir, "widgets.d.ts"))
	require.NotNil(t, widget)
	assert.Equal(t, "Button", widget.NormalizedName,
		"the published spelling wins over the declared one")
}

func TestAnalyze_LocalExportClauseAliasPinsSpelling(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write(t, dir, "entry.d.ts", `declare interface Widget { id: string; }
export { Widget as Button };
`)

	set := collect(t, dir, "entry.d.ts")
	reg := registry.New()
	register(reg, set)

	require.NoError(t, New(reg, set).Analyze())

	widget := reg.Lookup("Widget", set.Entry)
	require.NotNil(t, widget)
	assert.Equal(t, "Button", widget.NormalizedName)
}

func TestAnalyze_ExternalImports(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write(t, dir, "entry.d.ts", `import { Connection } from "db-lib";
import type { Settings } from "cfg-lib";
export declare class Pool { conn: Connection; }
export interface Options { settings: Settings; }
`)

	set := collectExternal(t, dir, "entry.d.ts")
	reg := registry.New()
	register(reg, set)

	require.NoError(t, New(reg, set).Analyze())

	conn := reg.FindExternal("db-lib", registry.ShapeNamed, "Connection")
	require.NotNil(t, conn)
	assert.True(t, conn.ValueUsage, "class usage is a value position")
	assert.False(t, conn.TypeOnly)

	settings := reg.FindExternal("cfg-lib", registry.ShapeNamed, "Settings")
	require.NotNil(t, settings)
	assert.True(t, settings.TypeOnly)
	assert.False(t, settings.ValueUsage, "interface usage stays type-only")

	pool := reg.Lookup("Pool", set.Entry)
	require.NotNil(t, pool)
	assert.Contains(t, pool.ExternalUses["db-lib"], "Connection")
	assert.NotNil(t, pool.Bindings["Connection"].Import)
}

// collectExternal collects without inlining anything, so bare specifiers
// stay external.
func collectExternal(t *testing.T, dir, entry string) *collector.ModuleSet {
	t.Helper()
	c, err := collector.New(nil)
	require.NoError(t, err)
	t.Cleanup(c.Close)

	set, err := c.Collect(context.Background(), filepath.Join(dir, entry))
	require.NoError(t, err)
	return set
}

func TestAnalyze_UnresolvedReferencesAreAmbient(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write(t, dir, "entry.d.ts", "export interface Task { result: Promise<string>; }\n")

	set := collectExternal(t, dir, "entry.d.ts")
	reg := registry.New()
	register(reg, set)

	require.NoError(t, New(reg, set).Analyze())

	task := reg.Lookup("Task", set.Entry)
	require.NotNil(t, task)
	assert.Empty(t, task.Dependencies)
	assert.Empty(t, task.Bindings)
}
