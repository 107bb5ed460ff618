package generator

import (
	"testing"

	"github.com/dominikbraun/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/declbundle/internal/registry"
	"github.com/mvp-joe/declbundle/internal/shaker"
)

// Test Plan for Generator (assembly units; full rendering is covered by the
// bundler end-to-end tests):
// - Import statements group by module, split value and type-only clauses
// - Renamed named imports spell `Name as NormalizedName`
// - Default imports used only in type position are dropped entirely
// - Equals and namespace shapes emit their dedicated statement forms
// - Reference-only imports are omitted from import statements
// - The imported-libraries allowlist drops disallowed modules
// - Reference directives honor the allowed-types-libraries list
// - Topological order places dependencies before dependents and
//   non-exported statements before exported ones
// - Cycles do not hang or drop statements
// - SortNodes orders by normalized name instead

func newShakeResult() *shaker.Result {
	return &shaker.Result{
		Used:          make(map[registry.EntityID]struct{}),
		Order:         make(map[registry.EntityID]int),
		Roots:         make(map[registry.EntityID]string),
		UsedImports:   make(map[*registry.ExternalImport]struct{}),
		DefaultExport: registry.InvalidEntity,
		EqualsExport:  registry.InvalidEntity,
	}
}

func emptyGraph() graph.Graph[int, int] {
	return graph.New(graph.IntHash, graph.Directed())
}

func TestImportStatements_ShapesAndGrouping(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	shake := newShakeResult()

	named := reg.RegisterExternal("alpha", registry.ShapeNamed, "Thing", "Thing", false, "")
	renamed := reg.RegisterExternal("alpha", registry.ShapeNamed, "Other", "Other", false, "")
	renamed.NormalizedName = "Other$1"
	typeOnly := reg.RegisterExternal("alpha", registry.ShapeNamed, "Shape", "Shape", true, "")
	eq := reg.RegisterExternal("legacy", registry.ShapeEquals, "", "Legacy", false, "")
	ns := reg.RegisterExternal("wide", registry.ShapeNamespace, "", "wide", false, "")
	for _, imp := range []*registry.ExternalImport{named, renamed, typeOnly, eq, ns} {
		shake.UsedImports[imp] = struct{}{}
	}

	g := New(reg, shake, emptyGraph(), Options{})
	lines := g.importStatements()

	assert.Equal(t, []string{
		`import { Thing, Other as Other$1 } from "alpha";`,
		`import type { Shape } from "alpha";`,
		`import Legacy = require("legacy");`,
		`import * as wide from "wide";`,
	}, lines)
}

func TestImportStatements_TypeOnlyDefaultDropped(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	shake := newShakeResult()

	// Never used as a value, so the binding is dropped from the header.
	typeDef := reg.RegisterExternal("pkg", registry.ShapeDefault, "", "Def", true, "")
	named := reg.RegisterExternal("pkg", registry.ShapeNamed, "Helper", "Helper", true, "")
	valueDef := reg.RegisterExternal("other", registry.ShapeDefault, "", "App", false, "")
	valueDef.ValueUsage = true
	for _, imp := range []*registry.ExternalImport{typeDef, named, valueDef} {
		shake.UsedImports[imp] = struct{}{}
	}

	g := New(reg, shake, emptyGraph(), Options{})
	lines := g.importStatements()

	assert.Equal(t, []string{
		`import App from "other";`,
		`import type { Helper } from "pkg";`,
	}, lines)
}

func TestImportStatements_SkipsReferenceOnlyAndDisallowed(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	shake := newShakeResult()

	refOnly := reg.RegisterExternal("node:fs", registry.ShapeNamed, "Stats", "Stats", false, "node")
	allowedImp := reg.RegisterExternal("allowed", registry.ShapeNamed, "A", "A", false, "")
	blocked := reg.RegisterExternal("blocked", registry.ShapeNamed, "B", "B", false, "")
	shake.UsedImports[refOnly] = struct{}{}
	shake.UsedImports[allowedImp] = struct{}{}
	shake.UsedImports[blocked] = struct{}{}

	g := New(reg, shake, emptyGraph(), Options{ImportedLibraries: []string{"allowed"}})
	lines := g.importStatements()

	assert.Equal(t, []string{`import { A } from "allowed";`}, lines)
}

func TestReferenceDirectives_Allowlist(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	shake := newShakeResult()
	shake.ReferenceLibraries = []string{"jest", "node"}

	g := New(reg, shake, emptyGraph(), Options{})
	assert.Equal(t, []string{
		`/// <reference types="jest" />`,
		`/// <reference types="node" />`,
	}, g.referenceDirectives())

	g = New(reg, shake, emptyGraph(), Options{AllowedTypesLibraries: []string{"node"}})
	assert.Equal(t, []string{`/// <reference types="node" />`}, g.referenceDirectives())
}

func TestStatementOrder_DependenciesFirstExportsLast(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	shake := newShakeResult()
	deps := emptyGraph()

	root := reg.NewEntity("Api", "entry.d.ts", registry.KindInterface, nil)
	dep := reg.NewEntity("Payload", "entry.d.ts", registry.KindInterface, nil)
	root.Dependencies[dep.ID] = struct{}{}

	require.NoError(t, deps.AddVertex(int(root.ID)))
	require.NoError(t, deps.AddVertex(int(dep.ID)))
	require.NoError(t, deps.AddEdge(int(root.ID), int(dep.ID)))

	shake.Used[root.ID] = struct{}{}
	shake.Used[dep.ID] = struct{}{}
	shake.Order[root.ID] = 0
	shake.Order[dep.ID] = 1
	shake.Roots[root.ID] = "Api"

	g := New(reg, shake, deps, Options{})
	order, err := g.statementOrder()
	require.NoError(t, err)

	assert.Equal(t, []registry.EntityID{dep.ID, root.ID}, order)
}

func TestStatementOrder_CycleDoesNotHang(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	shake := newShakeResult()
	deps := emptyGraph()

	a := reg.NewEntity("A", "entry.d.ts", registry.KindInterface, nil)
	b := reg.NewEntity("B", "entry.d.ts", registry.KindInterface, nil)
	require.NoError(t, deps.AddVertex(int(a.ID)))
	require.NoError(t, deps.AddVertex(int(b.ID)))
	require.NoError(t, deps.AddEdge(int(a.ID), int(b.ID)))
	require.NoError(t, deps.AddEdge(int(b.ID), int(a.ID)))

	shake.Used[a.ID] = struct{}{}
	shake.Used[b.ID] = struct{}{}
	shake.Order[a.ID] = 0
	shake.Order[b.ID] = 1
	shake.Roots[a.ID] = "A"
	shake.Roots[b.ID] = "B"

	g := New(reg, shake, deps, Options{})
	order, err := g.statementOrder()
	require.NoError(t, err)
	assert.Len(t, order, 2, "both cycle members appear exactly once")
}

func TestStatementOrder_SortNodes(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	shake := newShakeResult()

	z := reg.NewEntity("Zed", "entry.d.ts", registry.KindInterface, nil)
	a := reg.NewEntity("Alpha", "entry.d.ts", registry.KindInterface, nil)
	shake.Used[z.ID] = struct{}{}
	shake.Used[a.ID] = struct{}{}
	shake.Order[z.ID] = 0
	shake.Order[a.ID] = 1

	g := New(reg, shake, emptyGraph(), Options{SortNodes: true})
	order, err := g.statementOrder()
	require.NoError(t, err)

	assert.Equal(t, []registry.EntityID{a.ID, z.ID}, order)
}
