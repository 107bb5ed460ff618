package generator

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/dominikbraun/graph"

	"github.com/mvp-joe/declbundle/internal/registry"
	"github.com/mvp-joe/declbundle/internal/shaker"
	"github.com/mvp-joe/declbundle/internal/ts"
)

// Options configure output assembly.
type Options struct {
	Banner                   string // banner comment line, "" to omit
	SortNodes                bool   // order statements by name instead of topologically
	UMDModuleName            string // emit `export as namespace NAME;` when set
	ExportReferencedTypes    bool   // add `export` to reachable non-root type declarations
	RespectPreserveConstEnum bool   // strip the `const` modifier from const enums
	AllowedTypesLibraries    []string // nil = all reference directives allowed
	ImportedLibraries        []string // nil = all external imports allowed
}

// Generator orders, renders, and post-processes the reachable subset into
// the final artifact text. It only reads entity state; no phase mutation
// happens here.
type Generator struct {
	reg   *registry.Registry
	shake *shaker.Result
	deps  graph.Graph[int, int]
	opts  Options
}

// New creates a generator over the post-shake registry state.
func New(reg *registry.Registry, shake *shaker.Result, deps graph.Graph[int, int], opts Options) *Generator {
	return &Generator{reg: reg, shake: shake, deps: deps, opts: opts}
}

// Generate assembles the bundle text.
func (g *Generator) Generate() (string, error) {
	var lines []string

	if g.opts.Banner != "" {
		lines = append(lines, g.opts.Banner, "")
	}

	if refs := g.referenceDirectives(); len(refs) > 0 {
		lines = append(lines, refs...)
		lines = append(lines, "")
	}

	if imports := g.importStatements(); len(imports) > 0 {
		lines = append(lines, imports...)
		lines = append(lines, "")
	}

	order, err := g.statementOrder()
	if err != nil {
		return "", err
	}

	hasExport := false
	for _, id := range order {
		e := g.reg.Entity(id)
		exported := g.emitExport(id, e)
		if exported {
			hasExport = true
		}
		text := g.renderEntity(e, exported)
		lines = append(lines, text)
	}

	if g.shake.DefaultExport != registry.InvalidEntity {
		e := g.reg.Entity(g.shake.DefaultExport)
		lines = append(lines, fmt.Sprintf("export default %s;", e.NormalizedName))
		hasExport = true
	}
	if g.shake.EqualsExport != registry.InvalidEntity {
		e := g.reg.Entity(g.shake.EqualsExport)
		lines = append(lines, fmt.Sprintf("export = %s;", e.NormalizedName))
		hasExport = true
	}
	if g.opts.UMDModuleName != "" {
		lines = append(lines, fmt.Sprintf("export as namespace %s;", g.opts.UMDModuleName))
		hasExport = true
	}

	// Keep the artifact a module, never a script.
	if !hasExport {
		lines = append(lines, "", "export {};")
	}

	return strings.Join(lines, "\n") + "\n", nil
}

// emitExport decides whether an entity ships with an export keyword: roots
// always do; reachable type declarations follow the ExportReferencedTypes
// option; everything else is internal and has any source export stripped.
func (g *Generator) emitExport(id registry.EntityID, e *registry.DeclarationEntity) bool {
	if name, ok := g.shake.Roots[id]; ok && name != "" {
		return true
	}
	if g.opts.ExportReferencedTypes && e.TypeOnly {
		return true
	}
	return false
}

// renderEntity renders one statement through the external renderer,
// supplying the self-rename and the rename table for every still-referenced
// dependency and import whose spelling changed.
func (g *Generator) renderEntity(e *registry.DeclarationEntity, exported bool) string {
	renames := make(map[string]string)
	if e.NormalizedName != e.Name {
		renames[e.Name] = e.NormalizedName
	}

	spellings := make([]string, 0, len(e.Bindings))
	for spelling := range e.Bindings {
		spellings = append(spellings, spelling)
	}
	sort.Strings(spellings)
	for _, spelling := range spellings {
		b := e.Bindings[spelling]
		switch {
		case b.Import != nil:
			if b.Import.NormalizedName != spelling {
				renames[spelling] = b.Import.NormalizedName
			}
		case b.Entity != registry.InvalidEntity:
			target := g.reg.Entity(b.Entity)
			if target != nil && target.NormalizedName != spelling {
				renames[spelling] = target.NormalizedName
			}
		}
	}

	decl, ok := e.Handle.(*ts.DeclInfo)
	if !ok {
		return ""
	}
	return decl.Render(ts.RenderOptions{
		Renames:        renames,
		Export:         exported,
		StripConstEnum: g.opts.RespectPreserveConstEnum,
	})
}

// statementOrder returns the reachable ids in stable topological order over
// dependency edges, a visiting guard skipping cycle back-edges. Non-exported
// entities order before exported ones as a secondary key so the public
// surface reads last.
func (g *Generator) statementOrder() ([]registry.EntityID, error) {
	ids := make([]registry.EntityID, 0, len(g.shake.Used))
	for id := range g.shake.Used {
		ids = append(ids, id)
	}

	if g.opts.SortNodes {
		sort.Slice(ids, func(i, j int) bool {
			a, b := g.reg.Entity(ids[i]), g.reg.Entity(ids[j])
			if a.NormalizedName != b.NormalizedName {
				return a.NormalizedName < b.NormalizedName
			}
			return ids[i] < ids[j]
		})
		return ids, nil
	}

	key := func(id registry.EntityID) (int, int) {
		exported := 0
		if g.emitExport(id, g.reg.Entity(id)) {
			exported = 1
		}
		return exported, g.shake.Order[id]
	}
	sort.Slice(ids, func(i, j int) bool {
		ei, oi := key(ids[i])
		ej, oj := key(ids[j])
		if ei != ej {
			return ei < ej
		}
		return oi < oj
	})

	adjacency, err := g.deps.AdjacencyMap()
	if err != nil {
		return nil, fmt.Errorf("failed to read dependency graph: %w", err)
	}

	var order []registry.EntityID
	done := make(map[registry.EntityID]bool)
	visiting := make(map[registry.EntityID]bool)

	var visit func(id registry.EntityID)
	visit = func(id registry.EntityID) {
		if done[id] || visiting[id] {
			return // visiting guard: back-edges of cycles are skipped
		}
		if _, used := g.shake.Used[id]; !used {
			return
		}
		visiting[id] = true

		deps := make([]registry.EntityID, 0, len(adjacency[int(id)]))
		for dep := range adjacency[int(id)] {
			deps = append(deps, registry.EntityID(dep))
		}
		sort.Slice(deps, func(i, j int) bool {
			ei, oi := key(deps[i])
			ej, oj := key(deps[j])
			if ei != ej {
				return ei < ej
			}
			return oi < oj
		})
		for _, dep := range deps {
			visit(dep)
		}

		visiting[id] = false
		done[id] = true
		order = append(order, id)
	}

	for _, id := range ids {
		visit(id)
	}
	return order, nil
}

// referenceDirectives emits reference-only libraries as lightweight
// directives, filtered by the allowed types libraries list.
func (g *Generator) referenceDirectives() []string {
	var lines []string
	for _, tag := range g.shake.ReferenceLibraries {
		if !allowed(g.opts.AllowedTypesLibraries, tag) {
			log.Printf("Warning: reference to types library %q is not allowed, dropped", tag)
			continue
		}
		lines = append(lines, fmt.Sprintf("/// <reference types=%q />", tag))
	}
	return lines
}

func allowed(list []string, name string) bool {
	if list == nil {
		return true
	}
	for _, allowed := range list {
		if allowed == name {
			return true
		}
	}
	return false
}
