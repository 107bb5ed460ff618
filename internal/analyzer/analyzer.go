package analyzer

import (
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/dominikbraun/graph"

	"github.com/mvp-joe/declbundle/internal/collector"
	"github.com/mvp-joe/declbundle/internal/registry"
	"github.com/mvp-joe/declbundle/internal/ts"
)

// Analyzer resolves free identifier references inside each entity's subtree
// into dependency edges on the registry. Edges are also mirrored into a
// directed graph consumed by the shaker and the output generator.
type Analyzer struct {
	reg     *registry.Registry
	modules *collector.ModuleSet
	graph   graph.Graph[int, int]
}

// binding is one entry of a module's local alias table.
type binding struct {
	entity    registry.EntityID
	imported  *registry.ExternalImport
	namespace bool   // binds a namespace qualifier
	origin    string // exported spelling in the origin module
}

// New creates an analyzer over the shared registry and the collected module
// set.
func New(reg *registry.Registry, modules *collector.ModuleSet) *Analyzer {
	return &Analyzer{
		reg:     reg,
		modules: modules,
		graph:   graph.New(graph.IntHash, graph.Directed()),
	}
}

// Graph returns the dependency graph built during analysis.
func (a *Analyzer) Graph() graph.Graph[int, int] { return a.graph }

// Analyze resolves references for every registered entity. Reference
// resolution order per spec: local alias table (external import or inlined
// entity), then same-module declarations, then ambient/global fallthrough.
func (a *Analyzer) Analyze() error {
	for _, e := range a.reg.Entities() {
		if err := a.graph.AddVertex(int(e.ID)); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return fmt.Errorf("failed to add vertex for %s: %w", e.Name, err)
		}
	}

	tables := make(map[string]map[string]binding)
	for _, name := range a.modules.Order {
		tables[name] = a.buildAliasTable(a.modules.Module(name))
	}
	a.pinEntryExportAliases()

	for _, e := range a.reg.Entities() {
		table := tables[e.Module]
		if table == nil {
			table = map[string]binding{}
		}
		if err := a.analyzeEntity(e, table); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyzer) analyzeEntity(e *registry.DeclarationEntity, table map[string]binding) error {
	decl, ok := e.Handle.(*ts.DeclInfo)
	if !ok {
		return nil
	}

	for _, ref := range decl.References() {
		if b, ok := table[ref.Name]; ok {
			a.applyBinding(e, ref, b)
			continue
		}

		// Same-module declaration; merged declarations all become edges.
		if targets := a.reg.LookupAll(ref.Name, e.Module); len(targets) > 0 {
			for _, target := range targets {
				a.addEdge(e, target.ID)
			}
			e.Bindings[ref.Name] = registry.Binding{Entity: targets[0].ID}
			continue
		}

		// Unresolved: ambient or global, no edge. The normalizer later
		// checks declared names against protected globals.
	}
	return nil
}

func (a *Analyzer) applyBinding(e *registry.DeclarationEntity, ref ts.Ref, b binding) {
	switch {
	case b.imported != nil:
		mod := b.imported.Module
		if e.ExternalUses[mod] == nil {
			e.ExternalUses[mod] = make(map[string]struct{})
		}
		used := b.imported.Name
		if used == "" {
			used = b.imported.LocalName
		}
		e.ExternalUses[mod][used] = struct{}{}
		if b.namespace {
			e.NamespaceUses[b.imported.LocalName] = struct{}{}
		}
		if !e.TypeOnly {
			b.imported.ValueUsage = true
		}
		e.Bindings[ref.Name] = registry.Binding{Entity: registry.InvalidEntity, Import: b.imported}
		if b.origin != "" && b.origin != ref.Name {
			e.Aliases[ref.Name] = b.origin
		}
	case b.entity != registry.InvalidEntity:
		a.addEdge(e, b.entity)
		e.Bindings[ref.Name] = registry.Binding{Entity: b.entity}
		if b.origin != "" && b.origin != ref.Name {
			e.Aliases[ref.Name] = b.origin
		}
	}
}

// addEdge records a dependency edge on both the entity and the mirrored
// graph. Cycles are legal: declaration cross-references carry no
// initialization order.
func (a *Analyzer) addEdge(e *registry.DeclarationEntity, target registry.EntityID) {
	if target == e.ID || target == registry.InvalidEntity {
		return
	}
	e.Dependencies[target] = struct{}{}
	if err := a.graph.AddEdge(int(e.ID), int(target)); err != nil &&
		!errors.Is(err, graph.ErrEdgeAlreadyExists) {
		log.Printf("Warning: dependency edge %d->%d dropped: %v", e.ID, target, err)
	}
}

// pinEntryExportAliases pins the output spelling of entities the entry
// publishes under a different name: `export { Foo as Bar }` in the entry
// (local or re-export) renames Foo to Bar everywhere in the bundle, the same
// rule entry import aliases follow. The published surface defines the output
// names; any collision this creates is settled by the normalizer, where the
// entry-exported module ranks first.
func (a *Analyzer) pinEntryExportAliases() {
	entry := a.modules.Entry
	mod := a.modules.Module(entry)
	surface := a.reg.Surface(entry)

	published := make([]string, 0, len(surface.Names))
	for name := range surface.Names {
		published = append(published, name)
	}
	sort.Strings(published)

	for _, name := range published {
		if name == "default" {
			continue
		}
		en := surface.Names[name]

		id := registry.InvalidEntity
		if en.From != "" {
			if mod == nil {
				continue
			}
			target, ok := mod.Resolved[en.From]
			if !ok {
				continue
			}
			id = a.resolveExport(target, en.Local, nil)
		} else if e := a.reg.Lookup(en.Local, entry); e != nil {
			id = e.ID
		}
		if id == registry.InvalidEntity {
			continue
		}

		e := a.reg.Entity(id)
		if e.Name == name {
			continue
		}
		for _, merged := range a.reg.LookupAll(e.Name, e.Module) {
			merged.NormalizedName = name
		}
	}
}

// buildAliasTable maps every imported local spelling of a module to its
// resolved binding.
func (a *Analyzer) buildAliasTable(mod *collector.Module) map[string]binding {
	table := make(map[string]binding)
	if mod == nil {
		return table
	}

	for _, stmt := range mod.File.Statements {
		rec := stmt.Import
		if rec == nil || rec.Module == "" {
			continue
		}
		target, inlined := mod.Resolved[rec.Module]

		for _, n := range rec.Named {
			local := n.Local()
			if inlined {
				if id := a.resolveExport(target, n.Name, nil); id != registry.InvalidEntity {
					table[local] = binding{entity: id, origin: n.Name}
					// An entry-module alias pins the output spelling:
					// `import { Foo as Bar }` in the entry renames Foo
					// to Bar everywhere in the bundle.
					if n.Alias != "" && mod.Name == a.modules.Entry {
						for _, merged := range a.reg.LookupAll(a.reg.Entity(id).Name, a.reg.Entity(id).Module) {
							merged.NormalizedName = n.Alias
						}
					}
				} else {
					log.Printf("Warning: %s does not export %q (imported by %s)", target, n.Name, mod.Name)
				}
				continue
			}
			imp := a.reg.RegisterExternal(rec.Module, registry.ShapeNamed, n.Name, local,
				rec.TypeOnly || n.TypeOnly, "")
			table[local] = binding{entity: registry.InvalidEntity, imported: imp, origin: n.Name}
		}

		if rec.Default != "" {
			if inlined {
				if id := a.resolveDefault(target); id != registry.InvalidEntity {
					table[rec.Default] = binding{entity: id}
				}
			} else {
				imp := a.reg.RegisterExternal(rec.Module, registry.ShapeDefault, "", rec.Default, rec.TypeOnly, "")
				table[rec.Default] = binding{entity: registry.InvalidEntity, imported: imp}
			}
		}

		if rec.Namespace != "" {
			if inlined {
				// A namespace import of an inlined module has no single
				// entity to bind to; keep it as an external reference so
				// qualified uses stay valid.
				log.Printf("Warning: namespace import of inlined module %q in %s is kept external", rec.Module, mod.Name)
			}
			imp := a.reg.RegisterExternal(rec.Module, registry.ShapeNamespace, "", rec.Namespace, rec.TypeOnly, "")
			table[rec.Namespace] = binding{entity: registry.InvalidEntity, imported: imp, namespace: true}
		}

		if rec.Require != "" {
			if inlined {
				if id := a.resolveEquals(target); id != registry.InvalidEntity {
					table[rec.Require] = binding{entity: id}
					continue
				}
			}
			imp := a.reg.RegisterExternal(rec.Module, registry.ShapeEquals, "", rec.Require, false, "")
			table[rec.Require] = binding{entity: registry.InvalidEntity, imported: imp}
		}
	}
	return table
}

// resolveExport resolves a published name of a module to a local entity,
// chasing re-export chains and star exports with a visited-module guard.
func (a *Analyzer) resolveExport(module, name string, visited map[string]bool) registry.EntityID {
	if visited == nil {
		visited = make(map[string]bool)
	}
	if visited[module] {
		return registry.InvalidEntity
	}
	visited[module] = true

	mod := a.modules.Module(module)
	surface := a.reg.Surface(module)

	if en, ok := surface.Names[name]; ok {
		if en.From != "" && mod != nil {
			if target, ok := mod.Resolved[en.From]; ok {
				return a.resolveExport(target, en.Local, visited)
			}
			return registry.InvalidEntity
		}
		if e := a.reg.Lookup(en.Local, module); e != nil {
			return e.ID
		}
	}

	if e := a.reg.Lookup(name, module); e != nil {
		return e.ID
	}

	for _, from := range surface.Stars {
		if mod == nil {
			break
		}
		target, ok := mod.Resolved[from]
		if !ok {
			continue
		}
		if id := a.resolveExport(target, name, visited); id != registry.InvalidEntity {
			return id
		}
	}
	return registry.InvalidEntity
}

// resolveDefault resolves a module's default export to an entity.
func (a *Analyzer) resolveDefault(module string) registry.EntityID {
	surface := a.reg.Surface(module)
	if surface.Default != "" {
		if e := a.reg.Lookup(surface.Default, module); e != nil {
			return e.ID
		}
	}
	for _, e := range a.reg.ModuleEntities(module) {
		switch e.Export {
		case registry.Default, registry.DefaultOnly, registry.NamedAndDefault:
			return e.ID
		}
	}
	return registry.InvalidEntity
}

// resolveEquals resolves a module's export-equals target to an entity.
func (a *Analyzer) resolveEquals(module string) registry.EntityID {
	surface := a.reg.Surface(module)
	if surface.Equals == "" {
		return registry.InvalidEntity
	}
	if e := a.reg.Lookup(surface.Equals, module); e != nil {
		return e.ID
	}
	return registry.InvalidEntity
}
