package shaker

import (
	"sort"

	"github.com/mvp-joe/declbundle/internal/collector"
	"github.com/mvp-joe/declbundle/internal/registry"
)

// Result is the reachable subset computed from the published roots.
type Result struct {
	// Used is the reachable entity-id set. Marking is monotonic: once an
	// id is here it never leaves.
	Used map[registry.EntityID]struct{}

	// Order records the first time each id was reached, for stable
	// tie-breaking downstream.
	Order map[registry.EntityID]int

	// Roots maps root entities to their published name in the entry's
	// expanded export surface. Force-included entities appear with "".
	Roots map[registry.EntityID]string

	// UsedImports is the subset of external imports actually referenced
	// from reachable entities.
	UsedImports map[*registry.ExternalImport]struct{}

	// ReferenceLibraries holds reference-only library tags detected among
	// used modules, sorted.
	ReferenceLibraries []string

	// DefaultExport / EqualsExport are the entities published as
	// `export default` / `export =` from the entry, if any.
	DefaultExport registry.EntityID
	EqualsExport  registry.EntityID
}

// Shaker computes the reachable entity set from the published roots.
type Shaker struct {
	reg     *registry.Registry
	modules *collector.ModuleSet
	refTags map[string][]string // module identifier -> reference-only tags
	next    int
	result  *Result
}

// New creates a shaker. refTags carries each module's reference-only
// library tags (from triple-slash directives) so usage can be recorded when
// the module contributes a reachable entity.
func New(reg *registry.Registry, modules *collector.ModuleSet, refTags map[string][]string) *Shaker {
	return &Shaker{
		reg:     reg,
		modules: modules,
		refTags: refTags,
	}
}

// Shake computes the reachable subset. Running it twice on the same
// post-normalize graph yields an identical used-set.
func (s *Shaker) Shake() *Result {
	s.next = 0
	s.result = &Result{
		Used:          make(map[registry.EntityID]struct{}),
		Order:         make(map[registry.EntityID]int),
		Roots:         make(map[registry.EntityID]string),
		UsedImports:   make(map[*registry.ExternalImport]struct{}),
		DefaultExport: registry.InvalidEntity,
		EqualsExport:  registry.InvalidEntity,
	}

	// Force-included entities are unconditional roots, in registration
	// order.
	for _, e := range s.reg.Entities() {
		if e.ForceInclude {
			if _, ok := s.result.Roots[e.ID]; !ok {
				s.result.Roots[e.ID] = ""
			}
			s.mark(e.ID)
		}
	}

	s.expandEntrySurface()

	refSet := make(map[string]struct{})
	for id := range s.result.Used {
		e := s.reg.Entity(id)
		for _, tag := range s.refTags[e.Module] {
			refSet[tag] = struct{}{}
		}
	}
	for tag := range refSet {
		s.result.ReferenceLibraries = append(s.result.ReferenceLibraries, tag)
	}
	sort.Strings(s.result.ReferenceLibraries)

	return s.result
}

// expandEntrySurface resolves every name in the entry module's fully
// expanded export surface and marks the resolved entities as roots.
func (s *Shaker) expandEntrySurface() {
	expanded := s.expandSurface(s.modules.Entry, make(map[string]bool))

	names := make([]string, 0, len(expanded))
	for name := range expanded {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, id := range expanded[name] {
			if _, ok := s.result.Roots[id]; !ok || s.result.Roots[id] == "" {
				s.result.Roots[id] = name
			}
			s.mark(id)
		}
	}

	surface := s.reg.Surface(s.modules.Entry)
	if surface.Default != "" {
		if e := s.reg.Lookup(surface.Default, s.modules.Entry); e != nil {
			s.result.DefaultExport = e.ID
			s.mark(e.ID)
		}
	}
	if surface.Equals != "" {
		if e := s.reg.Lookup(surface.Equals, s.modules.Entry); e != nil {
			s.result.EqualsExport = e.ID
			s.mark(e.ID)
		}
	}
}

// expandSurface returns published name -> entity ids for one module,
// following star and namespace re-export chains. Deeper chains are expanded
// before the module's own names so explicit exports override star-provided
// ones. The visited set guards re-export cycles.
func (s *Shaker) expandSurface(module string, visited map[string]bool) map[string][]registry.EntityID {
	if visited[module] {
		return nil
	}
	visited[module] = true

	mod := s.modules.Module(module)
	surface := s.reg.Surface(module)
	expanded := make(map[string][]registry.EntityID)

	if mod != nil {
		for _, from := range surface.Stars {
			target, ok := mod.Resolved[from]
			if !ok {
				continue
			}
			for name, ids := range s.expandSurface(target, visited) {
				expanded[name] = ids
			}
		}

		// Namespace re-exports publish a module object rather than a
		// single entity; the target surface still ships so references
		// through the namespace stay resolvable.
		froms := make([]string, 0, len(surface.Namespaces))
		for _, from := range surface.Namespaces {
			froms = append(froms, from)
		}
		sort.Strings(froms)
		for _, from := range froms {
			target, ok := mod.Resolved[from]
			if !ok {
				continue
			}
			for _, ids := range s.expandSurface(target, visited) {
				for _, id := range ids {
					s.mark(id)
				}
			}
		}
	}

	names := make([]string, 0, len(surface.Names))
	for name := range surface.Names {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		en := surface.Names[name]
		if en.From != "" {
			if mod == nil {
				continue
			}
			target, ok := mod.Resolved[en.From]
			if !ok {
				continue
			}
			if ids := s.resolveIn(target, en.Local, make(map[string]bool)); len(ids) > 0 {
				expanded[name] = ids
			}
			continue
		}
		if ids := s.localEntities(module, en.Local); len(ids) > 0 {
			expanded[name] = ids
		}
	}

	return expanded
}

// resolveIn resolves one exported name inside a module, chasing re-export
// chains.
func (s *Shaker) resolveIn(module, name string, visited map[string]bool) []registry.EntityID {
	if visited[module] {
		return nil
	}
	visited[module] = true

	surface := s.reg.Surface(module)
	mod := s.modules.Module(module)

	if en, ok := surface.Names[name]; ok {
		if en.From != "" && mod != nil {
			if target, ok := mod.Resolved[en.From]; ok {
				return s.resolveIn(target, en.Local, visited)
			}
			return nil
		}
		return s.localEntities(module, en.Local)
	}

	if ids := s.localEntities(module, name); len(ids) > 0 {
		return ids
	}

	if mod != nil {
		for _, from := range surface.Stars {
			target, ok := mod.Resolved[from]
			if !ok {
				continue
			}
			if ids := s.resolveIn(target, name, visited); len(ids) > 0 {
				return ids
			}
		}
	}
	return nil
}

func (s *Shaker) localEntities(module, name string) []registry.EntityID {
	entities := s.reg.LookupAll(name, module)
	ids := make([]registry.EntityID, 0, len(entities))
	for _, e := range entities {
		ids = append(ids, e.ID)
	}
	return ids
}

// mark transitively closes over dependency edges from one root. Marking is
// monotonic; external-import usages are recorded along the way.
func (s *Shaker) mark(id registry.EntityID) {
	if id == registry.InvalidEntity {
		return
	}
	if _, ok := s.result.Used[id]; ok {
		return
	}
	e := s.reg.Entity(id)
	if e == nil {
		return
	}

	s.result.Used[id] = struct{}{}
	s.result.Order[id] = s.next
	s.next++
	e.Reachable = true

	for _, b := range e.Bindings {
		if b.Import != nil {
			s.result.UsedImports[b.Import] = struct{}{}
		}
	}

	deps := make([]registry.EntityID, 0, len(e.Dependencies))
	for dep := range e.Dependencies {
		deps = append(deps, dep)
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i] < deps[j] })
	for _, dep := range deps {
		s.mark(dep)
	}
}
