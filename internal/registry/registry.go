package registry

import "sort"

// Registry is the passive shared store for declaration entities, external
// import records, and per-module export surfaces. It performs merge-safe
// upserts and lookups only; all graph logic lives in the analyzer, the
// normalizer, and the shaker.
type Registry struct {
	entities []*DeclarationEntity
	byModule map[string][]*DeclarationEntity
	byName   map[moduleName][]*DeclarationEntity

	externals     map[externalKey]*ExternalImport
	externalOrder []*ExternalImport

	surfaces map[string]*ExportSurface
}

type moduleName struct {
	module string
	name   string
}

type externalKey struct {
	module string
	shape  ImportShape
	name   string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		byModule:  make(map[string][]*DeclarationEntity),
		byName:    make(map[moduleName][]*DeclarationEntity),
		externals: make(map[externalKey]*ExternalImport),
		surfaces:  make(map[string]*ExportSurface),
	}
}

// NewEntity creates a declaration entity, assigns it the next id, and
// registers it. The entity's NormalizedName starts as its original spelling.
func (r *Registry) NewEntity(name, module string, kind DeclarationKind, handle StatementHandle) *DeclarationEntity {
	e := &DeclarationEntity{
		ID:             EntityID(len(r.entities)),
		Name:           name,
		NormalizedName: name,
		Module:         module,
		Kind:           kind,
		Handle:         handle,
		Export:         NotExported,
		Dependencies:   make(map[EntityID]struct{}),
		ExternalUses:   make(map[string]map[string]struct{}),
		NamespaceUses:  make(map[string]struct{}),
		Aliases:        make(map[string]string),
		Bindings:       make(map[string]Binding),
		order:          len(r.entities),
	}
	r.register(e)
	return e
}

// register indexes an entity by id, module, and (module, name). The
// (module, name) index is a set: multiple entities may legally share a name
// through declaration merging.
func (r *Registry) register(e *DeclarationEntity) {
	r.entities = append(r.entities, e)
	r.byModule[e.Module] = append(r.byModule[e.Module], e)
	key := moduleName{e.Module, e.Name}
	r.byName[key] = append(r.byName[key], e)
}

// Entity returns the entity with the given id.
func (r *Registry) Entity(id EntityID) *DeclarationEntity {
	if id < 0 || int(id) >= len(r.entities) {
		return nil
	}
	return r.entities[id]
}

// Entities returns all entities in registration order.
func (r *Registry) Entities() []*DeclarationEntity {
	return r.entities
}

// ModuleEntities returns the entities owned by one module, in registration
// order.
func (r *Registry) ModuleEntities(module string) []*DeclarationEntity {
	return r.byModule[module]
}

// Lookup returns the first entity registered under (module, name), or nil.
// A miss is not an error: it signals "treat the reference as
// external/global" to the caller.
func (r *Registry) Lookup(name, module string) *DeclarationEntity {
	es := r.byName[moduleName{module, name}]
	if len(es) == 0 {
		return nil
	}
	return es[0]
}

// LookupAll returns every entity registered under (module, name) to support
// declaration merging.
func (r *Registry) LookupAll(name, module string) []*DeclarationEntity {
	return r.byName[moduleName{module, name}]
}

// RegisterExternal returns the canonical import record for the given
// binding, creating it on first sighting. Later sightings only add missing
// metadata: a value usage permanently clears the type-only flag, and a
// reference-only tag is kept once seen.
func (r *Registry) RegisterExternal(module string, shape ImportShape, name, local string, typeOnly bool, libTag string) *ExternalImport {
	key := externalKey{module: module, shape: shape, name: keyName(shape, name, local)}
	if imp, ok := r.externals[key]; ok {
		if !typeOnly {
			imp.TypeOnly = false
		}
		if libTag != "" && imp.ReferenceOnly == "" {
			imp.ReferenceOnly = libTag
		}
		return imp
	}
	imp := &ExternalImport{
		Module:         module,
		Shape:          shape,
		Name:           name,
		LocalName:      local,
		NormalizedName: local,
		TypeOnly:       typeOnly,
		ReferenceOnly:  libTag,
		order:          len(r.externalOrder),
	}
	r.externals[key] = imp
	r.externalOrder = append(r.externalOrder, imp)
	return imp
}

// keyName canonicalizes the identity of an import binding: named imports are
// identified by the imported name, every other shape by its local spelling.
func keyName(shape ImportShape, name, local string) string {
	if shape == ShapeNamed {
		return name
	}
	return local
}

// FindExternal returns the import record for (module, shape, name) if one
// has been registered.
func (r *Registry) FindExternal(module string, shape ImportShape, name string) *ExternalImport {
	return r.externals[externalKey{module: module, shape: shape, name: name}]
}

// Externals returns all external import records in registration order.
func (r *Registry) Externals() []*ExternalImport {
	return r.externalOrder
}

// Surface returns the export surface for a module, creating an empty one on
// first access so partial export information can merge across passes.
func (r *Registry) Surface(module string) *ExportSurface {
	s, ok := r.surfaces[module]
	if !ok {
		s = &ExportSurface{
			Module:     module,
			Names:      make(map[string]ExportedName),
			Namespaces: make(map[string]string),
		}
		r.surfaces[module] = s
	}
	return s
}

// HasSurface reports whether any export information was recorded for module.
func (r *Registry) HasSurface(module string) bool {
	s, ok := r.surfaces[module]
	if !ok {
		return false
	}
	return len(s.Names) > 0 || len(s.Stars) > 0 || len(s.Namespaces) > 0 || s.Equals != "" || s.Default != ""
}

// RegisterExportedName records one published name. Export lists may
// reference names before their origin is known, so repeated registrations
// merge: a later call with a From specifier fills in a previously unknown
// origin but never erases one.
func (r *Registry) RegisterExportedName(module, name, local, from string) {
	s := r.Surface(module)
	existing, ok := s.Names[name]
	if ok && from == "" {
		from = existing.From
	}
	if local == "" {
		local = name
	}
	s.Names[name] = ExportedName{Name: name, Local: local, From: from}
}

// RegisterNamespaceExport records `export * as name from "from"`.
func (r *Registry) RegisterNamespaceExport(module, name, from string) {
	s := r.Surface(module)
	s.Namespaces[name] = from
}

// RegisterStarExport records `export * from "from"`, once per specifier.
func (r *Registry) RegisterStarExport(module, from string) {
	s := r.Surface(module)
	for _, existing := range s.Stars {
		if existing == from {
			return
		}
	}
	s.Stars = append(s.Stars, from)
}

// RegisterDefaultExport records `export default X` for a module.
func (r *Registry) RegisterDefaultExport(module, local string) {
	r.Surface(module).Default = local
}

// RegisterExportEquals records `export = X` for a module.
func (r *Registry) RegisterExportEquals(module, local string) {
	r.Surface(module).Equals = local
}

// Modules returns every module that owns at least one entity, sorted for
// deterministic traversal.
func (r *Registry) Modules() []string {
	mods := make([]string, 0, len(r.byModule))
	for m := range r.byModule {
		mods = append(mods, m)
	}
	sort.Strings(mods)
	return mods
}
