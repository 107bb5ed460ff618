package bundler

import (
	"github.com/mvp-joe/declbundle/internal/collector"
	"github.com/mvp-joe/declbundle/internal/registry"
	"github.com/mvp-joe/declbundle/internal/ts"
)

// registrar ingests the collected module set into the registry: one entity
// per named declaration, plus each module's export surface. It also feeds
// the global oracle with names declared inside global augmentation blocks.
type registrar struct {
	reg     *registry.Registry
	oracle  *ts.GlobalOracle
	modules *collector.ModuleSet
	opts    Options

	// umdName is the identifier of an `export as namespace X;` statement
	// found in the entry module, "" if none.
	umdName string
}

func (r *registrar) run() {
	for _, name := range r.modules.Order {
		r.registerModule(r.modules.Module(name))
	}
	r.tagMergeGroups()
	r.upgradeExports()
}

func (r *registrar) registerModule(mod *collector.Module) {
	isEntry := mod.Name == r.modules.Entry

	for _, stmt := range mod.File.Statements {
		switch stmt.Kind {
		case ts.StmtDeclaration:
			for _, d := range stmt.Decls {
				r.registerDecl(mod, d, isEntry)
			}
		case ts.StmtExport:
			r.registerExport(mod, stmt.Export, isEntry)
		}
	}
}

func (r *registrar) registerDecl(mod *collector.Module, d *ts.DeclInfo, isEntry bool) {
	e := r.reg.NewEntity(d.Name, mod.Name, d.Kind, d)
	e.Export = d.Export
	e.TypeOnly = d.TypeOnly()

	switch {
	case d.Global:
		e.GlobalAugmentation = true
		// Global augmentations have no importable name, so reachability
		// cannot discover them; they ship by force or not at all.
		if isEntry || r.opts.InlineDeclareGlobals {
			e.ForceInclude = true
		}
		for _, name := range ts.GlobalMembers(d) {
			r.oracle.AddGlobal(name)
		}
	case d.AmbientModule != "":
		if isEntry || r.opts.InlineDeclareExternals {
			e.ForceInclude = true
		}
	}

	switch d.Export {
	case registry.Named, registry.NamedAndDefault:
		r.reg.RegisterExportedName(mod.Name, d.Name, d.Name, "")
	}
	switch d.Export {
	case registry.Default, registry.NamedAndDefault, registry.DefaultOnly:
		r.reg.RegisterDefaultExport(mod.Name, d.Name)
	}
}

func (r *registrar) registerExport(mod *collector.Module, rec *ts.ExportRecord, isEntry bool) {
	for _, n := range rec.Named {
		// In an export clause the alias is the published spelling and the
		// name is the local (or origin-module) spelling.
		r.reg.RegisterExportedName(mod.Name, n.Local(), n.Name, rec.From)
	}
	if rec.Star && rec.From != "" {
		r.reg.RegisterStarExport(mod.Name, rec.From)
	}
	if rec.Namespace != "" && rec.From != "" {
		r.reg.RegisterNamespaceExport(mod.Name, rec.Namespace, rec.From)
	}
	if rec.Default != "" {
		r.reg.RegisterDefaultExport(mod.Name, rec.Default)
	}
	if rec.Equals != "" {
		r.reg.RegisterExportEquals(mod.Name, rec.Equals)
	}
	if rec.UMDName != "" && isEntry && r.umdName == "" {
		r.umdName = rec.UMDName
	}
}

// tagMergeGroups marks same-module same-name entity groups as intentional
// declaration merging so the normalizer leaves their shared spelling alone.
func (r *registrar) tagMergeGroups() {
	for _, module := range r.reg.Modules() {
		counts := make(map[string]int)
		for _, e := range r.reg.ModuleEntities(module) {
			counts[e.Name]++
		}
		for _, e := range r.reg.ModuleEntities(module) {
			if counts[e.Name] > 1 {
				e.MergeGroup = module + "#" + e.Name
			}
		}
	}
}

// upgradeExports reconciles entity export classifications with the export
// surface built from standalone export statements: `export { Foo }` and
// `export default Foo` placed after a declaration upgrade that
// declaration's classification.
func (r *registrar) upgradeExports() {
	for _, module := range r.reg.Modules() {
		surface := r.reg.Surface(module)

		for _, en := range surface.Names {
			if en.From != "" {
				continue
			}
			for _, e := range r.reg.LookupAll(en.Local, module) {
				switch e.Export {
				case registry.NotExported:
					e.Export = registry.Named
				case registry.Default, registry.DefaultOnly:
					e.Export = registry.NamedAndDefault
				}
			}
		}

		if surface.Default != "" {
			for _, e := range r.reg.LookupAll(surface.Default, module) {
				switch e.Export {
				case registry.NotExported:
					e.Export = registry.Default
				case registry.Named:
					e.Export = registry.NamedAndDefault
				}
			}
		}

		if surface.Equals != "" {
			for _, e := range r.reg.LookupAll(surface.Equals, module) {
				if e.Export == registry.NotExported {
					e.Export = registry.Equals
				}
			}
		}
	}
}
