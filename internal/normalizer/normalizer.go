package normalizer

import (
	"sort"
	"strconv"
	"strings"

	"github.com/mvp-joe/declbundle/internal/collector"
	"github.com/mvp-joe/declbundle/internal/registry"
)

// GlobalOracle answers whether an identifier resolves to an ambient global.
type GlobalOracle interface {
	IsAmbientGlobal(name string) bool
}

// Normalizer assigns every entity and external import a globally-unique
// normalized name in the flattened namespace while preserving legal
// declaration merging. Counters are instance state so the algorithm stays
// reentrant.
type Normalizer struct {
	reg     *registry.Registry
	modules *collector.ModuleSet
	oracle  GlobalOracle

	counters      map[string]int
	entryExported map[string]bool
	entryImports  map[string]int // module identifier/specifier -> first import position in entry
}

// New creates a normalizer for one run.
func New(reg *registry.Registry, modules *collector.ModuleSet, oracle GlobalOracle) *Normalizer {
	n := &Normalizer{
		reg:      reg,
		modules:  modules,
		oracle:   oracle,
		counters: make(map[string]int),
	}
	n.entryExported = n.collectEntryExported()
	n.entryImports = n.collectEntryImportOrder()
	return n
}

// Normalize runs the pre-shake pass: declaration collision groups, ambient
// global protection, external import spelling, and cross-category conflicts.
func (n *Normalizer) Normalize() {
	n.normalizeDeclarations()
	n.protectGlobals()
	n.normalizeImports()
	n.resolveCrossCategory()
}

// normalizeDeclarations groups entities by their current normalized name
// and suffixes every group member outside the top-priority module.
func (n *Normalizer) normalizeDeclarations() {
	groups := n.declarationGroups()

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		group := groups[name]
		if len(group) < 2 || n.exemptGroup(group) {
			continue
		}

		modules := partitionByModule(group)
		n.rankModules(modules, name)

		// The top-ranked module keeps the unsuffixed spelling.
		for _, part := range modules[1:] {
			suffixed := n.nextName(name)
			for _, e := range part.entities {
				e.NormalizedName = suffixed
			}
		}
	}
}

// declarationGroups groups all entities by current normalized name.
func (n *Normalizer) declarationGroups() map[string][]*registry.DeclarationEntity {
	groups := make(map[string][]*registry.DeclarationEntity)
	for _, e := range n.reg.Entities() {
		groups[e.NormalizedName] = append(groups[e.NormalizedName], e)
	}
	return groups
}

// exemptGroup reports whether a same-name group is legal declaration
// merging rather than a collision: an explicit shared merge-group tag,
// force-included interface augmentations, or an interface+namespace merge.
func (n *Normalizer) exemptGroup(group []*registry.DeclarationEntity) bool {
	tag := group[0].MergeGroup
	sharedTag := tag != ""
	allInterfaces := true
	anyForced := false
	interfaceNamespaceOnly := true
	sawInterface, sawModule := false, false

	for _, e := range group {
		if e.MergeGroup != tag {
			sharedTag = false
		}
		if e.Kind != registry.KindInterface {
			allInterfaces = false
		}
		if e.ForceInclude {
			anyForced = true
		}
		switch e.Kind {
		case registry.KindInterface:
			sawInterface = true
		case registry.KindModule:
			sawModule = true
		default:
			interfaceNamespaceOnly = false
		}
	}

	if sharedTag {
		return true
	}
	if allInterfaces && anyForced {
		return true
	}
	if interfaceNamespaceOnly && sawInterface && sawModule {
		return true
	}
	return false
}

// modulePartition is one module's slice of a collision group.
type modulePartition struct {
	module   string
	entities []*registry.DeclarationEntity
}

func partitionByModule(group []*registry.DeclarationEntity) []*modulePartition {
	index := make(map[string]*modulePartition)
	var parts []*modulePartition
	for _, e := range group {
		part, ok := index[e.Module]
		if !ok {
			part = &modulePartition{module: e.Module}
			index[e.Module] = part
			parts = append(parts, part)
		}
		part.entities = append(part.entities, e)
	}
	return parts
}

// protectGlobals renames declarations that shadow a true ambient global,
// unless they live inside a global augmentation block (intentional
// shadowing).
func (n *Normalizer) protectGlobals() {
	for _, e := range n.reg.Entities() {
		if e.GlobalAugmentation {
			continue
		}
		if n.oracle != nil && n.oracle.IsAmbientGlobal(e.NormalizedName) {
			e.NormalizedName = n.nextName(e.NormalizedName)
		}
	}
}

// normalizeImports groups external imports by local binding spelling; the
// first occurrence keeps its spelling, later ones are suffixed. The
// descriptor shape is preserved — only the local spelling changes.
func (n *Normalizer) normalizeImports() {
	seen := make(map[string]bool)
	for _, imp := range n.reg.Externals() {
		if !seen[imp.NormalizedName] {
			seen[imp.NormalizedName] = true
			continue
		}
		imp.NormalizedName = n.nextName(imp.NormalizedName)
		seen[imp.NormalizedName] = true
	}
}

// resolveCrossCategory settles conflicts between declaration names and
// import spellings: declarations yield to protected entry-pinned external
// names, imports yield to everything else.
func (n *Normalizer) resolveCrossCategory() {
	pinned := n.entryPinnedImportNames()

	for _, e := range n.reg.Entities() {
		if pinned[e.NormalizedName] {
			e.NormalizedName = n.nextName(e.NormalizedName)
		}
	}

	declNames := make(map[string]bool)
	for _, e := range n.reg.Entities() {
		declNames[e.NormalizedName] = true
	}
	for _, imp := range n.reg.Externals() {
		if declNames[imp.NormalizedName] && !pinned[imp.NormalizedName] {
			imp.NormalizedName = n.nextName(imp.NormalizedName)
		}
	}
}

// entryPinnedImportNames returns the local spellings of external imports
// that appear directly in the entry module.
func (n *Normalizer) entryPinnedImportNames() map[string]bool {
	pinned := make(map[string]bool)
	entry := n.modules.Module(n.modules.Entry)
	if entry == nil {
		return pinned
	}
	for _, stmt := range entry.File.Statements {
		rec := stmt.Import
		if rec == nil {
			continue
		}
		if _, inlined := entry.Resolved[rec.Module]; inlined {
			continue
		}
		for _, name := range rec.Named {
			pinned[name.Local()] = true
		}
		if rec.Default != "" {
			pinned[rec.Default] = true
		}
		if rec.Namespace != "" {
			pinned[rec.Namespace] = true
		}
		if rec.Require != "" {
			pinned[rec.Require] = true
		}
	}
	return pinned
}

// nextName produces the next suffixed variant of a base name using the
// run-scoped counter, skipping spellings already in use. `$` separates by
// default; `_` is used only when the base name already appears with
// underscore-style suffixes in the input.
func (n *Normalizer) nextName(base string) string {
	sep := "$"
	if n.underscoreStyle(base) {
		sep = "_"
	}
	for {
		n.counters[base]++
		candidate := base + sep + strconv.Itoa(n.counters[base])
		if !n.nameTaken(candidate) {
			return candidate
		}
	}
}

// nameTaken reports whether any entity or import currently spells itself
// with the given name.
func (n *Normalizer) nameTaken(name string) bool {
	for _, e := range n.reg.Entities() {
		if e.NormalizedName == name {
			return true
		}
	}
	for _, imp := range n.reg.Externals() {
		if imp.NormalizedName == name {
			return true
		}
	}
	return false
}

// underscoreStyle reports whether any original spelling in the run already
// uses `base_N` numbering.
func (n *Normalizer) underscoreStyle(base string) bool {
	prefix := base + "_"
	for _, e := range n.reg.Entities() {
		if rest, ok := strings.CutPrefix(e.Name, prefix); ok && isDigits(rest) {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
