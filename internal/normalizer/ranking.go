package normalizer

import (
	"math"
	"path/filepath"
	"sort"
	"strings"
)

// moduleRank is the deterministic priority chain deciding which module's
// members keep an unsuffixed colliding name. Lower sorts first (wins).
type moduleRank struct {
	notEntryExported int // modules published by the entry surface win
	noExports        int // any export marker beats none
	exportEquals     int // export-equals modules rank after plain exports
	namespaceOnly    int // namespace-only modules rank last among exports
	importOrder      int // position in the entry's own import/export order
	basenameMiss     int // module basename matching the colliding name
	path             string
	discovery        int
}

func (r moduleRank) less(o moduleRank) bool {
	if r.notEntryExported != o.notEntryExported {
		return r.notEntryExported < o.notEntryExported
	}
	if r.noExports != o.noExports {
		return r.noExports < o.noExports
	}
	if r.exportEquals != o.exportEquals {
		return r.exportEquals < o.exportEquals
	}
	if r.namespaceOnly != o.namespaceOnly {
		return r.namespaceOnly < o.namespaceOnly
	}
	if r.importOrder != o.importOrder {
		return r.importOrder < o.importOrder
	}
	if r.basenameMiss != o.basenameMiss {
		return r.basenameMiss < o.basenameMiss
	}
	if r.path != o.path {
		return r.path < o.path
	}
	return r.discovery < o.discovery
}

// rankModules orders the partitions of one collision group by priority.
func (n *Normalizer) rankModules(parts []*modulePartition, base string) {
	ranks := make(map[string]moduleRank, len(parts))
	for _, part := range parts {
		ranks[part.module] = n.moduleRank(part.module, base)
	}
	sort.SliceStable(parts, func(i, j int) bool {
		return ranks[parts[i].module].less(ranks[parts[j].module])
	})
}

func (n *Normalizer) moduleRank(module, base string) moduleRank {
	surface := n.reg.Surface(module)
	rank := moduleRank{
		notEntryExported: 1,
		noExports:        1,
		importOrder:      math.MaxInt32,
		basenameMiss:     1,
		path:             module,
		discovery:        math.MaxInt32,
	}

	if n.entryExported[module] {
		rank.notEntryExported = 0
	}
	if n.reg.HasSurface(module) {
		rank.noExports = 0
	}
	if surface.Equals != "" {
		rank.exportEquals = 1
	}
	if len(surface.Namespaces) > 0 && len(surface.Names) == 0 &&
		len(surface.Stars) == 0 && surface.Equals == "" && surface.Default == "" {
		rank.namespaceOnly = 1
	}
	if pos, ok := n.entryImports[module]; ok {
		rank.importOrder = pos
	}
	if strings.EqualFold(moduleBasename(module), base) {
		rank.basenameMiss = 0
	}
	for i, name := range n.modules.Order {
		if name == module {
			rank.discovery = i
			break
		}
	}
	return rank
}

// moduleBasename strips the directory and declaration-file extensions from
// a module identifier.
func moduleBasename(module string) string {
	base := filepath.Base(module)
	base = strings.TrimSuffix(base, ".d.ts")
	base = strings.TrimSuffix(base, ".ts")
	return base
}

// collectEntryExported returns the set of modules transitively published by
// the entry module's export surface.
func (n *Normalizer) collectEntryExported() map[string]bool {
	exported := make(map[string]bool)
	var visit func(module string)
	visit = func(module string) {
		if exported[module] {
			return
		}
		exported[module] = true

		mod := n.modules.Module(module)
		if mod == nil {
			return
		}
		surface := n.reg.Surface(module)

		var froms []string
		for _, en := range surface.Names {
			if en.From != "" {
				froms = append(froms, en.From)
			}
		}
		froms = append(froms, surface.Stars...)
		for _, from := range surface.Namespaces {
			froms = append(froms, from)
		}
		sort.Strings(froms)
		for _, from := range froms {
			if target, ok := mod.Resolved[from]; ok {
				visit(target)
			}
		}
	}
	visit(n.modules.Entry)
	return exported
}

// collectEntryImportOrder records the first position of each module in the
// entry module's own import/export statement order.
func (n *Normalizer) collectEntryImportOrder() map[string]int {
	order := make(map[string]int)
	entry := n.modules.Module(n.modules.Entry)
	if entry == nil {
		return order
	}
	for i, name := range entry.ImportOrder {
		if _, ok := order[name]; !ok {
			order[name] = i
		}
	}
	return order
}
