package normalizer

import (
	"sort"
	"strconv"
	"strings"

	"github.com/mvp-joe/declbundle/internal/registry"
)

// CompactSuffixes runs once after tree shaking: for every base-name group it
// recomputes the distinct surviving normalized names and, when gaps exist,
// renumbers the survivors to a contiguous base, base$1, base$2... sequence.
// Relative priority between survivors never changes — only gaps close.
func (n *Normalizer) CompactSuffixes(usedEntities map[registry.EntityID]struct{}, usedImports map[*registry.ExternalImport]struct{}) {
	type survivor struct {
		name string
		num  int
	}
	groups := make(map[string][]survivor)
	sepByBase := make(map[string]string)

	collect := func(name string) {
		base, num, sep := splitSuffix(name)
		if num > 0 {
			sepByBase[base] = sep
		}
		for _, s := range groups[base] {
			if s.name == name {
				return
			}
		}
		groups[base] = append(groups[base], survivor{name: name, num: num})
	}

	for _, e := range n.reg.Entities() {
		if _, used := usedEntities[e.ID]; used || e.ForceInclude {
			collect(e.NormalizedName)
		}
	}
	for _, imp := range n.reg.Externals() {
		if _, used := usedImports[imp]; used {
			collect(imp.NormalizedName)
		}
	}

	bases := make([]string, 0, len(groups))
	for base := range groups {
		bases = append(bases, base)
	}
	sort.Strings(bases)

	for _, base := range bases {
		survivors := groups[base]
		sort.Slice(survivors, func(i, j int) bool { return survivors[i].num < survivors[j].num })

		sep := sepByBase[base]
		if sep == "" {
			sep = "$"
		}

		renames := make(map[string]string)
		for i, s := range survivors {
			target := base
			if i > 0 {
				target = base + sep + strconv.Itoa(i)
			}
			if target != s.name {
				renames[s.name] = target
			}
		}
		if len(renames) == 0 {
			continue
		}

		for _, e := range n.reg.Entities() {
			if target, ok := renames[e.NormalizedName]; ok {
				e.NormalizedName = target
			}
		}
		for _, imp := range n.reg.Externals() {
			if target, ok := renames[imp.NormalizedName]; ok {
				imp.NormalizedName = target
			}
		}
	}
}

// splitSuffix splits a normalized name into its base and numeric
// disambiguation suffix. Names without a recognized suffix return num 0.
func splitSuffix(name string) (base string, num int, sep string) {
	for _, s := range []string{"$", "_"} {
		idx := strings.LastIndex(name, s)
		if idx <= 0 || idx == len(name)-1 {
			continue
		}
		tail := name[idx+1:]
		if !isDigits(tail) {
			continue
		}
		value, err := strconv.Atoi(tail)
		if err != nil || value == 0 {
			continue
		}
		return name[:idx], value, s
	}
	return name, 0, "$"
}
