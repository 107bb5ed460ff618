package generator

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/mvp-joe/declbundle/internal/registry"
)

// importStatements emits the surviving external imports, grouped by module
// in alphabetical order. Each module's bindings split into a value group and
// a type-only group; namespace imports collapse to one statement, and
// default bindings used exclusively in type position move to the type-only
// group.
func (g *Generator) importStatements() []string {
	byModule := make(map[string][]*registry.ExternalImport)
	for imp := range g.shake.UsedImports {
		if imp.ReferenceOnly != "" {
			continue
		}
		byModule[imp.Module] = append(byModule[imp.Module], imp)
	}

	modules := make([]string, 0, len(byModule))
	for module := range byModule {
		modules = append(modules, module)
	}
	sort.Strings(modules)

	var lines []string
	for _, module := range modules {
		if !allowed(g.opts.ImportedLibraries, module) {
			log.Printf("Warning: import of library %q is not allowed, dropped", module)
			continue
		}

		imports := byModule[module]
		sort.Slice(imports, func(i, j int) bool { return imports[i].Order() < imports[j].Order() })
		lines = append(lines, g.moduleImports(module, imports)...)
	}
	return lines
}

func (g *Generator) moduleImports(module string, imports []*registry.ExternalImport) []string {
	var (
		lines      []string
		valueNamed []string
		typeNamed  []string
		defaultVal string
	)

	for _, imp := range imports {
		switch imp.Shape {
		case registry.ShapeEquals:
			lines = append(lines, fmt.Sprintf("import %s = require(%q);", imp.NormalizedName, module))
		case registry.ShapeNamespace:
			lines = append(lines, fmt.Sprintf("import * as %s from %q;", imp.NormalizedName, module))
		case registry.ShapeDefault:
			// A default binding used exclusively in type position is
			// dropped rather than emitted as `import type`.
			if !imp.ValueUsage {
				log.Printf("Warning: default import %q from %q is only used in type position, dropped", imp.NormalizedName, module)
				continue
			}
			defaultVal = imp.NormalizedName
		case registry.ShapeNamed:
			binding := imp.Name
			if imp.NormalizedName != imp.Name {
				binding = fmt.Sprintf("%s as %s", imp.Name, imp.NormalizedName)
			}
			if imp.TypeOnly && !imp.ValueUsage {
				typeNamed = append(typeNamed, binding)
			} else {
				valueNamed = append(valueNamed, binding)
			}
		}
	}

	if defaultVal != "" || len(valueNamed) > 0 {
		lines = append(lines, importLine("", defaultVal, valueNamed, module))
	}
	if len(typeNamed) > 0 {
		lines = append(lines, importLine("type ", "", typeNamed, module))
	}
	return lines
}

func importLine(typePrefix, defaultName string, named []string, module string) string {
	var parts []string
	if defaultName != "" {
		parts = append(parts, defaultName)
	}
	if len(named) > 0 {
		parts = append(parts, "{ "+strings.Join(named, ", ")+" }")
	}
	return fmt.Sprintf("import %s%s from %q;", typePrefix, strings.Join(parts, ", "), module)
}
