package bundler

import "github.com/mvp-joe/declbundle/internal/collector"

// Options configure a bundling run.
type Options struct {
	// Entry is the path of the entry declaration file.
	Entry string

	// InlinedLibraries are glob patterns over bare import specifiers whose
	// declarations should be pulled into the bundle instead of imported.
	InlinedLibraries []string

	// AllowedTypesLibraries restricts which `/// <reference types=...>`
	// directives may appear in the output. nil allows all.
	AllowedTypesLibraries []string

	// ImportedLibraries restricts which external modules may be imported
	// from the output. nil allows all.
	ImportedLibraries []string

	// InlineDeclareGlobals keeps `declare global` blocks from non-entry
	// modules. Entry-module blocks always ship.
	InlineDeclareGlobals bool

	// InlineDeclareExternals keeps `declare module "x"` blocks from
	// non-entry modules. Entry-module blocks always ship.
	InlineDeclareExternals bool

	// ExportReferencedTypes adds the export keyword to reachable interface
	// and type alias declarations that are not published roots.
	ExportReferencedTypes bool

	// NoBanner omits the generated-file banner comment.
	NoBanner bool

	// SortNodes orders output statements by name instead of topologically.
	SortNodes bool

	// UMDModuleName emits `export as namespace NAME;`. When empty, an
	// `export as namespace` statement in the entry file is honored instead.
	UMDModuleName string

	// RespectPreserveConstEnum strips the const modifier from const enums
	// so their members survive as runtime values.
	RespectPreserveConstEnum bool

	// Progress optionally receives collection progress callbacks.
	Progress collector.ProgressReporter
}

// DefaultOptions returns the option defaults used by the CLI.
func DefaultOptions() Options {
	return Options{ExportReferencedTypes: true}
}
