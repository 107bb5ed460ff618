// Package bundler orchestrates the bundling pipeline: collect, register,
// analyze, normalize, shake, compact, generate.
package bundler

import (
	"context"
	"fmt"
	"os"

	"github.com/mvp-joe/declbundle/internal/analyzer"
	"github.com/mvp-joe/declbundle/internal/collector"
	"github.com/mvp-joe/declbundle/internal/generator"
	"github.com/mvp-joe/declbundle/internal/normalizer"
	"github.com/mvp-joe/declbundle/internal/registry"
	"github.com/mvp-joe/declbundle/internal/shaker"
	"github.com/mvp-joe/declbundle/internal/ts"
)

// Banner is the comment line prepended to generated bundles.
const Banner = "// Generated by declbundle"

// Bundler runs the pipeline for one entry. It owns the collector and its
// parse cache, so repeated Bundle calls (watch mode) only re-parse files
// invalidated in between.
type Bundler struct {
	opts      Options
	collector *collector.Collector
}

// New creates a bundler. The entry option is validated here, before any
// filesystem access.
func New(opts Options) (*Bundler, error) {
	if opts.Entry == "" {
		return nil, ErrMissingEntry
	}

	var copts []collector.Option
	if opts.Progress != nil {
		copts = append(copts, collector.WithProgress(opts.Progress))
	}
	c, err := collector.New(opts.InlinedLibraries, copts...)
	if err != nil {
		return nil, err
	}
	return &Bundler{opts: opts, collector: c}, nil
}

// Close releases the parse cache.
func (b *Bundler) Close() {
	b.collector.Close()
}

// Invalidate drops a file's cached parse before the next Bundle call.
func (b *Bundler) Invalidate(path string) {
	b.collector.Invalidate(path)
}

// Bundle runs the full pipeline and returns the bundle text. All state
// except the parse cache is run-scoped, so consecutive runs over identical
// input produce byte-identical output.
func (b *Bundler) Bundle(ctx context.Context) (string, error) {
	if _, err := os.Stat(b.opts.Entry); err != nil {
		return "", fmt.Errorf("%w: %s", ErrEntryNotFound, b.opts.Entry)
	}

	modules, err := b.collector.Collect(ctx, b.opts.Entry)
	if err != nil {
		return "", fmt.Errorf("collection failed: %w", err)
	}

	reg := registry.New()
	oracle := ts.NewGlobalOracle()
	r := &registrar{reg: reg, oracle: oracle, modules: modules, opts: b.opts}
	r.run()

	an := analyzer.New(reg, modules)
	if err := an.Analyze(); err != nil {
		return "", fmt.Errorf("analysis failed: %w", err)
	}

	norm := normalizer.New(reg, modules, oracle)
	norm.Normalize()

	refTags := make(map[string][]string)
	for name, mod := range modules.Modules {
		if len(mod.File.ReferenceTypes) > 0 {
			refTags[name] = mod.File.ReferenceTypes
		}
	}

	shake := shaker.New(reg, modules, refTags).Shake()
	norm.CompactSuffixes(shake.Used, shake.UsedImports)

	umd := b.opts.UMDModuleName
	if umd == "" {
		umd = r.umdName
	}
	banner := ""
	if !b.opts.NoBanner {
		banner = Banner
	}

	gen := generator.New(reg, shake, an.Graph(), generator.Options{
		Banner:                   banner,
		SortNodes:                b.opts.SortNodes,
		UMDModuleName:            umd,
		ExportReferencedTypes:    b.opts.ExportReferencedTypes,
		RespectPreserveConstEnum: b.opts.RespectPreserveConstEnum,
		AllowedTypesLibraries:    b.opts.AllowedTypesLibraries,
		ImportedLibraries:        b.opts.ImportedLibraries,
	})
	out, err := gen.Generate()
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}
	return out, nil
}
