package collector

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gobwas/glob"
	"github.com/maypok86/otter"

	"github.com/mvp-joe/declbundle/internal/ts"
)

// parseCacheCapacity bounds the otter parse cache. Watch-mode rebundles hit
// the cache for every unchanged file.
const parseCacheCapacity = 4096

// Module is one collected (inlined) source module.
type Module struct {
	// Name is the canonical module identifier: the resolved file path.
	Name string
	File *ts.SourceFile

	// Library holds the bare import specifier when the module was pulled
	// in as an inlined library, "" for project files.
	Library string

	// Resolved maps each import/export specifier appearing in the module
	// to the canonical identifier of the collected module it refers to.
	// External and unresolved specifiers are absent.
	Resolved map[string]string

	// ImportOrder lists referenced module identifiers and external
	// specifiers in statement order, used for deterministic ranking.
	ImportOrder []string
}

// ModuleSet is the closed set of modules to ingest.
type ModuleSet struct {
	Entry   string
	Modules map[string]*Module
	Order   []string // discovery order of module identifiers
}

// Module returns the collected module with the given identifier.
func (s *ModuleSet) Module(name string) *Module {
	return s.Modules[name]
}

// ProgressReporter reports collection progress.
type ProgressReporter interface {
	OnCollectionStart()
	OnModuleCollected(collected int, path string)
	OnCollectionComplete(modules int, duration time.Duration)
}

// Collector locates, parses, and classifies the module graph reachable from
// an entry file. Bare import specifiers matching an inlined-library pattern
// are resolved through node_modules and collected; everything else stays an
// external reference.
type Collector struct {
	parser   *ts.Parser
	inlined  []compiledPattern
	cache    otter.Cache[string, cacheEntry]
	progress ProgressReporter
}

type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

type cacheEntry struct {
	modTime int64
	file    *ts.SourceFile
}

// Option configures a Collector.
type Option func(*Collector)

// WithProgress configures progress reporting.
func WithProgress(progress ProgressReporter) Option {
	return func(c *Collector) {
		c.progress = progress
	}
}

// New creates a collector. inlinedLibraries are glob patterns over bare
// import specifiers (e.g. "@scope/*", "left-pad").
func New(inlinedLibraries []string, opts ...Option) (*Collector, error) {
	c := &Collector{parser: ts.NewParser()}
	for _, pattern := range inlinedLibraries {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid inlined library pattern %q: %w", pattern, err)
		}
		c.inlined = append(c.inlined, compiledPattern{pattern: pattern, glob: g})
	}

	cache, err := otter.MustBuilder[string, cacheEntry](parseCacheCapacity).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build parse cache: %w", err)
	}
	c.cache = cache

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Close releases the parse cache.
func (c *Collector) Close() {
	c.cache.Close()
}

// Invalidate drops a cached parse, forcing the next Collect to re-read the
// file. Used by watch mode on change events.
func (c *Collector) Invalidate(path string) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	c.cache.Delete(path)
}

// IsInlined reports whether a bare specifier matches an inlined-library
// pattern.
func (c *Collector) IsInlined(specifier string) bool {
	for _, p := range c.inlined {
		if p.glob.Match(specifier) {
			return true
		}
	}
	return false
}

// Collect walks the import graph from the entry path and returns the closed
// module set. Unresolved relative imports are logged and skipped, never
// fatal.
func (c *Collector) Collect(ctx context.Context, entryPath string) (*ModuleSet, error) {
	start := time.Now()
	if c.progress != nil {
		c.progress.OnCollectionStart()
	}

	entry, err := filepath.Abs(entryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve entry path: %w", err)
	}

	set := &ModuleSet{
		Entry:   entry,
		Modules: make(map[string]*Module),
	}
	if err := c.collectModule(ctx, set, entry, ""); err != nil {
		return nil, err
	}

	if c.progress != nil {
		c.progress.OnCollectionComplete(len(set.Order), time.Since(start))
	}
	return set, nil
}

func (c *Collector) collectModule(ctx context.Context, set *ModuleSet, path, library string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if _, ok := set.Modules[path]; ok {
		return nil
	}

	file, err := c.parseFile(path)
	if err != nil {
		return err
	}

	mod := &Module{
		Name:     path,
		File:     file,
		Library:  library,
		Resolved: make(map[string]string),
	}
	set.Modules[path] = mod
	set.Order = append(set.Order, path)
	if c.progress != nil {
		c.progress.OnModuleCollected(len(set.Order), path)
	}

	for _, specifier := range moduleSpecifiers(file) {
		target, targetLib, resolved := c.resolveSpecifier(path, specifier, library)
		if !resolved {
			mod.ImportOrder = append(mod.ImportOrder, specifier)
			continue
		}
		mod.Resolved[specifier] = target
		mod.ImportOrder = append(mod.ImportOrder, target)
		if err := c.collectModule(ctx, set, target, targetLib); err != nil {
			return err
		}
	}
	return nil
}

// resolveSpecifier resolves one import/export specifier from the given
// module. The third return reports whether the target should be collected
// (inlined); false means the reference stays external.
func (c *Collector) resolveSpecifier(fromPath, specifier, fromLibrary string) (target, library string, ok bool) {
	if isRelative(specifier) {
		resolved, err := resolveRelative(filepath.Dir(fromPath), specifier)
		if err != nil {
			log.Printf("Warning: unresolved import %q in %s: %v", specifier, fromPath, err)
			return "", "", false
		}
		return resolved, fromLibrary, true
	}

	if !c.IsInlined(specifier) {
		return "", "", false
	}

	resolved, err := resolveLibrary(filepath.Dir(fromPath), specifier)
	if err != nil {
		log.Printf("Warning: cannot inline library %q referenced from %s: %v", specifier, fromPath, err)
		return "", "", false
	}
	return resolved, specifier, true
}

// parseFile parses a file through the otter cache, keyed by absolute path
// and validated by mtime.
func (c *Collector) parseFile(path string) (*ts.SourceFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if entry, ok := c.cache.Get(path); ok && entry.modTime == info.ModTime().UnixNano() {
		return entry.file, nil
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	file, err := c.parser.Parse(path, source)
	if err != nil {
		return nil, err
	}

	c.cache.Set(path, cacheEntry{modTime: info.ModTime().UnixNano(), file: file})
	return file, nil
}

// moduleSpecifiers lists every import/export specifier of a file in
// statement order.
func moduleSpecifiers(file *ts.SourceFile) []string {
	var specs []string
	for _, stmt := range file.Statements {
		switch {
		case stmt.Import != nil && stmt.Import.Module != "":
			specs = append(specs, stmt.Import.Module)
		case stmt.Export != nil && stmt.Export.From != "":
			specs = append(specs, stmt.Export.From)
		}
	}
	return specs
}
