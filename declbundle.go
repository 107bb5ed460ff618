// Package declbundle bundles TypeScript declaration files: starting from an
// entry .d.ts it follows imports, inlines configured libraries, renames
// colliding declarations, drops unreachable ones, and produces a single
// deterministic declaration bundle.
package declbundle

import (
	"context"

	"github.com/mvp-joe/declbundle/internal/bundler"
)

// Options configure a bundling run.
type Options = bundler.Options

// Sentinel errors returned by Bundle.
var (
	ErrMissingEntry  = bundler.ErrMissingEntry
	ErrEntryNotFound = bundler.ErrEntryNotFound
)

// DefaultOptions returns the option defaults.
func DefaultOptions() Options {
	return bundler.DefaultOptions()
}

// Bundle runs the pipeline once and returns the bundle text.
func Bundle(ctx context.Context, opts Options) (string, error) {
	b, err := bundler.New(opts)
	if err != nil {
		return "", err
	}
	defer b.Close()
	return b.Bundle(ctx)
}
