package declbundle_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	declbundle "github.com/mvp-joe/declbundle"
)

// Test Plan for the public API:
// - Bundle produces a bundle from an entry file with default options
// - Bundle surfaces the missing-entry sentinel

func TestBundle_PublicAPI(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	entry := filepath.Join(dir, "index.d.ts")
	require.NoError(t, os.WriteFile(entry, []byte("export interface Api { ready: boolean; }\n"), 0644))

	opts := declbundle.DefaultOptions()
	opts.Entry = entry

	out, err := declbundle.Bundle(context.Background(), opts)
	require.NoError(t, err)
	assert.Contains(t, out, "export interface Api { ready: boolean; }")
}

func TestBundle_MissingEntry(t *testing.T) {
	t.Parallel()

	_, err := declbundle.Bundle(context.Background(), declbundle.DefaultOptions())
	assert.ErrorIs(t, err, declbundle.ErrMissingEntry)
}
