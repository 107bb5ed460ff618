package collector

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// isRelative reports whether a specifier is a relative module reference.
func isRelative(specifier string) bool {
	return strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../") ||
		specifier == "." || specifier == ".."
}

// relativeCandidates lists the resolution suffixes tried for a relative
// specifier, in priority order.
var relativeCandidates = []string{
	"",
	".ts",
	".d.ts",
	"/index.ts",
	"/index.d.ts",
}

// resolveRelative resolves a relative specifier against the importing
// module's directory.
func resolveRelative(fromDir, specifier string) (string, error) {
	base := filepath.Join(fromDir, filepath.FromSlash(specifier))
	for _, suffix := range relativeCandidates {
		candidate := base + suffix
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		return filepath.Abs(candidate)
	}
	return "", fmt.Errorf("no declaration file found for %q", specifier)
}

// packageManifest is the subset of package.json the resolver reads.
type packageManifest struct {
	Types   string `json:"types"`
	Typings string `json:"typings"`
}

// resolveLibrary resolves a bare specifier to its declaration entry point by
// walking node_modules directories upward from fromDir. The package's
// `types`/`typings` manifest field wins; index.d.ts is the fallback.
func resolveLibrary(fromDir, specifier string) (string, error) {
	dir := fromDir
	for {
		pkgDir := filepath.Join(dir, "node_modules", filepath.FromSlash(specifier))
		if info, err := os.Stat(pkgDir); err == nil && info.IsDir() {
			if entry, err := libraryEntryPoint(pkgDir); err == nil {
				return entry, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("library %q not found in any node_modules", specifier)
		}
		dir = parent
	}
}

func libraryEntryPoint(pkgDir string) (string, error) {
	manifestPath := filepath.Join(pkgDir, "package.json")
	if data, err := os.ReadFile(manifestPath); err == nil {
		var manifest packageManifest
		if err := json.Unmarshal(data, &manifest); err == nil {
			typesField := manifest.Types
			if typesField == "" {
				typesField = manifest.Typings
			}
			if typesField != "" {
				candidate := filepath.Join(pkgDir, filepath.FromSlash(typesField))
				if _, err := os.Stat(candidate); err == nil {
					return filepath.Abs(candidate)
				}
			}
		}
	}

	fallback := filepath.Join(pkgDir, "index.d.ts")
	if _, err := os.Stat(fallback); err == nil {
		return filepath.Abs(fallback)
	}
	return "", fmt.Errorf("no typings entry point in %s", pkgDir)
}
