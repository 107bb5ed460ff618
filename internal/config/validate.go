package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

var (
	// ErrInvalidPattern indicates an inlined-library pattern that does not
	// compile as a glob
	ErrInvalidPattern = errors.New("invalid library pattern")

	// ErrInvalidUMDName indicates a UMD module name that is not a legal
	// identifier path
	ErrInvalidUMDName = errors.New("invalid UMD module name")
)

// Validate checks that the configuration is valid and complete. Entry and
// output are not required here: flags may supply them after loading.
func Validate(cfg *Config) error {
	var errs []error

	for _, pattern := range cfg.Libraries.Inlined {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			errs = append(errs, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err))
		}
	}

	if name := cfg.Bundle.UMDModuleName; name != "" && !validUMDName(name) {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidUMDName, name))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

// validUMDName accepts dotted identifier paths like "MyLib" or "My.Lib".
func validUMDName(name string) bool {
	for _, part := range strings.Split(name, ".") {
		if part == "" {
			return false
		}
		for i, r := range part {
			switch {
			case r == '_' || r == '$':
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			case r >= '0' && r <= '9':
				if i == 0 {
					return false
				}
			default:
				return false
			}
		}
	}
	return true
}

// joinErrors combines multiple errors into a single error with clear formatting.
func joinErrors(errs []error) error {
	if len(errs) == 1 {
		return errs[0]
	}
	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
