package bundler

import "errors"

var (
	// ErrMissingEntry is returned when no entry file was specified. It is
	// detected before any filesystem access.
	ErrMissingEntry = errors.New("no entry file specified")

	// ErrEntryNotFound is returned when the entry file does not exist.
	ErrEntryNotFound = errors.New("entry file not found")

	// ErrConfigResolution is returned when a configuration file cannot be
	// loaded or fails validation.
	ErrConfigResolution = errors.New("config resolution failed")
)
