package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir string

	// file is an explicit config file path; when set it overrides the
	// .declbundle/config.yml search.
	file string
}

// NewLoader creates a configuration loader for the given root directory.
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir}
}

// NewFileLoader creates a loader bound to one explicit config file.
func NewFileLoader(path string) Loader {
	return &loader{file: path}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (DECLBUNDLE_*)
// 2. Config file (.declbundle/config.yml, or the explicit file)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	if l.file != "" {
		v.SetConfigFile(l.file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(l.rootDir, ".declbundle"))
	}

	v.SetEnvPrefix("DECLBUNDLE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("entry")
	v.BindEnv("output")
	v.BindEnv("bundle.inline_declare_globals")
	v.BindEnv("bundle.inline_declare_externals")
	v.BindEnv("bundle.export_referenced_types")
	v.BindEnv("bundle.no_banner")
	v.BindEnv("bundle.sort_nodes")
	v.BindEnv("bundle.umd_module_name")
	v.BindEnv("bundle.respect_preserve_const_enum")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is acceptable when searched for rather
		// than named explicitly; defaults and env vars still apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("entry", defaults.Entry)
	v.SetDefault("output", defaults.Output)
	v.SetDefault("libraries.inlined", defaults.Libraries.Inlined)
	v.SetDefault("libraries.imported", defaults.Libraries.Imported)
	v.SetDefault("libraries.allowed_types", defaults.Libraries.AllowedTypes)
	v.SetDefault("bundle.inline_declare_globals", defaults.Bundle.InlineDeclareGlobals)
	v.SetDefault("bundle.inline_declare_externals", defaults.Bundle.InlineDeclareExternals)
	v.SetDefault("bundle.export_referenced_types", defaults.Bundle.ExportReferencedTypes)
	v.SetDefault("bundle.no_banner", defaults.Bundle.NoBanner)
	v.SetDefault("bundle.sort_nodes", defaults.Bundle.SortNodes)
	v.SetDefault("bundle.umd_module_name", defaults.Bundle.UMDModuleName)
	v.SetDefault("bundle.respect_preserve_const_enum", defaults.Bundle.RespectPreserveConstEnum)
}

// LoadConfig is a convenience function that creates a loader rooted at the
// current working directory and loads config.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}
