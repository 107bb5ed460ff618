package config

// Config represents the complete declbundle configuration.
// It can be loaded from .declbundle/config.yml with environment variable
// overrides; command-line flags take precedence over both.
type Config struct {
	Entry     string          `yaml:"entry" mapstructure:"entry"`
	Output    string          `yaml:"output" mapstructure:"output"`
	Libraries LibrariesConfig `yaml:"libraries" mapstructure:"libraries"`
	Bundle    BundleConfig    `yaml:"bundle" mapstructure:"bundle"`
}

// LibrariesConfig controls how external libraries are treated.
type LibrariesConfig struct {
	Inlined      []string `yaml:"inlined" mapstructure:"inlined"`             // glob patterns over bare specifiers to pull in
	Imported     []string `yaml:"imported" mapstructure:"imported"`           // modules that may stay as imports, nil = all
	AllowedTypes []string `yaml:"allowed_types" mapstructure:"allowed_types"` // types libraries allowed as reference directives, nil = all
}

// BundleConfig controls output assembly.
type BundleConfig struct {
	InlineDeclareGlobals     bool   `yaml:"inline_declare_globals" mapstructure:"inline_declare_globals"`
	InlineDeclareExternals   bool   `yaml:"inline_declare_externals" mapstructure:"inline_declare_externals"`
	ExportReferencedTypes    bool   `yaml:"export_referenced_types" mapstructure:"export_referenced_types"`
	NoBanner                 bool   `yaml:"no_banner" mapstructure:"no_banner"`
	SortNodes                bool   `yaml:"sort_nodes" mapstructure:"sort_nodes"`
	UMDModuleName            string `yaml:"umd_module_name" mapstructure:"umd_module_name"`
	RespectPreserveConstEnum bool   `yaml:"respect_preserve_const_enum" mapstructure:"respect_preserve_const_enum"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Bundle: BundleConfig{
			ExportReferencedTypes: true,
		},
	}
}
