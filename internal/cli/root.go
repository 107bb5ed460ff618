package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/declbundle/internal/bundler"
	"github.com/mvp-joe/declbundle/internal/config"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "declbundle",
	Short: "Declbundle - bundle TypeScript declaration files",
	Long: `Declbundle flattens a tree of TypeScript declaration files into a
single .d.ts bundle: it follows imports from an entry file, inlines the
libraries you ask for, renames colliding declarations, and drops everything
the entry's exports never reach.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .declbundle/config.yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig resolves the effective configuration: the explicit --config
// file when given, otherwise the .declbundle/config.yml search path.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.NewFileLoader(cfgFile).Load()
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", bundler.ErrConfigResolution, err)
	}
	if verbose {
		fmt.Fprintln(os.Stderr, "Configuration loaded")
	}
	return cfg, nil
}
