package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mvp-joe/declbundle/internal/bundler"
	"github.com/mvp-joe/declbundle/internal/config"
	"github.com/mvp-joe/declbundle/internal/watcher"
)

var bundleFlags struct {
	entry                    string
	output                   string
	inlinedLibraries         []string
	allowedTypesLibraries    []string
	importedLibraries        []string
	inlineDeclareGlobals     bool
	inlineDeclareExternals   bool
	exportReferencedTypes    bool
	noBanner                 bool
	sortNodes                bool
	umdModuleName            string
	respectPreserveConstEnum bool
	quiet                    bool
	watch                    bool
}

// bundleCmd represents the bundle command
var bundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Bundle declaration files into a single .d.ts",
	Long: `Bundle follows imports from the entry declaration file, inlines the
configured libraries, and writes one flattened .d.ts. With --watch it stays
running and rebundles on source changes.`,
	RunE: runBundle,
}

func init() {
	rootCmd.AddCommand(bundleCmd)

	f := bundleCmd.Flags()
	f.StringVar(&bundleFlags.entry, "entry", "", "entry declaration file")
	f.StringVarP(&bundleFlags.output, "output", "o", "", "output file (default stdout)")
	f.StringSliceVar(&bundleFlags.inlinedLibraries, "inlinedLibraries", nil, "glob patterns of libraries to inline")
	f.StringSliceVar(&bundleFlags.allowedTypesLibraries, "allowedTypesLibraries", nil, "types libraries allowed as reference directives (default all)")
	f.StringSliceVar(&bundleFlags.importedLibraries, "importedLibraries", nil, "libraries allowed to stay imported (default all)")
	f.BoolVar(&bundleFlags.inlineDeclareGlobals, "inlineDeclareGlobals", false, "keep declare global blocks from non-entry modules")
	f.BoolVar(&bundleFlags.inlineDeclareExternals, "inlineDeclareExternals", false, "keep declare module blocks from non-entry modules")
	f.BoolVar(&bundleFlags.exportReferencedTypes, "exportReferencedTypes", true, "export referenced interfaces and type aliases")
	f.BoolVar(&bundleFlags.noBanner, "noBanner", false, "omit the generated-file banner")
	f.BoolVar(&bundleFlags.sortNodes, "sortNodes", false, "order statements by name instead of topologically")
	f.StringVar(&bundleFlags.umdModuleName, "umdModuleName", "", "emit export as namespace NAME")
	f.BoolVar(&bundleFlags.respectPreserveConstEnum, "respectPreserveConstEnum", false, "strip the const modifier from const enums")
	f.BoolVarP(&bundleFlags.quiet, "quiet", "q", false, "suppress progress output")
	f.BoolVarP(&bundleFlags.watch, "watch", "w", false, "rebundle on source changes")
}

func runBundle(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts := resolveOptions(cmd, cfg)
	output := bundleFlags.output
	if !cmd.Flags().Changed("output") && cfg.Output != "" {
		output = cfg.Output
	}
	if !bundleFlags.quiet {
		opts.Progress = NewCLIProgressReporter(bundleFlags.quiet)
	}

	b, err := bundler.New(opts)
	if err != nil {
		return err
	}
	defer b.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bundleOnce(ctx, b, output); err != nil {
		return err
	}
	if !bundleFlags.watch {
		return nil
	}
	return watchLoop(ctx, b, opts.Entry, output)
}

// resolveOptions merges config file values and flags; flags win when set.
func resolveOptions(cmd *cobra.Command, cfg *config.Config) bundler.Options {
	opts := bundler.DefaultOptions()
	opts.Entry = cfg.Entry
	opts.InlinedLibraries = cfg.Libraries.Inlined
	opts.AllowedTypesLibraries = cfg.Libraries.AllowedTypes
	opts.ImportedLibraries = cfg.Libraries.Imported
	opts.InlineDeclareGlobals = cfg.Bundle.InlineDeclareGlobals
	opts.InlineDeclareExternals = cfg.Bundle.InlineDeclareExternals
	opts.ExportReferencedTypes = cfg.Bundle.ExportReferencedTypes
	opts.NoBanner = cfg.Bundle.NoBanner
	opts.SortNodes = cfg.Bundle.SortNodes
	opts.UMDModuleName = cfg.Bundle.UMDModuleName
	opts.RespectPreserveConstEnum = cfg.Bundle.RespectPreserveConstEnum

	f := cmd.Flags()
	if f.Changed("entry") {
		opts.Entry = bundleFlags.entry
	}
	if f.Changed("inlinedLibraries") {
		opts.InlinedLibraries = bundleFlags.inlinedLibraries
	}
	if f.Changed("allowedTypesLibraries") {
		opts.AllowedTypesLibraries = bundleFlags.allowedTypesLibraries
	}
	if f.Changed("importedLibraries") {
		opts.ImportedLibraries = bundleFlags.importedLibraries
	}
	if f.Changed("inlineDeclareGlobals") {
		opts.InlineDeclareGlobals = bundleFlags.inlineDeclareGlobals
	}
	if f.Changed("inlineDeclareExternals") {
		opts.InlineDeclareExternals = bundleFlags.inlineDeclareExternals
	}
	if f.Changed("exportReferencedTypes") {
		opts.ExportReferencedTypes = bundleFlags.exportReferencedTypes
	}
	if f.Changed("noBanner") {
		opts.NoBanner = bundleFlags.noBanner
	}
	if f.Changed("sortNodes") {
		opts.SortNodes = bundleFlags.sortNodes
	}
	if f.Changed("umdModuleName") {
		opts.UMDModuleName = bundleFlags.umdModuleName
	}
	if f.Changed("respectPreserveConstEnum") {
		opts.RespectPreserveConstEnum = bundleFlags.respectPreserveConstEnum
	}
	return opts
}

func bundleOnce(ctx context.Context, b *bundler.Bundler, output string) error {
	text, err := b.Bundle(ctx)
	if err != nil {
		return err
	}
	return writeOutput(output, text)
}

// writeOutput writes the bundle to stdout or atomically to a file through a
// uuid-named temp file in the target directory.
func writeOutput(path, text string) error {
	if path == "" {
		fmt.Print(text)
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tempPath := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.NewString()))
	if err := os.WriteFile(tempPath, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	// Rename to final location (atomic operation)
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// watchLoop rebundles whenever a declaration source under the entry's
// directory tree changes, until the context is cancelled.
func watchLoop(ctx context.Context, b *bundler.Bundler, entry, output string) error {
	dir := filepath.Dir(entry)
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}

	w, err := watcher.New([]string{dir}, []string{".ts", ".cts", ".mts"})
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer w.Stop()

	rebundle := func(files []string) {
		for _, file := range files {
			b.Invalidate(file)
		}
		if err := bundleOnce(ctx, b, output); err != nil {
			log.Printf("Rebundle failed: %v", err)
			return
		}
		log.Printf("Rebundled after %d changed files", len(files))
	}

	if err := w.Start(ctx, rebundle); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	log.Printf("Watching %s for changes...", dir)
	<-ctx.Done()
	return nil
}
