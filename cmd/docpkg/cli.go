package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/docpkg"
	"github.com/fwojciec/docpkg/fs"
	"github.com/fwojciec/docpkg/index"
	"github.com/fwojciec/docpkg/install"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	// Root is the absolute project root.
	Root string
	// Home is the user's home directory, which holds the default cache.
	Home string

	Config       docpkg.ConfigStore
	Ledger       docpkg.LedgerStore
	Adapters     []docpkg.Adapter
	Copier       docpkg.GlobCopier
	FrontMatter  docpkg.FrontMatterParser
	TokenCounter docpkg.TokenCounter
	Analyzer     docpkg.Analyzer

	Getenv func(string) string
	Now    func() time.Time
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Dir     string `short:"C" default:"." help:"Project root directory"`
	Verbose bool   `short:"v" help:"Log debug output to stderr"`

	Init     InitCmd     `cmd:"" help:"Create a docpkg configuration"`
	Add      AddCmd      `cmd:"" help:"Add and install a documentation source"`
	Install  InstallCmd  `cmd:"" help:"Install all configured documentation sources"`
	Update   UpdateCmd   `cmd:"" help:"Reinstall one or all configured sources"`
	Remove   RemoveCmd   `cmd:"" help:"Remove a documentation source"`
	List     ListCmd     `cmd:"" help:"List configured sources and their install status"`
	Info     InfoCmd     `cmd:"" help:"Show details about a source"`
	Verify   VerifyCmd   `cmd:"" help:"Check that installed documentation is present"`
	Clean    CleanCmd    `cmd:"" help:"Remove all installed documentation"`
	Sync     SyncCmd     `cmd:"" help:"Copy documentation from node_modules packages"`
	Index    IndexCmd    `cmd:"" help:"Generate the documentation index"`
	Bundle   BundleCmd   `cmd:"" help:"Bundle documentation into a single context file"`
	Manifest ManifestCmd `cmd:"" help:"Write a .docpkg-manifest.json for this repository"`
	Enrich   EnrichCmd   `cmd:"" help:"Add AI-generated summaries and tags to the index"`
	Search   SearchCmd   `cmd:"" help:"Full-text search over installed documentation"`
}

// InitCmd is the "init" subcommand.
type InitCmd struct {
	YAML  bool `name:"yaml" help:"Write .docpkg.yaml"`
	NPM   bool `name:"npm" help:"Write the docs field of package.json"`
	Force bool `short:"f" help:"Overwrite an existing configuration"`
}

// AddCmd is the "add" subcommand.
type AddCmd struct {
	Spec string `arg:"" help:"Source spec (registry:, vcs:, remote:, local:)"`
	Name string `help:"Name to install the source under"`
}

// InstallCmd is the "install" subcommand.
type InstallCmd struct {
	Concurrency int `short:"c" default:"1" help:"Sources installed at once"`
}

// UpdateCmd is the "update" subcommand.
type UpdateCmd struct {
	Name        string `arg:"" optional:"" help:"Source to update (default: all)"`
	Concurrency int    `short:"c" default:"1" help:"Sources installed at once"`
}

// RemoveCmd is the "remove" subcommand.
type RemoveCmd struct {
	Name string `arg:"" help:"Source name"`
}

// ListCmd is the "list" subcommand.
type ListCmd struct {
	JSON bool `name:"json" help:"Print configuration and ledger as JSON"`
}

// InfoCmd is the "info" subcommand.
type InfoCmd struct {
	Name string `arg:"" help:"Source name"`
}

// VerifyCmd is the "verify" subcommand.
type VerifyCmd struct{}

// CleanCmd is the "clean" subcommand.
type CleanCmd struct {
	Cache bool `help:"Also remove the download cache"`
}

// SyncCmd is the "sync" subcommand.
type SyncCmd struct {
	Force  bool `short:"f" help:"Empty each target before copying"`
	DryRun bool `name:"dry-run" help:"List packages without copying"`
}

// IndexCmd is the "index" subcommand.
type IndexCmd struct {
	Output     string `short:"o" help:"Write the index to this file instead"`
	SourceMode bool   `name:"source-mode" help:"Index this repository's own docs using its manifest"`
}

// BundleCmd is the "bundle" subcommand.
type BundleCmd struct {
	Output  string `short:"o" default:"docs/context.md" help:"Output file"`
	Source  string `help:"Comma-separated source names"`
	Tag     string `help:"Comma-separated tags"`
	Include string `help:"Only files whose path contains this substring"`
}

// ManifestCmd is the "manifest" subcommand.
type ManifestCmd struct {
	Name        string `help:"Package name (default: package.json name or directory name)"`
	DocsPath    string `name:"docs-path" default:"docs" help:"Documentation directory"`
	Title       string `default:"Documentation" help:"Documentation title"`
	Description string `help:"Documentation description"`
	Tags        string `help:"Comma-separated tags"`
	Force       bool   `short:"f" help:"Overwrite an existing manifest"`
}

// EnrichCmd is the "enrich" subcommand.
type EnrichCmd struct {
	Force      bool `short:"f" help:"Re-analyze already enriched files"`
	SourceMode bool `name:"source-mode" help:"Enrich this repository's own index"`
}

// SearchCmd is the "search" subcommand.
type SearchCmd struct {
	Query  string `arg:"" help:"Search query"`
	Limit  int    `short:"n" default:"10" help:"Maximum results"`
	Source string `help:"Comma-separated source names"`
}

// loadConfig loads and validates the project configuration.
func (d *Dependencies) loadConfig() (*docpkg.Config, error) {
	cfg, err := d.Config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// saveConfig writes cfg back. A cache path equal to the default is omitted
// so the file stays portable across machines.
func (d *Dependencies) saveConfig(cfg *docpkg.Config) error {
	out := *cfg
	if out.Cache.Path == docpkg.DefaultConfig(d.Home).Cache.Path {
		out.Cache.Path = ""
	}
	return d.Config.Save(&out)
}

// cacheDir returns the download cache directory. DOCPKG_CACHE overrides the
// configured path without being written back.
func (d *Dependencies) cacheDir(cfg *docpkg.Config) string {
	if dir := d.getenv("DOCPKG_CACHE"); dir != "" {
		return dir
	}
	return cfg.Cache.Path
}

func (d *Dependencies) installer(cfg *docpkg.Config, concurrency int) *install.Installer {
	return &install.Installer{
		Adapters:    d.Adapters,
		Ledger:      d.Ledger,
		Root:        d.Root,
		InstallPath: cfg.InstallPath,
		CacheDir:    d.cacheDir(cfg),
		Concurrency: concurrency,
		Logger:      d.Logger,
		Now:         d.Now,
	}
}

func (d *Dependencies) indexer(cfg *docpkg.Config) *index.Indexer {
	return &index.Indexer{
		Ledger:       d.Ledger,
		FrontMatter:  d.FrontMatter,
		TokenCounter: d.TokenCounter,
		Store:        fs.NewInstallIndexStore(d.Root, cfg.InstallPath),
		Root:         d.Root,
		Logger:       d.Logger,
		Now:          d.Now,
	}
}

func (d *Dependencies) syncer(cfg *docpkg.Config) *install.Syncer {
	return &install.Syncer{
		Ledger:      d.Ledger,
		Copier:      d.Copier,
		Root:        d.Root,
		InstallPath: cfg.InstallPath,
		Getenv:      d.Getenv,
		Logger:      d.Logger,
		Now:         d.Now,
	}
}

// install runs a batch and prints one line per source. Per-source failures
// are reported but do not fail the command.
func (d *Dependencies) install(cfg *docpkg.Config, sources map[string]string, concurrency int) error {
	results, err := d.installer(cfg, concurrency).Install(d.Ctx, sources, nil)
	for _, r := range results {
		if r.OK() {
			fmt.Fprintf(d.Stdout, "Installed %s (%s)\n", r.Name, r.Entry.Resolved)
		} else {
			fmt.Fprintf(d.Stderr, "error: %s: %s failed: %s\n", r.Name, r.Stage, docpkg.ErrorMessage(r.Err))
		}
	}
	if err != nil {
		fmt.Fprintf(d.Stderr, "error: %s\n", docpkg.ErrorMessage(err))
		return err
	}
	return nil
}

// saveIndex regenerates and saves the installed index.
func (d *Dependencies) saveIndex(cfg *docpkg.Config) (*docpkg.Index, error) {
	ix := d.indexer(cfg)
	idx, err := ix.Generate(d.Ctx, index.Options{})
	if err != nil {
		return nil, err
	}
	if err := ix.Save(d.Ctx, idx); err != nil {
		return nil, err
	}
	return idx, nil
}

// updateIndex regenerates the index after a change and reports the result.
func (d *Dependencies) updateIndex(cfg *docpkg.Config) error {
	idx, err := d.saveIndex(cfg)
	if err != nil {
		fmt.Fprintf(d.Stderr, "error: %s\n", docpkg.ErrorMessage(err))
		return err
	}
	fmt.Fprintf(d.Stdout, "Index updated with %d files\n", len(idx.Files))
	return nil
}

// resolvePath returns p relative to the project root unless it is absolute.
func (d *Dependencies) resolvePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(d.Root, p)
}

func (d *Dependencies) getenv(key string) string {
	if d.Getenv != nil {
		return d.Getenv(key)
	}
	return os.Getenv(key)
}

// fail prints err to stderr in the CLI's style and returns it.
func (d *Dependencies) fail(err error) error {
	fmt.Fprintf(d.Stderr, "error: %s\n", docpkg.ErrorMessage(err))
	return err
}
