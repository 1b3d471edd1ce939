package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fwojciec/docpkg"
	"github.com/fwojciec/docpkg/fs"
	"github.com/fwojciec/docpkg/index"
	"github.com/fwojciec/docpkg/sqlite"
)

// SearchDBFile is the search database created below the install path.
const SearchDBFile = "search.db"

// Run executes the index command.
func (c *IndexCmd) Run(deps *Dependencies) error {
	if c.SourceMode {
		ix, opts, store, err := sourceIndexer(deps)
		if err != nil {
			return deps.fail(err)
		}
		if c.Output != "" {
			store = fs.NewIndexStore(deps.resolvePath(c.Output))
		}
		ix.Store = store

		idx, err := ix.Generate(deps.Ctx, opts)
		if err != nil {
			return deps.fail(err)
		}
		if err := ix.Save(deps.Ctx, idx); err != nil {
			return deps.fail(err)
		}
		fmt.Fprintf(deps.Stdout, "Index written to %s with %d files\n", store.Path(), len(idx.Files))
		return nil
	}

	cfg, err := deps.loadConfig()
	if err != nil {
		return deps.fail(err)
	}
	ix := deps.indexer(cfg)
	store := fs.NewInstallIndexStore(deps.Root, cfg.InstallPath)
	if c.Output != "" {
		store = fs.NewIndexStore(deps.resolvePath(c.Output))
	}
	ix.Store = store

	idx, err := ix.Generate(deps.Ctx, index.Options{})
	if err != nil {
		return deps.fail(err)
	}
	if err := ix.Save(deps.Ctx, idx); err != nil {
		return deps.fail(err)
	}
	fmt.Fprintf(deps.Stdout, "Index written to %s with %d files\n", store.Path(), len(idx.Files))
	return nil
}

// sourceIndexer returns an indexer over this repository's own documentation,
// as declared by its manifest, and the store for the shipped index file.
func sourceIndexer(deps *Dependencies) (*index.Indexer, index.Options, *fs.IndexStore, error) {
	m, err := fs.ReadManifest(deps.Root)
	if err != nil {
		return nil, index.Options{}, nil, err
	} else if m == nil {
		return nil, index.Options{}, nil, docpkg.Errorf(docpkg.ENOTFOUND, "%s not found. Run 'docpkg manifest' first", docpkg.ManifestFile)
	}

	store := fs.NewIndexStore(filepath.Join(deps.Root, docpkg.PrecomputedIndexFile))
	ix := &index.Indexer{
		FrontMatter:  deps.FrontMatter,
		TokenCounter: deps.TokenCounter,
		Store:        store,
		Root:         deps.Root,
		Logger:       deps.Logger,
		Now:          deps.Now,
	}
	return ix, index.Options{Manifest: m}, store, nil
}

// Run executes the bundle command.
func (c *BundleCmd) Run(deps *Dependencies) error {
	cfg, err := deps.loadConfig()
	if err != nil {
		return deps.fail(err)
	}

	filter := docpkg.BundleFilter{
		Sources: docpkg.SplitList(c.Source),
		Tags:    docpkg.SplitList(c.Tag),
		Include: c.Include,
	}
	content, ok, err := deps.indexer(cfg).Bundle(deps.Ctx, index.Options{}, filter)
	if err != nil {
		return deps.fail(err)
	}
	if !ok {
		fmt.Fprintln(deps.Stderr, "warning: no matching documentation found to bundle")
		return nil
	}

	output := deps.resolvePath(c.Output)
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return deps.fail(err)
	}
	if err := os.WriteFile(output, []byte(content), 0644); err != nil {
		return deps.fail(err)
	}
	fmt.Fprintf(deps.Stdout, "Bundle written to %s\n", output)
	return nil
}

// Run executes the enrich command.
func (c *EnrichCmd) Run(deps *Dependencies) error {
	var ix *index.Indexer
	var opts index.Options
	if c.SourceMode {
		var err error
		if ix, opts, _, err = sourceIndexer(deps); err != nil {
			return deps.fail(err)
		}
	} else {
		cfg, err := deps.loadConfig()
		if err != nil {
			return deps.fail(err)
		}
		ix = deps.indexer(cfg)
	}

	idx, err := ix.Generate(deps.Ctx, opts)
	if err != nil {
		return deps.fail(err)
	}

	e := &index.Enricher{
		Analyzer: deps.Analyzer,
		Force:    c.Force,
		Logger:   deps.Logger,
		Now:      deps.Now,
	}
	result, err := e.Enrich(deps.Ctx, idx)
	if err != nil {
		return deps.fail(err)
	}
	if result.Failed > 0 {
		fmt.Fprintf(deps.Stderr, "warning: %d files could not be enriched\n", result.Failed)
	}
	if result.Enriched == 0 {
		fmt.Fprintln(deps.Stdout, "No documents needed enrichment.")
		return nil
	}

	if err := ix.Save(deps.Ctx, idx); err != nil {
		return deps.fail(err)
	}
	fmt.Fprintf(deps.Stdout, "Enriched %d documents.\n", result.Enriched)
	return nil
}

// Run executes the search command.
func (c *SearchCmd) Run(deps *Dependencies) error {
	cfg, err := deps.loadConfig()
	if err != nil {
		return deps.fail(err)
	}

	idx, err := deps.indexer(cfg).Generate(deps.Ctx, index.Options{})
	if err != nil {
		return deps.fail(err)
	}

	dir := deps.resolvePath(cfg.InstallPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return deps.fail(err)
	}
	db := sqlite.NewDB(filepath.Join(dir, SearchDBFile))
	if err := db.Open(); err != nil {
		return deps.fail(err)
	}
	defer db.Close()

	store := sqlite.NewSearchStore(db)
	if err := store.SaveIndex(deps.Ctx, idx); err != nil {
		return deps.fail(err)
	}

	results, err := store.Search(deps.Ctx, c.Query, docpkg.SearchOptions{
		Sources: docpkg.SplitList(c.Source),
		Limit:   c.Limit,
	})
	if err != nil {
		return deps.fail(err)
	}
	if len(results) == 0 {
		fmt.Fprintln(deps.Stdout, "No results.")
		return nil
	}
	for _, r := range results {
		fmt.Fprintf(deps.Stdout, "%s  [%s]  %s\n", r.File.Path, r.File.Source, r.File.Title)
		if r.Snippet != "" {
			fmt.Fprintf(deps.Stdout, "    %s\n", r.Snippet)
		}
	}
	return nil
}
