package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fwojciec/docpkg"
)

// Run executes the verify command.
func (c *VerifyCmd) Run(deps *Dependencies) error {
	ledger, err := deps.Ledger.Load(deps.Ctx)
	if err != nil {
		return deps.fail(err)
	}

	missing := 0
	for _, name := range ledger.Names() {
		entry, _ := ledger.Entry(name)
		dir := deps.resolvePath(filepath.FromSlash(entry.ExtractedPath))

		files, err := os.ReadDir(dir)
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(deps.Stderr, "error: %s: missing directory %s\n", name, entry.ExtractedPath)
			missing++
			continue
		} else if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s: %s\n", name, err)
			missing++
			continue
		}
		if len(files) == 0 {
			fmt.Fprintf(deps.Stderr, "warning: %s: directory is empty: %s\n", name, entry.ExtractedPath)
		}
		fmt.Fprintf(deps.Stdout, "%s verified (%s)\n", name, entry.Resolved)
	}

	if missing > 0 {
		fmt.Fprintf(deps.Stderr, "error: verification failed for %d sources\n", missing)
		return docpkg.Errorf(docpkg.ENOTFOUND, "verification failed for %d sources", missing)
	}
	fmt.Fprintln(deps.Stdout, "All sources verified.")
	return nil
}

// Run executes the clean command.
func (c *CleanCmd) Run(deps *Dependencies) error {
	cfg, err := deps.loadConfig()
	if err != nil {
		return deps.fail(err)
	}

	dir := deps.resolvePath(cfg.InstallPath)
	if dir == deps.Root {
		return deps.fail(docpkg.Errorf(docpkg.EINVALID, "refusing to remove the project root"))
	}
	if err := removeDir(deps, dir, "Documentation directory"); err != nil {
		return err
	}

	if c.Cache {
		if err := removeDir(deps, deps.cacheDir(cfg), "Cache directory"); err != nil {
			return err
		}
	}
	return nil
}

func removeDir(deps *Dependencies, dir, label string) error {
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(deps.Stdout, "%s does not exist.\n", label)
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return deps.fail(err)
	}
	fmt.Fprintf(deps.Stdout, "Removed %s\n", dir)
	return nil
}
