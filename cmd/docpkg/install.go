package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fwojciec/docpkg"
	"github.com/fwojciec/docpkg/yaml"
)

// Run executes the install command.
func (c *InstallCmd) Run(deps *Dependencies) error {
	cfg, err := deps.loadConfig()
	if err != nil {
		return deps.fail(err)
	}

	// npm projects get documentation from node_modules first.
	if _, err := os.Stat(filepath.Join(deps.Root, yaml.PackageConfigFile)); err == nil {
		if err := runSync(deps, cfg, false, false); err != nil {
			return err
		}
	}

	if len(cfg.Sources) == 0 {
		fmt.Fprintln(deps.Stdout, "No sources configured. Use 'docpkg add' to add one.")
	} else if err := deps.install(cfg, cfg.Sources, c.Concurrency); err != nil {
		return err
	}
	return deps.updateIndex(cfg)
}

// Run executes the update command.
func (c *UpdateCmd) Run(deps *Dependencies) error {
	cfg, err := deps.loadConfig()
	if err != nil {
		return deps.fail(err)
	}

	sources := cfg.Sources
	if c.Name != "" {
		spec, ok := cfg.Sources[c.Name]
		if !ok {
			return deps.fail(docpkg.Errorf(docpkg.ENOTFOUND, "source %q is not in configuration", c.Name))
		}
		sources = map[string]string{c.Name: spec}
	}

	if err := deps.install(cfg, sources, c.Concurrency); err != nil {
		return err
	}
	return deps.updateIndex(cfg)
}

// Run executes the sync command.
func (c *SyncCmd) Run(deps *Dependencies) error {
	cfg, err := deps.loadConfig()
	if err != nil {
		return deps.fail(err)
	}
	return runSync(deps, cfg, c.Force, c.DryRun)
}

func runSync(deps *Dependencies, cfg *docpkg.Config, force, dryRun bool) error {
	s := deps.syncer(cfg)
	s.Force = force
	s.DryRun = dryRun

	result, err := s.Sync(deps.Ctx)
	if err != nil {
		return deps.fail(err)
	}
	if result.Skipped {
		return nil
	}
	if len(result.Packages) == 0 {
		fmt.Fprintln(deps.Stdout, "No doc packages found in node_modules.")
		return nil
	}
	for _, p := range result.Packages {
		if dryRun {
			fmt.Fprintf(deps.Stdout, "Would sync %s v%s\n", p.Name, p.Version)
		} else {
			fmt.Fprintf(deps.Stdout, "Synced %s v%s (%d files)\n", p.Name, p.Version, p.Files)
		}
	}
	return nil
}

// Run executes the remove command.
func (c *RemoveCmd) Run(deps *Dependencies) error {
	cfg, err := deps.loadConfig()
	if err != nil {
		return deps.fail(err)
	}

	if _, ok := cfg.Sources[c.Name]; !ok {
		err := docpkg.Errorf(docpkg.ENOTFOUND, "source %q is not in configuration", c.Name)
		return deps.fail(err)
	}

	delete(cfg.Sources, c.Name)
	if err := deps.saveConfig(cfg); err != nil {
		return deps.fail(err)
	}
	if _, err := deps.installer(cfg, 1).Remove(deps.Ctx, c.Name); err != nil {
		return deps.fail(err)
	}

	fmt.Fprintf(deps.Stdout, "Removed %s\n", c.Name)
	return deps.updateIndex(cfg)
}
