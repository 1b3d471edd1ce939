package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fwojciec/docpkg"
	"github.com/fwojciec/docpkg/yaml"
)

// formatSelector is implemented by config stores that can write more than
// one file format.
type formatSelector interface {
	UseFormat(f yaml.Format)
}

// Run executes the init command.
func (c *InitCmd) Run(deps *Dependencies) error {
	if c.YAML && c.NPM {
		return deps.fail(docpkg.Errorf(docpkg.EINVALID, "--yaml and --npm are mutually exclusive"))
	}

	if _, err := deps.Config.Load(); err != nil && !c.Force {
		return deps.fail(err)
	}
	if deps.Config.Exists() && !c.Force {
		fmt.Fprintf(deps.Stderr, "Configuration already exists at %s. Use --force to overwrite.\n", deps.Config.Path())
		return nil
	}

	format := yaml.FormatJSON
	switch {
	case c.YAML:
		format = yaml.FormatYAML
	case c.NPM:
		format = yaml.FormatPackage
		if _, err := os.Stat(filepath.Join(deps.Root, yaml.PackageConfigFile)); err != nil {
			return deps.fail(docpkg.Errorf(docpkg.ENOTFOUND, "package.json not found"))
		}
	}
	if s, ok := deps.Config.(formatSelector); ok {
		s.UseFormat(format)
	}

	cfg := &docpkg.Config{
		Version:     "1",
		InstallPath: "docs",
		Structure:   "nested",
		Sources:     map[string]string{},
		Cache:       docpkg.CacheConfig{Enabled: true},
	}
	if err := deps.Config.Save(cfg); err != nil {
		return deps.fail(err)
	}

	fmt.Fprintf(deps.Stdout, "Created %s\n", deps.Config.Path())
	return nil
}
