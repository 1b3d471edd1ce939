package main

import (
	"fmt"

	"github.com/fwojciec/docpkg"
)

// Run executes the add command.
func (c *AddCmd) Run(deps *Dependencies) error {
	cfg, err := deps.loadConfig()
	if err != nil {
		return deps.fail(err)
	}

	_, parsed, ok := docpkg.MatchAdapter(deps.Adapters, c.Spec)
	if !ok {
		return deps.fail(docpkg.Errorf(docpkg.EINVALID, "no adapter found for source: %s", c.Spec))
	}
	name := c.Name
	if name == "" {
		name = parsed.Name
	}
	if name == "" {
		return deps.fail(docpkg.Errorf(docpkg.EINVALID, "could not determine source name, use --name"))
	}
	if err := docpkg.ValidateSourceName(name); err != nil {
		return deps.fail(err)
	}

	created := !deps.Config.Exists()
	cfg.Sources[name] = c.Spec
	if err := deps.saveConfig(cfg); err != nil {
		return deps.fail(err)
	}
	if created {
		fmt.Fprintf(deps.Stdout, "Created %s\n", deps.Config.Path())
	}
	fmt.Fprintf(deps.Stdout, "Added %s: %s\n", name, c.Spec)

	if err := deps.install(cfg, map[string]string{name: c.Spec}, 1); err != nil {
		return err
	}
	return deps.updateIndex(cfg)
}
