package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/fwojciec/docpkg"
)

// Run executes the list command.
func (c *ListCmd) Run(deps *Dependencies) error {
	cfg, err := deps.loadConfig()
	if err != nil {
		return deps.fail(err)
	}
	ledger, err := deps.Ledger.Load(deps.Ctx)
	if err != nil {
		return deps.fail(err)
	}

	if c.JSON {
		data, err := json.MarshalIndent(struct {
			Config    map[string]string              `json:"config"`
			Installed map[string]*docpkg.LedgerEntry `json:"installed"`
		}{cfg.Sources, ledger.Sources}, "", "  ")
		if err != nil {
			return deps.fail(err)
		}
		fmt.Fprintln(deps.Stdout, string(data))
		return nil
	}

	if len(cfg.Sources) == 0 {
		fmt.Fprintln(deps.Stdout, "No sources configured. Use 'docpkg add' to add one.")
		return nil
	}

	names := make([]string, 0, len(cfg.Sources))
	for name := range cfg.Sources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		status := "(not installed)"
		if entry, ok := ledger.Entry(name); ok {
			status = fmt.Sprintf("(installed: %s)", entry.Resolved)
		}
		fmt.Fprintf(deps.Stdout, "%s  %s  %s\n", name, cfg.Sources[name], status)
	}
	return nil
}

// Run executes the info command.
func (c *InfoCmd) Run(deps *Dependencies) error {
	cfg, err := deps.loadConfig()
	if err != nil {
		return deps.fail(err)
	}
	ledger, err := deps.Ledger.Load(deps.Ctx)
	if err != nil {
		return deps.fail(err)
	}

	spec, configured := cfg.Sources[c.Name]
	entry, installed := ledger.Entry(c.Name)
	if !configured && !installed {
		return deps.fail(docpkg.Errorf(docpkg.ENOTFOUND, "source %q not found in config or ledger", c.Name))
	}

	w := deps.Stdout
	fmt.Fprintf(w, "Source: %s\n", c.Name)
	if configured {
		fmt.Fprintf(w, "Configured: %s\n", spec)
	} else {
		fmt.Fprintln(w, "Configured: (not in config)")
	}

	if !installed {
		fmt.Fprintln(w, "\nNot currently installed.")
		return nil
	}
	fmt.Fprintln(w, "\nInstallation:")
	fmt.Fprintf(w, "  Type: %s\n", entry.Type)
	fmt.Fprintf(w, "  Resolved: %s\n", entry.Resolved)
	if entry.Version != "" {
		fmt.Fprintf(w, "  Version: %s\n", entry.Version)
	}
	if entry.Commit != "" {
		fmt.Fprintf(w, "  Commit: %s\n", entry.Commit)
	}
	fmt.Fprintf(w, "  Installed: %s\n", entry.InstalledAt.Format(time.RFC3339))
	fmt.Fprintf(w, "  Location: %s\n", entry.ExtractedPath)
	if entry.Integrity != "" {
		fmt.Fprintf(w, "  Integrity: %s\n", entry.Integrity)
	}
	return nil
}
