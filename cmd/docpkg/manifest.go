package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fwojciec/docpkg"
	"github.com/fwojciec/docpkg/fs"
	"github.com/fwojciec/docpkg/yaml"
)

// manifestVersion is written until the package's own release tooling sets it.
const manifestVersion = "0.0.0"

// Run executes the manifest command.
func (c *ManifestCmd) Run(deps *Dependencies) error {
	existing, err := fs.ReadManifest(deps.Root)
	if err != nil && !c.Force {
		return deps.fail(err)
	}
	if existing != nil && !c.Force {
		fmt.Fprintf(deps.Stderr, "%s already exists. Use --force to overwrite.\n", docpkg.ManifestFile)
		return nil
	}

	name, description := filepath.Base(deps.Root), ""
	if data, err := os.ReadFile(filepath.Join(deps.Root, yaml.PackageConfigFile)); err == nil {
		var pkg struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		}
		if json.Unmarshal(data, &pkg) == nil {
			if pkg.Name != "" {
				name = pkg.Name
			}
			description = pkg.Description
		}
	}
	if c.Name != "" {
		name = c.Name
	}
	if c.Description != "" {
		description = c.Description
	}

	docsPath := docpkg.SanitizePath(c.DocsPath)
	if docsPath == "" {
		docsPath = docpkg.DefaultDocsPath
	}
	if _, err := os.Stat(deps.resolvePath(docsPath)); err != nil {
		fmt.Fprintf(deps.Stderr, "warning: docs path %s does not exist\n", docsPath)
	}

	m := &docpkg.Manifest{
		Name:     name,
		Version:  manifestVersion,
		Type:     string(docpkg.SourceRegistry),
		DocsPath: docsPath,
		Files:    []string{docsPath + "/**/*.md"},
		Metadata: docpkg.ManifestMetadata{
			Title:       c.Title,
			Description: description,
			Tags:        docpkg.SplitList(c.Tags),
		},
	}
	if err := fs.WriteManifest(deps.Root, m); err != nil {
		return deps.fail(err)
	}

	fmt.Fprintf(deps.Stdout, "Created %s\n", docpkg.ManifestFile)
	return nil
}
