// Package docpkg provides a documentation package manager. It resolves,
// fetches and materializes documentation from package registries,
// version-control repositories, remote files and local paths into a
// project-local tree, then builds a searchable index over the result.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., npm/, git/, http/, sqlite/).
package docpkg

// Conventional file names shared by adapters, the installer and the indexer.
const (
	// ManifestFile is the source-side declaration of distributable docs.
	ManifestFile = ".docpkg-manifest.json"

	// PrecomputedIndexFile is shipped by a source to skip re-extraction.
	PrecomputedIndexFile = ".docpkg-index.json"

	// LedgerFile records what is installed in a project.
	LedgerFile = "docpkg-lock.json"

	// IndexFile is written under the install path.
	IndexFile = "index.json"
)
