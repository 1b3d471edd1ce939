package install

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fwojciec/docpkg"
	"github.com/fwojciec/docpkg/fs"
)

// NodeModulesDir is where npm places installed dependencies.
const NodeModulesDir = "node_modules"

// SyncIntegrity is recorded for synced packages, which carry no tarball hash.
const SyncIntegrity = "n/a"

// Syncer copies documentation out of dependencies already installed in
// node_modules. A dependency takes part when it ships a manifest.
type Syncer struct {
	Ledger docpkg.LedgerStore
	Copier docpkg.GlobCopier

	Root        string
	InstallPath string

	// DryRun lists documentation packages without writing anything.
	DryRun bool
	// Force empties each target directory before copying.
	Force bool

	// Getenv looks up the production guard variables. Defaults to os.Getenv.
	Getenv func(string) string

	Logger *slog.Logger
	Now    func() time.Time
}

// SyncedPackage describes one documentation package found in node_modules.
type SyncedPackage struct {
	Name    string
	Version string
	Files   int
}

// SyncResult holds the outcome of a sync.
type SyncResult struct {
	// Skipped is set when the sync did not run because of the environment
	// or because the project has no package.json.
	Skipped  bool
	Packages []SyncedPackage
}

type packageJSON struct {
	Version         string            `json:"version"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// Production reports whether the environment marks a production run, in
// which documentation is never synced.
func (s *Syncer) Production() bool {
	getenv := s.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	return getenv("DOCPKG_ENV") == "production" || getenv("NODE_ENV") == "production"
}

// Sync scans package.json dependencies and devDependencies and installs the
// documentation of every dependency that ships a manifest.
func (s *Syncer) Sync(ctx context.Context) (*SyncResult, error) {
	logger := s.logger()
	if s.Production() {
		logger.Info("skipping sync in production")
		return &SyncResult{Skipped: true}, nil
	}

	pkg, err := readPackageJSON(filepath.Join(s.Root, packageFile))
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn("no package.json found, sync is intended for npm projects")
		return &SyncResult{Skipped: true}, nil
	} else if err != nil {
		return nil, err
	}

	deps := make(map[string]bool)
	for name := range pkg.DevDependencies {
		deps[name] = true
	}
	for name := range pkg.Dependencies {
		deps[name] = true
	}
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)

	var ledger *docpkg.Ledger
	if !s.DryRun {
		if ledger, err = s.Ledger.Load(ctx); err != nil {
			return nil, err
		}
	}

	result := &SyncResult{}
	for _, name := range names {
		depDir := filepath.Join(s.Root, NodeModulesDir, filepath.FromSlash(name))
		m, err := fs.ReadManifest(depDir)
		if err != nil {
			logger.Warn("skipping dependency", "source", name, "error", err)
			continue
		} else if m == nil {
			continue
		}
		if err := docpkg.ValidateSourceName(name); err != nil {
			logger.Warn("skipping dependency", "source", name, "error", err)
			continue
		}

		version := "unknown"
		if dep, err := readPackageJSON(filepath.Join(depDir, packageFile)); err == nil && dep.Version != "" {
			version = dep.Version
		}
		logger.Info("found doc package", "source", name, "version", version)

		if s.DryRun {
			result.Packages = append(result.Packages, SyncedPackage{Name: name, Version: version})
			continue
		}

		target := filepath.Join(s.Root, s.InstallPath, filepath.FromSlash(name))
		if s.Force {
			err = fs.EmptyDir(target)
		} else {
			err = os.MkdirAll(target, 0755)
		}
		if err != nil {
			return result, err
		}

		n, err := fs.ExtractDocs(ctx, s.Copier, depDir, target)
		if err != nil {
			logger.Warn("sync failed", "source", name, "error", err)
			continue
		}
		if n == 0 {
			logger.Warn("no documentation files found", "source", name)
			continue
		}

		ledger.SetEntry(name, &docpkg.LedgerEntry{
			ResolvedSource: docpkg.ResolvedSource{
				Type:      docpkg.SourceRegistry,
				Name:      name,
				Version:   version,
				Integrity: SyncIntegrity,
				Resolved:  "registry:" + name + "@" + version,
			},
			ExtractedPath: relativePath(s.Root, target),
			InstalledAt:   s.now(),
		})
		result.Packages = append(result.Packages, SyncedPackage{Name: name, Version: version, Files: n})
	}

	if !s.DryRun && len(result.Packages) > 0 {
		if err := s.Ledger.Save(ctx, ledger); err != nil {
			return result, err
		}
	}
	return result, nil
}

const packageFile = "package.json"

func readPackageJSON(path string) (*packageJSON, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, docpkg.Errorf(docpkg.EINVALID, "malformed %s: %v", path, err)
	}
	return &pkg, nil
}

func (s *Syncer) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Syncer) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.New(slog.DiscardHandler)
}
