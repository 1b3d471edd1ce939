package fs

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/fwojciec/docpkg"
)

// ReadManifest reads <dir>/.docpkg-manifest.json. It returns a nil
// manifest and no error when the file is absent.
func ReadManifest(dir string) (*docpkg.Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, docpkg.ManifestFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	var m docpkg.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, docpkg.Errorf(docpkg.EINVALID, "malformed %s: %v", docpkg.ManifestFile, err)
	}
	return &m, nil
}

// WriteManifest writes m to <dir>/.docpkg-manifest.json.
func WriteManifest(dir string, m *docpkg.Manifest) error {
	if err := m.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, docpkg.ManifestFile), append(data, '\n'), 0644)
}

// ExtractDocs copies the documentation subtree of a fetched source root into
// targetDir. The selection comes from the source's manifest, and a shipped
// precomputed index is copied alongside. It returns the number of files
// copied by the glob copier.
func ExtractDocs(ctx context.Context, copier docpkg.GlobCopier, srcRoot, targetDir string) (int, error) {
	m, err := ReadManifest(srcRoot)
	if err != nil {
		return 0, err
	}
	patterns, basePath := m.Selection()

	precomputed := filepath.Join(srcRoot, docpkg.PrecomputedIndexFile)
	if _, err := os.Stat(precomputed); err == nil {
		if err := CopyFile(precomputed, filepath.Join(targetDir, docpkg.PrecomputedIndexFile)); err != nil {
			return 0, err
		}
	}

	return copier.Copy(ctx, srcRoot, targetDir, patterns, basePath)
}
