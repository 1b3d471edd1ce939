package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/docpkg"
)

// Ensure LocalAdapter implements docpkg.Adapter at compile time.
var _ docpkg.Adapter = (*LocalAdapter)(nil)

// LocalAdapter installs documentation from a path on the local filesystem.
// Nothing is cached; every install snapshots the current contents.
type LocalAdapter struct {
	root string
}

// NewLocalAdapter creates a LocalAdapter resolving relative paths against root.
func NewLocalAdapter(root string) *LocalAdapter {
	return &LocalAdapter{root: root}
}

func (a *LocalAdapter) Type() docpkg.SourceType { return docpkg.SourceLocal }

// Parse claims "local:<path>" and the "file:" alias.
func (a *LocalAdapter) Parse(spec string) (*docpkg.ParsedSource, bool) {
	p, ok := docpkg.TrimScheme(spec, "local:", "file:")
	if !ok {
		return nil, false
	}
	name := filepath.Base(strings.TrimRight(p, `/\`))
	if name == "." || name == string(filepath.Separator) {
		name = ""
	}
	return &docpkg.ParsedSource{
		Type:     docpkg.SourceLocal,
		Name:     name,
		Path:     p,
		Original: spec,
	}, true
}

func (a *LocalAdapter) Resolve(ctx context.Context, src *docpkg.ParsedSource) (*docpkg.ResolvedSource, error) {
	if src.Path == "" {
		return nil, docpkg.Errorf(docpkg.EINVALID, "local path required")
	}
	p := src.Path
	if !filepath.IsAbs(p) {
		p = filepath.Join(a.root, p)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(abs); err != nil {
		if os.IsNotExist(err) {
			return nil, docpkg.Errorf(docpkg.ENOTFOUND, "path not found: %s", abs)
		}
		return nil, err
	}
	return &docpkg.ResolvedSource{
		Type:     docpkg.SourceLocal,
		Name:     src.Name,
		Path:     abs,
		Resolved: "local:" + abs,
	}, nil
}

// Fetch returns the resolved path unchanged.
func (a *LocalAdapter) Fetch(ctx context.Context, src *docpkg.ResolvedSource, cacheDir string) (string, error) {
	return src.Path, nil
}

// Extract copies a directory's contents into targetDir, or a single file
// into targetDir under its own name.
func (a *LocalAdapter) Extract(ctx context.Context, cachedPath, targetDir string, src *docpkg.ResolvedSource) error {
	info, err := os.Stat(cachedPath)
	if err != nil {
		if os.IsNotExist(err) {
			return docpkg.Errorf(docpkg.ENOTFOUND, "path not found: %s", cachedPath)
		}
		return err
	}
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return err
	}
	if info.IsDir() {
		if err := CopyDir(cachedPath, targetDir); err != nil {
			return fmt.Errorf("copy %s: %w", cachedPath, err)
		}
		return nil
	}
	return CopyFile(cachedPath, filepath.Join(targetDir, filepath.Base(cachedPath)))
}
