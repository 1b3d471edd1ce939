// Package doublestar implements docpkg.GlobCopier using path globs with
// recursive "**" segments.
package doublestar

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fwojciec/docpkg"
	"github.com/fwojciec/docpkg/fs"
)

// Ensure Copier implements docpkg.GlobCopier at compile time.
var _ docpkg.GlobCopier = (*Copier)(nil)

// Copier copies glob-matched files between directory trees.
type Copier struct {
	logger *slog.Logger
}

// NewCopier creates a new Copier. A nil logger discards warnings.
func NewCopier(logger *slog.Logger) *Copier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Copier{logger: logger}
}

// Copy copies every file matching patterns below srcRoot into dstRoot.
// Matches from several patterns are deduplicated, keeping first-seen order.
// When a match lies below basePath, basePath is stripped from its
// destination, so "docs/**" with basePath "docs" lands flat in dstRoot.
func (c *Copier) Copy(ctx context.Context, srcRoot, dstRoot string, patterns []string, basePath string) (int, error) {
	info, err := os.Stat(srcRoot)
	if err != nil || !info.IsDir() {
		c.logger.Warn("glob copy source does not exist", "src", srcRoot)
		return 0, nil
	}

	matches, err := Match(srcRoot, patterns)
	if err != nil {
		return 0, err
	}
	if len(matches) == 0 {
		c.logger.Warn("no files matched patterns",
			"patterns", strings.Join(patterns, ", "),
			"src", srcRoot,
		)
		return 0, nil
	}

	if err := os.MkdirAll(dstRoot, 0755); err != nil {
		return 0, err
	}

	base := strings.Trim(filepath.ToSlash(basePath), "/")
	for _, rel := range matches {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		dst := filepath.Join(dstRoot, filepath.FromSlash(DestPath(rel, base)))
		if err := fs.CopyFile(filepath.Join(srcRoot, filepath.FromSlash(rel)), dst); err != nil {
			return 0, fmt.Errorf("copy %s: %w", rel, err)
		}
	}
	return len(matches), nil
}

// Match returns the slash-separated paths of files below root matching any
// of patterns, in pattern order and without duplicates. Files inside .git
// directories never match.
func Match(root string, patterns []string) ([]string, error) {
	fsys := os.DirFS(root)
	seen := make(map[string]bool)
	var matches []string
	for _, pattern := range patterns {
		pattern = strings.TrimPrefix(filepath.ToSlash(pattern), "./")
		if !doublestar.ValidatePattern(pattern) {
			return nil, docpkg.Errorf(docpkg.EINVALID, "invalid glob pattern %q", pattern)
		}
		found, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, err
		}
		for _, m := range found {
			if seen[m] || isVCSMetadata(m) {
				continue
			}
			seen[m] = true
			matches = append(matches, m)
		}
	}
	return matches, nil
}

// isVCSMetadata reports whether rel lies inside a .git directory.
func isVCSMetadata(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if seg == ".git" {
			return true
		}
	}
	return false
}

// DestPath returns the destination of rel after stripping base at a path
// segment boundary.
func DestPath(rel, base string) string {
	if base == "" || !strings.HasPrefix(rel, base+"/") {
		return rel
	}
	return path.Clean(strings.TrimPrefix(rel, base+"/"))
}
