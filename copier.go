package docpkg

import "context"

// GlobCopier copies pattern-matched entries from one tree to another.
type GlobCopier interface {
	// Copy resolves patterns against srcRoot and copies every match below
	// dstRoot, stripping basePath from destination paths when a match starts
	// with it. It returns the number of matched entries. A missing srcRoot or
	// zero matches is not an error.
	Copy(ctx context.Context, srcRoot, dstRoot string, patterns []string, basePath string) (int, error)
}
