package mock

import (
	"context"

	"github.com/fwojciec/docpkg"
)

var _ docpkg.GlobCopier = (*GlobCopier)(nil)

// GlobCopier is a mock implementation of docpkg.GlobCopier.
type GlobCopier struct {
	CopyFn func(ctx context.Context, srcRoot, dstRoot string, patterns []string, basePath string) (int, error)
}

func (c *GlobCopier) Copy(ctx context.Context, srcRoot, dstRoot string, patterns []string, basePath string) (int, error) {
	return c.CopyFn(ctx, srcRoot, dstRoot, patterns, basePath)
}
