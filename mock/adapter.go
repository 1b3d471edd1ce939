package mock

import (
	"context"

	"github.com/fwojciec/docpkg"
)

var _ docpkg.Adapter = (*Adapter)(nil)

// Adapter is a mock implementation of docpkg.Adapter.
type Adapter struct {
	TypeFn    func() docpkg.SourceType
	ParseFn   func(spec string) (*docpkg.ParsedSource, bool)
	ResolveFn func(ctx context.Context, src *docpkg.ParsedSource) (*docpkg.ResolvedSource, error)
	FetchFn   func(ctx context.Context, src *docpkg.ResolvedSource, cacheDir string) (string, error)
	ExtractFn func(ctx context.Context, cachedPath, targetDir string, src *docpkg.ResolvedSource) error
}

func (a *Adapter) Type() docpkg.SourceType {
	return a.TypeFn()
}

func (a *Adapter) Parse(spec string) (*docpkg.ParsedSource, bool) {
	return a.ParseFn(spec)
}

func (a *Adapter) Resolve(ctx context.Context, src *docpkg.ParsedSource) (*docpkg.ResolvedSource, error) {
	return a.ResolveFn(ctx, src)
}

func (a *Adapter) Fetch(ctx context.Context, src *docpkg.ResolvedSource, cacheDir string) (string, error) {
	return a.FetchFn(ctx, src, cacheDir)
}

func (a *Adapter) Extract(ctx context.Context, cachedPath, targetDir string, src *docpkg.ResolvedSource) error {
	return a.ExtractFn(ctx, cachedPath, targetDir, src)
}
