package mock

import (
	"context"

	"github.com/fwojciec/docpkg"
)

var _ docpkg.Analyzer = (*Analyzer)(nil)

// Analyzer is a mock implementation of docpkg.Analyzer.
type Analyzer struct {
	AnalyzeFn func(ctx context.Context, content string) (*docpkg.Analysis, error)
}

func (a *Analyzer) Analyze(ctx context.Context, content string) (*docpkg.Analysis, error) {
	return a.AnalyzeFn(ctx, content)
}
