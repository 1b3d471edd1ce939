package mock

import (
	"context"

	"github.com/fwojciec/docpkg"
)

var _ docpkg.IndexStore = (*IndexStore)(nil)

// IndexStore is a mock implementation of docpkg.IndexStore.
type IndexStore struct {
	SaveIndexFn func(ctx context.Context, idx *docpkg.Index) error
}

func (s *IndexStore) SaveIndex(ctx context.Context, idx *docpkg.Index) error {
	return s.SaveIndexFn(ctx, idx)
}

var _ docpkg.SearchService = (*SearchService)(nil)

// SearchService is a mock implementation of docpkg.SearchService.
type SearchService struct {
	SearchFn func(ctx context.Context, query string, opts docpkg.SearchOptions) ([]docpkg.SearchResult, error)
}

func (s *SearchService) Search(ctx context.Context, query string, opts docpkg.SearchOptions) ([]docpkg.SearchResult, error) {
	return s.SearchFn(ctx, query, opts)
}
