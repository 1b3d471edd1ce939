package fs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/fwojciec/docpkg"
	"github.com/fwojciec/docpkg/cache"
)

// Ensure IndexStore implements docpkg.IndexStore at compile time.
var _ docpkg.IndexStore = (*IndexStore)(nil)

// IndexStore writes the generated index as pretty-printed JSON.
type IndexStore struct {
	path string
}

// NewIndexStore creates an IndexStore writing to path.
func NewIndexStore(path string) *IndexStore {
	return &IndexStore{path: path}
}

// NewInstallIndexStore creates an IndexStore writing <root>/<installPath>/index.json.
func NewInstallIndexStore(root, installPath string) *IndexStore {
	return NewIndexStore(filepath.Join(root, installPath, docpkg.IndexFile))
}

// Path returns the index file location.
func (s *IndexStore) Path() string { return s.path }

func (s *IndexStore) SaveIndex(ctx context.Context, idx *docpkg.Index) error {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return err
	}
	return cache.WriteFile(s.path, append(data, '\n'))
}

// LoadIndex reads an index previously written by SaveIndex.
func (s *IndexStore) LoadIndex(ctx context.Context) (*docpkg.Index, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, docpkg.Errorf(docpkg.ENOTFOUND, "index not found: %s", s.path)
	} else if err != nil {
		return nil, err
	}
	var idx docpkg.Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, docpkg.Errorf(docpkg.EINVALID, "malformed index %s: %v", s.path, err)
	}
	return &idx, nil
}
