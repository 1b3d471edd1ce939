package docpkg_test

import (
	"testing"
	"time"

	"github.com/fwojciec/docpkg"
	"github.com/stretchr/testify/assert"
)

func TestBundleFilter_Match(t *testing.T) {
	t.Parallel()

	api := &docpkg.FileEntry{Path: "docs/a/api.md", Source: "a", Tags: []string{"api", "http"}}
	guide := &docpkg.FileEntry{Path: "docs/b/guide.md", Source: "b", Tags: []string{"guide"}}
	plain := &docpkg.FileEntry{Path: "docs/a/plain.md", Source: "a", Tags: []string{}}
	files := []*docpkg.FileEntry{api, guide, plain}

	tests := []struct {
		name   string
		filter docpkg.BundleFilter
		want   []*docpkg.FileEntry
	}{
		{"empty matches all", docpkg.BundleFilter{}, files},
		{"source", docpkg.BundleFilter{Sources: []string{"a"}}, []*docpkg.FileEntry{api, plain}},
		{"sources are ORed", docpkg.BundleFilter{Sources: []string{"a", "b"}}, files},
		{"tags are ORed", docpkg.BundleFilter{Tags: []string{"http", "guide"}}, []*docpkg.FileEntry{api, guide}},
		{"categories are ANDed", docpkg.BundleFilter{Sources: []string{"b"}, Tags: []string{"api"}}, nil},
		{"include substring", docpkg.BundleFilter{Include: "plain"}, []*docpkg.FileEntry{plain}},
		{"unknown tag", docpkg.BundleFilter{Tags: []string{"nope"}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, docpkg.FilterFiles(files, tt.filter))
		})
	}
}

func TestFilterFiles_Idempotent(t *testing.T) {
	t.Parallel()

	files := []*docpkg.FileEntry{
		{Path: "docs/a/x.md", Source: "a"},
		{Path: "docs/b/y.md", Source: "b"},
	}
	bf := docpkg.BundleFilter{Sources: []string{"a"}}

	once := docpkg.FilterFiles(files, bf)
	twice := docpkg.FilterFiles(once, bf)

	assert.Equal(t, once, twice)
}

func TestFormatBundle(t *testing.T) {
	t.Parallel()

	generatedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sections := []docpkg.BundleSection{
		{File: &docpkg.FileEntry{Path: "docs/api/ref.md", Source: "api", Tags: []string{"api", "rest"}}, Body: "# Ref"},
		{File: &docpkg.FileEntry{Path: "docs/api/intro.md", Source: "api"}, Body: "Hello"},
	}

	got := docpkg.FormatBundle(generatedAt, sections)

	want := "# Documentation Context\n" +
		"Generated by docpkg at 2025-06-01T12:00:00Z\n\n" +
		"---\n## Source: api\nFile: docs/api/ref.md\nTags: api, rest\n\n# Ref\n\n" +
		"---\n## Source: api\nFile: docs/api/intro.md\n\nHello\n\n"
	assert.Equal(t, want, got)
}

func TestSplitList(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"a", "b", "c"}, docpkg.SplitList(" a, b,,c ,"))
	assert.Nil(t, docpkg.SplitList(""))
}
