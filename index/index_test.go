package index_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/docpkg"
	"github.com/fwojciec/docpkg/index"
	"github.com/fwojciec/docpkg/mock"
	"github.com/fwojciec/docpkg/yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
}

// wordTokens counts whitespace-separated words as tokens.
func wordTokens() *mock.TokenCounter {
	return &mock.TokenCounter{
		CountTokensFn: func(ctx context.Context, text string) (int, error) {
			return len(strings.Fields(text)), nil
		},
	}
}

func ledgerWith(entries map[string]*docpkg.LedgerEntry) *mock.InMemoryLedgerStore {
	l := docpkg.NewLedger()
	for name, e := range entries {
		l.SetEntry(name, e)
	}
	return &mock.InMemoryLedgerStore{Ledger: l}
}

func newIndexer(root string, ledger docpkg.LedgerStore) *index.Indexer {
	return &index.Indexer{
		Ledger:       ledger,
		FrontMatter:  yaml.NewFrontMatterParser(),
		TokenCounter: wordTokens(),
		Root:         root,
		Now:          func() time.Time { return fixedNow },
	}
}

func localEntry(path string) *docpkg.LedgerEntry {
	return &docpkg.LedgerEntry{
		ResolvedSource: docpkg.ResolvedSource{Type: docpkg.SourceLocal, Resolved: "local:" + path},
		ExtractedPath:  path,
	}
}

func TestIndexer_Generate(t *testing.T) {
	t.Parallel()

	t.Run("sample docs yield one entry with front matter title and tags", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeFiles(t, root, map[string]string{
			"docs/sample-docs/intro.md": "---\ntitle: X\ntags: [a, b]\n---\n# Intro\n\nHello there world.\n",
		})
		ix := newIndexer(root, ledgerWith(map[string]*docpkg.LedgerEntry{
			"sample-docs": localEntry("docs/sample-docs"),
		}))

		idx, err := ix.Generate(context.Background(), index.Options{})

		require.NoError(t, err)
		require.Len(t, idx.Files, 1)
		f := idx.Files[0]
		assert.Equal(t, "X", f.Title)
		assert.Equal(t, []string{"a", "b"}, f.Tags)
		assert.Equal(t, "docs/sample-docs/intro.md", f.Path)
		assert.Equal(t, "sample-docs", f.Source)
		assert.Equal(t, filepath.Join(root, "docs", "sample-docs", "intro.md"), f.AbsolutePath)
		assert.Equal(t, 5, f.WordCount)
		assert.Equal(t, []docpkg.Section{{Title: "Intro", Level: 1}}, f.Sections)
		assert.Equal(t, []string{f.Path}, idx.Tags["a"])
		assert.Equal(t, []string{f.Path}, idx.Tags["b"])
		assert.Equal(t, fixedNow, idx.GeneratedAt)
	})

	t.Run("title falls back to first h1 then file stem", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeFiles(t, root, map[string]string{
			"docs/lib/a.md":            "## Sub\n# Heading One\n",
			"docs/lib/b-notes.md":      "plain text only\n",
			"docs/lib/skip.txt":        "not markdown",
			"docs/lib/deep/c.markdown": "### Deep\n",
		})
		ix := newIndexer(root, ledgerWith(map[string]*docpkg.LedgerEntry{"lib": localEntry("docs/lib")}))

		idx, err := ix.Generate(context.Background(), index.Options{})

		require.NoError(t, err)
		require.Len(t, idx.Files, 3)
		titles := map[string]string{}
		for _, f := range idx.Files {
			titles[f.Path] = f.Title
			assert.Equal(t, "", f.Description)
			assert.NotNil(t, f.Tags)
		}
		assert.Equal(t, "Heading One", titles["docs/lib/a.md"])
		assert.Equal(t, "b-notes", titles["docs/lib/b-notes.md"])
		assert.Equal(t, "c", titles["docs/lib/deep/c.markdown"])
	})

	t.Run("tag aggregation contains exactly each file's tags", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeFiles(t, root, map[string]string{
			"docs/lib/1.md": "---\ntags: [api, guide]\n---\nbody",
			"docs/lib/2.md": "---\ntags: guide, ops\n---\nbody",
			"docs/lib/3.md": "no tags",
		})
		ix := newIndexer(root, ledgerWith(map[string]*docpkg.LedgerEntry{"lib": localEntry("docs/lib")}))

		idx, err := ix.Generate(context.Background(), index.Options{})

		require.NoError(t, err)
		assert.Equal(t, map[string][]string{
			"api":   {"docs/lib/1.md"},
			"guide": {"docs/lib/1.md", "docs/lib/2.md"},
			"ops":   {"docs/lib/2.md"},
		}, idx.Tags)
		for tag, paths := range idx.Tags {
			for _, p := range paths {
				var f *docpkg.FileEntry
				for _, candidate := range idx.Files {
					if candidate.Path == p {
						f = candidate
					}
				}
				require.NotNil(t, f)
				assert.Contains(t, f.Tags, tag)
			}
		}
	})

	t.Run("missing extracted path is listed but not scanned", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeFiles(t, root, map[string]string{"docs/ok/a.md": "# A"})
		ix := newIndexer(root, ledgerWith(map[string]*docpkg.LedgerEntry{
			"gone": localEntry("docs/gone"),
			"ok":   localEntry("docs/ok"),
		}))

		idx, err := ix.Generate(context.Background(), index.Options{})

		require.NoError(t, err)
		require.Len(t, idx.Sources, 2)
		assert.Equal(t, docpkg.IndexSource{Name: "gone", Type: "local", Version: index.UnknownVersion, Path: "docs/gone"}, idx.Sources[0])
		assert.Equal(t, "ok", idx.Sources[1].Name)
		require.Len(t, idx.Files, 1)
		assert.Equal(t, "ok", idx.Files[0].Source)
	})

	t.Run("source version falls back to ref then unknown", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeFiles(t, root, map[string]string{
			"docs/a/x.md": "x",
			"docs/b/x.md": "x",
			"docs/c/x.md": "x",
		})
		a := localEntry("docs/a")
		a.Version = "1.2.3"
		b := localEntry("docs/b")
		b.Ref = "main"
		ix := newIndexer(root, ledgerWith(map[string]*docpkg.LedgerEntry{
			"a": a,
			"b": b,
			"c": localEntry("docs/c"),
		}))

		idx, err := ix.Generate(context.Background(), index.Options{})

		require.NoError(t, err)
		require.Len(t, idx.Sources, 3)
		assert.Equal(t, "1.2.3", idx.Sources[0].Version)
		assert.Equal(t, "main", idx.Sources[1].Version)
		assert.Equal(t, index.UnknownVersion, idx.Sources[2].Version)
	})

	t.Run("precomputed entries win on path match", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeFiles(t, root, map[string]string{
			"docs/lib/guide.md": "# Fresh Title",
			"docs/lib/other.md": "# Other",
			"docs/lib/.docpkg-index.json": `{"files":[
				{"path":"docs/guide.md","source":"upstream","absolutePath":"/build/docs/guide.md","title":"Shipped Title","tags":["shipped"],"wordCount":42}
			]}`,
		})
		ix := newIndexer(root, ledgerWith(map[string]*docpkg.LedgerEntry{"lib": localEntry("docs/lib")}))

		idx, err := ix.Generate(context.Background(), index.Options{})

		require.NoError(t, err)
		require.Len(t, idx.Files, 2)
		guide := idx.Files[0]
		assert.Equal(t, "Shipped Title", guide.Title)
		assert.Equal(t, 42, guide.WordCount)
		assert.Equal(t, "docs/lib/guide.md", guide.Path)
		assert.Equal(t, "lib", guide.Source)
		assert.Equal(t, filepath.Join(root, "docs", "lib", "guide.md"), guide.AbsolutePath)
		assert.Equal(t, []string{"docs/lib/guide.md"}, idx.Tags["shipped"])
		assert.Equal(t, "Other", idx.Files[1].Title)
	})

	t.Run("precomputed match prefers exact then closest path", func(t *testing.T) {
		t.Parallel()

		// Given nested index.md files and a shipped index listing the nested one first
		root := t.TempDir()
		writeFiles(t, root, map[string]string{
			"docs/lib/index.md":       "# Fresh Root",
			"docs/lib/guide/index.md": "# Fresh Guide",
			"docs/lib/api/index.md":   "# Fresh API",
			"docs/lib/.docpkg-index.json": `{"files":[
				{"path":"docs/guide/index.md","title":"Guide Shipped","tags":["guide"]},
				{"path":"docs/index.md","title":"Root Shipped","tags":["root"]},
				{"path":"other/docs/api/index.md","title":"Far API","tags":["far"]},
				{"path":"api/index.md","title":"API Shipped","tags":["api"]}
			]}`,
		})
		ix := newIndexer(root, ledgerWith(map[string]*docpkg.LedgerEntry{"lib": localEntry("docs/lib")}))

		// When the index is generated
		idx, err := ix.Generate(context.Background(), index.Options{})

		// Then each file gets its own shipped metadata
		require.NoError(t, err)
		titles := map[string]string{}
		for _, f := range idx.Files {
			titles[f.Path] = f.Title
		}
		assert.Equal(t, map[string]string{
			"docs/lib/index.md":       "Root Shipped",
			"docs/lib/guide/index.md": "Guide Shipped",
			"docs/lib/api/index.md":   "API Shipped",
		}, titles)
		assert.Equal(t, []string{"docs/lib/index.md"}, idx.Tags["root"])
		assert.Equal(t, []string{"docs/lib/guide/index.md"}, idx.Tags["guide"])
		assert.NotContains(t, idx.Tags, "far")
	})

	t.Run("precomputed absolute path is a last resort", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeFiles(t, root, map[string]string{
			"docs/lib/ref.md": "# Fresh",
			"docs/lib/.docpkg-index.json": `{"files":[
				{"path":"elsewhere.md","absolutePath":"/build/docs/ref.md","title":"By Absolute"}
			]}`,
		})
		ix := newIndexer(root, ledgerWith(map[string]*docpkg.LedgerEntry{"lib": localEntry("docs/lib")}))

		idx, err := ix.Generate(context.Background(), index.Options{})

		require.NoError(t, err)
		require.Len(t, idx.Files, 1)
		assert.Equal(t, "By Absolute", idx.Files[0].Title)
		assert.Equal(t, "docs/lib/ref.md", idx.Files[0].Path)
	})

	t.Run("malformed precomputed index is ignored", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeFiles(t, root, map[string]string{
			"docs/lib/guide.md":           "# Fresh",
			"docs/lib/.docpkg-index.json": `{not json`,
		})
		ix := newIndexer(root, ledgerWith(map[string]*docpkg.LedgerEntry{"lib": localEntry("docs/lib")}))

		idx, err := ix.Generate(context.Background(), index.Options{})

		require.NoError(t, err)
		require.Len(t, idx.Files, 1)
		assert.Equal(t, "Fresh", idx.Files[0].Title)
	})

	t.Run("token count failure is not fatal", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeFiles(t, root, map[string]string{"docs/lib/a.md": "# A"})
		ix := newIndexer(root, ledgerWith(map[string]*docpkg.LedgerEntry{"lib": localEntry("docs/lib")}))
		ix.TokenCounter = &mock.TokenCounter{
			CountTokensFn: func(ctx context.Context, text string) (int, error) {
				return 0, errors.New("tokenizer unavailable")
			},
		}

		idx, err := ix.Generate(context.Background(), index.Options{})

		require.NoError(t, err)
		require.Len(t, idx.Files, 1)
		assert.Equal(t, 0, idx.Files[0].TokenCount)
	})

	t.Run("source mode attributes files to the manifest name", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeFiles(t, root, map[string]string{
			"guides/start.md": "---\ntags: [intro]\n---\n# Start",
			"README.md":       "# Not scanned",
		})
		ix := newIndexer(root, nil)

		idx, err := ix.Generate(context.Background(), index.Options{
			Manifest: &docpkg.Manifest{Name: "my-docs", DocsPath: "../guides"},
		})

		require.NoError(t, err)
		require.Len(t, idx.Sources, 1)
		assert.Equal(t, docpkg.IndexSource{Name: "my-docs", Type: index.SourceTypeAuthoring, Path: "guides"}, idx.Sources[0])
		require.Len(t, idx.Files, 1)
		assert.Equal(t, "my-docs", idx.Files[0].Source)
		assert.Equal(t, "guides/start.md", idx.Files[0].Path)
		assert.Equal(t, []string{"guides/start.md"}, idx.Tags["intro"])
	})

	t.Run("source mode defaults to local and the root", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeFiles(t, root, map[string]string{"README.md": "# Readme"})
		ix := newIndexer(root, nil)

		idx, err := ix.Generate(context.Background(), index.Options{Manifest: &docpkg.Manifest{}})

		require.NoError(t, err)
		assert.Equal(t, index.DefaultSourceName, idx.Sources[0].Name)
		assert.Equal(t, ".", idx.Sources[0].Path)
		require.Len(t, idx.Files, 1)
		assert.Equal(t, "README.md", idx.Files[0].Path)
	})
}

func TestIndexer_Save(t *testing.T) {
	t.Parallel()

	var saved *docpkg.Index
	ix := newIndexer(t.TempDir(), ledgerWith(nil))
	ix.Store = &mock.IndexStore{
		SaveIndexFn: func(ctx context.Context, idx *docpkg.Index) error {
			saved = idx
			return nil
		},
	}
	idx := docpkg.NewIndex(fixedNow)

	require.NoError(t, ix.Save(context.Background(), idx))
	assert.Same(t, idx, saved)
}

func TestIndexer_Bundle(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) *index.Indexer {
		t.Helper()
		root := t.TempDir()
		writeFiles(t, root, map[string]string{
			"docs/api/ref.md":     "---\ntitle: Reference\ntags: [api]\n---\n# Reference\n\nEndpoints.",
			"docs/api/changes.md": "# Changes",
			"docs/guide/start.md": "---\ntags: [intro, api]\n---\n# Start",
		})
		return newIndexer(root, ledgerWith(map[string]*docpkg.LedgerEntry{
			"api":   localEntry("docs/api"),
			"guide": localEntry("docs/guide"),
		}))
	}

	t.Run("renders header and sections without front matter", func(t *testing.T) {
		t.Parallel()

		ix := setup(t)

		out, ok, err := ix.Bundle(context.Background(), index.Options{}, docpkg.BundleFilter{Sources: []string{"api"}, Include: "ref"})

		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "# Documentation Context\n"+
			"Generated by docpkg at 2025-06-01T12:00:00Z\n\n"+
			"---\n## Source: api\nFile: docs/api/ref.md\nTags: api\n\n"+
			"# Reference\n\nEndpoints.\n\n", out)
	})

	t.Run("nonexistent tag yields no bundle", func(t *testing.T) {
		t.Parallel()

		ix := setup(t)

		out, ok, err := ix.Bundle(context.Background(), index.Options{}, docpkg.BundleFilter{Tags: []string{"nonexistent"}})

		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, out)
	})

	t.Run("tags match any requested tag", func(t *testing.T) {
		t.Parallel()

		ix := setup(t)

		out, ok, err := ix.Bundle(context.Background(), index.Options{}, docpkg.BundleFilter{Tags: []string{"intro", "api"}})

		require.NoError(t, err)
		require.True(t, ok)
		assert.Contains(t, out, "File: docs/api/ref.md")
		assert.Contains(t, out, "File: docs/guide/start.md")
		assert.NotContains(t, out, "File: docs/api/changes.md")
	})

	t.Run("source filter equals client side filtering of the full bundle", func(t *testing.T) {
		t.Parallel()

		ix := setup(t)
		idx, err := ix.Generate(context.Background(), index.Options{})
		require.NoError(t, err)

		var clientSide []string
		for _, f := range idx.Files {
			if f.Source == "guide" {
				clientSide = append(clientSide, f.Path)
			}
		}
		var direct []string
		for _, f := range docpkg.FilterFiles(idx.Files, docpkg.BundleFilter{Sources: []string{"guide"}}) {
			direct = append(direct, f.Path)
		}
		out, ok, err := ix.Bundle(context.Background(), index.Options{}, docpkg.BundleFilter{Sources: []string{"guide"}})

		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, clientSide, direct)
		assert.Equal(t, 1, strings.Count(out, "## Source: "))
		assert.Contains(t, out, "File: docs/guide/start.md")
	})
}

func TestEnricher_Enrich(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) *docpkg.Index {
		t.Helper()
		root := t.TempDir()
		writeFiles(t, root, map[string]string{
			"a.md": "# A",
			"b.md": "# B",
		})
		idx := docpkg.NewIndex(fixedNow)
		idx.AddFile(&docpkg.FileEntry{Path: "a.md", AbsolutePath: filepath.Join(root, "a.md"), Tags: []string{"x"}})
		idx.AddFile(&docpkg.FileEntry{Path: "b.md", AbsolutePath: filepath.Join(root, "b.md"), Tags: []string{}})
		return idx
	}

	t.Run("merges analysis and rebuilds tags", func(t *testing.T) {
		t.Parallel()

		idx := setup(t)
		e := &index.Enricher{
			Analyzer: &mock.Analyzer{
				AnalyzeFn: func(ctx context.Context, content string) (*docpkg.Analysis, error) {
					return &docpkg.Analysis{
						Summary:  "Summary of " + content,
						Tags:     []string{"x", "y"},
						Sections: []docpkg.AISection{{Title: "A", Summary: "s"}},
					}, nil
				},
			},
			Now: func() time.Time { return fixedNow },
		}

		result, err := e.Enrich(context.Background(), idx)

		require.NoError(t, err)
		assert.Equal(t, 2, result.Enriched)
		a := idx.Files[0]
		assert.Equal(t, "Summary of # A", a.Description)
		assert.Equal(t, []string{"x", "y"}, a.Tags)
		assert.True(t, a.AIEnriched)
		require.NotNil(t, a.AIEnrichedAt)
		assert.Equal(t, fixedNow, *a.AIEnrichedAt)
		assert.Equal(t, []string{"a.md", "b.md"}, idx.Tags["y"])
	})

	t.Run("skips enriched files unless forced", func(t *testing.T) {
		t.Parallel()

		idx := setup(t)
		idx.Files[0].AIEnriched = true
		calls := 0
		e := &index.Enricher{
			Analyzer: &mock.Analyzer{
				AnalyzeFn: func(ctx context.Context, content string) (*docpkg.Analysis, error) {
					calls++
					return &docpkg.Analysis{}, nil
				},
			},
		}

		result, err := e.Enrich(context.Background(), idx)
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
		assert.Equal(t, 1, result.Skipped)

		e.Force = true
		_, err = e.Enrich(context.Background(), idx)
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("per-file failures continue", func(t *testing.T) {
		t.Parallel()

		idx := setup(t)
		e := &index.Enricher{
			Analyzer: &mock.Analyzer{
				AnalyzeFn: func(ctx context.Context, content string) (*docpkg.Analysis, error) {
					if content == "# A" {
						return nil, errors.New("quota exceeded")
					}
					return &docpkg.Analysis{Summary: "ok"}, nil
				},
			},
		}

		result, err := e.Enrich(context.Background(), idx)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Failed)
		assert.Equal(t, 1, result.Enriched)
		assert.False(t, idx.Files[0].AIEnriched)
		assert.Equal(t, "ok", idx.Files[1].Description)
	})
}

func TestMatchPrecomputed(t *testing.T) {
	t.Parallel()

	t.Run("shortest claiming path wins a tie", func(t *testing.T) {
		t.Parallel()

		got := index.MatchPrecomputed([]*docpkg.FileEntry{
			{Path: "a/b/index.md", Title: "deep"},
			{Path: "a/index.md", Title: "near"},
		}, []string{"index.md"})

		require.Contains(t, got, "index.md")
		assert.Equal(t, "near", got["index.md"].Title)
	})

	t.Run("entry is claimed by its longest matching file", func(t *testing.T) {
		t.Parallel()

		got := index.MatchPrecomputed([]*docpkg.FileEntry{
			{Path: "docs/guide/index.md", Title: "guide"},
		}, []string{"guide/index.md", "index.md"})

		assert.Equal(t, "guide", got["guide/index.md"].Title)
		assert.NotContains(t, got, "index.md")
	})

	t.Run("copies are normalized", func(t *testing.T) {
		t.Parallel()

		shipped := &docpkg.FileEntry{Path: "x.md"}
		got := index.MatchPrecomputed([]*docpkg.FileEntry{nil, shipped}, []string{"x.md"})

		require.Contains(t, got, "x.md")
		assert.Equal(t, []string{}, got["x.md"].Tags)
		assert.Equal(t, []docpkg.Section{}, got["x.md"].Sections)
		got["x.md"].Title = "changed"
		assert.Empty(t, shipped.Title)
	})
}
