package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/fwojciec/docpkg"
	dochttp "github.com/fwojciec/docpkg/http"
	"github.com/fwojciec/docpkg/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapter_Parse(t *testing.T) {
	t.Parallel()

	a := dochttp.NewAdapter(dochttp.NewClient())

	tests := []struct {
		spec     string
		ok       bool
		name     string
		url      string
		filename string
	}{
		{"remote:https://example.com/docs/guide.md", true, "guide", "https://example.com/docs/guide.md", "guide.md"},
		{"https://example.com/api.html", true, "api", "https://example.com/api.html", "api.html"},
		{"remote:https://example.com/", true, "download", "https://example.com/", "download"},
		{"remote:ftp://example.com/file.md", false, "", "", ""},
		{"registry:react", false, "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			t.Parallel()

			src, ok := a.Parse(tt.spec)

			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, docpkg.SourceRemote, src.Type)
			assert.Equal(t, tt.name, src.Name)
			assert.Equal(t, tt.url, src.URL)
			assert.Equal(t, tt.filename, src.Filename)
		})
	}
}

func TestAdapter_Resolve(t *testing.T) {
	t.Parallel()

	a := dochttp.NewAdapter(dochttp.NewClient())
	parsed, ok := a.Parse("https://example.com/guide.md")
	require.True(t, ok)

	resolved, err := a.Resolve(context.Background(), parsed)

	require.NoError(t, err)
	assert.Equal(t, "remote:https://example.com/guide.md", resolved.Resolved)

	// Resolving again yields the same result.
	again, err := a.Resolve(context.Background(), parsed)
	require.NoError(t, err)
	assert.Equal(t, resolved, again)
}

func TestAdapter_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("reuses cache entry", func(t *testing.T) {
		t.Parallel()

		// Given a server counting requests
		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			_, _ = w.Write([]byte("# Guide"))
		}))
		defer server.Close()

		a := dochttp.NewAdapter(dochttp.NewClient())
		ctx := context.Background()
		parsed, ok := a.Parse("remote:" + server.URL + "/guide.md")
		require.True(t, ok)
		resolved, err := a.Resolve(ctx, parsed)
		require.NoError(t, err)
		cacheDir := t.TempDir()

		// When I fetch twice
		first, err := a.Fetch(ctx, resolved, cacheDir)
		require.NoError(t, err)
		second, err := a.Fetch(ctx, resolved, cacheDir)
		require.NoError(t, err)

		// Then only one download happens and the entry is stable
		assert.Equal(t, first, second)
		assert.Equal(t, int32(1), hits.Load())
		assert.FileExists(t, filepath.Join(first, "guide.md"))
	})

	t.Run("fails on non-2xx status", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		a := dochttp.NewAdapter(dochttp.NewClient())
		parsed, _ := a.Parse("remote:" + server.URL + "/guide.md")
		resolved, _ := a.Resolve(context.Background(), parsed)
		cacheDir := t.TempDir()

		dir, err := a.Fetch(context.Background(), resolved, cacheDir)

		require.Error(t, err)
		assert.Empty(t, dir)
		assert.Contains(t, docpkg.ErrorMessage(err), server.URL)
	})
}

func TestAdapter_Extract(t *testing.T) {
	t.Parallel()

	t.Run("copies file under its name", func(t *testing.T) {
		t.Parallel()

		cached := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(cached, "guide.md"), []byte("# Guide"), 0644))
		target := filepath.Join(t.TempDir(), "guide")
		a := dochttp.NewAdapter(dochttp.NewClient())

		err := a.Extract(context.Background(), cached, target, &docpkg.ResolvedSource{Filename: "guide.md"})

		require.NoError(t, err)
		data, err := os.ReadFile(filepath.Join(target, "guide.md"))
		require.NoError(t, err)
		assert.Equal(t, "# Guide", string(data))
	})

	t.Run("writes markdown sidecar for html", func(t *testing.T) {
		t.Parallel()

		cached := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(cached, "api.html"), []byte("<h1>API</h1>"), 0644))
		target := t.TempDir()
		converter := &mock.Converter{
			ConvertFn: func(html string) (string, error) {
				assert.Equal(t, "<h1>API</h1>", html)
				return "# API", nil
			},
		}
		a := dochttp.NewAdapter(dochttp.NewClient(), dochttp.WithConverter(converter))

		err := a.Extract(context.Background(), cached, target, &docpkg.ResolvedSource{Filename: "api.html"})

		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(target, "api.html"))
		data, err := os.ReadFile(filepath.Join(target, "api.md"))
		require.NoError(t, err)
		assert.Equal(t, "# API", string(data))
	})
}
