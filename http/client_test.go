package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/docpkg"
	dochttp "github.com/fwojciec/docpkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Get(t *testing.T) {
	t.Parallel()

	t.Run("returns body from server", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "docpkg", r.Header.Get("User-Agent"))
			_, _ = w.Write([]byte(`{"ok":true}`))
		}))
		defer server.Close()

		body, err := dochttp.NewClient().Get(context.Background(), server.URL)

		require.NoError(t, err)
		assert.Equal(t, `{"ok":true}`, string(body))
	})

	t.Run("maps 404 to not found", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()

		_, err := dochttp.NewClient().Get(context.Background(), server.URL)

		assert.Equal(t, docpkg.ENOTFOUND, docpkg.ErrorCode(err))
	})

	t.Run("respects custom timeout option", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
			_, _ = w.Write([]byte("response"))
		}))
		defer server.Close()

		client := dochttp.NewClient(dochttp.WithTimeout(10 * time.Millisecond))

		_, err := client.Get(context.Background(), server.URL)
		require.Error(t, err)
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
			_, _ = w.Write([]byte("response"))
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := dochttp.NewClient().Get(ctx, server.URL)
		require.Error(t, err)
	})
}

func TestClient_Download(t *testing.T) {
	t.Parallel()

	t.Run("writes body to path", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("payload"))
		}))
		defer server.Close()
		dst := filepath.Join(t.TempDir(), "nested", "file.bin")

		err := dochttp.NewClient().Download(context.Background(), server.URL, dst)

		require.NoError(t, err)
		data, err := os.ReadFile(dst)
		require.NoError(t, err)
		assert.Equal(t, "payload", string(data))
	})

	t.Run("writes nothing on server error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()
		dst := filepath.Join(t.TempDir(), "file.bin")

		err := dochttp.NewClient().Download(context.Background(), server.URL, dst)

		require.Error(t, err)
		assert.NoFileExists(t, dst)
	})
}
