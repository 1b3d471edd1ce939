package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/docpkg"
	"github.com/fwojciec/docpkg/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerStore_Load(t *testing.T) {
	t.Parallel()

	t.Run("returns empty ledger when file is absent", func(t *testing.T) {
		t.Parallel()

		store := fs.NewLedgerStore(t.TempDir())

		ledger, err := store.Load(context.Background())

		require.NoError(t, err)
		assert.Equal(t, docpkg.LedgerVersion, ledger.Version)
		assert.Equal(t, docpkg.LedgerLockfileVersion, ledger.LockfileVersion)
		assert.Empty(t, ledger.Sources)
	})

	t.Run("rejects malformed file", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, docpkg.LedgerFile), []byte("{"), 0644))

		_, err := fs.NewLedgerStore(root).Load(context.Background())

		assert.Equal(t, docpkg.EINVALID, docpkg.ErrorCode(err))
	})
}

func TestLedgerStore_Save(t *testing.T) {
	t.Parallel()

	// Given a ledger with one installed source
	root := t.TempDir()
	store := fs.NewLedgerStore(root)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	store.Now = func() time.Time { return now }
	ctx := context.Background()

	ledger, err := store.Load(ctx)
	require.NoError(t, err)
	ledger.SetEntry("react", &docpkg.LedgerEntry{
		ResolvedSource: docpkg.ResolvedSource{
			Type:     docpkg.SourceRegistry,
			Name:     "react",
			Version:  "18.2.0",
			Resolved: "registry:react@18.2.0",
		},
		ExtractedPath: "docs/react",
		InstalledAt:   now,
	})

	// When I save and load it again
	require.NoError(t, store.Save(ctx, ledger))
	loaded, err := store.Load(ctx)

	// Then the entry round trips and generatedAt is stamped
	require.NoError(t, err)
	entry, ok := loaded.Entry("react")
	require.True(t, ok)
	assert.Equal(t, "registry:react@18.2.0", entry.Resolved)
	assert.Equal(t, "docs/react", entry.ExtractedPath)
	assert.True(t, now.Equal(loaded.GeneratedAt))

	// And the file is indented with two spaces
	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{\n  \"version\": \"1\""))
}
