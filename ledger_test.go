package docpkg_test

import (
	"testing"

	"github.com/fwojciec/docpkg"
	"github.com/stretchr/testify/assert"
)

func TestLedger(t *testing.T) {
	t.Parallel()

	l := docpkg.NewLedger()
	assert.Equal(t, docpkg.LedgerVersion, l.Version)
	assert.Equal(t, docpkg.LedgerLockfileVersion, l.LockfileVersion)

	l.SetEntry("zeta", &docpkg.LedgerEntry{ExtractedPath: "docs/zeta"})
	l.SetEntry("alpha", &docpkg.LedgerEntry{ExtractedPath: "docs/alpha"})
	l.SetEntry("alpha", &docpkg.LedgerEntry{ExtractedPath: "docs/alpha2"})

	assert.Equal(t, []string{"alpha", "zeta"}, l.Names())
	e, ok := l.Entry("alpha")
	assert.True(t, ok)
	assert.Equal(t, "docs/alpha2", e.ExtractedPath)

	assert.True(t, l.RemoveEntry("alpha"))
	assert.False(t, l.RemoveEntry("alpha"))
	_, ok = l.Entry("alpha")
	assert.False(t, ok)
}

func TestLedger_SetEntryOnZeroValue(t *testing.T) {
	t.Parallel()

	var l docpkg.Ledger
	l.SetEntry("a", &docpkg.LedgerEntry{})

	assert.Equal(t, []string{"a"}, l.Names())
}
