package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/docpkg"
	"github.com/fwojciec/docpkg/cache"
	"github.com/gofrs/flock"
)

// Ensure LedgerStore implements docpkg.LedgerStore at compile time.
var _ docpkg.LedgerStore = (*LedgerStore)(nil)

// LedgerStore persists the ledger as docpkg-lock.json in the project root.
// Writes go through a temp file and a rename while holding a cross-process
// lock on a sibling .lock file.
type LedgerStore struct {
	path string

	// Now returns the time stamped on save. Defaults to time.Now.
	Now func() time.Time
}

// NewLedgerStore creates a LedgerStore for the project at root.
func NewLedgerStore(root string) *LedgerStore {
	return &LedgerStore{
		path: filepath.Join(root, docpkg.LedgerFile),
		Now:  time.Now,
	}
}

// Path returns the ledger file location.
func (s *LedgerStore) Path() string { return s.path }

func (s *LedgerStore) Load(ctx context.Context) (*docpkg.Ledger, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return docpkg.NewLedger(), nil
	} else if err != nil {
		return nil, err
	}

	ledger := docpkg.NewLedger()
	if err := json.Unmarshal(data, ledger); err != nil {
		return nil, docpkg.Errorf(docpkg.EINVALID, "malformed ledger %s: %v", s.path, err)
	}
	if ledger.Sources == nil {
		ledger.Sources = make(map[string]*docpkg.LedgerEntry)
	}
	return ledger, nil
}

func (s *LedgerStore) Save(ctx context.Context, ledger *docpkg.Ledger) error {
	lock := flock.New(s.path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock ledger: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	if ledger.Version == "" {
		ledger.Version = docpkg.LedgerVersion
	}
	if ledger.LockfileVersion == 0 {
		ledger.LockfileVersion = docpkg.LedgerLockfileVersion
	}
	if ledger.Sources == nil {
		ledger.Sources = make(map[string]*docpkg.LedgerEntry)
	}
	ledger.GeneratedAt = s.Now().UTC()

	data, err := json.MarshalIndent(ledger, "", "  ")
	if err != nil {
		return err
	}
	return cache.WriteFile(s.path, append(data, '\n'))
}
