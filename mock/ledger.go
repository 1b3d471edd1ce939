package mock

import (
	"context"

	"github.com/fwojciec/docpkg"
)

var _ docpkg.LedgerStore = (*LedgerStore)(nil)

// LedgerStore is a mock implementation of docpkg.LedgerStore.
type LedgerStore struct {
	LoadFn func(ctx context.Context) (*docpkg.Ledger, error)
	SaveFn func(ctx context.Context, ledger *docpkg.Ledger) error
}

func (s *LedgerStore) Load(ctx context.Context) (*docpkg.Ledger, error) {
	return s.LoadFn(ctx)
}

func (s *LedgerStore) Save(ctx context.Context, ledger *docpkg.Ledger) error {
	return s.SaveFn(ctx, ledger)
}

// InMemoryLedgerStore holds a ledger in memory and counts loads and saves.
type InMemoryLedgerStore struct {
	Ledger *docpkg.Ledger
	Loads  int
	Saves  int
}

var _ docpkg.LedgerStore = (*InMemoryLedgerStore)(nil)

func (s *InMemoryLedgerStore) Load(ctx context.Context) (*docpkg.Ledger, error) {
	s.Loads++
	if s.Ledger == nil {
		s.Ledger = docpkg.NewLedger()
	}
	return s.Ledger, nil
}

func (s *InMemoryLedgerStore) Save(ctx context.Context, ledger *docpkg.Ledger) error {
	s.Saves++
	s.Ledger = ledger
	return nil
}
