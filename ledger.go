package docpkg

import (
	"context"
	"sort"
	"time"
)

// Ledger format versions written to disk.
const (
	LedgerVersion         = "1"
	LedgerLockfileVersion = 1
)

// LedgerEntry records one installed source.
type LedgerEntry struct {
	ResolvedSource

	// ExtractedPath is relative to the project root, slash separated.
	ExtractedPath string    `json:"extractedPath"`
	InstalledAt   time.Time `json:"installedAt"`
}

// Ledger is the persisted record of what is currently installed, keyed by
// source name.
type Ledger struct {
	Version         string                  `json:"version"`
	LockfileVersion int                     `json:"lockfileVersion"`
	GeneratedAt     time.Time               `json:"generatedAt"`
	Sources         map[string]*LedgerEntry `json:"sources"`
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		Version:         LedgerVersion,
		LockfileVersion: LedgerLockfileVersion,
		Sources:         make(map[string]*LedgerEntry),
	}
}

// Entry returns the entry for name.
func (l *Ledger) Entry(name string) (*LedgerEntry, bool) {
	e, ok := l.Sources[name]
	return e, ok
}

// SetEntry replaces the entry for name wholesale.
func (l *Ledger) SetEntry(name string, entry *LedgerEntry) {
	if l.Sources == nil {
		l.Sources = make(map[string]*LedgerEntry)
	}
	l.Sources[name] = entry
}

// RemoveEntry deletes the entry for name. It reports whether it existed.
func (l *Ledger) RemoveEntry(name string) bool {
	if _, ok := l.Sources[name]; !ok {
		return false
	}
	delete(l.Sources, name)
	return true
}

// Names returns the installed source names in sorted order.
func (l *Ledger) Names() []string {
	names := make([]string, 0, len(l.Sources))
	for name := range l.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LedgerStore loads and saves the ledger. A session is load, mutate, save.
type LedgerStore interface {
	// Load reads the ledger. Returns an empty ledger if none exists yet.
	Load(ctx context.Context) (*Ledger, error)

	// Save stamps GeneratedAt and writes the full ledger.
	Save(ctx context.Context, ledger *Ledger) error
}
