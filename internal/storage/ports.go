package storage

import (
	"context"
	"errors"

	"finanzas/internal/core"
)

var (
	// ErrRead wraps failures to read or decode the persisted ledger.
	ErrRead = errors.New("storage: read ledger")
	// ErrWrite wraps failures to persist the ledger (disk full, permissions, ...).
	ErrWrite = errors.New("storage: write ledger")
	// ErrRewrite is returned when a save would drop already persisted transactions.
	ErrRewrite = errors.New("storage: transactions are append-only")
)

// LedgerStore persists the single ledger document.
//
// Load must return core.NewLedger() when nothing has been persisted yet.
// Save replaces the persisted ledger with l in full.
type LedgerStore interface {
	Load(ctx context.Context) (core.Ledger, error)
	Save(ctx context.Context, l core.Ledger) error
}
