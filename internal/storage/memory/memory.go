// Package memory is a process-local ledger store for tests and dry runs.
package memory

import (
	"context"
	"sync"

	"finanzas/internal/core"
	"finanzas/internal/storage"
)

type Store struct {
	mu      sync.Mutex
	ledger  core.Ledger
	saves   int
	saveErr error
}

var _ storage.LedgerStore = (*Store)(nil)

func New() *Store {
	return &Store{ledger: core.NewLedger()}
}

// Load returns a copy so callers cannot mutate the stored slice.
func (s *Store) Load(_ context.Context) (core.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.ledger), nil
}

func (s *Store) Save(_ context.Context, l core.Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.ledger = clone(l)
	s.saves++
	return nil
}

// FailSaves makes every following Save return err; nil restores normal saves.
func (s *Store) FailSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

// Saves reports how many successful saves happened.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func clone(l core.Ledger) core.Ledger {
	txs := make([]core.Transaction, len(l.Transactions))
	copy(txs, l.Transactions)
	return core.Ledger{Balance: l.Balance, Transactions: txs}
}
