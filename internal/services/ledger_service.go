package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"finanzas/internal/core"
	"finanzas/internal/events"
	"finanzas/internal/log"
	"finanzas/internal/storage"
)

// HistoryLimit is how many transactions a history request shows.
const HistoryLimit = 10

// LedgerService orchestrates ledger operations across the store and the
// event publisher. Every mutation holds mu for the whole load, append and
// save cycle; publishing happens outside it.
type LedgerService struct {
	mu        sync.Mutex
	store     storage.LedgerStore
	publisher events.Publisher
	logger    *log.Logger
	now       func() time.Time
}

func NewLedgerService(store storage.LedgerStore, publisher events.Publisher, logger *log.Logger) *LedgerService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &LedgerService{
		store:     store,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentStorage),
		now:       time.Now,
	}
}

// Recorded is the result of a successful Record call.
type Recorded struct {
	Transaction core.Transaction
	Balance     decimal.Decimal
}

// Record appends a transaction and persists the whole ledger. Input
// validation errors from core are returned unwrapped so callers can match
// them with errors.Is. The event is published after the lock is released.
func (s *LedgerService) Record(ctx context.Context, kind core.Kind, amount decimal.Decimal, description string) (Recorded, error) {
	updated, tx, err := s.commit(ctx, kind, amount, description)
	if err != nil {
		return Recorded{}, err
	}

	s.logger.InfoContext(ctx, "Transaction recorded", log.NewFields().
		WithOperation(log.OpRecord).
		WithTransaction(tx.Kind.String(), tx.Amount.String(), tx.Description).
		ToSlice()...)

	// publish failures are logged only
	msg := events.NewTransactionRecorded(tx, updated)
	if err := s.publisher.PublishTransaction(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish transaction event",
			log.FieldEventID, msg.ID,
			log.FieldError, err)
	}

	return Recorded{Transaction: tx, Balance: updated.Balance}, nil
}

// commit runs one load, append and save cycle under mu.
func (s *LedgerService) commit(ctx context.Context, kind core.Kind, amount decimal.Decimal, description string) (core.Ledger, core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.store.Load(ctx)
	if err != nil {
		return core.Ledger{}, core.Transaction{}, fmt.Errorf("load ledger: %w", err)
	}

	updated, tx, err := core.Append(l, kind, amount, description, s.now())
	if err != nil {
		return core.Ledger{}, core.Transaction{}, err
	}

	if err := s.store.Save(ctx, updated); err != nil {
		return core.Ledger{}, core.Transaction{}, fmt.Errorf("save ledger: %w", err)
	}
	return updated, tx, nil
}

// Balance returns the persisted running balance.
func (s *LedgerService) Balance(ctx context.Context) (decimal.Decimal, error) {
	l, err := s.load(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return l.Balance, nil
}

// History returns up to n transactions, most recent first.
func (s *LedgerService) History(ctx context.Context, n int) ([]core.Transaction, error) {
	l, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return l.Recent(n), nil
}

// load takes the lock so reads never interleave with a save.
func (s *LedgerService) load(ctx context.Context) (core.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.store.Load(ctx)
	if err != nil {
		return core.Ledger{}, fmt.Errorf("load ledger: %w", err)
	}
	if !l.Verify() {
		s.logger.WarnContext(ctx, "Stored balance differs from transaction sum",
			log.FieldBalance, l.Balance.String(),
			"sum", l.Sum().String())
	}
	return l, nil
}

// Close releases the publisher.
func (s *LedgerService) Close() error {
	return s.publisher.Close()
}
