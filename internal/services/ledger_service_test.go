package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"finanzas/internal/core"
	"finanzas/internal/events"
	"finanzas/internal/log"
	"finanzas/internal/storage"
	"finanzas/internal/storage/file"
	"finanzas/internal/storage/memory"
)

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*events.TransactionRecorded
	err  error
}

func (p *recordingPublisher) PublishTransaction(_ context.Context, msg *events.TransactionRecorded) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func newService(t *testing.T, store storage.LedgerStore, pub events.Publisher) *LedgerService {
	t.Helper()
	s := NewLedgerService(store, pub, log.Discard())
	s.now = func() time.Time { return time.Date(2024, 5, 1, 10, 30, 0, 0, time.Local) }
	return s
}

func TestLedgerService_Record(t *testing.T) {
	store := memory.New()
	pub := &recordingPublisher{}
	s := newService(t, store, pub)
	ctx := context.Background()

	got, err := s.Record(ctx, core.Expense, decimal.NewFromInt(50), "café")
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if !got.Balance.Equal(decimal.NewFromInt(-50)) {
		t.Fatalf("Balance = %s, want -50", got.Balance)
	}
	if got.Transaction.Description != "café" || got.Transaction.Kind != core.Expense {
		t.Fatalf("Transaction = %+v", got.Transaction)
	}

	if len(pub.msgs) != 1 || pub.msgs[0].Balance != "-50" || pub.msgs[0].Amount != "50" {
		t.Fatalf("published = %+v", pub.msgs)
	}

	l, _ := store.Load(ctx)
	if len(l.Transactions) != 1 || !l.Balance.Equal(decimal.NewFromInt(-50)) {
		t.Fatalf("stored ledger = %+v", l)
	}
}

func TestLedgerService_RecordRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		amount  decimal.Decimal
		desc    string
		wantErr error
	}{
		{name: "zero amount", amount: decimal.Zero, desc: "x", wantErr: core.ErrInvalidAmount},
		{name: "negative amount", amount: decimal.NewFromInt(-1), desc: "x", wantErr: core.ErrInvalidAmount},
		{name: "blank description", amount: decimal.NewFromInt(1), desc: "   ", wantErr: core.ErrEmptyDescription},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.New()
			s := newService(t, store, nil)

			_, err := s.Record(context.Background(), core.Income, tt.amount, tt.desc)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if store.Saves() != 0 {
				t.Fatal("invalid input must not be saved")
			}
		})
	}
}

func TestLedgerService_SaveFailure(t *testing.T) {
	store := memory.New()
	store.FailSaves(storage.ErrWrite)
	pub := &recordingPublisher{}
	s := newService(t, store, pub)

	_, err := s.Record(context.Background(), core.Income, decimal.NewFromInt(10), "regalo")
	if !errors.Is(err, storage.ErrWrite) {
		t.Fatalf("error = %v, want ErrWrite", err)
	}
	if len(pub.msgs) != 0 {
		t.Fatal("nothing should be published when the save fails")
	}
}

func TestLedgerService_PublishFailureDoesNotFailRecord(t *testing.T) {
	store := memory.New()
	s := newService(t, store, &recordingPublisher{err: errors.New("broker down")})

	if _, err := s.Record(context.Background(), core.Income, decimal.NewFromInt(10), "regalo"); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if store.Saves() != 1 {
		t.Fatalf("Saves() = %d, want 1", store.Saves())
	}
}

type blockingPublisher struct {
	started chan struct{}
	release chan struct{}
}

func (p *blockingPublisher) PublishTransaction(ctx context.Context, _ *events.TransactionRecorded) error {
	close(p.started)
	<-p.release
	return errors.New("broker unreachable")
}

func (p *blockingPublisher) Close() error { return nil }

func TestLedgerService_SlowPublishDoesNotBlockReads(t *testing.T) {
	pub := &blockingPublisher{started: make(chan struct{}), release: make(chan struct{})}
	s := newService(t, memory.New(), pub)
	ctx := context.Background()

	recorded := make(chan error, 1)
	go func() {
		_, err := s.Record(ctx, core.Expense, decimal.NewFromInt(50), "café")
		recorded <- err
	}()
	<-pub.started

	done := make(chan struct{})
	go func() {
		defer close(done)
		bal, err := s.Balance(ctx)
		if err != nil {
			t.Errorf("Balance() error = %v", err)
			return
		}
		if !bal.Equal(decimal.NewFromInt(-50)) {
			t.Errorf("Balance() = %s, want -50", bal)
		}
		if _, err := s.History(ctx, HistoryLimit); err != nil {
			t.Errorf("History() error = %v", err)
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Balance() blocked behind a pending publish")
	}

	close(pub.release)
	if err := <-recorded; err != nil {
		t.Fatalf("Record() error = %v", err)
	}
}

func TestLedgerService_SignedSum(t *testing.T) {
	s := newService(t, memory.New(), nil)
	ctx := context.Background()

	ops := []struct {
		kind   core.Kind
		amount string
	}{
		{core.Income, "1000"},
		{core.Expense, "50.25"},
		{core.Expense, "19.75"},
		{core.Income, "0.5"},
	}
	for i, op := range ops {
		if _, err := s.Record(ctx, op.kind, decimal.RequireFromString(op.amount), fmt.Sprintf("op %d", i)); err != nil {
			t.Fatalf("Record(%d) error = %v", i, err)
		}
	}

	bal, err := s.Balance(ctx)
	if err != nil {
		t.Fatalf("Balance() error = %v", err)
	}
	if !bal.Equal(decimal.RequireFromString("930.5")) {
		t.Fatalf("Balance() = %s, want 930.5", bal)
	}

	hist, err := s.History(ctx, HistoryLimit)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(hist) != len(ops) || hist[0].Description != "op 3" || hist[len(hist)-1].Description != "op 0" {
		t.Fatalf("History() = %+v", hist)
	}
}

func TestLedgerService_ConcurrentRecordsAreNotLost(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "finanzas.json"))
	s := newService(t, store, nil)
	ctx := context.Background()

	const n = 40
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			kind := core.Expense
			if i%2 == 0 {
				kind = core.Income
			}
			if _, err := s.Record(ctx, kind, decimal.NewFromInt(int64(i+1)), fmt.Sprintf("tx %d", i)); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("Record() error = %v", err)
	}

	l, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(l.Transactions) != n {
		t.Fatalf("transactions = %d, want %d", len(l.Transactions), n)
	}
	if !l.Verify() {
		t.Fatalf("balance %s does not match sum %s", l.Balance, l.Sum())
	}
}
