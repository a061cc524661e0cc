package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"finanzas/internal/core"
)

func TestStoreLoadSave(t *testing.T) {
	s := New()
	ctx := context.Background()

	l, err := s.Load(ctx)
	if err != nil || !l.Balance.IsZero() || len(l.Transactions) != 0 {
		t.Fatalf("unexpected bootstrap: %+v %v", l, err)
	}

	l, _, _ = core.Append(l, core.Income, decimal.NewFromInt(5), "x", time.Now())
	if err := s.Save(ctx, l); err != nil {
		t.Fatal(err)
	}

	// Mutating the caller's copy must not leak into the store.
	l.Transactions[0].Description = "changed"

	got, _ := s.Load(ctx)
	if got.Transactions[0].Description != "x" {
		t.Fatalf("store aliased caller slice")
	}
	if s.Saves() != 1 {
		t.Fatalf("Saves() = %d", s.Saves())
	}
}

func TestStoreFailSaves(t *testing.T) {
	s := New()
	boom := errors.New("disk full")
	s.FailSaves(boom)

	if err := s.Save(context.Background(), core.NewLedger()); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	s.FailSaves(nil)
	if err := s.Save(context.Background(), core.NewLedger()); err != nil {
		t.Fatalf("err = %v", err)
	}
}
