package file

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"finanzas/internal/core"
	"finanzas/internal/storage"
)

func TestLoadMissingFileIsEmptyLedger(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "finanzas.json"))

	first, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	second, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("second Load() error = %v", err)
	}

	if !first.Balance.IsZero() || len(first.Transactions) != 0 {
		t.Fatalf("unexpected bootstrap ledger: %+v", first)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Load() not idempotent: %+v vs %+v", first, second)
	}
	if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
		t.Fatalf("Load() must not create the file, stat err = %v", err)
	}
}

func TestSaveThenLoad(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "data", "finanzas.json"))
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 9, 30, 15, 0, time.Local)

	l := core.NewLedger()
	l, _, _ = core.Append(l, core.Income, decimal.RequireFromString("15000"), "Salario", now)
	l, _, _ = core.Append(l, core.Expense, decimal.RequireFromString("50.5"), "café", now.Add(time.Hour))

	if err := s.Save(ctx, l); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !got.Balance.Equal(decimal.RequireFromString("14949.5")) {
		t.Errorf("balance = %s", got.Balance)
	}
	if len(got.Transactions) != 2 {
		t.Fatalf("transactions = %d", len(got.Transactions))
	}
	tx := got.Transactions[1]
	if tx.Kind != core.Expense || tx.Description != "café" || !tx.Amount.Equal(decimal.RequireFromString("50.5")) {
		t.Errorf("unexpected transaction %+v", tx)
	}
	if !tx.Timestamp.Equal(now.Add(time.Hour)) {
		t.Errorf("timestamp = %v, want %v", tx.Timestamp, now.Add(time.Hour))
	}
}

func TestSaveWritesCanonicalSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finanzas.json")
	s := New(path)
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.Local)

	l, _, _ := core.Append(core.NewLedger(), core.Expense, decimal.NewFromInt(50), "café", now)
	if err := s.Save(context.Background(), l); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, raw)
	}
	if doc["balance"] != float64(-50) {
		t.Errorf("balance = %#v", doc["balance"])
	}
	if _, ok := doc["saldo"]; ok {
		t.Error("legacy saldo key must not be written")
	}
	txs := doc["transacciones"].([]any)
	rec := txs[0].(map[string]any)
	want := map[string]any{"tipo": "gasto", "monto": float64(50), "descripcion": "café", "fecha": "2025-01-02 03:04:05"}
	if !reflect.DeepEqual(rec, want) {
		t.Errorf("record = %#v, want %#v", rec, want)
	}
	if !strings.Contains(string(raw), "café") {
		t.Error("non-ASCII description should be written verbatim")
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestLoadLegacySaldo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finanzas.json")
	legacy := `{
    "saldo": 14500.0,
    "transacciones": [
        {"tipo": "ingreso", "monto": 15000.0, "descripcion": "Salario", "fecha": "2025-05-01 10:00:00"},
        {"tipo": "gasto", "monto": 500.0, "descripcion": "Despensa", "fecha": "2025-05-02 11:00:00"}
    ]
}`
	if err := os.WriteFile(path, []byte(legacy), 0644); err != nil {
		t.Fatal(err)
	}

	s := New(path)
	l, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !l.Balance.Equal(decimal.NewFromInt(14500)) || len(l.Transactions) != 2 {
		t.Fatalf("unexpected ledger %+v", l)
	}
	if !l.Verify() {
		t.Error("legacy ledger should verify")
	}

	if err := s.Save(context.Background(), l); err != nil {
		t.Fatal(err)
	}
	raw, _ := os.ReadFile(path)
	if strings.Contains(string(raw), "saldo") || !strings.Contains(string(raw), `"balance": 14500`) {
		t.Errorf("expected canonical rewrite, got %s", raw)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "{"},
		{"bad kind", `{"balance": 0, "transacciones": [{"tipo": "otro", "monto": 1, "descripcion": "x", "fecha": "2025-01-01 00:00:00"}]}`},
		{"bad date", `{"balance": 0, "transacciones": [{"tipo": "gasto", "monto": 1, "descripcion": "x", "fecha": "ayer"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "finanzas.json")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := New(path).Load(context.Background())
			if !errors.Is(err, storage.ErrRead) {
				t.Fatalf("err = %v, want ErrRead", err)
			}
		})
	}
}

func TestLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finanzas.json")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
	l, err := New(path).Load(context.Background())
	if err != nil || !l.Balance.IsZero() {
		t.Fatalf("Load() = %+v, %v", l, err)
	}
}

func TestSaveFailureIsWriteError(t *testing.T) {
	dir := t.TempDir()
	// A directory where the file should be makes the rename fail.
	path := filepath.Join(dir, "finanzas.json")
	if err := os.MkdirAll(filepath.Join(path, "child"), 0755); err != nil {
		t.Fatal(err)
	}

	err := New(path).Save(context.Background(), core.NewLedger())
	if !errors.Is(err, storage.ErrWrite) {
		t.Fatalf("err = %v, want ErrWrite", err)
	}
}
