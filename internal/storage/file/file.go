// Package file stores the ledger as a single JSON document on disk.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"finanzas/internal/core"
	"finanzas/internal/storage"
)

// Store reads and writes the whole document on every call; there is no
// in-memory cache across calls.
type Store struct {
	path string
}

var _ storage.LedgerStore = (*Store)(nil)

func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the location of the JSON document.
func (s *Store) Path() string {
	return s.path
}

type record struct {
	Tipo        string      `json:"tipo"`
	Monto       json.Number `json:"monto"`
	Descripcion string      `json:"descripcion"`
	Fecha       string      `json:"fecha"`
}

type document struct {
	Balance       json.Number `json:"balance"`
	Transacciones []record    `json:"transacciones"`
}

// legacyDocument also accepts the "saldo" key written by older versions.
type legacyDocument struct {
	Balance       *json.Number `json:"balance"`
	Saldo         *json.Number `json:"saldo"`
	Transacciones []record     `json:"transacciones"`
}

func (s *Store) Load(ctx context.Context) (core.Ledger, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return core.NewLedger(), nil
	}
	if err != nil {
		return core.Ledger{}, fmt.Errorf("%w: %w", storage.ErrRead, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return core.NewLedger(), nil
	}

	var doc legacyDocument
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return core.Ledger{}, fmt.Errorf("%w: decode %s: %w", storage.ErrRead, s.path, err)
	}

	l := core.NewLedger()

	balance := doc.Balance
	if balance == nil && doc.Saldo != nil {
		slog.InfoContext(ctx, "Reading legacy saldo field", "path", s.path)
		balance = doc.Saldo
	}
	if balance != nil {
		if l.Balance, err = decimal.NewFromString(balance.String()); err != nil {
			return core.Ledger{}, fmt.Errorf("%w: balance %q: %w", storage.ErrRead, balance.String(), err)
		}
	}

	for i, r := range doc.Transacciones {
		tx, err := r.toTransaction()
		if err != nil {
			return core.Ledger{}, fmt.Errorf("%w: transaction %d: %w", storage.ErrRead, i, err)
		}
		l.Transactions = append(l.Transactions, tx)
	}

	return l, nil
}

// Save replaces the document through a temp file and rename, so readers
// never observe a half-written ledger.
func (s *Store) Save(ctx context.Context, l core.Ledger) error {
	doc := document{
		Balance:       json.Number(l.Balance.String()),
		Transacciones: make([]record, 0, len(l.Transactions)),
	}
	for _, t := range l.Transactions {
		doc.Transacciones = append(doc.Transacciones, record{
			Tipo:        t.Kind.String(),
			Monto:       json.Number(t.Amount.String()),
			Descripcion: t.Description,
			Fecha:       t.Timestamp.Format(core.TimestampLayout),
		})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("%w: encode: %w", storage.ErrWrite, err)
	}

	if err := writeAtomic(s.path, buf.Bytes()); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrWrite, err)
	}

	slog.DebugContext(ctx, "Ledger saved to file",
		"path", s.path,
		"balance", l.Balance.String(),
		"transactions", len(l.Transactions))

	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

func (r record) toTransaction() (core.Transaction, error) {
	kind, err := core.ParseKind(r.Tipo)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("tipo %q: %w", r.Tipo, err)
	}
	amount, err := decimal.NewFromString(r.Monto.String())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("monto %q: %w", r.Monto.String(), err)
	}
	ts, err := time.ParseInLocation(core.TimestampLayout, r.Fecha, time.Local)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("fecha %q: %w", r.Fecha, err)
	}
	return core.Transaction{
		Kind:        kind,
		Amount:      amount,
		Description: r.Descripcion,
		Timestamp:   ts,
	}, nil
}
