package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"finanzas/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the ledger in two tables: a single-row balance and the
// ordered transaction list.
type SQLiteStore struct {
	db *sql.DB
}

var _ LedgerStore = (*SQLiteStore)(nil)

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// modernc sqlite serialises writers anyway; one connection avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) (core.Ledger, error) {
	l := core.NewLedger()

	var balance string
	err := s.db.QueryRowContext(ctx, `SELECT balance FROM ledger WHERE id = 1`).Scan(&balance)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// first use
	case err != nil:
		return core.Ledger{}, fmt.Errorf("%w: select balance: %w", ErrRead, err)
	default:
		if l.Balance, err = decimal.NewFromString(balance); err != nil {
			return core.Ledger{}, fmt.Errorf("%w: parse balance %q: %w", ErrRead, balance, err)
		}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, amount, description, recorded_at FROM transactions ORDER BY id`)
	if err != nil {
		return core.Ledger{}, fmt.Errorf("%w: select transactions: %w", ErrRead, err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind, amount, desc, recordedAt string
		if err := rows.Scan(&kind, &amount, &desc, &recordedAt); err != nil {
			return core.Ledger{}, fmt.Errorf("%w: scan transaction: %w", ErrRead, err)
		}
		tx, err := decodeRecord(kind, amount, desc, recordedAt)
		if err != nil {
			return core.Ledger{}, fmt.Errorf("%w: %w", ErrRead, err)
		}
		l.Transactions = append(l.Transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return core.Ledger{}, fmt.Errorf("%w: iterate transactions: %w", ErrRead, err)
	}

	return l, nil
}

// Save writes the balance and inserts the transactions not yet stored, all in
// one SQL transaction. Persisted transactions are never rewritten.
func (s *SQLiteStore) Save(ctx context.Context, l core.Ledger) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", ErrWrite, err)
	}
	defer tx.Rollback()

	var stored int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&stored); err != nil {
		return fmt.Errorf("%w: count transactions: %w", ErrWrite, err)
	}
	if len(l.Transactions) < stored {
		return fmt.Errorf("%w: have %d stored, got %d", ErrRewrite, stored, len(l.Transactions))
	}

	for _, t := range l.Transactions[stored:] {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (kind, amount, description, recorded_at) VALUES (?, ?, ?, ?)`,
			t.Kind.String(), t.Amount.String(), t.Description, t.Timestamp.Format(core.TimestampLayout))
		if err != nil {
			return fmt.Errorf("%w: insert transaction: %w", ErrWrite, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO ledger (id, balance) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET balance = excluded.balance`,
		l.Balance.String())
	if err != nil {
		return fmt.Errorf("%w: upsert balance: %w", ErrWrite, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrWrite, err)
	}

	slog.DebugContext(ctx, "Ledger saved to SQLite",
		"balance", l.Balance.String(),
		"inserted", len(l.Transactions)-stored)

	return nil
}

func decodeRecord(kind, amount, desc, recordedAt string) (core.Transaction, error) {
	k, err := core.ParseKind(kind)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction kind %q: %w", kind, err)
	}
	a, err := decimal.NewFromString(amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction amount %q: %w", amount, err)
	}
	ts, err := time.ParseInLocation(core.TimestampLayout, recordedAt, time.Local)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction timestamp %q: %w", recordedAt, err)
	}
	return core.Transaction{Kind: k, Amount: a, Description: desc, Timestamp: ts}, nil
}
