package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TimestampLayout is the on-disk format of transaction timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

const (
	Expense Kind = "gasto"
	Income  Kind = "ingreso"
)

type (
	// Kind is the direction of a transaction. Its value is the persisted "tipo".
	Kind string

	Transaction struct {
		Kind        Kind
		Amount      decimal.Decimal // always positive, sign comes from Kind
		Description string
		Timestamp   time.Time
	}

	// Ledger is the single running account shared by the whole channel.
	Ledger struct {
		Balance      decimal.Decimal
		Transactions []Transaction
	}
)

var (
	ErrInvalidKind      = errors.New("invalid transaction kind")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
)

// ParseKind maps a persisted "tipo" back to a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case Expense:
		return Expense, nil
	case Income:
		return Income, nil
	default:
		return "", ErrInvalidKind
	}
}

func (k Kind) String() string {
	return string(k)
}

// Title returns the capitalised label used in chat replies.
func (k Kind) Title() string {
	switch k {
	case Expense:
		return "Gasto"
	case Income:
		return "Ingreso"
	default:
		return string(k)
	}
}

// Signed returns the amount with the sign it contributes to the balance.
func (t Transaction) Signed() decimal.Decimal {
	if t.Kind == Expense {
		return t.Amount.Neg()
	}
	return t.Amount
}

func (t Transaction) Validate() error {
	if t.Kind != Expense && t.Kind != Income {
		return ErrInvalidKind
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	return nil
}

// NewLedger returns the empty ledger used when nothing has been persisted yet.
func NewLedger() Ledger {
	return Ledger{Balance: decimal.Zero, Transactions: []Transaction{}}
}

// Append records a transaction in memory and adjusts the balance. The input
// ledger's slice is never mutated in place, so callers holding the old value
// keep a consistent snapshot.
func Append(l Ledger, kind Kind, amount decimal.Decimal, description string, now time.Time) (Ledger, Transaction, error) {
	tx := Transaction{
		Kind:        kind,
		Amount:      amount,
		Description: strings.TrimSpace(description),
		Timestamp:   now.Truncate(time.Second),
	}
	if err := tx.Validate(); err != nil {
		return l, Transaction{}, err
	}

	txs := make([]Transaction, len(l.Transactions), len(l.Transactions)+1)
	copy(txs, l.Transactions)

	return Ledger{
		Balance:      l.Balance.Add(tx.Signed()),
		Transactions: append(txs, tx),
	}, tx, nil
}

// Recent returns up to n transactions, most recent first.
func (l Ledger) Recent(n int) []Transaction {
	if n <= 0 || len(l.Transactions) == 0 {
		return nil
	}
	if n > len(l.Transactions) {
		n = len(l.Transactions)
	}
	out := make([]Transaction, 0, n)
	for i := len(l.Transactions) - 1; i >= len(l.Transactions)-n; i-- {
		out = append(out, l.Transactions[i])
	}
	return out
}

// Sum is the balance implied by the transaction list alone.
func (l Ledger) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, t := range l.Transactions {
		sum = sum.Add(t.Signed())
	}
	return sum
}

// Verify reports whether the stored balance matches the transaction list.
// A mismatch means the document was edited outside the bot.
func (l Ledger) Verify() bool {
	return l.Balance.Equal(l.Sum())
}
