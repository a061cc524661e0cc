// Package events defines the messages emitted after the ledger changes.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"finanzas/internal/core"
)

// TransactionRecorded is published once a transaction has been persisted.
// Amounts travel as decimal strings to avoid float rounding.
type TransactionRecorded struct {
	ID          string    `json:"id"`
	Kind        core.Kind `json:"kind"`
	Amount      string    `json:"amount"`
	Description string    `json:"description"`
	RecordedAt  time.Time `json:"recorded_at"`
	Balance     string    `json:"balance"`
}

// NewTransactionRecorded builds the event for tx, with the ledger balance
// right after it was applied.
func NewTransactionRecorded(tx core.Transaction, l core.Ledger) *TransactionRecorded {
	return &TransactionRecorded{
		ID:          uuid.NewString(),
		Kind:        tx.Kind,
		Amount:      tx.Amount.String(),
		Description: tx.Description,
		RecordedAt:  tx.Timestamp,
		Balance:     l.Balance.String(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionRecorded) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionRecordedFromJSON decodes and sanity-checks a message body.
func TransactionRecordedFromJSON(data []byte) (*TransactionRecorded, error) {
	var msg TransactionRecorded
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" {
		return nil, fmt.Errorf("missing event id")
	}
	if _, err := core.ParseKind(string(msg.Kind)); err != nil {
		return nil, fmt.Errorf("event %s: %w", msg.ID, err)
	}
	return &msg, nil
}

// Publisher ships events to whatever transport is configured.
type Publisher interface {
	PublishTransaction(ctx context.Context, msg *TransactionRecorded) error
	Close() error
}

// Handler processes one consumed event. Returning an error asks the
// transport to redeliver it.
type Handler func(ctx context.Context, msg *TransactionRecorded) error

// Noop is used when EVENTS_BACKEND=none.
type Noop struct{}

func (Noop) PublishTransaction(context.Context, *TransactionRecorded) error { return nil }
func (Noop) Close() error                                                   { return nil }
