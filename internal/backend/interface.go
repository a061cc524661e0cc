package backend

import (
	"context"

	"finanzas/internal/events"
	"finanzas/internal/storage"
)

// CleanupFunc releases whatever a constructed backend holds open.
type CleanupFunc func() error

// StoreResult contains the ledger store and its optional cleanup.
type StoreResult struct {
	Store   storage.LedgerStore
	Cleanup CleanupFunc
}

// Consumer delivers published events to a handler until ctx is done.
type Consumer interface {
	ConsumeTransactions(ctx context.Context, handler events.Handler) error
	Close() error
}

// Config holds everything needed to build stores and transports.
type Config struct {
	Store StoreType
	// file
	DataFile string
	// sqlite
	SQLiteDBPath string

	Events       EventsType
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string
}

type StoreType string

const (
	FileStore   StoreType = "file"
	SQLiteStore StoreType = "sqlite"
	MemoryStore StoreType = "memory"
)

func (t StoreType) String() string {
	return string(t)
}

func (t StoreType) IsValid() bool {
	switch t {
	case FileStore, SQLiteStore, MemoryStore:
		return true
	default:
		return false
	}
}

type EventsType string

const (
	NoEvents    EventsType = "none"
	AMQPEvents  EventsType = "amqp"
	KafkaEvents EventsType = "kafka"
)

func (t EventsType) String() string {
	return string(t)
}

func (t EventsType) IsValid() bool {
	switch t {
	case NoEvents, AMQPEvents, KafkaEvents:
		return true
	default:
		return false
	}
}
