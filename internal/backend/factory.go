package backend

import (
	"fmt"

	"finanzas/internal/amqp"
	"finanzas/internal/events"
	"finanzas/internal/kafka"
	"finanzas/internal/log"
	"finanzas/internal/storage"
	"finanzas/internal/storage/file"
	"finanzas/internal/storage/memory"
)

// Factory builds the configured ledger store and event transports.
type Factory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Factory{logger: logger.WithComponent(log.ComponentStorage)}
}

// CreateStore returns the ledger store for cfg.Store.
func (f *Factory) CreateStore(cfg Config) (*StoreResult, error) {
	switch cfg.Store {
	case FileStore:
		if cfg.DataFile == "" {
			return nil, fmt.Errorf("data file path is required for file backend")
		}
		f.logger.Info("Initialized file ledger store", "path", cfg.DataFile)
		return &StoreResult{Store: file.New(cfg.DataFile)}, nil

	case SQLiteStore:
		store, err := storage.NewSQLiteStore(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.Info("Initialized SQLite ledger store", "db_path", cfg.SQLiteDBPath)
		return &StoreResult{Store: store, Cleanup: store.Close}, nil

	case MemoryStore:
		f.logger.Warn("Using in-memory ledger store, data is lost on restart")
		return &StoreResult{Store: memory.New()}, nil

	default:
		return nil, fmt.Errorf("unsupported data backend: %s", cfg.Store)
	}
}

// CreatePublisher returns the publisher for cfg.Events. A transport that
// cannot be reached is logged and replaced by events.Noop, so the bot keeps
// recording without mirroring.
func (f *Factory) CreatePublisher(cfg Config) events.Publisher {
	switch cfg.Events {
	case AMQPEvents:
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
			return events.Noop{}
		}
		f.logger.Info("Initialized AMQP publisher", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		return client

	case KafkaEvents:
		f.logger.Info("Initialized Kafka publisher", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
		return kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)

	default:
		return events.Noop{}
	}
}

// CreateConsumer returns the consumer side of cfg.Events for the worker.
func (f *Factory) CreateConsumer(cfg Config) (Consumer, error) {
	switch cfg.Events {
	case AMQPEvents:
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize AMQP client: %w", err)
		}
		return client, nil

	case KafkaEvents:
		return kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID), nil

	default:
		return nil, fmt.Errorf("events backend %q has no consumer", cfg.Events)
	}
}
