// Package kafka carries ledger events over a Kafka topic.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"finanzas/internal/events"
)

const writeTimeout = 5 * time.Second

// ledgerKey routes every event of the single ledger to one partition so
// consumers see them in order.
const ledgerKey = "ledger"

// messageWriter is the part of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Publisher struct {
	writer messageWriter
	topic  string
}

var _ events.Publisher = (*Publisher)(nil)

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
		topic: topic,
	}
}

func (p *Publisher) PublishTransaction(ctx context.Context, msg *events.TransactionRecorded) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ledgerKey),
		Value: body,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "type", Value: []byte("transaction.recorded")},
			{Key: "event_id", Value: []byte(msg.ID)},
		},
	})
	if err != nil {
		return fmt.Errorf("write message: %w", err)
	}

	slog.InfoContext(ctx, "Published transaction message", "event_id", msg.ID, "topic", p.topic)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// messageReader is the part of *kafka.Reader the consumer needs.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader messageReader
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1,
			MaxBytes: 1 << 20,
		}),
	}
}

// ConsumeTransactions reads until ctx is done. Offsets are committed only
// after the handler succeeds or the message is undecodable; a failing
// handler stops consumption so the message is redelivered on restart.
func (c *Consumer) ConsumeTransactions(ctx context.Context, handler events.Handler) error {
	slog.InfoContext(ctx, "Started consuming transaction messages")

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				slog.InfoContext(ctx, "Stopping message consumption", "reason", err)
				return ctx.Err()
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		msg, err := events.TransactionRecordedFromJSON(m.Value)
		if err != nil {
			slog.ErrorContext(ctx, "Skipping undecodable message",
				"error", err, "partition", m.Partition, "offset", m.Offset)
		} else if err := handler(ctx, msg); err != nil {
			return fmt.Errorf("handle event %s: %w", msg.ID, err)
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			return fmt.Errorf("commit offset %d: %w", m.Offset, err)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
