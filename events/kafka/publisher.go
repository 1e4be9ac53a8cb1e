// Package kafka publishes booking events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/oneearth/travel-engine/booking"
)

const (
	HeaderEventType = "event_type"
	HeaderEventID   = "event_id"
)

// Config for the publisher.
type Config struct {
	Brokers      []string
	Topic        string
	MaxAttempts  int
	BatchTimeout time.Duration
}

// Publisher wraps a kafka-go writer. Messages are keyed by booking id so
// events of one booking stay ordered within a partition.
type Publisher struct {
	writer messageWriter
	log    *slog.Logger
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewPublisher(cfg Config, log *slog.Logger) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = 10 * time.Millisecond
	}
	if log == nil {
		log = slog.Default()
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  cfg.MaxAttempts,
		BatchTimeout: cfg.BatchTimeout,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...any) {
			log.Error(fmt.Sprintf(msg, args...), "component", "kafka")
		}),
	}
	return &Publisher{writer: writer, log: log}, nil
}

// Publish writes one event and waits for the broker's ack.
func (p *Publisher) Publish(ctx context.Context, e booking.Event) error {
	msg, err := toMessage(e)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", e.Type, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func toMessage(e booking.Event) (kafka.Message, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(e.BookingID),
		Value: body,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(e.Type)},
			{Key: HeaderEventID, Value: []byte(e.ID)},
		},
	}, nil
}
