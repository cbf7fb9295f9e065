package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/example/ec-storefront/internal/logger"
)

// Message is a consumed record with its event type header resolved.
type Message struct {
	Key       []byte
	Value     []byte
	EventType string
}

type MessageHandler func(ctx context.Context, msg Message) error

// Reader is the part of *kafka.Reader the consumer uses.
type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type Consumer struct {
	reader Reader
	log    *zap.Logger
}

func NewConsumer(brokers []string, topic, groupID string, log *zap.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return NewConsumerWithReader(reader, log)
}

func NewConsumerWithReader(r Reader, log *zap.Logger) *Consumer {
	return &Consumer{reader: r, log: logger.OrNop(log)}
}

// Consume blocks until ctx is cancelled. Handler errors are logged and the
// message is skipped.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.log.Warn("kafka_read_failed", zap.Error(err))
				continue
			}

			m := Message{Key: msg.Key, Value: msg.Value, EventType: header(msg, HeaderEventType)}
			if err := handler(ctx, m); err != nil {
				c.log.Error("kafka_handle_failed",
					zap.String("event_type", m.EventType),
					zap.ByteString("key", m.Key),
					zap.Error(err))
			}
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
