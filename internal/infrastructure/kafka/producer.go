package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/honeynil/RecipeService/internal/models"
	"github.com/segmentio/kafka-go"
)

//go:generate mockgen -source=producer.go -destination=mocks/producer_mock.go -package=mocks

// EventPublisher announces committed recipe writes to other instances.
type EventPublisher interface {
	Publish(ctx context.Context, event models.RecipeEvent) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer messageWriter
	origin string
}

// NewProducer returns a producer whose writes are asynchronous: Publish
// returns once the message is queued and delivery is retried in the
// background.
func NewProducer(brokers []string, topic, origin string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		Async:        true,
		MaxAttempts:  5,
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				slog.Error("failed to deliver recipe events", "topic", topic, "count", len(messages), "error", err)
			}
		},
	}
	return &Producer{writer: writer, origin: origin}
}

func (p *Producer) Publish(ctx context.Context, event models.RecipeEvent) error {
	if event.Origin == "" {
		event.Origin = p.origin
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode recipe event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.RecipeID),
		Value: value,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		slog.Error("failed to send Kafka message", "recipe_id", event.RecipeID, "type", event.Type, "error", err)
		return err
	}
	slog.Debug("Kafka message sent", "recipe_id", event.RecipeID, "type", event.Type)
	return nil
}

func (p *Producer) Close() error {
	if err := p.writer.Close(); err != nil {
		slog.Error("failed to close Kafka writer", "error", err)
		return err
	}
	slog.Info("Kafka writer closed")
	return nil
}

// NoopPublisher drops events. Used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, models.RecipeEvent) error { return nil }
func (NoopPublisher) Close() error                                     { return nil }
