package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/honeynil/RecipeService/internal/models"
	"github.com/segmentio/kafka-go"
)

// Invalidator drops process-local cache entries.
type Invalidator interface {
	InvalidateLocal(tags []string)
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer applies recipe events from other instances to the local cache.
// Each instance reads in its own consumer group so every instance sees
// every event.
type Consumer struct {
	reader  messageReader
	cache   Invalidator
	origin  string
	backoff time.Duration
}

func NewConsumer(brokers []string, topic, groupID, origin string, cache Invalidator) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     brokers,
			Topic:       topic,
			GroupID:     groupID,
			MinBytes:    1,
			MaxBytes:    10e6,
			MaxWait:     500 * time.Millisecond,
			StartOffset: kafka.LastOffset,
		}),
		cache:   cache,
		origin:  origin,
		backoff: time.Second,
	}
}

// Consume blocks until ctx is cancelled.
func (c *Consumer) Consume(ctx context.Context) {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				slog.Info("recipe event consumer stopped")
				return
			}
			slog.Error("failed to read Kafka message", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.backoff):
			}
			continue
		}
		c.handle(msg)
	}
}

func (c *Consumer) handle(msg kafka.Message) {
	var event models.RecipeEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		slog.Error("failed to unmarshal recipe event", "key", string(msg.Key), "error", err)
		return
	}
	if event.Origin == c.origin {
		return
	}
	if len(event.Tags) == 0 {
		slog.Warn("recipe event without tags", "recipe_id", event.RecipeID, "type", event.Type)
		return
	}
	c.cache.InvalidateLocal(event.Tags)
	slog.Debug("recipe event applied", "recipe_id", event.RecipeID, "type", event.Type, "origin", event.Origin)
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
