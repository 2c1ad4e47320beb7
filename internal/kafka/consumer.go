package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/worachai/stock-tracker-bot/internal/models"
)

// Notifier delivers decoded alert events to users.
type Notifier interface {
	SendAlert(ctx context.Context, event *models.AlertEvent) error
	SendWatchAlert(ctx context.Context, event *models.WatchAlertEvent) error
}

// Consumer reads alert events from the alert topic and hands them to
// the notifier. A delivery failure is logged and the consumer moves on;
// it never stops the loop.
type Consumer struct {
	reader   *kafka.Reader
	notifier Notifier
	log      *zap.SugaredLogger
}

// NewConsumer creates a Kafka consumer for alert events
func NewConsumer(brokers []string, topic, groupID string, notifier Notifier, log *zap.SugaredLogger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})

	return &Consumer{
		reader:   reader,
		notifier: notifier,
		log:      log,
	}
}

// Start begins consuming alert events until the context is cancelled
func (c *Consumer) Start(ctx context.Context) error {
	c.log.Infow("starting alert consumer", "topic", c.reader.Config().Topic)

	for {
		select {
		case <-ctx.Done():
			c.log.Info("alert consumer shutting down")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil // Context cancelled, normal shutdown
				}
				c.log.Errorw("failed to read message", "error", err)
				continue
			}

			if err := c.processMessage(ctx, msg); err != nil {
				c.log.Errorw("failed to process alert event", "error", err)
				// Continue processing other messages
			}
		}
	}
}

type eventEnvelope struct {
	EventType string `json:"event_type"`
}

// processMessage decodes one alert event and delivers it
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var envelope eventEnvelope
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		return fmt.Errorf("failed to unmarshal event envelope: %w", err)
	}

	switch envelope.EventType {
	case models.EventPriceAlert:
		var event models.AlertEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return fmt.Errorf("failed to unmarshal alert event: %w", err)
		}
		if err := c.notifier.SendAlert(ctx, &event); err != nil {
			return fmt.Errorf("failed to deliver alert for %s: %w", event.Symbol, err)
		}
	case models.EventWatchAlert:
		var event models.WatchAlertEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return fmt.Errorf("failed to unmarshal watch alert event: %w", err)
		}
		if err := c.notifier.SendWatchAlert(ctx, &event); err != nil {
			return fmt.Errorf("failed to deliver watch alert for %s: %w", event.Symbol, err)
		}
	default:
		c.log.Debugw("ignoring event type", "event_type", envelope.EventType)
	}

	return nil
}

// Close closes the Kafka consumer
func (c *Consumer) Close() error {
	return c.reader.Close()
}
