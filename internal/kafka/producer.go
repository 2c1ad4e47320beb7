package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/worachai/stock-tracker-bot/internal/models"
)

// Producer publishes alert events to the alert topic. It satisfies the
// alert engine's notifier contract, decoupling alert decisions from
// message delivery.
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
	}
}

// SendAlert publishes a portfolio price alert event. Events are keyed
// by the recipient so one user's alerts stay ordered.
func (p *Producer) SendAlert(ctx context.Context, event *models.AlertEvent) error {
	return p.publish(ctx, event.TelegramID, event)
}

// SendWatchAlert publishes a watchlist level-crossing event
func (p *Producer) SendWatchAlert(ctx context.Context, event *models.WatchAlertEvent) error {
	return p.publish(ctx, event.TelegramID, event)
}

func (p *Producer) publish(ctx context.Context, key string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
