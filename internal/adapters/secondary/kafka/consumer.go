package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/airnode/airtrack-backend/internal/core/ports"
)

// ConsumerConfig holds event log reader settings.
type ConsumerConfig struct {
	Brokers       []string
	Topic         string
	ConsumerGroup string
}

// Consumer reads one topic as part of a consumer group and exposes it
// as a ports.MessageSource. Offsets are committed by the group reader
// after each fetch.
type Consumer struct {
	reader *kafka.Reader
	topic  string
}

var _ ports.MessageSource = (*Consumer)(nil)

// NewConsumer creates a group reader on the given topic.
func NewConsumer(cfg ConsumerConfig) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.ConsumerGroup,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
	})
	return &Consumer{reader: reader, topic: cfg.Topic}
}

// Topic returns the topic this source reads.
func (c *Consumer) Topic() string {
	return c.topic
}

// Fetch blocks for the next message, honoring ctx cancellation.
func (c *Consumer) Fetch(ctx context.Context) (ports.Message, error) {
	msg, err := c.reader.ReadMessage(ctx)
	if err != nil {
		return ports.Message{}, err
	}
	return ports.Message{
		Topic: msg.Topic,
		Key:   msg.Key,
		Value: msg.Value,
	}, nil
}

// Close shuts the reader down and leaves the consumer group.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
