// Package kafka implements the event log adapters: a publisher that
// appends change envelopes to per-entity topics, and a reader that
// feeds them to the notification bridge.
package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/airnode/airtrack-backend/internal/core/domain"
	"github.com/airnode/airtrack-backend/internal/core/ports"
	"github.com/airnode/airtrack-backend/internal/infrastructure/metrics"
)

// PublisherConfig holds event log publisher settings.
type PublisherConfig struct {
	Brokers        []string
	FlightTopic    string
	BaggageTopic   string
	PublishTimeout time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
}

// Publisher appends envelopes to the event log. Messages are keyed by
// routing key so all changes to one entity land on one partition and
// keep their order.
type Publisher struct {
	writer       *kafka.Writer
	flightTopic  string
	baggageTopic string
	timeout      time.Duration
	maxRetries   int
	backoff      time.Duration
	logger       *slog.Logger
}

var _ ports.EventPublisher = (*Publisher)(nil)

// NewPublisher creates an event log publisher on the given brokers.
func NewPublisher(cfg PublisherConfig, logger *slog.Logger) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("event publisher requires at least one broker address")
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 250 * time.Millisecond
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		Async:                  false,
		AllowAutoTopicCreation: true,
	}

	return &Publisher{
		writer:       writer,
		flightTopic:  cfg.FlightTopic,
		baggageTopic: cfg.BaggageTopic,
		timeout:      cfg.PublishTimeout,
		maxRetries:   cfg.MaxRetries,
		backoff:      cfg.RetryBackoff,
		logger:       logger,
	}, nil
}

// Publish appends the envelope to its topic, keyed by routing key.
// Transient broker failures are retried a bounded number of times with
// backoff; the final error is returned once the budget is spent.
func (p *Publisher) Publish(ctx context.Context, env domain.Envelope) error {
	if err := env.Validate(); err != nil {
		return err
	}

	topic := env.Topic(p.flightTopic, p.baggageTopic)

	data, err := env.Encode()
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(env.RoutingKey),
		Value: data,
	}

	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			metrics.PublishRetries.Inc()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.backoff * time.Duration(attempt)):
			}
		}

		writeCtx, cancel := context.WithTimeout(ctx, p.timeout)
		lastErr = p.writer.WriteMessages(writeCtx, msg)
		cancel()

		if lastErr == nil {
			metrics.EventsPublished.WithLabelValues(topic).Inc()
			return nil
		}

		p.logger.WarnContext(ctx, "event publish attempt failed",
			slog.String("topic", topic),
			slog.String("routing_key", env.RoutingKey),
			slog.Int("attempt", attempt+1),
			slog.String("error", lastErr.Error()),
		)
	}

	metrics.PublishFailures.WithLabelValues(topic).Inc()
	return fmt.Errorf("publish to %s: %w", topic, lastErr)
}

// Close flushes and releases the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
