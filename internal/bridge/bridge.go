// Package bridge consumes the event log and fans envelopes out to live
// websocket subscribers, retaining a bounded history for catch-up reads.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/airnode/airtrack-backend/internal/core/domain"
	"github.com/airnode/airtrack-backend/internal/core/ports"
	"github.com/airnode/airtrack-backend/internal/infrastructure/metrics"
)

// State is the bridge lifecycle phase.
type State int32

const (
	StateIdle State = iota
	StateSubscribing
	StateRunning
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubscribing:
		return "subscribing"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Config holds bridge tuning knobs.
type Config struct {
	// ChannelBuffer bounds the in-flight queue between the topic
	// readers and the dispatch worker.
	ChannelBuffer int

	// ShutdownTimeout bounds how long Drain waits for queued
	// notifications to flush.
	ShutdownTimeout time.Duration
}

// Bridge pulls messages from its sources, decodes them into envelopes
// and hands each one to the history buffer and the broadcaster. A
// single dispatch worker preserves per-partition arrival order.
type Bridge struct {
	sources     []ports.MessageSource
	broadcaster ports.Broadcaster
	history     ports.NotificationHistory
	logger      *slog.Logger

	queue   chan ports.Message
	timeout time.Duration

	mu    sync.Mutex
	state State

	cancel  context.CancelFunc
	readers sync.WaitGroup
	done    chan struct{}
}

// New creates a bridge over the given message sources.
func New(cfg Config, sources []ports.MessageSource, broadcaster ports.Broadcaster, history ports.NotificationHistory, logger *slog.Logger) *Bridge {
	if cfg.ChannelBuffer <= 0 {
		cfg.ChannelBuffer = 256
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	return &Bridge{
		sources:     sources,
		broadcaster: broadcaster,
		history:     history,
		logger:      logger.With("component", "bridge"),
		queue:       make(chan ports.Message, cfg.ChannelBuffer),
		timeout:     cfg.ShutdownTimeout,
		state:       StateIdle,
		done:        make(chan struct{}),
	}
}

// State returns the current lifecycle phase.
func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Bridge) setState(s State) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
}

// Start begins consuming. It fails if the bridge has no sources or has
// already been started.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.state != StateIdle {
		b.mu.Unlock()
		return fmt.Errorf("bridge already started in state %s", b.state)
	}
	b.state = StateSubscribing
	b.mu.Unlock()

	if len(b.sources) == 0 {
		b.setState(StateStopped)
		return errors.New("bridge requires at least one message source")
	}

	runCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel

	for _, src := range b.sources {
		b.readers.Add(1)
		go b.readLoop(runCtx, src)
	}
	go b.dispatchLoop()

	// Readers close the queue when they stop; dispatch drains it.
	go func() {
		b.readers.Wait()
		close(b.queue)
	}()

	b.setState(StateRunning)
	b.logger.Info("bridge running", "sources", len(b.sources))
	return nil
}

// readLoop pulls messages from one source until the context is canceled.
func (b *Bridge) readLoop(ctx context.Context, src ports.MessageSource) {
	defer b.readers.Done()

	for {
		msg, err := src.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			b.logger.Error("fetch failed",
				"topic", src.Topic(),
				"error", err,
			)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		select {
		case b.queue <- msg:
		case <-ctx.Done():
			return
		}
	}
}

// dispatchLoop decodes and delivers queued messages one at a time so
// envelopes sharing a routing key keep their log order.
func (b *Bridge) dispatchLoop() {
	defer close(b.done)

	for msg := range b.queue {
		env, err := domain.DecodeEnvelope(msg.Value)
		if err != nil {
			metrics.MalformedEnvelopes.WithLabelValues(msg.Topic).Inc()
			b.logger.Warn("skipping malformed envelope",
				"topic", msg.Topic,
				"error", err,
			)
			continue
		}

		b.history.Append(domain.NewHistoryEntry(env))

		if err := b.broadcaster.Broadcast(domain.Notification{
			Channel:  env.Channel(),
			Envelope: env,
		}); err != nil {
			b.logger.Error("broadcast failed",
				"channel", env.Channel(),
				"entity_id", env.EntityID,
				"error", err,
			)
		}
	}
}

// Drain stops the readers and waits for queued notifications to flush,
// bounded by the configured shutdown timeout. After Drain returns the
// bridge is stopped and its sources are closed.
func (b *Bridge) Drain() error {
	b.mu.Lock()
	if b.state != StateRunning {
		state := b.state
		b.mu.Unlock()
		return fmt.Errorf("bridge not running, state %s", state)
	}
	b.state = StateDraining
	b.mu.Unlock()

	b.cancel()

	var err error
	select {
	case <-b.done:
	case <-time.After(b.timeout):
		err = errors.New("bridge drain timed out")
	}

	for _, src := range b.sources {
		if cerr := src.Close(); cerr != nil {
			b.logger.Warn("source close failed", "topic", src.Topic(), "error", cerr)
		}
	}

	b.setState(StateStopped)
	b.logger.Info("bridge stopped")
	return err
}
