package ports

import (
	"context"
	"time"

	"github.com/airnode/airtrack-backend/internal/core/domain"
)

// EventPublisher appends change envelopes to the durable event log.
// Delivery is best effort: the caller's mutation has already committed,
// so failures are surfaced through logs and metrics, never to the caller's
// end user.
type EventPublisher interface {
	Publish(ctx context.Context, env domain.Envelope) error
	Close() error
}

// ProjectionCache is the keyed, TTL-bound read cache for entity
// projections. Upserts are last-write-wins; Get reports a miss with
// found=false and no error.
type ProjectionCache interface {
	Get(ctx context.Context, key string, dest any) (found bool, err error)
	Upsert(ctx context.Context, key string, value any, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// Broadcaster fans a notification out to all live subscribers on the
// notification's channel. Implementations must be safe for concurrent use
// with subscriber connect/disconnect.
type Broadcaster interface {
	Broadcast(n domain.Notification) error
}

// NotificationHistory is the bounded record of recently consumed envelopes,
// used by reconnecting clients to catch up on missed events.
type NotificationHistory interface {
	Append(entry domain.HistoryEntry)
	ListRecent(limit int) []domain.HistoryEntry
}

// Message is a raw record fetched from a broker topic.
type Message struct {
	Topic string
	Key   []byte
	Value []byte
}

// MessageSource is a single-consumer view over one broker topic
// subscription. Fetch blocks until a message arrives, the context is
// cancelled, or the source is closed.
type MessageSource interface {
	Topic() string
	Fetch(ctx context.Context) (Message, error)
	Close() error
}
