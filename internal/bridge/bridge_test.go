package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airnode/airtrack-backend/internal/core/domain"
	"github.com/airnode/airtrack-backend/internal/core/ports"
)

// fakeSource replays a fixed set of messages, then blocks until the
// fetch context is canceled.
type fakeSource struct {
	topic    string
	messages []ports.Message

	mu     sync.Mutex
	pos    int
	closed bool
}

func (f *fakeSource) Topic() string { return f.topic }

func (f *fakeSource) Fetch(ctx context.Context) (ports.Message, error) {
	f.mu.Lock()
	if f.pos < len(f.messages) {
		msg := f.messages[f.pos]
		f.pos++
		f.mu.Unlock()
		return msg, nil
	}
	f.mu.Unlock()

	<-ctx.Done()
	return ports.Message{}, ctx.Err()
}

func (f *fakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// captureBroadcaster records notifications in arrival order.
type captureBroadcaster struct {
	mu            sync.Mutex
	notifications []domain.Notification
}

func (c *captureBroadcaster) Broadcast(n domain.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifications = append(c.notifications, n)
	return nil
}

func (c *captureBroadcaster) snapshot() []domain.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Notification, len(c.notifications))
	copy(out, c.notifications)
	return out
}

func encodedEnvelope(t *testing.T, entityType domain.EntityType, id, routingKey string) []byte {
	t.Helper()
	env, err := domain.NewEnvelope(entityType, domain.ChangeUpdated, id, routingKey, map[string]string{"status": "departed"})
	require.NoError(t, err)
	data, err := env.Encode()
	require.NoError(t, err)
	return data
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func newTestBridge(sources []ports.MessageSource, sink *captureBroadcaster, history *History) *Bridge {
	return New(Config{ChannelBuffer: 16, ShutdownTimeout: time.Second}, sources, sink, history, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestBridge_DeliversInLogOrderPerSource(t *testing.T) {
	var msgs []ports.Message
	for i := 0; i < 5; i++ {
		msgs = append(msgs, ports.Message{
			Topic: "flight-events",
			Key:   []byte("BA117"),
			Value: encodedEnvelope(t, domain.EntityFlight, fmt.Sprintf("f%d", i), "BA117"),
		})
	}
	src := &fakeSource{topic: "flight-events", messages: msgs}
	sink := &captureBroadcaster{}
	history := NewHistory(16)
	b := newTestBridge([]ports.MessageSource{src}, sink, history)

	require.NoError(t, b.Start(context.Background()))
	waitFor(t, func() bool { return len(sink.snapshot()) == 5 })

	got := sink.snapshot()
	for i, n := range got {
		assert.Equal(t, fmt.Sprintf("f%d", i), n.Envelope.EntityID)
		assert.Equal(t, domain.ChannelFlightUpdate, n.Channel)
	}

	require.NoError(t, b.Drain())
	assert.Equal(t, StateStopped, b.State())
	assert.True(t, src.closed)
}

func TestBridge_SkipsMalformedMessages(t *testing.T) {
	valid := encodedEnvelope(t, domain.EntityBaggage, "b1", "BAG-001")
	invalidJSON := []byte("{not json")
	missingFields, _ := json.Marshal(map[string]string{"entityType": "flight"})

	src := &fakeSource{topic: "baggage-events", messages: []ports.Message{
		{Topic: "baggage-events", Value: invalidJSON},
		{Topic: "baggage-events", Value: missingFields},
		{Topic: "baggage-events", Value: valid},
	}}
	sink := &captureBroadcaster{}
	history := NewHistory(16)
	b := newTestBridge([]ports.MessageSource{src}, sink, history)

	require.NoError(t, b.Start(context.Background()))
	waitFor(t, func() bool { return len(sink.snapshot()) == 1 })

	got := sink.snapshot()
	assert.Equal(t, "b1", got[0].Envelope.EntityID)
	assert.Equal(t, domain.ChannelBaggageUpdate, got[0].Channel)
	assert.Len(t, history.ListRecent(0), 1)

	require.NoError(t, b.Drain())
}

func TestBridge_RecordsHistory(t *testing.T) {
	src := &fakeSource{topic: "flight-events", messages: []ports.Message{
		{Topic: "flight-events", Value: encodedEnvelope(t, domain.EntityFlight, "f1", "BA117")},
		{Topic: "flight-events", Value: encodedEnvelope(t, domain.EntityFlight, "f2", "BA118")},
	}}
	sink := &captureBroadcaster{}
	history := NewHistory(16)
	b := newTestBridge([]ports.MessageSource{src}, sink, history)

	require.NoError(t, b.Start(context.Background()))
	waitFor(t, func() bool { return len(history.ListRecent(0)) == 2 })

	recent := history.ListRecent(1)
	require.Len(t, recent, 1)
	assert.Equal(t, "f2", recent[0].EntityID)

	require.NoError(t, b.Drain())
}

func TestBridge_MergesMultipleSources(t *testing.T) {
	flightSrc := &fakeSource{topic: "flight-events", messages: []ports.Message{
		{Topic: "flight-events", Value: encodedEnvelope(t, domain.EntityFlight, "f1", "BA117")},
	}}
	baggageSrc := &fakeSource{topic: "baggage-events", messages: []ports.Message{
		{Topic: "baggage-events", Value: encodedEnvelope(t, domain.EntityBaggage, "b1", "BAG-001")},
	}}
	sink := &captureBroadcaster{}
	b := newTestBridge([]ports.MessageSource{flightSrc, baggageSrc}, sink, NewHistory(16))

	require.NoError(t, b.Start(context.Background()))
	waitFor(t, func() bool { return len(sink.snapshot()) == 2 })

	channels := map[string]bool{}
	for _, n := range sink.snapshot() {
		channels[n.Channel] = true
	}
	assert.True(t, channels[domain.ChannelFlightUpdate])
	assert.True(t, channels[domain.ChannelBaggageUpdate])

	require.NoError(t, b.Drain())
	assert.True(t, flightSrc.closed)
	assert.True(t, baggageSrc.closed)
}

func TestBridge_StartTwiceFails(t *testing.T) {
	src := &fakeSource{topic: "flight-events"}
	b := newTestBridge([]ports.MessageSource{src}, &captureBroadcaster{}, NewHistory(4))

	require.NoError(t, b.Start(context.Background()))
	assert.Error(t, b.Start(context.Background()))

	require.NoError(t, b.Drain())
}

func TestBridge_RequiresSources(t *testing.T) {
	b := newTestBridge(nil, &captureBroadcaster{}, NewHistory(4))

	err := b.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateStopped, b.State())
}

func TestBridge_DrainBeforeStartFails(t *testing.T) {
	src := &fakeSource{topic: "flight-events"}
	b := newTestBridge([]ports.MessageSource{src}, &captureBroadcaster{}, NewHistory(4))

	assert.Error(t, b.Drain())
}
