package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airnode/airtrack-backend/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(hub *Hub) *Client {
	return NewClient(hub, nil, "test-peer", testLogger())
}

func mustEnvelope(t *testing.T, entityType domain.EntityType, routingKey string) domain.Envelope {
	t.Helper()
	env, err := domain.NewEnvelope(entityType, domain.ChangeUpdated, "id-1", routingKey, map[string]string{"status": "boarding"})
	require.NoError(t, err)
	return env
}

func TestHub_RegisterSubscribesBothChannels(t *testing.T) {
	hub := NewHub(testLogger())
	client := newTestClient(hub)

	hub.registerClient(client)

	assert.Equal(t, 1, hub.GetClientCount())
	assert.Equal(t, 1, hub.GetChannelSubscribers(domain.ChannelFlightUpdate))
	assert.Equal(t, 1, hub.GetChannelSubscribers(domain.ChannelBaggageUpdate))
}

func TestHub_BroadcastReachesChannelSubscribers(t *testing.T) {
	hub := NewHub(testLogger())
	client := newTestClient(hub)
	hub.registerClient(client)

	env := mustEnvelope(t, domain.EntityFlight, "BA117")
	hub.broadcastNotification(domain.Notification{Channel: env.Channel(), Envelope: env})

	select {
	case n := <-client.Send:
		assert.Equal(t, domain.ChannelFlightUpdate, n.Channel)
		assert.Equal(t, "BA117", n.Envelope.RoutingKey)
	default:
		t.Fatal("expected notification queued on client")
	}
}

func TestHub_BroadcastSkipsUnsubscribedChannel(t *testing.T) {
	hub := NewHub(testLogger())
	client := newTestClient(hub)
	hub.registerClient(client)
	hub.unsubscribeClient(client, domain.ChannelBaggageUpdate)

	env := mustEnvelope(t, domain.EntityBaggage, "BAG-001")
	hub.broadcastNotification(domain.Notification{Channel: env.Channel(), Envelope: env})

	select {
	case <-client.Send:
		t.Fatal("client should not receive baggage notifications")
	default:
	}
}

func TestHub_SlowClientUnregistered(t *testing.T) {
	hub := NewHub(testLogger())
	client := newTestClient(hub)
	hub.registerClient(client)

	env := mustEnvelope(t, domain.EntityFlight, "BA117")
	n := domain.Notification{Channel: env.Channel(), Envelope: env}

	// Fill the client's send buffer, then one more broadcast must evict it.
	for i := 0; i < cap(client.Send); i++ {
		client.Send <- n
	}
	hub.broadcastNotification(n)

	assert.Equal(t, 0, hub.GetClientCount())
}

func TestHub_UnregisterRemovesFromAllChannels(t *testing.T) {
	hub := NewHub(testLogger())
	client := newTestClient(hub)
	hub.registerClient(client)

	hub.unregisterClient(client)

	assert.Equal(t, 0, hub.GetClientCount())
	assert.Equal(t, 0, hub.GetChannelSubscribers(domain.ChannelFlightUpdate))
	assert.Equal(t, 0, hub.GetChannelSubscribers(domain.ChannelBaggageUpdate))

	// Send channel is closed; a second unregister is a no-op.
	_, open := <-client.Send
	assert.False(t, open)
	hub.unregisterClient(client)
}

func TestHub_ShutdownDisconnectsEverything(t *testing.T) {
	hub := NewHub(testLogger())
	go hub.Run()
	a := newTestClient(hub)
	b := newTestClient(hub)
	hub.Register <- a
	hub.Register <- b

	hub.Shutdown()

	assert.Equal(t, 0, hub.GetClientCount())
	_, open := <-a.Send
	assert.False(t, open)
	_, open = <-b.Send
	assert.False(t, open)
}

// Shutdown must not race the fan-out path: queued notifications are
// flushed by the Run loop before it closes any client send channel.
func TestHub_ConcurrentBroadcastAndShutdown(t *testing.T) {
	hub := NewHub(testLogger())
	go hub.Run()

	env := mustEnvelope(t, domain.EntityFlight, "BA117")
	n := domain.Notification{Channel: env.Channel(), Envelope: env}

	const total = 100
	clients := make([]*Client, total)
	var readers sync.WaitGroup
	for i := range clients {
		c := newTestClient(hub)
		clients[i] = c
		hub.Register <- c
		readers.Add(1)
		go func() {
			defer readers.Done()
			for range c.Send {
			}
		}()
	}

	var churn sync.WaitGroup
	churn.Add(2)
	go func() {
		defer churn.Done()
		for i := 0; i < 500; i++ {
			hub.Broadcast(n)
		}
	}()
	go func() {
		defer churn.Done()
		for _, c := range clients[:total/2] {
			hub.Unregister <- c
		}
	}()
	churn.Wait()

	hub.Shutdown()
	readers.Wait()

	assert.Equal(t, 0, hub.GetClientCount())

	// Every send channel ends up closed exactly once.
	for _, c := range clients {
		_, open := <-c.Send
		assert.False(t, open)
	}
}

func TestClient_SubscribeMessageRoundTrip(t *testing.T) {
	hub := NewHub(testLogger())
	client := newTestClient(hub)
	hub.registerClient(client)
	hub.unsubscribeClient(client, domain.ChannelBaggageUpdate)
	require.False(t, client.HasSubscription(domain.ChannelBaggageUpdate))

	payload, _ := json.Marshal(ChannelPayload{Channel: domain.ChannelBaggageUpdate})
	msg, _ := json.Marshal(ClientMessage{Type: "SUBSCRIBE", Payload: payload})
	client.handleIncomingMessage(msg)

	assert.True(t, client.HasSubscription(domain.ChannelBaggageUpdate))
	assert.Equal(t, 1, hub.GetChannelSubscribers(domain.ChannelBaggageUpdate))
}

func TestClient_IgnoresUnknownChannel(t *testing.T) {
	hub := NewHub(testLogger())
	client := newTestClient(hub)
	hub.registerClient(client)

	payload, _ := json.Marshal(ChannelPayload{Channel: "gateUpdate"})
	msg, _ := json.Marshal(ClientMessage{Type: "SUBSCRIBE", Payload: payload})
	client.handleIncomingMessage(msg)

	assert.False(t, client.HasSubscription("gateUpdate"))
}
