package websocket

import (
	"log/slog"
	"sync"

	"github.com/airnode/airtrack-backend/internal/core/domain"
	"github.com/airnode/airtrack-backend/internal/core/ports"
	"github.com/airnode/airtrack-backend/internal/infrastructure/metrics"
)

// Hub maintains the set of active Clients and fans notifications out to
// the subscribers of each channel.
type Hub struct {
	// channels maps channel names to subscribed clients
	channels map[string]map[*Client]bool

	// clients is the set of all registered clients
	clients map[*Client]bool

	// Broadcast channel for notifications
	broadcast chan domain.Notification

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	// stop asks the Run loop to disconnect everyone and exit; done is
	// closed once it has. Closing client send channels only from the
	// Run goroutine keeps fan-out and shutdown from racing.
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	// mu protects the clients and channels maps
	mu sync.RWMutex

	logger *slog.Logger
}

// Ensure Hub implements the Broadcaster interface.
var _ ports.Broadcaster = (*Hub)(nil)

// NewHub creates a new WebSocket hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		channels:   make(map[string]map[*Client]bool),
		clients:    make(map[*Client]bool),
		broadcast:  make(chan domain.Notification, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.With("component", "websocket_hub"),
	}
}

// Broadcast queues a notification for fan-out. It never blocks the
// caller; if the hub's buffer is full the notification is dropped.
func (h *Hub) Broadcast(n domain.Notification) error {
	select {
	case h.broadcast <- n:
		return nil
	default:
		h.logger.Warn("broadcast channel full, dropping notification",
			"channel", n.Channel,
			"entity_id", n.Envelope.EntityID,
		)
		metrics.DroppedSends.Inc()
		return nil
	}
}

// Run starts the hub's event loop. This MUST be run as a goroutine.
// It exits after Shutdown is called and all queued notifications have
// been fanned out.
func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case n := <-h.broadcast:
			h.broadcastNotification(n)

		case <-h.stop:
			// Flush anything already queued before disconnecting.
			for {
				select {
				case n := <-h.broadcast:
					h.broadcastNotification(n)
				default:
					h.closeAllClients()
					return
				}
			}
		}
	}
}

// registerClient adds a client to the hub and its initial channels
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	for _, channel := range client.GetSubscriptions() {
		if h.channels[channel] == nil {
			h.channels[channel] = make(map[*Client]bool)
		}
		h.channels[channel][client] = true
	}

	metrics.ConnectedSubscribers.Set(float64(len(h.clients)))
	h.logger.Info("client registered",
		"remote_addr", client.RemoteAddr,
		"total_clients", len(h.clients),
	)
}

// unregisterClient removes a client from the hub and all channels
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)

	for channel, subs := range h.channels {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.channels, channel)
		}
	}

	client.CloseSend()

	metrics.ConnectedSubscribers.Set(float64(len(h.clients)))
	h.logger.Info("client unregistered",
		"remote_addr", client.RemoteAddr,
		"total_clients", len(h.clients),
	)
}

// broadcastNotification sends a notification to every subscriber of its
// channel. A client whose send buffer is full is disconnected rather
// than allowed to stall the others.
func (h *Hub) broadcastNotification(n domain.Notification) {
	h.mu.RLock()
	subs, ok := h.channels[n.Channel]
	if !ok || len(subs) == 0 {
		h.mu.RUnlock()
		return
	}

	// Copy the client list to avoid holding the lock while sending
	clients := make([]*Client, 0, len(subs))
	for client := range subs {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	h.logger.Debug("broadcasting notification",
		"channel", n.Channel,
		"change_kind", n.Envelope.ChangeKind,
		"client_count", len(clients),
	)

	delivered := 0
	for _, client := range clients {
		select {
		case client.Send <- n:
			delivered++
		default:
			// Client's send buffer is full, unregister them
			h.logger.Warn("client send buffer full, unregistering",
				"remote_addr", client.RemoteAddr,
			)
			metrics.DroppedSends.Inc()
			h.unregisterClient(client)
		}
	}
	metrics.EventsBroadcast.WithLabelValues(n.Channel).Add(float64(delivered))
}

// subscribeClient adds a client to a channel's subscriber set
func (h *Hub) subscribeClient(client *Client, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.channels[channel] == nil {
		h.channels[channel] = make(map[*Client]bool)
	}
	h.channels[channel][client] = true
	client.AddSubscription(channel)

	h.logger.Debug("client subscribed",
		"remote_addr", client.RemoteAddr,
		"channel", channel,
	)
}

// unsubscribeClient removes a client from a channel's subscriber set
func (h *Hub) unsubscribeClient(client *Client, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.channels[channel]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.channels, channel)
		}
	}
	client.RemoveSubscription(channel)

	h.logger.Debug("client unsubscribed",
		"remote_addr", client.RemoteAddr,
		"channel", channel,
	)
}

// GetClientCount returns the total number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetChannelSubscribers returns the number of clients subscribed to a channel
func (h *Hub) GetChannelSubscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if subs, ok := h.channels[channel]; ok {
		return len(subs)
	}
	return 0
}

// closeAllClients disconnects every client. Only the Run goroutine may
// call this, so no fan-out can race the channel closes.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		client.CloseSend()
		delete(h.clients, client)
	}
	h.channels = make(map[string]map[*Client]bool)
	metrics.ConnectedSubscribers.Set(0)
	h.logger.Info("hub shut down")
}

// Shutdown tells the Run loop to disconnect every client and waits for
// it to exit. Call after the bridge has drained so no notification is
// lost mid-flight. Safe to call more than once.
func (h *Hub) Shutdown() {
	h.stopOnce.Do(func() { close(h.stop) })
	<-h.done
}
