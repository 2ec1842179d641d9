package hub

import (
	"fmt"
	"sync"

	"github.com/campus-connect/relay/config"
	"github.com/campus-connect/relay/src/history"
	"github.com/campus-connect/relay/src/metrics"
	"github.com/campus-connect/relay/src/registry"
	"github.com/campus-connect/relay/src/relay"
	"github.com/campus-connect/relay/src/types"
	"github.com/rs/zerolog"
)

// Hub owns every live connection and serialises all room operations on a
// single event loop. Registry mutations, relays, history reads and
// disconnects are executed one at a time in the order they were queued.
type Hub struct {
	cfg      *config.SocketConfig
	clients  map[string]*Client
	registry *registry.Registry
	history  *history.Store
	relay    *relay.Relay
	metrics  *metrics.Metrics

	calls    chan func()
	handlers map[string]handlerFunc

	onConnect []func(string)
	onDisconn []func(string)

	mu       sync.RWMutex
	logger   zerolog.Logger
	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

// New creates a new Hub instance. A nil cfg uses the defaults.
func New(cfg *config.SocketConfig, logger zerolog.Logger) *Hub {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	h := &Hub{
		cfg:      cfg,
		clients:  make(map[string]*Client),
		registry: registry.New(),
		history:  history.NewStore(cfg.HistoryCapacity),
		calls:    make(chan func(), 256),
		logger:   logger.With().Str("component", "hub").Logger(),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	h.relay = relay.New(h.registry, h.history, h, logger)
	h.handlers = h.builtinHandlers()
	return h
}

// SetMirror attaches a mirror that receives a copy of every stored message.
// Call before Run.
func (h *Hub) SetMirror(m relay.Mirror) { h.relay.SetMirror(m) }

// SetMetrics attaches Prometheus collectors. Call before Run.
func (h *Hub) SetMetrics(m *metrics.Metrics) {
	h.metrics = m
	h.relay.SetMetrics(m)
}

// Run starts the hub event loop. Call in a goroutine.
func (h *Hub) Run() {
	defer close(h.stopped)
	for {
		select {
		case fn := <-h.calls:
			fn()
		case <-h.done:
			h.closeAll()
			return
		}
	}
}

// Stop halts the hub event loop and closes every client.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Register queues a client for registration.
func (h *Hub) Register(c *Client) {
	h.enqueue(func() { h.addClient(c) })
}

// Unregister queues a client for removal. Removing a client also removes it
// from its room; repeated calls are ignored.
func (h *Hub) Unregister(c *Client) {
	h.enqueue(func() { h.removeClient(c) })
}

// Dispatch queues an inbound frame from c.
func (h *Hub) Dispatch(c *Client, env types.Envelope) {
	h.enqueue(func() { h.handleMessage(c, env) })
}

func (h *Hub) rejectFrame(c *Client, err error) {
	h.enqueue(func() { h.reject(c, "malformed", err) })
}

// enqueue hands fn to the event loop. It reports false once the hub stopped.
func (h *Hub) enqueue(fn func()) bool {
	select {
	case h.calls <- fn:
		return true
	case <-h.done:
		return false
	}
}

// do runs fn on the event loop and waits for it to finish. It reports false
// when the loop exited without running fn.
func (h *Hub) do(fn func()) bool {
	finished := make(chan struct{})
	if !h.enqueue(func() { fn(); close(finished) }) {
		return false
	}
	select {
	case <-finished:
		return true
	case <-h.stopped:
		return false
	}
}

func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()

	h.metrics.Connected()
	h.logger.Info().Str("client_id", c.ID).Str("user_id", c.UserID).Msg("client registered")

	h.mu.RLock()
	callbacks := h.onConnect
	h.mu.RUnlock()
	for _, cb := range callbacks {
		cb(c.ID)
	}
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.ID)
	h.mu.Unlock()

	room, _ := h.registry.Disconnect(c.ID)
	c.Close()
	h.metrics.Disconnected()
	h.logger.Info().Str("client_id", c.ID).Str("room", room).Msg("client unregistered")

	h.mu.RLock()
	callbacks := h.onDisconn
	h.mu.RUnlock()
	for _, cb := range callbacks {
		cb(c.ID)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[string]*Client)
	h.mu.Unlock()

	for id, c := range clients {
		h.registry.Disconnect(id)
		c.Close()
		h.metrics.Disconnected()
	}
	h.logger.Info().Int("clients", len(clients)).Msg("hub stopped")
}

// Deliver queues env on a client's send channel without blocking. It must
// only be called from the event loop.
func (h *Hub) Deliver(clientID string, env types.Envelope) error {
	h.mu.RLock()
	client, ok := h.clients[clientID]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrClientNotFound, clientID)
	}
	select {
	case client.Send <- env:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrSendBufferFull, clientID)
	}
}
