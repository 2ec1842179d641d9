package hub

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/campus-connect/relay/src/types"
)

// Client wraps a WebSocket connection and manages message flow.
type Client struct {
	ID          string
	UserID      string // advisory, supplied by the client
	conn        types.Conn
	hub         *Hub
	Send        chan types.Envelope
	connectedAt time.Time
	mu          sync.Mutex
	done        chan struct{}
	closed      bool
}

// NewClient creates a new WebSocket client wrapper.
func NewClient(id, userID string, conn types.Conn, h *Hub) *Client {
	return &Client{
		ID:          id,
		UserID:      userID,
		conn:        conn,
		hub:         h,
		Send:        make(chan types.Envelope, h.cfg.SendBuffer),
		connectedAt: time.Now().UTC(),
		done:        make(chan struct{}),
	}
}

// ReadPump reads frames from the WebSocket and hands them to the hub in
// arrival order. Frames that do not decode are answered with message-error;
// only a read failure unregisters the client.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		env, err := decodeFrame(data)
		if err != nil {
			c.hub.rejectFrame(c, err)
			continue
		}
		c.hub.Dispatch(c, env)
	}
}

// WritePump writes envelopes from the send channel to the WebSocket and
// pings the peer when the connection supports it.
func (c *Client) WritePump() {
	defer c.conn.Close()

	var tick <-chan time.Time
	pinger, canPing := c.conn.(types.Pinger)
	if canPing && c.hub.cfg.PingInterval > 0 {
		ticker := time.NewTicker(c.hub.cfg.Ping())
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case env, ok := <-c.Send:
			if !ok {
				return
			}
			if err := c.conn.WriteJSON(env); err != nil {
				c.hub.logger.Debug().Err(err).Str("client_id", c.ID).Msg("write failed")
				return
			}
		case <-tick:
			if err := pinger.Ping(); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// Close signals the client to stop its pumps. Only the hub loop calls it.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.done)
		close(c.Send)
	}
}

var errMalformedFrame = errors.New("malformed frame")

// decodeFrame parses a raw frame into an envelope.
func decodeFrame(data []byte) (types.Envelope, error) {
	var env types.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return types.Envelope{}, fmt.Errorf("%w: %v", errMalformedFrame, err)
	}
	return env, nil
}
