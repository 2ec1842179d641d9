package hub

import (
	"errors"
	"sort"

	"github.com/campus-connect/relay/src/types"
)

var (
	// ErrStopped is returned by operations queued after the hub stopped.
	ErrStopped        = errors.New("hub stopped")
	ErrClientNotFound = errors.New("client not found")
	ErrSendBufferFull = errors.New("send buffer full")
)

// OnConnection registers a callback for new connections.
func (h *Hub) OnConnection(cb func(string)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onConnect = append(h.onConnect, cb)
}

// OnDisconnection registers a callback for disconnections.
func (h *Hub) OnDisconnection(cb func(string)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onDisconn = append(h.onDisconn, cb)
}

// ConnectedClients returns a list of connected client IDs.
func (h *Hub) ConnectedClients() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ClientInfo returns info for a connected client, or nil.
func (h *Hub) ClientInfo(clientID string) *types.ClientInfo {
	h.mu.RLock()
	client, ok := h.clients[clientID]
	h.mu.RUnlock()
	if !ok {
		return nil
	}
	room, _ := h.registry.RoomOf(clientID)
	return &types.ClientInfo{
		ID:          client.ID,
		UserID:      client.UserID,
		Room:        room,
		ConnectedAt: client.connectedAt,
	}
}

// RoomOf returns the room a client is currently in.
func (h *Hub) RoomOf(clientID string) (string, bool) {
	var room string
	var ok bool
	h.do(func() { room, ok = h.registry.RoomOf(clientID) })
	return room, ok
}

// MembersOf returns the clients currently joined to roomID.
func (h *Hub) MembersOf(roomID string) []string {
	var members []string
	h.do(func() { members = h.registry.MembersOf(roomID) })
	sort.Strings(members)
	return members
}

// History returns roomID's retained messages, oldest first.
func (h *Hub) History(roomID string) []types.ChatMessage {
	messages := []types.ChatMessage{}
	h.do(func() { messages = h.relay.History(roomID) })
	return messages
}

// Rooms returns every known room, including rooms without members and rooms
// that only hold announced messages, sorted by id.
func (h *Hub) Rooms() []types.RoomInfo {
	result := []types.RoomInfo{}
	h.do(func() {
		counts := h.registry.Rooms()
		for _, id := range h.history.Rooms() {
			if _, ok := counts[id]; !ok {
				counts[id] = 0
			}
		}
		result = make([]types.RoomInfo, 0, len(counts))
		for id, members := range counts {
			result = append(result, types.RoomInfo{
				ID:       id,
				Members:  members,
				Messages: h.history.Len(id),
			})
		}
	})
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Announce posts a server-originated message into roomID.
func (h *Hub) Announce(roomID, text string) (types.ChatMessage, error) {
	var msg types.ChatMessage
	err := ErrStopped
	h.do(func() { msg, err = h.relay.Announce(roomID, text) })
	return msg, err
}

// SendToClient sends a message directly to a specific client.
func (h *Hub) SendToClient(clientID string, env types.Envelope) error {
	err := ErrStopped
	h.do(func() { err = h.Deliver(clientID, env) })
	return err
}
