package types

import (
	"encoding/json"
	"time"
)

// Event names carried in the envelope.
const (
	EventJoinRoom       = "join-room"
	EventRoomJoined     = "room-joined"
	EventLeaveRoom      = "leave-room"
	EventRoomLeft       = "room-left"
	EventSendMessage    = "send-message"
	EventReceiveMessage = "receive-message"
	EventMessageError   = "message-error"
	EventGetHistory     = "get-history"
	EventRoomHistory    = "room-history"
)

// Envelope is a single WebSocket frame.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope encodes data into an envelope for the given event.
func NewEnvelope(event string, data any) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: event, Data: raw}, nil
}

// User is the sender identity claimed by the client. It is display-only.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// ChatMessage is a message after the relay has stamped it.
type ChatMessage struct {
	ID              string     `json:"id"`
	RoomID          string     `json:"roomId"`
	User            User       `json:"user"`
	Text            string     `json:"text"`
	ClientTimestamp *time.Time `json:"clientTimestamp,omitempty"`
	ServerTimestamp time.Time  `json:"serverTimestamp"`
}

// RoomPayload is the data of join-room, room-joined, leave-room, room-left
// and get-history.
type RoomPayload struct {
	RoomID string `json:"roomId"`
}

// SendPayload is the data of send-message.
type SendPayload struct {
	RoomID          string     `json:"roomId"`
	User            User       `json:"user"`
	Text            string     `json:"text"`
	ClientTimestamp *time.Time `json:"clientTimestamp,omitempty"`
}

// ErrorPayload is the data of message-error.
type ErrorPayload struct {
	Error string `json:"error"`
}

// HistoryPayload is the data of room-history.
type HistoryPayload struct {
	RoomID   string        `json:"roomId"`
	Messages []ChatMessage `json:"messages"`
}

// ClientInfo holds metadata about a connected WebSocket client.
type ClientInfo struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId,omitempty"`
	Room        string    `json:"room,omitempty"`
	ConnectedAt time.Time `json:"connectedAt"`
}

// RoomInfo summarises a known room.
type RoomInfo struct {
	ID       string `json:"id"`
	Members  int    `json:"members"`
	Messages int    `json:"messages"`
}

// Conn abstracts a WebSocket connection for testability.
// ReadMessage returns one raw frame; decoding is left to the caller so a
// bad frame never ends the connection.
type Conn interface {
	WriteJSON(v any) error
	ReadMessage() ([]byte, error)
	Close() error
}

// Pinger is implemented by connections that support keepalive pings.
type Pinger interface {
	Ping() error
}
