package history

import (
	"sync"

	"github.com/campus-connect/relay/src/types"
)

// Store keeps one bounded buffer per room. Buffers are created on first
// append and live for the life of the process.
type Store struct {
	mu       sync.RWMutex
	capacity int
	rooms    map[string]*Buffer
}

// NewStore creates a store whose buffers hold capacity messages each.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{capacity: capacity, rooms: make(map[string]*Buffer)}
}

// Append records msg in its room's buffer.
func (s *Store) Append(msg types.ChatMessage) (evicted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf, ok := s.rooms[msg.RoomID]
	if !ok {
		buf = NewBuffer(s.capacity)
		s.rooms[msg.RoomID] = buf
	}
	return buf.Append(msg)
}

// Messages returns a copy of roomID's history, oldest first.
func (s *Store) Messages(roomID string) []types.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	buf, ok := s.rooms[roomID]
	if !ok {
		return []types.ChatMessage{}
	}
	return buf.Messages()
}

// Len returns the number of messages held for roomID.
func (s *Store) Len(roomID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if buf, ok := s.rooms[roomID]; ok {
		return buf.Len()
	}
	return 0
}

// Rooms returns the ids of every room with a buffer.
func (s *Store) Rooms() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.rooms))
	for id := range s.rooms {
		ids = append(ids, id)
	}
	return ids
}

// Capacity returns the per-room capacity.
func (s *Store) Capacity() int { return s.capacity }
