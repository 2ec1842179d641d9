package registry

import "sync"

// Registry tracks room membership. A connection belongs to at most one room
// at a time. Rooms are created on first join and are never removed, even
// when their member set becomes empty.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]map[string]struct{} // room -> set of connection IDs
	byConn map[string]string              // connection ID -> room
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		rooms:  make(map[string]map[string]struct{}),
		byConn: make(map[string]string),
	}
}

// Join moves connID into roomID, leaving its previous room first. It returns
// the previous room and whether the connection actually switched rooms.
// Joining the current room again changes nothing.
func (r *Registry) Join(connID, roomID string) (previous string, switched bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous = r.byConn[connID]
	if previous != "" && previous != roomID {
		delete(r.rooms[previous], connID)
		switched = true
	}

	members := r.ensure(roomID)
	members[connID] = struct{}{}
	r.byConn[connID] = roomID
	return previous, switched
}

// Leave removes connID from roomID. It reports false when connID was not a
// member of that room.
func (r *Registry) Leave(connID, roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.byConn[connID] != roomID {
		return false
	}
	delete(r.rooms[roomID], connID)
	delete(r.byConn, connID)
	return true
}

// Disconnect removes connID from whichever room it is in.
func (r *Registry) Disconnect(connID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	roomID, ok := r.byConn[connID]
	if !ok {
		return "", false
	}
	delete(r.rooms[roomID], connID)
	delete(r.byConn, connID)
	return roomID, true
}

// Touch creates roomID without adding members.
func (r *Registry) Touch(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensure(roomID)
}

// RoomOf returns the room connID currently belongs to.
func (r *Registry) RoomOf(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	roomID, ok := r.byConn[connID]
	return roomID, ok
}

// MembersOf returns a snapshot of the connections in roomID.
func (r *Registry) MembersOf(roomID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[roomID]
	ids := make([]string, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	return ids
}

// Rooms returns every known room with its member count.
func (r *Registry) Rooms() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]int, len(r.rooms))
	for id, members := range r.rooms {
		result[id] = len(members)
	}
	return result
}

func (r *Registry) ensure(roomID string) map[string]struct{} {
	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[string]struct{})
		r.rooms[roomID] = members
	}
	return members
}
