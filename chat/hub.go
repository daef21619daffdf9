package chat

import "sync"

// Client is the write side of one live connection
type Client interface {
	Send(evt Event)
}

// Broadcaster partitions connections into rooms keyed by complaint id and
// scopes all fan-out to the members of one room. The hub below is the
// in-process implementation; the controller only ever sees this interface so
// a distributed pub/sub could be swapped in without touching it.
type Broadcaster interface {
	Join(room string, c Client)
	Remove(c Client)
	Broadcast(room string, evt Event)
}

// Hub tracks which connections joined which complaint rooms
type Hub struct {
	mu    sync.Mutex
	rooms map[string]map[Client]struct{}
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[Client]struct{})}
}

// Join admits a connection into a room. Joining is idempotent; a connection
// may be a member of several rooms at once.
func (h *Hub) Join(room string, c Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
}

// Remove drops a connection from every room it joined. Empty rooms are
// deleted; membership has no existence beyond its live connections.
func (h *Hub) Remove(c Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room, members := range h.rooms {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Broadcast sends an event to every connection currently in the room,
// including the originator
func (h *Hub) Broadcast(room string, evt Event) {
	h.mu.Lock()
	members := make([]Client, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		members = append(members, c)
	}
	h.mu.Unlock()

	for _, c := range members {
		c.Send(evt)
	}
}

// RoomSize returns the number of live connections in a room
func (h *Hub) RoomSize(room string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[room])
}
