package core

import (
	"sort"
	"sync"
)

// Room groups connections subscribed to the same name.
type Room struct {
	Name    string
	members map[Conn]uint64 // join sequence, for stable listing

	// fanout serializes broadcasts within the room so every member observes
	// the room's events in the same order.
	fanout sync.Mutex
}

// NewRoom constructs a room with no members.
func NewRoom(name string) *Room {
	return &Room{
		Name:    name,
		members: make(map[Conn]uint64),
	}
}

// Add inserts a connection into the room with its join sequence. Adding a
// present connection keeps its original position.
func (r *Room) Add(c Conn, seq uint64) {
	if _, exists := r.members[c]; exists {
		return
	}
	r.members[c] = seq
}

// Remove deletes a connection from the room.
func (r *Room) Remove(c Conn) {
	delete(r.members, c)
}

// Empty returns true if no connections are in the room.
func (r *Room) Empty() bool {
	return len(r.members) == 0
}

// Conns returns the members in join order.
func (r *Room) Conns() []Conn {
	conns := make([]Conn, 0, len(r.members))
	for c := range r.members {
		conns = append(conns, c)
	}
	sort.Slice(conns, func(i, j int) bool {
		return r.members[conns[i]] < r.members[conns[j]]
	})
	return conns
}
