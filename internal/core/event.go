package core

import "time"

// EventKind is a notification the core emits to room members.
type EventKind int

const (
	// EventSystem is a human-readable notice such as "alice joined".
	EventSystem EventKind = iota
	// EventUsers carries the full list of member usernames of a room.
	EventUsers
	// EventMessage is a chat message posted by a member.
	EventMessage
)

func (k EventKind) String() string {
	switch k {
	case EventSystem:
		return "system"
	case EventUsers:
		return "users"
	case EventMessage:
		return "message"
	default:
		return "unknown"
	}
}

// Event is fanned out to every member of Room. The same value is shared by all
// recipients of one broadcast and must not be modified by a Conn.
type Event struct {
	Kind      EventKind
	Room      string
	Username  string   // EventMessage
	Content   string   // EventSystem, EventMessage
	Users     []string // EventUsers
	Timestamp time.Time
}
