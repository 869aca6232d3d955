package core

import "context"

// DefaultUsername is substituted when a member joins without a name.
const DefaultUsername = "Anonymous"

// Conn is a member's transport channel as seen by the core layer.
// The hub keys membership by the handle itself, so implementations must be
// comparable (pointer receivers are the usual choice).
type Conn interface {
	// Send delivers one event. Any error marks the connection dead.
	Send(ctx context.Context, ev *Event) error
	// Close releases the underlying transport. It may be called more than once.
	Close() error
}

// Membership binds a connection to a room under a display name.
type Membership struct {
	Room     string
	Username string
}
