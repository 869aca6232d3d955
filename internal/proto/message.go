package proto

// Inbound frame types understood by the relay. A JSON frame without a type is
// treated as InboundTypeMessage.
const (
	InboundTypeMessage = "message"
)

// Outbound event types.
const (
	OutboundTypeSystem  = "system"
	OutboundTypeUsers   = "users"
	OutboundTypeMessage = "message"
)

// TimestampFormat is used for every outbound timestamp (always UTC).
const TimestampFormat = "2006-01-02T15:04:05.000000Z07:00"

// Inbound is a chat message sent by the client.
type Inbound struct {
	Type    string `json:"type,omitempty"`
	Content string `json:"content"`
}

// EventSystem is a room notice such as "alice joined".
type EventSystem struct {
	Type      string `json:"type"`
	Room      string `json:"room"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// EventUsers lists the usernames currently in a room.
type EventUsers struct {
	Type  string   `json:"type"`
	Room  string   `json:"room"`
	Users []string `json:"users"`
}

// EventMessage is a chat message relayed to a room.
type EventMessage struct {
	Type      string `json:"type"`
	Room      string `json:"room"`
	Username  string `json:"username"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// Event is the union of all outbound shapes, convenient for clients that
// decode before switching on Type.
type Event struct {
	Type      string   `json:"type"`
	Room      string   `json:"room"`
	Username  string   `json:"username,omitempty"`
	Content   string   `json:"content,omitempty"`
	Users     []string `json:"users,omitempty"`
	Timestamp string   `json:"timestamp,omitempty"`
}
