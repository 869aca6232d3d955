package http

import (
	"encoding/json"
	"strings"

	"github.com/vovakirdan/chatrelay/internal/core"
	"github.com/vovakirdan/chatrelay/internal/proto"
)

// Reasons an inbound frame produced no broadcast.
const (
	dropEmpty       = "empty"
	dropUnknownType = "unknown_type"
	dropBadContent  = "bad_content"
	dropBinary      = "binary"
	dropRateLimited = "rate_limited"
)

// inboundToMessage extracts the chat text from a client text frame. A JSON
// object is read as proto.Inbound (a missing type means a message); anything
// else is plain text. The second result is a drop reason, empty when the
// returned content should be broadcast.
func inboundToMessage(data []byte) (string, string) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nonEmpty(string(data))
	}

	msgType, ok := optionalString(fields["type"])
	if !ok {
		return "", dropUnknownType
	}
	if msgType == "" {
		msgType = proto.InboundTypeMessage
	}
	if msgType != proto.InboundTypeMessage {
		return "", dropUnknownType
	}

	content, ok := optionalString(fields["content"])
	if !ok {
		return "", dropBadContent
	}
	return nonEmpty(content)
}

func nonEmpty(s string) (string, string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dropEmpty
	}
	return s, ""
}

// optionalString decodes a JSON string. Absent and null fields yield "".
func optionalString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", true
	}
	var v *string
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false
	}
	if v == nil {
		return "", true
	}
	return *v, true
}

func outboundFromEvent(event *core.Event) any {
	ts := event.Timestamp.UTC().Format(proto.TimestampFormat)
	switch event.Kind {
	case core.EventSystem:
		return proto.EventSystem{
			Type:      proto.OutboundTypeSystem,
			Room:      event.Room,
			Content:   event.Content,
			Timestamp: ts,
		}
	case core.EventUsers:
		users := event.Users
		if users == nil {
			users = []string{}
		}
		return proto.EventUsers{
			Type:  proto.OutboundTypeUsers,
			Room:  event.Room,
			Users: users,
		}
	case core.EventMessage:
		return proto.EventMessage{
			Type:      proto.OutboundTypeMessage,
			Room:      event.Room,
			Username:  event.Username,
			Content:   event.Content,
			Timestamp: ts,
		}
	default:
		return proto.Event{Type: event.Kind.String(), Room: event.Room}
	}
}
