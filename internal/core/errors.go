package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeRoomExists    = "room_exists"
	ErrCodeInvalidRoom   = "invalid_room"
	ErrCodeAlreadyJoined = "already_joined"
)

var (
	ErrRoomExists    = errors.New("room already exists")
	ErrInvalidRoom   = errors.New("room name is required")
	ErrInvalidConn   = errors.New("connection is required")
	ErrAlreadyJoined = errors.New("already joined")
)

// ErrorCode maps a domain error to its wire code. Unknown errors map to "internal".
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrRoomExists):
		return ErrCodeRoomExists
	case errors.Is(err, ErrInvalidRoom):
		return ErrCodeInvalidRoom
	case errors.Is(err, ErrAlreadyJoined):
		return ErrCodeAlreadyJoined
	default:
		return "internal"
	}
}
