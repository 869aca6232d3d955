package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatrelay/internal/core"
)

// RoomHandlers provides HTTP handlers for room management endpoints.
type RoomHandlers struct {
	hub *core.Hub
	log *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(hub *core.Hub, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		hub: hub,
		log: logger,
	}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

// RoomsResponse lists room names.
type RoomsResponse struct {
	Rooms []string `json:"rooms"`
}

// CreateRoomResponse acknowledges a created room.
type CreateRoomResponse struct {
	OK   bool   `json:"ok"`
	Room string `json:"room"`
}

// RoomUsersResponse lists the members of a room.
type RoomUsersResponse struct {
	Room  string   `json:"room"`
	Users []string `json:"users"`
}

// ListRooms handles listing existing rooms.
// GET /rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	c.JSON(http.StatusOK, RoomsResponse{Rooms: h.hub.Rooms()})
}

// CreateRoom registers an empty room.
// POST /rooms/:room
func (h *RoomHandlers) CreateRoom(c *gin.Context) {
	name := c.Param("room")

	if err := h.hub.CreateRoom(name); err != nil {
		switch {
		case errors.Is(err, core.ErrRoomExists):
			c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "Room already exists", Code: core.ErrorCode(err)})
		case errors.Is(err, core.ErrInvalidRoom):
			c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "Room name is required", Code: core.ErrorCode(err)})
		default:
			h.log.Error().Err(err).Str("room", name).Msg("failed to create room")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: "internal server error"})
		}
		return
	}

	h.log.Info().Str("room", name).Msg("room created")
	c.JSON(http.StatusOK, CreateRoomResponse{OK: true, Room: name})
}

// RoomUsers lists the usernames in a room.
// GET /rooms/:room/users
func (h *RoomHandlers) RoomUsers(c *gin.Context) {
	name := c.Param("room")
	c.JSON(http.StatusOK, RoomUsersResponse{Room: name, Users: h.hub.Users(name)})
}

// Health reports liveness with current occupancy.
// GET /health
func (h *RoomHandlers) Health(c *gin.Context) {
	stats := h.hub.Stats()
	c.JSON(http.StatusOK, gin.H{"status": "ok", "rooms": stats.Rooms, "members": stats.Members})
}
