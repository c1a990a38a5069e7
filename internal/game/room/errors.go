package room

import "errors"

// Caller-facing error conditions. All are recoverable: the gateway reports
// them to the originating connection and the connection stays open.
var (
	// ErrRoomNotFound is returned when a room id has no live room.
	ErrRoomNotFound = errors.New("room not found")
	// ErrRoomFull is returned when a third player tries to join a room.
	ErrRoomFull = errors.New("room is full")
	// ErrRoomIDConflict is returned when a requested room id is already live.
	ErrRoomIDConflict = errors.New("room id already in use")
	// ErrUnknownPlayer is returned when a player id is not present in the room.
	ErrUnknownPlayer = errors.New("unknown player")
	// ErrDuplicatePlayer is returned when a player id is already present in the room.
	ErrDuplicatePlayer = errors.New("player id already in room")
)
