package gateway

import (
	"encoding/json"

	"github.com/cory-johannsen/skirmish/internal/game/room"
)

// Inbound event names accepted from clients.
const (
	EventCreateGame   = "create_game"
	EventJoinGame     = "join_game"
	EventPlayerUpdate = "player_update"
	EventAttack       = "attack"
)

// Outbound event names pushed to clients.
const (
	EventGameCreated        = "game_created"
	EventGameStart          = "game_start"
	EventPlayerJoined       = "player_joined"
	EventPlayerState        = "player_state"
	EventPlayerAttack       = "player_attack"
	EventPlayerHit          = "player_hit"
	EventGameOver           = "game_over"
	EventPlayerDisconnected = "player_disconnected"
	EventError              = "error"
)

// Envelope is the wire frame for both directions: a named event with a
// JSON payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Event is an outbound named event ready for encoding.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// createGameRequest is the create_game payload.
type createGameRequest struct {
	PlayerID     string `json:"player_id"`
	PlayerName   string `json:"player_name"`
	CustomGameID string `json:"custom_game_id"`
}

// joinGameRequest is the join_game payload.
type joinGameRequest struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	GameID     string `json:"game_id"`
}

// playerUpdateRequest is the player_update payload. Unrecognized fields in
// update_data are dropped at this boundary.
type playerUpdateRequest struct {
	GameID     string      `json:"game_id"`
	PlayerID   string      `json:"player_id"`
	UpdateData room.Update `json:"update_data"`
}

// attackRequest is the attack payload.
type attackRequest struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
}

// gameCreatedData answers create_game, sender only.
type gameCreatedData struct {
	GameID   string        `json:"game_id"`
	PlayerID string        `json:"player_id"`
	GameData room.Snapshot `json:"game_data"`
}

// playerJoinedData announces a join to the whole room.
type playerJoinedData struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
}

// gameStartData starts the duel for the whole room.
type gameStartData struct {
	GameID   string        `json:"game_id"`
	GameData room.Snapshot `json:"game_data"`
}

// playerStateData relays one player's partial update to the other occupants.
type playerStateData struct {
	PlayerID string      `json:"player_id"`
	State    room.Update `json:"state"`
}

// playerAttackData is the unconditional attack animation broadcast.
type playerAttackData struct {
	PlayerID string `json:"player_id"`
}

// playerHitData reports a landed hit and the defender's new health.
type playerHitData struct {
	PlayerID string `json:"player_id"`
	Health   int    `json:"health"`
}

// gameOverData names the winner.
type gameOverData struct {
	WinnerID   string `json:"winner_id"`
	WinnerName string `json:"winner_name"`
}

// playerDisconnectedData announces a dropped player to the room.
type playerDisconnectedData struct {
	PlayerID string `json:"player_id"`
}

// errorData is the single user-facing error reply.
type errorData struct {
	Message string `json:"message"`
}
