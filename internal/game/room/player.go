package room

import (
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
)

// Player is a per-connection fighter record. Players are owned exclusively
// by their Room and are mutated only through Room operations.
type Player struct {
	// ID is the caller-supplied player identifier, unique within the room.
	ID string
	// ConnID is the opaque transport session handle. The room only observes
	// connect/disconnect notifications; it never owns the connection.
	ConnID string
	// Name is the display name.
	Name string
	// X and Y are the fighter's world coordinates.
	X float64
	Y float64
	// Color is the sprite color assigned by join order.
	Color string
	// Facing is the horizontal direction the fighter is looking.
	Facing combat.Facing
	// Health starts at the configured value and is unbounded below;
	// the death threshold is <= 0.
	Health int
	// Connected is the transport liveness flag. A disconnected player's
	// record is kept until the whole room winds down.
	Connected bool
}

// DefaultName returns the display name used when none is supplied.
func DefaultName(playerID string) string {
	return fmt.Sprintf("Player %s", playerID)
}

// fighter returns the combat view of this player.
func (p *Player) fighter() combat.Fighter {
	return combat.Fighter{
		ID:     p.ID,
		Name:   p.Name,
		X:      p.X,
		Facing: p.Facing,
		Health: p.Health,
	}
}

// PlayerSnapshot is an immutable copy of a player's state for broadcast
// payloads. Field names match the original browser client.
type PlayerSnapshot struct {
	ID        string  `json:"player_id"`
	Name      string  `json:"name"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Color     string  `json:"color"`
	Direction int     `json:"direction"`
	Health    int     `json:"health"`
	Connected bool    `json:"connected"`
}

func (p *Player) snapshot() PlayerSnapshot {
	return PlayerSnapshot{
		ID:        p.ID,
		Name:      p.Name,
		X:         p.X,
		Y:         p.Y,
		Color:     p.Color,
		Direction: int(p.Facing),
		Health:    p.Health,
		Connected: p.Connected,
	}
}
