// Package room implements the duel session core: the room registry, the
// per-room state machine, and the player records it owns.
package room

import (
	"sync"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/stage"
)

// State is a room's lifecycle phase.
type State string

const (
	// StateWaiting means the room holds one player and is joinable.
	StateWaiting State = "waiting"
	// StatePlaying means both players are present and the duel is live.
	StatePlaying State = "playing"
	// StateFinished means a fighter has been defeated. Terminal for
	// gameplay; the room is deleted once every player has disconnected.
	StateFinished State = "finished"
)

// MaxPlayers is the room occupancy cap.
const MaxPlayers = 2

// Settings are the tuning parameters a room is created with.
type Settings struct {
	// Stage supplies spawn positions and fighter colors.
	Stage stage.Stage
	// StartingHealth is each fighter's health at spawn.
	StartingHealth int
	// AttackReach is the horizontal reach of an attack in world units.
	AttackReach float64
	// AttackDamage is the health removed by a connecting attack.
	AttackDamage int
}

// DefaultSettings returns the tuning used by the original client:
// 100 health, 60 unit reach, 20 damage, default stage.
func DefaultSettings() Settings {
	return Settings{
		Stage:          stage.Default(),
		StartingHealth: 100,
		AttackReach:    60,
		AttackDamage:   20,
	}
}

// Room is a bounded two-player duel session. All exported methods are safe
// for concurrent use; each operation holds the room lock for its full
// duration so no two events targeting the same room interleave.
type Room struct {
	mu       sync.Mutex
	id       string
	settings Settings
	players  map[string]*Player
	order    []string // player ids in join order
	state    State
	winnerID string
}

// New creates an empty room in the Waiting state.
//
// Precondition: id must be non-empty; settings must be valid.
func New(id string, settings Settings) *Room {
	return &Room{
		id:       id,
		settings: settings,
		players:  make(map[string]*Player, MaxPlayers),
		state:    StateWaiting,
	}
}

// ID returns the room identifier.
func (r *Room) ID() string { return r.id }

// State returns the current lifecycle state.
func (r *Room) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// PlayerCount returns the number of player records in the room,
// connected or not.
func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// Snapshot is an immutable copy of the full room state, used for the
// initial sync sent with game_created and game_start.
type Snapshot struct {
	ID      string                    `json:"game_id"`
	State   State                     `json:"state"`
	Players map[string]PlayerSnapshot `json:"players"`
}

// Snapshot returns a copy of the room's observable state.
func (r *Room) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Room) snapshotLocked() Snapshot {
	players := make(map[string]PlayerSnapshot, len(r.players))
	for id, p := range r.players {
		players[id] = p.snapshot()
	}
	return Snapshot{
		ID:      r.id,
		State:   r.state,
		Players: players,
	}
}

// AddPlayer adds a player to the room, assigning spawn position, color, and
// facing by join order: the first joiner spawns on the left facing right,
// the second on the right facing left. Adding the second player transitions
// the room to Playing.
//
// Precondition: playerID and connID must be non-empty.
// Postcondition: On success the returned Snapshot reflects the new player;
// on error the room state is unchanged.
func (r *Room) AddPlayer(playerID, name, connID string) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.players) >= MaxPlayers {
		return Snapshot{}, ErrRoomFull
	}
	if _, exists := r.players[playerID]; exists {
		return Snapshot{}, ErrDuplicatePlayer
	}
	if name == "" {
		name = DefaultName(playerID)
	}

	p := &Player{
		ID:        playerID,
		ConnID:    connID,
		Name:      name,
		Health:    r.settings.StartingHealth,
		Connected: true,
	}
	st := r.settings.Stage
	if len(r.players) == 0 {
		p.X, p.Y = st.LeftSpawn.X, st.LeftSpawn.Y
		p.Color = st.LeftColor
		p.Facing = combat.FacingRight
	} else {
		p.X, p.Y = st.RightSpawn.X, st.RightSpawn.Y
		p.Color = st.RightColor
		p.Facing = combat.FacingLeft
	}

	r.players[playerID] = p
	r.order = append(r.order, playerID)
	if len(r.players) == MaxPlayers {
		r.state = StatePlaying
	}

	return r.snapshotLocked(), nil
}

// Update is a partial player state reported by the client. Nil fields are
// left untouched; set fields are merged last-write-wins with no validation
// of position continuity or speed — movement is client-authoritative.
type Update struct {
	X         *float64 `json:"x,omitempty"`
	Y         *float64 `json:"y,omitempty"`
	Direction *int     `json:"direction,omitempty"`
}

// ApplyUpdate merges a partial state update into the player's record and
// returns the merged delta for broadcast to the other room occupants.
//
// Postcondition: Only the target player's record changes.
func (r *Room) ApplyUpdate(playerID string, u Update) (Update, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[playerID]
	if !ok {
		return Update{}, ErrUnknownPlayer
	}

	if u.X != nil {
		p.X = *u.X
	}
	if u.Y != nil {
		p.Y = *u.Y
	}
	if u.Direction != nil {
		p.Facing = combat.Facing(*u.Direction)
	}

	return u, nil
}

// AttackOutcome is the structured result of a resolved attack. The attack
// animation is always broadcast regardless of outcome; Strike.Hit and
// GameOver gate the conditional player_hit and game_over events.
type AttackOutcome struct {
	Strike combat.Strike
	// GameOver is true when this strike ended the duel.
	GameOver bool
	// WinnerID and WinnerName identify the attacker when GameOver is true.
	WinnerID   string
	WinnerName string
}

// ResolveAttack resolves an attack by the named player against the other
// room occupant using the directional reach check. A lethal hit transitions
// the room to Finished and names the attacker as winner. Attacks in a
// Finished room still produce the animation but never another hit, so the
// winner cannot change.
//
// Postcondition: Returns ErrUnknownPlayer if the attacker is not in the room.
func (r *Room) ResolveAttack(attackerID string) (AttackOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	attacker, ok := r.players[attackerID]
	if !ok {
		return AttackOutcome{}, ErrUnknownPlayer
	}

	out := AttackOutcome{
		Strike: combat.Strike{
			AttackerID:   attacker.ID,
			AttackerName: attacker.Name,
		},
	}
	if r.state == StateFinished {
		return out, nil
	}

	// Scan the other occupants. With the two-player cap there is at most
	// one defender; a nearest/overlap rule is needed before raising the cap.
	for _, id := range r.order {
		if id == attackerID {
			continue
		}
		defender := r.players[id]
		strike := combat.ResolveStrike(attacker.fighter(), defender.fighter(), r.settings.AttackReach, r.settings.AttackDamage)
		out.Strike = strike
		if strike.Hit {
			defender.Health = strike.RemainingHealth
			if strike.Lethal {
				r.state = StateFinished
				r.winnerID = attacker.ID
				out.GameOver = true
				out.WinnerID = attacker.ID
				out.WinnerName = attacker.Name
			}
		}
		break
	}

	return out, nil
}

// DisconnectOutcome describes the room's reaction to a player disconnect.
type DisconnectOutcome struct {
	// PlayerID is the disconnected player.
	PlayerID string
	// Deserted is true when no connected player remains and the room
	// should be deleted by the registry.
	Deserted bool
}

// MarkDisconnected flips the player's connected flag. The record is kept so
// remaining clients can keep rendering the fighter; the room itself is torn
// down only when every player has disconnected.
//
// Postcondition: Returns ErrUnknownPlayer if the player is not in the room.
func (r *Room) MarkDisconnected(playerID string) (DisconnectOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[playerID]
	if !ok {
		return DisconnectOutcome{}, ErrUnknownPlayer
	}
	p.Connected = false

	out := DisconnectOutcome{PlayerID: playerID, Deserted: true}
	for _, other := range r.players {
		if other.Connected {
			out.Deserted = false
			break
		}
	}
	return out, nil
}

// PlayerByConn returns the id of the player bound to the given transport
// session handle.
//
// Postcondition: Returns ("", false) when no player uses connID.
func (r *Room) PlayerByConn(connID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if p.ConnID == connID {
			return p.ID, true
		}
	}
	return "", false
}

// Recipients returns the transport session handles of all connected players,
// in join order.
func (r *Room) Recipients() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recipientsLocked("")
}

// RecipientsExcept returns the transport session handles of all connected
// players other than the named one, in join order.
func (r *Room) RecipientsExcept(playerID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recipientsLocked(playerID)
}

func (r *Room) recipientsLocked(exceptPlayerID string) []string {
	conns := make([]string, 0, len(r.order))
	for _, id := range r.order {
		if id == exceptPlayerID {
			continue
		}
		if p := r.players[id]; p.Connected {
			conns = append(conns, p.ConnID)
		}
	}
	return conns
}

// Winner returns the winning player's id, or empty when the duel is not
// Finished.
func (r *Room) Winner() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.winnerID
}
