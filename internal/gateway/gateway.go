// Package gateway is the session boundary: it translates inbound transport
// events into room registry operations and routes the resulting broadcasts
// back to one, many, or all-but-one connections in a room.
package gateway

import (
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/room"
)

// Sender delivers outbound events to a single transport connection.
// Implementations must not block; the websocket transport backs Send with a
// buffered channel.
type Sender interface {
	// ID returns the opaque connection identifier.
	ID() string
	// Send enqueues an event for delivery.
	Send(ev Event) error
}

// User-facing error messages for the recoverable conditions. None of them
// terminate the connection.
const (
	msgRoomNotFound    = "Room not found"
	msgRoomFull        = "Room is full"
	msgRoomIDConflict  = "Room ID already in use. Please try another."
	msgUnknownPlayer   = "Unknown player"
	msgDuplicatePlayer = "Player ID already in use"
	msgInvalidRequest  = "Invalid request"
)

// binding ties a connection to the room and player it acts for.
type binding struct {
	gameID   string
	playerID string
}

// Gateway routes events between the transport and the room registry.
// It is safe for concurrent use from many connection goroutines.
type Gateway struct {
	logger   *zap.Logger
	registry *room.Registry

	mu       sync.Mutex
	senders  map[string]Sender  // connID → sender
	bindings map[string]binding // connID → room/player
	gates    map[string]*sync.Mutex
}

// New creates a Gateway over the given registry.
//
// Precondition: logger and registry must be non-nil.
func New(logger *zap.Logger, registry *room.Registry) *Gateway {
	return &Gateway{
		logger:   logger,
		registry: registry,
		senders:  make(map[string]Sender),
		bindings: make(map[string]binding),
		gates:    make(map[string]*sync.Mutex),
	}
}

// Connect registers a transport connection for outbound delivery.
func (g *Gateway) Connect(s Sender) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.senders[s.ID()] = s

	g.logger.Info("client connected", zap.String("conn_id", s.ID()))
}

// Disconnect handles a transport-level disconnect notification. If the
// connection was bound to a room, the player is flagged disconnected and the
// room is announced to (and eventually deleted for) the remaining players.
func (g *Gateway) Disconnect(connID string) {
	g.mu.Lock()
	b, bound := g.bindings[connID]
	delete(g.bindings, connID)
	delete(g.senders, connID)
	g.mu.Unlock()

	g.logger.Info("client disconnected", zap.String("conn_id", connID))

	if !bound {
		return
	}

	r, ok := g.registry.Get(b.gameID)
	if !ok {
		return
	}

	gate := g.gate(b.gameID)
	gate.Lock()
	defer gate.Unlock()

	out, err := r.MarkDisconnected(b.playerID)
	if err != nil {
		g.logger.Warn("disconnect for unknown player",
			zap.String("game_id", b.gameID),
			zap.String("player_id", b.playerID),
		)
		return
	}

	g.broadcast(r.Recipients(), Event{
		Event: EventPlayerDisconnected,
		Data:  playerDisconnectedData{PlayerID: b.playerID},
	})

	if out.Deserted {
		g.registry.Delete(b.gameID)
		g.dropGate(b.gameID)
		g.logger.Info("room deserted, deleted",
			zap.String("game_id", b.gameID),
		)
	}
}

// HandleMessage processes one inbound event frame from a connection.
// Malformed frames fail closed with a generic error event; recognized events
// are dispatched to the room operations. Never fatal to the service.
func (g *Gateway) HandleMessage(connID string, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		g.errorTo(connID, msgInvalidRequest)
		return
	}

	switch env.Event {
	case EventCreateGame:
		g.handleCreateGame(connID, env.Data)
	case EventJoinGame:
		g.handleJoinGame(connID, env.Data)
	case EventPlayerUpdate:
		g.handlePlayerUpdate(connID, env.Data)
	case EventAttack:
		g.handleAttack(connID, env.Data)
	default:
		g.logger.Debug("unknown event",
			zap.String("conn_id", connID),
			zap.String("event", env.Event),
		)
		g.errorTo(connID, msgInvalidRequest)
	}
}

func (g *Gateway) handleCreateGame(connID string, data json.RawMessage) {
	var req createGameRequest
	if err := json.Unmarshal(data, &req); err != nil || req.PlayerID == "" {
		g.errorTo(connID, msgInvalidRequest)
		return
	}

	// Creation and seating the creator are one registry-atomic step: the
	// room is never visible to a concurrent join before its creator holds
	// the first slot.
	r, snap, err := g.registry.CreateWithPlayer(req.CustomGameID, req.PlayerID, req.PlayerName, connID)
	if err != nil {
		g.errorTo(connID, userMessage(err))
		return
	}

	gate := g.gate(r.ID())
	gate.Lock()
	defer gate.Unlock()

	g.bind(connID, r.ID(), req.PlayerID)

	g.logger.Info("game created",
		zap.String("game_id", r.ID()),
		zap.String("player_id", req.PlayerID),
	)

	g.sendTo(connID, Event{
		Event: EventGameCreated,
		Data: gameCreatedData{
			GameID:   r.ID(),
			PlayerID: req.PlayerID,
			GameData: snap,
		},
	})
}

func (g *Gateway) handleJoinGame(connID string, data json.RawMessage) {
	var req joinGameRequest
	if err := json.Unmarshal(data, &req); err != nil || req.PlayerID == "" || req.GameID == "" {
		g.errorTo(connID, msgInvalidRequest)
		return
	}

	r, ok := g.registry.Get(req.GameID)
	if !ok {
		g.errorTo(connID, msgRoomNotFound)
		return
	}

	gate := g.gate(r.ID())
	gate.Lock()
	defer gate.Unlock()

	snap, err := r.AddPlayer(req.PlayerID, req.PlayerName, connID)
	if err != nil {
		g.errorTo(connID, userMessage(err))
		return
	}

	g.bind(connID, r.ID(), req.PlayerID)

	g.logger.Info("player joined",
		zap.String("game_id", r.ID()),
		zap.String("player_id", req.PlayerID),
	)

	all := r.Recipients()
	g.broadcast(all, Event{
		Event: EventPlayerJoined,
		Data: playerJoinedData{
			PlayerID:   req.PlayerID,
			PlayerName: snap.Players[req.PlayerID].Name,
		},
	})
	if snap.State == room.StatePlaying {
		g.broadcast(all, Event{
			Event: EventGameStart,
			Data: gameStartData{
				GameID:   r.ID(),
				GameData: snap,
			},
		})
	}
}

func (g *Gateway) handlePlayerUpdate(connID string, data json.RawMessage) {
	var req playerUpdateRequest
	if err := json.Unmarshal(data, &req); err != nil || req.PlayerID == "" || req.GameID == "" {
		g.errorTo(connID, msgInvalidRequest)
		return
	}
	// A direction outside ±1 would be stored as an unusable facing.
	if d := req.UpdateData.Direction; d != nil && !combat.Facing(*d).Valid() {
		g.errorTo(connID, msgInvalidRequest)
		return
	}

	r, ok := g.registry.Get(req.GameID)
	if !ok {
		g.errorTo(connID, msgRoomNotFound)
		return
	}

	gate := g.gate(r.ID())
	gate.Lock()
	defer gate.Unlock()

	delta, err := r.ApplyUpdate(req.PlayerID, req.UpdateData)
	if err != nil {
		g.errorTo(connID, userMessage(err))
		return
	}

	g.broadcast(r.RecipientsExcept(req.PlayerID), Event{
		Event: EventPlayerState,
		Data: playerStateData{
			PlayerID: req.PlayerID,
			State:    delta,
		},
	})
}

func (g *Gateway) handleAttack(connID string, data json.RawMessage) {
	var req attackRequest
	if err := json.Unmarshal(data, &req); err != nil || req.PlayerID == "" || req.GameID == "" {
		g.errorTo(connID, msgInvalidRequest)
		return
	}

	r, ok := g.registry.Get(req.GameID)
	if !ok {
		g.errorTo(connID, msgRoomNotFound)
		return
	}

	gate := g.gate(r.ID())
	gate.Lock()
	defer gate.Unlock()

	out, err := r.ResolveAttack(req.PlayerID)
	if err != nil {
		g.errorTo(connID, userMessage(err))
		return
	}

	all := r.Recipients()

	// The attack animation goes out regardless of the hit outcome.
	g.broadcast(all, Event{
		Event: EventPlayerAttack,
		Data:  playerAttackData{PlayerID: out.Strike.AttackerID},
	})

	if out.Strike.Hit {
		g.broadcast(all, Event{
			Event: EventPlayerHit,
			Data: playerHitData{
				PlayerID: out.Strike.DefenderID,
				Health:   out.Strike.RemainingHealth,
			},
		})
	}

	if out.GameOver {
		g.logger.Info("duel finished",
			zap.String("game_id", r.ID()),
			zap.String("winner_id", out.WinnerID),
		)
		g.broadcast(all, Event{
			Event: EventGameOver,
			Data: gameOverData{
				WinnerID:   out.WinnerID,
				WinnerName: out.WinnerName,
			},
		})
	}
}

// gate returns the dispatch mutex for a room, creating it on first use.
// Holding the gate across a room operation and its broadcasts keeps all
// broadcasts from one inbound event ahead of any causally-later event in
// the same room.
func (g *Gateway) gate(gameID string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	m, ok := g.gates[gameID]
	if !ok {
		m = &sync.Mutex{}
		g.gates[gameID] = m
	}
	return m
}

func (g *Gateway) dropGate(gameID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.gates, gameID)
}

func (g *Gateway) bind(connID, gameID, playerID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.bindings[connID] = binding{gameID: gameID, playerID: playerID}
}

func (g *Gateway) sendTo(connID string, ev Event) {
	g.mu.Lock()
	s, ok := g.senders[connID]
	g.mu.Unlock()
	if !ok {
		return
	}
	if err := s.Send(ev); err != nil {
		g.logger.Debug("dropping event for connection",
			zap.String("conn_id", connID),
			zap.String("event", ev.Event),
			zap.Error(err),
		)
	}
}

func (g *Gateway) broadcast(connIDs []string, ev Event) {
	for _, id := range connIDs {
		g.sendTo(id, ev)
	}
}

func (g *Gateway) errorTo(connID, message string) {
	g.sendTo(connID, Event{
		Event: EventError,
		Data:  errorData{Message: message},
	})
}

// userMessage maps a room error to its user-facing message.
func userMessage(err error) string {
	switch {
	case errors.Is(err, room.ErrRoomNotFound):
		return msgRoomNotFound
	case errors.Is(err, room.ErrRoomFull):
		return msgRoomFull
	case errors.Is(err, room.ErrRoomIDConflict):
		return msgRoomIDConflict
	case errors.Is(err, room.ErrUnknownPlayer):
		return msgUnknownPlayer
	case errors.Is(err, room.ErrDuplicatePlayer):
		return msgDuplicatePlayer
	default:
		return msgInvalidRequest
	}
}
