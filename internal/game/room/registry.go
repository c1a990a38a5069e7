package room

import (
	"math/rand"
	"sync"
)

// Registry owns the mapping from room identifier to live Room. It is the
// only process-wide mutable state; its lifecycle spans the server process.
// Registry operations are individually atomic but are not serialized with
// room-internal mutation.
type Registry struct {
	mu       sync.RWMutex
	rooms    map[string]*Room
	settings Settings
}

// NewRegistry creates an empty registry. Rooms it creates use the given
// settings.
func NewRegistry(settings Settings) *Registry {
	return &Registry{
		rooms:    make(map[string]*Room),
		settings: settings,
	}
}

// codeAlphabet omits easily-confused characters (0/O, 1/I).
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// codeLength is the generated room code length. 32^6 codes make collisions
// rare; generation retries until unique regardless.
const codeLength = 6

func randCode(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(b)
}

// CreateWithPlayer inserts a new room and seats its creator as the first
// player in one atomic step. When requestedID is non-empty it is used
// verbatim and must not collide with a live room; otherwise a fresh code is
// generated and re-rolled until it is unique among live rooms. The room
// becomes visible to Get only after the creator is seated, so a concurrent
// joiner can never observe an empty room or take the first slot.
//
// Postcondition: On success the returned room is registered, Waiting, and
// holds exactly the creator; on error the registry is unchanged.
func (reg *Registry) CreateWithPlayer(requestedID, playerID, name, connID string) (*Room, Snapshot, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	id := requestedID
	if id != "" {
		if _, exists := reg.rooms[id]; exists {
			return nil, Snapshot{}, ErrRoomIDConflict
		}
	} else {
		for {
			id = randCode(codeLength)
			if _, exists := reg.rooms[id]; !exists {
				break
			}
		}
	}

	r := New(id, reg.settings)
	snap, err := r.AddPlayer(playerID, name, connID)
	if err != nil {
		return nil, Snapshot{}, err
	}
	reg.rooms[id] = r
	return r, snap, nil
}

// Get returns the live room with the given id.
//
// Postcondition: Returns (nil, false) when no such room exists.
func (reg *Registry) Get(id string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.rooms[id]
	return r, ok
}

// Delete removes the room with the given id. Idempotent.
func (reg *Registry) Delete(id string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.rooms, id)
}

// Len returns the number of live rooms.
func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}
