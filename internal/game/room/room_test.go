package room_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/room"
)

func f64(v float64) *float64 { return &v }
func i(v int) *int           { return &v }

func newDuel(t *testing.T) *room.Room {
	t.Helper()
	r := room.New("TEST01", room.DefaultSettings())
	_, err := r.AddPlayer("p1", "", "conn-1")
	require.NoError(t, err)
	_, err = r.AddPlayer("p2", "", "conn-2")
	require.NoError(t, err)
	return r
}

func TestAddPlayer_SpawnPolicy(t *testing.T) {
	r := room.New("TEST01", room.DefaultSettings())

	snap, err := r.AddPlayer("p1", "", "conn-1")
	require.NoError(t, err)
	assert.Equal(t, room.StateWaiting, snap.State)

	p1 := snap.Players["p1"]
	assert.Equal(t, 100.0, p1.X)
	assert.Equal(t, 300.0, p1.Y)
	assert.Equal(t, 1, p1.Direction)
	assert.Equal(t, 100, p1.Health)
	assert.Equal(t, "#FF5733", p1.Color)
	assert.Equal(t, "Player p1", p1.Name)
	assert.True(t, p1.Connected)

	snap, err = r.AddPlayer("p2", "Bowie", "conn-2")
	require.NoError(t, err)
	assert.Equal(t, room.StatePlaying, snap.State)

	p2 := snap.Players["p2"]
	assert.Equal(t, 600.0, p2.X)
	assert.Equal(t, 300.0, p2.Y)
	assert.Equal(t, -1, p2.Direction)
	assert.Equal(t, 100, p2.Health)
	assert.Equal(t, "#33A1FF", p2.Color)
	assert.Equal(t, "Bowie", p2.Name)
}

func TestAddPlayer_RoomFull(t *testing.T) {
	r := newDuel(t)

	before := r.Snapshot()
	_, err := r.AddPlayer("p3", "", "conn-3")
	assert.ErrorIs(t, err, room.ErrRoomFull)

	after := r.Snapshot()
	assert.Equal(t, before, after, "a rejected join must leave state unchanged")
	assert.Equal(t, 2, r.PlayerCount())
}

func TestAddPlayer_DuplicateID(t *testing.T) {
	r := room.New("TEST01", room.DefaultSettings())
	_, err := r.AddPlayer("p1", "", "conn-1")
	require.NoError(t, err)

	_, err = r.AddPlayer("p1", "", "conn-9")
	assert.ErrorIs(t, err, room.ErrDuplicatePlayer)
	assert.Equal(t, 1, r.PlayerCount())
	assert.Equal(t, room.StateWaiting, r.State())
}

func TestStateMachine(t *testing.T) {
	r := room.New("TEST01", room.DefaultSettings())
	assert.Equal(t, room.StateWaiting, r.State())

	_, err := r.AddPlayer("p1", "", "conn-1")
	require.NoError(t, err)
	assert.Equal(t, room.StateWaiting, r.State())
	assert.Equal(t, 1, r.PlayerCount())

	_, err = r.AddPlayer("p2", "", "conn-2")
	require.NoError(t, err)
	assert.Equal(t, room.StatePlaying, r.State())
	assert.Equal(t, 2, r.PlayerCount())
}

func TestApplyUpdate_MergesOnlyTarget(t *testing.T) {
	r := newDuel(t)

	delta, err := r.ApplyUpdate("p1", room.Update{X: f64(140), Direction: i(-1)})
	require.NoError(t, err)
	require.NotNil(t, delta.X)
	assert.Equal(t, 140.0, *delta.X)
	assert.Nil(t, delta.Y)

	snap := r.Snapshot()
	assert.Equal(t, 140.0, snap.Players["p1"].X)
	assert.Equal(t, 300.0, snap.Players["p1"].Y, "unset fields are left untouched")
	assert.Equal(t, -1, snap.Players["p1"].Direction)

	// The other player's record is untouched.
	assert.Equal(t, 600.0, snap.Players["p2"].X)
	assert.Equal(t, -1, snap.Players["p2"].Direction)
	assert.Equal(t, 100, snap.Players["p2"].Health)
}

func TestApplyUpdate_UnknownPlayer(t *testing.T) {
	r := newDuel(t)
	_, err := r.ApplyUpdate("ghost", room.Update{X: f64(0)})
	assert.ErrorIs(t, err, room.ErrUnknownPlayer)
}

func TestResolveAttack_HitReducesHealth(t *testing.T) {
	r := newDuel(t)

	// Move p2 into p1's reach: p1 at x=100 facing right, reach 60.
	_, err := r.ApplyUpdate("p2", room.Update{X: f64(140)})
	require.NoError(t, err)

	out, err := r.ResolveAttack("p1")
	require.NoError(t, err)
	assert.True(t, out.Strike.Hit)
	assert.Equal(t, "p1", out.Strike.AttackerID)
	assert.Equal(t, "p2", out.Strike.DefenderID)
	assert.Equal(t, 80, out.Strike.RemainingHealth)
	assert.False(t, out.GameOver)

	assert.Equal(t, 80, r.Snapshot().Players["p2"].Health)
}

func TestResolveAttack_OutOfReachMisses(t *testing.T) {
	r := newDuel(t)

	out, err := r.ResolveAttack("p1")
	require.NoError(t, err)
	assert.False(t, out.Strike.Hit, "p2 at x=600 is out of reach from x=100")
	assert.Equal(t, "p1", out.Strike.AttackerID, "the animation still names the attacker")
	assert.Equal(t, 100, r.Snapshot().Players["p2"].Health)
}

func TestResolveAttack_BehindAttackerMisses(t *testing.T) {
	r := newDuel(t)

	_, err := r.ApplyUpdate("p2", room.Update{X: f64(90)})
	require.NoError(t, err)

	out, err := r.ResolveAttack("p1")
	require.NoError(t, err)
	assert.False(t, out.Strike.Hit, "facing right must not hit a defender behind")
}

func TestResolveAttack_FacingLeftMirrors(t *testing.T) {
	r := newDuel(t)

	// p2 spawns at x=600 facing left; put p1 just inside p2's reach.
	_, err := r.ApplyUpdate("p1", room.Update{X: f64(560)})
	require.NoError(t, err)

	out, err := r.ResolveAttack("p2")
	require.NoError(t, err)
	assert.True(t, out.Strike.Hit)
	assert.Equal(t, "p1", out.Strike.DefenderID)
	assert.Equal(t, 80, r.Snapshot().Players["p1"].Health)
}

func TestResolveAttack_UnknownPlayer(t *testing.T) {
	r := newDuel(t)
	_, err := r.ResolveAttack("ghost")
	assert.ErrorIs(t, err, room.ErrUnknownPlayer)
}

func TestResolveAttack_FiveHitsEndTheDuel(t *testing.T) {
	r := newDuel(t)

	_, err := r.ApplyUpdate("p2", room.Update{X: f64(140)})
	require.NoError(t, err)

	for n := 1; n <= 4; n++ {
		out, err := r.ResolveAttack("p1")
		require.NoError(t, err)
		assert.True(t, out.Strike.Hit)
		assert.Equal(t, 100-20*n, out.Strike.RemainingHealth)
		assert.False(t, out.GameOver, "hit %d must not end the duel", n)
	}

	out, err := r.ResolveAttack("p1")
	require.NoError(t, err)
	assert.True(t, out.Strike.Hit)
	assert.True(t, out.Strike.Lethal)
	assert.Equal(t, 0, out.Strike.RemainingHealth)
	assert.True(t, out.GameOver)
	assert.Equal(t, "p1", out.WinnerID)
	assert.Equal(t, "Player p1", out.WinnerName)
	assert.Equal(t, room.StateFinished, r.State())
	assert.Equal(t, "p1", r.Winner())
}

func TestResolveAttack_FinishedRoomCannotChangeWinner(t *testing.T) {
	r := newDuel(t)

	_, err := r.ApplyUpdate("p2", room.Update{X: f64(140)})
	require.NoError(t, err)
	for n := 0; n < 5; n++ {
		_, err := r.ResolveAttack("p1")
		require.NoError(t, err)
	}
	require.Equal(t, room.StateFinished, r.State())

	// A revenge attack still animates but never lands.
	_, err = r.ApplyUpdate("p1", room.Update{X: f64(140), Direction: i(-1)})
	require.NoError(t, err)
	out, err := r.ResolveAttack("p2")
	require.NoError(t, err)
	assert.Equal(t, "p2", out.Strike.AttackerID)
	assert.False(t, out.Strike.Hit)
	assert.False(t, out.GameOver)
	assert.Equal(t, "p1", r.Winner())
}

func TestMarkDisconnected(t *testing.T) {
	r := newDuel(t)

	out, err := r.MarkDisconnected("p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", out.PlayerID)
	assert.False(t, out.Deserted, "p2 is still connected")

	snap := r.Snapshot()
	assert.False(t, snap.Players["p1"].Connected)
	assert.True(t, snap.Players["p2"].Connected)
	assert.Equal(t, 2, r.PlayerCount(), "the record is kept for rendering")

	out, err = r.MarkDisconnected("p2")
	require.NoError(t, err)
	assert.True(t, out.Deserted, "no connected player remains")
}

func TestMarkDisconnected_UnknownPlayer(t *testing.T) {
	r := newDuel(t)
	_, err := r.MarkDisconnected("ghost")
	assert.ErrorIs(t, err, room.ErrUnknownPlayer)
}

func TestRecipients(t *testing.T) {
	r := newDuel(t)

	assert.Equal(t, []string{"conn-1", "conn-2"}, r.Recipients())
	assert.Equal(t, []string{"conn-2"}, r.RecipientsExcept("p1"))
	assert.Equal(t, []string{"conn-1"}, r.RecipientsExcept("p2"))

	_, err := r.MarkDisconnected("p2")
	require.NoError(t, err)
	assert.Equal(t, []string{"conn-1"}, r.Recipients(), "disconnected players receive nothing")
}

func TestPlayerByConn(t *testing.T) {
	r := newDuel(t)

	id, ok := r.PlayerByConn("conn-2")
	assert.True(t, ok)
	assert.Equal(t, "p2", id)

	_, ok = r.PlayerByConn("conn-404")
	assert.False(t, ok)
}

func TestOccupancy_Property_NeverExceedsCap(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		r := room.New("TEST01", room.DefaultSettings())
		joins := rapid.IntRange(0, 6).Draw(rt, "joins")
		for n := 0; n < joins; n++ {
			id := rapid.SampledFrom([]string{"a", "b", "c", "d"}).Draw(rt, "player_id")
			_, _ = r.AddPlayer(id, "", "conn-"+id)
			assert.LessOrEqual(rt, r.PlayerCount(), room.MaxPlayers)
		}
		switch r.PlayerCount() {
		case 1:
			assert.Equal(rt, room.StateWaiting, r.State())
		case 2:
			assert.Equal(rt, room.StatePlaying, r.State())
		}
	})
}

func TestResolveAttack_Property_DirectionSymmetric(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		offset := rapid.Float64Range(-100, 100).Draw(rt, "offset")

		r := newDuelRapid(rt)
		_, err := r.ApplyUpdate("p2", room.Update{X: f64(100 + offset)})
		require.NoError(rt, err)
		rightOut, err := r.ResolveAttack("p1")
		require.NoError(rt, err)

		// Mirror: p2 attacks facing left with p1 offset the other way.
		r2 := newDuelRapid(rt)
		_, err = r2.ApplyUpdate("p1", room.Update{X: f64(600 - offset)})
		require.NoError(rt, err)
		leftOut, err := r2.ResolveAttack("p2")
		require.NoError(rt, err)

		assert.Equal(rt, rightOut.Strike.Hit, leftOut.Strike.Hit)
		assert.Equal(rt, rightOut.Strike.Hit, combat.Connects(100, combat.FacingRight, 100+offset, 60))
	})
}

func newDuelRapid(rt *rapid.T) *room.Room {
	r := room.New("TEST01", room.DefaultSettings())
	if _, err := r.AddPlayer("p1", "", "conn-1"); err != nil {
		rt.Fatalf("add p1: %v", err)
	}
	if _, err := r.AddPlayer("p2", "", "conn-2"); err != nil {
		rt.Fatalf("add p2: %v", err)
	}
	return r
}
