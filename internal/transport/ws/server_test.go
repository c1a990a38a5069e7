package ws_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/skirmish/internal/config"
	"github.com/cory-johannsen/skirmish/internal/game/level"
	"github.com/cory-johannsen/skirmish/internal/game/room"
	"github.com/cory-johannsen/skirmish/internal/gateway"
	"github.com/cory-johannsen/skirmish/internal/transport/ws"
)

func startServer(t *testing.T) *ws.Server {
	t.Helper()

	logger := zaptest.NewLogger(t)
	gw := gateway.New(logger, room.NewRegistry(room.DefaultSettings()))
	srv := ws.NewServer(
		config.ServerConfig{Host: "127.0.0.1", Port: 0, SendBuffer: 32},
		config.LevelConfig{Width: 30, Height: 15},
		gw,
		logger,
	)

	go func() {
		if err := srv.Start(); err != nil {
			t.Errorf("server start: %v", err)
		}
	}()
	t.Cleanup(srv.Stop)

	require.Eventually(t, func() bool {
		return srv.Addr() != ""
	}, 2*time.Second, 10*time.Millisecond, "server never started listening")

	return srv
}

func dial(t *testing.T, srv *ws.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+srv.Addr()+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	payload, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(gateway.Envelope{Event: event, Data: payload}))
}

func read(t *testing.T, conn *websocket.Conn) gateway.Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env gateway.Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func TestServer_CreateAndJoinOverWebsocket(t *testing.T) {
	srv := startServer(t)

	p1 := dial(t, srv)
	send(t, p1, gateway.EventCreateGame, map[string]string{"player_id": "p1"})

	created := read(t, p1)
	require.Equal(t, gateway.EventGameCreated, created.Event)

	var createdData struct {
		GameID   string `json:"game_id"`
		PlayerID string `json:"player_id"`
	}
	require.NoError(t, json.Unmarshal(created.Data, &createdData))
	assert.Len(t, createdData.GameID, 6)
	assert.Equal(t, "p1", createdData.PlayerID)

	p2 := dial(t, srv)
	send(t, p2, gateway.EventJoinGame, map[string]string{
		"player_id": "p2",
		"game_id":   createdData.GameID,
	})

	// Both clients see the join and then the start.
	for _, conn := range []*websocket.Conn{p1, p2} {
		assert.Equal(t, gateway.EventPlayerJoined, read(t, conn).Event)
		assert.Equal(t, gateway.EventGameStart, read(t, conn).Event)
	}
}

func TestServer_ErrorReply(t *testing.T) {
	srv := startServer(t)

	conn := dial(t, srv)
	send(t, conn, gateway.EventJoinGame, map[string]string{
		"player_id": "p1",
		"game_id":   "NOPE99",
	})

	env := read(t, conn)
	require.Equal(t, gateway.EventError, env.Event)

	var data struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "Room not found", data.Message)
}

func TestServer_DisconnectAnnounced(t *testing.T) {
	srv := startServer(t)

	p1 := dial(t, srv)
	send(t, p1, gateway.EventCreateGame, map[string]string{"player_id": "p1"})
	created := read(t, p1)
	var createdData struct {
		GameID string `json:"game_id"`
	}
	require.NoError(t, json.Unmarshal(created.Data, &createdData))

	p2 := dial(t, srv)
	send(t, p2, gateway.EventJoinGame, map[string]string{
		"player_id": "p2",
		"game_id":   createdData.GameID,
	})
	read(t, p1) // player_joined
	read(t, p1) // game_start
	read(t, p2)
	read(t, p2)

	require.NoError(t, p2.Close())

	env := read(t, p1)
	require.Equal(t, gateway.EventPlayerDisconnected, env.Event)
	var data struct {
		PlayerID string `json:"player_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "p2", data.PlayerID)
}

func TestServer_LevelEndpoint(t *testing.T) {
	srv := startServer(t)

	resp, err := http.Get(fmt.Sprintf("http://%s/api/level/3", srv.Addr()))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var lvl level.Level
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&lvl))
	assert.Equal(t, 3, lvl.Difficulty)
	assert.Equal(t, 30, lvl.Width)
	assert.Equal(t, 15, lvl.Height)
	assert.Len(t, lvl.Grid, 15)
	assert.InDelta(t, 6.5, lvl.PlayerSpeed, 0.001)
}

func TestServer_LevelEndpoint_ClampsAndRejects(t *testing.T) {
	srv := startServer(t)

	resp, err := http.Get(fmt.Sprintf("http://%s/api/level/99", srv.Addr()))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var lvl level.Level
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&lvl))
	assert.Equal(t, level.MaxDifficulty, lvl.Difficulty)

	bad, err := http.Get(fmt.Sprintf("http://%s/api/level/abc", srv.Addr()))
	require.NoError(t, err)
	defer bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}
