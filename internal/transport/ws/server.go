// Package ws exposes the game over HTTP: a websocket endpoint that feeds the
// session gateway, a level generation API, and optional static file serving
// for the client.
package ws

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/config"
	"github.com/cory-johannsen/skirmish/internal/game/level"
	"github.com/cory-johannsen/skirmish/internal/gateway"
)

// Server accepts websocket clients and routes their events to the gateway.
// It implements server.Service.
type Server struct {
	cfg      config.ServerConfig
	levelCfg config.LevelConfig
	gateway  *gateway.Gateway
	logger   *zap.Logger

	upgrader websocket.Upgrader

	mu       sync.Mutex
	listener net.Listener
	httpSrv  *http.Server
	conns    map[string]*Conn
	running  bool
}

// NewServer creates a websocket server over the given gateway.
//
// Precondition: gw and logger must be non-nil.
// Postcondition: Returns a Server ready to be started with Start.
func NewServer(cfg config.ServerConfig, levelCfg config.LevelConfig, gw *gateway.Gateway, logger *zap.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		levelCfg: levelCfg,
		gateway:  gw,
		logger:   logger,
		conns:    make(map[string]*Conn),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Start listens on the configured address and serves until Stop is called.
// It blocks for the lifetime of the server.
//
// Precondition: The server must not already be running.
func (s *Server) Start() error {
	start := time.Now()

	listener, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr(), err)
	}

	handler := cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
	}).Handler(s.router())

	s.mu.Lock()
	s.listener = listener
	s.httpSrv = &http.Server{Handler: handler}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("websocket server listening",
		zap.String("addr", listener.Addr().String()),
		zap.Duration("startup", time.Since(start)),
	)

	if err := s.httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}

// Stop gracefully stops the server, closing the listener and every active
// websocket connection.
//
// Postcondition: All connections are closed when this method returns.
func (s *Server) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	srv := s.httpSrv
	conns := make([]*Conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	if srv != nil {
		srv.Close()
	}
	for _, c := range conns {
		c.Close()
	}

	s.logger.Info("websocket server stopped")
}

// Addr returns the actual listening address, or empty string if not yet listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

func (s *Server) router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ws", s.handleWS)
	r.HandleFunc("/api/level/{difficulty}", s.handleLevel).Methods(http.MethodGet)
	if s.cfg.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(s.cfg.StaticDir)))
	}
	return r
}

// checkOrigin mirrors the CORS allow-list for the websocket upgrade.
func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// handleWS upgrades the request and runs the connection's pumps. The read
// pump runs on the request goroutine and owns the disconnect notification.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	wsConn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	conn := newConn(wsConn, s.cfg.SendBuffer, s.logger)

	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.conns[conn.ID()] = conn
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn.ID())
		s.mu.Unlock()
	}()

	s.gateway.Connect(conn)

	go conn.writePump()
	conn.readPump(s.gateway)
}

// handleLevel generates a platformer level for the requested difficulty.
// Difficulty outside [1,5] is clamped rather than rejected.
func (s *Server) handleLevel(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["difficulty"]
	difficulty, err := strconv.Atoi(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "difficulty must be an integer",
		})
		return
	}

	lvl := level.Generate(
		level.ClampDifficulty(difficulty),
		s.levelCfg.Width,
		s.levelCfg.Height,
		level.NewRandomSource(),
	)
	writeJSON(w, http.StatusOK, lvl)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Encoding failures past this point can only be wire errors.
	_ = json.NewEncoder(w).Encode(v)
}
