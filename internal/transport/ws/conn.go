package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/gateway"
)

const writeTimeout = 10 * time.Second

// ErrSendBufferFull is returned by Send when the outbound queue for a
// connection is saturated. The event is dropped, not queued.
var ErrSendBufferFull = errors.New("ws: send buffer full")

// ErrConnClosed is returned by Send after the connection has shut down.
var ErrConnClosed = errors.New("ws: connection closed")

// Conn wraps a websocket connection and implements gateway.Sender.
// Outbound events pass through a buffered channel drained by a single
// writer goroutine, so Send never blocks on a slow client.
type Conn struct {
	id     string
	ws     *websocket.Conn
	logger *zap.Logger

	send chan gateway.Event

	closeOnce sync.Once
	closed    chan struct{}
}

// newConn wraps an upgraded websocket connection, assigning it a fresh
// connection id.
func newConn(ws *websocket.Conn, sendBuffer int, logger *zap.Logger) *Conn {
	id := uuid.NewString()
	return &Conn{
		id:     id,
		ws:     ws,
		logger: logger.With(zap.String("conn_id", id)),
		send:   make(chan gateway.Event, sendBuffer),
		closed: make(chan struct{}),
	}
}

// ID implements gateway.Sender.
func (c *Conn) ID() string { return c.id }

// Send implements gateway.Sender. It enqueues the event without blocking;
// a saturated buffer or a closed connection drops the event with an error.
func (c *Conn) Send(ev gateway.Event) error {
	select {
	case <-c.closed:
		return ErrConnClosed
	default:
	}
	select {
	case c.send <- ev:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close shuts the connection down. Safe to call more than once.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.ws.Close()
	})
}

// readPump reads inbound frames and hands them to the gateway until the
// connection drops. It owns the disconnect notification.
func (c *Conn) readPump(gw *gateway.Gateway) {
	defer func() {
		c.Close()
		gw.Disconnect(c.id)
	}()

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("read failed", zap.Error(err))
			}
			return
		}
		gw.HandleMessage(c.id, raw)
	}
}

// writePump drains the send queue onto the wire. It exits when the
// connection closes, which also terminates the read side.
func (c *Conn) writePump() {
	defer c.Close()

	for {
		select {
		case <-c.closed:
			return
		case ev := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.ws.WriteJSON(ev); err != nil {
				c.logger.Debug("write failed", zap.Error(err))
				return
			}
		}
	}
}
