package realtime

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// ErrConnectionClosed is returned by Send once the connection is torn down.
var ErrConnectionClosed = errors.New("realtime: connection closed")

// Connection wraps a websocket and coordinates outbound writes via a
// buffered channel. A user may hold several connections at once (multiple
// devices or tabs); each gets its own id. Safe for concurrent use.
type Connection struct {
	ID          string
	UserID      string
	DisplayName string
	ConnectedAt time.Time

	ws    *websocket.Conn
	send  chan []byte
	once  sync.Once
	close chan struct{}
}

// NewConnection constructs a Connection for the given identity.
func NewConnection(userID, displayName string, ws *websocket.Conn) *Connection {
	return &Connection{
		ID:          uuid.NewString(),
		UserID:      userID,
		DisplayName: displayName,
		ConnectedAt: time.Now().UTC(),
		ws:          ws,
		send:        make(chan []byte, 128),
		close:       make(chan struct{}),
	}
}

// Start launches the write loop. It must be called exactly once per connection.
func (c *Connection) Start() {
	if c.ws == nil {
		return
	}
	go c.writeLoop()
}

// Send enqueues payload for delivery. A closed connection always returns
// ErrConnectionClosed, even while the buffer has room. If the client is slow
// and the buffer is full, the connection is closed to keep backpressure
// bounded.
func (c *Connection) Send(payload []byte) error {
	select {
	case <-c.close:
		return ErrConnectionClosed
	default:
	}
	select {
	case <-c.close:
		return ErrConnectionClosed
	case c.send <- payload:
		return nil
	default:
		c.Close(websocket.CloseGoingAway, "send buffer full")
		return errors.New("realtime: connection buffer exceeded")
	}
}

// Close terminates the connection and stops the write loop. Idempotent.
func (c *Connection) Close(code int, reason string) {
	c.once.Do(func() {
		close(c.close)
		if c.ws == nil {
			return
		}
		_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
		_ = c.ws.Close()
	})
}

func (c *Connection) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.close:
			return
		case msg := <-c.send:
			if err := c.writeMessage(msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.writePing(); err != nil {
				return
			}
		}
	}
}

func (c *Connection) writeMessage(payload []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, payload)
}

func (c *Connection) writePing() error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.PingMessage, nil)
}
