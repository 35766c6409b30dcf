package transport

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10 // Send pings at 90% of pong deadline
)

// wsConn wraps a gorilla connection behind the room.Conn interface.
// Writes are serialized: broadcasts arrive from other connections' loops.
type wsConn struct {
	id string
	ws *websocket.Conn
	mu sync.Mutex
}

func newWSConn(ws *websocket.Conn) *wsConn {
	return &wsConn{
		id: uuid.NewString(),
		ws: ws,
	}
}

// ID identifies the connection in logs
func (c *wsConn) ID() string {
	return c.id
}

// Send writes one text message with a write deadline
func (c *wsConn) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, payload)
}

// ping sends a keepalive control frame
func (c *wsConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.PingMessage, nil)
}

// Close tears down the underlying socket
func (c *wsConn) Close() error {
	return c.ws.Close()
}
