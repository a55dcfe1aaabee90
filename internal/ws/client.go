// File: internal/ws/client.go
package ws

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second

	// Ping interval; must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Maximum inbound message size. Clients only send pings and acks.
	maxMessageSize = 4 * 1024

	// Outbound buffer size per connection.
	sendBufferSize = 256
)

// Client is a single WebSocket connection bound to a user.
type Client struct {
	ID      uuid.UUID
	UserID  uuid.UUID
	conn    *websocket.Conn
	send    chan []byte
	manager *Manager
	logger  *zap.Logger
}

// NewClient creates a client for an upgraded connection.
func NewClient(userID uuid.UUID, conn *websocket.Conn, manager *Manager, logger *zap.Logger) *Client {
	return &Client{
		ID:      uuid.New(),
		UserID:  userID,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		manager: manager,
		logger:  logger,
	}
}

// Start registers the client and launches its read/write pumps.
func (c *Client) Start() {
	c.manager.addClient(c)
	go c.readPump()
	go c.writePump()
}

// readPump drains inbound frames. The relay is push-only, so inbound payloads
// are discarded; the pump exists to process control frames and detect closes.
func (c *Client) readPump() {
	defer func() {
		c.manager.removeClient(c.ID)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Debug("Unexpected WebSocket close",
					zap.Error(err),
					zap.String("clientID", c.ID.String()))
			}
			return
		}
	}
}

// writePump forwards queued events to the peer and keeps the connection alive
// with periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug("Failed to write WebSocket message",
					zap.Error(err),
					zap.String("clientID", c.ID.String()))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
