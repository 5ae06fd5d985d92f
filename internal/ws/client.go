package ws

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/citymemory/backend/internal/auth"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
)

// PumpOptions tunes the heartbeat and queue of every connection
type PumpOptions struct {
	PingInterval time.Duration
	PongWait     time.Duration
	SendBuffer   int
}

func (o PumpOptions) withDefaults() PumpOptions {
	if o.PongWait <= 0 {
		o.PongWait = 60 * time.Second
	}
	if o.PingInterval <= 0 || o.PingInterval >= o.PongWait {
		o.PingInterval = o.PongWait * 9 / 10
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 256
	}
	return o
}

// Client is one live push connection
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	id   auth.Identity
	opts PumpOptions

	// roomID is guarded by hub.mu
	roomID string

	send      chan []byte
	closeOnce sync.Once
	closed    chan struct{}
}

func newClient(hub *Hub, conn *websocket.Conn, id auth.Identity, opts PumpOptions) *Client {
	opts = opts.withDefaults()
	return &Client{
		hub:    hub,
		conn:   conn,
		id:     id,
		opts:   opts,
		send:   make(chan []byte, opts.SendBuffer),
		closed: make(chan struct{}),
	}
}

// Identity returns the user behind the connection
func (c *Client) Identity() auth.Identity {
	return c.id
}

func (c *Client) now() time.Time {
	return time.Now().UTC()
}

// offer queues data without blocking. Callers hold hub.mu.
func (c *Client) offer(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// shutdown closes the socket once; the read pump notices and unregisters
func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		close(c.closed)
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

// writePump drains the send queue and keeps the peer alive with pings
func (c *Client) writePump() {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer func() {
		ticker.Stop()
		c.shutdown()
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
				log.Printf("[WS] Write error for %s: %v", c.id.UserID, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[WS] Ping error for %s: %v", c.id.UserID, err)
				return
			}
		}
	}
}

// readPump decodes inbound frames and hands them to the dispatcher. A
// peer that misses the pong window is dropped.
func (c *Client) readPump(ctx context.Context, d *Dispatcher) {
	defer func() {
		c.hub.Unregister(c)
		c.shutdown()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WS] Unexpected close for %s: %v", c.id.UserID, err)
			}
			return
		}
		d.Handle(ctx, c, message)
	}
}
