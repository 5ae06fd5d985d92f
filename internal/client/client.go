// Package client is a push-channel client for the game server. It keeps a
// View of the joined room in sync with the server's snapshots.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/citymemory/backend/internal/game"
	"github.com/citymemory/backend/internal/models"
	"github.com/citymemory/backend/internal/ws"
	"github.com/gorilla/websocket"
)

// Frame is one decoded server message
type Frame struct {
	Type      game.EventType  `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// Options configures a Client
type Options struct {
	// UserID is the identity carried by the token, used for local
	// predictions
	UserID string
	// Render is called with the displayed room after every change
	Render func(*models.Room)
	// OnFrame sees every frame after the view was updated
	OnFrame func(Frame)
}

// Client is one push connection
type Client struct {
	conn    *websocket.Conn
	view    *View
	onFrame func(Frame)
	writeMu sync.Mutex
}

// Dial opens a push connection to wsURL authenticated with token
func Dial(ctx context.Context, wsURL, token string, opts Options) (*Client, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %s: %w", wsURL, resp.Status, err)
		}
		return nil, fmt.Errorf("dial %s: %w", wsURL, err)
	}
	return &Client{
		conn:    conn,
		view:    NewView(opts.UserID, opts.Render),
		onFrame: opts.OnFrame,
	}, nil
}

// View returns the local room view
func (c *Client) View() *View {
	return c.view
}

// JoinRoom subscribes the connection to roomID
func (c *Client) JoinRoom(roomID string) error {
	return c.send(ws.TypeJoinRoom, ws.JoinRoom{RoomID: roomID})
}

// FlipCard shows the flip locally and sends it. A flip the view rejects
// is not sent.
func (c *Client) FlipCard(cardIndex int) error {
	if err := c.view.PredictFlip(cardIndex); err != nil {
		return err
	}
	return c.send(ws.TypeFlipCard, ws.FlipCard{CardIndex: cardIndex})
}

func (c *Client) EndTurn() error {
	return c.send(ws.TypeEndTurn, nil)
}

// Close closes the connection; Run returns soon after
func (c *Client) Close() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return c.conn.Close()
}

// Run reads frames until ctx is done or the connection drops
func (c *Client) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { c.conn.Close() })
	defer stop()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		var f Frame
		if err := json.Unmarshal(raw, &f); err != nil {
			log.Printf("[CLIENT] Invalid frame: %v", err)
			continue
		}
		c.apply(f)
		if c.onFrame != nil {
			c.onFrame(f)
		}
	}
}

// apply feeds any room snapshot in f to the view
func (c *Client) apply(f Frame) {
	switch f.Type {
	case game.EventRoomDeleted:
		var p game.RoomDeletedPayload
		if err := json.Unmarshal(f.Data, &p); err == nil {
			c.view.Clear(p.RoomID)
		}
	case game.EventError:
		// a rejected flip never produces a snapshot, so drop what was shown
		c.view.Reconcile(c.view.snapshot())
	default:
		var p struct {
			Room *models.Room `json:"room"`
		}
		if err := json.Unmarshal(f.Data, &p); err == nil && p.Room != nil {
			c.view.Reconcile(p.Room)
		}
	}
}

func (c *Client) send(kind string, data any) error {
	b, err := ws.NewEnvelope(kind, data, time.Now().UTC())
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, b)
}
