package ws

import (
	"context"
	"log"
	"net/http"

	"github.com/citymemory/backend/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// origins are checked by middleware.WebSocketCORSCheck before the upgrade
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades an authenticated request into a push connection. It
// must run behind middleware.Authenticate.
func Handler(ctx context.Context, hub *Hub, d *Dispatcher, opts PumpOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := middleware.Identity(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "User not authenticated"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[WS] Upgrade error: %v", err)
			return
		}

		client := newClient(hub, conn, id, opts)
		if !hub.Register(client) {
			conn.Close()
			return
		}

		go client.writePump()
		go client.readPump(ctx, d)
	}
}
