package handlers

import (
	"net/http"

	"github.com/citymemory/backend/internal/game"
	"github.com/gin-gonic/gin"
)

// Action names accepted by PerformAction
const (
	ActionFlipCard = "FLIP_CARD"
	ActionEndTurn  = "END_TURN"
)

// PerformAction runs a game move over HTTP. It goes through the same
// manager path as the push channel, so connected peers see the move.
func PerformAction(mgr *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity(c)
		if !ok {
			return
		}
		var req struct {
			Action    string `json:"action"`
			CardIndex *int   `json:"cardIndex"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
			return
		}

		ctx := c.Request.Context()
		switch req.Action {
		case ActionFlipCard:
			if req.CardIndex == nil {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "cardIndex is required"})
				return
			}
			room, out, err := mgr.FlipCard(ctx, c.Param("id"), id.UserID, *req.CardIndex)
			if err != nil {
				respondError(c, err, "Failed to flip card")
				return
			}
			c.JSON(http.StatusOK, gin.H{"success": true, "room": room.Public(), "matchResult": out.Result})

		case ActionEndTurn:
			room, err := mgr.EndTurn(ctx, c.Param("id"), id.UserID)
			if err != nil {
				respondError(c, err, "Failed to end turn")
				return
			}
			respondRoom(c, http.StatusOK, room)

		default:
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Unknown action: " + req.Action})
		}
	}
}
