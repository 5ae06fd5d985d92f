package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/citymemory/backend/internal/game"
	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
)

const qrSize = 320

// InviteURL is the frontend link that opens roomID
func InviteURL(frontendURL, roomID string) string {
	return strings.TrimRight(frontendURL, "/") + "/rooms/" + roomID
}

// RoomInviteQR renders a PNG QR code of the room's invite link. Private
// rooms are only reachable this way or by id.
func RoomInviteQR(mgr *game.Manager, frontendURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		room, err := mgr.GetRoom(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err, "Failed to fetch room")
			return
		}

		png, err := qrcode.Encode(InviteURL(frontendURL, room.ID), qrcode.Medium, qrSize)
		if err != nil {
			log.Printf("[HTTP] QR generation failed for %s: %v", room.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "QR generation failed"})
			return
		}
		c.Data(http.StatusOK, "image/png", png)
	}
}
