package handlers

import (
	"log"
	"net/http"

	"github.com/citymemory/backend/internal/auth"
	"github.com/citymemory/backend/internal/game"
	"github.com/citymemory/backend/internal/middleware"
	"github.com/citymemory/backend/internal/models"
	"github.com/gin-gonic/gin"
)

// statusFor maps a game error kind to its HTTP status
func statusFor(kind game.Kind) int {
	switch kind {
	case game.KindValidation, game.KindInvalidState, game.KindCapacity,
		game.KindInsufficientPlayers, game.KindNotReady, game.KindNotYourTurn,
		game.KindInvalidCard:
		return http.StatusBadRequest
	case game.KindAuth:
		return http.StatusUnauthorized
	case game.KindForbidden:
		return http.StatusForbidden
	case game.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error envelope. Domain errors carry their own
// message; anything else is logged and answered with fallback.
func respondError(c *gin.Context, err error, fallback string) {
	if !game.IsDomain(err) {
		log.Printf("[HTTP] %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": fallback})
		return
	}
	c.JSON(statusFor(game.KindOf(err)), gin.H{"success": false, "error": err.Error()})
}

func respondRoom(c *gin.Context, status int, room *models.Room) {
	c.JSON(status, gin.H{"success": true, "room": room.Public()})
}

func summaries(rooms []*models.Room) []models.RoomSummary {
	out := make([]models.RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.Summary())
	}
	return out
}

// identity returns the caller set by the auth middleware or answers 401
func identity(c *gin.Context) (auth.Identity, bool) {
	id, ok := middleware.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "User not authenticated"})
	}
	return id, ok
}
