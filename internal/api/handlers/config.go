package handlers

import (
	"net/http"

	"github.com/citymemory/backend/internal/config"
	"github.com/citymemory/backend/internal/game"
	"github.com/gin-gonic/gin"
)

// GetConfig returns the game limits the frontend needs to build forms
func GetConfig(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success":           true,
			"languages":         game.Languages(),
			"minPlayers":        game.MinPlayers,
			"maxPlayers":        game.MaxPlayers,
			"minCards":          game.MinCards,
			"maxCards":          game.MaxCards(),
			"defaultCardCount":  cfg.DefaultCardCount,
			"turnSwitchDelayMs": cfg.TurnSwitchDelayMs,
		})
	}
}
