package handlers

import (
	"net/http"

	"github.com/citymemory/backend/internal/game"
	"github.com/gin-gonic/gin"
)

// GetAvailableRooms lists rooms that can still be joined
func GetAvailableRooms(mgr *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		rooms, err := mgr.ListAvailable(c.Request.Context())
		if err != nil {
			respondError(c, err, "Failed to fetch rooms")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "rooms": summaries(rooms)})
	}
}

// ListRooms lists every stored room, newest first
func ListRooms(mgr *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		rooms, err := mgr.ListAll(c.Request.Context())
		if err != nil {
			respondError(c, err, "Failed to fetch rooms")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "rooms": summaries(rooms)})
	}
}

func GetRoom(mgr *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		room, err := mgr.GetRoom(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err, "Failed to fetch room")
			return
		}
		respondRoom(c, http.StatusOK, room)
	}
}

// CreateRoom creates a room hosted by the caller
func CreateRoom(mgr *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity(c)
		if !ok {
			return
		}
		var req struct {
			Name       string `json:"name"`
			MaxPlayers int    `json:"maxPlayers"`
			Language   string `json:"language"`
			IsPrivate  bool   `json:"isPrivate"`
			CardCount  int    `json:"cardCount"`
			UserID     string `json:"userId"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
			return
		}
		if req.UserID != "" && req.UserID != id.UserID {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "User ID mismatch"})
			return
		}

		room, err := mgr.CreateRoom(c.Request.Context(), game.CreateParams{
			Name:        req.Name,
			MaxPlayers:  req.MaxPlayers,
			Language:    req.Language,
			IsPrivate:   req.IsPrivate,
			CardCount:   req.CardCount,
			CreatorID:   id.UserID,
			CreatorName: id.Username,
		})
		if err != nil {
			respondError(c, err, "Failed to create room")
			return
		}
		respondRoom(c, http.StatusCreated, room)
	}
}

func JoinRoom(mgr *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity(c)
		if !ok {
			return
		}
		room, err := mgr.JoinRoom(c.Request.Context(), c.Param("id"), id.UserID, id.Username)
		if err != nil {
			respondError(c, err, "Failed to join room")
			return
		}
		respondRoom(c, http.StatusOK, room)
	}
}

// LeaveRoom removes the caller. The room is omitted when leaving emptied
// and deleted it.
func LeaveRoom(mgr *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity(c)
		if !ok {
			return
		}
		room, err := mgr.LeaveRoom(c.Request.Context(), c.Param("id"), id.UserID)
		if err != nil {
			respondError(c, err, "Failed to leave room")
			return
		}
		if room == nil {
			c.JSON(http.StatusOK, gin.H{"success": true, "message": "Room deleted"})
			return
		}
		respondRoom(c, http.StatusOK, room)
	}
}

// ToggleReady flips the caller's ready flag
func ToggleReady(mgr *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity(c)
		if !ok {
			return
		}
		room, err := mgr.SetReady(c.Request.Context(), c.Param("id"), id.UserID)
		if err != nil {
			respondError(c, err, "Failed to update ready state")
			return
		}
		respondRoom(c, http.StatusOK, room)
	}
}

func StartGame(mgr *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity(c)
		if !ok {
			return
		}
		room, err := mgr.StartGame(c.Request.Context(), c.Param("id"), id.UserID)
		if err != nil {
			respondError(c, err, "Failed to start game")
			return
		}
		respondRoom(c, http.StatusOK, room)
	}
}

func DeleteRoom(mgr *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity(c)
		if !ok {
			return
		}
		if _, err := mgr.DeleteRoom(c.Request.Context(), c.Param("id"), id.UserID); err != nil {
			respondError(c, err, "Failed to delete room")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Room deleted"})
	}
}
