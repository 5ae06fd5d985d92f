package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/citymemory/backend/internal/auth"
	"github.com/gin-gonic/gin"
)

// IssueToken signs an identity token for the posted user. Player accounts
// live outside this service, so the route is only mounted outside
// production.
func IssueToken(tokens *auth.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			UserID   string `json:"userId"`
			Username string `json:"username"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
			return
		}
		id := auth.Identity{UserID: strings.TrimSpace(req.UserID), Username: strings.TrimSpace(req.Username)}
		if id.UserID == "" || id.Username == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "userId and username are required"})
			return
		}

		token, exp, err := tokens.Issue(id)
		if err != nil {
			log.Printf("[AUTH] Failed to issue token for %s: %v", id.UserID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to issue token"})
			return
		}
		log.Printf("[AUTH] Issued dev token for %s", id.UserID)

		resp := gin.H{"success": true, "token": token, "user": id}
		if !exp.IsZero() {
			resp["expiresAt"] = exp
		}
		c.JSON(http.StatusOK, resp)
	}
}
