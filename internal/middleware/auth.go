package middleware

import (
	"net/http"

	"github.com/citymemory/backend/internal/auth"
	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// Authenticate requires a valid bearer token and stores the identity in
// the gin context. The token may also come from the token query parameter,
// which is how browsers authenticate WebSocket upgrades.
func Authenticate(tokens *auth.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.BearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token = c.Query("token")
		}
		id, err := tokens.Parse(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "User not authenticated"})
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// Identity returns the identity set by Authenticate
func Identity(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}
