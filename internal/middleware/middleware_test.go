package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/citymemory/backend/internal/auth"
	"github.com/citymemory/backend/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func identityRouter(tokens *auth.Tokens) *gin.Engine {
	r := gin.New()
	r.GET("/me", Authenticate(tokens), func(c *gin.Context) {
		id, ok := Identity(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, id)
	})
	return r
}

func TestAuthenticateHeaderAndQuery(t *testing.T) {
	tokens := auth.NewTokens("secret", time.Hour)
	tok, _, err := tokens.Issue(auth.Identity{UserID: "u1", Username: "Ana"})
	require.NoError(t, err)
	r := identityRouter(tokens)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userId":"u1","username":"Ana"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me?token="+tok, nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthenticateRejects(t *testing.T) {
	r := identityRouter(auth.NewTokens("secret", time.Hour))

	for _, header := range []string{"", "Bearer nope", "Basic abc"} {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
		assert.JSONEq(t, `{"success":false,"error":"User not authenticated"}`, w.Body.String())
	}
}

func TestAllowedOrigins(t *testing.T) {
	dev := &config.Config{Environment: "development", FrontendURL: "http://localhost:5173"}
	assert.Equal(t, []string{"http://localhost:5173", "http://127.0.0.1:5173"}, AllowedOrigins(dev))

	prod := &config.Config{Environment: "production", FrontendURL: "https://memory.example.com"}
	assert.Equal(t, []string{"https://memory.example.com"}, AllowedOrigins(prod))
}

func TestWebSocketCORSCheck(t *testing.T) {
	prod := &config.Config{Environment: "production", FrontendURL: "https://memory.example.com"}
	r := gin.New()
	r.GET("/ws", WebSocketCORSCheck(prod), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	cases := map[string]int{
		"":                           http.StatusNoContent,
		"https://memory.example.com": http.StatusNoContent,
		"https://evil.example.com":   http.StatusForbidden,
		"http://localhost:3000":      http.StatusForbidden,
	}
	for origin, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		req.Header.Set("Connection", "Upgrade")
		req.Header.Set("Upgrade", "websocket")
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, "origin %q", origin)
	}
}
