package api

import (
	"context"
	"log"

	"github.com/citymemory/backend/internal/api/handlers"
	"github.com/citymemory/backend/internal/auth"
	"github.com/citymemory/backend/internal/config"
	"github.com/citymemory/backend/internal/game"
	"github.com/citymemory/backend/internal/middleware"
	"github.com/citymemory/backend/internal/ws"
	"github.com/gin-gonic/gin"
)

// Deps are the services the routes are bound to
type Deps struct {
	Config  *config.Config
	Manager *game.Manager
	Tokens  *auth.Tokens
	Hub     *ws.Hub
}

// SetupRoutes configures all API routes. ctx bounds the lifetime of push
// connections.
func SetupRoutes(ctx context.Context, router *gin.Engine, d Deps) {
	cfg := d.Config
	router.Use(middleware.CORSMiddleware(cfg))

	if !cfg.IsProduction() {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		log.Println("[DEV MODE] No-cache headers enabled for all routes")
	}

	authed := middleware.Authenticate(d.Tokens)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)
		v1.GET("/config", handlers.GetConfig(cfg))

		if !cfg.IsProduction() {
			v1.POST("/auth/token", handlers.IssueToken(d.Tokens))
		}

		rooms := v1.Group("/rooms", authed)
		{
			rooms.GET("/available", handlers.GetAvailableRooms(d.Manager))
			rooms.GET("/list", handlers.ListRooms(d.Manager))
			rooms.GET("/:id", handlers.GetRoom(d.Manager))
			rooms.GET("/:id/invite.png", handlers.RoomInviteQR(d.Manager, cfg.FrontendURL))
			rooms.POST("", handlers.CreateRoom(d.Manager))
			rooms.POST("/:id/join", handlers.JoinRoom(d.Manager))
			rooms.POST("/:id/leave", handlers.LeaveRoom(d.Manager))
			rooms.POST("/:id/ready", handlers.ToggleReady(d.Manager))
			rooms.POST("/:id/start", handlers.StartGame(d.Manager))
			rooms.POST("/:id/action", handlers.PerformAction(d.Manager))
			rooms.DELETE("/:id", handlers.DeleteRoom(d.Manager))
		}
	}

	pump := ws.PumpOptions{
		PingInterval: cfg.PingInterval(),
		PongWait:     cfg.PongWait(),
		SendBuffer:   cfg.WSSendBuffer,
	}
	router.GET("/ws",
		middleware.WebSocketCORSCheck(cfg),
		authed,
		ws.Handler(ctx, d.Hub, ws.NewDispatcher(d.Hub, d.Manager), pump),
	)
}
