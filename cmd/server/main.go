package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/citymemory/backend/internal/api"
	"github.com/citymemory/backend/internal/auth"
	"github.com/citymemory/backend/internal/config"
	"github.com/citymemory/backend/internal/database"
	"github.com/citymemory/backend/internal/game"
	"github.com/citymemory/backend/internal/migrations"
	"github.com/citymemory/backend/internal/redis"
	"github.com/citymemory/backend/internal/store"
	"github.com/citymemory/backend/internal/ws"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
)

const janitorInterval = time.Minute

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis backs the redis store and the room event channel
	var rdb *goredis.Client
	if cfg.RedisURL != "" {
		client, err := redis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer client.Close()
		rdb = client
	}

	rooms, closeStore, err := openStore(ctx, cfg, rdb)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.StoreDriver, err)
	}
	defer closeStore()

	hub := ws.NewHub()
	go hub.Run(ctx)

	mgr := game.NewManager(rooms, hub, game.Options{
		TurnSwitchDelay:  cfg.TurnSwitchDelay(),
		DefaultCardCount: cfg.DefaultCardCount,
	})
	defer mgr.Close()

	mgr.StartJanitor(ctx, cfg.RoomExpiry(), janitorInterval)
	ws.StartRoomEventSubscriber(ctx, rdb, mgr.RoomDeleted)

	// Set up Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	api.SetupRoutes(ctx, router, api.Deps{
		Config:  cfg,
		Manager: mgr,
		Tokens:  auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL()),
		Hub:     hub,
	})

	port := cfg.Port
	if port == "" {
		port = "8080"
	}
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Starting City Memory server on port %s (store=%s)", port, cfg.StoreDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}

// openStore builds the room store selected by STORE_DRIVER
func openStore(ctx context.Context, cfg *config.Config, rdb *goredis.Client) (store.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		log.Println("[STORE] Using in-memory room store; rooms are lost on restart")
		return store.NewMemoryStore(), func() {}, nil

	case config.StoreRedis:
		if rdb == nil {
			return nil, nil, errors.New("REDIS_URL is required")
		}
		log.Println("[STORE] Using Redis room store")
		return store.NewRedisStore(rdb), func() {}, nil

	case config.StorePostgres:
		if cfg.MigrateOnStart {
			log.Println("↗ Running DB migrations on startup...")
			if err := migrations.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
				return nil, nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		db, err := database.Connect(ctx, cfg.DatabaseURL, database.DefaultPool)
		if err != nil {
			return nil, nil, err
		}
		log.Println("[STORE] Using Postgres room store")
		return store.NewPostgresStore(db), func() { db.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}
