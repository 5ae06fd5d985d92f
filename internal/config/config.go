package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

type Config struct {
	// Environment
	Environment string

	// Server
	Port        string
	FrontendURL string

	// Storage
	StoreDriver    string
	DatabaseURL    string
	MigrateOnStart bool
	MigrationsDir  string
	RedisURL       string

	// Security
	JWTSecret       string
	TokenTTLMinutes int

	// Game Settings
	TurnSwitchDelayMs int
	DefaultCardCount  int
	RoomExpiryMinutes int

	// WebSocket
	WSPingIntervalSecs int
	WSPongWaitSecs     int
	WSSendBuffer       int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Storage
		StoreDriver:    getEnv("STORE_DRIVER", StoreMemory),
		DatabaseURL:    getEnv("DATABASE_URL", "postgres://localhost:5432/citymemory?sslmode=disable"),
		MigrateOnStart: getEnv("MIGRATE_ON_START", "false") == "true",
		MigrationsDir:  getEnv("MIGRATIONS_DIR", "migrations"),
		RedisURL:       getEnv("REDIS_URL", ""),

		// Security
		JWTSecret:       getEnv("JWT_SECRET", "change-me-in-production"),
		TokenTTLMinutes: getEnvInt("TOKEN_TTL_MINUTES", 1440),

		// Game Settings
		TurnSwitchDelayMs: getEnvInt("TURN_SWITCH_DELAY_MS", 2000),
		DefaultCardCount:  getEnvInt("DEFAULT_CARD_COUNT", 12),
		RoomExpiryMinutes: getEnvInt("ROOM_EXPIRY_MINUTES", 0),

		// WebSocket
		WSPingIntervalSecs: getEnvInt("WS_PING_INTERVAL_SECONDS", 30),
		WSPongWaitSecs:     getEnvInt("WS_PONG_WAIT_SECONDS", 60),
		WSSendBuffer:       getEnvInt("WS_SEND_BUFFER", 256),
	}

	// The redis store needs a server even when REDIS_URL is unset
	if cfg.StoreDriver == StoreRedis && cfg.RedisURL == "" {
		cfg.RedisURL = "redis://localhost:6379/0"
	}

	return cfg
}

// IsProduction reports whether APP_ENV is production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// TurnSwitchDelay is the grace period before a missed pair is turned back
func (c *Config) TurnSwitchDelay() time.Duration {
	return time.Duration(c.TurnSwitchDelayMs) * time.Millisecond
}

// TokenTTL is the lifetime of issued identity tokens
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLMinutes) * time.Minute
}

// RoomExpiry is the janitor TTL for finished rooms; zero disables it
func (c *Config) RoomExpiry() time.Duration {
	return time.Duration(c.RoomExpiryMinutes) * time.Minute
}

// PingInterval is how often the hub probes each connection
func (c *Config) PingInterval() time.Duration {
	return time.Duration(c.WSPingIntervalSecs) * time.Second
}

// PongWait is the window a peer has to answer a probe
func (c *Config) PongWait() time.Duration {
	return time.Duration(c.WSPongWaitSecs) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
