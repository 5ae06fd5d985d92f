package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/citymemory/backend/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	assert.NoError(t, (&Config{storeDriver: "redis", redisURL: "redis://localhost:6379"}).validate())
	assert.NoError(t, (&Config{storeDriver: "postgres", databaseURL: "postgres://localhost/db"}).validate())
	assert.Error(t, (&Config{storeDriver: "redis"}).validate())
	assert.Error(t, (&Config{storeDriver: "postgres"}).validate())
	assert.Error(t, (&Config{storeDriver: "memory"}).validate())
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")

	cfg := &Config{}
	cmd := newCmd(cfg)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"token", "--user-id", "u1", "--username", "Una", "--token-ttl", "1h"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "from-env", cfg.jwtSecret)
	id, err := auth.NewTokens("from-env", time.Hour).Parse(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, auth.Identity{UserID: "u1", Username: "Una"}, id)
}

func TestTokenCommandRequiresIdentity(t *testing.T) {
	cmd := newCmd(&Config{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"token", "--user-id", "u1"})
	assert.Error(t, cmd.Execute())
}

func TestRoomsCommandsValidateFirst(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	t.Setenv("STORE_DRIVER", "")
	cmd := newCmd(&Config{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"rooms", "list", "--store", "redis"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--redis-url")
}
