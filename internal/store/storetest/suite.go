// Package storetest holds the behaviour every store.Store must share.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/citymemory/backend/internal/models"
	"github.com/citymemory/backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty store for one subtest
type Factory func(t *testing.T) store.Store

// Run exercises s against the shared store contract
func Run(t *testing.T, newStore Factory) {
	t.Run("PutGet", func(t *testing.T) { testPutGet(t, newStore(t)) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, newStore(t)) })
	t.Run("ListOrder", func(t *testing.T) { testListOrder(t, newStore(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, newStore(t)) })
	t.Run("UpdateNamedFields", func(t *testing.T) { testUpdateNamedFields(t, newStore(t)) })
	t.Run("UpdateDisjointFields", func(t *testing.T) { testUpdateDisjointFields(t, newStore(t)) })
	t.Run("UpdateMissing", func(t *testing.T) { testUpdateMissing(t, newStore(t)) })
}

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// Room builds a waiting room created offset after a fixed instant
func Room(id string, offset time.Duration) *models.Room {
	at := base.Add(offset)
	return &models.Room{
		ID:   id,
		Name: "Room " + id,
		Host: "host-" + id,
		Players: []models.Player{
			{UserID: "host-" + id, Username: "Host", IsHost: true, IsReady: true},
		},
		MaxPlayers: 2,
		Status:     models.StatusWaiting,
		Settings:   models.Settings{Language: "en", CardCount: 4},
		Version:    1,
		CreatedAt:  at,
		UpdatedAt:  at,
	}
}

func testPutGet(t *testing.T, s store.Store) {
	ctx := context.Background()
	room := Room("a", 0)
	require.NoError(t, s.Put(ctx, room))

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, room.ID, got.ID)
	assert.Equal(t, room.Players, got.Players)
	assert.Equal(t, room.Settings, got.Settings)
	assert.True(t, room.CreatedAt.Equal(got.CreatedAt))
	assert.Nil(t, got.GameState)

	// the caller's copy is not shared with the store
	got.Players[0].Score = 99
	again, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Zero(t, again.Players[0].Score)
}

func testGetMissing(t *testing.T, s store.Store) {
	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testListOrder(t *testing.T, s store.Store) {
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Put(ctx, Room(fmt.Sprintf("r%d", i), time.Duration(i)*time.Minute)))
	}
	playing := Room("p", 10*time.Minute)
	playing.Status = models.StatusPlaying
	require.NoError(t, s.Put(ctx, playing))

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"p", "r2", "r1", "r0"}, ids(all))

	waiting, err := s.ListWaiting(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"r2", "r1", "r0"}, ids(waiting))
}

func testDelete(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, Room("a", 0)))

	ok, err := s.Delete(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Delete(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Get(ctx, "a")
	assert.ErrorIs(t, err, store.ErrNotFound)

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func testUpdateNamedFields(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, Room("a", 0)))

	local := Room("a", 0)
	local.Status = models.StatusPlaying
	local.GameState = &models.GameState{
		Cards:        []models.Card{{ID: 0, City: "paris"}, {ID: 1, City: "paris"}},
		CurrentTurn:  "host-a",
		FlippedCards: []int{},
	}
	local.Name = "renamed locally"
	local.Version = 2
	local.UpdatedAt = base.Add(time.Hour)
	require.NoError(t, s.Update(ctx, local, store.FieldStatus, store.FieldGameState))

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPlaying, got.Status)
	require.NotNil(t, got.GameState)
	assert.Equal(t, "host-a", got.GameState.CurrentTurn)
	assert.Len(t, got.GameState.Cards, 2)
	assert.Equal(t, int64(2), got.Version)
	assert.True(t, got.UpdatedAt.Equal(base.Add(time.Hour)))
	// name was not named, so it keeps the stored value
	assert.Equal(t, "Room a", got.Name)

	waiting, err := s.ListWaiting(ctx)
	require.NoError(t, err)
	assert.Empty(t, waiting)
}

func testUpdateDisjointFields(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, Room("a", 0)))

	// two writers start from the same snapshot and touch different fields
	w1, err := s.Get(ctx, "a")
	require.NoError(t, err)
	w2, err := s.Get(ctx, "a")
	require.NoError(t, err)

	w1.Players = append(w1.Players, models.Player{UserID: "guest", Username: "Guest"})
	w1.Version = 2
	require.NoError(t, s.Update(ctx, w1, store.FieldPlayers))

	w2.Host = "guest"
	w2.Version = 3
	require.NoError(t, s.Update(ctx, w2, store.FieldHost))

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, got.Players, 2)
	assert.Equal(t, "guest", got.Host)
	assert.Equal(t, int64(3), got.Version)
}

func testUpdateMissing(t *testing.T, s store.Store) {
	ctx := context.Background()
	err := s.Update(ctx, Room("ghost", 0), store.FieldPlayers)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// a failed update must not create the room
	_, err = s.Get(ctx, "ghost")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func ids(rooms []*models.Room) []string {
	out := make([]string, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.ID)
	}
	return out
}
