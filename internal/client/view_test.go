package client

import (
	"testing"
	"time"

	"github.com/citymemory/backend/internal/game"
	"github.com/citymemory/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(version int64, turn string) *models.Room {
	cards := make([]models.Card, 4)
	for i := range cards {
		cards[i].ID = i
	}
	return &models.Room{
		ID:      "room_1",
		Host:    "alice",
		Status:  models.StatusPlaying,
		Version: version,
		Players: []models.Player{{UserID: "alice", IsHost: true, IsReady: true}, {UserID: "bob", IsReady: true}},
		GameState: &models.GameState{
			Cards:        cards,
			CurrentTurn:  turn,
			FlippedCards: []int{},
		},
		UpdatedAt: time.Now(),
	}
}

func TestReconcileKeepsNewest(t *testing.T) {
	var renders []int64
	v := NewView("alice", func(r *models.Room) { renders = append(renders, r.Version) })

	assert.True(t, v.Reconcile(snapshot(3, "alice")))
	assert.False(t, v.Reconcile(snapshot(2, "bob")), "older snapshot")
	assert.Equal(t, "alice", v.Room().GameState.CurrentTurn)

	assert.True(t, v.Reconcile(snapshot(3, "alice")))
	assert.True(t, v.Reconcile(snapshot(5, "bob")))
	assert.Equal(t, int64(5), v.Version())
	assert.Equal(t, []int64{3, 3, 5}, renders)
	assert.False(t, v.Reconcile(nil))
}

func TestPredictFlip(t *testing.T) {
	v := NewView("alice", nil)
	require.ErrorIs(t, v.PredictFlip(0), game.ErrRoomNotFound)

	v.Reconcile(snapshot(1, "alice"))
	require.NoError(t, v.PredictFlip(0))
	assert.True(t, v.Room().GameState.Cards[0].Flipped)
	assert.Equal(t, []int{0}, v.Pending())

	assert.ErrorIs(t, v.PredictFlip(0), game.ErrInvalidCard, "already face up")
	assert.ErrorIs(t, v.PredictFlip(9), game.ErrInvalidCard)
	require.NoError(t, v.PredictFlip(1))
	assert.ErrorIs(t, v.PredictFlip(2), game.ErrInvalidCard, "two cards are up")

	// the authoritative snapshot replaces every prediction
	next := snapshot(2, "alice")
	next.GameState.Cards[0].Flipped = true
	assert.True(t, v.Reconcile(next))
	assert.Empty(t, v.Pending())
	assert.True(t, v.Room().GameState.Cards[0].Flipped)
	assert.False(t, v.Room().GameState.Cards[1].Flipped)
}

func TestPredictFlipOutOfTurn(t *testing.T) {
	v := NewView("bob", nil)
	v.Reconcile(snapshot(1, "alice"))
	assert.ErrorIs(t, v.PredictFlip(0), game.ErrNotYourTurn)
	assert.Empty(t, v.Pending())
}

func TestPredictionDoesNotTouchSnapshot(t *testing.T) {
	v := NewView("alice", nil)
	v.Reconcile(snapshot(1, "alice"))
	require.NoError(t, v.PredictFlip(2))
	assert.False(t, v.snapshot().GameState.Cards[2].Flipped)
}

func TestClear(t *testing.T) {
	cleared := false
	v := NewView("alice", func(r *models.Room) { cleared = r == nil })
	v.Reconcile(snapshot(1, "alice"))

	v.Clear("room_other")
	assert.NotNil(t, v.Room())
	v.Clear("room_1")
	assert.Nil(t, v.Room())
	assert.True(t, cleared)
	assert.Zero(t, v.Version())
}
