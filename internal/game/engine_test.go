package game

import (
	"fmt"
	"testing"
	"time"

	"github.com/citymemory/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 5, 4, 10, 0, 0, 0, time.UTC)

// waitingRoom builds a room with n players where every guest is ready
func waitingRoom(t *testing.T, n, cardCount int) *models.Room {
	t.Helper()
	room, err := NewRoom("room_test", CreateParams{
		Name:        "Test",
		MaxPlayers:  4,
		Language:    "en",
		CardCount:   cardCount,
		CreatorID:   "p0",
		CreatorName: "Player 0",
	}, t0)
	require.NoError(t, err)
	for i := 1; i < n; i++ {
		id := fmt.Sprintf("p%d", i)
		_, err := AddPlayer(room, id, "Player "+id, t0)
		require.NoError(t, err)
		_, err = ToggleReady(room, id, t0)
		require.NoError(t, err)
	}
	return room
}

// startedRoom deals an unshuffled board: pairs sit side by side
func startedRoom(t *testing.T, n, cardCount int) *models.Room {
	t.Helper()
	room := waitingRoom(t, n, cardCount)
	require.NoError(t, StartGame(room, "p0", nil, t0))
	return room
}

func flip(t *testing.T, room *models.Room, user string, idx int) FlipOutcome {
	t.Helper()
	out, err := FlipCard(room, user, idx, t0)
	require.NoError(t, err)
	return out
}

func TestScenarioNoMatchThenEndTurn(t *testing.T) {
	room := startedRoom(t, 2, 4)
	gs := room.GameState

	assert.Equal(t, models.StatusPlaying, room.Status)
	assert.Equal(t, "p0", gs.CurrentTurn)
	assert.Equal(t, gs.Cards[0].City, gs.Cards[1].City)
	assert.Equal(t, gs.Cards[2].City, gs.Cards[3].City)
	assert.NotEqual(t, gs.Cards[0].City, gs.Cards[2].City)

	assert.Equal(t, ResultFlippedOne, flip(t, room, "p0", 0).Result)
	assert.Equal(t, []int{0}, gs.FlippedCards)

	out := flip(t, room, "p0", 2)
	assert.Equal(t, ResultNoMatch, out.Result)
	assert.Equal(t, []int{0, 2}, out.Pair)
	assert.Empty(t, gs.FlippedCards)
	assert.True(t, gs.Cards[0].Flipped)
	assert.True(t, gs.Cards[2].Flipped)
	assert.Equal(t, "p0", gs.CurrentTurn)

	change, err := EndTurn(room, t0)
	require.NoError(t, err)
	assert.Equal(t, TurnChange{Previous: "p0", Next: "p1"}, change)
	assert.Equal(t, "p1", gs.CurrentTurn)
	assert.False(t, gs.Cards[0].Flipped)
	assert.False(t, gs.Cards[2].Flipped)
}

func TestScenarioMatchKeepsTurn(t *testing.T) {
	room := startedRoom(t, 2, 4)
	flip(t, room, "p0", 0)
	flip(t, room, "p0", 2)
	_, err := EndTurn(room, t0)
	require.NoError(t, err)

	flip(t, room, "p1", 0)
	out := flip(t, room, "p1", 1)

	gs := room.GameState
	assert.Equal(t, ResultMatch, out.Result)
	assert.Equal(t, 1, gs.MatchedPairs)
	assert.Equal(t, 1, room.Players[1].Score)
	assert.Equal(t, 0, room.Players[0].Score)
	assert.Equal(t, "p1", gs.CurrentTurn)
	assert.True(t, gs.Cards[0].Matched && gs.Cards[0].Flipped)
	assert.True(t, gs.Cards[1].Matched && gs.Cards[1].Flipped)
	assert.False(t, out.Completed)
}

func TestFlipWhileWaiting(t *testing.T) {
	room := waitingRoom(t, 2, 4)
	_, err := FlipCard(room, "p0", 0, t0)
	assert.ErrorIs(t, err, ErrGameNotInProgress)
	assert.Equal(t, KindInvalidState, KindOf(err))
	assert.Equal(t, "Game is not in progress", err.Error())
}

func TestNonHostCannotStart(t *testing.T) {
	room := waitingRoom(t, 2, 4)
	err := StartGame(room, "p1", nil, t0)
	assert.ErrorIs(t, err, ErrOnlyHostCanStart)
	assert.Equal(t, KindForbidden, KindOf(err))
	assert.Equal(t, "Only host can start the game", err.Error())
	assert.Equal(t, models.StatusWaiting, room.Status)
	assert.Nil(t, room.GameState)
}

func TestStartPreconditionOrder(t *testing.T) {
	t.Run("not enough players", func(t *testing.T) {
		room := waitingRoom(t, 1, 4)
		assert.ErrorIs(t, StartGame(room, "p0", nil, t0), ErrNotEnoughPlayers)
	})
	t.Run("guest not ready", func(t *testing.T) {
		room := waitingRoom(t, 3, 4)
		_, err := ToggleReady(room, "p2", t0)
		require.NoError(t, err)
		assert.ErrorIs(t, StartGame(room, "p0", nil, t0), ErrPlayersNotReady)
	})
	t.Run("host check wins over readiness", func(t *testing.T) {
		room := waitingRoom(t, 1, 4)
		assert.ErrorIs(t, StartGame(room, "p1", nil, t0), ErrOnlyHostCanStart)
	})
	t.Run("already started", func(t *testing.T) {
		room := startedRoom(t, 2, 4)
		assert.ErrorIs(t, StartGame(room, "p0", nil, t0), ErrGameAlreadyActive)
	})
}

func TestFlipRejections(t *testing.T) {
	room := startedRoom(t, 2, 4)

	_, err := FlipCard(room, "p1", 0, t0)
	assert.ErrorIs(t, err, ErrNotYourTurn)

	for _, idx := range []int{-1, 4, 100} {
		_, err = FlipCard(room, "p0", idx, t0)
		assert.ErrorIs(t, err, ErrInvalidCard, "index %d", idx)
	}

	flip(t, room, "p0", 0)
	before := room.Clone()
	_, err = FlipCard(room, "p0", 0, t0)
	assert.ErrorIs(t, err, ErrInvalidCard)
	assert.Equal(t, before, room, "rejected flip must not mutate the room")

	flip(t, room, "p0", 1)
	_, err = FlipCard(room, "p0", 1, t0)
	assert.ErrorIs(t, err, ErrInvalidCard, "matched card cannot be flipped")
}

func TestCompletionFinishesGame(t *testing.T) {
	room := startedRoom(t, 2, 4)
	flip(t, room, "p0", 0)
	assert.False(t, flip(t, room, "p0", 1).Completed)
	flip(t, room, "p0", 2)
	out := flip(t, room, "p0", 3)

	assert.True(t, out.Completed)
	assert.True(t, room.GameState.IsGameComplete)
	assert.Equal(t, room.GameState.TotalPairs(), room.GameState.MatchedPairs)
	assert.Equal(t, models.StatusFinished, room.Status)
	assert.Equal(t, []string{"p0"}, Winners(room))

	_, err := FlipCard(room, "p0", 0, t0)
	assert.ErrorIs(t, err, ErrGameNotInProgress)
	_, err = EndTurn(room, t0)
	assert.ErrorIs(t, err, ErrGameNotInProgress)
}

func TestTurnRotationIsCyclic(t *testing.T) {
	for n := 2; n <= 4; n++ {
		room := startedRoom(t, n, 8)
		for k := 1; k <= 2*n+1; k++ {
			_, err := EndTurn(room, t0)
			require.NoError(t, err)
			assert.Equal(t, room.Players[k%n].UserID, room.GameState.CurrentTurn, "n=%d k=%d", n, k)
		}
	}
}

func TestEndTurnToleratesStaleCurrentTurn(t *testing.T) {
	room := startedRoom(t, 3, 4)
	room.GameState.CurrentTurn = "gone"

	change, err := EndTurn(room, t0)
	require.NoError(t, err)
	assert.Equal(t, "gone", change.Previous)
	assert.Equal(t, "p0", change.Next)
}

func TestMatchIsOrderIndependent(t *testing.T) {
	base := startedRoom(t, 2, 8)
	n := len(base.GameState.Cards)
	for a := 0; a < n; a++ {
		for b := 0; b < n; b++ {
			if a == b {
				continue
			}
			ab := base.Clone()
			flip(t, ab, "p0", a)
			r1 := flip(t, ab, "p0", b).Result

			ba := base.Clone()
			flip(t, ba, "p0", b)
			r2 := flip(t, ba, "p0", a).Result

			assert.Equal(t, r1, r2, "a=%d b=%d", a, b)
			want := ResultNoMatch
			if base.GameState.Cards[a].City == base.GameState.Cards[b].City {
				want = ResultMatch
			}
			assert.Equal(t, want, r1)
		}
	}
}

func TestScoreIsMonotonic(t *testing.T) {
	room := waitingRoom(t, 2, 12)
	require.NoError(t, StartGame(room, "p0", FisherYates, t0))

	prev := map[string]int{}
	for turn := 0; !room.GameState.IsGameComplete; turn++ {
		cur := room.GameState.CurrentTurn
		a, b := pickPair(room.GameState.Cards, turn%2 == 0)
		flip(t, room, cur, a)
		out := flip(t, room, cur, b)

		for _, p := range room.Players {
			delta := p.Score - prev[p.UserID]
			if p.UserID == cur && out.Result == ResultMatch {
				assert.Equal(t, 1, delta)
			} else {
				assert.Zero(t, delta)
			}
			prev[p.UserID] = p.Score
		}
		if out.Result == ResultNoMatch {
			_, err := EndTurn(room, t0)
			require.NoError(t, err)
		}
	}
	assert.Equal(t, 6, room.Players[0].Score+room.Players[1].Score)
}

func TestStartResetsScores(t *testing.T) {
	room := waitingRoom(t, 2, 4)
	room.Players[1].Score = 7
	require.NoError(t, StartGame(room, "p0", nil, t0))
	assert.Zero(t, room.Players[1].Score)
	assert.NotNil(t, room.GameState.FlippedCards)
}

func TestWinnersTie(t *testing.T) {
	room := startedRoom(t, 3, 4)
	room.Players[0].Score = 1
	room.Players[2].Score = 1
	assert.Equal(t, []string{"p0", "p2"}, Winners(room))
}

// pickPair returns the first unmatched card and either its twin or, when
// miss is set and one exists, a card that does not match it
func pickPair(cards []models.Card, miss bool) (int, int) {
	first, twin, other := -1, -1, -1
	for i, c := range cards {
		switch {
		case c.Matched:
		case first < 0:
			first = i
		case c.City == cards[first].City:
			twin = i
		case other < 0:
			other = i
		}
	}
	if miss && other >= 0 {
		return first, other
	}
	return first, twin
}
