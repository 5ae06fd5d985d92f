package game

import (
	"time"

	"github.com/citymemory/backend/internal/models"
)

// MatchResult is the outcome of a single flip
type MatchResult string

const (
	ResultFlippedOne MatchResult = "FLIPPED_ONE"
	ResultMatch      MatchResult = "MATCH"
	ResultNoMatch    MatchResult = "NO_MATCH"
)

// FlipOutcome describes what a flip did to the board
type FlipOutcome struct {
	Result    MatchResult
	CardIndex int
	Pair      []int // both indices on MATCH / NO_MATCH
	Completed bool
}

// TurnChange describes a turn advance
type TurnChange struct {
	Previous string
	Next     string
}

// StartGame deals the board and moves the room to StatusPlaying. The
// room is left untouched when any precondition fails.
func StartGame(room *models.Room, requesterID string, shuffle Shuffler, now time.Time) error {
	if room.Host != requesterID {
		return ErrOnlyHostCanStart
	}
	if len(room.Players) < 2 {
		return ErrNotEnoughPlayers
	}
	for _, p := range room.Players {
		if !p.IsHost && !p.IsReady {
			return ErrPlayersNotReady
		}
	}
	if room.Status != models.StatusWaiting {
		return ErrGameAlreadyActive
	}

	cards, err := BuildDeck(room.Settings.Language, room.Settings.CardCount, shuffle)
	if err != nil {
		return err
	}

	for i := range room.Players {
		room.Players[i].Score = 0
	}
	room.GameState = &models.GameState{
		Cards:        cards,
		CurrentTurn:  room.Players[0].UserID,
		FlippedCards: []int{},
		MatchedPairs: 0,
	}
	room.Status = models.StatusPlaying
	room.UpdatedAt = now
	return nil
}

// FlipCard turns card cardIndex face up for userID and resolves the pair
// once two cards are up. The room is left untouched on error.
func FlipCard(room *models.Room, userID string, cardIndex int, now time.Time) (FlipOutcome, error) {
	if room.Status != models.StatusPlaying || room.GameState == nil {
		return FlipOutcome{}, ErrGameNotInProgress
	}
	gs := room.GameState
	if gs.CurrentTurn != userID {
		return FlipOutcome{}, ErrNotYourTurn
	}
	if cardIndex < 0 || cardIndex >= len(gs.Cards) {
		return FlipOutcome{}, ErrInvalidCard
	}
	if c := gs.Cards[cardIndex]; c.Flipped || c.Matched {
		return FlipOutcome{}, ErrInvalidCard
	}
	gs.Cards[cardIndex].Flipped = true
	gs.FlippedCards = append(gs.FlippedCards, cardIndex)
	gs.LastMove = &models.LastMove{
		UserID:    userID,
		CardIndex: cardIndex,
		CardID:    gs.Cards[cardIndex].ID,
		Timestamp: now,
	}
	room.UpdatedAt = now

	out := FlipOutcome{CardIndex: cardIndex}
	if len(gs.FlippedCards) < 2 {
		out.Result = ResultFlippedOne
		return out, nil
	}

	first, second := gs.FlippedCards[0], gs.FlippedCards[1]
	out.Pair = []int{first, second}
	gs.FlippedCards = []int{}

	if gs.Cards[first].City != gs.Cards[second].City {
		// both stay face up until the turn ends
		out.Result = ResultNoMatch
		return out, nil
	}

	gs.Cards[first].Matched = true
	gs.Cards[second].Matched = true
	if i := room.PlayerIndex(userID); i >= 0 {
		room.Players[i].Score++
	}
	gs.MatchedPairs = countMatched(gs.Cards) / 2
	if gs.MatchedPairs == gs.TotalPairs() {
		gs.IsGameComplete = true
		room.Status = models.StatusFinished
		out.Completed = true
	}
	out.Result = ResultMatch
	return out, nil
}

// EndTurn hands the turn to the next player in roster order and turns
// every unmatched card back face down.
func EndTurn(room *models.Room, now time.Time) (TurnChange, error) {
	if room.Status != models.StatusPlaying || room.GameState == nil {
		return TurnChange{}, ErrGameNotInProgress
	}
	if len(room.Players) == 0 {
		return TurnChange{}, ErrPlayerNotInRoom
	}
	gs := room.GameState

	// an unknown current player (stale roster) restarts rotation at 0
	cur := room.PlayerIndex(gs.CurrentTurn)
	next := (cur + 1) % len(room.Players)

	change := TurnChange{Previous: gs.CurrentTurn, Next: room.Players[next].UserID}
	gs.CurrentTurn = change.Next
	for i := range gs.Cards {
		if gs.Cards[i].Flipped && !gs.Cards[i].Matched {
			gs.Cards[i].Flipped = false
		}
	}
	gs.FlippedCards = []int{}
	room.UpdatedAt = now
	return change, nil
}

// Winners returns the user ids holding the top score
func Winners(room *models.Room) []string {
	best := -1
	var ids []string
	for _, p := range room.Players {
		switch {
		case p.Score > best:
			best = p.Score
			ids = []string{p.UserID}
		case p.Score == best:
			ids = append(ids, p.UserID)
		}
	}
	return ids
}

func countMatched(cards []models.Card) int {
	n := 0
	for _, c := range cards {
		if c.Matched {
			n++
		}
	}
	return n
}
