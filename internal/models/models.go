package models

import (
	"time"
)

// RoomStatus is the lifecycle state of a room
type RoomStatus string

const (
	StatusWaiting  RoomStatus = "waiting"
	StatusPlaying  RoomStatus = "playing"
	StatusFinished RoomStatus = "finished"
)

// Player is a member of a room. Order in Room.Players is turn order.
type Player struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Score    int    `json:"score"`
	IsReady  bool   `json:"isReady"`
	IsHost   bool   `json:"isHost"`
}

// Settings are fixed when the room is created
type Settings struct {
	Language  string `json:"language"`
	CardCount int    `json:"cardCount"`
	IsPrivate bool   `json:"isPrivate"`
}

// Card is one position on the board. City is the matching key.
type Card struct {
	ID      int    `json:"id"`
	City    string `json:"city"`
	Label   string `json:"label,omitempty"`
	Flipped bool   `json:"flipped"`
	Matched bool   `json:"matched"`
}

// LastMove records the most recent flip
type LastMove struct {
	UserID    string    `json:"userId"`
	CardIndex int       `json:"cardIndex"`
	CardID    int       `json:"cardId"`
	Timestamp time.Time `json:"timestamp"`
}

// GameState exists once the room has left StatusWaiting
type GameState struct {
	Cards          []Card    `json:"cards"`
	CurrentTurn    string    `json:"currentTurn"`
	FlippedCards   []int     `json:"flippedCards"`
	MatchedPairs   int       `json:"matchedPairs"`
	IsGameComplete bool      `json:"isGameComplete"`
	LastMove       *LastMove `json:"lastMove"`
}

// TotalPairs is the number of pairs on the board
func (gs *GameState) TotalPairs() int {
	return len(gs.Cards) / 2
}

// Room is the aggregate root persisted by the room store
type Room struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Host       string     `json:"host"`
	Players    []Player   `json:"players"`
	MaxPlayers int        `json:"maxPlayers"`
	Status     RoomStatus `json:"status"`
	Settings   Settings   `json:"settings"`
	GameState  *GameState `json:"gameState,omitempty"`
	Version    int64      `json:"version"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// RoomSummary is the list view of a room
type RoomSummary struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Host        string     `json:"host"`
	Players     []Player   `json:"players"`
	PlayerCount int        `json:"playerCount"`
	MaxPlayers  int        `json:"maxPlayers"`
	Status      RoomStatus `json:"status"`
	Settings    Settings   `json:"settings"`
	CreatedAt   time.Time  `json:"createdAt"`
	IsFull      bool       `json:"isFull"`
}

// IsFull reports whether the room has reached MaxPlayers
func (r *Room) IsFull() bool {
	return len(r.Players) >= r.MaxPlayers
}

// PlayerIndex returns the position of userID in Players, or -1
func (r *Room) PlayerIndex(userID string) int {
	for i := range r.Players {
		if r.Players[i].UserID == userID {
			return i
		}
	}
	return -1
}

// HasPlayer reports whether userID is on the roster
func (r *Room) HasPlayer(userID string) bool {
	return r.PlayerIndex(userID) >= 0
}

// PlayerIDs returns the roster user ids in turn order
func (r *Room) PlayerIDs() []string {
	ids := make([]string, 0, len(r.Players))
	for _, p := range r.Players {
		ids = append(ids, p.UserID)
	}
	return ids
}

// Summary builds the list view of the room
func (r *Room) Summary() RoomSummary {
	players := make([]Player, len(r.Players))
	copy(players, r.Players)
	return RoomSummary{
		ID:          r.ID,
		Name:        r.Name,
		Host:        r.Host,
		Players:     players,
		PlayerCount: len(r.Players),
		MaxPlayers:  r.MaxPlayers,
		Status:      r.Status,
		Settings:    r.Settings,
		CreatedAt:   r.CreatedAt,
		IsFull:      r.IsFull(),
	}
}

// Clone returns a deep copy so callers can mutate without aliasing
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	c := *r
	c.Players = make([]Player, len(r.Players))
	copy(c.Players, r.Players)
	c.GameState = r.GameState.Clone()
	return &c
}

// Clone returns a deep copy of the game state
func (gs *GameState) Clone() *GameState {
	if gs == nil {
		return nil
	}
	c := *gs
	c.Cards = make([]Card, len(gs.Cards))
	copy(c.Cards, gs.Cards)
	c.FlippedCards = make([]int, len(gs.FlippedCards))
	copy(c.FlippedCards, gs.FlippedCards)
	if gs.LastMove != nil {
		lm := *gs.LastMove
		c.LastMove = &lm
	}
	return &c
}

// Public returns the snapshot sent to clients. Cities of face-down cards
// are blanked so the board cannot be read before it is played.
func (r *Room) Public() *Room {
	c := r.Clone()
	if c == nil || c.GameState == nil {
		return c
	}
	for i := range c.GameState.Cards {
		card := &c.GameState.Cards[i]
		if !card.Flipped && !card.Matched {
			card.City = ""
			card.Label = ""
		}
	}
	return c
}
