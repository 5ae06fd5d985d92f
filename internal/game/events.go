package game

import (
	"time"

	"github.com/citymemory/backend/internal/models"
)

// EventType names a server-to-client push message
type EventType string

const (
	EventRoomState    EventType = "ROOM_STATE"
	EventPlayerJoined EventType = "PLAYER_JOINED"
	EventPlayerLeft   EventType = "PLAYER_LEFT"
	EventGameUpdate   EventType = "GAME_UPDATE"
	EventTurnChanged  EventType = "TURN_CHANGED"
	EventCardMatched  EventType = "CARD_MATCHED"
	EventError        EventType = "ERROR"
	EventRoomUpdated  EventType = "ROOM_UPDATED"
	EventPlayerReady  EventType = "PLAYER_READY"
	EventGameStarted  EventType = "GAME_STARTED"
	EventGameOver     EventType = "GAME_OVER"
	EventRoomDeleted  EventType = "ROOM_DELETED"
)

// Turn change reasons
const (
	ReasonNoMatch = "NO_MATCH"
	ReasonEndTurn = "END_TURN"
)

// Event is the envelope of every push message
type Event struct {
	Type      EventType `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Broadcaster delivers events to live connections. Delivery is best effort
// and must not block the caller.
type Broadcaster interface {
	BroadcastToRoom(roomID string, ev Event)
	BroadcastToUsers(userIDs []string, ev Event)
}

// RoomPayload carries a masked room snapshot
type RoomPayload struct {
	Room *models.Room `json:"room"`
}

// PlayerPayload identifies a player in presence events
type PlayerPayload struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// ReadyPayload is sent when a player toggles ready
type ReadyPayload struct {
	Room    *models.Room `json:"room"`
	UserID  string       `json:"userId"`
	IsReady bool         `json:"isReady"`
}

// GameUpdatePayload is sent after every accepted flip
type GameUpdatePayload struct {
	Room        *models.Room `json:"room"`
	Action      string       `json:"action"`
	PlayerID    string       `json:"playerId"`
	CardIndex   int          `json:"cardIndex"`
	MatchResult MatchResult  `json:"matchResult"`
}

// TurnChangedPayload is sent after every turn advance
type TurnChangedPayload struct {
	Room             *models.Room `json:"room"`
	PreviousPlayerID string       `json:"previousPlayerId"`
	NewPlayerID      string       `json:"newPlayerId"`
	Reason           string       `json:"reason"`
}

// CardMatchedPayload rewards a player for a pair
type CardMatchedPayload struct {
	Room     *models.Room `json:"room"`
	PlayerID string       `json:"playerId"`
	Points   int          `json:"points"`
}

// GameOverPayload closes a game
type GameOverPayload struct {
	Room      *models.Room `json:"room"`
	WinnerIDs []string     `json:"winnerIds"`
}

// RoomDeletedPayload tells clients a room is gone
type RoomDeletedPayload struct {
	RoomID string `json:"roomId"`
}

// ErrorPayload is sent only to the originating connection
type ErrorPayload struct {
	Error string `json:"error"`
}

func newEvent(t EventType, data any, now time.Time) Event {
	return Event{Type: t, Data: data, Timestamp: now}
}

func RoomStateEvent(room *models.Room, now time.Time) Event {
	return newEvent(EventRoomState, RoomPayload{Room: room.Public()}, now)
}

func RoomUpdatedEvent(room *models.Room, now time.Time) Event {
	return newEvent(EventRoomUpdated, RoomPayload{Room: room.Public()}, now)
}

func GameStartedEvent(room *models.Room, now time.Time) Event {
	return newEvent(EventGameStarted, RoomPayload{Room: room.Public()}, now)
}

func PlayerJoinedEvent(userID, username string, now time.Time) Event {
	return newEvent(EventPlayerJoined, PlayerPayload{UserID: userID, Username: username}, now)
}

func PlayerLeftEvent(userID, username string, now time.Time) Event {
	return newEvent(EventPlayerLeft, PlayerPayload{UserID: userID, Username: username}, now)
}

func PlayerReadyEvent(room *models.Room, userID string, ready bool, now time.Time) Event {
	return newEvent(EventPlayerReady, ReadyPayload{Room: room.Public(), UserID: userID, IsReady: ready}, now)
}

func GameUpdateEvent(room *models.Room, playerID string, out FlipOutcome, now time.Time) Event {
	return newEvent(EventGameUpdate, GameUpdatePayload{
		Room:        room.Public(),
		Action:      "FLIP_CARD",
		PlayerID:    playerID,
		CardIndex:   out.CardIndex,
		MatchResult: out.Result,
	}, now)
}

func TurnChangedEvent(room *models.Room, change TurnChange, reason string, now time.Time) Event {
	return newEvent(EventTurnChanged, TurnChangedPayload{
		Room:             room.Public(),
		PreviousPlayerID: change.Previous,
		NewPlayerID:      change.Next,
		Reason:           reason,
	}, now)
}

func CardMatchedEvent(room *models.Room, playerID string, now time.Time) Event {
	return newEvent(EventCardMatched, CardMatchedPayload{Room: room.Public(), PlayerID: playerID, Points: 1}, now)
}

func GameOverEvent(room *models.Room, now time.Time) Event {
	return newEvent(EventGameOver, GameOverPayload{Room: room.Public(), WinnerIDs: Winners(room)}, now)
}

func RoomDeletedEvent(roomID string, now time.Time) Event {
	return newEvent(EventRoomDeleted, RoomDeletedPayload{RoomID: roomID}, now)
}

func ErrorEvent(msg string, now time.Time) Event {
	return newEvent(EventError, ErrorPayload{Error: msg}, now)
}
