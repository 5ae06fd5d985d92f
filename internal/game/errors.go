package game

import (
	"errors"
	"fmt"
)

// Kind classifies an expected, recoverable failure
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindAuth
	KindForbidden
	KindNotFound
	KindInvalidState
	KindCapacity
	KindInsufficientPlayers
	KindNotReady
	KindNotYourTurn
	KindInvalidCard
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindAuth:
		return "AuthError"
	case KindForbidden:
		return "ForbiddenError"
	case KindNotFound:
		return "NotFoundError"
	case KindInvalidState:
		return "InvalidStateError"
	case KindCapacity:
		return "CapacityError"
	case KindInsufficientPlayers:
		return "InsufficientPlayersError"
	case KindNotReady:
		return "NotReadyError"
	case KindNotYourTurn:
		return "NotYourTurnError"
	case KindInvalidCard:
		return "InvalidCardError"
	default:
		return "UnknownError"
	}
}

// Error is a domain rule violation. Message is safe to show to clients.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Validationf builds a ValidationError with a formatted message
func Validationf(format string, args ...any) *Error {
	return newError(KindValidation, fmt.Sprintf(format, args...))
}

// Errors
var (
	ErrGameNotInProgress = newError(KindInvalidState, "Game is not in progress")
	ErrRoomNotWaiting    = newError(KindInvalidState, "Room is not accepting new players")
	ErrGameAlreadyActive = newError(KindInvalidState, "Game has already started")
	ErrNotYourTurn       = newError(KindNotYourTurn, "Not your turn")
	ErrInvalidCard       = newError(KindInvalidCard, "Invalid card")
	ErrOnlyHostCanStart  = newError(KindForbidden, "Only host can start the game")
	ErrOnlyHostCanDelete = newError(KindForbidden, "Only the host can delete the room")
	ErrNotRoomMember     = newError(KindForbidden, "You are not a member of this room")
	ErrRoomNotFound      = newError(KindNotFound, "Room not found")
	ErrPlayerNotInRoom   = newError(KindNotFound, "Player not in room")
	ErrRoomFull          = newError(KindCapacity, "Room is full")
	ErrNotEnoughPlayers  = newError(KindInsufficientPlayers, "Need at least 2 players to start")
	ErrPlayersNotReady   = newError(KindNotReady, "Not all players are ready")
	ErrUnauthenticated   = newError(KindAuth, "User not authenticated")
)

// KindOf returns the Kind of a domain error, or KindUnknown for anything else
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsDomain reports whether err is an expected domain failure
func IsDomain(err error) bool {
	return KindOf(err) != KindUnknown
}
