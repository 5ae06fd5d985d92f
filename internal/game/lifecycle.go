package game

import (
	"strings"
	"time"

	"github.com/citymemory/backend/internal/models"
)

// Room size limits
const (
	MinPlayers = 2
	MaxPlayers = 4
)

// CreateParams is the input of room creation
type CreateParams struct {
	Name        string
	MaxPlayers  int
	Language    string
	IsPrivate   bool
	CardCount   int
	CreatorID   string
	CreatorName string
}

// Validate checks every required field before anything is persisted
func (p *CreateParams) Validate() error {
	if strings.TrimSpace(p.Name) == "" || p.MaxPlayers == 0 || p.Language == "" || p.CreatorID == "" || p.CreatorName == "" {
		return Validationf("Name, maxPlayers, language, userId, and username are required")
	}
	if p.MaxPlayers < MinPlayers || p.MaxPlayers > MaxPlayers {
		return Validationf("maxPlayers must be between %d and %d", MinPlayers, MaxPlayers)
	}
	if !IsValidLanguage(p.Language) {
		return Validationf("unsupported language %q", p.Language)
	}
	return ValidateCardCount(p.CardCount)
}

// NewRoom builds a waiting room with the creator as ready host
func NewRoom(id string, p CreateParams, now time.Time) (*models.Room, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &models.Room{
		ID:   id,
		Name: strings.TrimSpace(p.Name),
		Host: p.CreatorID,
		Players: []models.Player{{
			UserID:   p.CreatorID,
			Username: p.CreatorName,
			IsReady:  true,
			IsHost:   true,
		}},
		MaxPlayers: p.MaxPlayers,
		Status:     models.StatusWaiting,
		Settings: models.Settings{
			Language:  p.Language,
			CardCount: p.CardCount,
			IsPrivate: p.IsPrivate,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// AddPlayer appends a new non-host player. A user already on the roster
// is a rejoin: nothing changes and joined is false.
func AddPlayer(room *models.Room, userID, username string, now time.Time) (joined bool, err error) {
	if room.HasPlayer(userID) {
		return false, nil
	}
	if room.Status != models.StatusWaiting {
		return false, ErrRoomNotWaiting
	}
	if room.IsFull() {
		return false, ErrRoomFull
	}
	room.Players = append(room.Players, models.Player{
		UserID:   userID,
		Username: username,
	})
	room.UpdatedAt = now
	return true, nil
}

// LeaveOutcome reports what RemovePlayer changed
type LeaveOutcome struct {
	Player  models.Player
	Removed bool
	NewHost string
	Empty   bool
}

// RemovePlayer takes userID off the roster of a waiting room. A departing
// host hands over to the next player in join order. Once a game has
// started the roster is frozen and the player stays in the rotation.
func RemovePlayer(room *models.Room, userID string, now time.Time) (LeaveOutcome, error) {
	i := room.PlayerIndex(userID)
	if i < 0 {
		return LeaveOutcome{}, ErrPlayerNotInRoom
	}
	out := LeaveOutcome{Player: room.Players[i]}
	if room.Status != models.StatusWaiting {
		return out, nil
	}

	room.Players = append(room.Players[:i], room.Players[i+1:]...)
	out.Removed = true
	room.UpdatedAt = now

	if len(room.Players) == 0 {
		out.Empty = true
		return out, nil
	}
	if room.Host == userID {
		next := &room.Players[0]
		next.IsHost = true
		next.IsReady = true
		room.Host = next.UserID
		out.NewHost = next.UserID
	}
	return out, nil
}

// ToggleReady flips the ready flag of a non-host player. The host is
// always ready.
func ToggleReady(room *models.Room, userID string, now time.Time) (bool, error) {
	i := room.PlayerIndex(userID)
	if i < 0 {
		return false, ErrPlayerNotInRoom
	}
	if room.Status != models.StatusWaiting {
		return false, ErrGameAlreadyActive
	}
	p := &room.Players[i]
	if p.IsHost {
		p.IsReady = true
		return true, nil
	}
	p.IsReady = !p.IsReady
	room.UpdatedAt = now
	return p.IsReady, nil
}

// CheckDelete allows only the host to delete the room
func CheckDelete(room *models.Room, requesterID string) error {
	if room.Host != requesterID {
		return ErrOnlyHostCanDelete
	}
	return nil
}
