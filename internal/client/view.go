package client

import (
	"sync"

	"github.com/citymemory/backend/internal/game"
	"github.com/citymemory/backend/internal/models"
)

// View is the local copy of one room. The server snapshot is the only
// authority; optimistic flips are layered on top until the next snapshot
// replaces them.
type View struct {
	mu        sync.Mutex
	userID    string
	room      *models.Room
	predicted []int
	render    func(*models.Room)
}

// NewView creates a view for userID. render, if set, is called with the
// displayed room after every change.
func NewView(userID string, render func(*models.Room)) *View {
	return &View{userID: userID, render: render}
}

// Room returns the displayed room: the last snapshot plus pending
// predictions
func (v *View) Room() *models.Room {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.displayed()
}

// Version is the version of the last accepted snapshot
func (v *View) Version() int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.room == nil {
		return 0
	}
	return v.room.Version
}

// Pending returns the card indices flipped locally but not yet confirmed
func (v *View) Pending() []int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]int(nil), v.predicted...)
}

// PredictFlip shows cardIndex face up before the server answers. It runs
// the same checks the server does so an obviously illegal flip is never
// shown.
func (v *View) PredictFlip(cardIndex int) error {
	v.mu.Lock()
	shown := v.displayed()
	if shown == nil {
		v.mu.Unlock()
		return game.ErrRoomNotFound
	}
	if shown.GameState != nil && len(shown.GameState.FlippedCards) >= 2 {
		v.mu.Unlock()
		return game.ErrInvalidCard
	}
	if _, err := game.FlipCard(shown, v.userID, cardIndex, shown.UpdatedAt); err != nil {
		v.mu.Unlock()
		return err
	}
	v.predicted = append(v.predicted, cardIndex)
	shown = v.displayed()
	v.mu.Unlock()

	v.draw(shown)
	return nil
}

// Reconcile adopts snapshot unless it is older than the current one. An
// accepted snapshot drops every prediction.
func (v *View) Reconcile(snapshot *models.Room) bool {
	if snapshot == nil {
		return false
	}
	v.mu.Lock()
	if v.room != nil && v.room.ID == snapshot.ID && snapshot.Version < v.room.Version {
		v.mu.Unlock()
		return false
	}
	v.room = snapshot.Clone()
	v.predicted = nil
	shown := v.displayed()
	v.mu.Unlock()

	v.draw(shown)
	return true
}

// Clear forgets the room, for example after ROOM_DELETED
func (v *View) Clear(roomID string) {
	v.mu.Lock()
	if v.room == nil || v.room.ID != roomID {
		v.mu.Unlock()
		return
	}
	v.room = nil
	v.predicted = nil
	v.mu.Unlock()

	v.draw(nil)
}

// displayed overlays predictions on a copy of the snapshot. Caller holds mu.
func (v *View) displayed() *models.Room {
	if v.room == nil {
		return nil
	}
	shown := v.room.Clone()
	if shown.GameState == nil {
		return shown
	}
	for _, i := range v.predicted {
		if i >= 0 && i < len(shown.GameState.Cards) {
			shown.GameState.Cards[i].Flipped = true
			shown.GameState.FlippedCards = append(shown.GameState.FlippedCards, i)
		}
	}
	return shown
}

func (v *View) draw(room *models.Room) {
	if v.render != nil {
		v.render(room)
	}
}

// snapshot returns a copy of the last accepted snapshot without predictions
func (v *View) snapshot() *models.Room {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.room.Clone()
}
