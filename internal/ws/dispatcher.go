package ws

import (
	"context"
	"log"
	"time"

	"github.com/citymemory/backend/internal/game"
	"github.com/citymemory/backend/internal/models"
)

// Rooms is the part of the game manager the push channel drives
type Rooms interface {
	WatchRoom(ctx context.Context, id, userID string, fn func(room *models.Room)) error
	FlipCard(ctx context.Context, id, userID string, cardIndex int) (*models.Room, game.FlipOutcome, error)
	EndTurn(ctx context.Context, id, userID string) (*models.Room, error)
}

// Dispatcher routes decoded client messages into the game
type Dispatcher struct {
	hub   *Hub
	rooms Rooms
}

func NewDispatcher(hub *Hub, rooms Rooms) *Dispatcher {
	return &Dispatcher{hub: hub, rooms: rooms}
}

// Handle decodes raw and runs it for c. Failures go back to c only.
func (d *Dispatcher) Handle(ctx context.Context, c *Client, raw []byte) {
	msg, err := DecodeInbound(raw)
	if err != nil {
		d.hub.Send(c, game.ErrorEvent(err.Error(), time.Now().UTC()))
		return
	}
	msg.Accept(&session{ctx: ctx, d: d, c: c})
}

// session is the Visitor for one message from one connection
type session struct {
	ctx context.Context
	d   *Dispatcher
	c   *Client
}

func (s *session) VisitJoinRoom(m JoinRoom) {
	id := s.c.id
	var prev string
	err := s.d.rooms.WatchRoom(s.ctx, m.RoomID, id.UserID, func(room *models.Room) {
		prev = s.d.hub.JoinRoom(s.c, room.ID)
		now := time.Now().UTC()
		s.d.hub.Send(s.c, game.RoomStateEvent(room, now))
		s.d.hub.BroadcastToRoom(room.ID, game.PlayerJoinedEvent(id.UserID, id.Username, now))
	})
	if err != nil {
		s.fail(err)
		return
	}
	if prev != "" && prev != m.RoomID {
		s.d.hub.BroadcastToRoom(prev, game.PlayerLeftEvent(id.UserID, id.Username, time.Now().UTC()))
		log.Printf("[WS] %s left room channel %s", id.UserID, prev)
	}
	log.Printf("[WS] %s joined room channel %s", id.UserID, m.RoomID)
}

func (s *session) VisitFlipCard(m FlipCard) {
	roomID, ok := s.room()
	if !ok {
		return
	}
	if _, _, err := s.d.rooms.FlipCard(s.ctx, roomID, s.c.id.UserID, m.CardIndex); err != nil {
		s.fail(err)
	}
}

func (s *session) VisitEndTurn(EndTurn) {
	roomID, ok := s.room()
	if !ok {
		return
	}
	if _, err := s.d.rooms.EndTurn(s.ctx, roomID, s.c.id.UserID); err != nil {
		s.fail(err)
	}
}

func (s *session) room() (string, bool) {
	roomID := s.d.hub.RoomOf(s.c)
	if roomID == "" {
		s.d.hub.Send(s.c, game.ErrorEvent("Join a room first", time.Now().UTC()))
		return "", false
	}
	return roomID, true
}

// fail reports err to the connection. Infrastructure errors are logged
// and replaced with a generic message.
func (s *session) fail(err error) {
	msg := err.Error()
	if !game.IsDomain(err) {
		log.Printf("[WS] Action failed for %s: %v", s.c.id.UserID, err)
		msg = "Internal server error"
	}
	s.d.hub.Send(s.c, game.ErrorEvent(msg, time.Now().UTC()))
}
