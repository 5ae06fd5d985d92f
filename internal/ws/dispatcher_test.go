package ws

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/citymemory/backend/internal/game"
	"github.com/citymemory/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRooms struct {
	room    *models.Room
	flipErr error
	flips   []int
	ends    int
	watches int
}

func (f *fakeRooms) WatchRoom(_ context.Context, id, userID string, fn func(*models.Room)) error {
	if f.room == nil || f.room.ID != id {
		return game.ErrRoomNotFound
	}
	if !f.room.HasPlayer(userID) {
		return game.ErrNotRoomMember
	}
	f.watches++
	fn(f.room)
	return nil
}

func (f *fakeRooms) FlipCard(_ context.Context, _, _ string, idx int) (*models.Room, game.FlipOutcome, error) {
	if f.flipErr != nil {
		return nil, game.FlipOutcome{}, f.flipErr
	}
	f.flips = append(f.flips, idx)
	return f.room, game.FlipOutcome{CardIndex: idx}, nil
}

func (f *fakeRooms) EndTurn(_ context.Context, _, _ string) (*models.Room, error) {
	f.ends++
	return f.room, nil
}

func errorText(t *testing.T, ev game.Event) string {
	t.Helper()
	require.Equal(t, game.EventError, ev.Type)
	var p game.ErrorPayload
	require.NoError(t, json.Unmarshal(ev.Data.(json.RawMessage), &p))
	return p.Error
}

func dispatcherFixture(t *testing.T) (*Hub, *Dispatcher, *fakeRooms) {
	h := runHub(t)
	rooms := &fakeRooms{room: &models.Room{
		ID:      "room_1",
		Host:    "a",
		Players: []models.Player{{UserID: "a", Username: "User a", IsHost: true, IsReady: true}, {UserID: "b", Username: "User b"}},
		Status:  models.StatusPlaying,
	}}
	return h, NewDispatcher(h, rooms), rooms
}

func TestJoinRoomSendsStateAndAnnounces(t *testing.T) {
	h, d, _ := dispatcherFixture(t)
	a := connect(t, h, "a", 8)
	b := connect(t, h, "b", 8)
	h.JoinRoom(b, "room_1")

	d.Handle(context.Background(), a, []byte(`{"type":"JOIN_ROOM","data":{"roomId":"room_1"}}`))

	assert.Equal(t, game.EventRoomState, receive(t, a).Type)
	assert.Equal(t, game.EventPlayerJoined, receive(t, a).Type)
	assert.Equal(t, game.EventPlayerJoined, receive(t, b).Type)
	assert.Equal(t, "room_1", h.RoomOf(a))
}

func TestJoinRoomSwitchAnnouncesLeave(t *testing.T) {
	h, d, rooms := dispatcherFixture(t)
	a := connect(t, h, "a", 8)
	old := connect(t, h, "c", 8)
	h.JoinRoom(a, "room_0")
	h.JoinRoom(old, "room_0")

	d.Handle(context.Background(), a, []byte(`{"type":"JOIN_ROOM","data":{"roomId":"room_1"}}`))

	ev := receive(t, old)
	require.Equal(t, game.EventPlayerLeft, ev.Type)
	var p game.PlayerPayload
	require.NoError(t, json.Unmarshal(ev.Data.(json.RawMessage), &p))
	assert.Equal(t, "a", p.UserID)
	assertSilent(t, old)
	assert.Equal(t, 1, h.RoomSize("room_0"))
	assert.Equal(t, "room_1", h.RoomOf(a))

	// rejoining the same room announces no leave
	assert.Equal(t, game.EventRoomState, receive(t, a).Type)
	assert.Equal(t, game.EventPlayerJoined, receive(t, a).Type)
	d.Handle(context.Background(), a, []byte(`{"type":"JOIN_ROOM","data":{"roomId":"room_1"}}`))
	assert.Equal(t, game.EventRoomState, receive(t, a).Type)
	assert.Equal(t, game.EventPlayerJoined, receive(t, a).Type)
	assertSilent(t, old)
	assert.Equal(t, 2, rooms.watches)
}

func TestJoinRoomRejectsStrangers(t *testing.T) {
	h, d, _ := dispatcherFixture(t)
	x := connect(t, h, "x", 8)

	d.Handle(context.Background(), x, []byte(`{"type":"JOIN_ROOM","data":{"roomId":"room_1"}}`))
	assert.Equal(t, game.ErrNotRoomMember.Error(), errorText(t, receive(t, x)))
	assert.Empty(t, h.RoomOf(x))

	d.Handle(context.Background(), x, []byte(`{"type":"JOIN_ROOM","data":{"roomId":"nope"}}`))
	assert.Equal(t, game.ErrRoomNotFound.Error(), errorText(t, receive(t, x)))
}

func TestActionsRequireJoinedRoom(t *testing.T) {
	h, d, rooms := dispatcherFixture(t)
	a := connect(t, h, "a", 8)

	d.Handle(context.Background(), a, []byte(`{"type":"FLIP_CARD","data":{"cardIndex":1}}`))
	assert.Equal(t, "Join a room first", errorText(t, receive(t, a)))
	assert.Empty(t, rooms.flips)

	h.JoinRoom(a, "room_1")
	d.Handle(context.Background(), a, []byte(`{"type":"FLIP_CARD","data":{"cardIndex":1}}`))
	d.Handle(context.Background(), a, []byte(`{"type":"END_TURN"}`))
	assert.Equal(t, []int{1}, rooms.flips)
	assert.Equal(t, 1, rooms.ends)
	assertSilent(t, a)
}

func TestFailuresGoToSenderOnly(t *testing.T) {
	h, d, rooms := dispatcherFixture(t)
	a := connect(t, h, "a", 8)
	b := connect(t, h, "b", 8)
	h.JoinRoom(a, "room_1")
	h.JoinRoom(b, "room_1")

	rooms.flipErr = game.ErrNotYourTurn
	d.Handle(context.Background(), a, []byte(`{"type":"FLIP_CARD","data":{"cardIndex":0}}`))
	assert.Equal(t, game.ErrNotYourTurn.Error(), errorText(t, receive(t, a)))

	rooms.flipErr = errors.New("connection refused")
	d.Handle(context.Background(), a, []byte(`{"type":"FLIP_CARD","data":{"cardIndex":0}}`))
	assert.Equal(t, "Internal server error", errorText(t, receive(t, a)))

	d.Handle(context.Background(), a, []byte(`{"type":"SHUFFLE"}`))
	assert.Equal(t, "Unknown message type: SHUFFLE", errorText(t, receive(t, a)))

	assertSilent(t, b)
}
