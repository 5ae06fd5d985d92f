package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/citymemory/backend/internal/auth"
	"github.com/citymemory/backend/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(cancel)
	return h
}

func connect(t *testing.T, h *Hub, user string, buf int) *Client {
	t.Helper()
	c := newClient(h, nil, auth.Identity{UserID: user, Username: "User " + user}, PumpOptions{SendBuffer: buf})
	require.True(t, h.Register(c))
	require.Eventually(t, func() bool {
		h.mu.RLock()
		defer h.mu.RUnlock()
		_, ok := h.clients[c]
		return ok
	}, time.Second, time.Millisecond)
	return c
}

func receive(t *testing.T, c *Client) game.Event {
	t.Helper()
	select {
	case data := <-c.send:
		var env struct {
			Type game.EventType  `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		require.NoError(t, json.Unmarshal(data, &env))
		return game.Event{Type: env.Type, Data: env.Data}
	case <-time.After(time.Second):
		t.Fatal("no message")
		return game.Event{}
	}
}

func assertSilent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("unexpected message %s", data)
	default:
	}
}

func TestBroadcastToRoomReachesOnlyTaggedConnections(t *testing.T) {
	h := runHub(t)
	a := connect(t, h, "a", 8)
	b := connect(t, h, "b", 8)
	other := connect(t, h, "c", 8)

	h.JoinRoom(a, "r1")
	h.JoinRoom(b, "r1")
	h.JoinRoom(other, "r2")
	assert.Equal(t, 2, h.RoomSize("r1"))

	h.BroadcastToRoom("r1", game.RoomDeletedEvent("r1", time.Now()))
	assert.Equal(t, game.EventRoomDeleted, receive(t, a).Type)
	assert.Equal(t, game.EventRoomDeleted, receive(t, b).Type)
	assertSilent(t, other)
}

func TestBroadcastToUsersIgnoresRoomTag(t *testing.T) {
	h := runHub(t)
	tab1 := connect(t, h, "a", 8)
	tab2 := connect(t, h, "a", 8)
	h.JoinRoom(tab1, "r1")
	b := connect(t, h, "b", 8)

	h.BroadcastToUsers([]string{"a"}, game.ErrorEvent("hello", time.Now()))
	assert.Equal(t, game.EventError, receive(t, tab1).Type)
	assert.Equal(t, game.EventError, receive(t, tab2).Type)
	assertSilent(t, b)
}

func TestRoomBroadcastKeepsOrder(t *testing.T) {
	h := runHub(t)
	a := connect(t, h, "a", 64)
	b := connect(t, h, "b", 64)
	h.JoinRoom(a, "r")
	h.JoinRoom(b, "r")

	for i := 0; i < 20; i++ {
		h.BroadcastToRoom("r", game.ErrorEvent(fmt.Sprint(i), time.Now()))
	}
	for _, c := range []*Client{a, b} {
		for i := 0; i < 20; i++ {
			ev := receive(t, c)
			var p game.ErrorPayload
			require.NoError(t, json.Unmarshal(ev.Data.(json.RawMessage), &p))
			assert.Equal(t, fmt.Sprint(i), p.Error)
		}
	}
}

func TestSlowConsumerIsDropped(t *testing.T) {
	h := runHub(t)
	slow := connect(t, h, "slow", 1)
	fast := connect(t, h, "fast", 8)
	h.JoinRoom(slow, "r")
	h.JoinRoom(fast, "r")

	h.BroadcastToRoom("r", game.ErrorEvent("1", time.Now()))
	h.BroadcastToRoom("r", game.ErrorEvent("2", time.Now()))

	select {
	case <-slow.closed:
	case <-time.After(time.Second):
		t.Fatal("slow client was not closed")
	}
	receive(t, fast)
	receive(t, fast)

	// what a read pump does once its socket is closed
	h.Unregister(slow)
	assert.Eventually(t, func() bool { return h.RoomSize("r") == 1 }, time.Second, time.Millisecond)
}

func TestUnregisterAnnouncesPresence(t *testing.T) {
	h := runHub(t)
	a := connect(t, h, "a", 8)
	b := connect(t, h, "b", 8)
	h.JoinRoom(a, "r")
	h.JoinRoom(b, "r")

	h.Unregister(a)
	ev := receive(t, b)
	assert.Equal(t, game.EventPlayerLeft, ev.Type)
	var p game.PlayerPayload
	require.NoError(t, json.Unmarshal(ev.Data.(json.RawMessage), &p))
	assert.Equal(t, "a", p.UserID)

	_, open := <-a.send
	assert.False(t, open, "send queue is closed")
	assert.Equal(t, 1, h.Count())
}

func TestJoinRoomMovesTag(t *testing.T) {
	h := runHub(t)
	a := connect(t, h, "a", 8)
	assert.Empty(t, h.JoinRoom(a, "r1"))
	assert.Equal(t, "r1", h.JoinRoom(a, "r2"))
	assert.Zero(t, h.RoomSize("r1"))
	assert.Equal(t, 1, h.RoomSize("r2"))
	assert.Equal(t, "r2", h.RoomOf(a))
}

func TestStoppedHubRefusesClients(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	c := newClient(h, nil, auth.Identity{UserID: "a", Username: "A"}, PumpOptions{})
	assert.False(t, h.Register(c))
	h.Unregister(c)
}
