package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/citymemory/backend/internal/game"
)

// Hub is the registry of live connections. Connections are indexed by
// user and, once they send JOIN_ROOM, by room.
type Hub struct {
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}
	users   map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates an empty hub. Run must be started before clients connect.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		rooms:      make(map[string]map[*Client]struct{}),
		users:      make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes registrations until ctx is done, then closes every client
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			addTo(h.users, c.id.UserID, c)
			h.mu.Unlock()
			log.Printf("[WS] %s connected (%d live)", c.id.UserID, h.Count())

		case c := <-h.unregister:
			h.remove(c)

		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				c.shutdown()
			}
			h.mu.Unlock()
			log.Println("[WS] Hub stopped")
			return
		}
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	removeFrom(h.users, c.id.UserID, c)
	roomID := c.roomID
	if roomID != "" {
		removeFrom(h.rooms, roomID, c)
	}
	close(c.send)
	h.mu.Unlock()

	log.Printf("[WS] %s disconnected", c.id.UserID)
	if roomID != "" {
		h.BroadcastToRoom(roomID, game.PlayerLeftEvent(c.id.UserID, c.id.Username, c.now()))
	}
}

// Register adds c to the hub. It reports false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes c and closes its send queue
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// JoinRoom tags c with roomID, replacing any previous room tag. It returns
// the room c was tagged with before, or "".
func (h *Hub) JoinRoom(c *Client, roomID string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return ""
	}
	prev := c.roomID
	if prev != "" {
		removeFrom(h.rooms, prev, c)
	}
	c.roomID = roomID
	addTo(h.rooms, roomID, c)
	return prev
}

// RoomOf returns the room c joined, if any
func (h *Hub) RoomOf(c *Client) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return c.roomID
}

// BroadcastToRoom sends ev to every connection tagged with roomID
func (h *Hub) BroadcastToRoom(roomID string, ev game.Event) {
	data, ok := encode(ev)
	if !ok {
		return
	}
	h.mu.RLock()
	var slow []*Client
	for c := range h.rooms[roomID] {
		if !c.offer(data) {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()
	h.dropSlow(slow)
}

// BroadcastToUsers sends ev to every connection of the given users,
// whatever room they are in
func (h *Hub) BroadcastToUsers(userIDs []string, ev game.Event) {
	data, ok := encode(ev)
	if !ok {
		return
	}
	h.mu.RLock()
	var slow []*Client
	for _, id := range userIDs {
		for c := range h.users[id] {
			if !c.offer(data) {
				slow = append(slow, c)
			}
		}
	}
	h.mu.RUnlock()
	h.dropSlow(slow)
}

// Send delivers ev to a single connection
func (h *Hub) Send(c *Client, ev game.Event) {
	data, ok := encode(ev)
	if !ok {
		return
	}
	h.mu.RLock()
	_, live := h.clients[c]
	delivered := live && c.offer(data)
	h.mu.RUnlock()
	if live && !delivered {
		h.dropSlow([]*Client{c})
	}
}

// Count returns the number of live connections
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomSize returns the number of connections tagged with roomID
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// dropSlow closes connections whose queue is full. The read pump then
// unregisters them; the client has to re-fetch state after reconnecting.
func (h *Hub) dropSlow(slow []*Client) {
	for _, c := range slow {
		log.Printf("[WS] Send buffer full for %s; closing connection", c.id.UserID)
		c.shutdown()
	}
}

func encode(ev game.Event) ([]byte, bool) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[WS] Error marshaling %s event: %v", ev.Type, err)
		return nil, false
	}
	return data, true
}

func addTo(index map[string]map[*Client]struct{}, key string, c *Client) {
	set, ok := index[key]
	if !ok {
		set = make(map[*Client]struct{})
		index[key] = set
	}
	set[c] = struct{}{}
}

func removeFrom(index map[string]map[*Client]struct{}, key string, c *Client) {
	set, ok := index[key]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(index, key)
	}
}
