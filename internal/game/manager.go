package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/citymemory/backend/internal/models"
	"github.com/citymemory/backend/internal/store"
	"github.com/google/uuid"
)

// Options tunes a Manager. Zero values fall back to the defaults below.
type Options struct {
	TurnSwitchDelay  time.Duration
	DefaultCardCount int
	Shuffler         Shuffler
	Now              func() time.Time
	NewID            func() string
}

const (
	DefaultTurnSwitchDelay = 2 * time.Second
	DefaultCardCount       = 12

	// timerOpTimeout bounds store calls made from timer and janitor goroutines
	timerOpTimeout = 5 * time.Second
)

// Manager owns room lifecycle and game flow. Every mutation of a room runs
// under that room's lock: load, mutate a private copy, persist the touched
// fields, then broadcast before releasing, so events for one room leave in
// the order they were produced.
type Manager struct {
	store  store.Store
	bc     Broadcaster
	opts   Options
	locks  *roomLocks
	timers *turnTimers
}

// NewManager wires a manager to its store and broadcaster
func NewManager(s store.Store, bc Broadcaster, opts Options) *Manager {
	if opts.TurnSwitchDelay <= 0 {
		opts.TurnSwitchDelay = DefaultTurnSwitchDelay
	}
	if opts.DefaultCardCount == 0 {
		opts.DefaultCardCount = DefaultCardCount
	}
	if opts.Shuffler == nil {
		opts.Shuffler = FisherYates
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return "room_" + uuid.NewString() }
	}
	return &Manager{
		store:  s,
		bc:     bc,
		opts:   opts,
		locks:  newRoomLocks(),
		timers: newTurnTimers(),
	}
}

// Close stops every pending turn timer
func (m *Manager) Close() {
	m.timers.stopAll()
}

func (m *Manager) now() time.Time {
	return m.opts.Now().UTC()
}

// CreateRoom validates p and stores a new waiting room hosted by the creator
func (m *Manager) CreateRoom(ctx context.Context, p CreateParams) (*models.Room, error) {
	if p.CardCount == 0 {
		p.CardCount = m.opts.DefaultCardCount
	}
	now := m.now()
	room, err := NewRoom(m.opts.NewID(), p, now)
	if err != nil {
		return nil, err
	}
	room.Version = 1
	if err := m.store.Put(ctx, room); err != nil {
		return nil, fmt.Errorf("put room: %w", err)
	}
	log.Printf("[ROOM] Room %s created by %s (max=%d cards=%d lang=%s)", room.ID, p.CreatorID, room.MaxPlayers, room.Settings.CardCount, room.Settings.Language)
	return room, nil
}

// GetRoom returns the stored room
func (m *Manager) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	room, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	return room, nil
}

// WatchRoom runs fn with the room while holding its lock, so whatever fn
// sends is ordered with the room's own events. Only players may watch.
func (m *Manager) WatchRoom(ctx context.Context, id, userID string, fn func(room *models.Room)) error {
	unlock := m.locks.Lock(id)
	defer unlock()

	room, err := m.load(ctx, id)
	if err != nil {
		return err
	}
	if !room.HasPlayer(userID) {
		return ErrNotRoomMember
	}
	fn(room)
	return nil
}

// ListAvailable returns public waiting rooms that still have a free seat,
// newest first
func (m *Manager) ListAvailable(ctx context.Context) ([]*models.Room, error) {
	rooms, err := m.store.ListWaiting(ctx)
	if err != nil {
		return nil, fmt.Errorf("list waiting rooms: %w", err)
	}
	out := make([]*models.Room, 0, len(rooms))
	for _, r := range rooms {
		if !r.IsFull() && !r.Settings.IsPrivate {
			out = append(out, r)
		}
	}
	return out, nil
}

// ListAll returns every room, newest first
func (m *Manager) ListAll(ctx context.Context) ([]*models.Room, error) {
	rooms, err := m.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// JoinRoom adds userID to the room. Joining a room you are already in
// returns it unchanged.
func (m *Manager) JoinRoom(ctx context.Context, id, userID, username string) (*models.Room, error) {
	unlock := m.locks.Lock(id)
	defer unlock()

	room, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	now := m.now()
	joined, err := AddPlayer(room, userID, username, now)
	if err != nil {
		return nil, err
	}
	if !joined {
		return room, nil
	}
	if err := m.save(ctx, room, now, store.FieldPlayers); err != nil {
		return nil, err
	}
	log.Printf("[ROOM] %s joined room %s (%d/%d)", userID, id, len(room.Players), room.MaxPlayers)
	m.bc.BroadcastToUsers(room.PlayerIDs(), RoomUpdatedEvent(room, now))
	return room, nil
}

// LeaveRoom removes userID from a waiting room. The returned room is nil
// when the last player left and the room was deleted.
func (m *Manager) LeaveRoom(ctx context.Context, id, userID string) (*models.Room, error) {
	unlock := m.locks.Lock(id)
	defer unlock()

	room, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	now := m.now()
	out, err := RemovePlayer(room, userID, now)
	if err != nil {
		return nil, err
	}

	if out.Empty {
		if _, err := m.store.Delete(ctx, id); err != nil {
			return nil, fmt.Errorf("delete empty room: %w", err)
		}
		m.timers.cancel(id)
		log.Printf("[ROOM] Room %s deleted after last player %s left", id, userID)
		m.bc.BroadcastToRoom(id, RoomDeletedEvent(id, now))
		return nil, nil
	}

	if out.Removed {
		if err := m.save(ctx, room, now, store.FieldPlayers, store.FieldHost); err != nil {
			return nil, err
		}
		if out.NewHost != "" {
			log.Printf("[ROOM] Host of room %s passed from %s to %s", id, userID, out.NewHost)
		}
	}

	m.bc.BroadcastToRoom(id, PlayerLeftEvent(out.Player.UserID, out.Player.Username, now))
	if out.Removed {
		m.bc.BroadcastToUsers(room.PlayerIDs(), RoomUpdatedEvent(room, now))
	}
	return room, nil
}

// SetReady toggles the ready flag of userID
func (m *Manager) SetReady(ctx context.Context, id, userID string) (*models.Room, error) {
	unlock := m.locks.Lock(id)
	defer unlock()

	room, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	now := m.now()
	ready, err := ToggleReady(room, userID, now)
	if err != nil {
		return nil, err
	}
	if err := m.save(ctx, room, now, store.FieldPlayers); err != nil {
		return nil, err
	}
	m.bc.BroadcastToRoom(id, PlayerReadyEvent(room, userID, ready, now))
	m.bc.BroadcastToUsers(room.PlayerIDs(), RoomUpdatedEvent(room, now))
	return room, nil
}

// StartGame deals the board. Only the host may start.
func (m *Manager) StartGame(ctx context.Context, id, userID string) (*models.Room, error) {
	unlock := m.locks.Lock(id)
	defer unlock()

	room, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	now := m.now()
	if err := StartGame(room, userID, m.opts.Shuffler, now); err != nil {
		return nil, err
	}
	if err := m.save(ctx, room, now, store.FieldStatus, store.FieldGameState, store.FieldPlayers); err != nil {
		return nil, err
	}
	log.Printf("[GAME] Room %s started with %d players, first turn %s", id, len(room.Players), room.GameState.CurrentTurn)
	m.bc.BroadcastToUsers(room.PlayerIDs(), GameStartedEvent(room, now))
	return room, nil
}

// FlipCard plays one card for userID. A NO_MATCH schedules the turn
// advance after the configured delay.
func (m *Manager) FlipCard(ctx context.Context, id, userID string, cardIndex int) (*models.Room, FlipOutcome, error) {
	unlock := m.locks.Lock(id)
	defer unlock()

	room, err := m.load(ctx, id)
	if err != nil {
		return nil, FlipOutcome{}, err
	}
	err = m.supersede(ctx, room, func(next *models.Room) error {
		_, err := FlipCard(next, userID, cardIndex, m.now())
		return err
	})
	if err != nil {
		return nil, FlipOutcome{}, err
	}
	now := m.now()
	out, err := FlipCard(room, userID, cardIndex, now)
	if err != nil {
		return nil, FlipOutcome{}, err
	}
	if err := m.save(ctx, room, now, store.FieldGameState, store.FieldPlayers, store.FieldStatus); err != nil {
		return nil, FlipOutcome{}, err
	}

	m.bc.BroadcastToRoom(id, GameUpdateEvent(room, userID, out, now))
	switch out.Result {
	case ResultMatch:
		m.bc.BroadcastToRoom(id, CardMatchedEvent(room, userID, now))
		if out.Completed {
			log.Printf("[GAME] Room %s finished, winners %v", id, Winners(room))
			m.bc.BroadcastToRoom(id, GameOverEvent(room, now))
		}
	case ResultNoMatch:
		m.timers.schedule(id, m.opts.TurnSwitchDelay, func(gen uint64) {
			m.onTurnTimer(id, gen)
		})
	}
	return room, out, nil
}

// EndTurn passes the turn on. Only the player holding the turn when the
// call arrives may end it; while that player's NO_MATCH advance is pending
// the explicit call replaces it, so the turn moves once.
func (m *Manager) EndTurn(ctx context.Context, id, userID string) (*models.Room, error) {
	unlock := m.locks.Lock(id)
	defer unlock()

	room, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if room.Status != models.StatusPlaying || room.GameState == nil {
		return nil, ErrGameNotInProgress
	}
	if room.GameState.CurrentTurn != userID {
		return nil, ErrNotYourTurn
	}
	m.timers.cancel(id)
	if err := m.advance(ctx, room, ReasonEndTurn); err != nil {
		return nil, err
	}
	return room, nil
}

// DeleteRoom removes the room. Only the host may delete it.
func (m *Manager) DeleteRoom(ctx context.Context, id, userID string) (bool, error) {
	unlock := m.locks.Lock(id)
	defer unlock()

	room, err := m.store.Get(ctx, id)
	if err != nil {
		return false, storeErr(err)
	}
	if err := CheckDelete(room, userID); err != nil {
		return false, err
	}
	ok, err := m.store.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete room: %w", err)
	}
	m.timers.cancel(id)
	log.Printf("[ROOM] Room %s deleted by host %s", id, userID)
	m.notifyDeleted(room, m.now())
	return ok, nil
}

// RoomDeleted reacts to a room removed outside this process: timers are
// dropped and connected clients are told the room is gone.
func (m *Manager) RoomDeleted(roomID string) {
	unlock := m.locks.Lock(roomID)
	defer unlock()

	m.timers.cancel(roomID)
	m.bc.BroadcastToRoom(roomID, RoomDeletedEvent(roomID, m.now()))
}

// HasPendingTurn reports whether a NO_MATCH advance is scheduled for roomID
func (m *Manager) HasPendingTurn(roomID string) bool {
	return m.timers.has(roomID)
}

func (m *Manager) notifyDeleted(room *models.Room, now time.Time) {
	ev := RoomDeletedEvent(room.ID, now)
	m.bc.BroadcastToRoom(room.ID, ev)
	m.bc.BroadcastToUsers(room.PlayerIDs(), ev)
}

// load reads the room. Callers hold the room lock.
func (m *Manager) load(ctx context.Context, id string) (*models.Room, error) {
	room, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	return room, nil
}

// supersede applies a pending NO_MATCH advance early, but only when the
// action in try succeeds on the advanced board. A rejected action leaves
// the room and its timer untouched. Callers hold the room lock.
func (m *Manager) supersede(ctx context.Context, room *models.Room, try func(next *models.Room) error) error {
	if room.Status != models.StatusPlaying || !m.timers.has(room.ID) {
		return nil
	}
	next := room.Clone()
	if _, err := EndTurn(next, m.now()); err != nil {
		return err
	}
	if err := try(next); err != nil {
		return err
	}
	m.timers.cancel(room.ID)
	return m.advance(ctx, room, ReasonNoMatch)
}

// advance ends the current turn, persists it and announces it.
// Callers hold the room lock.
func (m *Manager) advance(ctx context.Context, room *models.Room, reason string) error {
	now := m.now()
	change, err := EndTurn(room, now)
	if err != nil {
		return err
	}
	if err := m.save(ctx, room, now, store.FieldGameState); err != nil {
		return err
	}
	m.bc.BroadcastToRoom(room.ID, TurnChangedEvent(room, change, reason, now))
	return nil
}

func (m *Manager) save(ctx context.Context, room *models.Room, now time.Time, fields ...store.Field) error {
	room.Version++
	room.UpdatedAt = now
	if err := m.store.Update(ctx, room, fields...); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrRoomNotFound
		}
		return fmt.Errorf("update room %s: %w", room.ID, err)
	}
	return nil
}

// onTurnTimer runs the delayed NO_MATCH advance
func (m *Manager) onTurnTimer(roomID string, gen uint64) {
	unlock := m.locks.Lock(roomID)
	defer unlock()

	if !m.timers.claim(roomID, gen) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), timerOpTimeout)
	defer cancel()

	room, err := m.store.Get(ctx, roomID)
	if errors.Is(err, store.ErrNotFound) {
		return
	}
	if err != nil {
		log.Printf("[GAME] Turn timer for room %s could not load room: %v", roomID, err)
		return
	}
	if room.Status != models.StatusPlaying {
		return
	}
	if err := m.advance(ctx, room, ReasonNoMatch); err != nil {
		log.Printf("[GAME] Turn timer for room %s failed: %v", roomID, err)
	}
}

func storeErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrRoomNotFound
	}
	return fmt.Errorf("load room: %w", err)
}
