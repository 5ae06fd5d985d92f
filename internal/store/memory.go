package store

import (
	"context"
	"sort"
	"sync"

	"github.com/citymemory/backend/internal/models"
)

// MemoryStore keeps rooms in process memory. Rooms are cloned on the way
// in and out so callers never share memory with the store.
type MemoryStore struct {
	mu    sync.RWMutex
	rooms map[string]*models.Room
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rooms: make(map[string]*models.Room)}
}

func (s *MemoryStore) Put(_ context.Context, room *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.ID] = room.Clone()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r.Clone(), nil
}

func (s *MemoryStore) ListWaiting(ctx context.Context) ([]*models.Room, error) {
	return s.list(func(r *models.Room) bool { return r.Status == models.StatusWaiting }), nil
}

func (s *MemoryStore) ListAll(ctx context.Context) ([]*models.Room, error) {
	return s.list(func(*models.Room) bool { return true }), nil
}

func (s *MemoryStore) list(keep func(*models.Room) bool) []*models.Room {
	s.mu.RLock()
	out := make([]*models.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		if keep(r) {
			out = append(out, r.Clone())
		}
	}
	s.mu.RUnlock()
	sortNewestFirst(out)
	return out
}

func (s *MemoryStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[id]; !ok {
		return false, nil
	}
	delete(s.rooms, id)
	return true, nil
}

func (s *MemoryStore) Update(_ context.Context, room *models.Room, fields ...Field) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.rooms[room.ID]
	if !ok {
		return ErrNotFound
	}
	next := cur.Clone()
	if err := applyFields(next, room, fields); err != nil {
		return err
	}
	s.rooms[room.ID] = next
	return nil
}

// sortNewestFirst orders by creation time, newest first, id breaking ties
func sortNewestFirst(rooms []*models.Room) {
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].CreatedAt.Equal(rooms[j].CreatedAt) {
			return rooms[i].ID > rooms[j].ID
		}
		return rooms[i].CreatedAt.After(rooms[j].CreatedAt)
	})
}
