package game

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/citymemory/backend/internal/models"
	"github.com/citymemory/backend/internal/store"
)

// StartJanitor deletes finished rooms that have not changed for ttl,
// checking every interval until ctx is done. A zero ttl disables it.
func (m *Manager) StartJanitor(ctx context.Context, ttl, interval time.Duration) {
	if ttl <= 0 {
		log.Println("[JANITOR] Room expiry disabled; janitor not started")
		return
	}
	if interval <= 0 {
		interval = time.Minute
	}

	log.Printf("[JANITOR] Janitor started (ttl=%s interval=%s)", ttl, interval)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Println("[JANITOR] Janitor stopping")
				return
			case <-ticker.C:
				if n := m.SweepExpired(ctx, ttl); n > 0 {
					log.Printf("[JANITOR] Removed %d expired rooms", n)
				}
			}
		}
	}()
}

// SweepExpired deletes finished rooms idle for longer than ttl and
// returns how many were removed
func (m *Manager) SweepExpired(ctx context.Context, ttl time.Duration) int {
	rooms, err := m.store.ListAll(ctx)
	if err != nil {
		log.Printf("[JANITOR] Failed to list rooms: %v", err)
		return 0
	}

	cutoff := m.now().Add(-ttl)
	removed := 0
	for _, r := range rooms {
		if !expired(r, cutoff) {
			continue
		}
		if m.expire(ctx, r.ID, cutoff) {
			removed++
		}
	}
	return removed
}

func expired(r *models.Room, cutoff time.Time) bool {
	return r.Status == models.StatusFinished && r.UpdatedAt.Before(cutoff)
}

// expire re-checks the room under its lock before deleting it
func (m *Manager) expire(ctx context.Context, id string, cutoff time.Time) bool {
	unlock := m.locks.Lock(id)
	defer unlock()

	opCtx, cancel := context.WithTimeout(ctx, timerOpTimeout)
	defer cancel()

	room, err := m.store.Get(opCtx, id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("[JANITOR] Failed to load room %s: %v", id, err)
		}
		return false
	}
	if !expired(room, cutoff) {
		return false
	}
	ok, err := m.store.Delete(opCtx, id)
	if err != nil {
		log.Printf("[JANITOR] Failed to delete room %s: %v", id, err)
		return false
	}
	m.timers.cancel(id)
	m.notifyDeleted(room, m.now())
	return ok
}
