package game

import (
	"sync"
	"time"
)

// turnTimers tracks the pending NO_MATCH advance of each room. Every
// schedule gets a fresh generation so a callback that lost a race with
// cancel or a newer schedule can tell it is stale.
type turnTimers struct {
	mu      sync.Mutex
	seq     uint64
	pending map[string]pendingTurn
}

type pendingTurn struct {
	timer *time.Timer
	gen   uint64
}

func newTurnTimers() *turnTimers {
	return &turnTimers{pending: make(map[string]pendingTurn)}
}

// schedule replaces any pending advance for roomID with one that calls
// fire(gen) after d
func (t *turnTimers) schedule(roomID string, d time.Duration, fire func(gen uint64)) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if p, ok := t.pending[roomID]; ok {
		p.timer.Stop()
	}
	t.seq++
	gen := t.seq
	t.pending[roomID] = pendingTurn{
		gen:   gen,
		timer: time.AfterFunc(d, func() { fire(gen) }),
	}
	return gen
}

// cancel drops the pending advance and reports whether there was one
func (t *turnTimers) cancel(roomID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.pending[roomID]
	if !ok {
		return false
	}
	p.timer.Stop()
	delete(t.pending, roomID)
	return true
}

// claim removes the pending entry if gen is still current. A fired
// callback that fails to claim must do nothing.
func (t *turnTimers) claim(roomID string, gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.pending[roomID]
	if !ok || p.gen != gen {
		return false
	}
	delete(t.pending, roomID)
	return true
}

func (t *turnTimers) has(roomID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.pending[roomID]
	return ok
}

func (t *turnTimers) stopAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, p := range t.pending {
		p.timer.Stop()
		delete(t.pending, id)
	}
}
