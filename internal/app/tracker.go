package app

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joacominatel/minalite/internal/config"
)

// Connection event types.
const (
	EventSuccess = "success"
	EventFailure = "failure"
)

// maxHistory bounds the persisted event history.
const maxHistory = 50

// Tracker counts connection attempts and keeps a short history.
// It is safe for concurrent use.
type Tracker struct {
	mu    sync.Mutex
	stats config.Stats
	now   func() time.Time
}

// NewTracker creates a tracker seeded with previously persisted stats.
func NewTracker(initial config.Stats) *Tracker {
	initial.History = append([]config.ConnectionEvent(nil), initial.History...)
	return &Tracker{stats: initial, now: time.Now}
}

// RegisterSuccess records a successful open of path.
func (t *Tracker) RegisterSuccess(path string) config.ConnectionEvent {
	return t.register(EventSuccess, path)
}

// RegisterFailure records a failed open of path.
func (t *Tracker) RegisterFailure(path string) config.ConnectionEvent {
	return t.register(EventFailure, path)
}

func (t *Tracker) register(kind, path string) config.ConnectionEvent {
	t.mu.Lock()
	defer t.mu.Unlock()

	ev := config.ConnectionEvent{
		ID:        uuid.NewString(),
		Timestamp: t.now().UTC(),
		Type:      kind,
		Path:      path,
	}

	t.stats.Total++
	if kind == EventSuccess {
		t.stats.Successful++
	} else {
		t.stats.Failed++
	}

	t.stats.History = append(t.stats.History, ev)
	if over := len(t.stats.History) - maxHistory; over > 0 {
		t.stats.History = append([]config.ConnectionEvent(nil), t.stats.History[over:]...)
	}
	return ev
}

// Stats returns a snapshot of the counters and history.
func (t *Tracker) Stats() config.Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.stats
	s.History = append([]config.ConnectionEvent(nil), t.stats.History...)
	return s
}

// Recent returns up to n events, newest first.
func (t *Tracker) Recent(n int) []config.ConnectionEvent {
	t.mu.Lock()
	defer t.mu.Unlock()

	h := t.stats.History
	if n <= 0 {
		return nil
	}
	if n > len(h) {
		n = len(h)
	}
	out := make([]config.ConnectionEvent, 0, n)
	for i := len(h) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, h[i])
	}
	return out
}

// Reset clears all counters and history.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats = config.Stats{}
}
