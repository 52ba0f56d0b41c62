package session

import (
	"sync"
	"time"
)

const defaultDuplicateWindow = 24 * time.Hour

// Outcome is the acknowledgement verdict for one sent message.
type Outcome struct {
	Acked bool
	Code  string
}

type pending struct {
	ch chan Outcome
	at time.Time
}

// Tracker correlates outbound messages with the acknowledgements the
// counterparty returns for them, and remembers inbound message
// identifiers for duplicate detection. Outcomes are buffered so an
// acknowledgement that arrives before anyone waits for it is not
// lost.
type Tracker struct {
	mu        sync.RWMutex
	inflight  map[string]*pending
	seen      map[string]time.Time
	window    time.Duration
	lastPrune time.Time
}

// NewTracker builds a tracker whose duplicate-detection window is
// window. A non-positive window selects the default of one day.
func NewTracker(window time.Duration) *Tracker {
	if window <= 0 {
		window = defaultDuplicateWindow
	}
	return &Tracker{
		inflight:  make(map[string]*pending),
		seen:      make(map[string]time.Time),
		window:    window,
		lastPrune: time.Now(),
	}
}

// Track registers id as awaiting acknowledgement. Tracking the same
// id again resets its waiter.
func (t *Tracker) Track(id string) {
	if id == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pruneLocked()
	t.inflight[id] = &pending{ch: make(chan Outcome, 1), at: time.Now()}
}

// Waiter returns the channel that will carry the outcome for id. The
// second return reports whether id is tracked.
func (t *Tracker) Waiter(id string) (<-chan Outcome, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.inflight[id]
	if !ok {
		return nil, false
	}
	return p.ch, true
}

// Resolve delivers the outcome for id. The entry stays tracked so a
// later Await still observes the buffered outcome; Forget removes it.
// Resolve reports whether id was tracked.
func (t *Tracker) Resolve(id string, out Outcome) bool {
	t.mu.RLock()
	p, ok := t.inflight[id]
	t.mu.RUnlock()
	if !ok {
		return false
	}
	select {
	case p.ch <- out:
	default:
	}
	return true
}

// Forget stops tracking id.
func (t *Tracker) Forget(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.inflight, id)
}

// Inflight returns the number of messages awaiting acknowledgement.
func (t *Tracker) Inflight() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.inflight)
}

// Seen reports whether id was already observed inside the duplicate
// window, recording it as observed now when it was not.
func (t *Tracker) Seen(id string) bool {
	if id == "" {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pruneLocked()

	if at, ok := t.seen[id]; ok && time.Since(at) < t.window {
		return true
	}
	t.seen[id] = time.Now()
	return false
}

// pruneLocked sweeps expired entries from both maps. Called with the
// write lock held; runs at most once per window.
func (t *Tracker) pruneLocked() {
	now := time.Now()
	if now.Sub(t.lastPrune) < t.window {
		return
	}
	t.lastPrune = now

	for id, at := range t.seen {
		if now.Sub(at) > t.window {
			delete(t.seen, id)
		}
	}
	for id, p := range t.inflight {
		if now.Sub(p.at) > t.window {
			delete(t.inflight, id)
		}
	}
}
