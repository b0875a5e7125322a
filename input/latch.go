package input

import "sync"

// Latch turns key press events into held keys. Terminals report presses but
// not releases, so each press holds its key for a fixed duration.
type Latch struct {
	mu   sync.Mutex
	hold float64
	left map[KeyState]float64
}

// NewLatch creates a latch that holds each press for hold seconds.
func NewLatch(hold float64) *Latch {
	return &Latch{hold: hold, left: make(map[KeyState]float64)}
}

// Press holds key for the latch duration, restarting it if already held.
func (l *Latch) Press(key KeyState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, k := range AllKeys {
		if key.Has(k) {
			l.left[k] = l.hold
		}
	}
}

// Advance counts down held keys by dt seconds and drops expired ones.
func (l *Latch) Advance(dt float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, t := range l.left {
		t -= dt
		if t <= 0 {
			delete(l.left, k)
			continue
		}
		l.left[k] = t
	}
}

// State returns the currently held keys.
func (l *Latch) State() KeyState {
	l.mu.Lock()
	defer l.mu.Unlock()
	var s KeyState
	for k := range l.left {
		s = s.Add(k)
	}
	return s
}
