package watchdog

import (
	"sync"
	"sync/atomic"

	"screenwatch/internal/slots"
)

// SharedSnapshot hands the latest occupancy from the monitor goroutine to a
// consumer. Consumers either poll (a lock-free changed flag is checked before
// the lock is taken) or receive from Updates, a single-slot channel that
// always holds the most recent value.
type SharedSnapshot struct {
	mu      sync.Mutex
	value   slots.Snapshot
	version uint64
	changed atomic.Bool
	updates chan slots.Snapshot
}

// NewSharedSnapshot returns an empty snapshot with no pending update.
func NewSharedSnapshot() *SharedSnapshot {
	return &SharedSnapshot{updates: make(chan slots.Snapshot, 1)}
}

// Publish replaces the current value and flags it as unread.
func (s *SharedSnapshot) Publish(value slots.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.value = value
	s.version++
	s.changed.Store(true)

	select {
	case <-s.updates:
	default:
	}
	s.updates <- value
}

// Poll returns the current value and true when it has changed since the last
// Poll. A stale flag read costs at most one extra poll cycle.
func (s *SharedSnapshot) Poll() (slots.Snapshot, bool) {
	if !s.changed.Load() {
		return slots.Snapshot{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.changed.Store(false)
	return s.value, true
}

// Load returns the current value without consuming the changed flag.
func (s *SharedSnapshot) Load() slots.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Version counts publishes since construction.
func (s *SharedSnapshot) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Updates delivers the latest published value. Unread values are replaced,
// never queued.
func (s *SharedSnapshot) Updates() <-chan slots.Snapshot {
	return s.updates
}
