package slots

// Snapshot is the published view of slot occupancy.
type Snapshot struct {
	Screenshots int
	Percentage  float64
	Full        bool
}

// Tracker is a bounded presence table with a running occupancy count. The
// count always equals the number of present slots and is adjusted on each
// transition rather than recomputed.
type Tracker struct {
	present []bool
	count   int
}

// NewTracker creates an empty tracker with the given capacity. Capacities
// below one are raised to one.
func NewTracker(capacity int) *Tracker {
	if capacity < 1 {
		capacity = 1
	}
	return &Tracker{present: make([]bool, capacity)}
}

// Mark sets the presence of slot index and reports whether the occupancy
// changed. Out-of-range indexes are ignored. Marking a slot with its current
// state is a no-op.
func (t *Tracker) Mark(index int, present bool) bool {
	if index < 0 || index >= len(t.present) {
		return false
	}
	if t.present[index] == present {
		return false
	}
	t.present[index] = present
	if present {
		t.count++
	} else {
		t.count--
	}
	return true
}

// Present reports whether slot index is occupied.
func (t *Tracker) Present(index int) bool {
	if index < 0 || index >= len(t.present) {
		return false
	}
	return t.present[index]
}

// Count returns the number of occupied slots.
func (t *Tracker) Count() int {
	return t.count
}

// Capacity returns the number of slots.
func (t *Tracker) Capacity() int {
	return len(t.present)
}

// Reset clears every slot.
func (t *Tracker) Reset() {
	clear(t.present)
	t.count = 0
}

// Snapshot returns the current occupancy.
func (t *Tracker) Snapshot() Snapshot {
	capacity := len(t.present)
	return Snapshot{
		Screenshots: t.count,
		Percentage:  float64(t.count) * 100.0 / float64(capacity),
		Full:        t.count == capacity,
	}
}
