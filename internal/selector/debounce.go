package selector

import "time"

// DefaultQuiescence is how long the query must stay unchanged before it is
// committed for filtering.
const DefaultQuiescence = 300 * time.Millisecond

// DebounceState is the state of a Debouncer.
type DebounceState int

const (
	Idle    DebounceState = iota // No uncommitted input.
	Pending                      // Input waiting for its deadline.
)

// Ticket identifies one keystroke. Only the latest ticket can commit.
type Ticket struct {
	Seq      uint64
	Deadline time.Time
}

// Debouncer commits a query only after a quiet interval with no newer input.
// It holds no timers: the caller schedules a Fire at or after the ticket's
// deadline (a tea.Tick in the console) and the Debouncer decides whether
// that Fire still counts.
type Debouncer struct {
	interval  time.Duration
	state     DebounceState
	seq       uint64
	pending   string
	deadline  time.Time
	committed string
}

// NewDebouncer returns a Debouncer with the given quiet interval.
// A non-positive interval uses DefaultQuiescence.
func NewDebouncer(interval time.Duration) *Debouncer {
	if interval <= 0 {
		interval = DefaultQuiescence
	}
	return &Debouncer{interval: interval}
}

// Interval returns the quiet interval.
func (d *Debouncer) Interval() time.Duration { return d.interval }

// State returns the current state.
func (d *Debouncer) State() DebounceState { return d.state }

// Committed returns the last committed query.
func (d *Debouncer) Committed() string { return d.committed }

// Pending returns the uncommitted query and its deadline, if any.
func (d *Debouncer) Pending() (string, time.Time, bool) {
	if d.state != Pending {
		return "", time.Time{}, false
	}
	return d.pending, d.deadline, true
}

// Input records a keystroke at now. Any earlier ticket becomes obsolete.
func (d *Debouncer) Input(query string, now time.Time) Ticket {
	d.seq++
	d.state = Pending
	d.pending = query
	d.deadline = now.Add(d.interval)
	return Ticket{Seq: d.seq, Deadline: d.deadline}
}

// Fire commits the pending query if t is the latest ticket and now has
// reached its deadline. It reports whether a commit happened.
func (d *Debouncer) Fire(t Ticket, now time.Time) (string, bool) {
	if d.state != Pending || t.Seq != d.seq || now.Before(d.deadline) {
		return d.committed, false
	}
	d.state = Idle
	d.committed = d.pending
	d.pending = ""
	return d.committed, true
}

// Reset drops pending input and clears the committed query.
func (d *Debouncer) Reset() {
	d.seq++
	d.state = Idle
	d.pending = ""
	d.deadline = time.Time{}
	d.committed = ""
}
