package selector

import "time"

// Option configures a Selector.
type Option[T Identifiable] func(*Selector[T])

// WithDebounce filters on a debounced query instead of the raw one.
// Use it for large candidate sets.
func WithDebounce[T Identifiable](interval time.Duration) Option[T] {
	return func(s *Selector[T]) {
		s.debounce = NewDebouncer(interval)
	}
}

// WithOnSelect registers the callback invoked by Select.
func WithOnSelect[T Identifiable](fn func(T)) Option[T] {
	return func(s *Selector[T]) {
		s.onSelect = fn
	}
}

// WithDisabled creates the selector in the disabled state.
func WithDisabled[T Identifiable]() Option[T] {
	return func(s *Selector[T]) {
		s.disabled = true
	}
}

// Selector is a searchable single-item picker over a candidate snapshot.
// It is not safe for concurrent use; the console confines it to the
// Bubble Tea update loop.
type Selector[T Identifiable] struct {
	candidates []T
	fields     []Field[T]
	open       bool
	disabled   bool
	query      string
	debounce   *Debouncer
	selected   T
	hasPick    bool
	onSelect   func(T)
}

// New creates a closed Selector over candidates, matching on fields.
func New[T Identifiable](candidates []T, fields []Field[T], opts ...Option[T]) *Selector[T] {
	s := &Selector[T]{
		candidates: candidates,
		fields:     fields,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// SetCandidates replaces the candidate snapshot. The current selection is
// kept even if it is no longer a candidate.
func (s *Selector[T]) SetCandidates(candidates []T) {
	s.candidates = candidates
}

// Candidates returns the candidate snapshot.
func (s *Selector[T]) Candidates() []T { return s.candidates }

// SetDisabled enables or disables the selector. Disabling closes it.
func (s *Selector[T]) SetDisabled(disabled bool) {
	s.disabled = disabled
	if disabled {
		s.Dismiss()
	}
}

// Disabled reports whether the selector is disabled.
func (s *Selector[T]) Disabled() bool { return s.disabled }

// IsOpen reports whether the dropdown is open.
func (s *Selector[T]) IsOpen() bool { return s.open }

// Open opens the dropdown. It is a no-op on a disabled selector and
// reports whether the selector is open afterwards.
func (s *Selector[T]) Open() bool {
	if s.disabled {
		return false
	}
	s.open = true
	return true
}

// Close closes the dropdown without touching the query or selection.
func (s *Selector[T]) Close() { s.open = false }

// Dismiss closes the dropdown and clears the query. The selection is
// unchanged.
func (s *Selector[T]) Dismiss() {
	s.open = false
	s.clearQuery()
}

// Query returns the raw query, updated synchronously on every keystroke.
func (s *Selector[T]) Query() string { return s.query }

// SetQuery records a keystroke at now. When debouncing, the returned ticket
// must be passed to Fire at or after its deadline; ok is false otherwise.
func (s *Selector[T]) SetQuery(query string, now time.Time) (t Ticket, ok bool) {
	s.query = query
	if s.debounce == nil {
		return Ticket{}, false
	}
	return s.debounce.Input(query, now), true
}

// Fire delivers a debounce deadline. It reports whether the effective query
// changed.
func (s *Selector[T]) Fire(t Ticket, now time.Time) bool {
	if s.debounce == nil {
		return false
	}
	_, ok := s.debounce.Fire(t, now)
	return ok
}

// EffectiveQuery is the query the filter uses: the committed one when
// debouncing, the raw one otherwise.
func (s *Selector[T]) EffectiveQuery() string {
	if s.debounce != nil {
		return s.debounce.Committed()
	}
	return s.query
}

// Debouncing reports whether the selector filters on a debounced query.
func (s *Selector[T]) Debouncing() bool { return s.debounce != nil }

// Visible returns the candidates matching the effective query.
func (s *Selector[T]) Visible() []T {
	return Filter(s.candidates, s.EffectiveQuery(), s.fields)
}

// Select sets the selection, closes the dropdown, clears the query and
// notifies the callback.
func (s *Selector[T]) Select(item T) {
	s.selected = item
	s.hasPick = true
	s.open = false
	s.clearQuery()
	if s.onSelect != nil {
		s.onSelect(item)
	}
}

// SelectByID selects the candidate with the given identifier.
func (s *Selector[T]) SelectByID(id string) bool {
	for _, c := range s.candidates {
		if c.Identifier() == id {
			s.Select(c)
			return true
		}
	}
	return false
}

// Selected returns the current selection.
func (s *Selector[T]) Selected() (T, bool) {
	return s.selected, s.hasPick
}

// SelectedID returns the identifier of the current selection, or "".
func (s *Selector[T]) SelectedID() string {
	if !s.hasPick {
		return ""
	}
	return s.selected.Identifier()
}

func (s *Selector[T]) clearQuery() {
	s.query = ""
	if s.debounce != nil {
		s.debounce.Reset()
	}
}
