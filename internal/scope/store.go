// Package scope holds the console's current scope: the logged-in identity,
// the known seasons, the active season and the selected entity ids that
// every query and mutation is filtered by.
package scope

import (
	"maps"
	"slices"
	"sync"
)

// Season is a production season as known to the scope.
type Season struct {
	ID   string
	Name string
}

// Identity is the logged-in user.
type Identity struct {
	ID    string
	Name  string
	Email string
	Role  string
}

// Slot names one selection held by the store.
type Slot string

const (
	SlotFaconnier    Slot = "faconnier"
	SlotBon          Slot = "bon"
	SlotClient       Slot = "client"
	SlotStylist      Slot = "stylist"
	SlotFaconnierBon Slot = "faconnier_bon"
	SlotClientBon    Slot = "client_bon"
	SlotStylistBon   Slot = "stylist_bon"
)

// nested maps a parent slot to the bon selection scoped under it.
var nested = map[Slot]Slot{
	SlotFaconnier: SlotFaconnierBon,
	SlotClient:    SlotClientBon,
	SlotStylist:   SlotStylistBon,
}

// ChangeKind describes what a Change touched.
type ChangeKind int

const (
	ChangeIdentity ChangeKind = iota
	ChangeSeasons
	ChangeActiveSeason
	ChangeSelection
	ChangeReset
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeIdentity:
		return "identity"
	case ChangeSeasons:
		return "seasons"
	case ChangeActiveSeason:
		return "active_season"
	case ChangeSelection:
		return "selection"
	case ChangeReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Change is delivered to subscribers after a mutation. Changes are
// delivered in commit order; Seq increases by one per change.
type Change struct {
	Seq      uint64
	Kind     ChangeKind
	Slot     Slot // Set for ChangeSelection.
	Snapshot Snapshot
}

// Snapshot is an immutable copy of the scope.
type Snapshot struct {
	Identity     *Identity
	ActiveSeason *Season
	Seasons      []Season
	Selections   map[Slot]string
}

// Store is the scope state. The zero value is not usable; call New.
// It is safe for concurrent use. Subscribers are called outside the lock,
// one change at a time; a subscriber may call setters, whose changes are
// delivered after the current one.
type Store struct {
	mu         sync.RWMutex
	identity   *Identity
	seasons    []Season
	active     *Season
	selections map[Slot]string
	seq        uint64
	queue      []Change
	draining   bool

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(Change)
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		selections: make(map[Slot]string),
		subs:       make(map[int]func(Change)),
	}
}

// Subscribe registers fn for every future change and returns a function
// that removes it.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// Snapshot returns a copy of the current scope.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Identity returns the logged-in user.
func (s *Store) Identity() (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return Identity{}, false
	}
	return *s.identity, true
}

// SetIdentity records the logged-in user.
func (s *Store) SetIdentity(id Identity) {
	s.mu.Lock()
	s.identity = &id
	s.commitLocked(Change{Kind: ChangeIdentity})
	s.mu.Unlock()
	s.flush()
}

// Seasons returns the known seasons in server order.
func (s *Store) Seasons() []Season {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.seasons)
}

// SetSeasons replaces the known seasons, keeping their order. If no season
// is active, or the active one is gone, the first season becomes active.
// An empty list clears the active season.
func (s *Store) SetSeasons(seasons []Season) {
	s.mu.Lock()
	s.seasons = slices.Clone(seasons)
	activeChanged := false
	switch {
	case len(s.seasons) == 0:
		activeChanged = s.active != nil
		s.active = nil
	case s.active == nil || s.indexLocked(s.active.ID) < 0:
		first := s.seasons[0]
		s.active = &first
		activeChanged = true
	default:
		// Refresh the name in case the server renamed the active season.
		current := s.seasons[s.indexLocked(s.active.ID)]
		s.active = &current
	}
	s.commitLocked(Change{Kind: ChangeSeasons})
	if activeChanged {
		s.commitLocked(Change{Kind: ChangeActiveSeason})
	}
	s.mu.Unlock()
	s.flush()
}

// ActiveSeason returns the active season.
func (s *Store) ActiveSeason() (Season, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == nil {
		return Season{}, false
	}
	return *s.active, true
}

// ActiveSeasonID returns the active season id, or "".
func (s *Store) ActiveSeasonID() string {
	season, _ := s.ActiveSeason()
	return season.ID
}

// SetActiveSeason makes season active. It does nothing and reports false
// when season already is the active one or has no id.
func (s *Store) SetActiveSeason(season Season) bool {
	if season.ID == "" {
		return false
	}
	s.mu.Lock()
	if s.active != nil && s.active.ID == season.ID {
		s.mu.Unlock()
		return false
	}
	s.active = &season
	s.commitLocked(Change{Kind: ChangeActiveSeason})
	s.mu.Unlock()
	s.flush()
	return true
}

// Selection returns the id selected in slot; "" means unset.
func (s *Store) Selection(slot Slot) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selections[slot]
}

// Select sets the id selected in slot. Changing a parent slot clears its
// nested bon selection. It reports whether anything changed.
func (s *Store) Select(slot Slot, id string) bool {
	s.mu.Lock()
	if s.selections[slot] == id {
		s.mu.Unlock()
		return false
	}
	if id == "" {
		delete(s.selections, slot)
	} else {
		s.selections[slot] = id
	}
	if child, ok := nested[slot]; ok {
		delete(s.selections, child)
	}
	s.commitLocked(Change{Kind: ChangeSelection, Slot: slot})
	s.mu.Unlock()
	s.flush()
	return true
}

// ClearSelection unsets slot.
func (s *Store) ClearSelection(slot Slot) bool {
	return s.Select(slot, "")
}

// Reset clears identity, seasons, active season and selections in one step.
func (s *Store) Reset() {
	s.mu.Lock()
	s.identity = nil
	s.seasons = nil
	s.active = nil
	s.selections = make(map[Slot]string)
	s.commitLocked(Change{Kind: ChangeReset})
	s.mu.Unlock()
	s.flush()
}

func (s *Store) indexLocked(id string) int {
	return slices.IndexFunc(s.seasons, func(season Season) bool { return season.ID == id })
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Seasons:    slices.Clone(s.seasons),
		Selections: maps.Clone(s.selections),
	}
	if s.identity != nil {
		id := *s.identity
		snap.Identity = &id
	}
	if s.active != nil {
		season := *s.active
		snap.ActiveSeason = &season
	}
	return snap
}

// commitLocked stamps c with the next sequence number and the current
// state and queues it for delivery. Callers hold mu.
func (s *Store) commitLocked(c Change) {
	s.seq++
	c.Seq = s.seq
	c.Snapshot = s.snapshotLocked()
	s.queue = append(s.queue, c)
}

// flush delivers queued changes in commit order. Only one goroutine drains
// at a time; others return once their change is queued behind it.
func (s *Store) flush() {
	s.mu.Lock()
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true
	defer func() {
		s.draining = false
		s.mu.Unlock()
	}()
	for len(s.queue) > 0 {
		c := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()
		s.publish(c)
		s.mu.Lock()
	}
}

func (s *Store) publish(c Change) {
	s.subMu.Lock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, id := range slices.Sorted(maps.Keys(s.subs)) {
		fns = append(fns, s.subs[id])
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(c)
	}
}
