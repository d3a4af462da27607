package rescache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultMaxEntries bounds the number of cached pages.
const DefaultMaxEntries = 256

// ErrPayloadType indicates a cached payload of an unexpected type, which
// means two callers used the same key with different record types.
var ErrPayloadType = errors.New("rescache: payload type mismatch")

// Entry is a cached page. Callers always receive copies.
type Entry struct {
	Key        Key
	Payload    any
	Generation uint64
	FetchedAt  time.Time
	Stale      bool
}

// FetchFunc loads the page for key from the remote API.
type FetchFunc func(ctx context.Context, key Key) (any, error)

// Option configures a Cache.
type Option func(*Cache)

// WithMaxEntries bounds how many pages are kept; the least recently served
// page is evicted first.
func WithMaxEntries(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

// WithMaxAge treats entries older than d as stale. Zero disables expiry.
func WithMaxAge(d time.Duration) Option {
	return func(c *Cache) {
		c.maxAge = d
	}
}

// WithObserver reports cache activity to o.
func WithObserver(o Observer) Option {
	return func(c *Cache) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// Cache holds fetched pages. It is safe for concurrent use; no lock is held
// while a fetch runs or an observer is called.
type Cache struct {
	maxEntries int
	maxAge     time.Duration
	observer   Observer
	now        func() time.Time

	mu      sync.Mutex
	entries *lru.Cache[Key, *Entry]
	gen     uint64
	flights map[Key]uint64 // generation of the latest fetch started per key
	group   singleflight.Group
}

// New creates an empty Cache.
func New(opts ...Option) (*Cache, error) {
	c := &Cache{
		maxEntries: DefaultMaxEntries,
		observer:   NoOpObserver{},
		now:        time.Now,
		flights:    make(map[Key]uint64),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	entries, err := lru.New[Key, *Entry](c.maxEntries)
	if err != nil {
		return nil, fmt.Errorf("rescache: creating entry store: %w", err)
	}
	c.entries = entries
	return c, nil
}

// Get returns a copy of the entry for key. It performs no I/O and does not
// affect eviction order. An expired entry is reported as stale.
func (c *Cache) Get(key Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries.Peek(key)
	if !ok {
		return Entry{}, false
	}
	out := *e
	out.Stale = !c.freshLocked(e)
	return out, true
}

// Len returns the number of cached pages, stale ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// FetchOrServe returns the fresh entry for key, or calls fetch and caches
// its result. Concurrent calls for the same key share one fetch. A failed
// fetch caches nothing and its error is returned unchanged. The shared
// fetch is not cancelled when ctx is; only this caller stops waiting.
func (c *Cache) FetchOrServe(ctx context.Context, key Key, fetch FetchFunc) (any, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	if payload, ok := c.serve(key); ok {
		c.observer.OnLookup(ctx, &LookupEvent{Key: key, Hit: true})
		return payload, nil
	}
	c.observer.OnLookup(ctx, &LookupEvent{Key: key, Hit: false})

	ch := c.group.DoChan(key.String(), func() (any, error) {
		return c.fill(context.WithoutCancel(ctx), key, fetch)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Fetch is the typed form of FetchOrServe.
func Fetch[R any](ctx context.Context, c *Cache, key Key, fetch func(context.Context, Key) (Page[R], error)) (Page[R], error) {
	v, err := c.FetchOrServe(ctx, key, func(ctx context.Context, k Key) (any, error) {
		page, err := fetch(ctx, k)
		if err != nil {
			return nil, err
		}
		return page, nil
	})
	if err != nil {
		return Page[R]{}, err
	}
	page, ok := v.(Page[R])
	if !ok {
		return Page[R]{}, fmt.Errorf("%w: %s holds %T", ErrPayloadType, key, v)
	}
	return page, nil
}

// Invalidate marks every entry of kind stale and supersedes fetches of kind
// still in flight, so their results are never stored. Other kinds are
// untouched. It returns the number of entries marked.
func (c *Cache) Invalidate(kind Kind) int {
	c.mu.Lock()
	n := 0
	for _, k := range c.entries.Keys() {
		if k.Kind != kind {
			continue
		}
		if e, ok := c.entries.Peek(k); ok {
			e.Stale = true
			n++
		}
	}
	superseded := 0
	for k := range c.flights {
		if k.Kind == kind {
			delete(c.flights, k)
			c.group.Forget(k.String())
			superseded++
		}
	}
	c.mu.Unlock()

	c.observer.OnInvalidate(context.Background(), &InvalidateEvent{
		Kind:       kind,
		Entries:    n,
		Superseded: superseded,
	})
	return n
}

// InvalidateAll drops every entry and supersedes every fetch in flight.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	n := c.entries.Len()
	c.entries.Purge()
	superseded := len(c.flights)
	for k := range c.flights {
		c.group.Forget(k.String())
	}
	c.flights = make(map[Key]uint64)
	c.mu.Unlock()

	c.observer.OnInvalidate(context.Background(), &InvalidateEvent{
		All:        true,
		Entries:    n,
		Superseded: superseded,
	})
}

// serve returns the payload of a fresh entry, marking it recently used.
func (c *Cache) serve(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries.Get(key)
	if !ok || !c.freshLocked(e) {
		return nil, false
	}
	return e.Payload, true
}

// fill runs one fetch for key under a new generation and stores the result
// only if no invalidation superseded it meanwhile.
func (c *Cache) fill(ctx context.Context, key Key, fetch FetchFunc) (any, error) {
	// A flight for key may have finished between the caller's miss and
	// this flight starting.
	if payload, ok := c.serve(key); ok {
		return payload, nil
	}

	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.flights[key] = gen
	c.mu.Unlock()

	ctx = c.observer.OnFetchStart(ctx, &FetchStartEvent{Key: key, Generation: gen})
	start := c.now()
	payload, err := fetch(ctx, key)
	duration := c.now().Sub(start)

	c.mu.Lock()
	current := c.flights[key] == gen
	if current {
		delete(c.flights, key)
	}
	if err == nil && current {
		c.entries.Add(key, &Entry{
			Key:        key,
			Payload:    payload,
			Generation: gen,
			FetchedAt:  c.now(),
		})
	}
	c.mu.Unlock()

	c.observer.OnFetchEnd(ctx, &FetchEndEvent{
		Key:        key,
		Generation: gen,
		Duration:   duration,
		Err:        err,
		Discarded:  err == nil && !current,
	})

	if err != nil {
		return nil, err
	}
	return payload, nil
}

func (c *Cache) freshLocked(e *Entry) bool {
	if e.Stale {
		return false
	}
	if c.maxAge > 0 && c.now().Sub(e.FetchedAt) > c.maxAge {
		return false
	}
	return true
}
