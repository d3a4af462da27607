package rescache

import (
	"context"
	"time"
)

// Observer receives cache activity. Implementations can emit metrics, logs
// or traces. Methods are called synchronously and outside the cache lock,
// so they should be fast.
type Observer interface {
	// OnLookup is called once per FetchOrServe with whether a fresh entry
	// was served.
	OnLookup(ctx context.Context, event *LookupEvent)

	// OnFetchStart is called before a fetch runs. The returned context is
	// passed to the fetch and to OnFetchEnd, so tracers can carry a span.
	OnFetchStart(ctx context.Context, event *FetchStartEvent) context.Context

	// OnFetchEnd is called after a fetch completes, stored or not.
	OnFetchEnd(ctx context.Context, event *FetchEndEvent)

	// OnInvalidate is called after Invalidate or InvalidateAll.
	OnInvalidate(ctx context.Context, event *InvalidateEvent)
}

// LookupEvent is emitted when a page is requested.
type LookupEvent struct {
	Key Key
	Hit bool
}

// FetchStartEvent is emitted when a fetch begins.
type FetchStartEvent struct {
	Key        Key
	Generation uint64
}

// FetchEndEvent is emitted when a fetch completes.
type FetchEndEvent struct {
	Key        Key
	Generation uint64
	Duration   time.Duration
	Err        error // nil if the fetch succeeded
	Discarded  bool  // true if an invalidation superseded a successful fetch
}

// InvalidateEvent is emitted after invalidation.
type InvalidateEvent struct {
	Kind       Kind // empty when All is set
	All        bool
	Entries    int // entries marked stale or dropped
	Superseded int // fetches in flight whose results will be discarded
}

// NoOpObserver ignores every event.
type NoOpObserver struct{}

func (NoOpObserver) OnLookup(context.Context, *LookupEvent) {}
func (NoOpObserver) OnFetchStart(ctx context.Context, _ *FetchStartEvent) context.Context {
	return ctx
}
func (NoOpObserver) OnFetchEnd(context.Context, *FetchEndEvent)     {}
func (NoOpObserver) OnInvalidate(context.Context, *InvalidateEvent) {}

// MultiObserver fans events out to several observers in order.
type MultiObserver struct {
	Observers []Observer
}

// Observers combines observers, skipping nil ones.
func Observers(obs ...Observer) *MultiObserver {
	m := &MultiObserver{}
	for _, o := range obs {
		if o != nil {
			m.Observers = append(m.Observers, o)
		}
	}
	return m
}

func (m *MultiObserver) OnLookup(ctx context.Context, event *LookupEvent) {
	for _, o := range m.Observers {
		o.OnLookup(ctx, event)
	}
}

func (m *MultiObserver) OnFetchStart(ctx context.Context, event *FetchStartEvent) context.Context {
	for _, o := range m.Observers {
		ctx = o.OnFetchStart(ctx, event)
	}
	return ctx
}

func (m *MultiObserver) OnFetchEnd(ctx context.Context, event *FetchEndEvent) {
	for _, o := range m.Observers {
		o.OnFetchEnd(ctx, event)
	}
}

func (m *MultiObserver) OnInvalidate(ctx context.Context, event *InvalidateEvent) {
	for _, o := range m.Observers {
		o.OnInvalidate(ctx, event)
	}
}
