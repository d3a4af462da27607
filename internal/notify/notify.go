// Package notify delivers transient user-facing messages: one per mutation
// settlement, success or failure.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level classifies a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// DefaultTTL is how long a queued notification stays visible.
const DefaultTTL = 4 * time.Second

// Notification is one transient message.
type Notification struct {
	ID      string
	Level   Level
	Message string
	At      time.Time
}

// Sink displays notifications.
type Sink interface {
	Notify(ctx context.Context, n Notification)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, n Notification)

// Notify calls f.
func (f SinkFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// Multi delivers to every sink in order.
type Multi []Sink

// Notify forwards n to each sink.
func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, s := range m {
		if s != nil {
			s.Notify(ctx, n)
		}
	}
}

// LogSink writes notifications to a slog.Logger.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink logging to logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Notify logs n at a level matching its Level.
func (s *LogSink) Notify(ctx context.Context, n Notification) {
	level := slog.LevelInfo
	if n.Level == LevelError {
		level = slog.LevelWarn
	}
	s.logger.Log(ctx, level, "notification",
		slog.String("id", n.ID),
		slog.String("level", string(n.Level)),
		slog.String("message", n.Message),
	)
}

// Queue keeps notifications visible until their TTL runs out.
// It is safe for concurrent use.
type Queue struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	items []Notification
}

// NewQueue creates a Queue. A non-positive ttl uses DefaultTTL.
func NewQueue(ttl time.Duration) *Queue {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Queue{ttl: ttl, now: time.Now}
}

// Notify enqueues n, filling in its ID and time when unset.
func (q *Queue) Notify(_ context.Context, n Notification) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, stamp(n, q.now()))
}

// Active drops expired notifications and returns the rest, oldest first.
func (q *Queue) Active() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	now := q.now()
	kept := q.items[:0]
	for _, n := range q.items {
		if now.Sub(n.At) < q.ttl {
			kept = append(kept, n)
		}
	}
	q.items = kept
	return append([]Notification(nil), kept...)
}

// TTL returns how long notifications stay visible.
func (q *Queue) TTL() time.Duration { return q.ttl }

// Stamp fills in a notification's ID and time when unset.
func Stamp(n Notification) Notification {
	return stamp(n, time.Now())
}

func stamp(n Notification, now time.Time) Notification {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.At.IsZero() {
		n.At = now
	}
	return n
}
