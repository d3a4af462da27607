package rescache

import (
	"context"
	"log/slog"
)

// SlogObserver logs cache activity with log/slog.
//
// Example:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
//	cache, _ := rescache.New(rescache.WithObserver(rescache.NewSlogObserver(logger)))
type SlogObserver struct {
	logger *slog.Logger
}

// NewSlogObserver creates an observer that logs to logger.
func NewSlogObserver(logger *slog.Logger) *SlogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogObserver{logger: logger}
}

func (o *SlogObserver) OnLookup(ctx context.Context, event *LookupEvent) {
	o.logger.DebugContext(ctx, "cache lookup",
		slog.String("key", event.Key.String()),
		slog.Bool("hit", event.Hit),
	)
}

func (o *SlogObserver) OnFetchStart(ctx context.Context, event *FetchStartEvent) context.Context {
	o.logger.DebugContext(ctx, "cache fetch started",
		slog.String("key", event.Key.String()),
		slog.Uint64("generation", event.Generation),
	)
	return ctx
}

func (o *SlogObserver) OnFetchEnd(ctx context.Context, event *FetchEndEvent) {
	attrs := []any{
		slog.String("key", event.Key.String()),
		slog.Uint64("generation", event.Generation),
		slog.Duration("duration", event.Duration),
	}
	switch {
	case event.Err != nil:
		o.logger.WarnContext(ctx, "cache fetch failed", append(attrs, slog.String("error", event.Err.Error()))...)
	case event.Discarded:
		o.logger.InfoContext(ctx, "cache fetch superseded, result discarded", attrs...)
	default:
		o.logger.DebugContext(ctx, "cache fetch stored", attrs...)
	}
}

func (o *SlogObserver) OnInvalidate(ctx context.Context, event *InvalidateEvent) {
	kind := string(event.Kind)
	if event.All {
		kind = "*"
	}
	o.logger.InfoContext(ctx, "cache invalidated",
		slog.String("kind", kind),
		slog.Int("entries", event.Entries),
		slog.Int("superseded", event.Superseded),
	)
}
