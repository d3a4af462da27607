package rescache

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// OTelObserver traces fetches and counts cache activity with OpenTelemetry.
//
// Example:
//
//	observer, _ := rescache.NewOTelObserver(otel.Tracer("atelier"), otel.Meter("atelier"))
//	cache, _ := rescache.New(rescache.WithObserver(observer))
type OTelObserver struct {
	tracer trace.Tracer

	hits          metric.Int64Counter
	misses        metric.Int64Counter
	fetchDuration metric.Float64Histogram
	invalidations metric.Int64Counter
}

// NewOTelObserver creates an OpenTelemetry observer.
func NewOTelObserver(tracer trace.Tracer, meter metric.Meter) (*OTelObserver, error) {
	hits, err := meter.Int64Counter(
		"atelier.rescache.hits",
		metric.WithDescription("Number of pages served from cache"),
	)
	if err != nil {
		return nil, fmt.Errorf("rescache: creating hits counter: %w", err)
	}

	misses, err := meter.Int64Counter(
		"atelier.rescache.misses",
		metric.WithDescription("Number of page lookups that needed a fetch"),
	)
	if err != nil {
		return nil, fmt.Errorf("rescache: creating misses counter: %w", err)
	}

	fetchDuration, err := meter.Float64Histogram(
		"atelier.rescache.fetch.duration",
		metric.WithDescription("Duration of remote page fetches in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("rescache: creating fetch duration histogram: %w", err)
	}

	invalidations, err := meter.Int64Counter(
		"atelier.rescache.invalidations",
		metric.WithDescription("Number of invalidation passes"),
	)
	if err != nil {
		return nil, fmt.Errorf("rescache: creating invalidations counter: %w", err)
	}

	return &OTelObserver{
		tracer:        tracer,
		hits:          hits,
		misses:        misses,
		fetchDuration: fetchDuration,
		invalidations: invalidations,
	}, nil
}

func (o *OTelObserver) OnLookup(ctx context.Context, event *LookupEvent) {
	attrs := metric.WithAttributes(attribute.String("kind", string(event.Key.Kind)))
	if event.Hit {
		o.hits.Add(ctx, 1, attrs)
	} else {
		o.misses.Add(ctx, 1, attrs)
	}
}

func (o *OTelObserver) OnFetchStart(ctx context.Context, event *FetchStartEvent) context.Context {
	ctx, _ = o.tracer.Start(ctx, "rescache.fetch",
		trace.WithAttributes(
			attribute.String("kind", string(event.Key.Kind)),
			attribute.String("key", event.Key.String()),
			attribute.Int64("generation", int64(event.Generation)),
		),
	)
	return ctx
}

func (o *OTelObserver) OnFetchEnd(ctx context.Context, event *FetchEndEvent) {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		if event.Err != nil {
			span.SetStatus(codes.Error, event.Err.Error())
			span.RecordError(event.Err)
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.SetAttributes(attribute.Bool("discarded", event.Discarded))
		span.End()
	}

	o.fetchDuration.Record(ctx, event.Duration.Seconds(), metric.WithAttributes(
		attribute.String("kind", string(event.Key.Kind)),
		attribute.Bool("success", event.Err == nil),
		attribute.Bool("discarded", event.Discarded),
	))
}

func (o *OTelObserver) OnInvalidate(ctx context.Context, event *InvalidateEvent) {
	kind := string(event.Kind)
	if event.All {
		kind = "*"
	}
	o.invalidations.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}
