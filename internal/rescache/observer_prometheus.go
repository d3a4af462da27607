package rescache

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusObserver records cache activity as Prometheus metrics.
//
// Example:
//
//	observer := rescache.NewPrometheusObserver("atelier", prometheus.DefaultRegisterer)
//	// Creates metrics like: atelier_rescache_lookups_total
type PrometheusObserver struct {
	lookups       *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	fetchErrors   *prometheus.CounterVec
	discarded     *prometheus.CounterVec
	invalidations *prometheus.CounterVec
}

// NewPrometheusObserver creates the metrics under namespace and registers
// them with registerer.
func NewPrometheusObserver(namespace string, registerer prometheus.Registerer) *PrometheusObserver {
	if namespace == "" {
		namespace = "atelier"
	}

	lookups := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rescache",
			Name:      "lookups_total",
			Help:      "Total number of page lookups by result",
		},
		[]string{"kind", "result"},
	)

	fetchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rescache",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of remote page fetches in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind", "status"},
	)

	fetchErrors := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rescache",
			Name:      "fetch_errors_total",
			Help:      "Total number of failed page fetches",
		},
		[]string{"kind"},
	)

	discarded := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rescache",
			Name:      "fetch_discarded_total",
			Help:      "Total number of fetch results discarded after invalidation",
		},
		[]string{"kind"},
	)

	invalidations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rescache",
			Name:      "invalidations_total",
			Help:      "Total number of invalidation passes",
		},
		[]string{"kind"},
	)

	registerer.MustRegister(
		lookups,
		fetchDuration,
		fetchErrors,
		discarded,
		invalidations,
	)

	return &PrometheusObserver{
		lookups:       lookups,
		fetchDuration: fetchDuration,
		fetchErrors:   fetchErrors,
		discarded:     discarded,
		invalidations: invalidations,
	}
}

func (o *PrometheusObserver) OnLookup(ctx context.Context, event *LookupEvent) {
	result := "miss"
	if event.Hit {
		result = "hit"
	}
	o.lookups.WithLabelValues(string(event.Key.Kind), result).Inc()
}

func (o *PrometheusObserver) OnFetchStart(ctx context.Context, event *FetchStartEvent) context.Context {
	// Nothing to do on start for Prometheus
	return ctx
}

func (o *PrometheusObserver) OnFetchEnd(ctx context.Context, event *FetchEndEvent) {
	kind := string(event.Key.Kind)
	status := "stored"
	switch {
	case event.Err != nil:
		status = "error"
		o.fetchErrors.WithLabelValues(kind).Inc()
	case event.Discarded:
		status = "discarded"
		o.discarded.WithLabelValues(kind).Inc()
	}
	o.fetchDuration.WithLabelValues(kind, status).Observe(event.Duration.Seconds())
}

func (o *PrometheusObserver) OnInvalidate(ctx context.Context, event *InvalidateEvent) {
	kind := string(event.Kind)
	if event.All {
		kind = "*"
	}
	o.invalidations.WithLabelValues(kind).Inc()
}
