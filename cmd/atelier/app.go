package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"

	"github.com/smileynet/atelier/internal/api"
	"github.com/smileynet/atelier/internal/config"
	"github.com/smileynet/atelier/internal/notify"
	"github.com/smileynet/atelier/internal/pager"
	"github.com/smileynet/atelier/internal/rescache"
	"github.com/smileynet/atelier/internal/scope"
)

// instrumentation is the OpenTelemetry scope name for the cache.
const instrumentation = "github.com/smileynet/atelier/internal/rescache"

// app holds the collaborators shared by every command.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	transport *api.RestTransport
	cache     *rescache.Cache
	store     *scope.Store
	notices   *notify.Queue
	catalog   *api.Catalog
	registry  *api.Registry
	metrics   *prometheus.Registry // nil unless metrics are enabled
	unsub     func()
}

// newApp wires the transport, cache, scope and resources described by cfg.
func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{
		cfg:     cfg,
		logger:  logger,
		store:   scope.New(),
		notices: notify.NewQueue(cfg.Notify.TTL),
	}

	observers := []rescache.Observer{rescache.NewSlogObserver(logger)}
	otelObserver, err := rescache.NewOTelObserver(otel.Tracer(instrumentation), otel.Meter(instrumentation))
	if err != nil {
		return nil, err
	}
	observers = append(observers, otelObserver)
	if cfg.Metrics.Enabled {
		a.metrics = prometheus.NewRegistry()
		observers = append(observers, rescache.NewPrometheusObserver(cfg.Metrics.Namespace, a.metrics))
	}

	a.cache, err = rescache.New(
		rescache.WithMaxEntries(cfg.Cache.MaxEntries),
		rescache.WithMaxAge(cfg.Cache.MaxAge),
		rescache.WithObserver(rescache.Observers(observers...)),
	)
	if err != nil {
		return nil, err
	}

	a.transport = api.NewRestTransport(cfg.API.BaseURL,
		api.WithTimeout(cfg.API.Timeout),
		api.WithToken(cfg.API.Token),
	)

	a.catalog = api.NewCatalog(api.Deps{
		Transport: a.transport,
		Cache:     a.cache,
		Scope:     a.store,
		Notifier:  notify.Multi{notify.NewLogSink(logger), a.notices},
		Limits:    pager.LimitConfig{Default: cfg.List.PageLimit, Max: cfg.List.MaxLimit},
		Logger:    logger,
	})
	a.registry = a.catalog.Registry()

	a.unsub = a.store.Subscribe(func(c scope.Change) {
		attrs := []any{slog.String("change", c.Kind.String())}
		if s := c.Snapshot.ActiveSeason; s != nil {
			attrs = append(attrs, slog.String("season", s.ID))
		}
		logger.Debug("scope changed", attrs...)
	})
	return a, nil
}

// Close releases the transport and the scope subscription.
func (a *app) Close() {
	if a.unsub != nil {
		a.unsub()
	}
	if a.transport != nil {
		if err := a.transport.Close(); err != nil {
			a.logger.Warn("closing transport", slog.Any("error", err))
		}
	}
}

// table resolves a kind name. For season-scoped tables it syncs the
// seasons first and activates seasonID when given.
func (a *app) table(ctx context.Context, kind, seasonID string) (api.Table, error) {
	t, err := a.registry.Table(kindOf(kind))
	if err != nil {
		return nil, err
	}
	if !t.SeasonScoped() {
		return t, nil
	}

	env := a.catalog.SyncSeasons(ctx)
	if !env.OK() {
		return nil, &failureError{op: "seasons", message: env.Message}
	}
	if seasonID == "" {
		return t, nil
	}
	for _, s := range env.Data {
		if s.ID == seasonID {
			a.store.SetActiveSeason(s.Scope())
			return t, nil
		}
	}
	return nil, fmt.Errorf("unknown season %q", seasonID)
}

// dumpMetrics writes the cache counters gathered during the run.
func (a *app) dumpMetrics(w io.Writer) {
	if a.metrics == nil {
		return
	}
	families, err := a.metrics.Gather()
	if err != nil {
		a.logger.Warn("gathering metrics", slog.Any("error", err))
		return
	}
	sort.Slice(families, func(i, j int) bool { return families[i].GetName() < families[j].GetName() })
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			switch {
			case m.GetCounter() != nil:
				fmt.Fprintf(w, "%s%v %g\n", mf.GetName(), labels, m.GetCounter().GetValue())
			case m.GetHistogram() != nil:
				fmt.Fprintf(w, "%s%v count=%d sum=%g\n", mf.GetName(), labels,
					m.GetHistogram().GetSampleCount(), m.GetHistogram().GetSampleSum())
			}
		}
	}
}
