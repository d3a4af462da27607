package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/smileynet/atelier/internal/notify"
	"github.com/smileynet/atelier/internal/pager"
	"github.com/smileynet/atelier/internal/rescache"
	"github.com/smileynet/atelier/internal/scope"
)

// MsgNoSeason is the failed-envelope message for season-scoped operations
// issued with no active season.
const MsgNoSeason = "Select a season first."

// SeasonParam is the query parameter carrying the active season.
const SeasonParam = "season_id"

// Definition describes one resource kind on the server.
type Definition[T Record] struct {
	Kind         rescache.Kind
	Title        string // Plural, for tabs and headers.
	Noun         string // Singular, for notifications.
	Path         string // Collection path, e.g. "/users".
	ListField    string // Field holding the records of a list response.
	ItemField    string // Field holding the record of a single response.
	SeasonScoped bool
	Toggleable   bool
	Columns      []string
	Row          func(T) []string
}

// Deps are the collaborators shared by every resource.
type Deps struct {
	Transport Transport
	Cache     *rescache.Cache
	Scope     *scope.Store
	Notifier  notify.Sink
	Limits    pager.LimitConfig
	Logger    *slog.Logger
}

// ListParams selects one page of a collection.
type ListParams struct {
	Page   int
	Limit  int
	Search string
}

// Resource exposes the query and mutations of one resource kind. Every
// method returns an Envelope; none returns an error.
type Resource[T Record, I any] struct {
	def  Definition[T]
	deps Deps
}

// NewResource binds def to deps.
// Missing logger, notifier and scope are replaced by defaults.
func NewResource[T Record, I any](def Definition[T], deps Deps) *Resource[T, I] {
	return &Resource[T, I]{def: def, deps: deps.withDefaults()}
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Notifier == nil {
		d.Notifier = notify.NewLogSink(d.Logger)
	}
	if d.Scope == nil {
		d.Scope = scope.New()
	}
	return d
}

// Definition returns the resource's definition.
func (r *Resource[T, I]) Definition() Definition[T] { return r.def }

// Key returns the cache key List uses for p.
func (r *Resource[T, I]) Key(p ListParams) rescache.Key {
	k := rescache.Key{
		Kind:   r.def.Kind,
		Page:   max(p.Page, 1),
		Limit:  pager.ClampLimit(p.Limit, r.deps.Limits),
		Search: strings.TrimSpace(p.Search),
	}
	if r.def.SeasonScoped {
		k.ScopeID = r.deps.Scope.ActiveSeasonID()
	}
	return k
}

// List returns one page, from the cache when it holds a fresh copy.
func (r *Resource[T, I]) List(ctx context.Context, p ListParams) Envelope[rescache.Page[T]] {
	key := r.Key(p)
	if r.def.SeasonScoped && key.ScopeID == "" {
		return Envelope[rescache.Page[T]]{Status: StatusFailed, Message: MsgNoSeason}
	}
	page, err := rescache.Fetch(ctx, r.deps.Cache, key, r.fetchPage)
	if err != nil {
		r.deps.Logger.Warn("list failed", slog.String("kind", string(r.def.Kind)), slog.String("key", key.String()), slog.Any("error", err))
		return failed[rescache.Page[T]](err)
	}
	return Envelope[rescache.Page[T]]{Status: StatusSuccess, Data: page}
}

func (r *Resource[T, I]) fetchPage(ctx context.Context, key rescache.Key) (rescache.Page[T], error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(key.Page))
	q.Set("limit", strconv.Itoa(key.Limit))
	if key.Search != "" {
		q.Set("search", key.Search)
	}
	if key.ScopeID != "" {
		q.Set(SeasonParam, key.ScopeID)
	}

	resp, err := r.deps.Transport.Do(ctx, http.MethodGet, r.def.Path+"?"+q.Encode(), nil)
	if err != nil {
		return rescache.Page[T]{}, err
	}
	if !succeeded(resp.Status) {
		return rescache.Page[T]{}, fmt.Errorf("%w: status %d", ErrUnexpectedShape, resp.Status)
	}
	var records []T
	if err := decodeField(resp.Data, r.def.ListField, true, &records); err != nil {
		return rescache.Page[T]{}, err
	}
	page := rescache.Page[T]{
		Records:    records,
		TotalItems: int(gjsonInt(resp.Data, "total", int64(len(records)))),
		Status:     string(StatusSuccess),
	}
	page.TotalPages = int(gjsonInt(resp.Data, "totalPages", int64(pager.TotalPages(page.TotalItems, key.Limit))))
	return page, nil
}

// Create posts a new record.
// Season-scoped records are created under the active season.
func (r *Resource[T, I]) Create(ctx context.Context, in I) Envelope[T] {
	if r.def.SeasonScoped && r.deps.Scope.ActiveSeasonID() == "" {
		env := Envelope[T]{Status: StatusFailed, Message: MsgNoSeason}
		r.settle(ctx, "create", env.Status, env.Message)
		return env
	}
	return r.mutateItem(ctx, "create", "created", http.MethodPost, r.scopedPath(r.def.Path), in)
}

// Update replaces the record with id.
func (r *Resource[T, I]) Update(ctx context.Context, id string, in I) Envelope[T] {
	return r.mutateItem(ctx, "update", "updated", http.MethodPut, r.itemPath(id, ""), in)
}

// Toggle flips the record's active flag.
func (r *Resource[T, I]) Toggle(ctx context.Context, id string) Envelope[T] {
	if !r.def.Toggleable {
		env := Envelope[T]{Status: StatusFailed, Message: fmt.Sprintf("%s cannot be toggled.", r.def.Title)}
		r.settle(ctx, "toggle", env.Status, env.Message)
		return env
	}
	return r.mutateItem(ctx, "toggle", "updated", http.MethodPut, r.itemPath(id, "toggle"), nil)
}

// Delete removes the record with id.
func (r *Resource[T, I]) Delete(ctx context.Context, id string) Envelope[struct{}] {
	env := r.delete(ctx, id)
	r.settle(ctx, "delete", env.Status, env.Message)
	return env
}

func (r *Resource[T, I]) delete(ctx context.Context, id string) Envelope[struct{}] {
	resp, err := r.deps.Transport.Do(ctx, http.MethodDelete, r.itemPath(id, ""), nil)
	if err != nil {
		return failed[struct{}](err)
	}
	if !succeeded(resp.Status) {
		return failed[struct{}](fmt.Errorf("%w: status %d", ErrUnexpectedShape, resp.Status))
	}
	return Envelope[struct{}]{Status: StatusSuccess, Message: message(resp.Data, r.def.Noun+" deleted.")}
}

func (r *Resource[T, I]) mutateItem(ctx context.Context, op, verb, method, path string, body any) Envelope[T] {
	env := r.sendItem(ctx, verb, method, path, body)
	r.settle(ctx, op, env.Status, env.Message)
	return env
}

func (r *Resource[T, I]) sendItem(ctx context.Context, verb, method, path string, body any) Envelope[T] {
	resp, err := r.deps.Transport.Do(ctx, method, path, body)
	if err != nil {
		return failed[T](err)
	}
	if !succeeded(resp.Status) {
		return failed[T](fmt.Errorf("%w: status %d", ErrUnexpectedShape, resp.Status))
	}
	var item T
	if err := decodeField(resp.Data, r.def.ItemField, false, &item); err != nil {
		return failed[T](err)
	}
	return Envelope[T]{Status: StatusSuccess, Message: message(resp.Data, r.def.Noun+" "+verb+"."), Data: item}
}

// settle runs once per mutation, whatever its outcome: the kind is
// invalidated and a single notification is shown.
func (r *Resource[T, I]) settle(ctx context.Context, op string, status Status, msg string) {
	n := r.deps.Cache.Invalidate(r.def.Kind)
	level := notify.LevelSuccess
	if status != StatusSuccess {
		level = notify.LevelError
	}
	r.deps.Logger.Debug("mutation settled",
		slog.String("kind", string(r.def.Kind)),
		slog.String("op", op),
		slog.String("status", string(status)),
		slog.Int("invalidated", n),
	)
	r.deps.Notifier.Notify(ctx, notify.Notification{Level: level, Message: msg})
}

func (r *Resource[T, I]) itemPath(id, action string) string {
	p := r.def.Path + "/" + url.PathEscape(id)
	if action != "" {
		p += "/" + action
	}
	return p
}

func (r *Resource[T, I]) scopedPath(p string) string {
	if !r.def.SeasonScoped {
		return p
	}
	return p + "?" + url.Values{SeasonParam: {r.deps.Scope.ActiveSeasonID()}}.Encode()
}
