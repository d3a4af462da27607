package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/smileynet/atelier/internal/notify"
	"github.com/smileynet/atelier/internal/pager"
	"github.com/smileynet/atelier/internal/rescache"
	"github.com/smileynet/atelier/internal/scope"
)

type call struct {
	Method string
	Path   string
	Body   any
}

// fakeTransport records every request and answers with handler.
type fakeTransport struct {
	mu      sync.Mutex
	calls   []call
	handler func(method, path string) (*Response, error)
}

func (f *fakeTransport) Do(_ context.Context, method, path string, body any) (*Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{Method: method, Path: path, Body: body})
	f.mu.Unlock()
	return f.handler(method, path)
}

func (f *fakeTransport) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func reply(status int, body string) func(string, string) (*Response, error) {
	return func(string, string) (*Response, error) {
		return &Response{Status: status, Data: json.RawMessage(body)}, nil
	}
}

func reject(status int, body string) func(string, string) (*Response, error) {
	return func(string, string) (*Response, error) {
		return nil, &ResponseError{Status: status, Data: json.RawMessage(body)}
	}
}

// invalidationCounter counts OnInvalidate events per kind.
type invalidationCounter struct {
	rescache.NoOpObserver
	mu     sync.Mutex
	counts map[rescache.Kind]int
}

func (c *invalidationCounter) OnInvalidate(_ context.Context, e *rescache.InvalidateEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[e.Kind]++
}

func (c *invalidationCounter) Count(k rescache.Kind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[k]
}

type harness struct {
	transport *fakeTransport
	cache     *rescache.Cache
	scope     *scope.Store
	queue     *notify.Queue
	inval     *invalidationCounter
	catalog   *Catalog
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		transport: &fakeTransport{handler: reply(http.StatusOK, `{}`)},
		scope:     scope.New(),
		queue:     notify.NewQueue(0),
		inval:     &invalidationCounter{counts: map[rescache.Kind]int{}},
	}
	c, err := rescache.New(rescache.WithObserver(h.inval))
	if err != nil {
		t.Fatalf("rescache.New: %v", err)
	}
	h.cache = c
	h.catalog = NewCatalog(Deps{
		Transport: h.transport,
		Cache:     h.cache,
		Scope:     h.scope,
		Notifier:  h.queue,
		Limits:    pager.LimitConfig{Default: 10, Max: 100},
	})
	return h
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantReason Reason
		wantMsg    string
	}{
		{"no response", errors.New("dial tcp: connection refused"), ReasonTransport, MsgTryAgain},
		{"validation", &ResponseError{Status: 400, Data: json.RawMessage(`{"errors":[{"message":"Email is required"},{"message":"Name is required"}]}`)}, ReasonValidation, "Email is required"},
		{"server message", &ResponseError{Status: 409, Data: json.RawMessage(`{"message":"Season is in use"}`)}, ReasonRejected, "Season is in use"},
		{"empty body", &ResponseError{Status: 500}, ReasonRejected, MsgTryAgain},
		{"empty errors array", &ResponseError{Status: 400, Data: json.RawMessage(`{"errors":[]}`)}, ReasonRejected, MsgTryAgain},
		{"unexpected shape", ErrUnexpectedShape, ReasonUnexpected, MsgUnexpected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Classify(tt.err)
			if f.Reason != tt.wantReason {
				t.Errorf("Reason = %v, want %v", f.Reason, tt.wantReason)
			}
			if f.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", f.Message, tt.wantMsg)
			}
			if !errors.Is(f, tt.err) {
				t.Errorf("Failure does not wrap %v", tt.err)
			}
		})
	}
}

func TestClassify_KeepsFailure(t *testing.T) {
	in := &Failure{Reason: ReasonValidation, Message: "x"}
	if got := Classify(in); got != in {
		t.Errorf("Classify(*Failure) = %v, want same pointer", got)
	}
}

func TestList_ServesSecondCallFromCache(t *testing.T) {
	h := newHarness(t)
	h.transport.handler = reply(http.StatusOK, `{"users":[{"id":"u1","name":"Alice"}],"total":1,"totalPages":1}`)
	ctx := context.Background()

	first := h.catalog.Users.List(ctx, ListParams{Page: 1, Limit: 10, Search: "  ali "})
	second := h.catalog.Users.List(ctx, ListParams{Page: 1, Limit: 10, Search: "ali"})

	if !first.OK() || !second.OK() {
		t.Fatalf("List failed: %+v / %+v", first, second)
	}
	calls := h.transport.Calls()
	if len(calls) != 1 {
		t.Fatalf("transport calls = %d, want 1", len(calls))
	}
	if calls[0].Method != http.MethodGet || calls[0].Path != "/users?limit=10&page=1&search=ali" {
		t.Errorf("request = %s %s", calls[0].Method, calls[0].Path)
	}
	if got := second.Data.Records[0].Name; got != "Alice" {
		t.Errorf("record name = %q", got)
	}
}

func TestList_DefaultsAndClampsParams(t *testing.T) {
	h := newHarness(t)
	key := h.catalog.Users.Key(ListParams{Page: 0, Limit: 500})
	if key.Page != 1 || key.Limit != 100 {
		t.Errorf("Key = %+v, want page 1 limit 100", key)
	}
	key = h.catalog.Users.Key(ListParams{})
	if key.Limit != 10 {
		t.Errorf("default limit = %d, want 10", key.Limit)
	}
}

func TestList_TotalPagesFallsBackToItemCount(t *testing.T) {
	h := newHarness(t)
	h.transport.handler = reply(http.StatusOK, `{"users":[],"total":25}`)

	env := h.catalog.Users.List(context.Background(), ListParams{Page: 1, Limit: 10})
	if env.Data.TotalPages != 3 || env.Data.TotalItems != 25 {
		t.Errorf("page = %+v, want 3 pages of 25 items", env.Data)
	}
}

func TestList_UnexpectedShapeIsNotCached(t *testing.T) {
	h := newHarness(t)
	h.transport.handler = reply(http.StatusOK, `{"message":"ok"}`)

	env := h.catalog.Users.List(context.Background(), ListParams{Page: 1, Limit: 10})
	if env.OK() || env.Message != MsgUnexpected {
		t.Errorf("envelope = %+v, want failed %q", env, MsgUnexpected)
	}
	if _, ok := h.cache.Get(h.catalog.Users.Key(ListParams{Page: 1, Limit: 10})); ok {
		t.Error("failed fetch left a cache entry")
	}
}

func TestList_TransportFailureIsRetried(t *testing.T) {
	h := newHarness(t)
	h.transport.handler = func(string, string) (*Response, error) { return nil, errors.New("timeout") }
	ctx := context.Background()

	env := h.catalog.Users.List(ctx, ListParams{Page: 1, Limit: 10})
	if env.OK() || env.Message != MsgTryAgain {
		t.Errorf("envelope = %+v", env)
	}
	h.transport.handler = reply(http.StatusOK, `{"users":[]}`)
	if env := h.catalog.Users.List(ctx, ListParams{Page: 1, Limit: 10}); !env.OK() {
		t.Errorf("retry failed: %+v", env)
	}
	if n := len(h.transport.Calls()); n != 2 {
		t.Errorf("transport calls = %d, want 2", n)
	}
}

func TestList_SeasonScoped(t *testing.T) {
	h := newHarness(t)
	h.transport.handler = reply(http.StatusOK, `{"orders":[{"id":"o1","total":"12.5"}]}`)
	ctx := context.Background()

	t.Run("no active season", func(t *testing.T) {
		env := h.catalog.Orders.List(ctx, ListParams{Page: 1})
		if env.OK() || env.Message != MsgNoSeason {
			t.Errorf("envelope = %+v", env)
		}
		if n := len(h.transport.Calls()); n != 0 {
			t.Errorf("transport calls = %d, want 0", n)
		}
	})

	t.Run("active season filters and keys", func(t *testing.T) {
		h.scope.SetSeasons([]scope.Season{{ID: "s1", Name: "SS25"}, {ID: "s2", Name: "AW25"}})
		env := h.catalog.Orders.List(ctx, ListParams{Page: 1})
		if !env.OK() {
			t.Fatalf("List failed: %+v", env)
		}
		if !env.Data.Records[0].Total.Equal(decimal.RequireFromString("12.50")) {
			t.Errorf("Total = %s", env.Data.Records[0].Total)
		}
		if got := h.transport.Calls()[0].Path; !strings.Contains(got, "season_id=s1") {
			t.Errorf("path = %q, want season_id=s1", got)
		}

		h.scope.SetActiveSeason(scope.Season{ID: "s2", Name: "AW25"})
		h.catalog.Orders.List(ctx, ListParams{Page: 1})
		calls := h.transport.Calls()
		if len(calls) != 2 || !strings.Contains(calls[1].Path, "season_id=s2") {
			t.Errorf("season switch did not refetch under s2: %v", calls)
		}
	})
}

func TestDeleteSeason_SettlesOnceEitherWay(t *testing.T) {
	tests := []struct {
		name    string
		handler func(string, string) (*Response, error)
		want    Status
		level   notify.Level
		msg     string
	}{
		{"success", reply(http.StatusOK, `{"message":"Season deleted successfully"}`), StatusSuccess, notify.LevelSuccess, "Season deleted successfully"},
		{"server failure", reject(http.StatusConflict, `{"message":"Season has orders"}`), StatusFailed, notify.LevelError, "Season has orders"},
		{"no response", func(string, string) (*Response, error) { return nil, errors.New("reset") }, StatusFailed, notify.LevelError, MsgTryAgain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.transport.handler = tt.handler

			env := h.catalog.Seasons.Delete(context.Background(), "s1")

			if env.Status != tt.want || env.Message != tt.msg {
				t.Errorf("envelope = %+v, want %s %q", env, tt.want, tt.msg)
			}
			if got := h.inval.Count(rescache.KindSeasons); got != 1 {
				t.Errorf("seasons invalidations = %d, want 1", got)
			}
			if got := h.inval.Count(rescache.KindUsers); got != 0 {
				t.Errorf("users invalidations = %d, want 0", got)
			}
			notes := h.queue.Active()
			if len(notes) != 1 {
				t.Fatalf("notifications = %d, want 1", len(notes))
			}
			if notes[0].Level != tt.level || notes[0].Message != tt.msg {
				t.Errorf("notification = %+v", notes[0])
			}
			if c := h.transport.Calls()[0]; c.Method != http.MethodDelete || c.Path != "/seasons/s1" {
				t.Errorf("request = %s %s", c.Method, c.Path)
			}
		})
	}
}

func TestMutation_RefetchesAfterSettlement(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.transport.handler = reply(http.StatusOK, `{"users":[{"id":"u1"}]}`)
	h.catalog.Users.List(ctx, ListParams{Page: 1, Limit: 10})

	h.transport.handler = reply(http.StatusOK, `{"message":"User updated","user":{"id":"u1","active":false}}`)
	env := h.catalog.Users.Toggle(ctx, "u1")
	if !env.OK() || env.Data.Active {
		t.Fatalf("Toggle = %+v", env)
	}

	h.transport.handler = reply(http.StatusOK, `{"users":[{"id":"u1","active":false}]}`)
	h.catalog.Users.List(ctx, ListParams{Page: 1, Limit: 10})

	calls := h.transport.Calls()
	if len(calls) != 3 {
		t.Fatalf("transport calls = %d, want 3 (list, toggle, refetch)", len(calls))
	}
	if calls[1].Method != http.MethodPut || calls[1].Path != "/users/u1/toggle" {
		t.Errorf("toggle request = %s %s", calls[1].Method, calls[1].Path)
	}
}

func TestCreate_ValidationMessageVerbatim(t *testing.T) {
	h := newHarness(t)
	h.transport.handler = reject(http.StatusBadRequest, `{"errors":[{"message":"Email already taken"}]}`)

	env := h.catalog.Users.Create(context.Background(), UserInput{Name: "Alice", Email: "a@x"})

	if env.OK() || env.Message != "Email already taken" {
		t.Errorf("envelope = %+v", env)
	}
	if got := h.inval.Count(rescache.KindUsers); got != 1 {
		t.Errorf("invalidations = %d, want 1", got)
	}
	c := h.transport.Calls()[0]
	if in, ok := c.Body.(UserInput); !ok || in.Email != "a@x" {
		t.Errorf("body = %#v", c.Body)
	}
}

func TestCreate_SuccessWithoutItemIsUnexpected(t *testing.T) {
	h := newHarness(t)
	h.transport.handler = reply(http.StatusCreated, `{"message":"created"}`)

	env := h.catalog.Seasons.Create(context.Background(), SeasonInput{Name: "SS26"})
	if env.OK() || env.Message != MsgUnexpected {
		t.Errorf("envelope = %+v", env)
	}
	if notes := h.queue.Active(); len(notes) != 1 || notes[0].Level != notify.LevelError {
		t.Errorf("notifications = %+v", notes)
	}
}

func TestCreate_SeasonScopedUsesActiveSeason(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.transport.handler = reply(http.StatusCreated, `{"stockReturn":{"id":"r1","amount":"3.20"}}`)

	if env := h.catalog.StockReturns.Create(ctx, StockReturnInput{Reference: "R-1"}); env.Message != MsgNoSeason {
		t.Errorf("without season: %+v", env)
	}
	if n := len(h.transport.Calls()); n != 0 {
		t.Fatalf("transport calls = %d, want 0", n)
	}

	h.scope.SetSeasons([]scope.Season{{ID: "s9", Name: "AW26"}})
	env := h.catalog.StockReturns.Create(ctx, StockReturnInput{Reference: "R-1"})
	if !env.OK() || env.Message != "Stock return created." {
		t.Errorf("envelope = %+v", env)
	}
	if got := h.transport.Calls()[0].Path; got != "/stock-returns?season_id=s9" {
		t.Errorf("path = %q", got)
	}
	if got := h.inval.Count(rescache.KindStockReturns); got != 2 {
		t.Errorf("invalidations = %d, want 2", got)
	}
}

func TestToggle_NotToggleable(t *testing.T) {
	h := newHarness(t)
	env := h.catalog.Orders.Toggle(context.Background(), "o1")
	if env.OK() {
		t.Fatal("Toggle on orders succeeded")
	}
	if n := len(h.transport.Calls()); n != 0 {
		t.Errorf("transport calls = %d, want 0", n)
	}
	if got := h.inval.Count(rescache.KindOrders); got != 1 {
		t.Errorf("invalidations = %d, want 1", got)
	}
}

func TestSessionMe_SetsIdentity(t *testing.T) {
	h := newHarness(t)
	h.transport.handler = reply(http.StatusOK, `{"user":{"id":"u7","name":"Bob","email":"bob@x","role":"admin"}}`)

	env := h.catalog.Session.Me(context.Background())
	if !env.OK() {
		t.Fatalf("Me = %+v", env)
	}
	id, ok := h.scope.Identity()
	if !ok || id.ID != "u7" || id.Role != "admin" {
		t.Errorf("identity = %+v, %v", id, ok)
	}
}

func TestSyncSeasons_DefaultsActiveSeason(t *testing.T) {
	h := newHarness(t)
	h.transport.handler = reply(http.StatusOK, `{"seasons":[{"id":"s1","name":"SS25"},{"id":"s2","name":"AW25"}]}`)

	env := h.catalog.SyncSeasons(context.Background())
	if !env.OK() || len(env.Data) != 2 {
		t.Fatalf("SyncSeasons = %+v", env)
	}
	if got := h.scope.ActiveSeasonID(); got != "s1" {
		t.Errorf("active season = %q, want s1", got)
	}
	if got := h.transport.Calls()[0].Path; !strings.Contains(got, "limit=100") {
		t.Errorf("path = %q, want limit=100", got)
	}
}
