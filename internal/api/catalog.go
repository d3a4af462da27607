package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/smileynet/atelier/internal/rescache"
	"github.com/smileynet/atelier/internal/scope"
)

// SeasonSyncLimit is the page size used to load every season into the scope.
const SeasonSyncLimit = 100

// Definitions of the server's resource kinds.
var (
	UsersDef = Definition[User]{
		Kind:       rescache.KindUsers,
		Title:      "Users",
		Noun:       "User",
		Path:       "/users",
		ListField:  "users",
		ItemField:  "user",
		Toggleable: true,
		Columns:    []string{"Name", "Email", "Role", "Active"},
		Row: func(u User) []string {
			return []string{u.Name, u.Email, u.Role, yesNo(u.Active)}
		},
	}
	SeasonsDef = Definition[Season]{
		Kind:       rescache.KindSeasons,
		Title:      "Seasons",
		Noun:       "Season",
		Path:       "/seasons",
		ListField:  "seasons",
		ItemField:  "season",
		Toggleable: true,
		Columns:    []string{"Name", "Year", "Active"},
		Row: func(s Season) []string {
			return []string{s.Name, strconv.Itoa(s.Year), yesNo(s.Active)}
		},
	}
	StockReturnsDef = Definition[StockReturn]{
		Kind:         rescache.KindStockReturns,
		Title:        "Stock returns",
		Noun:         "Stock return",
		Path:         "/stock-returns",
		ListField:    "stockReturns",
		ItemField:    "stockReturn",
		SeasonScoped: true,
		Columns:      []string{"Reference", "Faconnier", "Quantity", "Amount"},
		Row: func(r StockReturn) []string {
			return []string{r.Reference, r.FaconnierID, strconv.Itoa(r.Quantity), r.Amount.StringFixed(2)}
		},
	}
	OrdersDef = Definition[Order]{
		Kind:         rescache.KindOrders,
		Title:        "Orders",
		Noun:         "Order",
		Path:         "/orders",
		ListField:    "orders",
		ItemField:    "order",
		SeasonScoped: true,
		Columns:      []string{"Reference", "Client", "Quantity", "Total", "Status"},
		Row: func(o Order) []string {
			return []string{o.Reference, o.ClientID, strconv.Itoa(o.Quantity), o.Total.StringFixed(2), o.Status}
		},
	}
)

// Catalog holds one resource per kind over shared dependencies.
type Catalog struct {
	Users        *Resource[User, UserInput]
	Seasons      *Resource[Season, SeasonInput]
	StockReturns *Resource[StockReturn, StockReturnInput]
	Orders       *Resource[Order, OrderInput]
	Session      *Session

	deps Deps
}

// NewCatalog builds every resource over deps.
func NewCatalog(deps Deps) *Catalog {
	deps = deps.withDefaults()
	return &Catalog{
		Users:        NewResource[User, UserInput](UsersDef, deps),
		Seasons:      NewResource[Season, SeasonInput](SeasonsDef, deps),
		StockReturns: NewResource[StockReturn, StockReturnInput](StockReturnsDef, deps),
		Orders:       NewResource[Order, OrderInput](OrdersDef, deps),
		Session:      NewSession(deps.Transport, deps.Scope),
		deps:         deps,
	}
}

// Registry returns a registry of every resource, in tab order.
func (c *Catalog) Registry() *Registry {
	reg := NewRegistry()
	reg.Register(c.Users)
	reg.Register(c.Seasons)
	reg.Register(c.StockReturns)
	reg.Register(c.Orders)
	return reg
}

// SyncSeasons loads the first SeasonSyncLimit seasons into the scope, which
// keeps or defaults the active season.
func (c *Catalog) SyncSeasons(ctx context.Context) Envelope[[]Season] {
	env := c.Seasons.List(ctx, ListParams{Page: 1, Limit: SeasonSyncLimit})
	if !env.OK() {
		return Envelope[[]Season]{Status: env.Status, Message: env.Message}
	}
	scoped := make([]scope.Season, 0, len(env.Data.Records))
	for _, s := range env.Data.Records {
		scoped = append(scoped, s.Scope())
	}
	c.deps.Scope.SetSeasons(scoped)
	c.deps.Logger.Debug("seasons synced", slog.Int("count", len(scoped)))
	return Envelope[[]Season]{Status: StatusSuccess, Data: env.Data.Records}
}

// Session loads the logged-in identity.
type Session struct {
	transport Transport
	scope     *scope.Store
}

// NewSession creates a Session writing into store.
func NewSession(t Transport, store *scope.Store) *Session {
	return &Session{transport: t, scope: store}
}

// Me fetches the current user and records it as the scope's identity.
func (s *Session) Me(ctx context.Context) Envelope[User] {
	resp, err := s.transport.Do(ctx, http.MethodGet, "/auth/me", nil)
	if err != nil {
		return failed[User](err)
	}
	var u User
	if err := decodeField(resp.Data, "user", false, &u); err != nil {
		return failed[User](err)
	}
	s.scope.SetIdentity(u.Identity())
	return Envelope[User]{Status: StatusSuccess, Message: message(resp.Data, ""), Data: u}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
