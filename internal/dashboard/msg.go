// Package dashboard implements a two-pane TUI for browsing the back-office
// resources: paged tables per resource kind, a season picker, search, and
// delete/toggle mutations with transient notifications.
package dashboard

import (
	"context"
	"time"

	"github.com/smileynet/atelier/internal/api"
	"github.com/smileynet/atelier/internal/rescache"
	"github.com/smileynet/atelier/internal/selector"
)

// Mode represents the current dashboard view mode.
type Mode int

const (
	ModeBrowse    Mode = iota // Browsing a resource table.
	ModeSearch                // Editing the table's search text.
	ModePicker                // Season picker open.
	ModeConfirm               // Confirming a delete.
	ModeLoggedOut             // Scope cleared; only quit remains.
)

// Focus represents which pane has keyboard focus.
type Focus int

const (
	PaneLeft  Focus = iota // Left pane (resource tabs and scope) has focus.
	PaneRight              // Right pane (table) has focus.
)

// --- Consumer-side interfaces ---

// TableSource resolves resource kinds to tables.
type TableSource interface {
	Kinds() []rescache.Kind
	Table(kind rescache.Kind) (api.Table, error)
}

// SeasonSyncer reloads the season list into the scope.
type SeasonSyncer interface {
	SyncSeasons(ctx context.Context) api.Envelope[[]api.Season]
}

// IdentityLoader fetches the logged-in user into the scope.
type IdentityLoader interface {
	Me(ctx context.Context) api.Envelope[api.User]
}

// CacheInvalidator drops cached pages.
type CacheInvalidator interface {
	Invalidate(kind rescache.Kind) int
	InvalidateAll()
}

// --- tea.Msg types ---

// RowsMsg carries one fetched table page.
type RowsMsg struct {
	Kind   rescache.Kind
	Params api.ListParams
	Season string // active season when requested; empty for unscoped kinds
	Env    api.Envelope[api.TablePage]
}

// SeasonsMsg carries the result of a season sync.
type SeasonsMsg struct {
	Env api.Envelope[[]api.Season]
}

// IdentityMsg carries the result of loading the logged-in user.
type IdentityMsg struct {
	Env api.Envelope[api.User]
}

// MutationMsg carries a settled delete or toggle.
type MutationMsg struct {
	Kind rescache.Kind
	Op   string
	Env  api.Envelope[struct{}]
}

// SearchTickMsg fires when a picker search debounce interval ends.
type SearchTickMsg struct {
	Ticket selector.Ticket
	At     time.Time
}

// NoticeTickMsg re-renders notifications so expired ones disappear.
type NoticeTickMsg struct{}
