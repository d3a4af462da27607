package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/smileynet/atelier/internal/api"
	"github.com/smileynet/atelier/internal/notify"
	"github.com/smileynet/atelier/internal/rescache"
	"github.com/smileynet/atelier/internal/scope"
	"github.com/smileynet/atelier/internal/selector"
)

// helpBarHeight is the number of lines reserved for the help bar at the bottom.
const helpBarHeight = 1

// noticeBarHeight is the number of lines reserved for notifications.
const noticeBarHeight = 1

// borderChrome is the number of lines consumed by top + bottom borders.
const borderChrome = 2

// noticeRefresh is how often the notification bar re-renders while it
// shows anything.
const noticeRefresh = 500 * time.Millisecond

// Deps are the collaborators the dashboard drives.
type Deps struct {
	Tables    TableSource
	Seasons   SeasonSyncer
	Session   IdentityLoader // Optional.
	Scope     *scope.Store
	Cache     CacheInvalidator
	Notices   *notify.Queue
	PageLimit int
	Debounce  time.Duration
}

// Model is the root Bubble Tea model for the dashboard TUI.
// It manages a two-pane layout with mode-based routing and focus management.
type Model struct {
	ctx     context.Context
	deps    Deps
	mode    Mode
	focus   Focus
	width   int
	height  int
	kinds   []rescache.Kind
	tab     int
	browse  browseState
	search  textinput.Model
	picker  pickerState
	confirm confirmState
	seasons []api.Season
	spinner spinner.Model
	help    help.Model
	now     func() time.Time
}

// NewModel creates a dashboard Model in browse mode on the first table.
func NewModel(ctx context.Context, deps Deps) Model {
	if deps.Scope == nil {
		deps.Scope = scope.New()
	}
	if deps.Notices == nil {
		deps.Notices = notify.NewQueue(0)
	}
	if deps.Debounce <= 0 {
		deps.Debounce = selector.DefaultQuiescence
	}

	s := spinner.New()
	s.Spinner = spinner.Dot

	ti := textinput.New()
	ti.Placeholder = "search"
	ti.Prompt = "/ "

	m := Model{
		ctx:     ctx,
		deps:    deps,
		mode:    ModeBrowse,
		focus:   PaneRight,
		kinds:   deps.Tables.Kinds(),
		search:  ti,
		picker:  newPickerState(deps.Debounce),
		spinner: s,
		help:    help.New(),
		now:     time.Now,
	}
	if t, ok := m.table(); ok {
		m.browse = newBrowseState(t, deps.PageLimit)
		m.browse.season = m.seasonFor(t)
	}
	return m
}

// Init loads the identity, the seasons and the first table.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, m.loadSeasons(), m.request()}
	if m.deps.Session != nil {
		session, ctx := m.deps.Session, m.ctx
		cmds = append(cmds, func() tea.Msg { return IdentityMsg{Env: session.Me(ctx)} })
	}
	return tea.Batch(cmds...)
}

// Update handles incoming messages with mode-based routing.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case RowsMsg:
		m.browse = m.browse.applyRows(msg)
		return m.resyncSeason()

	case SeasonsMsg:
		return m.applySeasons(msg)

	case IdentityMsg:
		return m, nil

	case MutationMsg:
		return m.applyMutation(msg)

	case SearchTickMsg:
		if m.mode == ModePicker {
			m.picker = m.picker.fire(msg)
		}
		return m, nil

	case NoticeTickMsg:
		if len(m.deps.Notices.Active()) == 0 {
			return m, nil
		}
		return m, noticeTick()

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// handleKey processes key messages with global and mode-specific routing.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	switch m.mode {
	case ModeSearch:
		return m.handleSearchKey(msg)
	case ModePicker:
		return m.handlePickerKey(msg)
	case ModeConfirm:
		return m.handleConfirmKey(msg)
	case ModeLoggedOut:
		if msg.String() == "q" {
			return m, tea.Quit
		}
		return m, nil
	}
	return m.handleBrowseKey(msg)
}

func (m Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "up", "k":
		m.browse = m.browse.move(-1)
	case "down", "j":
		m.browse = m.browse.move(1)

	case "left", "h", "right", "l":
		delta := 1
		if s := msg.String(); s == "left" || s == "h" {
			delta = -1
		}
		var changed bool
		if m.browse, changed = m.browse.turnPage(delta); changed {
			return m.reload()
		}

	case "tab", "shift+tab":
		if len(m.kinds) < 2 {
			return m, nil
		}
		delta := 1
		if msg.String() == "shift+tab" {
			delta = -1
		}
		return m.switchTab((m.tab + delta + len(m.kinds)) % len(m.kinds))

	case "/":
		m.mode = ModeSearch
		m.search.SetValue(m.browse.params.Search)
		m.search.CursorEnd()
		return m, m.search.Focus()

	case "s":
		activeID := m.deps.Scope.ActiveSeasonID()
		var ok bool
		if m.picker, ok = m.picker.open(m.seasons, activeID); ok {
			m.mode = ModePicker
		}

	case "d":
		if row, ok := m.browse.SelectedRow(); ok {
			m.confirm = confirmState{kind: m.browse.kind, title: m.browse.title, row: row}
			m.mode = ModeConfirm
		}

	case "t":
		t, ok := m.table()
		row, selected := m.browse.SelectedRow()
		if !ok || !selected || !t.Toggleable() {
			return m, nil
		}
		ctx := m.ctx
		return m, func() tea.Msg {
			return MutationMsg{Kind: t.Kind(), Op: "toggle", Env: t.ToggleRow(ctx, row.ID)}
		}

	case "r":
		if m.deps.Cache != nil {
			m.deps.Cache.Invalidate(m.browse.kind)
		}
		m.browse.loading = true
		m.browse.err = ""
		return m.reload()

	case "L":
		return m.logout()
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.search.Blur()
		m.mode = ModeBrowse
		return m, nil
	case "enter":
		m.search.Blur()
		m.mode = ModeBrowse
		var changed bool
		if m.browse, changed = m.browse.withSearch(m.search.Value()); changed {
			return m.reload()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m Model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.picker = m.picker.dismiss()
		m.mode = ModeBrowse
		return m, nil
	case "up":
		m.picker = m.picker.move(-1)
		return m, nil
	case "down":
		m.picker = m.picker.move(1)
		return m, nil
	case "enter":
		var (
			season api.Season
			ok     bool
		)
		m.picker, season, ok = m.picker.choose()
		if !ok {
			return m, nil
		}
		m.mode = ModeBrowse
		return m.activateSeason(season)
	}
	var cmd tea.Cmd
	m.picker, cmd = m.picker.typed(msg, m.now())
	return m, cmd
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "n":
		m.mode = ModeBrowse
		return m, nil
	case "enter", "y":
		m.mode = ModeBrowse
		t, err := m.deps.Tables.Table(m.confirm.kind)
		if err != nil {
			return m, nil
		}
		ctx, id := m.ctx, m.confirm.row.ID
		return m, func() tea.Msg {
			return MutationMsg{Kind: t.Kind(), Op: "delete", Env: t.Delete(ctx, id)}
		}
	}
	return m, nil
}

// handleMouse dismisses the picker on a click outside it. The picker
// occupies the right pane.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.mode != ModePicker || msg.Action != tea.MouseActionPress {
		return m, nil
	}
	left, _ := PaneWidths(m.width)
	if msg.X >= left && msg.Y < m.paneHeight() {
		return m, nil
	}
	m.picker = m.picker.dismiss()
	m.mode = ModeBrowse
	return m, nil
}

// activateSeason makes season the scope's active season and reloads the
// table when it is season-scoped.
func (m Model) activateSeason(season api.Season) (tea.Model, tea.Cmd) {
	if !m.deps.Scope.SetActiveSeason(season.Scope()) {
		return m, nil
	}
	if t, ok := m.table(); ok && t.SeasonScoped() {
		m.browse = newBrowseState(t, m.deps.PageLimit)
		return m.reload()
	}
	return m, nil
}

func (m Model) applySeasons(msg SeasonsMsg) (tea.Model, tea.Cmd) {
	if !msg.Env.OK() {
		return m, nil
	}
	m.seasons = append([]api.Season(nil), msg.Env.Data...)
	return m.resyncSeason()
}

// resyncSeason reloads a season-scoped table whose last request targeted
// another season than the active one. This covers a table that failed for
// lack of a season and a season sync that replaced the active season.
func (m Model) resyncSeason() (Model, tea.Cmd) {
	t, ok := m.table()
	if !ok || m.browse.season == m.seasonFor(t) {
		return m, nil
	}
	m.browse.cursor = 0
	m.browse.loading = true
	m.browse.err = ""
	return m.reload()
}

// applyMutation refreshes what the settled mutation may have changed. The
// resource layer has already invalidated the kind and queued the notice.
func (m Model) applyMutation(msg MutationMsg) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{noticeTick()}
	if msg.Kind == m.browse.kind {
		m.browse.loading = true
		var cmd tea.Cmd
		m, cmd = m.reload()
		cmds = append(cmds, cmd)
	}
	if msg.Kind == rescache.KindSeasons {
		cmds = append(cmds, m.loadSeasons())
	}
	return m, tea.Batch(cmds...)
}

func (m Model) switchTab(tab int) (tea.Model, tea.Cmd) {
	m.tab = tab
	t, ok := m.table()
	if !ok {
		return m, nil
	}
	m.browse = newBrowseState(t, m.deps.PageLimit)
	return m.reload()
}

// logout clears the scope and every cached page at once.
func (m Model) logout() (tea.Model, tea.Cmd) {
	m.deps.Scope.Reset()
	if m.deps.Cache != nil {
		m.deps.Cache.InvalidateAll()
	}
	m.seasons = nil
	m.browse.rows = nil
	m.mode = ModeLoggedOut
	return m, nil
}

// table returns the table of the current tab.
func (m Model) table() (api.Table, bool) {
	if m.tab < 0 || m.tab >= len(m.kinds) {
		return nil, false
	}
	t, err := m.deps.Tables.Table(m.kinds[m.tab])
	if err != nil {
		return nil, false
	}
	return t, true
}

// reload fetches the current page of the current table under the active
// season, recording that season so replies for another one are dropped.
func (m Model) reload() (Model, tea.Cmd) {
	t, ok := m.table()
	if !ok {
		return m, nil
	}
	m.browse.season = m.seasonFor(t)
	return m, loadRows(m.ctx, t, m.browse.params, m.browse.season)
}

// request fetches the current page for the season already recorded.
func (m Model) request() tea.Cmd {
	t, ok := m.table()
	if !ok {
		return nil
	}
	return loadRows(m.ctx, t, m.browse.params, m.browse.season)
}

// seasonFor returns the season id a request on t is scoped to.
func (m Model) seasonFor(t api.Table) string {
	if !t.SeasonScoped() {
		return ""
	}
	return m.deps.Scope.ActiveSeasonID()
}

func (m Model) loadSeasons() tea.Cmd {
	if m.deps.Seasons == nil {
		return nil
	}
	syncer, ctx := m.deps.Seasons, m.ctx
	return func() tea.Msg { return SeasonsMsg{Env: syncer.SyncSeasons(ctx)} }
}

func noticeTick() tea.Cmd {
	return tea.Tick(noticeRefresh, func(time.Time) tea.Msg { return NoticeTickMsg{} })
}

// paneHeight returns the outer height of the panes, borders included.
func (m Model) paneHeight() int {
	return m.contentHeight() + borderChrome
}

// contentHeight returns the usable height for pane content,
// accounting for border chrome, notifications and the help bar.
func (m Model) contentHeight() int {
	h := m.height - borderChrome - noticeBarHeight - helpBarHeight
	if h < 1 {
		return 1
	}
	return h
}

// View renders the two-pane layout with notification and help bars.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	leftWidth, rightWidth := PaneWidths(m.width)
	contentHeight := m.contentHeight()

	var leftStyle, rightStyle lipgloss.Style
	if m.focus == PaneLeft {
		leftStyle = FocusedBorder()
		rightStyle = UnfocusedBorder()
	} else {
		leftStyle = UnfocusedBorder()
		rightStyle = FocusedBorder()
	}

	leftStyle = leftStyle.
		Width(leftWidth - borderChrome).
		Height(contentHeight)
	rightStyle = rightStyle.
		Width(rightWidth - borderChrome).
		Height(contentHeight)

	leftPane := leftStyle.Render(m.viewLeft())
	rightPane := rightStyle.Render(m.viewRight(rightWidth-borderChrome, contentHeight))
	panes := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, rightPane)

	toggleable := false
	if t, ok := m.table(); ok {
		toggleable = t.Toggleable()
	}
	helpView := m.help.View(HelpBindings(m.mode, toggleable))

	return lipgloss.JoinVertical(lipgloss.Left, panes, m.viewNotices(), helpView)
}

// viewLeft renders the resource tabs and the current scope.
func (m Model) viewLeft() string {
	var b strings.Builder
	for i, kind := range m.kinds {
		title := string(kind)
		if t, err := m.deps.Tables.Table(kind); err == nil {
			title = t.Title()
		}
		if i == m.tab {
			b.WriteString(CursorMarker + activeTab.Render(title))
		} else {
			b.WriteString("  " + title)
		}
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	season := "none"
	if s, ok := m.deps.Scope.ActiveSeason(); ok {
		season = s.Name
	}
	fmt.Fprintf(&b, "Season: %s\n", season)
	if id, ok := m.deps.Scope.Identity(); ok {
		fmt.Fprintf(&b, "%s\n", mutedText.Render(id.Name+" ("+id.Role+")"))
	}
	return b.String()
}

// viewRight renders the right pane content based on mode.
func (m Model) viewRight(width, height int) string {
	switch m.mode {
	case ModePicker:
		return m.picker.View(width, height)
	case ModeConfirm:
		return m.confirm.View(width, height)
	case ModeLoggedOut:
		return "Logged out.\n\nPress q to quit."
	case ModeSearch:
		return m.search.View() + "\n\n" + m.browse.View(width, height-2, m.spinner.View())
	default:
		return m.browse.View(width, height, m.spinner.View())
	}
}

// viewNotices renders the newest active notification, if any.
func (m Model) viewNotices() string {
	active := m.deps.Notices.Active()
	if len(active) == 0 {
		return ""
	}
	n := active[len(active)-1]
	return NoticeStyle(n.Level).Render(n.Message)
}
