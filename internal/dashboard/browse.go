package dashboard

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/smileynet/atelier/internal/api"
	"github.com/smileynet/atelier/internal/pager"
	"github.com/smileynet/atelier/internal/rescache"
)

// CursorMarker is the prefix shown on the selected row.
const CursorMarker = "▸ "

// browseState manages one resource table: its paging parameters, rows,
// cursor, and loading/error states.
type browseState struct {
	kind       rescache.Kind
	title      string
	columns    []string
	params     api.ListParams
	season     string // season the latest request was scoped to
	rows       []api.Row
	totalPages int
	totalItems int
	cursor     int
	loading    bool
	err        string
}

// newBrowseState returns a browseState for t on page 1, in the loading state.
func newBrowseState(t api.Table, limit int) browseState {
	return browseState{
		kind:       t.Kind(),
		title:      t.Title(),
		columns:    t.Columns(),
		params:     api.ListParams{Page: 1, Limit: limit},
		totalPages: 1,
		loading:    true,
	}
}

// loadRows returns a tea.Cmd that lists one page of t asynchronously and
// wraps the result in a RowsMsg tagged with season.
func loadRows(ctx context.Context, t api.Table, p api.ListParams, season string) tea.Cmd {
	return func() tea.Msg {
		return RowsMsg{Kind: t.Kind(), Params: p, Season: season, Env: t.Rows(ctx, p)}
	}
}

// applyRows applies a fetched page. Pages for another kind, other
// parameters or another season are stale and ignored.
func (bs browseState) applyRows(msg RowsMsg) browseState {
	if msg.Kind != bs.kind || msg.Params != bs.params || msg.Season != bs.season {
		return bs
	}
	bs.loading = false
	if !msg.Env.OK() {
		bs.err = msg.Env.Message
		bs.rows = nil
		return bs
	}
	bs.err = ""
	bs.rows = append([]api.Row(nil), msg.Env.Data.Rows...)
	bs.totalPages = max(msg.Env.Data.TotalPages, 1)
	bs.totalItems = msg.Env.Data.TotalItems
	if bs.cursor >= len(bs.rows) {
		bs.cursor = max(len(bs.rows)-1, 0)
	}
	return bs
}

// move shifts the cursor by delta, wrapping at both ends.
func (bs browseState) move(delta int) browseState {
	if len(bs.rows) == 0 {
		return bs
	}
	bs.cursor = (bs.cursor + delta + len(bs.rows)) % len(bs.rows)
	return bs
}

// turnPage moves to page+delta. It reports whether the page changed.
func (bs browseState) turnPage(delta int) (browseState, bool) {
	next := pager.ClampPage(bs.params.Page+delta, bs.totalPages)
	if next == bs.params.Page {
		return bs, false
	}
	bs.params.Page = next
	bs.cursor = 0
	bs.loading = true
	return bs, true
}

// withSearch sets the search text and returns to page 1. It reports
// whether anything changed.
func (bs browseState) withSearch(search string) (browseState, bool) {
	search = strings.TrimSpace(search)
	if search == bs.params.Search {
		return bs, false
	}
	bs.params.Search = search
	bs.params.Page = 1
	bs.cursor = 0
	bs.loading = true
	return bs, true
}

// SelectedRow returns the row at the cursor.
func (bs browseState) SelectedRow() (api.Row, bool) {
	if bs.loading || len(bs.rows) == 0 || bs.cursor < 0 || bs.cursor >= len(bs.rows) {
		return api.Row{}, false
	}
	return bs.rows[bs.cursor], true
}

// View renders the table pane content for the given dimensions.
// spinnerView is the current spinner frame (may be empty when spinner is inactive).
func (bs browseState) View(width, height int, spinnerView string) string {
	var b strings.Builder
	b.WriteString(headerText.Render(bs.title))
	if bs.params.Search != "" {
		b.WriteString(mutedText.Render(fmt.Sprintf("  search: %q", bs.params.Search)))
	}
	b.WriteString("\n\n")

	switch {
	case bs.loading:
		fmt.Fprintf(&b, "%s Loading %s...", spinnerView, strings.ToLower(bs.title))
		return b.String()
	case bs.err != "":
		fmt.Fprintf(&b, "Error: %s\n\nPress r to retry", bs.err)
		return b.String()
	case len(bs.rows) == 0:
		b.WriteString("No records")
		if bs.params.Search != "" {
			b.WriteString(" match the search")
		}
		return b.String()
	}

	b.WriteString(renderTable(bs.columns, bs.rows, bs.cursor))
	b.WriteString("\n\n")
	b.WriteString(renderPagination(bs.params.Page, bs.totalPages))
	fmt.Fprintf(&b, "\n%s", mutedText.Render(fmt.Sprintf("%d records", bs.totalItems)))
	return b.String()
}

// renderTable lays rows out in left-aligned columns sized to their content.
func renderTable(columns []string, rows []api.Row, cursor int) string {
	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = lipgloss.Width(c)
	}
	for _, r := range rows {
		for i := 0; i < len(widths) && i < len(r.Cells); i++ {
			widths[i] = max(widths[i], lipgloss.Width(r.Cells[i]))
		}
	}

	var b strings.Builder
	b.WriteString("  ")
	b.WriteString(headerText.Render(joinCells(columns, widths)))
	for i, r := range rows {
		b.WriteByte('\n')
		if i == cursor {
			b.WriteString(CursorMarker)
		} else {
			b.WriteString("  ")
		}
		b.WriteString(joinCells(r.Cells, widths))
	}
	return b.String()
}

func joinCells(cells []string, widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		var cell string
		if i < len(cells) {
			cell = cells[i]
		}
		parts[i] = cell + strings.Repeat(" ", max(w-lipgloss.Width(cell), 0))
	}
	return strings.TrimRight(strings.Join(parts, "  "), " ")
}

// renderPagination renders the page window with the current page
// highlighted, e.g. "1 … 4 [5] 6 … 20".
func renderPagination(page, total int) string {
	items := pager.Window(page, total)
	labels := pager.Labels(items, page)
	for i, it := range items {
		if !it.Ellipsis && it.Page == page {
			labels[i] = currentPage.Render(labels[i])
		}
	}
	return strings.Join(labels, " ")
}
