package dashboard

import (
	"fmt"
	"strings"

	"github.com/smileynet/atelier/internal/api"
	"github.com/smileynet/atelier/internal/rescache"
)

// confirmState holds the data needed for the delete confirmation screen.
type confirmState struct {
	kind  rescache.Kind
	title string // Table title, e.g. "Seasons".
	row   api.Row
}

// label describes the row by its first cell, falling back to its id.
func (cs confirmState) label() string {
	if len(cs.row.Cells) > 0 && cs.row.Cells[0] != "" {
		return cs.row.Cells[0]
	}
	return cs.row.ID
}

// View renders the confirmation screen for the given dimensions.
func (cs confirmState) View(width, height int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Delete from %s?\n", strings.ToLower(cs.title))
	fmt.Fprintf(&b, "\n  %s\n", cs.label())
	fmt.Fprintf(&b, "\n  %s\n", mutedText.Render("id "+cs.row.ID))
	if cs.kind == rescache.KindSeasons {
		b.WriteString("\n  Records scoped to this season may become unreachable.")
	}
	b.WriteString("\n\n  [Enter] Confirm   [Esc] Cancel")
	return b.String()
}
