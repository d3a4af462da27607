package dashboard

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/atelier/internal/api"
	"github.com/smileynet/atelier/internal/selector"
)

// seasonFields are the season attributes the picker search matches.
var seasonFields = []selector.Field[api.Season]{
	selector.Text("name", func(s api.Season) string { return s.Name }),
	selector.Number("year", func(s api.Season) int { return s.Year }),
}

// pickerState is the season picker: a searchable selector over the known
// seasons with a debounced query.
type pickerState struct {
	sel      *selector.Selector[api.Season]
	input    textinput.Model
	cursor   int
	activeID string
}

// newPickerState returns a closed picker whose search commits after the
// given quiet interval.
func newPickerState(debounce time.Duration) pickerState {
	ti := textinput.New()
	ti.Placeholder = "search seasons"
	ti.Prompt = "/ "
	return pickerState{
		sel:   selector.New(nil, seasonFields, selector.WithDebounce[api.Season](debounce)),
		input: ti,
	}
}

// open shows the picker over seasons with the cursor on activeID.
// It reports false when there is nothing to pick.
func (ps pickerState) open(seasons []api.Season, activeID string) (pickerState, bool) {
	ps.sel.SetCandidates(seasons)
	ps.sel.SetDisabled(len(seasons) == 0)
	if !ps.sel.Open() {
		return ps, false
	}
	ps.input.SetValue("")
	ps.input.Focus()
	ps.activeID = activeID
	ps.cursor = 0
	for i, s := range ps.sel.Visible() {
		if s.ID == ps.activeID {
			ps.cursor = i
		}
	}
	return ps, true
}

// dismiss closes the picker and clears its query.
func (ps pickerState) dismiss() pickerState {
	ps.sel.Dismiss()
	ps.input.SetValue("")
	ps.input.Blur()
	ps.cursor = 0
	return ps
}

// move shifts the cursor within the visible seasons, wrapping at both ends.
func (ps pickerState) move(delta int) pickerState {
	n := len(ps.sel.Visible())
	if n == 0 {
		return ps
	}
	ps.cursor = (ps.cursor + delta + n) % n
	return ps
}

// choose selects the season under the cursor and closes the picker.
func (ps pickerState) choose() (pickerState, api.Season, bool) {
	visible := ps.sel.Visible()
	if ps.cursor < 0 || ps.cursor >= len(visible) {
		return ps, api.Season{}, false
	}
	season := visible[ps.cursor]
	ps.sel.Select(season)
	ps.input.SetValue("")
	ps.input.Blur()
	ps.cursor = 0
	return ps, season, true
}

// typed forwards a keystroke to the search input. When the text changed it
// returns a tick delivering the debounce ticket at its deadline.
func (ps pickerState) typed(msg tea.KeyMsg, now time.Time) (pickerState, tea.Cmd) {
	before := ps.input.Value()
	var cmd tea.Cmd
	ps.input, cmd = ps.input.Update(msg)
	if ps.input.Value() == before {
		return ps, cmd
	}
	ticket, ok := ps.sel.SetQuery(ps.input.Value(), now)
	if !ok {
		ps.cursor = 0
		return ps, cmd
	}
	tick := tea.Tick(ticket.Deadline.Sub(now), func(at time.Time) tea.Msg {
		return SearchTickMsg{Ticket: ticket, At: at}
	})
	return ps, tea.Batch(cmd, tick)
}

// fire delivers a debounce tick. The cursor resets when the filter changed.
func (ps pickerState) fire(msg SearchTickMsg) pickerState {
	if ps.sel.Fire(msg.Ticket, msg.At) {
		ps.cursor = 0
	}
	return ps
}

// View renders the picker for the given dimensions.
func (ps pickerState) View(width, height int) string {
	var b strings.Builder
	b.WriteString(headerText.Render("Select season"))
	b.WriteString("\n\n")
	b.WriteString(ps.input.View())
	if ps.sel.Query() != ps.sel.EffectiveQuery() {
		b.WriteString(mutedText.Render("  …"))
	}
	b.WriteString("\n\n")

	visible := ps.sel.Visible()
	if len(visible) == 0 {
		b.WriteString(mutedText.Render("No seasons match"))
		return b.String()
	}
	for i, s := range visible {
		if i > 0 {
			b.WriteByte('\n')
		}
		if i == ps.cursor {
			b.WriteString(CursorMarker)
		} else {
			b.WriteString("  ")
		}
		line := s.Name
		if s.Year != 0 {
			line += " (" + strconv.Itoa(s.Year) + ")"
		}
		if s.ID == ps.activeID {
			line += mutedText.Render(" • active")
		}
		b.WriteString(line)
	}
	fmt.Fprintf(&b, "\n\n%s", mutedText.Render(fmt.Sprintf("%d of %d", len(visible), len(ps.sel.Candidates()))))
	return b.String()
}
