package dashboard

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
)

// HelpBindings returns the help.KeyMap for the given mode,
// providing context-aware help bar content. Toggle is hidden when the
// current table has no active flag.
func HelpBindings(mode Mode, toggleable bool) help.KeyMap {
	switch mode {
	case ModeSearch:
		return SearchKeyMap()
	case ModePicker:
		return PickerKeyMap()
	case ModeConfirm:
		return ConfirmKeyMap()
	case ModeLoggedOut:
		return loggedOutKeys{Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		)}
	default:
		km := BrowseKeyMap()
		if !toggleable {
			km.Toggle.SetEnabled(false)
		}
		return km
	}
}
