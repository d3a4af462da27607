package dashboard

import (
	"testing"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
)

// enabledKeys returns the keys of the enabled bindings only.
func enabledKeys(bindings []key.Binding) []string {
	var keys []string
	for _, b := range bindings {
		if b.Enabled() {
			keys = append(keys, b.Keys()...)
		}
	}
	return keys
}

func TestHelpBindings_BrowseMode(t *testing.T) {
	// Given: help bindings for browse mode on a toggleable table
	km := HelpBindings(ModeBrowse, true)
	allKeys := enabledKeys(km.ShortHelp())

	// Then: toggle and quit keys are present
	if !containsKey(allKeys, "t") {
		t.Error("browse help should contain 't' key")
	}
	if !containsKey(allKeys, "q") {
		t.Error("browse help should contain 'q' key")
	}
}

func TestHelpBindings_BrowseHidesToggle(t *testing.T) {
	// Given: help bindings for browse mode on a table without an active flag
	km := HelpBindings(ModeBrowse, false)
	allKeys := enabledKeys(km.ShortHelp())

	// Then: toggle is disabled
	if containsKey(allKeys, "t") {
		t.Error("browse help should not offer 't' on a non-toggleable table")
	}
}

func TestHelpBindings_ModeKeys(t *testing.T) {
	tests := []struct {
		name    string
		mode    Mode
		want    []string
		notWant []string
	}{
		{"search", ModeSearch, []string{"enter", "esc"}, []string{"q"}},
		{"picker", ModePicker, []string{"up", "down", "enter", "esc"}, []string{"q"}},
		{"confirm", ModeConfirm, []string{"enter", "esc"}, []string{"d"}},
		{"logged out", ModeLoggedOut, []string{"q"}, []string{"enter"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allKeys := enabledKeys(HelpBindings(tt.mode, false).ShortHelp())
			for _, k := range tt.want {
				if !containsKey(allKeys, k) {
					t.Errorf("%s help missing %q, got %v", tt.name, k, allKeys)
				}
			}
			for _, k := range tt.notWant {
				if containsKey(allKeys, k) {
					t.Errorf("%s help should not contain %q, got %v", tt.name, k, allKeys)
				}
			}
		})
	}
}

func TestHelpBindings_RendersWithHelpModel(t *testing.T) {
	// Given: a help model
	h := help.New()
	h.Width = 200

	// When: browse help is rendered
	view := h.View(HelpBindings(ModeBrowse, true))

	// Then: the descriptions are shown
	for _, want := range []string{"next page", "season", "toggle", "quit"} {
		if !containsPlainText(view, want) {
			t.Errorf("help view should contain %q, got %q", want, stripANSI(view))
		}
	}
}
