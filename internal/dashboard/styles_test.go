package dashboard

import (
	"testing"

	"github.com/smileynet/atelier/internal/notify"
)

func TestNoticeStyle_RendersMessage(t *testing.T) {
	// Given: each notification level, plus an unknown one
	// When: NoticeStyle renders a message
	// Then: the plain text survives
	for _, level := range []notify.Level{notify.LevelSuccess, notify.LevelError, notify.LevelInfo, "other"} {
		got := NoticeStyle(level).Render("User deleted.")
		if !containsPlainText(got, "User deleted.") {
			t.Errorf("NoticeStyle(%q) rendered %q", level, got)
		}
	}
}

func TestPaneWidths_Normal(t *testing.T) {
	// Given: a normal terminal width of 120
	// When: PaneWidths is computed
	left, right := PaneWidths(120)

	// Then: left is 1/4 and right is the rest
	if left != 30 {
		t.Errorf("left = %d, want 30 (1/4 of 120)", left)
	}
	if right != 90 {
		t.Errorf("right = %d, want 90", right)
	}
}

func TestPaneWidths_MinLeft(t *testing.T) {
	// Given: a small terminal width of 60
	// When: PaneWidths is computed
	left, right := PaneWidths(60)

	// Then: left pane is MinLeftWidth and total equals input
	if left != MinLeftWidth {
		t.Errorf("left = %d, want %d", left, MinLeftWidth)
	}
	if left+right != 60 {
		t.Errorf("left+right = %d, want 60", left+right)
	}
}

func TestPaneWidths_VerySmall(t *testing.T) {
	// Given: a terminal width smaller than MinLeftWidth
	// When: PaneWidths is computed
	left, right := PaneWidths(20)

	// Then: left gets MinLeftWidth and right is clamped to 0
	if left != MinLeftWidth {
		t.Errorf("left = %d, want %d", left, MinLeftWidth)
	}
	if right != 0 {
		t.Errorf("right = %d, want 0", right)
	}
}

func TestPaneWidths_Zero(t *testing.T) {
	left, right := PaneWidths(0)
	if left != 0 || right != 0 {
		t.Errorf("PaneWidths(0) = %d, %d; want 0, 0", left, right)
	}
}

func TestBorders_DoNotPanic(t *testing.T) {
	// Given/When: the border styles are built
	// Then: they do not panic
	_ = FocusedBorder()
	_ = UnfocusedBorder()
}
