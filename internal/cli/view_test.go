package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rwyengine/relmap/pkg/graph"
	"github.com/rwyengine/relmap/pkg/layout"
	"github.com/rwyengine/relmap/pkg/session"
)

func testViewModel(t *testing.T) viewModel {
	t.Helper()

	g, err := graph.Build(
		[]graph.Entry{
			{ID: 1, Title: "Alice", Category: graph.CategoryCharacter},
			{ID: 2, Title: "The Tower", Category: graph.CategoryLocation},
		},
		[]graph.Relationship{
			{ID: 10, EntryA: 1, EntryB: 2, Type: "Lives In"},
		},
	)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	sess, err := session.Open(g, layout.ModeTree, 0, layout.DefaultConfig())
	if err != nil {
		t.Fatalf("session.Open() failed: %v", err)
	}

	return newViewModel(sess, "story.db")
}

func TestViewModel_RendersCategoryNames(t *testing.T) {
	m := testViewModel(t)

	out := m.View()
	for _, want := range []string{"Alice", "character", "The Tower", "location"} {
		if !strings.Contains(out, want) {
			t.Errorf("View() output missing %q", want)
		}
	}
	// Category is an integer code; the view must render its name, not the
	// rune with that code point.
	for _, ctrl := range []string{"\x00", "\x01", "\x02"} {
		if strings.Contains(out, ctrl) {
			t.Errorf("View() output contains control character %q", ctrl)
		}
	}
}

func TestViewModel_CursorMovement(t *testing.T) {
	m := testViewModel(t)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	moved := next.(viewModel)
	if moved.cursor != 1 {
		t.Errorf("cursor after down = %d, want 1", moved.cursor)
	}

	next, _ = moved.Update(tea.KeyMsg{Type: tea.KeyDown})
	clamped := next.(viewModel)
	if clamped.cursor != 1 {
		t.Errorf("cursor past last row = %d, want 1", clamped.cursor)
	}
}
