package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rwyengine/relmap/pkg/errors"
	"github.com/rwyengine/relmap/pkg/graph"
	"github.com/rwyengine/relmap/pkg/layout"
)

func testGraph(t *testing.T) (*graph.Graph, map[int64]layout.Point) {
	t.Helper()
	g, err := graph.Build(
		[]graph.Entry{
			{ID: 1, Title: "Alice", Category: graph.CategoryCharacter},
			{ID: 2, Title: "Tower", Category: graph.CategoryLocation},
			{ID: 3, Title: "Amulet", Category: graph.CategoryItem},
		},
		[]graph.Relationship{
			{ID: 1, EntryA: 1, EntryB: 2, Type: "Lives In"},
			{ID: 2, EntryA: 1, EntryB: 3, Type: "Owns"},
		},
	)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	pos := map[int64]layout.Point{
		1: {X: 0, Y: 0},
		2: {X: 200, Y: 0},
		3: {X: 100, Y: 170},
	}
	return g, pos
}

func TestImage(t *testing.T) {
	g, pos := testGraph(t)

	img, err := Image(g, pos, DefaultOptions())
	if err != nil {
		t.Fatalf("Image() failed: %v", err)
	}

	b := img.Bounds()
	if b.Dx() < 100 || b.Dy() < 100 {
		t.Errorf("image suspiciously small: %v", b)
	}
	// Scale 2 must double the canvas of scale 1.
	half, err := Image(g, pos, Options{Scale: 1, Margin: 40, Labels: true})
	if err != nil {
		t.Fatalf("Image(scale 1) failed: %v", err)
	}
	if b.Dx() < 2*half.Bounds().Dx()-2 || b.Dx() > 2*half.Bounds().Dx()+2 {
		t.Errorf("scale 2 width %d is not ~double scale 1 width %d", b.Dx(), half.Bounds().Dx())
	}
}

func TestEncodePNG(t *testing.T) {
	g, pos := testGraph(t)

	var buf bytes.Buffer
	if err := EncodePNG(&buf, g, pos, DefaultOptions()); err != nil {
		t.Fatalf("EncodePNG() failed: %v", err)
	}
	sig := []byte{0x89, 'P', 'N', 'G'}
	if !bytes.HasPrefix(buf.Bytes(), sig) {
		t.Error("output missing PNG signature")
	}
}

func TestRender_EmptyGraph(t *testing.T) {
	g, err := graph.Build(nil, nil)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	if _, err := Image(g, nil, DefaultOptions()); !errors.Is(err, errors.ErrCodeExportEmpty) {
		t.Errorf("Image(empty) error = %v, want EXPORT_EMPTY", err)
	}
}

func TestRender_MissingPosition(t *testing.T) {
	g, pos := testGraph(t)
	delete(pos, 2)

	if _, err := Image(g, pos, DefaultOptions()); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Image(missing position) error = %v, want INVALID_INPUT", err)
	}
}

func TestNodeRadius(t *testing.T) {
	tests := []struct {
		degree int
		want   float64
	}{
		{0, 22},
		{1, 26},
		{8, 54},
		{20, 54}, // capped at degree 8
	}
	for _, tt := range tests {
		if got := NodeRadius(tt.degree); got != tt.want {
			t.Errorf("NodeRadius(%d) = %v, want %v", tt.degree, got, tt.want)
		}
	}
}

func TestCategoryColor(t *testing.T) {
	tests := []struct {
		cat  graph.Category
		want string
	}{
		{graph.CategoryCharacter, "#66AAFF"},
		{graph.CategoryLocation, "#88CC66"},
		{graph.CategoryItem, "#FFCC66"},
		{graph.CategoryEvent, "#CC66FF"},
		{graph.CategoryOther, "#AAAAAA"},
	}
	for _, tt := range tests {
		if got := CategoryColor(tt.cat); got != tt.want {
			t.Errorf("CategoryColor(%v) = %q, want %q", tt.cat, got, tt.want)
		}
	}
}

func TestToDOT(t *testing.T) {
	g, pos := testGraph(t)
	dot := ToDOT(g, pos)

	if !strings.HasPrefix(dot, "graph relmap {") {
		t.Errorf("DOT output does not open an undirected graph: %q", dot[:40])
	}
	for _, want := range []string{
		"layout=neato",
		`1 [label="Alice"`,
		`fillcolor="#66AAFF"`,
		`1 -- 2 [label="Lives In"]`,
		`1 -- 3 [label="Owns"]`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT output missing %q", want)
		}
	}

	// Positions are pinned: layout pixels / 72, y negated.
	if !strings.Contains(dot, `pos="1.389,-2.361!"`) {
		t.Errorf("node 3 position not pinned with negated y in:\n%s", dot)
	}
}

func TestToDOT_Deterministic(t *testing.T) {
	g, pos := testGraph(t)
	if ToDOT(g, pos) != ToDOT(g, pos) {
		t.Error("ToDOT output differs between calls")
	}
}
