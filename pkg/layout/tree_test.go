package layout

import (
	"testing"

	"github.com/rwyengine/relmap/pkg/errors"
	"github.com/rwyengine/relmap/pkg/graph"
)

func buildGraph(t *testing.T, entries []graph.Entry, rels []graph.Relationship) *graph.Graph {
	t.Helper()
	g, err := graph.Build(entries, rels)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	return g
}

func chainGraph(t *testing.T) *graph.Graph {
	// 1 - 2 - 3
	return buildGraph(t,
		[]graph.Entry{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}, {ID: 3, Title: "C"}},
		[]graph.Relationship{
			{ID: 1, EntryA: 1, EntryB: 2},
			{ID: 2, EntryA: 2, EntryB: 3},
		},
	)
}

func TestTree_Empty(t *testing.T) {
	g := buildGraph(t, nil, nil)
	s, err := Tree(g, 0, DefaultConfig())
	if err != nil {
		t.Fatalf("Tree() failed: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("empty graph placed %d nodes", s.Len())
	}
}

func TestTree_ExplicitRoot(t *testing.T) {
	cfg := DefaultConfig() // SlotWidth 150, LevelSpacing 170
	s, err := Tree(chainGraph(t), 2, cfg)
	if err != nil {
		t.Fatalf("Tree() failed: %v", err)
	}

	tests := []struct {
		id   int64
		want Point
	}{
		{2, Point{X: 150, Y: 0}},   // root centered over two leaf slots
		{1, Point{X: 75, Y: 170}},  // first child, first slot
		{3, Point{X: 225, Y: 170}}, // second child, second slot
	}
	for _, tt := range tests {
		got, ok := s.Position(tt.id)
		if !ok {
			t.Fatalf("node %d not placed", tt.id)
		}
		if got != tt.want {
			t.Errorf("Position(%d) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestTree_AutoRoot(t *testing.T) {
	// Max-degree node 2 becomes the root, so it sits at depth 0.
	s, err := Tree(chainGraph(t), 0, DefaultConfig())
	if err != nil {
		t.Fatalf("Tree() failed: %v", err)
	}
	p, _ := s.Position(2)
	if p.Y != 0 {
		t.Errorf("auto-selected root 2 at depth %v, want 0", p.Y)
	}
	for _, id := range []int64{1, 3} {
		p, _ := s.Position(id)
		if p.Y != 170 {
			t.Errorf("leaf %d at y=%v, want 170", id, p.Y)
		}
	}
}

func TestTree_UnknownRoot(t *testing.T) {
	_, err := Tree(chainGraph(t), 42, DefaultConfig())
	if !errors.Is(err, errors.ErrCodeNodeNotFound) {
		t.Fatalf("Tree(unknown root) error = %v, want NODE_NOT_FOUND", err)
	}
}

func TestTree_CycleBackEdge(t *testing.T) {
	// Triangle: the revisiting edge must not re-position any node.
	g := buildGraph(t,
		[]graph.Entry{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}, {ID: 3, Title: "C"}},
		[]graph.Relationship{
			{ID: 1, EntryA: 1, EntryB: 2},
			{ID: 2, EntryA: 1, EntryB: 3},
			{ID: 3, EntryA: 2, EntryB: 3},
		},
	)
	s, err := Tree(g, 1, DefaultConfig())
	if err != nil {
		t.Fatalf("Tree() failed: %v", err)
	}

	if s.Len() != 3 {
		t.Fatalf("placed %d nodes, want 3", s.Len())
	}
	p1, _ := s.Position(1)
	p2, _ := s.Position(2)
	p3, _ := s.Position(3)
	if p1.Y != 0 {
		t.Errorf("root depth = %v, want 0", p1.Y)
	}
	// 2 and 3 are both discovered from 1; the 2-3 back-edge leaves them at
	// depth 1.
	if p2.Y != 170 || p3.Y != 170 {
		t.Errorf("children at y=%v,%v, want 170,170", p2.Y, p3.Y)
	}
	if p2.X == p3.X {
		t.Error("siblings share an x slot")
	}
}

func TestTree_MultipleComponents(t *testing.T) {
	g := buildGraph(t,
		[]graph.Entry{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}, {ID: 3, Title: "C"}},
		[]graph.Relationship{{ID: 1, EntryA: 1, EntryB: 2}},
	)
	s, err := Tree(g, 0, DefaultConfig())
	if err != nil {
		t.Fatalf("Tree() failed: %v", err)
	}
	if s.Len() != 3 {
		t.Fatalf("placed %d nodes, want 3", s.Len())
	}

	// Components are laid out side by side, never overlapping.
	p1, _ := s.Position(1)
	p3, _ := s.Position(3)
	if p3.X <= p1.X {
		t.Errorf("second component at x=%v, want right of first (x=%v)", p3.X, p1.X)
	}
	if p3.Y != 0 {
		t.Errorf("isolated node depth = %v, want 0 (own root)", p3.Y)
	}
}

func TestTree_Deterministic(t *testing.T) {
	g := chainGraph(t)
	a, err := Tree(g, 0, DefaultConfig())
	if err != nil {
		t.Fatalf("Tree() failed: %v", err)
	}
	b, err := Tree(g, 0, DefaultConfig())
	if err != nil {
		t.Fatalf("Tree() failed: %v", err)
	}
	for _, id := range g.NodeIDs() {
		pa, _ := a.Position(id)
		pb, _ := b.Position(id)
		if pa != pb {
			t.Errorf("node %d moved between runs: %v vs %v", id, pa, pb)
		}
	}
}
