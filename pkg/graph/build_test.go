package graph

import (
	"reflect"
	"testing"

	"github.com/rwyengine/relmap/pkg/errors"
)

func testEntries() []Entry {
	return []Entry{
		{ID: 1, Title: "Alice", Category: CategoryCharacter},
		{ID: 2, Title: "Bob", Category: CategoryCharacter},
		{ID: 3, Title: "The Tower", Category: CategoryLocation},
		{ID: 4, Title: "Amulet", Category: CategoryItem},
	}
}

func testRelationships() []Relationship {
	return []Relationship{
		{ID: 10, EntryA: 1, EntryB: 2, Type: "Rival"},
		{ID: 11, EntryA: 1, EntryB: 3, Type: "Lives In"},
		{ID: 12, EntryA: 2, EntryB: 4, Type: "Owns"},
	}
}

func TestBuild(t *testing.T) {
	g, err := Build(testEntries(), testRelationships())
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	if got := g.NodeCount(); got != 4 {
		t.Errorf("NodeCount() = %d, want 4", got)
	}
	if got := g.EdgeCount(); got != 3 {
		t.Errorf("EdgeCount() = %d, want 3", got)
	}

	n, ok := g.Node(1)
	if !ok {
		t.Fatal("Node(1) not found")
	}
	if n.Label != "Alice" || n.Category != CategoryCharacter {
		t.Errorf("Node(1) = %+v, want Alice/character", n)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	// Shuffled input must produce the same graph as sorted input.
	entries := testEntries()
	rels := testRelationships()
	shuffledEntries := []Entry{entries[3], entries[0], entries[2], entries[1]}
	shuffledRels := []Relationship{rels[2], rels[0], rels[1]}

	a, err := Build(entries, rels)
	if err != nil {
		t.Fatalf("Build(sorted) failed: %v", err)
	}
	b, err := Build(shuffledEntries, shuffledRels)
	if err != nil {
		t.Fatalf("Build(shuffled) failed: %v", err)
	}

	if !reflect.DeepEqual(a.NodeIDs(), b.NodeIDs()) {
		t.Errorf("node order differs: %v vs %v", a.NodeIDs(), b.NodeIDs())
	}
	if !reflect.DeepEqual(a.Edges(), b.Edges()) {
		t.Errorf("edge order differs: %v vs %v", a.Edges(), b.Edges())
	}
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name     string
		entries  []Entry
		rels     []Relationship
		wantCode errors.Code
	}{
		{
			name:     "duplicate entry id",
			entries:  []Entry{{ID: 1, Title: "A"}, {ID: 1, Title: "B"}},
			wantCode: errors.ErrCodeInvalidInput,
		},
		{
			name:     "dangling relationship endpoint",
			entries:  []Entry{{ID: 1, Title: "A"}},
			rels:     []Relationship{{ID: 10, EntryA: 1, EntryB: 99}},
			wantCode: errors.ErrCodeInvalidReference,
		},
		{
			name:     "both endpoints missing",
			entries:  nil,
			rels:     []Relationship{{ID: 10, EntryA: 5, EntryB: 6}},
			wantCode: errors.ErrCodeInvalidReference,
		},
		{
			// Edge identity is the unordered pair plus type; redeclaring it
			// in either direction is rejected, not merged.
			name:    "duplicate pair and type",
			entries: []Entry{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}},
			rels: []Relationship{
				{ID: 10, EntryA: 1, EntryB: 2, Type: "Friend"},
				{ID: 11, EntryA: 2, EntryB: 1, Type: "Friend"},
			},
			wantCode: errors.ErrCodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Build(tt.entries, tt.rels)
			if err == nil {
				t.Fatal("Build() succeeded, want error")
			}
			if g != nil {
				t.Error("Build() returned a partial graph alongside the error")
			}
			if !errors.Is(err, tt.wantCode) {
				t.Errorf("error code = %v, want %v", errors.GetCode(err), tt.wantCode)
			}
		})
	}
}

func TestBuild_LabelFallbacks(t *testing.T) {
	g, err := Build(
		[]Entry{{ID: 7}, {ID: 8, Title: "Named"}},
		[]Relationship{{ID: 1, EntryA: 7, EntryB: 8}},
	)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	n, _ := g.Node(7)
	if n.Label != "ID 7" {
		t.Errorf("untitled entry label = %q, want %q", n.Label, "ID 7")
	}
	if e := g.Edges()[0]; e.Label != "relationship" {
		t.Errorf("untyped relationship label = %q, want %q", e.Label, "relationship")
	}
}

func TestGraph_Neighbors(t *testing.T) {
	g, err := Build(testEntries(), testRelationships())
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	tests := []struct {
		id   int64
		want []int64
	}{
		{1, []int64{2, 3}},
		{2, []int64{1, 4}},
		{3, []int64{1}},
		{99, []int64{}},
	}

	for _, tt := range tests {
		got := g.Neighbors(tt.id)
		if len(got) == 0 && len(tt.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Neighbors(%d) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestGraph_SelfLoopDegree(t *testing.T) {
	g, err := Build(
		[]Entry{{ID: 1, Title: "Ouroboros"}},
		[]Relationship{{ID: 1, EntryA: 1, EntryB: 1, Type: "Self"}},
	)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	if got := g.Degree(1); got != 1 {
		t.Errorf("Degree(1) = %d, want 1 (self-loop counts once)", got)
	}
	if got := g.Neighbors(1); len(got) != 0 {
		t.Errorf("Neighbors(1) = %v, want none for a pure self-loop", got)
	}
}

func TestGraph_DrawnEdges(t *testing.T) {
	// Two relationships between the same pair (either direction) collapse
	// into one drawn edge; the first declared wins.
	g, err := Build(
		[]Entry{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}},
		[]Relationship{
			{ID: 10, EntryA: 1, EntryB: 2, Type: "Friend"},
			{ID: 11, EntryA: 2, EntryB: 1, Type: "Enemy"},
		},
	)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	drawn := g.DrawnEdges()
	if len(drawn) != 1 {
		t.Fatalf("DrawnEdges() returned %d edges, want 1", len(drawn))
	}
	if drawn[0].ID != 10 {
		t.Errorf("DrawnEdges() kept edge %d, want first-declared 10", drawn[0].ID)
	}
}

func TestGraph_Components(t *testing.T) {
	// 1-2 connected, 3 isolated, 4-5 connected.
	g, err := Build(
		[]Entry{{ID: 1, Title: "a"}, {ID: 2, Title: "b"}, {ID: 3, Title: "c"}, {ID: 4, Title: "d"}, {ID: 5, Title: "e"}},
		[]Relationship{
			{ID: 1, EntryA: 1, EntryB: 2},
			{ID: 2, EntryA: 4, EntryB: 5},
		},
	)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	want := [][]int64{{1, 2}, {3}, {4, 5}}
	if got := g.Components(); !reflect.DeepEqual(got, want) {
		t.Errorf("Components() = %v, want %v", got, want)
	}
}

func TestGraph_ComponentRoot(t *testing.T) {
	// 2 has degree 2, others degree 1: max degree wins.
	g, err := Build(
		[]Entry{{ID: 1, Title: "a"}, {ID: 2, Title: "b"}, {ID: 3, Title: "c"}},
		[]Relationship{
			{ID: 1, EntryA: 1, EntryB: 2},
			{ID: 2, EntryA: 2, EntryB: 3},
		},
	)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	if got := g.ComponentRoot([]int64{1, 2, 3}); got != 2 {
		t.Errorf("ComponentRoot() = %d, want 2 (max degree)", got)
	}
	// Equal degrees: lowest ID breaks the tie.
	if got := g.ComponentRoot([]int64{1, 3}); got != 1 {
		t.Errorf("ComponentRoot() tie-break = %d, want 1", got)
	}
	if got := g.ComponentRoot(nil); got != 0 {
		t.Errorf("ComponentRoot(empty) = %d, want 0", got)
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
	}{
		{"character", CategoryCharacter},
		{"Character", CategoryCharacter},
		{"  LOCATION ", CategoryLocation},
		{"item", CategoryItem},
		{"event", CategoryEvent},
		{"", CategoryOther},
		{"spaceship", CategoryOther},
	}

	for _, tt := range tests {
		if got := ParseCategory(tt.in); got != tt.want {
			t.Errorf("ParseCategory(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
