package graph

import (
	"encoding/json"
	"slices"
	"strings"
)

// =============================================================================
// Category - Closed Entry Classification
// =============================================================================

// Category classifies a story entry. Free-form category strings from the
// entry store are folded into this closed set, with CategoryOther as the
// fallback for anything unrecognized.
type Category int

const (
	// CategoryOther is the fallback for unrecognized or empty categories.
	CategoryOther Category = iota
	// CategoryCharacter marks a person or creature in the story.
	CategoryCharacter
	// CategoryLocation marks a place.
	CategoryLocation
	// CategoryItem marks an object.
	CategoryItem
	// CategoryEvent marks something that happens.
	CategoryEvent
)

// ParseCategory folds a free-form category string into the closed set.
// Matching is case-insensitive; unknown values map to CategoryOther.
func ParseCategory(s string) Category {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "character":
		return CategoryCharacter
	case "location":
		return CategoryLocation
	case "item":
		return CategoryItem
	case "event":
		return CategoryEvent
	default:
		return CategoryOther
	}
}

// MarshalJSON encodes the category as its canonical string name.
func (c Category) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON decodes a category from its string name.
// Unknown names fold into CategoryOther, mirroring ParseCategory.
func (c *Category) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*c = ParseCategory(s)
	return nil
}

// String returns the canonical lowercase name of the category.
func (c Category) String() string {
	switch c {
	case CategoryCharacter:
		return "character"
	case CategoryLocation:
		return "location"
	case CategoryItem:
		return "item"
	case CategoryEvent:
		return "event"
	default:
		return "other"
	}
}

// =============================================================================
// Entry / Relationship - Store-Facing Input Types
// =============================================================================

// Entry is a user-authored story element as exposed by the entry store.
type Entry struct {
	ID          int64
	Title       string
	Description string
	Category    Category
	Tags        []string
	Synonyms    []string
}

// Relationship is a declared link between two entries as exposed by the
// entry store. Type is a free-form label ("Enemy", "Mentor", ...).
type Relationship struct {
	ID     int64
	EntryA int64
	EntryB int64
	Type   string
}

// =============================================================================
// Node / Edge - Graph Model
// =============================================================================

// Node is the graph-model counterpart of an Entry. Nodes carry identity and
// classification only; positions live in the layout state, never here.
type Node struct {
	ID       int64    `json:"id"`
	Label    string   `json:"label,omitempty"`
	Category Category `json:"category"`
}

// Edge is the graph-model counterpart of a Relationship. Edges reference
// their endpoints by node ID only, so any position change anywhere is
// automatically reflected in the edge's drawn geometry.
type Edge struct {
	ID       int64  `json:"id"`
	From     int64  `json:"from"`
	To       int64  `json:"to"`
	Label    string `json:"label,omitempty"`
	Directed bool   `json:"directed,omitempty"`
}

// Pair returns the unordered endpoint pair with the smaller ID first.
// Two edges with the same Pair connect the same nodes regardless of
// direction.
func (e Edge) Pair() (int64, int64) {
	if e.From <= e.To {
		return e.From, e.To
	}
	return e.To, e.From
}

// =============================================================================
// Graph - Immutable Relationship Snapshot
// =============================================================================

// Graph is a read-only snapshot of story entries and their relationships.
// Nodes are stored in an arena keyed by ID; edges hold endpoint IDs only.
// Incident-edge lookups go through an index map, avoiding cyclic ownership
// between nodes and edges.
//
// Use Build to construct a Graph; the zero value is empty but usable for
// reads. Graph is safe for concurrent reads once built.
type Graph struct {
	nodes    map[int64]*Node
	order    []int64         // node IDs sorted ascending
	edges    []Edge          // insertion order (by relationship ID)
	incident map[int64][]int // node ID -> indexes into edges
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Node returns the node with the given ID and true, or nil and false.
func (g *Graph) Node(id int64) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes ordered by ascending ID.
// The returned slice is freshly allocated; the node pointers refer to the
// graph's arena.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// NodeIDs returns all node IDs in ascending order.
func (g *Graph) NodeIDs() []int64 { return slices.Clone(g.order) }

// Edges returns a copy of all edges in relationship-ID order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// IncidentEdges returns the edges touching the given node, in insertion
// order. Returns nil for unknown or isolated nodes.
func (g *Graph) IncidentEdges(id int64) []Edge {
	idxs := g.incident[id]
	if len(idxs) == 0 {
		return nil
	}
	edges := make([]Edge, len(idxs))
	for i, idx := range idxs {
		edges[i] = g.edges[idx]
	}
	return edges
}

// Degree returns the number of edges incident to the node.
// Self-loops count once. Returns 0 for unknown nodes.
func (g *Graph) Degree(id int64) int { return len(g.incident[id]) }

// Neighbors returns the IDs of nodes sharing an edge with the given node,
// deduplicated and sorted ascending. Direction is ignored.
func (g *Graph) Neighbors(id int64) []int64 {
	seen := make(map[int64]bool)
	for _, idx := range g.incident[id] {
		e := g.edges[idx]
		other := e.To
		if other == id {
			other = e.From
		}
		if other != id && !seen[other] {
			seen[other] = true
		}
	}
	out := make([]int64, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// DrawnEdges returns one edge per unordered endpoint pair, in insertion
// order, keeping the first relationship declared for each pair. The graph
// model stores every relationship; this view exists for renderers that draw
// a single curve between any two nodes.
func (g *Graph) DrawnEdges() []Edge {
	type pair struct{ a, b int64 }
	seen := make(map[pair]bool)
	var out []Edge
	for _, e := range g.edges {
		a, b := e.Pair()
		p := pair{a, b}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, e)
	}
	return out
}

// Components returns the connected components of the graph (direction
// ignored), each as a sorted slice of node IDs. Components are ordered by
// their smallest member so repeated calls produce identical output.
func (g *Graph) Components() [][]int64 {
	visited := make(map[int64]bool, len(g.nodes))
	var comps [][]int64

	for _, start := range g.order {
		if visited[start] {
			continue
		}
		var comp []int64
		queue := []int64{start}
		visited[start] = true
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			comp = append(comp, id)
			for _, nb := range g.Neighbors(id) {
				if !visited[nb] {
					visited[nb] = true
					queue = append(queue, nb)
				}
			}
		}
		slices.Sort(comp)
		comps = append(comps, comp)
	}
	return comps
}

// ComponentRoot picks the deterministic layout root for a component:
// the node of maximum degree, with the lowest ID breaking ties.
// Returns 0 for an empty component.
func (g *Graph) ComponentRoot(comp []int64) int64 {
	if len(comp) == 0 {
		return 0
	}
	best := comp[0]
	bestDeg := g.Degree(best)
	for _, id := range comp[1:] {
		deg := g.Degree(id)
		if deg > bestDeg || (deg == bestDeg && id < best) {
			best = id
			bestDeg = deg
		}
	}
	return best
}
