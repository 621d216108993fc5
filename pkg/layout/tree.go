package layout

import (
	"github.com/rwyengine/relmap/pkg/errors"
	"github.com/rwyengine/relmap/pkg/graph"
)

// Tree computes a hierarchical layout for g rooted at root. Pass root 0 to
// auto-select one root per connected component (maximum degree, lowest ID on
// ties).
//
// Depth is assigned breadth-first over the undirected adjacency; within a
// level, siblings keep the insertion order of their parent edge. Each
// subtree is allocated a horizontal slot equal to the sum of its children's
// slots (leaf slot = SlotWidth) and every parent is centered over its
// children. Vertical position is depth × LevelSpacing.
//
// Cycle policy: when traversal reaches a node that already has a depth, the
// revisiting edge is kept for drawing but never re-positions the node.
// Back-edges cannot alter the tree shape, so the result is deterministic.
//
// The layout is recomputed wholesale; there is no partial update path.
func Tree(g *graph.Graph, root int64, cfg Config) (*State, error) {
	cfg = cfg.Normalized()
	s := NewState()

	if g.NodeCount() == 0 {
		return s, nil
	}

	var roots []int64
	if root != 0 {
		if _, ok := g.Node(root); !ok {
			return nil, errors.New(errors.ErrCodeNodeNotFound, "tree root %d is not in the graph", root)
		}
		roots = append(roots, root)
	}

	placed := make(map[int64]bool, g.NodeCount())
	offsetX := 0.0

	place := func(r int64) {
		t := buildSpanningTree(g, r, placed)
		widths := make(map[int64]float64, len(t.children)+1)
		subtreeWidth(t, r, cfg.SlotWidth, widths)
		assignPositions(t, s, r, offsetX, 0, cfg, widths)
		offsetX += widths[r] + cfg.SlotWidth
	}

	for _, r := range roots {
		place(r)
	}

	// Remaining components (all of them when no explicit root was given):
	// one deterministic root each, laid out side by side.
	for _, comp := range g.Components() {
		r := g.ComponentRoot(comp)
		if placed[r] {
			continue
		}
		place(r)
	}

	return s, nil
}

// spanningTree is the BFS tree extracted from the graph for one component.
// Children keep the insertion order of the edge that discovered them.
type spanningTree struct {
	children map[int64][]int64
}

// buildSpanningTree runs a breadth-first traversal from root, marking every
// reached node in placed. Edges that revisit an already-discovered node are
// back-edges and contribute no child link.
func buildSpanningTree(g *graph.Graph, root int64, placed map[int64]bool) *spanningTree {
	t := &spanningTree{children: make(map[int64][]int64)}

	placed[root] = true
	queue := []int64{root}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, e := range g.IncidentEdges(id) {
			other := e.To
			if other == id {
				other = e.From
			}
			if other == id || placed[other] {
				continue
			}
			placed[other] = true
			t.children[id] = append(t.children[id], other)
			queue = append(queue, other)
		}
	}
	return t
}

// subtreeWidth computes the slot width of every subtree bottom-up.
// A leaf occupies one fixed slot; an inner node occupies the sum of its
// children's slots, so sibling subtrees can never overlap.
func subtreeWidth(t *spanningTree, id int64, slot float64, widths map[int64]float64) float64 {
	kids := t.children[id]
	if len(kids) == 0 {
		widths[id] = slot
		return slot
	}
	total := 0.0
	for _, c := range kids {
		total += subtreeWidth(t, c, slot, widths)
	}
	widths[id] = total
	return total
}

// assignPositions places a subtree into the slot starting at left, centering
// each node over its children.
func assignPositions(t *spanningTree, s *State, id int64, left float64, depth int, cfg Config, widths map[int64]float64) {
	s.SetPosition(id, Point{
		X: left + widths[id]/2,
		Y: float64(depth) * cfg.LevelSpacing,
	})

	childLeft := left
	for _, c := range t.children[id] {
		assignPositions(t, s, c, childLeft, depth+1, cfg, widths)
		childLeft += widths[c]
	}
}
