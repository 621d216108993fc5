package graph

import (
	"slices"
	"strconv"

	"github.com/rwyengine/relmap/pkg/errors"
)

// Build constructs a Graph from store entries and relationships.
//
// Build is deterministic and pure: the same input set yields an identical
// graph regardless of slice order, because entries and relationships are
// sorted by ID before ingestion. The inputs are not mutated.
//
// Every relationship must reference two known entries. A broken reference
// aborts the build with an INVALID_REFERENCE error and no partial graph is
// returned. Edge identity is the unordered endpoint pair plus the
// relationship type: declaring the same pair with the same type twice is an
// INVALID_INPUT error, never a silent merge.
func Build(entries []Entry, relationships []Relationship) (*Graph, error) {
	g := &Graph{
		nodes:    make(map[int64]*Node, len(entries)),
		incident: make(map[int64][]int),
	}

	sortedEntries := slices.Clone(entries)
	slices.SortFunc(sortedEntries, func(a, b Entry) int {
		return int(a.ID - b.ID)
	})

	for _, e := range sortedEntries {
		if _, exists := g.nodes[e.ID]; exists {
			return nil, errors.New(errors.ErrCodeInvalidInput, "duplicate entry id %d", e.ID)
		}
		g.nodes[e.ID] = &Node{
			ID:       e.ID,
			Label:    labelFor(e),
			Category: e.Category,
		}
		g.order = append(g.order, e.ID)
	}

	sortedRels := slices.Clone(relationships)
	slices.SortFunc(sortedRels, func(a, b Relationship) int {
		return int(a.ID - b.ID)
	})

	type pairKey struct {
		a, b int64
		typ  string
	}
	seen := make(map[pairKey]bool, len(sortedRels))

	for _, r := range sortedRels {
		if _, ok := g.nodes[r.EntryA]; !ok {
			return nil, errors.New(errors.ErrCodeInvalidReference,
				"relationship %d references unknown entry %d", r.ID, r.EntryA)
		}
		if _, ok := g.nodes[r.EntryB]; !ok {
			return nil, errors.New(errors.ErrCodeInvalidReference,
				"relationship %d references unknown entry %d", r.ID, r.EntryB)
		}
		key := pairKey{a: min(r.EntryA, r.EntryB), b: max(r.EntryA, r.EntryB), typ: r.Type}
		if seen[key] {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"relationship %d duplicates %d-%d (%q)", r.ID, r.EntryA, r.EntryB, labelForRel(r))
		}
		seen[key] = true
		idx := len(g.edges)
		g.edges = append(g.edges, Edge{
			ID:       r.ID,
			From:     r.EntryA,
			To:       r.EntryB,
			Label:    labelForRel(r),
			Directed: true,
		})
		g.incident[r.EntryA] = append(g.incident[r.EntryA], idx)
		if r.EntryB != r.EntryA {
			g.incident[r.EntryB] = append(g.incident[r.EntryB], idx)
		}
	}

	return g, nil
}

// labelFor returns the display label for an entry, falling back to the ID
// when the title is empty (matching the entry store's list rendering).
func labelFor(e Entry) string {
	if e.Title != "" {
		return e.Title
	}
	return "ID " + strconv.FormatInt(e.ID, 10)
}

// labelForRel returns the display label for a relationship edge.
func labelForRel(r Relationship) string {
	if r.Type != "" {
		return r.Type
	}
	return "relationship"
}
