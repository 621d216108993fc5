// Package store persists story entries and their relationships.
//
// The canonical backend is SQLite ([Open]); [Memory] provides an in-memory
// implementation with identical semantics for tests and ephemeral sessions.
// Both enforce referential integrity: a relationship can only exist between
// stored entries, and deleting an entry cascades to its relationships.
package store

import (
	"context"

	"github.com/rwyengine/relmap/pkg/graph"
)

// Store is the persistence interface for entries and relationships.
//
// IDs are assigned by the store on creation and are stable for the lifetime
// of the database. All methods honor ctx cancellation.
type Store interface {
	// CreateEntry stores a new entry and returns its assigned ID. The ID
	// field of the argument is ignored.
	CreateEntry(ctx context.Context, e graph.Entry) (int64, error)

	// GetEntry returns the entry with the given ID (ENTRY_NOT_FOUND if
	// absent).
	GetEntry(ctx context.Context, id int64) (graph.Entry, error)

	// UpdateEntry replaces the stored entry with the same ID
	// (ENTRY_NOT_FOUND if absent).
	UpdateEntry(ctx context.Context, e graph.Entry) error

	// DeleteEntry removes the entry and every relationship that references
	// it (ENTRY_NOT_FOUND if absent).
	DeleteEntry(ctx context.Context, id int64) error

	// ListEntries returns all entries ordered by ID.
	ListEntries(ctx context.Context) ([]graph.Entry, error)

	// SearchEntries returns entries whose title contains the query as a
	// case-insensitive substring, ordered by ID. An empty query matches
	// everything.
	SearchEntries(ctx context.Context, query string) ([]graph.Entry, error)

	// CreateRelationship stores a new relationship and returns its assigned
	// ID. Both endpoints must exist (INVALID_REFERENCE otherwise).
	CreateRelationship(ctx context.Context, r graph.Relationship) (int64, error)

	// DeleteRelationship removes the relationship (NOT_FOUND if absent).
	DeleteRelationship(ctx context.Context, id int64) error

	// ListRelationships returns all relationships ordered by ID.
	ListRelationships(ctx context.Context) ([]graph.Relationship, error)

	// Close releases the backing resources.
	Close() error
}

// LoadGraph reads the full entry and relationship sets from s and builds the
// derived graph.
func LoadGraph(ctx context.Context, s Store) (*graph.Graph, error) {
	entries, err := s.ListEntries(ctx)
	if err != nil {
		return nil, err
	}
	rels, err := s.ListRelationships(ctx)
	if err != nil {
		return nil, err
	}
	return graph.Build(entries, rels)
}
