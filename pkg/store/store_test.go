package store

import (
	"context"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/rwyengine/relmap/pkg/errors"
	"github.com/rwyengine/relmap/pkg/graph"
	"github.com/rwyengine/relmap/pkg/observability"
)

// storeUnderTest runs the same suite against every Store implementation.
func storeUnderTest(t *testing.T) map[string]func(t *testing.T) Store {
	t.Helper()
	return map[string]func(t *testing.T) Store{
		"sqlite": func(t *testing.T) Store {
			s, err := Open(filepath.Join(t.TempDir(), "test.db"))
			if err != nil {
				t.Fatalf("Open() failed: %v", err)
			}
			t.Cleanup(func() { s.Close() })
			return s
		},
		"memory": func(t *testing.T) Store {
			return NewMemory()
		},
	}
}

func TestStore_EntryCRUD(t *testing.T) {
	for name, open := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			e := graph.Entry{
				Title:       "Alice",
				Description: "The protagonist",
				Category:    graph.CategoryCharacter,
				Tags:        []string{"hero", "chapter-1"},
				Synonyms:    []string{"Al"},
			}
			id, err := s.CreateEntry(ctx, e)
			if err != nil {
				t.Fatalf("CreateEntry() failed: %v", err)
			}
			if id == 0 {
				t.Fatal("CreateEntry() returned zero ID")
			}

			got, err := s.GetEntry(ctx, id)
			if err != nil {
				t.Fatalf("GetEntry() failed: %v", err)
			}
			e.ID = id
			if !reflect.DeepEqual(got, e) {
				t.Errorf("GetEntry() = %+v, want %+v", got, e)
			}

			got.Description = "Updated"
			got.Tags = []string{"hero"}
			if err := s.UpdateEntry(ctx, got); err != nil {
				t.Fatalf("UpdateEntry() failed: %v", err)
			}
			updated, err := s.GetEntry(ctx, id)
			if err != nil {
				t.Fatalf("GetEntry() after update failed: %v", err)
			}
			if updated.Description != "Updated" || len(updated.Tags) != 1 {
				t.Errorf("update not persisted: %+v", updated)
			}

			if err := s.DeleteEntry(ctx, id); err != nil {
				t.Fatalf("DeleteEntry() failed: %v", err)
			}
			if _, err := s.GetEntry(ctx, id); !errors.Is(err, errors.ErrCodeEntryNotFound) {
				t.Errorf("GetEntry(deleted) error = %v, want ENTRY_NOT_FOUND", err)
			}
		})
	}
}

func TestStore_EmptyTitleRejected(t *testing.T) {
	for name, open := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			for _, title := range []string{"", "   "} {
				if _, err := s.CreateEntry(ctx, graph.Entry{Title: title}); !errors.Is(err, errors.ErrCodeInvalidInput) {
					t.Errorf("CreateEntry(%q) error = %v, want INVALID_INPUT", title, err)
				}
			}
		})
	}
}

func TestStore_NotFoundOperations(t *testing.T) {
	for name, open := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			if err := s.UpdateEntry(ctx, graph.Entry{ID: 99, Title: "x"}); !errors.Is(err, errors.ErrCodeEntryNotFound) {
				t.Errorf("UpdateEntry(missing) error = %v, want ENTRY_NOT_FOUND", err)
			}
			if err := s.DeleteEntry(ctx, 99); !errors.Is(err, errors.ErrCodeEntryNotFound) {
				t.Errorf("DeleteEntry(missing) error = %v, want ENTRY_NOT_FOUND", err)
			}
			if err := s.DeleteRelationship(ctx, 99); !errors.Is(err, errors.ErrCodeNotFound) {
				t.Errorf("DeleteRelationship(missing) error = %v, want NOT_FOUND", err)
			}
		})
	}
}

func TestStore_RelationshipReferentialIntegrity(t *testing.T) {
	for name, open := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			a, err := s.CreateEntry(ctx, graph.Entry{Title: "A"})
			if err != nil {
				t.Fatalf("CreateEntry() failed: %v", err)
			}

			if _, err := s.CreateRelationship(ctx, graph.Relationship{EntryA: a, EntryB: 99}); !errors.Is(err, errors.ErrCodeInvalidReference) {
				t.Errorf("CreateRelationship(dangling) error = %v, want INVALID_REFERENCE", err)
			}
		})
	}
}

func TestStore_DuplicateRelationshipRejected(t *testing.T) {
	for name, open := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			a, _ := s.CreateEntry(ctx, graph.Entry{Title: "A"})
			b, _ := s.CreateEntry(ctx, graph.Entry{Title: "B"})
			if _, err := s.CreateRelationship(ctx, graph.Relationship{EntryA: a, EntryB: b, Type: "Friend"}); err != nil {
				t.Fatalf("CreateRelationship() failed: %v", err)
			}

			// Same pair, same type: rejected in either endpoint order.
			if _, err := s.CreateRelationship(ctx, graph.Relationship{EntryA: a, EntryB: b, Type: "Friend"}); !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("duplicate relationship error = %v, want INVALID_INPUT", err)
			}
			if _, err := s.CreateRelationship(ctx, graph.Relationship{EntryA: b, EntryB: a, Type: "Friend"}); !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("reversed duplicate error = %v, want INVALID_INPUT", err)
			}

			// Same pair with a different type is a distinct relationship.
			if _, err := s.CreateRelationship(ctx, graph.Relationship{EntryA: a, EntryB: b, Type: "Rival"}); err != nil {
				t.Errorf("CreateRelationship(different type) failed: %v", err)
			}
		})
	}
}

func TestStore_CascadeDelete(t *testing.T) {
	for name, open := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			a, _ := s.CreateEntry(ctx, graph.Entry{Title: "A"})
			b, _ := s.CreateEntry(ctx, graph.Entry{Title: "B"})
			c, _ := s.CreateEntry(ctx, graph.Entry{Title: "C"})
			if _, err := s.CreateRelationship(ctx, graph.Relationship{EntryA: a, EntryB: b}); err != nil {
				t.Fatalf("CreateRelationship() failed: %v", err)
			}
			keep, err := s.CreateRelationship(ctx, graph.Relationship{EntryA: b, EntryB: c})
			if err != nil {
				t.Fatalf("CreateRelationship() failed: %v", err)
			}

			if err := s.DeleteEntry(ctx, a); err != nil {
				t.Fatalf("DeleteEntry() failed: %v", err)
			}

			rels, err := s.ListRelationships(ctx)
			if err != nil {
				t.Fatalf("ListRelationships() failed: %v", err)
			}
			if len(rels) != 1 || rels[0].ID != keep {
				t.Errorf("relationships after cascade = %+v, want only %d", rels, keep)
			}
		})
	}
}

func TestStore_SearchEntries(t *testing.T) {
	for name, open := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			for _, title := range []string{"Alice", "Alicorn", "Bob"} {
				if _, err := s.CreateEntry(ctx, graph.Entry{Title: title}); err != nil {
					t.Fatalf("CreateEntry(%s) failed: %v", title, err)
				}
			}

			tests := []struct {
				query string
				want  int
			}{
				{"alic", 2}, // case-insensitive substring
				{"Bob", 1},
				{"zzz", 0},
				{"", 3}, // empty query lists everything
			}
			for _, tt := range tests {
				got, err := s.SearchEntries(ctx, tt.query)
				if err != nil {
					t.Fatalf("SearchEntries(%q) failed: %v", tt.query, err)
				}
				if len(got) != tt.want {
					t.Errorf("SearchEntries(%q) returned %d entries, want %d", tt.query, len(got), tt.want)
				}
			}
		})
	}
}

func TestLoadGraph(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	a, _ := s.CreateEntry(ctx, graph.Entry{Title: "Alice", Category: graph.CategoryCharacter})
	b, _ := s.CreateEntry(ctx, graph.Entry{Title: "Tower", Category: graph.CategoryLocation})
	if _, err := s.CreateRelationship(ctx, graph.Relationship{EntryA: a, EntryB: b, Type: "Lives In"}); err != nil {
		t.Fatalf("CreateRelationship() failed: %v", err)
	}

	g, err := LoadGraph(ctx, s)
	if err != nil {
		t.Fatalf("LoadGraph() failed: %v", err)
	}
	if g.NodeCount() != 2 || g.EdgeCount() != 1 {
		t.Errorf("LoadGraph() = %d nodes / %d edges, want 2/1", g.NodeCount(), g.EdgeCount())
	}
	n, _ := g.Node(a)
	if n.Label != "Alice" || n.Category != graph.CategoryCharacter {
		t.Errorf("node = %+v, want Alice/character", n)
	}
}

// recordingStoreHooks collects the operation names emitted by a store.
type recordingStoreHooks struct {
	mu        sync.Mutex
	queries   []string
	mutations []string
	errs      []error
}

func (h *recordingStoreHooks) OnQuery(_ context.Context, op string, _ int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.queries = append(h.queries, op)
}

func (h *recordingStoreHooks) OnMutation(_ context.Context, op string, _ time.Duration, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mutations = append(h.mutations, op)
	h.errs = append(h.errs, err)
}

func TestSQLite_EmitsStoreHooks(t *testing.T) {
	hooks := &recordingStoreHooks{}
	observability.SetStoreHooks(hooks)
	t.Cleanup(observability.Reset)

	ctx := context.Background()
	s, err := Open(filepath.Join(t.TempDir(), "hooks.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	a, err := s.CreateEntry(ctx, graph.Entry{Title: "Alice"})
	if err != nil {
		t.Fatalf("CreateEntry() failed: %v", err)
	}
	b, err := s.CreateEntry(ctx, graph.Entry{Title: "Tower"})
	if err != nil {
		t.Fatalf("CreateEntry() failed: %v", err)
	}
	if _, err := s.GetEntry(ctx, a); err != nil {
		t.Fatalf("GetEntry() failed: %v", err)
	}
	if _, err := s.ListEntries(ctx); err != nil {
		t.Fatalf("ListEntries() failed: %v", err)
	}
	if _, err := s.CreateRelationship(ctx, graph.Relationship{EntryA: a, EntryB: b, Type: "Lives In"}); err != nil {
		t.Fatalf("CreateRelationship() failed: %v", err)
	}
	if err := s.DeleteEntry(ctx, a); err != nil {
		t.Fatalf("DeleteEntry() failed: %v", err)
	}

	wantMutations := []string{"create_entry", "create_entry", "create_relationship", "delete_entry"}
	if !reflect.DeepEqual(hooks.mutations, wantMutations) {
		t.Errorf("mutation ops = %v, want %v", hooks.mutations, wantMutations)
	}
	for i, err := range hooks.errs {
		if err != nil {
			t.Errorf("mutation %q reported error %v, want nil", hooks.mutations[i], err)
		}
	}
	wantQueries := []string{"get_entry", "list_entries"}
	if !reflect.DeepEqual(hooks.queries, wantQueries) {
		t.Errorf("query ops = %v, want %v", hooks.queries, wantQueries)
	}
}

func TestSQLite_HooksReportFailedMutation(t *testing.T) {
	hooks := &recordingStoreHooks{}
	observability.SetStoreHooks(hooks)
	t.Cleanup(observability.Reset)

	ctx := context.Background()
	s, err := Open(filepath.Join(t.TempDir(), "hooks.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if err := s.DeleteEntry(ctx, 99); err == nil {
		t.Fatal("DeleteEntry(missing) succeeded, want error")
	}
	if len(hooks.mutations) != 1 || hooks.mutations[0] != "delete_entry" {
		t.Fatalf("mutation ops = %v, want [delete_entry]", hooks.mutations)
	}
	if !errors.Is(hooks.errs[0], errors.ErrCodeEntryNotFound) {
		t.Errorf("reported error = %v, want ENTRY_NOT_FOUND", hooks.errs[0])
	}
}

func TestSQLite_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "persist.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	id, err := s.CreateEntry(ctx, graph.Entry{Title: "Persisted"})
	if err != nil {
		t.Fatalf("CreateEntry() failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s2.Close()

	e, err := s2.GetEntry(ctx, id)
	if err != nil {
		t.Fatalf("GetEntry() after reopen failed: %v", err)
	}
	if e.Title != "Persisted" {
		t.Errorf("entry title = %q, want Persisted", e.Title)
	}
}
