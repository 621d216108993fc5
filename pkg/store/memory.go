package store

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/rwyengine/relmap/pkg/errors"
	"github.com/rwyengine/relmap/pkg/graph"
)

// =============================================================================
// In-Memory Store
// =============================================================================

// Memory is a Store kept entirely in memory. It mirrors the SQLite
// semantics (ID assignment, referential checks, cascade on delete) and is
// intended for tests and throwaway sessions.
type Memory struct {
	mu      sync.Mutex
	entries map[int64]graph.Entry
	rels    map[int64]graph.Relationship
	nextID  int64
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[int64]graph.Entry),
		rels:    make(map[int64]graph.Relationship),
		nextID:  1,
	}
}

func (m *Memory) CreateEntry(_ context.Context, e graph.Entry) (int64, error) {
	if strings.TrimSpace(e.Title) == "" {
		return 0, errors.New(errors.ErrCodeInvalidInput, "entry title must not be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e.ID = m.nextID
	m.nextID++
	m.entries[e.ID] = e
	return e.ID, nil
}

func (m *Memory) GetEntry(_ context.Context, id int64) (graph.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return graph.Entry{}, errors.New(errors.ErrCodeEntryNotFound, "entry %d not found", id)
	}
	return e, nil
}

func (m *Memory) UpdateEntry(_ context.Context, e graph.Entry) error {
	if strings.TrimSpace(e.Title) == "" {
		return errors.New(errors.ErrCodeInvalidInput, "entry title must not be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[e.ID]; !ok {
		return errors.New(errors.ErrCodeEntryNotFound, "entry %d not found", e.ID)
	}
	m.entries[e.ID] = e
	return nil
}

func (m *Memory) DeleteEntry(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[id]; !ok {
		return errors.New(errors.ErrCodeEntryNotFound, "entry %d not found", id)
	}
	delete(m.entries, id)
	for rid, r := range m.rels {
		if r.EntryA == id || r.EntryB == id {
			delete(m.rels, rid)
		}
	}
	return nil
}

func (m *Memory) ListEntries(_ context.Context) ([]graph.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]graph.Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b graph.Entry) int { return int(a.ID - b.ID) })
	return out, nil
}

func (m *Memory) SearchEntries(ctx context.Context, query string) ([]graph.Entry, error) {
	all, err := m.ListEntries(ctx)
	if err != nil {
		return nil, err
	}
	if query == "" {
		return all, nil
	}

	q := strings.ToLower(query)
	var out []graph.Entry
	for _, e := range all {
		if strings.Contains(strings.ToLower(e.Title), q) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *Memory) CreateRelationship(_ context.Context, r graph.Relationship) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range []int64{r.EntryA, r.EntryB} {
		if _, ok := m.entries[id]; !ok {
			return 0, errors.New(errors.ErrCodeInvalidReference, "relationship references missing entry %d", id)
		}
	}
	for _, ex := range m.rels {
		samePair := (ex.EntryA == r.EntryA && ex.EntryB == r.EntryB) ||
			(ex.EntryA == r.EntryB && ex.EntryB == r.EntryA)
		if samePair && ex.Type == r.Type {
			return 0, errors.New(errors.ErrCodeInvalidInput,
				"entries %d and %d are already linked as %q", r.EntryA, r.EntryB, r.Type)
		}
	}

	r.ID = m.nextID
	m.nextID++
	m.rels[r.ID] = r
	return r.ID, nil
}

func (m *Memory) DeleteRelationship(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rels[id]; !ok {
		return errors.New(errors.ErrCodeNotFound, "relationship %d not found", id)
	}
	delete(m.rels, id)
	return nil
}

func (m *Memory) ListRelationships(_ context.Context) ([]graph.Relationship, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]graph.Relationship, 0, len(m.rels))
	for _, r := range m.rels {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b graph.Relationship) int { return int(a.ID - b.ID) })
	return out, nil
}

// Close is a no-op for the in-memory store.
func (m *Memory) Close() error { return nil }
