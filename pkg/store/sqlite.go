package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rwyengine/relmap/pkg/errors"
	"github.com/rwyengine/relmap/pkg/graph"
	"github.com/rwyengine/relmap/pkg/observability"
)

// =============================================================================
// SQLite Store
// =============================================================================

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	category    TEXT NOT NULL DEFAULT '',
	tags        TEXT NOT NULL DEFAULT '[]',
	synonyms    TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS relationships (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	entry_a INTEGER NOT NULL REFERENCES entries(id) ON DELETE CASCADE,
	entry_b INTEGER NOT NULL REFERENCES entries(id) ON DELETE CASCADE,
	type    TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_relationships_a ON relationships(entry_a);
CREATE INDEX IF NOT EXISTS idx_relationships_b ON relationships(entry_b);
`

// SQLite is the file-backed Store implementation.
type SQLite struct {
	conn *sql.DB
	path string
}

var _ Store = (*SQLite)(nil)

// Open opens (creating if necessary) the SQLite database at path, with WAL
// mode and foreign keys enabled, and bootstraps the schema.
func Open(path string) (*SQLite, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "open database %s", path)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, errors.Wrap(errors.ErrCodeStore, err, "apply %s", pragma)
		}
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, errors.Wrap(errors.ErrCodeStore, err, "bootstrap schema")
	}

	return &SQLite{conn: conn, path: path}, nil
}

// Path returns the database file path.
func (s *SQLite) Path() string { return s.path }

// Close closes the database connection.
func (s *SQLite) Close() error { return s.conn.Close() }

// -----------------------------------------------------------------------------
// Entries
// -----------------------------------------------------------------------------

func (s *SQLite) CreateEntry(ctx context.Context, e graph.Entry) (id int64, err error) {
	if strings.TrimSpace(e.Title) == "" {
		return 0, errors.New(errors.ErrCodeInvalidInput, "entry title must not be empty")
	}
	defer reportMutation(ctx, "create_entry", time.Now(), &err)

	res, err := s.conn.ExecContext(ctx,
		`INSERT INTO entries (title, description, category, tags, synonyms) VALUES (?, ?, ?, ?, ?)`,
		e.Title, e.Description, e.Category.String(), encodeList(e.Tags), encodeList(e.Synonyms))
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeStore, err, "insert entry")
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeStore, err, "insert entry: id")
	}
	return id, nil
}

func (s *SQLite) GetEntry(ctx context.Context, id int64) (graph.Entry, error) {
	start := time.Now()
	row := s.conn.QueryRowContext(ctx,
		`SELECT id, title, description, category, tags, synonyms FROM entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		observability.Store().OnQuery(ctx, "get_entry", 0, time.Since(start))
		return graph.Entry{}, errors.New(errors.ErrCodeEntryNotFound, "entry %d not found", id)
	}
	if err != nil {
		return graph.Entry{}, errors.Wrap(errors.ErrCodeStore, err, "get entry %d", id)
	}
	observability.Store().OnQuery(ctx, "get_entry", 1, time.Since(start))
	return e, nil
}

func (s *SQLite) UpdateEntry(ctx context.Context, e graph.Entry) (err error) {
	if strings.TrimSpace(e.Title) == "" {
		return errors.New(errors.ErrCodeInvalidInput, "entry title must not be empty")
	}
	defer reportMutation(ctx, "update_entry", time.Now(), &err)

	res, err := s.conn.ExecContext(ctx,
		`UPDATE entries SET title = ?, description = ?, category = ?, tags = ?, synonyms = ? WHERE id = ?`,
		e.Title, e.Description, e.Category.String(), encodeList(e.Tags), encodeList(e.Synonyms), e.ID)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "update entry %d", e.ID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.New(errors.ErrCodeEntryNotFound, "entry %d not found", e.ID)
	}
	return nil
}

func (s *SQLite) DeleteEntry(ctx context.Context, id int64) (err error) {
	defer reportMutation(ctx, "delete_entry", time.Now(), &err)

	// ON DELETE CASCADE removes the entry's relationships.
	res, err := s.conn.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "delete entry %d", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.New(errors.ErrCodeEntryNotFound, "entry %d not found", id)
	}
	return nil
}

func (s *SQLite) ListEntries(ctx context.Context) ([]graph.Entry, error) {
	return s.queryEntries(ctx, "list_entries",
		`SELECT id, title, description, category, tags, synonyms FROM entries ORDER BY id`)
}

func (s *SQLite) SearchEntries(ctx context.Context, query string) ([]graph.Entry, error) {
	if query == "" {
		return s.ListEntries(ctx)
	}
	return s.queryEntries(ctx, "search_entries",
		`SELECT id, title, description, category, tags, synonyms FROM entries
		 WHERE title LIKE ? COLLATE NOCASE ORDER BY id`,
		"%"+query+"%")
}

func (s *SQLite) queryEntries(ctx context.Context, op, q string, args ...any) ([]graph.Entry, error) {
	start := time.Now()
	rows, err := s.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "query entries")
	}
	defer rows.Close()

	var out []graph.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStore, err, "scan entry")
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "iterate entries")
	}
	observability.Store().OnQuery(ctx, op, len(out), time.Since(start))
	return out, nil
}

// -----------------------------------------------------------------------------
// Relationships
// -----------------------------------------------------------------------------

func (s *SQLite) CreateRelationship(ctx context.Context, r graph.Relationship) (id int64, err error) {
	for _, eid := range []int64{r.EntryA, r.EntryB} {
		if err := s.entryExists(ctx, eid); err != nil {
			return 0, err
		}
	}
	if err := s.relationshipExists(ctx, r); err != nil {
		return 0, err
	}
	defer reportMutation(ctx, "create_relationship", time.Now(), &err)

	res, err := s.conn.ExecContext(ctx,
		`INSERT INTO relationships (entry_a, entry_b, type) VALUES (?, ?, ?)`,
		r.EntryA, r.EntryB, r.Type)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeStore, err, "insert relationship")
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeStore, err, "insert relationship: id")
	}
	return id, nil
}

func (s *SQLite) DeleteRelationship(ctx context.Context, id int64) (err error) {
	defer reportMutation(ctx, "delete_relationship", time.Now(), &err)

	res, err := s.conn.ExecContext(ctx, `DELETE FROM relationships WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "delete relationship %d", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.New(errors.ErrCodeNotFound, "relationship %d not found", id)
	}
	return nil
}

func (s *SQLite) ListRelationships(ctx context.Context) ([]graph.Relationship, error) {
	start := time.Now()
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, entry_a, entry_b, type FROM relationships ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "query relationships")
	}
	defer rows.Close()

	var out []graph.Relationship
	for rows.Next() {
		var r graph.Relationship
		if err := rows.Scan(&r.ID, &r.EntryA, &r.EntryB, &r.Type); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStore, err, "scan relationship")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "iterate relationships")
	}
	observability.Store().OnQuery(ctx, "list_relationships", len(out), time.Since(start))
	return out, nil
}

func (s *SQLite) entryExists(ctx context.Context, id int64) error {
	var one int
	err := s.conn.QueryRowContext(ctx, `SELECT 1 FROM entries WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return errors.New(errors.ErrCodeInvalidReference, "relationship references missing entry %d", id)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "check entry %d", id)
	}
	return nil
}

// relationshipExists rejects a second declaration of the same unordered pair
// with the same type; edge identity is (pair, type).
func (s *SQLite) relationshipExists(ctx context.Context, r graph.Relationship) error {
	var one int
	err := s.conn.QueryRowContext(ctx,
		`SELECT 1 FROM relationships
		 WHERE type = ? AND ((entry_a = ? AND entry_b = ?) OR (entry_a = ? AND entry_b = ?))`,
		r.Type, r.EntryA, r.EntryB, r.EntryB, r.EntryA).Scan(&one)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "check relationship %d-%d", r.EntryA, r.EntryB)
	}
	return errors.New(errors.ErrCodeInvalidInput,
		"entries %d and %d are already linked as %q", r.EntryA, r.EntryB, r.Type)
}

// reportMutation emits the store mutation hook. Deferred with a pointer so
// the reported error is the one the operation actually returns.
func reportMutation(ctx context.Context, op string, start time.Time, err *error) {
	observability.Store().OnMutation(ctx, op, time.Since(start), *err)
}

// -----------------------------------------------------------------------------
// Row helpers
// -----------------------------------------------------------------------------

type scannable interface {
	Scan(dest ...any) error
}

func scanEntry(row scannable) (graph.Entry, error) {
	var (
		e        graph.Entry
		category string
		tags     string
		synonyms string
	)
	if err := row.Scan(&e.ID, &e.Title, &e.Description, &category, &tags, &synonyms); err != nil {
		return graph.Entry{}, err
	}
	e.Category = graph.ParseCategory(category)
	e.Tags = decodeList(tags)
	e.Synonyms = decodeList(synonyms)
	return e, nil
}

// Tags and synonyms are stored as JSON arrays in a TEXT column.

func encodeList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func decodeList(s string) []string {
	var items []string
	if err := json.Unmarshal([]byte(s), &items); err != nil || len(items) == 0 {
		return nil
	}
	return items
}
