package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/rwyengine/relmap/pkg/errors"
	"github.com/rwyengine/relmap/pkg/graph"
	"github.com/rwyengine/relmap/pkg/pipeline"
)

// =============================================================================
// JSON Helpers
// =============================================================================

// errorResponse is the JSON shape of an error reply.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := apperrors.GetCode(err)
	if code == "" {
		code = apperrors.ErrCodeInternal
	}
	writeJSON(w, statusForCode(code), errorResponse{
		Code:    string(code),
		Message: apperrors.UserMessage(err),
	})
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperrors.New(apperrors.ErrCodeInvalidInput, "invalid ID %q", raw)
	}
	return id, nil
}

// =============================================================================
// Entry Handlers
// =============================================================================

// entryPayload is the JSON shape of an entry in requests and responses.
type entryPayload struct {
	ID          int64    `json:"id,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Synonyms    []string `json:"synonyms,omitempty"`
}

func toPayload(e graph.Entry) entryPayload {
	return entryPayload{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Category:    e.Category.String(),
		Tags:        e.Tags,
		Synonyms:    e.Synonyms,
	}
}

func (p entryPayload) toEntry() graph.Entry {
	return graph.Entry{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Category:    graph.ParseCategory(p.Category),
		Tags:        p.Tags,
		Synonyms:    p.Synonyms,
	}
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.SearchEntries(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]entryPayload, len(entries))
	for i, e := range entries {
		out[i] = toPayload(e)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var p entryPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "decode entry"))
		return
	}
	id, err := s.store.CreateEntry(r.Context(), p.toEntry())
	if err != nil {
		writeError(w, err)
		return
	}
	p.ID = id
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	e, err := s.store.GetEntry(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPayload(e))
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.DeleteEntry(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Relationship Handlers
// =============================================================================

// relationshipPayload is the JSON shape of a relationship.
type relationshipPayload struct {
	ID     int64  `json:"id,omitempty"`
	EntryA int64  `json:"entry_a"`
	EntryB int64  `json:"entry_b"`
	Type   string `json:"type,omitempty"`
}

func (s *Server) handleListRelationships(w http.ResponseWriter, r *http.Request) {
	rels, err := s.store.ListRelationships(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]relationshipPayload, len(rels))
	for i, rel := range rels {
		out[i] = relationshipPayload{ID: rel.ID, EntryA: rel.EntryA, EntryB: rel.EntryB, Type: rel.Type}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateRelationship(w http.ResponseWriter, r *http.Request) {
	var p relationshipPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "decode relationship"))
		return
	}
	id, err := s.store.CreateRelationship(r.Context(), graph.Relationship{
		EntryA: p.EntryA,
		EntryB: p.EntryB,
		Type:   p.Type,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	p.ID = id
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleDeleteRelationship(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.DeleteRelationship(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Map Handlers
// =============================================================================

// mapOptions translates query parameters into pipeline options. The server
// always reads through the injected store, so the graph cache is bypassed
// and every request sees current data.
func (s *Server) mapOptions(r *http.Request) pipeline.Options {
	q := r.URL.Query()
	opts := pipeline.Options{
		DBPath: s.dbPath,
		Store:  s.store,
		Query:  q.Get("q"),
		Mode:   q.Get("mode"),
		Logger: s.logger,
		Labels: true,
	}
	if v, err := strconv.ParseInt(q.Get("root"), 10, 64); err == nil {
		opts.Root = v
	}
	if v, err := strconv.ParseInt(q.Get("focus"), 10, 64); err == nil {
		opts.Focus = v
	}
	if v, err := strconv.ParseFloat(q.Get("scale"), 64); err == nil && v > 0 {
		opts.Scale = v
	}
	if q.Get("labels") == "false" {
		opts.Labels = false
	}
	if q.Get("edge_labels") == "true" {
		opts.EdgeLabels = true
	}
	return opts
}

// handleGraph returns the derived graph as JSON.
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	g, err := s.runner.Build(r.Context(), s.mapOptions(r))
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := graph.MarshalGraph(g)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

// handleLayout computes and returns the layout as JSON.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	opts := s.mapOptions(r)
	g, err := s.runner.Build(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	l, err := s.runner.ComputeLayout(r.Context(), g, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := graph.MarshalLayout(l)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

// handleMap runs the full pipeline and returns a single rendered format.
func (s *Server) handleMap(format, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := s.mapOptions(r)
		opts.Formats = []string{format}

		result, err := s.runner.Execute(r.Context(), opts)
		if err != nil {
			writeError(w, err)
			return
		}
		data, ok := result.Artifacts[format]
		if !ok {
			writeError(w, apperrors.New(apperrors.ErrCodeInternal, "render produced no %s output", format))
			return
		}
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(data)
	}
}
