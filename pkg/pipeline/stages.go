package pipeline

import (
	"bytes"
	"context"

	"github.com/rwyengine/relmap/pkg/errors"
	"github.com/rwyengine/relmap/pkg/graph"
	"github.com/rwyengine/relmap/pkg/layout"
	"github.com/rwyengine/relmap/pkg/render"
	"github.com/rwyengine/relmap/pkg/session"
	"github.com/rwyengine/relmap/pkg/store"
)

// =============================================================================
// Stage Implementations
// =============================================================================

// buildGraph loads entries and relationships and derives the graph. With a
// query, entries are filtered first and only relationships between surviving
// entries are kept.
func buildGraph(ctx context.Context, opts Options) (*graph.Graph, error) {
	s := opts.Store
	if s == nil {
		db, err := store.Open(opts.DBPath)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		s = db
	}

	entries, err := s.SearchEntries(ctx, opts.Query)
	if err != nil {
		return nil, err
	}
	rels, err := s.ListRelationships(ctx)
	if err != nil {
		return nil, err
	}

	if opts.Query != "" {
		kept := make(map[int64]bool, len(entries))
		for _, e := range entries {
			kept[e.ID] = true
		}
		filtered := rels[:0]
		for _, r := range rels {
			if kept[r.EntryA] && kept[r.EntryB] {
				filtered = append(filtered, r)
			}
		}
		rels = filtered
	}

	return graph.Build(entries, rels)
}

// computeLayout runs the layout stage through a session, so batch runs and
// interactive sessions share identical semantics. Returns the layout
// document and the number of force iterations executed (0 for tree mode).
// A divergence is reported in the document, not as an error.
func computeLayout(ctx context.Context, g *graph.Graph, opts Options) (graph.Layout, int, error) {
	mode, err := layout.ParseMode(opts.Mode)
	if err != nil {
		return graph.Layout{}, 0, err
	}

	sess, err := session.Open(g, mode, opts.Root, opts.Layout)
	if err != nil {
		return graph.Layout{}, 0, err
	}

	iterations := 0
	if mode == layout.ModeForce {
		err := sess.Settle(ctx)
		var div *errors.DivergenceError
		if err != nil && !errors.AsDivergence(err, &div) {
			return graph.Layout{}, 0, err
		}
		iterations = sess.Steps()
	}

	return sess.Layout(), iterations, nil
}

// renderArtifacts produces every requested format from the computed layout.
func renderArtifacts(ctx context.Context, l graph.Layout, g *graph.Graph, opts Options) (map[string][]byte, error) {
	pos := positionPoints(l)

	renderOpts := render.Options{
		Scale:      opts.Scale,
		Margin:     render.DefaultOptions().Margin,
		Labels:     opts.Labels,
		EdgeLabels: opts.EdgeLabels,
		Focus:      opts.Focus,
	}

	out := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		switch format {
		case FormatPNG:
			var buf bytes.Buffer
			if err := render.EncodePNG(&buf, g, pos, renderOpts); err != nil {
				return nil, err
			}
			out[format] = buf.Bytes()
		case FormatSVG:
			svg, err := render.SVG(ctx, g, pos)
			if err != nil {
				return nil, err
			}
			out[format] = svg
		case FormatDOT:
			out[format] = []byte(render.ToDOT(g, pos))
		case FormatJSON:
			data, err := graph.MarshalLayout(l)
			if err != nil {
				return nil, err
			}
			out[format] = data
		default:
			return nil, errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q", format)
		}
	}
	return out, nil
}

// positionPoints converts the serialized positions back to layout points.
func positionPoints(l graph.Layout) map[int64]layout.Point {
	pos := make(map[int64]layout.Point, len(l.Positions))
	for _, p := range l.Positions {
		pos[p.ID] = layout.Point{X: p.X, Y: p.Y}
	}
	return pos
}
