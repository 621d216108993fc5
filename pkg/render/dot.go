package render

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"

	"github.com/rwyengine/relmap/pkg/errors"
	"github.com/rwyengine/relmap/pkg/graph"
	"github.com/rwyengine/relmap/pkg/layout"
)

// =============================================================================
// Graphviz Export
// =============================================================================

// DOT coordinates are in points (72 per inch); layout coordinates are pixels.
const dotScale = 72.0

// ToDOT converts the graph and its computed positions to Graphviz DOT with
// pinned node positions. Rendering through neato preserves the layout
// exactly; Graphviz contributes only the drawing.
//
// The DOT y axis points up, so layout y coordinates are negated.
func ToDOT(g *graph.Graph, pos map[int64]layout.Point) string {
	var buf bytes.Buffer
	buf.WriteString("graph relmap {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, style=filled, fontsize=12];\n")
	buf.WriteString("  edge [color=\"" + ColorEdge + "\"];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		p := pos[n.ID]
		fmt.Fprintf(&buf, "  %d [label=%q, fillcolor=%q, pos=\"%.3f,%.3f!\"];\n",
			n.ID, n.Label, CategoryColor(n.Category), p.X/dotScale, -p.Y/dotScale)
	}

	buf.WriteString("\n")
	for _, e := range g.DrawnEdges() {
		if e.Label != "" {
			fmt.Fprintf(&buf, "  %d -- %d [label=%q];\n", e.From, e.To, e.Label)
			continue
		}
		fmt.Fprintf(&buf, "  %d -- %d;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// SVG renders the graph at the given positions to SVG via Graphviz.
func SVG(ctx context.Context, g *graph.Graph, pos map[int64]layout.Point) ([]byte, error) {
	if g.NodeCount() == 0 {
		return nil, errors.New(errors.ErrCodeExportEmpty, "nothing to export: the graph has no nodes")
	}
	return RenderDOT(ctx, ToDOT(g, pos))
}

// RenderDOT renders a DOT string to SVG using Graphviz.
func RenderDOT(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	parsed, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "parse DOT")
	}
	defer parsed.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, parsed, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render svg")
	}
	return buf.Bytes(), nil
}
