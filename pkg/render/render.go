package render

import (
	"image"
	"io"
	"math"

	"github.com/fogleman/gg"

	"github.com/rwyengine/relmap/pkg/errors"
	"github.com/rwyengine/relmap/pkg/graph"
	"github.com/rwyengine/relmap/pkg/layout"
)

// =============================================================================
// Options
// =============================================================================

// Options configures raster rendering.
type Options struct {
	// Scale multiplies the output resolution. 2.0 produces a 2x image for
	// high-DPI displays.
	Scale float64

	// Margin is the padding (in layout units) around the content bounding
	// box.
	Margin float64

	// Background is the canvas fill color.
	Background string

	// Labels draws the node title under each circle.
	Labels bool

	// EdgeLabels draws the relationship type at each edge midpoint.
	EdgeLabels bool

	// Focus dims every node that is neither the given node nor one of its
	// direct neighbors. 0 disables focus dimming.
	Focus int64
}

// DefaultOptions returns the standard export settings.
func DefaultOptions() Options {
	return Options{
		Scale:      2.0,
		Margin:     40,
		Background: ColorBackground,
		Labels:     true,
	}
}

// dimAlpha is the hex alpha suffix applied to out-of-focus elements.
const dimAlpha = "40"

// =============================================================================
// Raster Renderer
// =============================================================================

// Image renders the graph at the given positions into an in-memory image.
// The canvas is sized to the bounding box of the drawn content plus the
// margin. An empty graph is an error: a blank export is never intentional.
func Image(g *graph.Graph, pos map[int64]layout.Point, opts Options) (image.Image, error) {
	dc, err := draw(g, pos, opts)
	if err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

// EncodePNG renders the graph and writes PNG bytes to w.
func EncodePNG(w io.Writer, g *graph.Graph, pos map[int64]layout.Point, opts Options) error {
	dc, err := draw(g, pos, opts)
	if err != nil {
		return err
	}
	if err := dc.EncodePNG(w); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode png")
	}
	return nil
}

// ExportPNG renders the graph and writes a PNG file to path.
func ExportPNG(g *graph.Graph, pos map[int64]layout.Point, path string, opts Options) error {
	dc, err := draw(g, pos, opts)
	if err != nil {
		return err
	}
	if err := dc.SavePNG(path); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write png %s", path)
	}
	return nil
}

func draw(g *graph.Graph, pos map[int64]layout.Point, opts Options) (*gg.Context, error) {
	if g.NodeCount() == 0 {
		return nil, errors.New(errors.ErrCodeExportEmpty, "nothing to export: the graph has no nodes")
	}
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	if opts.Background == "" {
		opts.Background = ColorBackground
	}

	for _, n := range g.Nodes() {
		if _, ok := pos[n.ID]; !ok {
			return nil, errors.New(errors.ErrCodeInvalidInput, "node %d has no position", n.ID)
		}
	}

	minX, minY, maxX, maxY := bounds(g, pos, opts)
	width := int(math.Ceil((maxX - minX + 2*opts.Margin) * opts.Scale))
	height := int(math.Ceil((maxY - minY + 2*opts.Margin) * opts.Scale))
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	dc := gg.NewContext(width, height)
	dc.SetHexColor(opts.Background)
	dc.Clear()

	// Map layout coordinates into the cropped, scaled canvas.
	dc.Scale(opts.Scale, opts.Scale)
	dc.Translate(opts.Margin-minX, opts.Margin-minY)

	focus := focusSet(g, opts.Focus)

	// Edges first so circles cover the endpoints.
	for _, e := range g.DrawnEdges() {
		drawEdge(dc, e, pos, focus, opts)
	}
	for _, n := range g.Nodes() {
		drawNode(dc, g, n, pos[n.ID], focus, opts)
	}

	return dc, nil
}

// bounds computes the content bounding box: node circles plus the curve bow
// of the edges.
func bounds(g *graph.Graph, pos map[int64]layout.Point, opts Options) (minX, minY, maxX, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)

	for _, n := range g.Nodes() {
		p := pos[n.ID]
		r := NodeRadius(g.Degree(n.ID))
		if opts.Labels {
			r += labelGap + labelHeight
		}
		minX = math.Min(minX, p.X-r)
		minY = math.Min(minY, p.Y-r)
		maxX = math.Max(maxX, p.X+r)
		maxY = math.Max(maxY, p.Y+r)
	}

	// A quadratic curve bows out at most half the control-point offset.
	if g.EdgeCount() > 0 {
		bow := edgeCurvature / 2
		minX -= bow
		minY -= bow
		maxX += bow
		maxY += bow
	}
	return minX, minY, maxX, maxY
}

// focusSet returns the IDs drawn at full opacity, or nil when focus dimming
// is off.
func focusSet(g *graph.Graph, focus int64) map[int64]bool {
	if focus == 0 {
		return nil
	}
	set := map[int64]bool{focus: true}
	for _, id := range g.Neighbors(focus) {
		set[id] = true
	}
	return set
}

const (
	labelGap    = 6.0
	labelHeight = 14.0
	loopRadius  = 18.0
)

func drawEdge(dc *gg.Context, e graph.Edge, pos map[int64]layout.Point, focus map[int64]bool, opts Options) {
	dim := focus != nil && !(focus[e.From] && focus[e.To])

	edgeColor := ColorEdge
	if dim {
		edgeColor += dimAlpha
	}
	dc.SetHexColor(edgeColor)
	dc.SetLineWidth(1.5)

	a, b := pos[e.From], pos[e.To]

	if e.From == e.To {
		// Self-relation: a small loop above the node.
		dc.DrawCircle(a.X, a.Y-NodeRadius(0), loopRadius)
		dc.Stroke()
		return
	}

	ctrl := controlPoint(a, b)
	dc.MoveTo(a.X, a.Y)
	dc.QuadraticTo(ctrl.X, ctrl.Y, b.X, b.Y)
	dc.Stroke()

	if e.Directed {
		drawArrowhead(dc, ctrl, b)
	}

	if opts.EdgeLabels && e.Label != "" {
		// Apex of the quadratic curve, halfway between chord and control.
		apex := midpoint(midpoint(a, b), ctrl)
		labelColor := ColorEdgeLabel
		if dim {
			labelColor += dimAlpha
		}
		dc.SetHexColor(labelColor)
		dc.DrawStringAnchored(e.Label, apex.X, apex.Y, 0.5, 0.5)
	}
}

func drawNode(dc *gg.Context, g *graph.Graph, n *graph.Node, p layout.Point, focus map[int64]bool, opts Options) {
	dim := focus != nil && !focus[n.ID]
	r := NodeRadius(g.Degree(n.ID))

	fill := CategoryColor(n.Category)
	stroke := ColorNodeStroke
	if dim {
		fill += dimAlpha
		stroke += dimAlpha
	}

	dc.SetHexColor(fill)
	dc.DrawCircle(p.X, p.Y, r)
	dc.Fill()

	dc.SetHexColor(stroke)
	dc.SetLineWidth(2)
	dc.DrawCircle(p.X, p.Y, r)
	dc.Stroke()

	if opts.Labels {
		labelColor := ColorLabel
		if dim {
			labelColor += dimAlpha
		}
		dc.SetHexColor(labelColor)
		dc.DrawStringAnchored(n.Label, p.X, p.Y+r+labelGap, 0.5, 1)
	}
}

// drawArrowhead draws a small arrow at the target end, oriented along the
// incoming curve tangent.
func drawArrowhead(dc *gg.Context, ctrl, b layout.Point) {
	d := b.Sub(ctrl)
	dist := math.Hypot(d.X, d.Y)
	if dist == 0 {
		return
	}
	dir := d.Scale(1 / dist)
	perp := layout.Point{X: -dir.Y, Y: dir.X}

	const size = 8.0
	tip := b
	left := tip.Sub(dir.Scale(size)).Add(perp.Scale(size / 2))
	right := tip.Sub(dir.Scale(size)).Sub(perp.Scale(size / 2))

	dc.MoveTo(tip.X, tip.Y)
	dc.LineTo(left.X, left.Y)
	dc.LineTo(right.X, right.Y)
	dc.ClosePath()
	dc.Fill()
}

// controlPoint returns the quadratic control point for the edge a-b: the
// midpoint pushed perpendicular to the chord by the edge curvature.
func controlPoint(a, b layout.Point) layout.Point {
	m := midpoint(a, b)
	d := b.Sub(a)
	dist := math.Hypot(d.X, d.Y)
	if dist == 0 {
		return m
	}
	perp := layout.Point{X: -d.Y / dist, Y: d.X / dist}
	return m.Add(perp.Scale(edgeCurvature))
}

func midpoint(a, b layout.Point) layout.Point {
	return layout.Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}
