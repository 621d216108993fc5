package render

import "github.com/rwyengine/relmap/pkg/graph"

// =============================================================================
// Visual Style
// =============================================================================

// Category fill colors. Unknown categories fall back to neutral grey.
const (
	ColorCharacter = "#66AAFF"
	ColorLocation  = "#88CC66"
	ColorItem      = "#FFCC66"
	ColorEvent     = "#CC66FF"
	ColorDefault   = "#AAAAAA"
)

// Edge and text colors.
const (
	ColorEdge       = "#888888"
	ColorEdgeLabel  = "#666666"
	ColorNodeStroke = "#333333"
	ColorLabel      = "#222222"
	ColorBackground = "#FFFFFF"
)

// Node sizing: a base radius plus a per-degree bonus, capped so hub nodes
// stay readable instead of swallowing the map.
const (
	baseRadius     = 22.0
	radiusPerEdge  = 4.0
	radiusCapEdges = 8
)

// Edge curvature: perpendicular offset of the quadratic control point at the
// edge midpoint. Curved edges keep parallel links visually separable.
const edgeCurvature = 40.0

// CategoryColor returns the fill color for a node category.
func CategoryColor(c graph.Category) string {
	switch c {
	case graph.CategoryCharacter:
		return ColorCharacter
	case graph.CategoryLocation:
		return ColorLocation
	case graph.CategoryItem:
		return ColorItem
	case graph.CategoryEvent:
		return ColorEvent
	default:
		return ColorDefault
	}
}

// NodeRadius returns the drawn radius for a node with the given degree.
func NodeRadius(degree int) float64 {
	if degree > radiusCapEdges {
		degree = radiusCapEdges
	}
	return baseRadius + radiusPerEdge*float64(degree)
}
