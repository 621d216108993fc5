// Package render turns a relationship graph plus computed node positions
// into visual output.
//
// # Overview
//
// Two renderers are provided:
//
//   - A raster renderer drawing directly to an image: category-colored
//     circles sized by node degree, curved edges, and labels. Used for PNG
//     export and for the scene behind the interactive viewer.
//   - A Graphviz exporter producing DOT with pinned positions, rendered to
//     SVG via neato. Positions computed by the layout engine are preserved
//     exactly; Graphviz only draws, it never re-lays-out.
//
// # Raster rendering
//
//	img, err := render.Image(g, positions, render.DefaultOptions())
//	err = render.ExportPNG(g, positions, "map.png", opts)
//
// Export crops to the bounding box of the drawn content plus a margin and
// scales up for high-DPI output. Exporting an empty graph is an error
// (EXPORT_EMPTY) rather than a blank file.
//
// # Graphviz export
//
//	dot := render.ToDOT(g, positions)
//	svg, err := render.SVG(ctx, g, positions)
package render
