package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rwyengine/relmap/pkg/graph"
	"github.com/rwyengine/relmap/pkg/pipeline"
)

// renderCommand creates the render command for rendering from a computed
// layout.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		noCache    bool
	)
	var opts pipeline.Options

	cmd := &cobra.Command{
		Use:   "render [layout.json]",
		Short: "Render visual output from a computed layout",
		Long: `Render visual output from a computed layout.

The render command takes a layout.json file (produced by 'layout') and
renders it to PNG, SVG, or DOT format. The layout contains all positioning
information, so this step is purely about drawing.

Results are cached locally for faster subsequent runs.

Use 'map' as a shortcut to go directly from the database to visual output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			opts.Logger = c.Logger
			return c.runRender(cmd, args[0], opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): png (default), svg, dot (comma-separated)")
	cmd.Flags().Float64Var(&opts.Scale, "scale", pipeline.DefaultScale, "raster export scale factor")
	cmd.Flags().BoolVar(&opts.Labels, "labels", true, "draw entry titles under nodes")
	cmd.Flags().BoolVar(&opts.EdgeLabels, "edge-labels", false, "draw relationship types along edges")
	cmd.Flags().Int64Var(&opts.Focus, "focus", 0, "dim all but this entry and its neighbors")

	return cmd
}

// runRender loads the layout, reconstructs the graph, and renders it.
func (c *CLI) runRender(cmd *cobra.Command, input string, opts pipeline.Options, output string, noCache bool) error {
	ctx := cmd.Context()

	l, err := graph.ReadLayoutFile(input)
	if err != nil {
		return fmt.Errorf("load layout %s: %w", input, err)
	}
	g, err := l.Graph()
	if err != nil {
		return fmt.Errorf("reconstruct graph from %s: %w", input, err)
	}

	// Mode recorded in the layout drives the cache key.
	opts.Mode = l.Mode

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Rendering map...")
	spinner.Start()

	artifacts, cacheHit, err := runner.RenderWithCacheInfo(ctx, l, g, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	return writeArtifacts(artifactWriteParams{
		artifacts: artifacts,
		formats:   opts.Formats,
		base:      strings.TrimSuffix(input, filepath.Ext(input)),
		output:    output,
		cacheHit:  cacheHit,
	})
}
