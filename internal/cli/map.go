package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rwyengine/relmap/pkg/pipeline"
)

// mapCommand creates the map command: database → layout → export in one
// step.
func (c *CLI) mapCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		noCache    bool
	)
	var opts pipeline.Options

	cmd := &cobra.Command{
		Use:   "map",
		Short: "Build, lay out, and export a relationship map",
		Long: `Build, lay out, and export a relationship map.

The map command loads entries and relationships from the story database,
computes a layout (tree by default, force with --mode force), and writes the
requested output formats.

Results are cached locally for faster subsequent runs.

Use 'layout' and 'render' to run the stages separately.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			base := c.pipelineOptions()
			if opts.Mode == "" {
				opts.Mode = base.Mode
			}
			opts.DBPath = base.DBPath
			opts.Layout = base.Layout
			opts.Logger = c.Logger
			opts.Formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}

			runner, err := c.newRunner(noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			ctx := cmd.Context()
			spinner := newSpinnerWithContext(ctx, "Building map...")
			spinner.Start()

			result, err := runner.Execute(ctx, opts)
			if err != nil {
				spinner.StopWithError("Map failed")
				return err
			}
			spinner.Stop()

			if result.Stats.Diverged {
				printWarning("layout did not fully converge; exported best effort")
			}

			if err := writeArtifacts(artifactWriteParams{
				artifacts: result.Artifacts,
				formats:   opts.Formats,
				base:      defaultBase(output, opts.DBPath),
				output:    output,
				cacheHit:  result.CacheInfo.RenderHit,
			}); err != nil {
				return err
			}
			printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.CacheInfo.RenderHit)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "rebuild the graph even if cached")

	cmd.Flags().StringVarP(&opts.Mode, "mode", "m", "", "layout mode: tree (default), force")
	cmd.Flags().Int64Var(&opts.Root, "root", 0, "tree root entry ID (0 = auto per component)")
	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "only include entries whose title contains this text")

	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): png (default), svg, dot, json (comma-separated)")
	cmd.Flags().Float64Var(&opts.Scale, "scale", pipeline.DefaultScale, "raster export scale factor")
	cmd.Flags().BoolVar(&opts.Labels, "labels", true, "draw entry titles under nodes")
	cmd.Flags().BoolVar(&opts.EdgeLabels, "edge-labels", false, "draw relationship types along edges")
	cmd.Flags().Int64Var(&opts.Focus, "focus", 0, "dim all but this entry and its neighbors")

	return cmd
}

// =============================================================================
// Artifact Output
// =============================================================================

// artifactWriteParams bundles the inputs for writeArtifacts.
type artifactWriteParams struct {
	artifacts map[string][]byte
	formats   []string
	base      string // base path for multi-format output
	output    string // explicit output path (single format)
	cacheHit  bool
}

// writeArtifacts writes the rendered outputs to disk: the explicit output
// path for a single format, or <base>.<format> per format otherwise.
func writeArtifacts(p artifactWriteParams) error {
	for _, format := range p.formats {
		data, ok := p.artifacts[format]
		if !ok {
			continue
		}

		path := p.output
		if path == "" || len(p.formats) > 1 {
			path = p.base + "." + format
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	printSuccess("Map complete")
	return nil
}

// defaultBase derives the multi-format base path from the output flag or the
// database name.
func defaultBase(output, dbPath string) string {
	if output != "" {
		ext := filepath.Ext(output)
		if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
			return strings.TrimSuffix(output, ext)
		}
		return output
	}
	base := strings.TrimSuffix(filepath.Base(dbPath), filepath.Ext(dbPath))
	if base == "" {
		base = "map"
	}
	return base
}
