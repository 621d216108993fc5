package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rwyengine/relmap/pkg/graph"
	"github.com/rwyengine/relmap/pkg/pipeline"
)

// layoutCommand creates the layout command for computing map layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)
	var opts pipeline.Options

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Compute a relationship-map layout and write it as JSON",
		Long: `Compute a relationship-map layout and write it as JSON.

The layout command loads the story database, derives the graph, and computes
node positions with the selected algorithm. The output is a layout.json file
that can be rendered with the 'render' command.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			base := c.pipelineOptions()
			if opts.Mode == "" {
				opts.Mode = base.Mode
			}
			opts.DBPath = base.DBPath
			opts.Layout = base.Layout
			opts.Logger = c.Logger
			return c.runLayout(cmd, opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <db>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "rebuild the graph even if cached")
	cmd.Flags().StringVarP(&opts.Mode, "mode", "m", "", "layout mode: tree (default), force")
	cmd.Flags().Int64Var(&opts.Root, "root", 0, "tree root entry ID (0 = auto per component)")
	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "only include entries whose title contains this text")

	return cmd
}

func (c *CLI) runLayout(cmd *cobra.Command, opts pipeline.Options, output string, noCache bool) error {
	ctx := cmd.Context()

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	g, _, err := runner.BuildWithCacheInfo(ctx, opts)
	if err != nil {
		return err
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Computing %s layout...", opts.Mode))
	spinner.Start()

	l, cacheHit, err := runner.ComputeLayoutWithCacheInfo(ctx, g, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if l.Diverged {
		printWarning("layout did not fully converge; wrote best effort")
	}

	outputPath := output
	if outputPath == "" {
		base := strings.TrimSuffix(opts.DBPath, filepath.Ext(opts.DBPath))
		outputPath = base + ".layout.json"
	}

	if err := graph.WriteLayoutFile(l, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(g.NodeCount(), g.EdgeCount(), cacheHit)
	printNewline()
	printNextStep("Render", "relmap render "+outputPath)

	return nil
}
