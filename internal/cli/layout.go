package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jsonflow/jsonflow/pkg/graph"
	"github.com/jsonflow/jsonflow/pkg/layout"
	"github.com/jsonflow/jsonflow/pkg/pipeline"
)

// layoutCommand creates the layout command for positioning graphs.
func (c *CLI) layoutCommand() *cobra.Command {
	var output string
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "layout [graph.json]",
		Short: "Compute node positions for a structural graph",
		Long: `Compute node positions for a structural graph.

The layout command takes a graph.json file (produced by 'parse') and
assigns every node a position: depth becomes the column, siblings stack
vertically, and parents center on their subtrees. The output is a layout
snapshot that 'render' can turn into SVG, PNG, DOT, or JSON.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], opts, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().Float64Var(&opts.ColumnGap, "column-gap", 0, "horizontal gap between depth columns (default 80)")
	cmd.Flags().Float64Var(&opts.RowGap, "row-gap", 0, "vertical gap between sibling nodes (default 24)")

	return cmd
}

// runLayout loads the graph, computes the layout, and writes the snapshot.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output string) error {
	g, err := graph.ReadFile(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}

	runner := c.newRunner()
	defer runner.Close()

	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()

	_, snap, cacheHit, err := runner.LayoutWithCacheInfo(ctx, g, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		outputPath = base + ".layout.json"
	}

	if err := layout.WriteSnapshotFile(snap, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printDetail("Frame: %.0f x %.0f", snap.Frame.Width, snap.Frame.Height)
	printStats(g.NodeCount(), g.EdgeCount(), cacheHit)
	printNewline()
	printNextStep("Render", "jsonflow render "+outputPath)

	return nil
}
