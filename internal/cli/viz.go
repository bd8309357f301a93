package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jsonflow/jsonflow/pkg/pipeline"
)

// vizCommand creates the viz command running the full pipeline in one shot.
func (c *CLI) vizCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "viz [document.json]",
		Short: "Build, lay out, and render a JSON document in one shot",
		Long: `Build, lay out, and render a JSON document in one shot.

viz runs the full pipeline: decode the document, build the structural
graph, compute node positions, and draw the result. It is equivalent to
running 'parse', 'layout', and 'render' in sequence without the
intermediate files.

Each stage is cached independently, so re-running the same document with
the same options is cheap.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = resolveFormats(formatsStr, output)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			if opts.Theme != "" {
				if err := pipeline.ValidateTheme(opts.Theme); err != nil {
					return err
				}
			}
			return c.runViz(cmd.Context(), args[0], opts, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, dot, json (comma-separated)")
	cmd.Flags().StringVar(&opts.Theme, "theme", "", "visual theme: light (default), dark")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "include value previews in DOT labels")
	cmd.Flags().IntVar(&opts.MaxNodes, "max-nodes", 0, "maximum graph nodes (default 10000)")
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", 0, "maximum nesting depth (default 512)")
	cmd.Flags().Float64Var(&opts.ColumnGap, "column-gap", 0, "horizontal gap between depth columns (default 80)")
	cmd.Flags().Float64Var(&opts.RowGap, "row-gap", 0, "vertical gap between sibling nodes (default 24)")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "re-decode the document, bypassing the graph cache")

	return cmd
}

// runViz executes the full pipeline and writes the artifacts.
func (c *CLI) runViz(ctx context.Context, input string, opts pipeline.Options, output string) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read document %s: %w", input, err)
	}

	runner := c.newRunner()
	defer runner.Close()

	opts.Source = filepath.Base(input)
	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, "Building visualization...")
	spinner.Start()

	result, err := runner.Execute(ctx, data, opts)
	if err != nil {
		spinner.StopWithError("Visualization failed")
		return fmt.Errorf("viz: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	// Cached only when every stage hit.
	cached := result.CacheInfo.BuildHit && result.CacheInfo.LayoutHit && result.CacheInfo.RenderHit

	if err := writeArtifacts(artifactWriteParams{
		artifacts: result.Artifacts,
		formats:   opts.Formats,
		input:     input,
		output:    output,
		cacheHit:  cached,
		nodeCount: result.Stats.NodeCount,
		edgeCount: result.Stats.EdgeCount,
	}); err != nil {
		return err
	}

	printNewline()
	printNextStep("Explore interactively", "jsonflow explore "+input)

	return nil
}
