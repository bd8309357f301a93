package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jsonflow/jsonflow/pkg/graph"
	"github.com/jsonflow/jsonflow/pkg/pipeline"
)

// parseCommand creates the parse command for building graphs from JSON documents.
func (c *CLI) parseCommand() *cobra.Command {
	var output string
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "parse [document.json]",
		Short: "Build a structural graph from a JSON document",
		Long: `Build a structural graph from a JSON document.

Every object and array in the document becomes a node, nesting becomes
edges, and array order becomes chain links between consecutive items.
Primitive members are folded into their parent node as property rows.

The output is a graph.json file that 'layout' can position. Results are
cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runParse(cmd.Context(), args[0], opts, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().IntVar(&opts.MaxNodes, "max-nodes", 0, "maximum graph nodes (default 10000)")
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", 0, "maximum nesting depth (default 512)")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "bypass cache")

	return cmd
}

// runParse reads the document, builds the graph, and writes output.
func (c *CLI) runParse(ctx context.Context, input string, opts pipeline.Options, output string) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read document %s: %w", input, err)
	}

	runner := c.newRunner()
	defer runner.Close()

	opts.Source = filepath.Base(input)
	opts.Logger = c.Logger

	prog := newProgress(c.Logger)
	g, cacheHit, err := runner.BuildWithCacheInfo(ctx, data, opts)
	if err != nil {
		return fmt.Errorf("build graph: %w", err)
	}
	prog.done(fmt.Sprintf("Built %d nodes with %d edges", g.NodeCount(), g.EdgeCount()))

	// Stdout output stays clean JSON, no UI summary.
	if output == "" {
		return graph.Write(g, os.Stdout)
	}
	if err := graph.WriteFile(g, output); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess("Parse complete")
	printFile(output)
	printStats(g.NodeCount(), g.EdgeCount(), cacheHit)
	printNewline()
	printNextStep("Layout", "jsonflow layout "+output)

	return nil
}
