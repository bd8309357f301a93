package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/jsonflow/jsonflow/pkg/diff"
	"github.com/jsonflow/jsonflow/pkg/graph"
	"github.com/jsonflow/jsonflow/pkg/pipeline"
)

// diffCommand creates the diff command comparing two JSON documents.
func (c *CLI) diffCommand() *cobra.Command {
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "diff [before.json] [after.json]",
		Short: "Compare the structure of two JSON documents",
		Long: `Compare the structure of two JSON documents.

Both documents are built into graphs and aligned on node ids. Ids derive
from paths, so a value keeps its identity across versions as long as its
path is unchanged. The report lists nodes that appeared, nodes that
vanished, and nodes whose kind or content changed in place.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDiff(cmd.Context(), args[0], args[1], opts)
		},
	}

	cmd.Flags().IntVar(&opts.MaxNodes, "max-nodes", 0, "maximum graph nodes per document (default 10000)")
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", 0, "maximum nesting depth (default 512)")

	return cmd
}

// runDiff builds both documents and prints the structural report.
func (c *CLI) runDiff(ctx context.Context, beforePath, afterPath string, opts pipeline.Options) error {
	runner := c.newRunner()
	defer runner.Close()

	opts.Logger = c.Logger

	prog := newProgress(c.Logger)
	before, err := buildDocument(ctx, runner, beforePath, opts)
	if err != nil {
		return err
	}
	after, err := buildDocument(ctx, runner, afterPath, opts)
	if err != nil {
		return err
	}

	report := diff.Compare(before, after)
	prog.done(fmt.Sprintf("Compared %d against %d nodes", before.NodeCount(), after.NodeCount()))

	if report.Empty() {
		printSuccess("Documents are structurally identical")
		return nil
	}

	printInfo("%s", report.Summary())
	printNewline()
	fmt.Println(diffTable(report))

	return nil
}

// buildDocument reads one document file and builds its graph. opts is a
// copy, so setting the source name here never leaks to the second build.
func buildDocument(ctx context.Context, runner *pipeline.Runner, path string, opts pipeline.Options) (*graph.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", path, err)
	}
	opts.Source = filepath.Base(path)
	g, err := runner.Build(ctx, data, opts)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", path, err)
	}
	return g, nil
}

// diffCellRunes bounds table cells so multi-row content stays one line.
const diffCellRunes = 36

func diffCell(s string) string {
	s = strings.ReplaceAll(s, "\n", ", ")
	if runes := []rune(s); len(runes) > diffCellRunes {
		return string(runes[:diffCellRunes]) + "..."
	}
	return s
}

// diffTable renders the report as a bordered per-node change table.
func diffTable(report diff.Report) string {
	rows := make([][]string, 0, len(report.Added)+len(report.Removed)+len(report.Changed))
	for _, id := range report.Added {
		rows = append(rows, []string{"added", id, "", ""})
	}
	for _, id := range report.Removed {
		rows = append(rows, []string{"removed", id, "", ""})
	}
	for _, ch := range report.Changed {
		detail := diffCell(ch.Before) + " " + iconArrow + " " + diffCell(ch.After)
		rows = append(rows, []string{"changed", ch.ID, ch.Field, detail})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	addedStyle := lipgloss.NewStyle().Foreground(colorGreen)
	removedStyle := lipgloss.NewStyle().Foreground(colorRed)
	changedStyle := lipgloss.NewStyle().Foreground(colorYellow)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Change", "Node", "Field", "Detail").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col != 0 || row >= len(rows) {
				return lipgloss.NewStyle()
			}
			switch rows[row][0] {
			case "added":
				return addedStyle
			case "removed":
				return removedStyle
			default:
				return changedStyle
			}
		})

	return t.Render()
}
