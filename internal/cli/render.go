package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jsonflow/jsonflow/pkg/layout"
	"github.com/jsonflow/jsonflow/pkg/pipeline"
)

// renderCommand creates the render command for producing output artifacts
// from a computed layout.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [layout.json]",
		Short: "Render a computed layout to SVG, PNG, DOT, or JSON",
		Long: `Render a computed layout to output files.

The render command takes a layout snapshot (produced by 'layout') and
draws it in one or more formats. The snapshot carries all positioning
information, so this step is purely about drawing.

The format is taken from --format, or inferred from the --output file
extension. Multiple comma-separated formats write one file per format
next to the output base path.

Results are cached locally for faster subsequent runs.

Use 'viz' as a shortcut to go directly from a JSON document to visual
output.`,
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
			return c.runRender(cmd.Context(), args[0], opts, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, dot, json (comma-separated)")
	cmd.Flags().StringVar(&opts.Theme, "theme", "", "visual theme: light (default), dark")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "include value previews in DOT labels")

	return cmd
}

// runRender loads the snapshot, restores the positioned graph, and renders
// the requested formats.
func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, output string) error {
	snap, err := layout.ReadSnapshotFile(input)
	if err != nil {
		return fmt.Errorf("load layout %s: %w", input, err)
	}
	g, _, err := layout.Restore(snap)
	if err != nil {
		return fmt.Errorf("restore layout %s: %w", input, err)
	}

	runner := c.newRunner()
	defer runner.Close()

	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", strings.Join(opts.Formats, ", ")))
	spinner.Start()

	artifacts, cacheHit, err := runner.RenderWithCacheInfo(ctx, g, snap, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return fmt.Errorf("render: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	return writeArtifacts(artifactWriteParams{
		artifacts: artifacts,
		formats:   opts.Formats,
		input:     input,
		output:    output,
		cacheHit:  cacheHit,
		nodeCount: g.NodeCount(),
		edgeCount: g.EdgeCount(),
	})
}

// =============================================================================
// Format Resolution
// =============================================================================

// resolveFormats determines the output formats from the --format flag, the
// --output extension, or the SVG default, in that order.
func resolveFormats(formatsStr, output string) []string {
	if formatsStr != "" {
		return strings.Split(formatsStr, ",")
	}
	if f := formatFromPath(output); f != "" {
		return []string{f}
	}
	return []string{pipeline.FormatSVG}
}

// formatFromPath returns the format implied by a file extension, or "" when
// the extension names no known format.
func formatFromPath(path string) string {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if pipeline.ValidFormats[ext] {
		return ext
	}
	return ""
}

// basePath derives the base output path from the output and input paths.
// A known format extension on the output is stripped so base.format names
// compose cleanly when writing multiple files.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// =============================================================================
// Artifact Output
// =============================================================================

// artifactWriteParams bundles the inputs for writeArtifacts.
type artifactWriteParams struct {
	artifacts map[string][]byte
	formats   []string
	input     string
	output    string
	cacheHit  bool

	nodeCount int
	edgeCount int
}

// writeArtifacts writes rendered artifacts to disk and prints the summary.
// A single format honors the output path exactly; multiple formats write
// base.format files derived from the output or input path.
func writeArtifacts(p artifactWriteParams) error {
	var paths []string

	if len(p.formats) == 1 && p.output != "" {
		paths = append(paths, p.output)
		if err := os.WriteFile(p.output, p.artifacts[p.formats[0]], 0o644); err != nil {
			return fmt.Errorf("write output %s: %w", p.output, err)
		}
	} else {
		base := basePath(p.output, p.input)
		for _, format := range p.formats {
			data, ok := p.artifacts[format]
			if !ok {
				continue
			}
			path := base + "." + format
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("write output %s: %w", path, err)
			}
			paths = append(paths, path)
		}
	}

	printSuccess("Render complete")
	for _, path := range paths {
		printFile(path)
	}
	printStats(p.nodeCount, p.edgeCount, p.cacheHit)

	return nil
}
