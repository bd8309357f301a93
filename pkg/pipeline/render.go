package pipeline

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jsonflow/jsonflow/pkg/errors"
	"github.com/jsonflow/jsonflow/pkg/graph"
	"github.com/jsonflow/jsonflow/pkg/render"
)

// =============================================================================
// Render Stage
// =============================================================================

// RenderArtifacts renders a positioned graph in every requested format.
//
// SVG and JSON draw the positions the layout stage computed. DOT emits the
// graph structure for external Graphviz tooling, and PNG rasterizes that
// DOT form through the bundled Graphviz engine, which lays the graph out
// itself.
func RenderArtifacts(ctx context.Context, g *graph.Graph, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, err := renderFormat(ctx, g, format, opts)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func renderFormat(ctx context.Context, g *graph.Graph, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatSVG:
		theme, err := render.ThemeByName(opts.Theme)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := render.WriteSVG(&buf, g, render.WithTheme(theme)); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	case FormatPNG:
		return render.PNG(ctx, g, opts.DOTOptions())

	case FormatDOT:
		return []byte(render.ToDOT(g, opts.DOTOptions())), nil

	case FormatJSON:
		var buf bytes.Buffer
		if err := render.WriteJSON(&buf, g, render.WithJSONTheme(opts.Theme)); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported format %q", format)
	}
}
