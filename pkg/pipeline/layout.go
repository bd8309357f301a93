package pipeline

import (
	"github.com/jsonflow/jsonflow/pkg/graph"
	"github.com/jsonflow/jsonflow/pkg/layout"
)

// =============================================================================
// Layout Stage
// =============================================================================

// GenerateLayout positions every node of g in place and captures the result
// as a serializable snapshot.
//
// The snapshot is what the cache stores and what the render stage keys its
// artifacts on; the mutated graph is what renderers actually draw.
func GenerateLayout(g *graph.Graph, opts Options) (layout.Snapshot, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return layout.Snapshot{}, err
	}

	eng := layout.New(
		layout.WithColumnGap(opts.ColumnGap),
		layout.WithRowGap(opts.RowGap),
	)
	res, err := eng.Layout(g)
	if err != nil {
		return layout.Snapshot{}, err
	}
	return layout.Capture(g, res), nil
}
