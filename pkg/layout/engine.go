package layout

import (
	"github.com/jsonflow/jsonflow/pkg/errors"
	"github.com/jsonflow/jsonflow/pkg/graph"
)

// Spacing defaults, in user units.
const (
	// DefaultColumnGap is the horizontal gap between consecutive depth
	// columns.
	DefaultColumnGap = 80.0

	// DefaultRowGap is the vertical gap between sibling subtrees.
	DefaultRowGap = 24.0

	// FallbackColumnWidth is the fixed column pitch used when normal layout
	// fails and positions degrade to depth-only placement.
	FallbackColumnWidth = DefaultMaxWidth + DefaultColumnGap
)

// Option configures an Engine.
type Option func(*Engine)

// WithColumnGap sets the horizontal gap between depth columns.
func WithColumnGap(gap float64) Option { return func(e *Engine) { e.columnGap = gap } }

// WithRowGap sets the vertical gap between sibling subtrees.
func WithRowGap(gap float64) Option { return func(e *Engine) { e.rowGap = gap } }

// WithOrigin sets the top-left corner the layout grows from.
func WithOrigin(x, y float64) Option {
	return func(e *Engine) { e.originX, e.originY = x, y }
}

// Engine computes positions for document graphs. Create with [New]; the
// zero value uses zero gaps and is rarely what you want.
type Engine struct {
	columnGap float64
	rowGap    float64
	originX   float64
	originY   float64
}

// New creates an engine with the given options applied over defaults.
func New(opts ...Option) *Engine {
	e := &Engine{columnGap: DefaultColumnGap, rowGap: DefaultRowGap}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result summarizes one layout run.
type Result struct {
	Frame Frame `json:"frame"`
	Stats Stats `json:"stats"`
}

// Frame is the bounding box of all placed nodes, relative to the origin.
type Frame struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Stats carries layout diagnostics.
type Stats struct {
	Nodes     int  `json:"nodes"`
	Edges     int  `json:"edges"`
	Ranks     int  `json:"ranks"`
	Crossings int  `json:"crossings"`
	Fallback  bool `json:"fallback,omitempty"`
}

// Layout measures the graph and assigns a position to every node.
//
// The graph must pass [graph.Graph.ValidateForest]; anything else fails
// before a single node moves, leaving the caller free to degrade via
// [Engine.Fallback]. A node's x comes from its depth column, its y from
// centering it in its subtree band. Disconnected components are stacked
// top to bottom in insertion order. A graph with a single node lands
// exactly at the origin.
func (e *Engine) Layout(g *graph.Graph) (Result, error) {
	if err := g.ValidateForest(); err != nil {
		return Result{}, errors.Wrap(errors.ErrCodeInvalidGraph, err, "graph cannot be laid out")
	}
	if g.NodeCount() == 0 {
		return Result{}, nil
	}

	Measure(g)

	roots := g.Roots()
	columns := e.columnOffsets(g)
	bands := e.subtreeBands(g, roots)

	top := e.originY
	for _, root := range roots {
		e.place(g, root.ID, top, columns, bands)
		top += bands[root.ID] + e.rowGap
	}

	return e.summarize(g, false), nil
}

// Fallback assigns the degraded arrangement: x from depth alone at a fixed
// column pitch, y at the origin. It accepts graphs that Validate rejects and
// cannot fail.
func (e *Engine) Fallback(g *graph.Graph) Result {
	Measure(g)
	for _, n := range g.Nodes() {
		n.Position = &graph.Position{
			X: e.originX + float64(n.Depth)*FallbackColumnWidth,
			Y: e.originY,
		}
	}
	if g.NodeCount() == 0 {
		return Result{Stats: Stats{Fallback: true}}
	}
	return e.summarize(g, true)
}

// LayoutOrFallback runs Layout and degrades to Fallback on error, so the
// returned graph is always fully positioned.
func (e *Engine) LayoutOrFallback(g *graph.Graph) Result {
	res, err := e.Layout(g)
	if err != nil {
		return e.Fallback(g)
	}
	return res
}

// columnOffsets computes the x coordinate of each depth column: columns are
// as wide as their widest node and separated by the column gap.
func (e *Engine) columnOffsets(g *graph.Graph) []float64 {
	widths := make([]float64, g.MaxDepth()+1)
	for _, n := range g.Nodes() {
		if n.Width > widths[n.Depth] {
			widths[n.Depth] = n.Width
		}
	}

	offsets := make([]float64, len(widths))
	x := e.originX
	for d, w := range widths {
		offsets[d] = x
		x += w + e.columnGap
	}
	return offsets
}

// subtreeBands computes, bottom-up, the vertical extent each subtree needs:
// the larger of the node's own height and the stacked bands of its children.
func (e *Engine) subtreeBands(g *graph.Graph, roots []*graph.Node) map[string]float64 {
	bands := make(map[string]float64, g.NodeCount())

	type frame struct {
		id       string
		expanded bool
	}
	stack := make([]frame, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{id: roots[i].ID})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children := g.Children(f.id)
		if !f.expanded && len(children) > 0 {
			stack = append(stack, frame{id: f.id, expanded: true})
			for i := len(children) - 1; i >= 0; i-- {
				stack = append(stack, frame{id: children[i]})
			}
			continue
		}

		n, _ := g.Node(f.id)
		band := n.Height
		if len(children) > 0 {
			stacked := e.rowGap * float64(len(children)-1)
			for _, c := range children {
				stacked += bands[c]
			}
			if stacked > band {
				band = stacked
			}
		}
		bands[f.id] = band
	}
	return bands
}

// place walks one component top-down from its root, slicing each node's
// band among its children and centering every node vertically in its own
// slice.
func (e *Engine) place(g *graph.Graph, rootID string, rootTop float64, columns []float64, bands map[string]float64) {
	type frame struct {
		id  string
		top float64
	}
	stack := []frame{{id: rootID, top: rootTop}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n, _ := g.Node(f.id)
		band := bands[f.id]
		center := f.top + band/2
		n.Position = &graph.Position{X: columns[n.Depth], Y: center - n.Height/2}

		children := g.Children(f.id)
		if len(children) == 0 {
			continue
		}

		stacked := e.rowGap * float64(len(children)-1)
		for _, c := range children {
			stacked += bands[c]
		}

		top := f.top + (band-stacked)/2
		tops := make([]float64, len(children))
		for i, c := range children {
			tops[i] = top
			top += bands[c] + e.rowGap
		}
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{id: children[i], top: tops[i]})
		}
	}
}

func (e *Engine) summarize(g *graph.Graph, fallback bool) Result {
	var maxX, maxY float64
	for _, n := range g.Nodes() {
		if right := n.Position.X + n.Width; right > maxX {
			maxX = right
		}
		if bottom := n.Position.Y + n.Height; bottom > maxY {
			maxY = bottom
		}
	}

	res := Result{
		Frame: Frame{Width: maxX - e.originX, Height: maxY - e.originY},
		Stats: Stats{
			Nodes:    g.NodeCount(),
			Edges:    g.EdgeCount(),
			Ranks:    g.MaxDepth() + 1,
			Fallback: fallback,
		},
	}
	if !fallback {
		res.Stats.Crossings = CountCrossings(g, RankOrders(g))
	}
	return res
}
