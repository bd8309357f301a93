package render

import (
	"encoding/json"
	"io"

	"github.com/jsonflow/jsonflow/pkg/graph"
	"github.com/jsonflow/jsonflow/pkg/layout"
)

// JSONOption configures the renderer-facing JSON export via [WriteJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	theme       string
	hiddenNodes map[string]struct{}
	hiddenEdges map[string]struct{}
}

// WithJSONTheme records the theme name in the output so a downstream
// renderer can reproduce the palette.
func WithJSONTheme(name string) JSONOption { return func(r *jsonRenderer) { r.theme = name } }

// WithJSONHidden omits the given node and edge IDs from the export and
// shrinks the reported canvas to the remaining nodes.
func WithJSONHidden(nodes, edges map[string]struct{}) JSONOption {
	return func(r *jsonRenderer) { r.hiddenNodes, r.hiddenEdges = nodes, edges }
}

type jsonOutput struct {
	Width   float64    `json:"width"`
	Height  float64    `json:"height"`
	OriginX float64    `json:"originX"`
	OriginY float64    `json:"originY"`
	Theme   string     `json:"theme,omitempty"`
	Nodes   []jsonNode `json:"nodes"`
	Edges   []jsonEdge `json:"edges"`
}

type jsonNode struct {
	ID        string           `json:"id"`
	Kind      graph.Kind       `json:"kind"`
	Base      graph.Kind       `json:"base"`
	Depth     int              `json:"depth"`
	Rows      []graph.Row      `json:"rows,omitempty"`
	Primitive *graph.Primitive `json:"primitive,omitempty"`
	X         float64          `json:"x"`
	Y         float64          `json:"y"`
	Width     float64          `json:"width"`
	Height    float64          `json:"height"`
}

type jsonEdge struct {
	ID           string         `json:"id"`
	Kind         graph.EdgeKind `json:"kind"`
	Source       string         `json:"source"`
	Target       string         `json:"target"`
	SourceHandle string         `json:"sourceHandle,omitempty"`
}

// WriteJSON exports the graph as a pretty-printed JSON document for external
// renderers: positioned nodes with their content rows and box sizes, edges
// with kinds and source handles, and the canvas bounds. Interactive front
// ends consume this shape directly.
//
// Nodes that never went through the layout engine export at the origin with
// measured sizes; callers that need meaningful coordinates run layout first.
// WriteJSON does not modify g and is safe to call concurrently with reads.
func WriteJSON(w io.Writer, g *graph.Graph, opts ...JSONOption) error {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	nodes := buildJSONNodes(g, &r)

	out := jsonOutput{
		Theme: r.theme,
		Nodes: nodes,
		Edges: buildJSONEdges(g, &r),
	}
	out.Width, out.Height, out.OriginX, out.OriginY = jsonBounds(nodes)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func buildJSONNodes(g *graph.Graph, r *jsonRenderer) []jsonNode {
	nodes := make([]jsonNode, 0, g.NodeCount())
	for _, n := range g.Nodes() {
		if _, hidden := r.hiddenNodes[n.ID]; hidden {
			continue
		}

		jn := jsonNode{
			ID:        n.ID,
			Kind:      n.Kind,
			Base:      n.Base,
			Depth:     n.Depth,
			Rows:      n.Rows,
			Primitive: n.Primitive,
			Width:     n.Width,
			Height:    n.Height,
		}
		if jn.Width == 0 {
			jn.Width, jn.Height = layout.NodeWidth(n), layout.NodeHeight(n)
		}
		if n.Position != nil {
			jn.X, jn.Y = n.Position.X, n.Position.Y
		}
		nodes = append(nodes, jn)
	}
	return nodes
}

func buildJSONEdges(g *graph.Graph, r *jsonRenderer) []jsonEdge {
	edges := make([]jsonEdge, 0, g.EdgeCount())
	for _, e := range g.Edges() {
		if _, hidden := r.hiddenEdges[e.ID]; hidden {
			continue
		}
		if _, hidden := r.hiddenNodes[e.Source]; hidden {
			continue
		}
		if _, hidden := r.hiddenNodes[e.Target]; hidden {
			continue
		}
		edges = append(edges, jsonEdge{
			ID:           e.ID,
			Kind:         e.Kind,
			Source:       e.Source,
			Target:       e.Target,
			SourceHandle: e.SourceHandle,
		})
	}
	return edges
}

func jsonBounds(nodes []jsonNode) (w, h, originX, originY float64) {
	if len(nodes) == 0 {
		return 0, 0, 0, 0
	}

	minX, minY := nodes[0].X, nodes[0].Y
	maxX, maxY := minX, minY
	for _, n := range nodes {
		minX = min(minX, n.X)
		minY = min(minY, n.Y)
		maxX = max(maxX, n.X+n.Width)
		maxY = max(maxY, n.Y+n.Height)
	}
	return maxX - minX, maxY - minY, minX, minY
}
