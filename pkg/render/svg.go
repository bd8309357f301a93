package render

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/jsonflow/jsonflow/pkg/errors"
	"github.com/jsonflow/jsonflow/pkg/graph"
	"github.com/jsonflow/jsonflow/pkg/layout"
)

const (
	// DefaultSVGPadding is the margin around the drawing, in user units.
	DefaultSVGPadding = 24.0

	svgFontSize  = 13.0
	svgTextInset = 12.0
)

// SVGOption configures the native SVG sink.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	theme       Theme
	padding     float64
	hiddenNodes map[string]struct{}
	hiddenEdges map[string]struct{}
}

// WithTheme selects the color palette. Defaults to [Light].
func WithTheme(t Theme) SVGOption { return func(r *svgRenderer) { r.theme = t } }

// WithPadding sets the margin around the drawing.
func WithPadding(p float64) SVGOption { return func(r *svgRenderer) { r.padding = p } }

// WithHidden omits the given node and edge IDs from the drawing and shrinks
// the canvas to the remaining boxes. Pass the two sets maintained by the
// view tracker to draw a collapsed state.
func WithHidden(nodes, edges map[string]struct{}) SVGOption {
	return func(r *svgRenderer) { r.hiddenNodes, r.hiddenEdges = nodes, edges }
}

// WriteSVG draws the positions the layout engine assigned: one rounded box
// per node with its content rows, orthogonal connectors for containment
// edges anchored at the source property row, dashed links between
// consecutive array items.
//
// Every visible node must carry a position; graphs that never went through
// the layout engine are rejected.
func WriteSVG(w io.Writer, g *graph.Graph, opts ...SVGOption) error {
	r := newSVGRenderer(opts...)

	nodes := r.visibleNodes(g)
	for _, n := range nodes {
		if n.Position == nil {
			return errors.New(errors.ErrCodeInvalidGraph, "node %s has no position, run layout first", n.ID)
		}
	}

	frameW, frameH, offX, offY := r.bounds(nodes)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		frameW, frameH, frameW, frameH)
	fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", r.theme.Canvas)

	for _, e := range r.visibleEdges(g) {
		r.renderEdge(&buf, g, e, offX, offY)
	}
	for _, n := range nodes {
		r.renderNode(&buf, n, offX, offY)
	}

	buf.WriteString("</svg>\n")
	_, err := w.Write(buf.Bytes())
	return err
}

func newSVGRenderer(opts ...SVGOption) svgRenderer {
	r := svgRenderer{theme: Light, padding: DefaultSVGPadding}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func (r *svgRenderer) visibleNodes(g *graph.Graph) []*graph.Node {
	all := g.Nodes()
	if len(r.hiddenNodes) == 0 {
		return all
	}
	nodes := make([]*graph.Node, 0, len(all))
	for _, n := range all {
		if _, hidden := r.hiddenNodes[n.ID]; hidden {
			continue
		}
		nodes = append(nodes, n)
	}
	return nodes
}

func (r *svgRenderer) visibleEdges(g *graph.Graph) []graph.Edge {
	var edges []graph.Edge
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
		edges = append(edges, e)
	}
	return edges
}

// bounds returns the frame size and the translation that maps layout
// coordinates into it. Hiding nodes shrinks the frame to what remains.
func (r *svgRenderer) bounds(nodes []*graph.Node) (frameW, frameH, offX, offY float64) {
	if len(nodes) == 0 {
		return 2 * r.padding, 2 * r.padding, r.padding, r.padding
	}

	minX, minY := nodes[0].Position.X, nodes[0].Position.Y
	maxX, maxY := minX, minY
	for _, n := range nodes {
		minX = min(minX, n.Position.X)
		minY = min(minY, n.Position.Y)
		maxX = max(maxX, n.Position.X+n.Width)
		maxY = max(maxY, n.Position.Y+n.Height)
	}

	frameW = maxX - minX + 2*r.padding
	frameH = maxY - minY + 2*r.padding
	return frameW, frameH, r.padding - minX, r.padding - minY
}

func (r *svgRenderer) renderNode(buf *bytes.Buffer, n *graph.Node, offX, offY float64) {
	x := n.Position.X + offX
	y := n.Position.Y + offY

	fmt.Fprintf(buf, `  <g id="node-%s">`+"\n", escapeXML(n.ID))
	fmt.Fprintf(buf, `    <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="6" fill="%s" stroke="%s"/>`+"\n",
		x, y, n.Width, n.Height, r.theme.NodeFill, r.theme.NodeStroke)

	if n.Base == graph.KindArray {
		r.renderArrayLabel(buf, n, x, y)
	} else {
		for i, row := range n.Rows {
			r.renderRow(buf, row, x, y+rowCenter(i))
		}
	}

	buf.WriteString("  </g>\n")
}

func (r *svgRenderer) renderArrayLabel(buf *bytes.Buffer, n *graph.Node, x, y float64) {
	label := "[]"
	if len(n.Rows) > 0 {
		label = n.Rows[0].Preview
	}
	fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="central" font-family="monospace" font-size="%.0f" fill="%s">%s</text>`+"\n",
		x+n.Width/2, y+n.Height/2, svgFontSize, r.theme.ValueText, escapeXML(label))
}

func (r *svgRenderer) renderRow(buf *bytes.Buffer, row graph.Row, x, y float64) {
	fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f" dominant-baseline="central" font-family="monospace" font-size="%.0f">`,
		x+svgTextInset, y, svgFontSize)
	if row.Key != "" {
		fmt.Fprintf(buf, `<tspan fill="%s">%s: </tspan>`, r.theme.KeyText, escapeXML(row.Key))
	}
	fmt.Fprintf(buf, `<tspan fill="%s">%s</tspan></text>`+"\n", r.theme.ValueText, escapeXML(row.Preview))
}

func (r *svgRenderer) renderEdge(buf *bytes.Buffer, g *graph.Graph, e graph.Edge, offX, offY float64) {
	src, okS := g.Node(e.Source)
	dst, okD := g.Node(e.Target)
	if !okS || !okD || src.Position == nil || dst.Position == nil {
		return
	}

	if e.Kind == graph.EdgeChain {
		x1 := src.Position.X + src.Width/2 + offX
		y1 := src.Position.Y + src.Height + offY
		x2 := dst.Position.X + dst.Width/2 + offX
		y2 := dst.Position.Y + offY
		fmt.Fprintf(buf, `  <path d="M %.1f %.1f L %.1f %.1f" fill="none" stroke="%s" stroke-dasharray="4 3"/>`+"\n",
			x1, y1, x2, y2, r.theme.Edge)
		return
	}

	x1 := src.Position.X + src.Width + offX
	y1 := edgeAnchorY(src, e.SourceHandle) + offY
	x2 := dst.Position.X + offX
	y2 := dst.Position.Y + dst.Height/2 + offY
	mx := (x1 + x2) / 2
	fmt.Fprintf(buf, `  <path d="M %.1f %.1f L %.1f %.1f L %.1f %.1f L %.1f %.1f" fill="none" stroke="%s"/>`+"\n",
		x1, y1, mx, y1, mx, y2, x2, y2, r.theme.Edge)
}

// edgeAnchorY returns the vertical anchor for a connector leaving n: the
// center of the named property row, or the box center when the edge has no
// handle (array parents).
func edgeAnchorY(n *graph.Node, handle string) float64 {
	if handle != "" {
		for i, row := range n.Rows {
			if row.Key == handle {
				return n.Position.Y + rowCenter(i)
			}
		}
	}
	return n.Position.Y + n.Height/2
}

// rowCenter returns the vertical center of row i relative to the box top,
// using the layout engine's row geometry.
func rowCenter(i int) float64 {
	return layout.DefaultPadding/2 + layout.DefaultRowHeight*(float64(i)+0.5)
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
