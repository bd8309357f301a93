package layout

import (
	"unicode/utf8"

	"github.com/jsonflow/jsonflow/pkg/graph"
)

// Geometry constants, in user units.
const (
	// DefaultRowHeight is the vertical space one content row occupies
	// inside a node box.
	DefaultRowHeight = 24.0

	// DefaultPadding is the vertical space a node's frame reserves around
	// its content rows.
	DefaultPadding = 32.0

	// DefaultArrayHeight is the fixed height of array nodes. Arrays render
	// as a compact summary box, so their height does not grow with length.
	DefaultArrayHeight = 48.0

	// DefaultMinWidth and DefaultMaxWidth clamp measured node widths.
	DefaultMinWidth = 96.0
	DefaultMaxWidth = 320.0

	// charWidth approximates one rendered character of the node font.
	charWidth = 7.2

	// textInset is the horizontal space between a node border and its text.
	textInset = 12.0
)

// NodeHeight returns the box height for a node. Object heights grow with
// the property count, primitives hold a single row, arrays are fixed. Root
// nodes follow the rule of their underlying kind.
func NodeHeight(n *graph.Node) float64 {
	switch n.Base {
	case graph.KindArray:
		return DefaultArrayHeight
	case graph.KindObject:
		return DefaultPadding + DefaultRowHeight*float64(len(n.Rows))
	default:
		return DefaultPadding + DefaultRowHeight
	}
}

// NodeWidth estimates the box width from the longest content row, clamped
// to [DefaultMinWidth, DefaultMaxWidth].
func NodeWidth(n *graph.Node) float64 {
	longest := 0
	for _, row := range n.Rows {
		length := utf8.RuneCountInString(row.Preview)
		if row.Key != "" {
			length += utf8.RuneCountInString(row.Key) + 2 // ": " separator
		}
		if length > longest {
			longest = length
		}
	}

	w := 2*textInset + charWidth*float64(longest)
	if w < DefaultMinWidth {
		return DefaultMinWidth
	}
	if w > DefaultMaxWidth {
		return DefaultMaxWidth
	}
	return w
}

// Measure assigns Width and Height to every node in the graph. Layout calls
// it automatically; it exists separately so renderers can size graphs that
// never get positioned.
func Measure(g *graph.Graph) {
	for _, n := range g.Nodes() {
		n.Width = NodeWidth(n)
		n.Height = NodeHeight(n)
	}
}
