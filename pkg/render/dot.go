package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jsonflow/jsonflow/pkg/graph"
)

// DOTOptions configures Graphviz DOT export.
type DOTOptions struct {
	// Detailed includes content rows in node labels.
	// When false, only the node path is shown.
	Detailed bool
}

// ToDOT converts a document graph to Graphviz DOT format. The resulting DOT
// string can be rendered with [SVG] or [PNG].
//
// The digraph is laid out left to right so Graphviz ranks correspond to the
// layout engine's depth columns. Chain edges (consecutive array items) are
// dashed and carry constraint=false, keeping them out of rank assignment the
// same way the layout engine keeps them out of its columns.
func ToDOT(g *graph.Graph, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, fontname=\"monospace\", margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		label := fmtLabel(n, opts.Detailed)
		attrs := fmtAttrs(n, label)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		if e.Kind == graph.EdgeChain {
			fmt.Fprintf(&buf, "  %q -> %q [style=dashed, constraint=false];\n", e.Source, e.Target)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.Source, e.Target)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n *graph.Node, detailed bool) string {
	if !detailed || len(n.Rows) == 0 {
		return n.ID
	}

	parts := make([]string, 0, len(n.Rows))
	for _, row := range n.Rows {
		if row.Key != "" {
			parts = append(parts, row.Key+": "+row.Preview)
			continue
		}
		parts = append(parts, row.Preview)
	}

	return n.ID + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n *graph.Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if n.Base == graph.KindArray {
		attrs = append(attrs, "fillcolor=lightgrey")
	}
	return attrs
}
