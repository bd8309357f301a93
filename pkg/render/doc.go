// Package render turns document graphs into visual output.
//
// # Overview
//
// This package contains the sinks that transform a built (and usually
// positioned) document graph into concrete artifacts. It provides:
//
//   - Graphviz DOT export ([ToDOT])
//   - Rasterized SVG and PNG via embedded Graphviz ([SVG], [PNG])
//   - A native SVG sink drawing the layout engine's own positions ([WriteSVG])
//   - A renderer-facing JSON export ([WriteJSON])
//
// # DOT and Graphviz
//
// [ToDOT] emits a left-to-right digraph so ranks line up with the layout
// engine's depth columns. Array sibling links are dashed and excluded from
// ranking. The DOT string renders through goccy/go-graphviz, so no external
// Graphviz installation is needed:
//
//	dot := render.ToDOT(g, render.DOTOptions{Detailed: true})
//	svg, err := render.SVG(ctx, g, render.DOTOptions{})
//	png, err := render.PNG(ctx, g, render.DOTOptions{})
//
// # Native SVG
//
// [WriteSVG] bypasses Graphviz entirely and draws the positions the layout
// engine assigned: rounded boxes with per-property rows, orthogonal
// connectors anchored at the source row, dashed links between consecutive
// array items. Appearance is controlled with functional options:
//
//	err := render.WriteSVG(w, g,
//	    render.WithTheme(render.Dark),
//	    render.WithHidden(hiddenNodes, hiddenEdges),
//	)
//
// # JSON Export
//
// [WriteJSON] is the hand-off format for external renderers: positioned
// nodes with their content rows and box sizes, edges with kinds and source
// handles, and the canvas bounds. Interactive front ends consume this
// directly.
package render
