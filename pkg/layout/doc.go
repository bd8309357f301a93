// Package layout assigns coordinates to document graphs for left-to-right
// node-link rendering.
//
// # Overview
//
// The engine places nodes in depth columns: a node's x coordinate is derived
// from its depth alone, so values nested equally deep always align
// vertically. Within a column, nodes are stacked by nesting each subtree in
// its own vertical band and centering parents on their children, which keeps
// structural edges short and crossing-free for tree-shaped graphs.
//
// Only structural edges participate in placement. Chain edges connect array
// siblings that already sit in the same column, so they are ignored here and
// handled purely by renderers.
//
// # Coordinate System
//
// Coordinates are in user units (CSS pixels for web renderers) with the
// origin at the top left, x growing rightwards and y growing downwards.
// Internally the engine reasons about band centers; the final
// [graph.Position] stores the top-left corner, converted via
// y = center - height/2.
//
// # Determinism
//
// Layout is a pure function of the graph. The same document always produces
// the same coordinates, which makes layouts cacheable by document hash.
//
// # Fallback
//
// Graphs that fail validation cannot be laid out normally. [Engine.Fallback]
// still produces usable coordinates from node depths alone, and
// [Engine.LayoutOrFallback] chains the two so callers always get a
// positioned graph.
//
// # Concurrency
//
// An Engine is immutable after construction and safe for concurrent use.
// The graphs it positions are not; callers must not share a graph between
// concurrent Layout calls.
package layout
