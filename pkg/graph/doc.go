// Package graph models a JSON document as a node-link graph.
//
// Build walks a decoded [jsondoc.Value] depth-first and produces one node per
// JSON value plus two kinds of directed edges: structural edges expressing
// containment (object/array to direct child) and chain edges linking
// consecutive items of the same array. Node identifiers are derived from the
// JSON path, so the same document always yields the same ids, and hosts can
// correlate selection or highlight state across re-renders by id.
//
// The structural edges of any built graph form a tree rooted at [RootID]:
// every non-root node has exactly one incoming structural edge, and the
// structural edge count equals the node count minus one. Chain edges are
// presentation-only and never participate in hierarchy.
//
// Graphs serialize to JSON with [Marshal] and friends; positions and
// box sizes on nodes are owned by the layout engine and are absent until it
// runs.
package graph
