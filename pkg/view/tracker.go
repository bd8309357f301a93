// Package view tracks collapse state and derives node visibility for one
// rendered document.
//
// A [Tracker] owns the set of explicitly collapsed node IDs. Collapsing a
// node hides its entire structural subtree while the node itself stays
// visible; hiding follows structural edges only, and an edge disappears as
// soon as either endpoint is hidden. Collapse flags are independent: a node
// collapsed deep inside a collapsed subtree keeps its own flag and takes
// effect again the moment its ancestor is expanded.
//
// Hidden sets are memoized and recomputed only when the collapse set or the
// attached graph changes, so visibility queries after a single toggle are
// cheap even on large documents.
//
// A Tracker is not safe for concurrent use. Servers that share trackers
// across requests must synchronize access.
package view

import (
	"slices"

	"github.com/jsonflow/jsonflow/pkg/graph"
)

// Tracker records which nodes of a document graph are collapsed and answers
// visibility queries derived from that state. Create with [NewTracker]; the
// zero value is unusable.
type Tracker struct {
	graph     *graph.Graph
	collapsed map[string]struct{}

	// Memoized hidden sets, rebuilt when dirty.
	dirty       bool
	hiddenNodes map[string]struct{}
	hiddenEdges map[string]struct{}
}

// NewTracker creates a tracker for the given graph with everything expanded.
func NewTracker(g *graph.Graph) *Tracker {
	return &Tracker{
		graph:     g,
		collapsed: make(map[string]struct{}),
	}
}

// Graph returns the graph this tracker is attached to.
func (t *Tracker) Graph() *graph.Graph { return t.graph }

// Attach switches the tracker to a new document graph. Collapse state
// belongs to a document, so attaching a different graph clears all flags;
// re-attaching the same graph keeps them.
func (t *Tracker) Attach(g *graph.Graph) {
	if g == t.graph {
		return
	}
	t.graph = g
	t.Reset()
}

// Toggle flips the collapse flag of a node and returns the new state, true
// meaning collapsed. Toggling an id the graph does not contain records the
// flag but hides nothing.
func (t *Tracker) Toggle(id string) bool {
	if _, ok := t.collapsed[id]; ok {
		delete(t.collapsed, id)
		t.dirty = true
		return false
	}
	t.collapsed[id] = struct{}{}
	t.dirty = true
	return true
}

// SetCollapsed sets a node's collapse flag to an explicit state.
func (t *Tracker) SetCollapsed(id string, collapsed bool) {
	if collapsed == t.IsCollapsed(id) {
		return
	}
	t.Toggle(id)
}

// IsCollapsed reports whether a node is explicitly collapsed. Nodes hidden
// inside a collapsed ancestor report false unless they were collapsed
// themselves.
func (t *Tracker) IsCollapsed(id string) bool {
	_, ok := t.collapsed[id]
	return ok
}

// CollapsedIDs returns the explicitly collapsed node IDs, sorted.
func (t *Tracker) CollapsedIDs() []string {
	ids := make([]string, 0, len(t.collapsed))
	for id := range t.collapsed {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// CollapseAll collapses every node that has structural children.
func (t *Tracker) CollapseAll() {
	for _, n := range t.graph.Nodes() {
		if len(t.graph.Children(n.ID)) > 0 {
			t.collapsed[n.ID] = struct{}{}
		}
	}
	t.dirty = true
}

// Reset expands everything by clearing all collapse flags.
func (t *Tracker) Reset() {
	t.collapsed = make(map[string]struct{})
	t.hiddenNodes = nil
	t.hiddenEdges = nil
	t.dirty = false
}

// Hidden reports whether a node is hidden by some collapsed ancestor.
func (t *Tracker) Hidden(id string) bool {
	t.recompute()
	_, ok := t.hiddenNodes[id]
	return ok
}

// HiddenSets returns copies of the hidden node and edge ID sets, in the
// shape the render sinks accept for drawing a collapsed state.
func (t *Tracker) HiddenSets() (nodes, edges map[string]struct{}) {
	t.recompute()
	nodes = make(map[string]struct{}, len(t.hiddenNodes))
	for id := range t.hiddenNodes {
		nodes[id] = struct{}{}
	}
	edges = make(map[string]struct{}, len(t.hiddenEdges))
	for id := range t.hiddenEdges {
		edges[id] = struct{}{}
	}
	return nodes, edges
}

// HiddenNodeIDs returns the IDs of all hidden nodes, sorted.
func (t *Tracker) HiddenNodeIDs() []string {
	t.recompute()
	ids := make([]string, 0, len(t.hiddenNodes))
	for id := range t.hiddenNodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// HiddenEdgeIDs returns the IDs of all edges with a hidden endpoint, sorted.
func (t *Tracker) HiddenEdgeIDs() []string {
	t.recompute()
	ids := make([]string, 0, len(t.hiddenEdges))
	for id := range t.hiddenEdges {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// VisibleNodes returns the nodes not hidden by any collapsed ancestor, in
// graph order. Collapsed nodes are visible; only their subtrees hide.
func (t *Tracker) VisibleNodes() []*graph.Node {
	t.recompute()
	var out []*graph.Node
	for _, n := range t.graph.Nodes() {
		if _, hidden := t.hiddenNodes[n.ID]; !hidden {
			out = append(out, n)
		}
	}
	return out
}

// VisibleEdges returns the edges whose endpoints are both visible, in graph
// order. The rule covers chain edges too: an array item chained to a hidden
// sibling loses that edge.
func (t *Tracker) VisibleEdges() []graph.Edge {
	t.recompute()
	var out []graph.Edge
	for _, e := range t.graph.Edges() {
		if _, hidden := t.hiddenEdges[e.ID]; !hidden {
			out = append(out, e)
		}
	}
	return out
}

// recompute rebuilds the memoized hidden sets: an iterative worklist walk
// collects the structural descendants of every collapsed node, then edges
// are hidden when either endpoint is.
func (t *Tracker) recompute() {
	if !t.dirty {
		return
	}

	hidden := make(map[string]struct{})
	var queue []string
	for id := range t.collapsed {
		if _, ok := t.graph.Node(id); !ok {
			continue
		}
		queue = append(queue, t.graph.Children(id)...)
	}
	for len(queue) > 0 {
		id := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if _, seen := hidden[id]; seen {
			continue
		}
		hidden[id] = struct{}{}
		queue = append(queue, t.graph.Children(id)...)
	}

	hiddenEdges := make(map[string]struct{})
	for _, e := range t.graph.Edges() {
		_, srcHidden := hidden[e.Source]
		_, dstHidden := hidden[e.Target]
		if srcHidden || dstHidden {
			hiddenEdges[e.ID] = struct{}{}
		}
	}

	t.hiddenNodes = hidden
	t.hiddenEdges = hiddenEdges
	t.dirty = false
}
