package graph

import (
	"errors"
	"slices"

	"github.com/jsonflow/jsonflow/pkg/jsondoc"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is
	// empty. All nodes must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists in the graph. Node IDs must be unique.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the Source
	// node does not exist in the graph.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the Target
	// node does not exist in the graph.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrInvalidEdgeEndpoint is returned by [Graph.Validate] when an edge
	// references a node that doesn't exist. This indicates graph corruption.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")

	// ErrMissingRoot is returned by [Graph.Validate] when no node carries
	// [KindRoot]. Every document graph has exactly one root.
	ErrMissingRoot = errors.New("graph has no root node")

	// ErrNotATree is returned by [Graph.Validate] when the structural edges
	// do not form a tree rooted at the root node: a non-root node with zero
	// or multiple incoming structural edges, a root with an incoming edge,
	// or a structural edge count other than node count minus one.
	ErrNotATree = errors.New("structural edges must form a tree")

	// ErrGraphHasCycle is returned by [Graph.Validate] when the structural
	// subgraph contains a directed cycle. Cycles are detected using
	// depth-first search with white/gray/black coloring.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// RootID is the fixed sentinel identifier assigned to the document root.
// Child identifiers extend their parent's id with either ".name" (or
// "['name']" for property names that need quoting) or "[index]".
const RootID = "$"

// Kind classifies what a node represents.
type Kind string

const (
	// KindRoot marks the document root. Its Base field records the
	// underlying value kind, which rendering and height rules follow.
	KindRoot Kind = "root"
	// KindObject marks a JSON object.
	KindObject Kind = "object"
	// KindArray marks a JSON array.
	KindArray Kind = "array"
	// KindPrimitive marks a JSON scalar (string, number, boolean, null).
	KindPrimitive Kind = "primitive"
)

// PrimitiveType tags the JSON scalar type of a primitive node.
type PrimitiveType string

// Primitive type tags.
const (
	PrimitiveString PrimitiveType = "string"
	PrimitiveNumber PrimitiveType = "number"
	PrimitiveBool   PrimitiveType = "boolean"
	PrimitiveNull   PrimitiveType = "null"
)

// Position is a node's top-left corner in layout coordinates.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Row is one renderable line inside a node box: a property name with a
// single-line preview of its value, or just a preview for arrays and
// primitives.
type Row struct {
	Key     string `json:"key,omitempty"`
	Preview string `json:"preview"`
}

// Primitive carries the scalar payload of a primitive node.
type Primitive struct {
	Type PrimitiveType `json:"type"`
	Text string        `json:"text"`
}

// Node represents one JSON value at a specific path.
//
// Width, Height and Position are owned by the layout engine: they are zero
// and nil until layout runs. Everything else is set by Build and is stable
// for a given document.
type Node struct {
	ID    string `json:"id"`
	Kind  Kind   `json:"kind"`
	Base  Kind   `json:"base"` // underlying kind; equals Kind except for root
	Depth int    `json:"depth"`

	// Rows previews the node's own content: one row per property for
	// object-based nodes, a single summary row for arrays, a single
	// literal row for primitives.
	Rows []Row `json:"rows,omitempty"`

	// Primitive is set when Base is KindPrimitive.
	Primitive *Primitive `json:"primitive,omitempty"`

	Width    float64   `json:"width,omitempty"`
	Height   float64   `json:"height,omitempty"`
	Position *Position `json:"position,omitempty"`

	// Value is the underlying document value (one level; children are
	// separate nodes). Not serialized.
	Value *jsondoc.Value `json:"-"`
}

// IsRoot reports whether the node is the document root.
func (n *Node) IsRoot() bool { return n.Kind == KindRoot }

// HasChildren reports whether the node's underlying value contains any
// child values.
func (n *Node) HasChildren() bool {
	return n.Base != KindPrimitive && n.Value.Len() > 0
}

// EdgeKind distinguishes containment edges from array-sibling links.
type EdgeKind string

const (
	// EdgeStructural connects a parent to a direct child. Structural edges
	// drive layout ranks and visibility traversal.
	EdgeStructural EdgeKind = "structural"
	// EdgeChain connects consecutive items of the same array. Chain edges
	// are rendered differently and are excluded from rank computation.
	EdgeChain EdgeKind = "chain"
)

// Edge is a directed connection between two nodes.
type Edge struct {
	ID     string   `json:"id"`
	Kind   EdgeKind `json:"kind"`
	Source string   `json:"source"`
	Target string   `json:"target"`

	// SourceHandle is the property key on the source object that this edge
	// leaves from, letting renderers anchor the connector at that row.
	// Empty for array parents and chain edges.
	SourceHandle string `json:"sourceHandle,omitempty"`
}

// edgeID derives the deterministic edge identifier. Structural and chain
// edges never share an endpoint pair, so the pair alone is unique.
func edgeID(source, target string) string { return source + "->" + target }

// Graph holds the nodes and edges built from one JSON document.
//
// Nodes are kept in insertion order, which for built graphs is the parser's
// depth-first emission order; layouts tie-break on it. The zero value is not
// usable - use New.
//
// Graph is not safe for concurrent use without external synchronization.
type Graph struct {
	nodes []*Node
	index map[string]*Node
	edges []Edge

	// Structural adjacency only. Chain edges express sibling sequence, not
	// hierarchy, and never appear here.
	children map[string][]string
	parents  map[string][]string

	rootID string
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		index:    make(map[string]*Node),
		children: make(map[string][]string),
		parents:  make(map[string][]string),
	}
}

// AddNode adds a node to the graph.
// Returns ErrInvalidNodeID if the node ID is empty, or ErrDuplicateNodeID
// if a node with the same ID already exists.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.index[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	node := &n
	g.nodes = append(g.nodes, node)
	g.index[node.ID] = node
	if node.Kind == KindRoot && g.rootID == "" {
		g.rootID = node.ID
	}
	return nil
}

// AddEdge adds a directed edge between two existing nodes and assigns its
// deterministic ID. An empty Kind defaults to EdgeStructural. Returns
// ErrUnknownSourceNode or ErrUnknownTargetNode if an endpoint is missing.
//
// AddEdge does not verify tree shape - use Validate after building.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.index[e.Source]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := g.index[e.Target]; !ok {
		return ErrUnknownTargetNode
	}
	if e.Kind == "" {
		e.Kind = EdgeStructural
	}
	if e.ID == "" {
		e.ID = edgeID(e.Source, e.Target)
	}
	g.edges = append(g.edges, e)
	if e.Kind == EdgeStructural {
		g.children[e.Source] = append(g.children[e.Source], e.Target)
		g.parents[e.Target] = append(g.parents[e.Target], e.Source)
	}
	return nil
}

// Node returns the node with the given ID and true, or nil and false if not
// found. The pointer refers to the actual node in the graph.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.index[id]
	return n, ok
}

// Root returns the document root node, or nil for an empty or rootless graph.
func (g *Graph) Root() *Node {
	if g.rootID == "" {
		return nil
	}
	return g.index[g.rootID]
}

// Roots returns the nodes with no incoming structural edge, in insertion
// order. A built graph has exactly one, the document root; hand-assembled
// graphs may have several.
func (g *Graph) Roots() []*Node {
	var roots []*Node
	for _, n := range g.nodes {
		if len(g.parents[n.ID]) == 0 {
			roots = append(roots, n)
		}
	}
	return roots
}

// Nodes returns all nodes in insertion (depth-first emission) order.
// The returned slice is a copy; the node pointers are shared.
func (g *Graph) Nodes() []*Node { return slices.Clone(g.nodes) }

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// StructuralEdges returns the containment edges in insertion order.
func (g *Graph) StructuralEdges() []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.Kind == EdgeStructural {
			out = append(out, e)
		}
	}
	return out
}

// ChainEdges returns the array-sibling edges in insertion order.
func (g *Graph) ChainEdges() []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.Kind == EdgeChain {
			out = append(out, e)
		}
	}
	return out
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges of both kinds.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// EdgeCounts returns the structural and chain edge counts separately.
func (g *Graph) EdgeCounts() (structural, chain int) {
	for _, e := range g.edges {
		if e.Kind == EdgeStructural {
			structural++
		} else {
			chain++
		}
	}
	return structural, chain
}

// Children returns the IDs of the node's direct children via structural
// edges, in creation order. The returned slice is a read-only view.
func (g *Graph) Children(id string) []string { return g.children[id] }

// Parent returns the node's structural parent ID, or false for the root or
// unknown ids.
func (g *Graph) Parent(id string) (string, bool) {
	ps := g.parents[id]
	if len(ps) == 0 {
		return "", false
	}
	return ps[0], true
}

// MaxDepth returns the deepest nesting level present, or 0 for an empty
// graph.
func (g *Graph) MaxDepth() int {
	max := 0
	for _, n := range g.nodes {
		if n.Depth > max {
			max = n.Depth
		}
	}
	return max
}

// Validate checks graph integrity and returns nil if valid.
// It verifies three constraints:
//
//  1. All edges connect existing nodes
//  2. Structural edges form a tree rooted at the root node: the root has no
//     incoming structural edge, every other node exactly one, and the
//     structural edge count is the node count minus one
//  3. The structural subgraph is acyclic
//
// Built graphs always pass; Validate guards graphs assembled by hand or
// decoded from external files before layout runs.
func (g *Graph) Validate() error {
	if err := g.validateEdgeConsistency(); err != nil {
		return err
	}
	if err := g.validateTreeShape(); err != nil {
		return err
	}
	return g.detectCycles()
}

// ValidateForest checks the relaxed integrity layout requires: all edges
// connect existing nodes, no node has more than one structural parent, and
// the structural subgraph is acyclic. Unlike Validate it tolerates any
// number of parentless nodes, so graphs with disconnected components pass.
func (g *Graph) ValidateForest() error {
	if err := g.validateEdgeConsistency(); err != nil {
		return err
	}
	for _, n := range g.nodes {
		if len(g.parents[n.ID]) > 1 {
			return ErrNotATree
		}
	}
	return g.detectCycles()
}

func (g *Graph) validateEdgeConsistency() error {
	for _, e := range g.edges {
		if _, ok := g.index[e.Source]; !ok {
			return ErrInvalidEdgeEndpoint
		}
		if _, ok := g.index[e.Target]; !ok {
			return ErrInvalidEdgeEndpoint
		}
	}
	return nil
}

func (g *Graph) validateTreeShape() error {
	if len(g.nodes) == 0 {
		return nil
	}
	root := g.Root()
	if root == nil {
		return ErrMissingRoot
	}

	structural := 0
	for _, e := range g.edges {
		if e.Kind == EdgeStructural {
			structural++
		}
	}
	if structural != len(g.nodes)-1 {
		return ErrNotATree
	}

	for _, n := range g.nodes {
		in := len(g.parents[n.ID])
		if n.ID == root.ID {
			if in != 0 {
				return ErrNotATree
			}
			continue
		}
		if in != 1 {
			return ErrNotATree
		}
	}
	return nil
}

func (g *Graph) detectCycles() error {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(g.nodes))
	var hasCycle bool

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, child := range g.children[id] {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				hasCycle = true
				return
			}
		}
		color[id] = black
	}

	for _, n := range g.nodes {
		if color[n.ID] == white {
			dfs(n.ID)
			if hasCycle {
				return ErrGraphHasCycle
			}
		}
	}
	return nil
}

// NodeIDs extracts the ID from each node in a slice, preserving order.
func NodeIDs(nodes []*Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}
