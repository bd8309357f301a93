package graph

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/jsonflow/jsonflow/pkg/errors"
	"github.com/jsonflow/jsonflow/pkg/jsondoc"
)

// DefaultMaxNodes bounds how many nodes Build will emit for one document.
// Documents past this size stop being readable as diagrams long before they
// stop being computable; the cap keeps memory proportional to something a
// renderer can actually draw.
const DefaultMaxNodes = 50000

// Build walks a document value depth-first and produces its node-link graph.
//
// Traversal preserves each object's member order and each array's index
// order: child nodes, and therefore edges, are emitted in document order.
// Every value becomes a node; every parent-child pair becomes a structural
// edge (with SourceHandle set to the property key when the parent is an
// object); consecutive items of arrays with more than one item are linked by
// chain edges. Empty objects and arrays become single leaf nodes with no
// edges.
//
// Build is a pure function of the value: the same document yields the same
// ids, nodes, and edges. The only error condition is exceeding
// DefaultMaxNodes.
func Build(v *jsondoc.Value) (*Graph, error) {
	return BuildLimited(v, DefaultMaxNodes)
}

// BuildLimited is Build with a caller-chosen node cap. maxNodes <= 0
// disables the cap.
func BuildLimited(v *jsondoc.Value, maxNodes int) (*Graph, error) {
	g := New()

	type frame struct {
		value   *jsondoc.Value
		id      string
		depth   int
		parent  string // empty for the root
		handle  string // property key on an object parent
		sibling string // preceding array item id, empty otherwise
	}

	stack := []frame{{value: v, id: RootID}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if maxNodes > 0 && g.NodeCount() >= maxNodes {
			return nil, errors.New(errors.ErrCodeLimitExceeded, "document produces more than %d nodes", maxNodes)
		}

		if err := g.AddNode(newNode(f.id, f.value, f.depth, f.parent == "")); err != nil {
			return nil, err
		}
		if f.parent != "" {
			err := g.AddEdge(Edge{Kind: EdgeStructural, Source: f.parent, Target: f.id, SourceHandle: f.handle})
			if err != nil {
				return nil, err
			}
		}
		if f.sibling != "" {
			if err := g.AddEdge(Edge{Kind: EdgeChain, Source: f.sibling, Target: f.id}); err != nil {
				return nil, err
			}
		}

		// Push children in reverse so they pop in document order.
		switch f.value.Kind() {
		case jsondoc.KindObject:
			members := f.value.Members()
			for i := len(members) - 1; i >= 0; i-- {
				m := members[i]
				stack = append(stack, frame{
					value:  m.Value,
					id:     childKeyID(f.id, m.Key),
					depth:  f.depth + 1,
					parent: f.id,
					handle: m.Key,
				})
			}
		case jsondoc.KindArray:
			items := f.value.Items()
			for i := len(items) - 1; i >= 0; i-- {
				child := frame{
					value:  items[i],
					id:     childIndexID(f.id, i),
					depth:  f.depth + 1,
					parent: f.id,
				}
				if i > 0 {
					child.sibling = childIndexID(f.id, i-1)
				}
				stack = append(stack, child)
			}
		}
	}

	return g, nil
}

func newNode(id string, v *jsondoc.Value, depth int, isRoot bool) Node {
	base := baseKind(v)
	n := Node{ID: id, Kind: base, Base: base, Depth: depth, Value: v}
	if isRoot {
		n.Kind = KindRoot
	}

	switch base {
	case KindObject:
		members := v.Members()
		rows := make([]Row, 0, len(members))
		for _, m := range members {
			rows = append(rows, Row{Key: m.Key, Preview: m.Value.Preview()})
		}
		n.Rows = rows
	case KindArray:
		// Arrays render as a compact summary box regardless of item count.
		n.Rows = []Row{{Preview: v.Preview()}}
	case KindPrimitive:
		n.Primitive = &Primitive{Type: primitiveType(v), Text: v.Preview()}
		n.Rows = []Row{{Preview: v.Preview()}}
	}
	return n
}

func baseKind(v *jsondoc.Value) Kind {
	switch v.Kind() {
	case jsondoc.KindObject:
		return KindObject
	case jsondoc.KindArray:
		return KindArray
	default:
		return KindPrimitive
	}
}

func primitiveType(v *jsondoc.Value) PrimitiveType {
	switch v.Kind() {
	case jsondoc.KindString:
		return PrimitiveString
	case jsondoc.KindNumber:
		return PrimitiveNumber
	case jsondoc.KindBool:
		return PrimitiveBool
	default:
		return PrimitiveNull
	}
}

// childKeyID appends an object property to a path id. Identifier-like names
// use dot notation; anything else is bracket-quoted with backslash escaping,
// which keeps ids unique even for names containing dots or brackets.
func childKeyID(parentID, key string) string {
	if isIdentSafe(key) {
		return parentID + "." + key
	}
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(key)
	return parentID + "['" + escaped + "']"
}

// childIndexID appends an array index to a path id.
func childIndexID(parentID string, index int) string {
	return parentID + "[" + strconv.Itoa(index) + "]"
}

func isIdentSafe(key string) bool {
	if key == "" {
		return false
	}
	for i, r := range key {
		if unicode.IsLetter(r) || r == '_' {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}
