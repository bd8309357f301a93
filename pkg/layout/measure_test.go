package layout

import (
	"strings"
	"testing"

	"github.com/jsonflow/jsonflow/pkg/graph"
)

func TestNodeHeight(t *testing.T) {
	tests := []struct {
		name string
		node graph.Node
		want float64
	}{
		{
			name: "ObjectGrowsWithRows",
			node: graph.Node{Kind: graph.KindObject, Base: graph.KindObject, Rows: make([]graph.Row, 3)},
			want: DefaultPadding + 3*DefaultRowHeight,
		},
		{
			name: "EmptyObject",
			node: graph.Node{Kind: graph.KindObject, Base: graph.KindObject},
			want: DefaultPadding,
		},
		{
			name: "ArrayIsFixed",
			node: graph.Node{Kind: graph.KindArray, Base: graph.KindArray, Rows: make([]graph.Row, 1)},
			want: DefaultArrayHeight,
		},
		{
			name: "PrimitiveSingleRow",
			node: graph.Node{Kind: graph.KindPrimitive, Base: graph.KindPrimitive, Rows: make([]graph.Row, 1)},
			want: DefaultPadding + DefaultRowHeight,
		},
		{
			name: "RootFollowsArrayBase",
			node: graph.Node{Kind: graph.KindRoot, Base: graph.KindArray, Rows: make([]graph.Row, 1)},
			want: DefaultArrayHeight,
		},
		{
			name: "RootFollowsObjectBase",
			node: graph.Node{Kind: graph.KindRoot, Base: graph.KindObject, Rows: make([]graph.Row, 2)},
			want: DefaultPadding + 2*DefaultRowHeight,
		},
		{
			name: "RootFollowsPrimitiveBase",
			node: graph.Node{Kind: graph.KindRoot, Base: graph.KindPrimitive, Rows: make([]graph.Row, 1)},
			want: DefaultPadding + DefaultRowHeight,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NodeHeight(&tt.node); got != tt.want {
				t.Errorf("NodeHeight = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNodeWidth(t *testing.T) {
	tests := []struct {
		name string
		rows []graph.Row
		want float64
	}{
		{
			name: "NoRowsGetsMinimum",
			rows: nil,
			want: DefaultMinWidth,
		},
		{
			name: "ShortRowGetsMinimum",
			rows: []graph.Row{{Preview: "[2]"}},
			want: DefaultMinWidth,
		},
		{
			name: "LongRowClampsToMaximum",
			rows: []graph.Row{{Key: "description", Preview: strings.Repeat("x", 100)}},
			want: DefaultMaxWidth,
		},
		{
			name: "MidRowScalesWithText",
			rows: []graph.Row{{Key: "name", Preview: `"ada lovelace"`}}, // 4 + 2 + 14 = 20 runes
			want: 2*textInset + 20*charWidth,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := graph.Node{Kind: graph.KindObject, Base: graph.KindObject, Rows: tt.rows}
			if got := NodeWidth(&n); got != tt.want {
				t.Errorf("NodeWidth = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNodeWidthUsesLongestRow(t *testing.T) {
	short := graph.Row{Key: "a", Preview: "1"}
	long := graph.Row{Key: "comment", Preview: strings.Repeat("y", 30)}

	n := graph.Node{Kind: graph.KindObject, Base: graph.KindObject, Rows: []graph.Row{short, long, short}}
	solo := graph.Node{Kind: graph.KindObject, Base: graph.KindObject, Rows: []graph.Row{long}}

	if NodeWidth(&n) != NodeWidth(&solo) {
		t.Error("width must be driven by the longest row alone")
	}
}

func TestMeasure(t *testing.T) {
	g := mustBuild(t, `{"name": "ada", "tags": [1, 2, 3], "flag": true}`)
	Measure(g)

	for _, n := range g.Nodes() {
		if n.Width < DefaultMinWidth || n.Width > DefaultMaxWidth {
			t.Errorf("width(%s) = %v outside clamp range", n.ID, n.Width)
		}
		if n.Height <= 0 {
			t.Errorf("height(%s) = %v, want positive", n.ID, n.Height)
		}
	}

	arr, _ := g.Node("$.tags")
	if arr.Height != DefaultArrayHeight {
		t.Errorf("array height = %v, want %v", arr.Height, DefaultArrayHeight)
	}

	root := g.Root()
	if want := DefaultPadding + 3*DefaultRowHeight; root.Height != want {
		t.Errorf("root height = %v, want %v", root.Height, want)
	}
}
