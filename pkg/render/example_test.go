package render_test

import (
	"fmt"

	"github.com/jsonflow/jsonflow/pkg/graph"
	"github.com/jsonflow/jsonflow/pkg/jsondoc"
	"github.com/jsonflow/jsonflow/pkg/render"
)

func ExampleToDOT() {
	v, _ := jsondoc.Decode([]byte(`[1, 2]`))
	g, _ := graph.Build(v)

	fmt.Print(render.ToDOT(g, render.DOTOptions{}))
	// Output:
	// digraph G {
	//   rankdir=LR;
	//   bgcolor="transparent";
	//   node [shape=box, style="rounded,filled", fillcolor=white, fontsize=14, fontname="monospace", margin="0.2,0.1"];
	//   ranksep=0.6;
	//   nodesep=0.3;
	//
	//   "$" [label="$", fillcolor=lightgrey];
	//   "$[0]" [label="$[0]"];
	//   "$[1]" [label="$[1]"];
	//
	//   "$" -> "$[0]";
	//   "$" -> "$[1]";
	//   "$[0]" -> "$[1]" [style=dashed, constraint=false];
	// }
}
