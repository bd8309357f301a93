package render

import (
	"strings"
	"testing"

	"github.com/jsonflow/jsonflow/pkg/graph"
	"github.com/jsonflow/jsonflow/pkg/jsondoc"
	"github.com/jsonflow/jsonflow/pkg/layout"
)

func mustBuild(t *testing.T, input string) *graph.Graph {
	t.Helper()
	v, err := jsondoc.Decode([]byte(input))
	if err != nil {
		t.Fatalf("decode %q: %v", input, err)
	}
	g, err := graph.Build(v)
	if err != nil {
		t.Fatalf("build %q: %v", input, err)
	}
	return g
}

func mustLayout(t *testing.T, input string) *graph.Graph {
	t.Helper()
	g := mustBuild(t, input)
	if _, err := layout.New().Layout(g); err != nil {
		t.Fatalf("layout %q: %v", input, err)
	}
	return g
}

func TestToDOT(t *testing.T) {
	g := mustBuild(t, `{"a": 1, "b": {"c": true}}`)
	dot := ToDOT(g, DOTOptions{})

	for _, want := range []string{
		"digraph G {",
		"rankdir=LR;",
		`"$" [label="$"];`,
		`"$.b.c" [label="$.b.c"];`,
		`"$" -> "$.a";`,
		`"$.b" -> "$.b.c";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOTDetailed(t *testing.T) {
	g := mustBuild(t, `{"name": "ada", "tags": [1, 2]}`)
	dot := ToDOT(g, DOTOptions{Detailed: true})

	if !strings.Contains(dot, `name: \"ada\"`) {
		t.Errorf("detailed label missing property row:\n%s", dot)
	}
	if !strings.Contains(dot, `[2]`) {
		t.Errorf("detailed label missing array summary:\n%s", dot)
	}
}

func TestToDOTChainEdges(t *testing.T) {
	g := mustBuild(t, `[1, 2, 3]`)
	dot := ToDOT(g, DOTOptions{})

	if !strings.Contains(dot, `"$[0]" -> "$[1]" [style=dashed, constraint=false];`) {
		t.Errorf("chain edge not dashed:\n%s", dot)
	}
	if !strings.Contains(dot, `"$" -> "$[0]";`) {
		t.Errorf("structural edge missing:\n%s", dot)
	}
}

func TestToDOTArrayFill(t *testing.T) {
	g := mustBuild(t, `{"items": [1]}`)
	dot := ToDOT(g, DOTOptions{})

	if !strings.Contains(dot, `"$.items" [label="$.items", fillcolor=lightgrey];`) {
		t.Errorf("array node not filled grey:\n%s", dot)
	}
}

func TestToDOTDeterministic(t *testing.T) {
	const input = `{"z": [1, 2], "a": {"b": null}}`
	first := ToDOT(mustBuild(t, input), DOTOptions{Detailed: true})
	second := ToDOT(mustBuild(t, input), DOTOptions{Detailed: true})
	if first != second {
		t.Error("DOT output differs between identical builds")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	svg := []byte(`<svg width="8pt" height="6pt" viewBox="0.00 0.00 118.25 46.00" xmlns="http://www.w3.org/2000/svg">rest</svg>`)
	got := string(normalizeViewBox(svg))

	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 118.25 46.00" width="118" height="46">rest</svg>`
	if got != want {
		t.Errorf("normalizeViewBox() = %s, want %s", got, want)
	}
}

func TestNormalizeViewBoxPassthrough(t *testing.T) {
	for name, svg := range map[string]string{
		"NoViewBox": `<svg width="10" height="10">x</svg>`,
		"ZeroSize":  `<svg viewBox="0 0 0 0">x</svg>`,
	} {
		t.Run(name, func(t *testing.T) {
			if got := string(normalizeViewBox([]byte(svg))); got != svg {
				t.Errorf("normalizeViewBox() = %s, want unchanged", got)
			}
		})
	}
}
