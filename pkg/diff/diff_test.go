package diff

import (
	"slices"
	"testing"

	"github.com/jsonflow/jsonflow/pkg/graph"
	"github.com/jsonflow/jsonflow/pkg/jsondoc"
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

func compare(t *testing.T, before, after string) Report {
	t.Helper()
	return Compare(mustBuild(t, before), mustBuild(t, after))
}

func TestCompareIdentical(t *testing.T) {
	r := compare(t, `{"a": [1, 2], "b": null}`, `{"a": [1, 2], "b": null}`)

	if !r.Empty() {
		t.Errorf("report = %+v, want empty", r)
	}
	if got := r.Summary(); got != "documents are identical" {
		t.Errorf("summary = %q", got)
	}
}

func TestCompareAdded(t *testing.T) {
	r := compare(t, `{"a": 1}`, `{"a": 1, "b": 2}`)

	if !slices.Equal(r.Added, []string{"$.b"}) {
		t.Errorf("added = %v, want [$.b]", r.Added)
	}
	if len(r.Removed) != 0 {
		t.Errorf("removed = %v, want none", r.Removed)
	}

	// The root gained a display row, which counts as a content change.
	if len(r.Changed) != 1 || r.Changed[0].ID != "$" || r.Changed[0].Field != FieldContent {
		t.Errorf("changed = %+v, want root content change", r.Changed)
	}
}

func TestCompareRemoved(t *testing.T) {
	r := compare(t, `{"a": 1, "b": {"c": 2}}`, `{"a": 1}`)

	want := []string{"$.b", "$.b.c"}
	if !slices.Equal(r.Removed, want) {
		t.Errorf("removed = %v, want %v", r.Removed, want)
	}
	if len(r.Added) != 0 {
		t.Errorf("added = %v, want none", r.Added)
	}
}

func TestCompareValueChange(t *testing.T) {
	r := compare(t, `{"a": 1, "b": "same"}`, `{"a": 2, "b": "same"}`)

	var leaf *Change
	for i := range r.Changed {
		if r.Changed[i].ID == "$.a" {
			leaf = &r.Changed[i]
		}
	}
	if leaf == nil {
		t.Fatalf("changed = %+v, want an entry for $.a", r.Changed)
	}
	if leaf.Field != FieldContent || leaf.Before != "1" || leaf.After != "2" {
		t.Errorf("change = %+v, want content 1→2", leaf)
	}
}

func TestCompareKindChange(t *testing.T) {
	r := compare(t, `{"a": 1}`, `{"a": {"x": 1}}`)

	var kind *Change
	for i := range r.Changed {
		if r.Changed[i].ID == "$.a" {
			kind = &r.Changed[i]
		}
	}
	if kind == nil {
		t.Fatalf("changed = %+v, want an entry for $.a", r.Changed)
	}
	if kind.Field != FieldKind || kind.Before != "primitive" || kind.After != "object" {
		t.Errorf("change = %+v, want kind primitive→object", kind)
	}

	if !slices.Equal(r.Added, []string{"$.a.x"}) {
		t.Errorf("added = %v, want [$.a.x]", r.Added)
	}
}

func TestCompareArrayGrowth(t *testing.T) {
	r := compare(t, `[1, 2]`, `[1, 2, 3]`)

	if !slices.Equal(r.Added, []string{"$[2]"}) {
		t.Errorf("added = %v, want [$[2]]", r.Added)
	}

	// The array summary row changes from [2] to [3].
	if len(r.Changed) != 1 || r.Changed[0].ID != "$" {
		t.Fatalf("changed = %+v, want root entry", r.Changed)
	}
	if r.Changed[0].Before != "[2]" || r.Changed[0].After != "[3]" {
		t.Errorf("change = %+v, want [2]→[3]", r.Changed[0])
	}
}

func TestCompareSortsOutput(t *testing.T) {
	r := compare(t, `{"z": 1, "m": 1, "a": 1}`, `{"b": 2, "y": 2, "c": 2}`)

	if !slices.IsSorted(r.Added) {
		t.Errorf("added not sorted: %v", r.Added)
	}
	if !slices.IsSorted(r.Removed) {
		t.Errorf("removed not sorted: %v", r.Removed)
	}
	ids := make([]string, len(r.Changed))
	for i, c := range r.Changed {
		ids[i] = c.ID
	}
	if !slices.IsSorted(ids) {
		t.Errorf("changed not sorted: %v", ids)
	}
}

func TestSummaryCounts(t *testing.T) {
	r := Report{
		Added:   []string{"$.a"},
		Removed: []string{"$.b", "$.c"},
		Changed: []Change{{ID: "$", Field: FieldContent}},
	}
	if got := r.Summary(); got != "1 added, 2 removed, 1 changed" {
		t.Errorf("summary = %q", got)
	}
}
