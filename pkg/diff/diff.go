// Package diff compares two document graphs node by node.
//
// Nodes align on their path-derived ids, so a property keeps its identity
// across document versions as long as its path is unchanged. The report
// lists ids that appeared, ids that vanished, and in-place changes of kind
// or content.
package diff

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jsonflow/jsonflow/pkg/graph"
)

// Fields a node can change in.
const (
	FieldKind    = "kind"
	FieldContent = "content"
)

// Change records one in-place difference on a node present in both graphs.
type Change struct {
	ID     string `json:"id"`
	Field  string `json:"field"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// Report is the outcome of comparing two graphs. All slices are sorted by
// node id so reports are deterministic and directly renderable.
type Report struct {
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
	Changed []Change `json:"changed,omitempty"`
}

// Empty reports whether the two graphs were identical under comparison.
func (r Report) Empty() bool {
	return len(r.Added) == 0 && len(r.Removed) == 0 && len(r.Changed) == 0
}

// Summary returns a one-line human readable account of the report.
func (r Report) Summary() string {
	if r.Empty() {
		return "documents are identical"
	}
	return fmt.Sprintf("%d added, %d removed, %d changed",
		len(r.Added), len(r.Removed), len(r.Changed))
}

// Compare aligns two graphs on node ids and reports the differences.
// Chain edges never produce entries: they are derived from array adjacency,
// so any difference in them already shows up as node additions or removals.
func Compare(before, after *graph.Graph) Report {
	var report Report

	for _, n := range after.Nodes() {
		if _, ok := before.Node(n.ID); !ok {
			report.Added = append(report.Added, n.ID)
		}
	}

	for _, old := range before.Nodes() {
		cur, ok := after.Node(old.ID)
		if !ok {
			report.Removed = append(report.Removed, old.ID)
			continue
		}

		if old.Base != cur.Base {
			report.Changed = append(report.Changed, Change{
				ID:     old.ID,
				Field:  FieldKind,
				Before: string(old.Base),
				After:  string(cur.Base),
			})
			continue // content of different kinds is never comparable
		}
		if ob, cb := contentSignature(old), contentSignature(cur); ob != cb {
			report.Changed = append(report.Changed, Change{
				ID:     old.ID,
				Field:  FieldContent,
				Before: ob,
				After:  cb,
			})
		}
	}

	slices.Sort(report.Added)
	slices.Sort(report.Removed)
	slices.SortFunc(report.Changed, func(a, b Change) int {
		return strings.Compare(a.ID, b.ID)
	})
	return report
}

// contentSignature flattens what a node displays into one comparable
// string. Only serialization-visible fields participate, so comparisons
// work on graphs read back from files as well as freshly built ones.
func contentSignature(n *graph.Node) string {
	if n.Primitive != nil {
		return n.Primitive.Text
	}
	parts := make([]string, len(n.Rows))
	for i, row := range n.Rows {
		if row.Key != "" {
			parts[i] = row.Key + ": " + row.Preview
		} else {
			parts[i] = row.Preview
		}
	}
	return strings.Join(parts, "\n")
}
