package layout

import (
	"cmp"
	"maps"
	"slices"

	"github.com/jsonflow/jsonflow/pkg/graph"
)

// RankOrders groups node IDs by depth, ordered top to bottom by placed
// position. Graphs that have not been positioned fall back to insertion
// order within each rank.
func RankOrders(g *graph.Graph) map[int][]string {
	nodes := g.Nodes()
	slices.SortStableFunc(nodes, func(a, b *graph.Node) int {
		var ay, by float64
		if a.Position != nil {
			ay = a.Position.Y
		}
		if b.Position != nil {
			by = b.Position.Y
		}
		return cmp.Compare(ay, by)
	})

	orders := make(map[int][]string)
	for _, n := range nodes {
		orders[n.Depth] = append(orders[n.Depth], n.ID)
	}
	return orders
}

// CountCrossings returns the total number of structural edge crossings for
// the given rank orderings. It sums the crossings between each pair of
// consecutive ranks. The orders map should contain node IDs in top-to-bottom
// order for each rank, as produced by [RankOrders].
//
// Tree layouts produced by [Engine.Layout] nest sibling subtrees in disjoint
// bands, so they count zero; the number is a diagnostic for hand-assembled
// or imported layouts.
func CountCrossings(g *graph.Graph, orders map[int][]string) int {
	ranks := slices.Sorted(maps.Keys(orders))
	crossings := 0
	for i := 0; i < len(ranks)-1; i++ {
		r := ranks[i]
		crossings += CountRankCrossings(g, orders[r], orders[r+1])
	}
	return crossings
}

// CountRankCrossings counts structural edge crossings between two adjacent
// ranks using a Fenwick tree (binary indexed tree) for O(E log V)
// performance, where E is the number of edges between the ranks and V is the
// number of nodes in the deeper rank.
//
// Two edges (u1,v1) and (u2,v2) cross if and only if:
//
//	pos(u1) < pos(u2) AND pos(v1) > pos(v2)
//
// which is equivalent to counting inversions in the sequence of target
// positions when edges are sorted by source position.
//
// Returns 0 if either rank is empty, as no crossings can exist without edges.
func CountRankCrossings(g *graph.Graph, upper, lower []string) int {
	if len(upper) == 0 || len(lower) == 0 {
		return 0
	}

	lowerPos := make(map[string]int, len(lower))
	for i, id := range lower {
		lowerPos[id] = i
	}

	type edge struct{ upper, lower int }
	edges := make([]edge, 0, len(upper)*2)
	for i, id := range upper {
		for _, child := range g.Children(id) {
			if pos, ok := lowerPos[child]; ok {
				edges = append(edges, edge{i, pos})
			}
		}
	}
	if len(edges) < 2 {
		return 0
	}

	// Sort edges by source position, then by target position
	slices.SortFunc(edges, func(a, b edge) int {
		if a.upper != b.upper {
			return a.upper - b.upper
		}
		return a.lower - b.lower
	})

	// Count inversions using Fenwick tree
	fenwick := make([]int, len(lower)+1)
	crossings, total := 0, 0
	for _, e := range edges {
		// Query: count edges seen so far with target <= e.lower
		lessOrEqual := 0
		for q := e.lower + 1; q > 0; q -= q & (-q) {
			lessOrEqual += fenwick[q]
		}
		// Crossings = edges seen so far with target > e.lower
		crossings += total - lessOrEqual

		// Update: increment count at target position
		total++
		for idx := e.lower + 1; idx < len(fenwick); idx += idx & (-idx) {
			fenwick[idx]++
		}
	}
	return crossings
}
