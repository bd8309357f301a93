package layout

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jsonflow/jsonflow/pkg/graph"
)

// =============================================================================
// Snapshot - Positioned Graph Serialization
// =============================================================================

// Snapshot is the serialization format for positioned graphs. It pairs the
// node and edge lists with the frame and diagnostics of the run that placed
// them, which is what renderers, caches, and API responses consume.
type Snapshot struct {
	Frame Frame        `json:"frame"`
	Stats Stats        `json:"stats"`
	Nodes []graph.Node `json:"nodes"`
	Edges []graph.Edge `json:"edges"`
}

// Capture extracts a Snapshot from a positioned graph and its layout result.
func Capture(g *graph.Graph, res Result) Snapshot {
	doc := graph.Export(g)
	return Snapshot{
		Frame: res.Frame,
		Stats: res.Stats,
		Nodes: doc.Nodes,
		Edges: doc.Edges,
	}
}

// MarshalSnapshot serializes a Snapshot to pretty-printed JSON bytes.
func MarshalSnapshot(s Snapshot) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// UnmarshalSnapshot deserializes JSON bytes into a Snapshot.
// Validates that every node carries a position, so partially positioned
// files are rejected before renderers divide by missing coordinates.
func UnmarshalSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	if len(s.Nodes) == 0 {
		return Snapshot{}, fmt.Errorf("snapshot must contain nodes")
	}
	for _, n := range s.Nodes {
		if n.Position == nil {
			return Snapshot{}, fmt.Errorf("snapshot node %s has no position", n.ID)
		}
	}

	return s, nil
}

// Restore rebuilds a positioned graph and its layout result from a
// snapshot. The graph passes the same structural validation Import
// applies, so a restored snapshot is safe to hand straight to renderers.
func Restore(s Snapshot) (*graph.Graph, Result, error) {
	g, err := graph.Import(graph.Document{Nodes: s.Nodes, Edges: s.Edges})
	if err != nil {
		return nil, Result{}, fmt.Errorf("restore snapshot: %w", err)
	}
	return g, Result{Frame: s.Frame, Stats: s.Stats}, nil
}

// WriteSnapshotFile writes a Snapshot to a JSON file.
func WriteSnapshotFile(s Snapshot, path string) error {
	data, err := MarshalSnapshot(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadSnapshotFile reads a Snapshot from a JSON file.
func ReadSnapshotFile(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalSnapshot(data)
}
