package pipeline

import (
	"github.com/jsonflow/jsonflow/pkg/graph"
	"github.com/jsonflow/jsonflow/pkg/jsondoc"
)

// =============================================================================
// Build Stage
// =============================================================================

// BuildGraph decodes raw JSON bytes and constructs the document graph.
//
// Input limits come from the options; a document that exceeds them is
// rejected with a LIMIT_EXCEEDED error rather than truncated, so a graph
// that builds at all always represents the whole document.
func BuildGraph(data []byte, opts Options) (*graph.Graph, error) {
	if err := opts.ValidateForBuild(); err != nil {
		return nil, err
	}

	v, err := jsondoc.DecodeWithLimits(data, opts.Limits())
	if err != nil {
		return nil, err
	}
	return graph.BuildLimited(v, opts.MaxNodes)
}
