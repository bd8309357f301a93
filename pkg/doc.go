// Package pkg provides the core libraries for jsonflow JSON visualization.
//
// # Overview
//
// Jsonflow turns JSON documents into positioned node-link graphs: objects
// and arrays become boxes, nesting becomes edges, and array order becomes
// chain links between consecutive items. The pkg directory is organized
// into three main areas:
//
//  1. Core domain - document model, graph building, layout, visibility
//  2. Rendering - SVG, PNG, DOT and JSON artifact generation
//  3. Infrastructure - pipeline orchestration, caching, config, errors
//
// # Architecture
//
// The typical data flow through jsonflow:
//
//	JSON document bytes
//	         ↓
//	    [jsondoc] package (order-preserving decode)
//	         ↓
//	    [graph] package (typed nodes, structural and chain edges)
//	         ↓
//	    [layout] package (depth columns + tidy-tree bands)
//	         ↓
//	    [render] package (SVG/PNG/DOT/JSON artifacts)
//
// # Quick Start
//
// Build, lay out and render a document:
//
//	import (
//	    "os"
//	    "github.com/jsonflow/jsonflow/pkg/jsondoc"
//	    "github.com/jsonflow/jsonflow/pkg/graph"
//	    "github.com/jsonflow/jsonflow/pkg/layout"
//	    "github.com/jsonflow/jsonflow/pkg/render"
//	)
//
//	// 1. Decode the document, preserving member order
//	v, _ := jsondoc.Decode([]byte(`{"name": "ada", "tags": ["a", "b"]}`))
//
//	// 2. Build the graph
//	g, _ := graph.Build(v)
//
//	// 3. Position every node
//	_, _ = layout.New().Layout(g)
//
//	// 4. Render to SVG
//	_ = render.WriteSVG(os.Stdout, g)
//
// # Main Packages
//
// ## Core Domain
//
// [jsondoc] - Order-preserving JSON document model. Decodes text into a
// typed value tree whose object members keep their emission order, with
// depth and size limits enforced during decode.
//
// [graph] - Typed node/edge graph built from a document. Every container
// and primitive child becomes a node with a path-derived stable id;
// structural edges express nesting, chain edges express array order.
//
// [layout] - Layered layout engine. Horizontal position comes from depth
// columns, vertical position from a two-pass tidy-tree walk over subtree
// bands. Includes the measurement rules and a crossing counter.
//
// [view] - Collapse/visibility tracker. Maintains the collapsed set for a
// graph and derives which nodes and edges it hides.
//
// [diff] - Id-aligned structural comparison of two built graphs.
//
// ## Rendering
//
// [render] - Artifact generation: hand-written SVG, Graphviz-backed SVG
// and PNG, DOT text, and a JSON scene description, themed light or dark.
//
// ## Infrastructure
//
// [pipeline] - Complete visualization pipeline (build → layout → render)
// used by the CLI, TUI, and HTTP server. Ensures consistent behavior
// across all entry points, with content-addressed caching between stages.
//
// [cache] - Cache backends (file, redis, null) plus the content-hash
// keyer the pipeline derives its keys from.
//
// [config] - TOML config file with JSONFLOW_* environment overrides.
//
// [errors] - Coded errors shared by the CLI, TUI, and HTTP API.
//
// [observability] - Hook interfaces that decouple the pipeline from
// prometheus metrics.
//
// [buildinfo] - ldflags-injected version information.
//
// # Common Workflows
//
// Run the full pipeline with caching:
//
//	runner := pipeline.NewRunner(c, cache.NewDefaultKeyer(), logger)
//	result, _ := runner.Execute(ctx, data, pipeline.Options{Formats: []string{"svg"}})
//
// Track collapse state over a graph:
//
//	tr := view.NewTracker(g)
//	tr.Toggle("$.tags")
//	visible := tr.VisibleNodes()
//
// Compare two documents:
//
//	report := diff.Compare(before, after)
//	fmt.Println(report.Summary())
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...           # All tests
//	go test ./pkg/layout/...    # Specific package
//	go test -run Example        # Examples only
//
// [jsondoc]: https://pkg.go.dev/github.com/jsonflow/jsonflow/pkg/jsondoc
// [graph]: https://pkg.go.dev/github.com/jsonflow/jsonflow/pkg/graph
// [layout]: https://pkg.go.dev/github.com/jsonflow/jsonflow/pkg/layout
// [view]: https://pkg.go.dev/github.com/jsonflow/jsonflow/pkg/view
// [diff]: https://pkg.go.dev/github.com/jsonflow/jsonflow/pkg/diff
// [render]: https://pkg.go.dev/github.com/jsonflow/jsonflow/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/jsonflow/jsonflow/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/jsonflow/jsonflow/pkg/cache
// [config]: https://pkg.go.dev/github.com/jsonflow/jsonflow/pkg/config
// [errors]: https://pkg.go.dev/github.com/jsonflow/jsonflow/pkg/errors
// [observability]: https://pkg.go.dev/github.com/jsonflow/jsonflow/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/jsonflow/jsonflow/pkg/buildinfo
package pkg
