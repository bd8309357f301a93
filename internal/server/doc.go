// Package server implements the jsonflow HTTP API.
//
// The API has two halves. The stateless half renders documents in one
// round trip: POST /api/render accepts a JSON document plus pipeline
// options and answers with the artifact bytes. The stateful half manages
// interactive views: POST /api/views builds and lays out a document,
// keeps the graph and a collapse tracker server-side under a view ID,
// and the per-view endpoints toggle collapse state and render the
// currently visible subgraph.
//
// Views live in an in-memory registry capped by config; the least
// recently used view is evicted when the cap is reached. Prometheus
// metrics for requests, pipeline stages, cache traffic, and view
// lifecycle are exposed on /metrics and fed through the observability
// hook registry, so the pipeline itself stays metrics-free.
package server
