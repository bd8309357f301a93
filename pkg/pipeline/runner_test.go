package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jsonflow/jsonflow/pkg/cache"
	"github.com/jsonflow/jsonflow/pkg/errors"
	"github.com/jsonflow/jsonflow/pkg/observability"
)

const testDoc = `{"name": "ada", "tags": ["a", "b"]}`

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	logger := log.NewWithOptions(io.Discard, log.Options{})
	r := NewRunner(c, nil, logger)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func testOptions() Options {
	return Options{
		Source:  "test.json",
		Formats: []string{"svg", "dot", "json"},
	}
}

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	if r.Cache == nil || r.Keyer == nil || r.Logger == nil {
		t.Fatalf("NewRunner left nil fields: %+v", r)
	}

	// A nil cache degrades to no caching, not to failure.
	result, err := r.Execute(context.Background(), []byte(testDoc), testOptions())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.CacheInfo.BuildHit || result.CacheInfo.LayoutHit || result.CacheInfo.RenderHit {
		t.Errorf("null cache reported hits: %+v", result.CacheInfo)
	}
}

func TestRunnerExecute(t *testing.T) {
	r := newTestRunner(t)

	result, err := r.Execute(context.Background(), []byte(testDoc), testOptions())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.Stats.NodeCount != 5 {
		t.Errorf("NodeCount = %d, want 5", result.Stats.NodeCount)
	}
	if result.Stats.EdgeCount != 5 {
		t.Errorf("EdgeCount = %d, want 5", result.Stats.EdgeCount)
	}
	if len(result.GraphHash) != 64 {
		t.Errorf("GraphHash = %q, want 64 hex chars", result.GraphHash)
	}
	for _, n := range result.Graph.Nodes() {
		if n.Position == nil {
			t.Errorf("node %s not positioned", n.ID)
		}
	}
	if result.Layout.Frame.Width <= 0 || result.Layout.Frame.Height <= 0 {
		t.Errorf("frame = %+v", result.Layout.Frame)
	}

	svg := result.Artifacts["svg"]
	if !bytes.HasPrefix(svg, []byte("<svg")) {
		t.Errorf("svg artifact starts %q", truncate(svg))
	}
	dot := result.Artifacts["dot"]
	if !bytes.HasPrefix(dot, []byte("digraph G {")) {
		t.Errorf("dot artifact starts %q", truncate(dot))
	}
	var decoded map[string]any
	if err := json.Unmarshal(result.Artifacts["json"], &decoded); err != nil {
		t.Errorf("json artifact does not parse: %v", err)
	}

	if result.CacheInfo.BuildHit || result.CacheInfo.LayoutHit || result.CacheInfo.RenderHit {
		t.Errorf("fresh cache reported hits: %+v", result.CacheInfo)
	}
}

func TestRunnerExecuteCacheHits(t *testing.T) {
	r := newTestRunner(t)
	ctx := context.Background()

	first, err := r.Execute(ctx, []byte(testDoc), testOptions())
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}

	second, err := r.Execute(ctx, []byte(testDoc), testOptions())
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}

	if !second.CacheInfo.BuildHit {
		t.Error("second run should hit the graph cache")
	}
	if !second.CacheInfo.LayoutHit {
		t.Error("second run should hit the layout cache")
	}
	if !second.CacheInfo.RenderHit {
		t.Error("second run should hit the artifact cache")
	}

	for format, data := range first.Artifacts {
		if !bytes.Equal(data, second.Artifacts[format]) {
			t.Errorf("%s artifact differs between runs", format)
		}
	}
	if first.GraphHash != second.GraphHash {
		t.Errorf("GraphHash differs: %s vs %s", first.GraphHash, second.GraphHash)
	}
}

func TestRunnerExecuteRefresh(t *testing.T) {
	r := newTestRunner(t)
	ctx := context.Background()

	if _, err := r.Execute(ctx, []byte(testDoc), testOptions()); err != nil {
		t.Fatalf("priming Execute: %v", err)
	}

	opts := testOptions()
	opts.Refresh = true
	result, err := r.Execute(ctx, []byte(testDoc), opts)
	if err != nil {
		t.Fatalf("refresh Execute: %v", err)
	}
	if result.CacheInfo.BuildHit {
		t.Error("refresh should bypass the graph cache")
	}
}

func TestRunnerExecuteInvalidDocument(t *testing.T) {
	r := newTestRunner(t)

	_, err := r.Execute(context.Background(), []byte(`{broken`), testOptions())
	if !errors.Is(err, errors.ErrCodeInvalidDocument) {
		t.Errorf("Execute error = %v, want INVALID_DOCUMENT", err)
	}
}

func TestRunnerExecuteInvalidOptions(t *testing.T) {
	r := newTestRunner(t)

	opts := testOptions()
	opts.Formats = []string{"gif"}
	_, err := r.Execute(context.Background(), []byte(testDoc), opts)
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Execute error = %v, want INVALID_FORMAT", err)
	}
}

func TestRunnerExecuteLimitExceeded(t *testing.T) {
	r := newTestRunner(t)

	opts := testOptions()
	opts.MaxNodes = 2
	_, err := r.Execute(context.Background(), []byte(testDoc), opts)
	if !errors.Is(err, errors.ErrCodeLimitExceeded) {
		t.Errorf("Execute error = %v, want LIMIT_EXCEEDED", err)
	}
}

func TestRunnerStages(t *testing.T) {
	r := newTestRunner(t)
	ctx := context.Background()
	opts := testOptions()

	g, err := r.Build(ctx, []byte(testDoc), opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	snap, err := r.ComputeLayout(ctx, g, opts)
	if err != nil {
		t.Fatalf("ComputeLayout: %v", err)
	}
	if len(snap.Nodes) != g.NodeCount() {
		t.Errorf("snapshot nodes = %d, want %d", len(snap.Nodes), g.NodeCount())
	}

	artifacts, err := r.Render(ctx, g, snap, opts)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(artifacts) != 3 {
		t.Errorf("artifacts = %d, want 3", len(artifacts))
	}
}

func TestRunnerLayoutCacheRestores(t *testing.T) {
	r := newTestRunner(t)
	ctx := context.Background()
	opts := testOptions()

	// Prime the layout cache.
	primed, err := r.Build(ctx, []byte(testDoc), opts)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.ComputeLayout(ctx, primed, opts); err != nil {
		t.Fatal(err)
	}

	// A second build yields an unpositioned graph; the layout stage should
	// satisfy it from cache without touching the input.
	fresh, err := BuildGraph([]byte(testDoc), opts)
	if err != nil {
		t.Fatal(err)
	}
	positioned, snap, hit, err := r.LayoutWithCacheInfo(ctx, fresh, opts)
	if err != nil {
		t.Fatalf("LayoutWithCacheInfo: %v", err)
	}
	if !hit {
		t.Fatal("expected layout cache hit")
	}
	for _, n := range positioned.Nodes() {
		if n.Position == nil {
			t.Errorf("restored node %s not positioned", n.ID)
		}
	}
	for _, n := range fresh.Nodes() {
		if n.Position != nil {
			t.Errorf("cache hit mutated input graph node %s", n.ID)
		}
	}
	if len(snap.Nodes) != fresh.NodeCount() {
		t.Errorf("snapshot nodes = %d, want %d", len(snap.Nodes), fresh.NodeCount())
	}
}

func TestRunnerExecuteHooks(t *testing.T) {
	defer observability.Reset()

	rec := &recordingHooks{}
	observability.SetPipelineHooks(rec)

	r := newTestRunner(t)
	if _, err := r.Execute(context.Background(), []byte(testDoc), testOptions()); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	want := []string{"build-start", "build-complete", "layout-start", "layout-complete", "render-start", "render-complete"}
	if len(rec.events) != len(want) {
		t.Fatalf("events = %v, want %v", rec.events, want)
	}
	for i, e := range want {
		if rec.events[i] != e {
			t.Errorf("events[%d] = %s, want %s", i, rec.events[i], e)
		}
	}
	if rec.buildSource != "test.json" {
		t.Errorf("build source = %q", rec.buildSource)
	}
	if rec.layoutNodes != 5 {
		t.Errorf("layout nodes = %d, want 5", rec.layoutNodes)
	}
}

type recordingHooks struct {
	observability.NoopPipelineHooks
	events      []string
	buildSource string
	layoutNodes int
}

func (h *recordingHooks) OnBuildStart(_ context.Context, source string, _ int) {
	h.events = append(h.events, "build-start")
	h.buildSource = source
}

func (h *recordingHooks) OnBuildComplete(_ context.Context, _ string, _ int, _ time.Duration, _ error) {
	h.events = append(h.events, "build-complete")
}

func (h *recordingHooks) OnLayoutStart(_ context.Context, nodeCount int) {
	h.events = append(h.events, "layout-start")
	h.layoutNodes = nodeCount
}

func (h *recordingHooks) OnLayoutComplete(_ context.Context, _ time.Duration, _ error) {
	h.events = append(h.events, "layout-complete")
}

func (h *recordingHooks) OnRenderStart(_ context.Context, _ []string) {
	h.events = append(h.events, "render-start")
}

func (h *recordingHooks) OnRenderComplete(_ context.Context, _ []string, _ time.Duration, _ error) {
	h.events = append(h.events, "render-complete")
}

func truncate(b []byte) string {
	if len(b) > 40 {
		b = b[:40]
	}
	return string(b)
}
