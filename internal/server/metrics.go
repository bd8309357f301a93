package server

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jsonflow/jsonflow/pkg/observability"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jsonflow",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Served HTTP requests by method, route and status code.",
	}, []string{"method", "route", "code"})

	httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "jsonflow",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "jsonflow",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "HTTP requests currently being served.",
	})

	activeViews = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "jsonflow",
		Name:      "active_views",
		Help:      "Views currently open in the registry.",
	})

	viewsEvictedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "jsonflow",
		Name:      "views_evicted_total",
		Help:      "Views evicted because the registry was full.",
	})

	viewGraphNodes = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "jsonflow",
		Name:      "view_graph_nodes",
		Help:      "Graph size of opened views, in nodes.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	})

	stageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "jsonflow",
		Subsystem: "pipeline",
		Name:      "stage_duration_seconds",
		Help:      "Pipeline stage latency by stage.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"stage"})

	stageErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jsonflow",
		Subsystem: "pipeline",
		Name:      "stage_errors_total",
		Help:      "Pipeline stage failures by stage.",
	}, []string{"stage"})

	cacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jsonflow",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Cache hits by key type.",
	}, []string{"type"})

	cacheMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jsonflow",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Cache misses by key type.",
	}, []string{"type"})

	cacheWriteBytes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jsonflow",
		Subsystem: "cache",
		Name:      "write_bytes_total",
		Help:      "Bytes written to the cache by key type.",
	}, []string{"type"})
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		httpInFlight,
		activeViews,
		viewsEvictedTotal,
		viewGraphNodes,
		stageDuration,
		stageErrorsTotal,
		cacheHitsTotal,
		cacheMissesTotal,
		cacheWriteBytes,
	)
}

// Metrics feeds observability events into the prometheus collectors
// exposed on /metrics.
type Metrics struct{}

var (
	_ observability.PipelineHooks = Metrics{}
	_ observability.CacheHooks    = Metrics{}
	_ observability.ServerHooks   = Metrics{}
)

// RegisterMetricsHooks routes pipeline, cache and server events into
// prometheus. Call once at serve startup.
func RegisterMetricsHooks() {
	m := Metrics{}
	observability.SetPipelineHooks(m)
	observability.SetCacheHooks(m)
	observability.SetServerHooks(m)
}

func (Metrics) OnBuildStart(context.Context, string, int) {}

func (Metrics) OnBuildComplete(_ context.Context, _ string, _ int, d time.Duration, err error) {
	stageDuration.WithLabelValues("build").Observe(d.Seconds())
	if err != nil {
		stageErrorsTotal.WithLabelValues("build").Inc()
	}
}

func (Metrics) OnLayoutStart(context.Context, int) {}

func (Metrics) OnLayoutComplete(_ context.Context, d time.Duration, err error) {
	stageDuration.WithLabelValues("layout").Observe(d.Seconds())
	if err != nil {
		stageErrorsTotal.WithLabelValues("layout").Inc()
	}
}

func (Metrics) OnRenderStart(context.Context, []string) {}

func (Metrics) OnRenderComplete(_ context.Context, _ []string, d time.Duration, err error) {
	stageDuration.WithLabelValues("render").Observe(d.Seconds())
	if err != nil {
		stageErrorsTotal.WithLabelValues("render").Inc()
	}
}

func (Metrics) OnCacheHit(_ context.Context, keyType string) {
	cacheHitsTotal.WithLabelValues(keyType).Inc()
}

func (Metrics) OnCacheMiss(_ context.Context, keyType string) {
	cacheMissesTotal.WithLabelValues(keyType).Inc()
}

func (Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	cacheWriteBytes.WithLabelValues(keyType).Add(float64(size))
}

func (Metrics) OnRequest(context.Context, string, string) {
	httpInFlight.Inc()
}

func (Metrics) OnResponse(_ context.Context, method, route string, statusCode int, d time.Duration) {
	httpInFlight.Dec()
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (Metrics) OnViewOpened(_ context.Context, nodeCount int) {
	activeViews.Inc()
	viewGraphNodes.Observe(float64(nodeCount))
}

func (Metrics) OnViewClosed(_ context.Context, evicted bool) {
	activeViews.Dec()
	if evicted {
		viewsEvictedTotal.Inc()
	}
}
