// Package pipeline provides the core visualization pipeline for jsonflow.
//
// This package implements the complete build → layout → render pipeline
// that the CLI and the HTTP server share. Centralizing it here keeps
// caching and defaulting behavior identical across entry points.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Build: Decode raw JSON and construct the document graph
//  2. Layout: Compute a position and size for every node
//  3. Render: Generate output in various formats (SVG, PNG, DOT, JSON)
//
// Each stage can be run independently or as part of the complete pipeline,
// and each stage is cached by content hash, so re-running the same document
// with the same options is cheap.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Source:  "payload.json",
//	    Formats: []string{"svg"},
//	    Theme:   "dark",
//	}
//	result, err := runner.Execute(ctx, data, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	// Build only
//	g, err := runner.Build(ctx, data, opts)
//
//	// Layout an existing graph
//	snap, err := runner.ComputeLayout(ctx, g, opts)
//
//	// Render a positioned graph
//	artifacts, err := runner.Render(ctx, g, snap, opts)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jsonflow/jsonflow/pkg/cache"
	"github.com/jsonflow/jsonflow/pkg/errors"
	"github.com/jsonflow/jsonflow/pkg/graph"
	"github.com/jsonflow/jsonflow/pkg/jsondoc"
	"github.com/jsonflow/jsonflow/pkg/layout"
	"github.com/jsonflow/jsonflow/pkg/render"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultMaxNodes is the maximum number of graph nodes per document.
	// This is intentionally more conservative than graph.DefaultMaxNodes
	// (50000) so interactive use stays responsive. Callers can override it
	// by setting MaxNodes explicitly.
	DefaultMaxNodes = 10000

	// DefaultMaxDepth is the maximum JSON nesting depth, matching
	// jsondoc.DefaultLimits.
	DefaultMaxDepth = 512

	// DefaultMaxBytes is the maximum raw document size, matching
	// jsondoc.DefaultLimits.
	DefaultMaxBytes = 10 << 20

	// DefaultSource names document bytes with no better origin in logs
	// and metrics.
	DefaultSource = "memory"
)

// DefaultTheme is the visual theme used when none is given.
const DefaultTheme = "light"

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatDOT:  true,
	FormatJSON: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the visualization pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Build options
	Source   string `json:"source,omitempty"` // display name for logs and metrics
	MaxNodes int    `json:"max_nodes,omitempty"`
	MaxDepth int    `json:"max_depth,omitempty"`
	MaxBytes int    `json:"max_bytes,omitempty"`
	Refresh  bool   `json:"refresh,omitempty"` // bypass the graph cache on read

	// Layout options
	ColumnGap float64 `json:"column_gap,omitempty"`
	RowGap    float64 `json:"row_gap,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Theme    string   `json:"theme,omitempty"`
	Detailed bool     `json:"detailed,omitempty"` // include value previews in DOT labels

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the positioned document graph.
	Graph *graph.Graph

	// GraphHash is the content hash of the built graph.
	GraphHash string

	// Layout is the captured layout snapshot (positions, frame, stats).
	Layout layout.Snapshot

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	BuildTime  time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	BuildHit  bool // Whether the built graph came from cache
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format %q (must be one of: svg, png, dot, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateTheme checks that a theme name is valid.
func ValidateTheme(theme string) error {
	_, err := render.ThemeByName(theme)
	return err
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks all fields and applies defaults for the full
// pipeline. This method is idempotent - calling it multiple times has the
// same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForBuild(); err != nil {
		return err
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForBuild checks fields and applies defaults for the build stage.
func (o *Options) ValidateForBuild() error {
	if o.MaxNodes < 0 || o.MaxDepth < 0 || o.MaxBytes < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "limits cannot be negative")
	}

	// Build defaults
	if o.Source == "" {
		o.Source = DefaultSource
	}
	if o.MaxNodes == 0 {
		o.MaxNodes = DefaultMaxNodes
	}
	if o.MaxDepth == 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxBytes == 0 {
		o.MaxBytes = DefaultMaxBytes
	}

	// Logger default
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.ColumnGap == 0 {
		o.ColumnGap = layout.DefaultColumnGap
	}
	if o.RowGap == 0 {
		o.RowGap = layout.DefaultRowGap
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	if o.ColumnGap < 0 || o.RowGap < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "layout gaps cannot be negative")
	}
	o.SetLayoutDefaults()
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Theme == "" {
		o.Theme = DefaultTheme
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	return ValidateTheme(o.Theme)
}

// Limits returns the decode limits derived from the options.
func (o *Options) Limits() jsondoc.Limits {
	return jsondoc.Limits{
		MaxDepth: o.MaxDepth,
		MaxBytes: o.MaxBytes,
	}
}

// GraphKeyOpts returns cache key options for the build stage.
func (o *Options) GraphKeyOpts() cache.GraphKeyOpts {
	return cache.GraphKeyOpts{
		MaxNodes: o.MaxNodes,
		MaxDepth: o.MaxDepth,
	}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		ColumnGap: o.ColumnGap,
		RowGap:    o.RowGap,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:   format,
		Theme:    o.Theme,
		Detailed: o.Detailed,
	}
}

// DOTOptions returns the DOT emitter options derived from the options.
func (o *Options) DOTOptions() render.DOTOptions {
	return render.DOTOptions{Detailed: o.Detailed}
}
