// Package cache provides the stage-artifact store shared by the pipeline,
// the CLI, and the server.
//
// Keys are content-addressed: a built graph is keyed by its document hash
// and build limits, a positioned graph by its graph hash and layout
// geometry, a rendered artifact by its layout hash and sink options. Entries
// therefore never go stale; TTLs only bound storage growth.
//
// Three backends exist: [FileCache] for CLI runs, [RedisCache] for server
// deployments, and [NullCache] to disable caching entirely.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque stage artifacts. Implementations must be safe for
// concurrent use.
//
// Get returns (nil, false, nil) on a miss; errors are reserved for storage
// failures so callers can distinguish "absent" from "broken" and degrade to
// recompute.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// TTLs per artifact class.
const (
	TTLGraph    = 24 * time.Hour
	TTLLayout   = 24 * time.Hour
	TTLArtifact = 72 * time.Hour
)

// Keyer derives cache keys for the three cacheable pipeline stages.
type Keyer interface {
	// GraphKey keys a built graph by document hash and build limits.
	GraphKey(docHash string, opts GraphKeyOpts) string
	// LayoutKey keys a positioned graph by graph hash and layout geometry.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string
	// ArtifactKey keys a rendered artifact by layout hash and sink options.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// GraphKeyOpts are the build parameters that change graph output. Limits
// belong in the key because they reject rather than truncate: a graph
// cached under a generous cap must not satisfy a stricter request.
type GraphKeyOpts struct {
	MaxNodes int `json:"max_nodes"`
	MaxDepth int `json:"max_depth,omitempty"`
}

// LayoutKeyOpts are the layout parameters that change positions.
type LayoutKeyOpts struct {
	ColumnGap float64 `json:"column_gap"`
	RowGap    float64 `json:"row_gap"`
}

// ArtifactKeyOpts are the render parameters that change artifact bytes.
type ArtifactKeyOpts struct {
	Format   string `json:"format"`
	Theme    string `json:"theme,omitempty"`
	Detailed bool   `json:"detailed,omitempty"`
}

// DefaultKeyer hashes the stage inputs into stable keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer { return &DefaultKeyer{} }

// GraphKey generates a key for built-graph caching.
func (k *DefaultKeyer) GraphKey(docHash string, opts GraphKeyOpts) string {
	return hashKey("graph", docHash, opts)
}

// LayoutKey generates a key for layout caching.
func (k *DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

// ArtifactKey generates a key for rendered-artifact caching.
func (k *DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
