package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jsonflow/jsonflow/pkg/errors"
	"github.com/jsonflow/jsonflow/pkg/graph"
	"github.com/jsonflow/jsonflow/pkg/layout"
	"github.com/jsonflow/jsonflow/pkg/observability"
	"github.com/jsonflow/jsonflow/pkg/pipeline"
	"github.com/jsonflow/jsonflow/pkg/view"
)

// View is one interactive session over a document: the positioned graph,
// its layout snapshot, and the collapse tracker that decides what is
// visible. Mutating endpoints lock mu around tracker access; the graph
// and snapshot are immutable after creation.
type View struct {
	ID        string
	CreatedAt time.Time
	GraphHash string
	Graph     *graph.Graph
	Snapshot  layout.Snapshot
	Tracker   *view.Tracker
	Options   pipeline.Options

	mu         sync.Mutex
	lastAccess time.Time
}

// Lock acquires the view's mutation lock.
func (v *View) Lock() { v.mu.Lock() }

// Unlock releases the view's mutation lock.
func (v *View) Unlock() { v.mu.Unlock() }

// Registry holds open views, capped at maxViews. Beyond the cap the
// least recently accessed view is evicted.
type Registry struct {
	mu       sync.RWMutex
	views    map[string]*View
	maxViews int
}

// NewRegistry creates a registry holding at most maxViews views.
// maxViews < 1 falls back to 1.
func NewRegistry(maxViews int) *Registry {
	if maxViews < 1 {
		maxViews = 1
	}
	return &Registry{
		views:    make(map[string]*View),
		maxViews: maxViews,
	}
}

// Open registers a new view over a positioned graph and returns it.
// If the registry is full the least recently used view is evicted first.
func (r *Registry) Open(ctx context.Context, g *graph.Graph, snap layout.Snapshot, hash string, opts pipeline.Options) *View {
	now := time.Now()
	v := &View{
		ID:         uuid.NewString(),
		CreatedAt:  now,
		GraphHash:  hash,
		Graph:      g,
		Snapshot:   snap,
		Tracker:    view.NewTracker(g),
		Options:    opts,
		lastAccess: now,
	}

	r.mu.Lock()
	for len(r.views) >= r.maxViews {
		r.evictOldestLocked(ctx)
	}
	r.views[v.ID] = v
	r.mu.Unlock()

	observability.Server().OnViewOpened(ctx, g.NodeCount())
	return v
}

// Get returns the view with the given ID and marks it as recently used.
func (r *Registry) Get(id string) (*View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.views[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeViewNotFound, "view %s not found", id)
	}
	v.lastAccess = time.Now()
	return v, nil
}

// Delete closes the view with the given ID.
func (r *Registry) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	_, ok := r.views[id]
	if ok {
		delete(r.views, id)
	}
	r.mu.Unlock()

	if !ok {
		return errors.New(errors.ErrCodeViewNotFound, "view %s not found", id)
	}
	observability.Server().OnViewClosed(ctx, false)
	return nil
}

// Len returns the number of open views.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.views)
}

// evictOldestLocked removes the least recently accessed view.
// Callers must hold r.mu.
func (r *Registry) evictOldestLocked(ctx context.Context) {
	var oldest *View
	for _, v := range r.views {
		if oldest == nil || v.lastAccess.Before(oldest.lastAccess) {
			oldest = v
		}
	}
	if oldest == nil {
		return
	}
	delete(r.views, oldest.ID)
	observability.Server().OnViewClosed(ctx, true)
}
