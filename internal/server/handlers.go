package server

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jsonflow/jsonflow/pkg/buildinfo"
	"github.com/jsonflow/jsonflow/pkg/cache"
	"github.com/jsonflow/jsonflow/pkg/errors"
	"github.com/jsonflow/jsonflow/pkg/graph"
	"github.com/jsonflow/jsonflow/pkg/layout"
	"github.com/jsonflow/jsonflow/pkg/pipeline"
	"github.com/jsonflow/jsonflow/pkg/render"
)

// ===== Request / Response Types =====

// GraphRequest is the body of POST /api/graph and POST /api/views. The
// document is either inline JSON or a string holding JSON text. Options
// left at their zero value inherit the server's configured defaults.
type GraphRequest struct {
	Document json.RawMessage  `json:"document"`
	Options  pipeline.Options `json:"options"`
}

// RenderRequest is the body of POST /api/render. Exactly one output format
// is produced per call; the artifact is returned as the raw response body.
type RenderRequest struct {
	Document json.RawMessage  `json:"document"`
	Format   string           `json:"format"`
	Options  pipeline.Options `json:"options"`
}

// GraphResponse carries a built graph. Frame is nil when layout was
// skipped via ?layout=false.
type GraphResponse struct {
	GraphHash string         `json:"graph_hash"`
	NodeCount int            `json:"node_count"`
	EdgeCount int            `json:"edge_count"`
	Frame     *layout.Frame  `json:"frame,omitempty"`
	Graph     graph.Document `json:"graph"`
}

// ViewResponse is returned when a view is created.
type ViewResponse struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	GraphHash string         `json:"graph_hash"`
	NodeCount int            `json:"node_count"`
	EdgeCount int            `json:"edge_count"`
	Frame     layout.Frame   `json:"frame"`
	Graph     graph.Document `json:"graph"`
}

// ViewState describes the current visibility of a view: which nodes are
// explicitly collapsed, and which nodes and edges that hides.
type ViewState struct {
	ID           string   `json:"id"`
	GraphHash    string   `json:"graph_hash"`
	Collapsed    []string `json:"collapsed"`
	HiddenNodes  []string `json:"hidden_nodes"`
	HiddenEdges  []string `json:"hidden_edges"`
	VisibleNodes int      `json:"visible_nodes"`
	VisibleEdges int      `json:"visible_edges"`
}

// ToggleRequest names the node whose collapse flag should flip.
type ToggleRequest struct {
	ID string `json:"id"`
}

// ToggleResponse reports the node's new collapse state along with the
// resulting view visibility.
type ToggleResponse struct {
	NodeID    string `json:"node_id"`
	Collapsed bool   `json:"collapsed"`
	ViewState
}

// ===== Helpers =====

// decodeRequest reads a JSON body into v, bounding the read at the
// configured document limit plus envelope headroom.
func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, int64(s.cfg.Limits.MaxBytes)+4096)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if stderrors.As(err, &maxErr) {
			return errors.New(errors.ErrCodeLimitExceeded, "request body exceeds %d bytes", maxErr.Limit)
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body")
	}
	return nil
}

// documentBytes extracts the document from a request field. A JSON string
// value carries the document as embedded text, so it is unquoted before
// parsing; anything else is used as is.
func documentBytes(raw json.RawMessage) []byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return []byte(s)
		}
	}
	return raw
}

// mergeOptions overlays the server's configured defaults onto options a
// request left unset.
func (s *Server) mergeOptions(opts pipeline.Options) pipeline.Options {
	if opts.Source == "" {
		opts.Source = "http"
	}
	if opts.MaxNodes == 0 {
		opts.MaxNodes = s.cfg.Limits.MaxNodes
	}
	if opts.MaxDepth == 0 {
		opts.MaxDepth = s.cfg.Limits.MaxDepth
	}
	if opts.MaxBytes == 0 {
		opts.MaxBytes = s.cfg.Limits.MaxBytes
	}
	if opts.ColumnGap == 0 {
		opts.ColumnGap = s.cfg.Layout.ColumnGap
	}
	if opts.RowGap == 0 {
		opts.RowGap = s.cfg.Layout.RowGap
	}
	if opts.Theme == "" {
		opts.Theme = s.cfg.Render.Theme
	}
	opts.Detailed = opts.Detailed || s.cfg.Render.Detailed
	opts.Logger = s.logger
	return opts
}

// stateLocked builds the visibility state of a view. Callers hold v's lock.
func stateLocked(v *View) ViewState {
	return ViewState{
		ID:           v.ID,
		GraphHash:    v.GraphHash,
		Collapsed:    v.Tracker.CollapsedIDs(),
		HiddenNodes:  v.Tracker.HiddenNodeIDs(),
		HiddenEdges:  v.Tracker.HiddenEdgeIDs(),
		VisibleNodes: len(v.Tracker.VisibleNodes()),
		VisibleEdges: len(v.Tracker.VisibleEdges()),
	}
}

// contentTypeFor maps an output format to its response content type.
func contentTypeFor(format string) string {
	switch format {
	case pipeline.FormatSVG:
		return "image/svg+xml"
	case pipeline.FormatPNG:
		return "image/png"
	case pipeline.FormatDOT:
		return "text/vnd.graphviz; charset=utf-8"
	case pipeline.FormatJSON:
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

// graphHash content-hashes a built graph the same way the pipeline does.
func graphHash(g *graph.Graph) (string, error) {
	data, err := graph.Marshal(g)
	if err != nil {
		return "", err
	}
	return cache.Hash(data), nil
}

// ===== Health =====

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": buildinfo.Version,
		"views":   s.views.Len(),
	})
}

// ===== Stateless Endpoints =====

// handleGraph parses a document into a graph and returns it as JSON.
// Layout runs by default; ?layout=false skips it.
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	var req GraphRequest
	if err := s.decodeRequest(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if len(req.Document) == 0 {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "missing document"))
		return
	}

	withLayout := true
	if q := r.URL.Query().Get("layout"); q != "" {
		b, err := strconv.ParseBool(q)
		if err != nil {
			writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid layout parameter %q", q))
			return
		}
		withLayout = b
	}

	opts := s.mergeOptions(req.Options)
	g, err := s.runner.Build(r.Context(), documentBytes(req.Document), opts)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := GraphResponse{
		NodeCount: g.NodeCount(),
		EdgeCount: g.EdgeCount(),
	}
	if withLayout {
		positioned, snap, _, err := s.runner.LayoutWithCacheInfo(r.Context(), g, opts)
		if err != nil {
			writeError(w, err)
			return
		}
		g = positioned
		resp.Frame = &snap.Frame
	}

	hash, err := graphHash(g)
	if err != nil {
		writeError(w, err)
		return
	}
	resp.GraphHash = hash
	resp.Graph = graph.Export(g)
	writeJSON(w, http.StatusOK, resp)
}

// handleRender runs the full pipeline for one format and returns the raw
// artifact bytes with a matching content type.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if err := s.decodeRequest(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if len(req.Document) == 0 {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "missing document"))
		return
	}

	format := req.Format
	if format == "" {
		format = s.cfg.Render.Format
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		writeError(w, err)
		return
	}

	opts := s.mergeOptions(req.Options)
	opts.Formats = []string{format}
	result, err := s.runner.Execute(r.Context(), documentBytes(req.Document), opts)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentTypeFor(format))
	w.Header().Set("X-Graph-Hash", result.GraphHash)
	w.WriteHeader(http.StatusOK)
	w.Write(result.Artifacts[format])
}

// ===== View Endpoints =====

// handleCreateView builds and lays out a document, then registers a
// collapse tracker for it under a fresh view ID.
func (s *Server) handleCreateView(w http.ResponseWriter, r *http.Request) {
	var req GraphRequest
	if err := s.decodeRequest(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if len(req.Document) == 0 {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "missing document"))
		return
	}

	opts := s.mergeOptions(req.Options)
	g, err := s.runner.Build(r.Context(), documentBytes(req.Document), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	positioned, snap, _, err := s.runner.LayoutWithCacheInfo(r.Context(), g, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	hash, err := graphHash(positioned)
	if err != nil {
		writeError(w, err)
		return
	}

	v := s.views.Open(r.Context(), positioned, snap, hash, opts)
	writeJSON(w, http.StatusCreated, ViewResponse{
		ID:        v.ID,
		CreatedAt: v.CreatedAt,
		GraphHash: v.GraphHash,
		NodeCount: positioned.NodeCount(),
		EdgeCount: positioned.EdgeCount(),
		Frame:     snap.Frame,
		Graph:     graph.Export(positioned),
	})
}

func (s *Server) handleGetView(w http.ResponseWriter, r *http.Request) {
	v, err := s.views.Get(chi.URLParam(r, "viewID"))
	if err != nil {
		writeError(w, err)
		return
	}
	v.Lock()
	state := stateLocked(v)
	v.Unlock()
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleDeleteView(w http.ResponseWriter, r *http.Request) {
	if err := s.views.Delete(r.Context(), chi.URLParam(r, "viewID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleToggle flips one node's collapse flag and returns the updated
// visibility.
func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	v, err := s.views.Get(chi.URLParam(r, "viewID"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req ToggleRequest
	if err := s.decodeRequest(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.ID == "" {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "missing node id"))
		return
	}

	v.Lock()
	defer v.Unlock()
	if _, ok := v.Graph.Node(req.ID); !ok {
		writeError(w, errors.New(errors.ErrCodeNotFound, "node %s not found", req.ID))
		return
	}
	collapsed := v.Tracker.Toggle(req.ID)
	writeJSON(w, http.StatusOK, ToggleResponse{
		NodeID:    req.ID,
		Collapsed: collapsed,
		ViewState: stateLocked(v),
	})
}

func (s *Server) handleCollapseAll(w http.ResponseWriter, r *http.Request) {
	v, err := s.views.Get(chi.URLParam(r, "viewID"))
	if err != nil {
		writeError(w, err)
		return
	}
	v.Lock()
	defer v.Unlock()
	v.Tracker.CollapseAll()
	writeJSON(w, http.StatusOK, stateLocked(v))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	v, err := s.views.Get(chi.URLParam(r, "viewID"))
	if err != nil {
		writeError(w, err)
		return
	}
	v.Lock()
	defer v.Unlock()
	v.Tracker.Reset()
	writeJSON(w, http.StatusOK, stateLocked(v))
}

// handleViewSVG renders the visible subgraph of a view as SVG. The view's
// theme applies unless ?theme= overrides it.
func (s *Server) handleViewSVG(w http.ResponseWriter, r *http.Request) {
	v, err := s.views.Get(chi.URLParam(r, "viewID"))
	if err != nil {
		writeError(w, err)
		return
	}
	theme := r.URL.Query().Get("theme")
	if theme == "" {
		theme = v.Options.Theme
	}
	th, err := render.ThemeByName(theme)
	if err != nil {
		writeError(w, err)
		return
	}

	v.Lock()
	hiddenNodes, hiddenEdges := v.Tracker.HiddenSets()
	v.Unlock()

	var buf bytes.Buffer
	if err := render.WriteSVG(&buf, v.Graph, render.WithTheme(th), render.WithHidden(hiddenNodes, hiddenEdges)); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// handleViewExport exports the visible subgraph as json (default) or svg.
// Formats that cannot express a collapsed state are rejected.
func (s *Server) handleViewExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatJSON
	}
	switch format {
	case pipeline.FormatJSON:
	case pipeline.FormatSVG:
		s.handleViewSVG(w, r)
		return
	default:
		writeError(w, errors.New(errors.ErrCodeUnsupported, "export format %q (must be json or svg)", format))
		return
	}

	v, err := s.views.Get(chi.URLParam(r, "viewID"))
	if err != nil {
		writeError(w, err)
		return
	}
	theme := r.URL.Query().Get("theme")
	if theme == "" {
		theme = v.Options.Theme
	}
	if _, err := render.ThemeByName(theme); err != nil {
		writeError(w, err)
		return
	}

	v.Lock()
	hiddenNodes, hiddenEdges := v.Tracker.HiddenSets()
	v.Unlock()

	var buf bytes.Buffer
	if err := render.WriteJSON(&buf, v.Graph, render.WithJSONTheme(theme), render.WithJSONHidden(hiddenNodes, hiddenEdges)); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
