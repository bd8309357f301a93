package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jsonflow/jsonflow/pkg/config"
	"github.com/jsonflow/jsonflow/pkg/observability"
	"github.com/jsonflow/jsonflow/pkg/pipeline"
)

// requestTimeout bounds a single request end to end, including graphviz
// rendering for PNG output.
const requestTimeout = 60 * time.Second

// Server exposes the pipeline over HTTP: stateless graph and render
// endpoints plus a registry of interactive views.
type Server struct {
	cfg    config.Config
	runner *pipeline.Runner
	views  *Registry
	logger *log.Logger
	http   *http.Server
}

// New wires a server from a validated config and a pipeline runner.
// A nil logger falls back to the default logger.
func New(cfg config.Config, runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		cfg:    cfg,
		runner: runner,
		views:  NewRegistry(cfg.Server.MaxViews),
		logger: logger,
	}
	s.http = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router builds the route table. It is exported so tests can drive the
// handlers through httptest without binding a socket.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(s.requestLogger)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/graph", s.handleGraph)
		r.Post("/render", s.handleRender)
		r.Route("/views", func(r chi.Router) {
			r.Post("/", s.handleCreateView)
			r.Route("/{viewID}", func(r chi.Router) {
				r.Get("/", s.handleGetView)
				r.Delete("/", s.handleDeleteView)
				r.Post("/toggle", s.handleToggle)
				r.Post("/collapse-all", s.handleCollapseAll)
				r.Post("/reset", s.handleReset)
				r.Get("/svg", s.handleViewSVG)
				r.Get("/export", s.handleViewExport)
			})
		})
	})

	return r
}

// Start begins serving and blocks until the listener closes.
func (s *Server) Start() error {
	s.logger.Info("server listening", "addr", s.cfg.Server.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// requestLogger logs one line per served request at debug level.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// instrument reports request and response events to the server hooks.
// The route pattern is read after serving so parameterized paths
// collapse into one label.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hooks := observability.Server()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		hooks.OnResponse(r.Context(), r.Method, route, ww.Status(), time.Since(start))
	})
}
