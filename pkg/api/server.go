package api

import (
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/shelfworks/planogram/pkg/buildinfo"
	"github.com/shelfworks/planogram/pkg/editor"
	"github.com/shelfworks/planogram/pkg/observability"
)

const maxBodyBytes = 4 << 20

// Server serves editing sessions held in a registry.
type Server struct {
	registry *editor.Registry
	logger   *log.Logger
	router   chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a server over reg.
func New(reg *editor.Registry, opts ...Option) *Server {
	s := &Server{
		registry: reg,
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/version", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, buildinfo.Get())
	})

	r.Route("/planograms", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Delete("/session", s.handleCloseSession)
			r.Get("/audit", s.handleAudit)
			r.Get("/diagram.svg", s.handleDiagram)
			r.Put("/name", s.handleRename)
			r.Put("/status", s.handleStatus)
			r.Put("/stores", s.handleStores)
			r.Post("/save", s.handleSave)
			r.Post("/reload", s.handleReload)
			r.Get("/versions", s.handleVersions)
			r.Get("/versions/{version}", s.handleVersion)

			r.Post("/sections", s.handleAddSection)
			r.Route("/sections/{section}", func(r chi.Router) {
				r.Delete("/", s.handleRemoveSection)
				r.Post("/rows", s.handleAddRow)
				r.Delete("/rows/last", s.handleRemoveLastRow)
				r.Put("/rows/{index}", s.handleResizeRow)
				r.Post("/components", s.handlePlace)
				r.Delete("/components/{component}", s.handleRemoveComponent)
				r.Put("/components/{component}/position", s.handleMove)
				r.Put("/components/{component}/facings", s.handleFacings)
			})
		})
	})
	return r
}

// observe reports every request to the API hooks and the logger. The route
// pattern is read after the handler ran, once chi has resolved it.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		observability.API().OnRequest(r.Context(), r.Method, route, status, elapsed)
		s.logger.Debug("request", "method", r.Method, "route", route, "status", status,
			"duration", elapsed, "request_id", middleware.GetReqID(r.Context()))
	})
}
