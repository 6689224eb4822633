// Package server exposes tree building and template rendering over HTTP.
//
// Routes:
//
//	GET    /healthz
//	POST   /api/parse              {"json": "<document text>"}
//	POST   /api/render             {"template": "...", "document_id": "..."} or {"template": "...", "data": {...}}
//	POST   /api/expression         {"path": "items[0].name"}
//	GET    /api/documents/{id}
//	DELETE /api/documents/{id}
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/mcncl/j2j/internal/config"
	"github.com/mcncl/j2j/internal/logging"
	"github.com/mcncl/j2j/internal/parser"
	"github.com/mcncl/j2j/internal/render"
	"github.com/mcncl/j2j/internal/store"
	"github.com/mcncl/j2j/internal/tree"
)

// Options configures a Server. Config and Store are required.
type Options struct {
	Config   *config.Config
	Store    store.Store
	Renderer *render.Renderer
	Logger   *log.Logger
}

// Server serves the j2j HTTP API.
type Server struct {
	cfg      *config.Config
	store    store.Store
	renderer *render.Renderer
	parser   *parser.Parser
	builder  *tree.Builder
	validate *validator.Validate
	logger   *log.Logger
	router   chi.Router
}

// New creates a Server and registers its routes.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Renderer == nil {
		opts.Renderer = render.New(render.Options{
			JSONIndent: opts.Config.Render.JSONIndent,
			Lenient:    !opts.Config.Render.StrictUndefined,
			Logger:     opts.Logger,
		})
	}

	p := parser.New()
	p.MaxDepth = opts.Config.Tree.MaxDepth

	s := &Server{
		cfg:      opts.Config,
		store:    opts.Store,
		renderer: opts.Renderer,
		parser:   p,
		builder:  &tree.Builder{MaxDepth: opts.Config.Tree.MaxDepth},
		validate: validator.New(),
		logger:   opts.Logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(s.limitBody)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/parse", s.handleParse)
		r.Post("/render", s.handleRender)
		r.Post("/expression", s.handleExpression)
		r.Get("/documents/{id}", s.handleGetDocument)
		r.Delete("/documents/{id}", s.handleDeleteDocument)
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on the configured address until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s,
		ReadTimeout:       s.cfg.Server.ReadTimeout,
		ReadHeaderTimeout: s.cfg.Server.ReadTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(logging.WithLogger(r.Context(), s.logger)))
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Microsecond),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes)
		next.ServeHTTP(w, r)
	})
}
