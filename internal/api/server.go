// Package api provides the HTTP API server and handlers for the seed catalog.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures the HTTP server.
type Options struct {
	CORSAllowedOrigins []string
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
	// LookupLimiter throttles the species lookup routes per client IP when set.
	LookupLimiter *RateLimiter
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    Pinger
	services *Services
	router   *chi.Mux
	api      huma.API
	logger   *slog.Logger
	opts     Options
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(store Pinger, services *Services, opts Options, logger *slog.Logger) *Server {
	s := &Server{
		store:    store,
		services: services,
		router:   chi.NewRouter(),
		logger:   logger,
		opts:     opts,
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("Seed Catalog API", "1.0.0")
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for tests.
func (s *Server) API() huma.API {
	return s.api
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)

	origins := s.opts.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	if s.opts.LookupLimiter != nil {
		s.router.Use(lookupRateLimit(s.opts.LookupLimiter, s.logger))
	}
}

// setupRoutes registers every operation.
func (s *Server) setupRoutes() {
	if s.opts.MetricsHandler != nil {
		s.router.Handle("/metrics", s.opts.MetricsHandler)
	}

	s.registerHealthRoutes()
	s.registerSpeciesRoutes()
	s.registerPlantRoutes()
	s.registerPacketLotRoutes()
	s.registerNoteRoutes()
}
