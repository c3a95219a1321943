// Package api serves the latest scoring results and stateless engine
// evaluations over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/snowcore/pdm-cli/internal/config"
	"github.com/snowcore/pdm-cli/internal/graph"
	"github.com/snowcore/pdm-cli/internal/metrics"
	"github.com/snowcore/pdm-cli/internal/store"
)

// maxBodyBytes caps request bodies for the evaluation endpoints.
const maxBodyBytes = 10 << 20

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	store   store.Store
	topo    *graph.Graph
	engine  config.EngineConfig
	metrics *metrics.Registry
	cfg     config.ServerConfig
	limiter *rate.Limiter
}

// NewServer creates a Server. reg may be nil to disable request metrics and
// the /metrics endpoint. A non-positive rate limit disables limiting.
func NewServer(st store.Store, topo *graph.Graph, engine config.EngineConfig, reg *metrics.Registry, cfg config.ServerConfig) *Server {
	s := &Server{
		store:   st,
		topo:    topo,
		engine:  engine,
		metrics: reg,
		cfg:     cfg,
	}
	if cfg.RateLimitRPS > 0 {
		burst := cfg.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burst)
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.metricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(s.rateLimitMiddleware)
		r.Use(middleware.Timeout(30 * time.Second))

		r.Get("/decisions", s.handleDecisions)
		r.Get("/propagation", s.handlePropagation)
		r.Get("/correlation", s.handleCorrelation)
		r.Get("/cycles/{id}", s.handleCycle)

		r.Post("/decide", s.handleDecide)
		r.Post("/propagate", s.handlePropagate)
		r.Post("/correlate", s.handleCorrelate)
	})
	return r
}
