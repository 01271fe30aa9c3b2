// Package api serves the solver over HTTP.
//
// # Routes
//
//	POST /v1/solve    solve a problem (JSON or the plain text format)
//	GET  /v1/methods  list the accepted method names
//	GET  /healthz     liveness and build version
//	GET  /metrics     Prometheus metrics, when a handler is configured
//
// A JSON body has the form
//
//	{"capacity": 10, "items": [{"value": 40, "weight": 2}], "method": "dp"}
//
// Any other content type is parsed as the text problem format, with the
// method and ignore_memory_warning taken from the query string. Query
// values act as defaults for JSON bodies too.
//
// # Memory Confirmation
//
// A server cannot prompt, so a dynamic programming request whose table
// estimate reaches the memory threshold is answered with 409 and code
// ABORTED. Clients resend with ignore_memory_warning set to proceed.
//
// ignore_memory_warning never lifts [Config.MaxDPBytes]: a dynamic
// programming request above it is rejected with 400 and code INVALID_INPUT
// before anything is allocated.
//
// # Errors
//
// Failures are returned as [ErrorResponse] with the status derived from the
// error code (see [errors.HTTPStatus]).
package api

import (
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	kerrors "github.com/matzehuels/knapsack/pkg/errors"
	"github.com/matzehuels/knapsack/pkg/pipeline"
)

// DefaultMaxBodyBytes caps request bodies.
const DefaultMaxBodyBytes = 16 << 20

// Config configures a Server.
type Config struct {
	// Runner solves requests. Required.
	Runner *pipeline.Runner

	// Defaults are applied to every request before request fields.
	// Confirmer is ignored: the server never confirms.
	Defaults pipeline.Options

	// Metrics, if set, is mounted at /metrics.
	Metrics http.Handler

	// MaxBodyBytes caps request bodies (default DefaultMaxBodyBytes).
	MaxBodyBytes int64

	// MaxDPBytes caps the DP table a request may allocate. Defaults to the
	// memory threshold of Defaults.
	MaxDPBytes uint64

	Logger *log.Logger
}

// Server is the HTTP front end of a pipeline.Runner.
type Server struct {
	runner   *pipeline.Runner
	defaults pipeline.Options
	maxBody  int64
	maxDP    uint64
	logger   *log.Logger
	router   chi.Router
}

// New builds a server and its routes.
func New(cfg Config) *Server {
	s := &Server{
		runner:   cfg.Runner,
		defaults: cfg.Defaults,
		maxBody:  cfg.MaxBodyBytes,
		maxDP:    cfg.MaxDPBytes,
		logger:   cfg.Logger,
	}
	if s.maxBody <= 0 {
		s.maxBody = DefaultMaxBodyBytes
	}
	if s.maxDP == 0 {
		s.maxDP = thresholdOf(cfg.Defaults)
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, s.logger)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/methods", s.handleMethods)
		r.Post("/solve", s.handleSolve)
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, RequestIDFromContext(r.Context()), kerrors.New(kerrors.ErrCodeNotFound, "no such route: %s %s", r.Method, r.URL.Path))
	})
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// HTTPServer wraps s in an http.Server listening on addr with conservative
// timeouts. Solve requests are bounded by the pipeline timeout, not by the
// write timeout.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		IdleTimeout:       2 * time.Minute,
	}
}
